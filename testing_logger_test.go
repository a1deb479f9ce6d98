package libemit

import (
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/mock"
)

func quiet() Option {
	return WithLogger(NewZerologLogger(zerolog.Nop()))
}

// mockLogger records warnings and errors. Debug and info output is discarded.
type mockLogger struct {
	mock.Mock
}

func newMockLogger() *mockLogger {
	return &mockLogger{}
}

func (m *mockLogger) WithField(string, any) Logger { return m }

func (m *mockLogger) Debug(...any) {}

func (m *mockLogger) Debugf(string, ...any) {}

func (m *mockLogger) Debugln(...any) {}

func (m *mockLogger) Info(...any) {}

func (m *mockLogger) Infof(string, ...any) {}

func (m *mockLogger) Infoln(...any) {}

func (m *mockLogger) Warn(args ...any) { m.Called(args...) }

func (m *mockLogger) Warnf(format string, args ...any) { m.Called(append([]any{format}, args...)...) }

func (m *mockLogger) Warnln(args ...any) { m.Called(args...) }

func (m *mockLogger) Error(args ...any) { m.Called(args...) }

func (m *mockLogger) Errorf(format string, args ...any) { m.Called(append([]any{format}, args...)...) }

func (m *mockLogger) Errorln(args ...any) { m.Called(args...) }
