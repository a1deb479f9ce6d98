package libemit

import (
	"context"
	"net/http"
	"net/url"

	"github.com/pkg/errors"
)

type (
	// DialParams tells a connection where and how to dial.
	DialParams struct {
		URL    url.URL
		Header http.Header
	}

	DialParamsGetter func(ctx context.Context) (DialParams, error)

	// DialParamsRepo resolves DialParams on every dial, so that signed URLs or tokens
	// can be refreshed between reconnections.
	DialParamsRepo struct {
		logger Logger
		getter DialParamsGetter
	}
)

func (r DialParamsRepo) Get(
	ctx context.Context,
) (params DialParams, err error) {
	params, err = r.getter(ctx)
	if err != nil {
		r.logger.Errorf("cannot fetch dial params: %s", err)
	}
	return
}

func NewDialParamsRepo(
	logger Logger,
	getter DialParamsGetter,
) DialParamsRepo {
	return DialParamsRepo{getter: getter, logger: logger}
}

// NewStaticDialParamsRepo always dials rawURL with the given header.
func NewStaticDialParamsRepo(logger Logger, rawURL string, header http.Header) (DialParamsRepo, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return DialParamsRepo{}, errors.Wrapf(ErrInvalidConfig, "invalid relay url %q: %s", rawURL, err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return DialParamsRepo{}, errors.Wrapf(ErrInvalidConfig, "relay url %q must use ws or wss", rawURL)
	}

	params := DialParams{URL: *u, Header: header}
	return NewDialParamsRepo(logger, func(context.Context) (DialParams, error) {
		return params, nil
	}), nil
}
