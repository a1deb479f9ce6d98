package main

import (
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/sonirico/libemit"
)

const shutdownTimeout = 2 * time.Second

func newPublishCmd(flags *globalFlags) *cobra.Command {
	var (
		event   string
		payload string
	)

	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Send one event to the peer and exit",
		Long: `Publish sends a single frame to the peer. The payload is a JSON value; omit it
for events declared as void.`,
		Example: `  emitrelay publish --url ws://localhost:8080/events -e foo -p 42
  emitrelay publish -c emitter.yaml -e bar -p '"hello"'`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.loadConfig()
			if err != nil {
				return err
			}
			emitter, relay, err := newRelay(cfg)
			if err != nil {
				return err
			}

			frameArgs, err := publishArgs(emitter.Schema(), event, payload, cmd.Flags().Changed("payload"))
			if err != nil {
				return err
			}

			if err := relay.Open(cmd.Context()); err != nil {
				return err
			}
			if err := relay.Publish(event, frameArgs...); err != nil {
				relay.Close()
				return err
			}
			log.Info().Str("event", event).Msg("published")

			return relay.Shutdown(shutdownTimeout)
		},
	}

	cmd.Flags().StringVarP(&event, "event", "e", "", "Event name")
	cmd.Flags().StringVarP(&payload, "payload", "p", "", "JSON payload")
	_ = cmd.MarkFlagRequired("event")

	return cmd
}

// publishArgs turns the raw flag into emission arguments. Void events get the explicit token
// when no payload is given.
func publishArgs(schema libemit.Schema, event, raw string, given bool) ([]any, error) {
	if !given {
		if schema[event] == libemit.ShapeVoid {
			return []any{libemit.Nothing}, nil
		}
		return nil, nil
	}

	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return nil, errors.Wrapf(err, "payload of %s is not valid json", event)
	}
	return []any{v}, nil
}
