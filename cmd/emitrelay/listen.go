package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/sonirico/libemit"
)

func newListenCmd(flags *globalFlags) *cobra.Command {
	var events []string

	cmd := &cobra.Command{
		Use:   "listen",
		Short: "Log every event received from the peer",
		Long: `Listen subscribes to the declared events, plus any given with --event, and logs
each emission received from the peer until interrupted.`,
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

			names := listenNames(emitter.Schema(), events)
			if len(names) == 0 {
				return errors.Wrap(libemit.ErrInvalidConfig, "nothing to listen to, declare events or pass --event")
			}
			out := zerolog.New(cmd.OutOrStdout()).With().Timestamp().Logger()
			for _, name := range names {
				if err := emitter.On(name, logEvent(out, name)); err != nil {
					return err
				}
			}

			watchLifecycle(relay)

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			if err := relay.Open(ctx); err != nil {
				return err
			}
			log.Info().Str("url", cfg.Relay.URL).Strs("events", names).Msg("listening")

			stop := make(chan os.Signal, 1)
			signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
			defer signal.Stop(stop)

			select {
			case sig := <-stop:
				log.Info().Str("signal", sig.String()).Msg("shutting down")
				return relay.Shutdown(shutdownTimeout)
			case <-relay.CloseChan():
				return errors.Wrap(libemit.ErrConnectionClosed, "relay stopped")
			}
		},
	}

	cmd.Flags().StringSliceVarP(&events, "event", "e", nil, "Event to listen to, repeatable")

	return cmd
}

// listenNames merges the declared events with the extra ones, dropping duplicates.
func listenNames(schema libemit.Schema, extra []string) []string {
	names := schema.Names()
	seen := make(map[string]struct{}, len(names)+len(extra))
	for _, name := range names {
		seen[name] = struct{}{}
	}
	for _, name := range extra {
		if _, ok := seen[name]; ok || name == "" {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	return names
}

// logEvent writes one line per emission to out, regardless of verbosity.
func logEvent(out zerolog.Logger, name string) libemit.DynamicListener {
	return func(args ...any) {
		ev := out.Log().Str("event", name)
		switch len(args) {
		case 0:
		case 1:
			ev = ev.Interface("payload", args[0])
		default:
			ev = ev.Interface("payload", args)
		}
		ev.Msg("received")
	}
}

func watchLifecycle(relay *libemit.Relay) {
	bus := relay.Lifecycle()
	libemit.On(bus, libemit.RelayConnected, func(libemit.Void) {
		log.Info().Msg("connected")
	})
	libemit.On(bus, libemit.RelayReconnected, func(attempts int) {
		log.Info().Int("attempts", attempts).Msg("reconnected")
	})
	libemit.On(bus, libemit.RelayDisconnected, func(err error) {
		log.Warn().Err(err).Msg("disconnected")
	})
	libemit.On(bus, libemit.RelayDropped, func(d libemit.DroppedFrame) {
		log.Warn().Err(d.Err).Str("event", d.Frame.Event).Str("id", d.Frame.ID).Msg("dropped frame")
	})
}
