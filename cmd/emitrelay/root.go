package main

import (
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/sonirico/libemit"
)

type globalFlags struct {
	verbosity  int
	configPath string
	url        string
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:   "emitrelay",
		Short: "Relay emitter events over a websocket",
		Long: `emitrelay connects to a websocket peer speaking libemit frames. It can listen
for events and log them, or publish a single event and exit.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			setupLogger(flags.verbosity)
			log.Debug().Str("command", cmd.Name()).Msg("Command started")
		},
		SilenceUsage:  true,
		SilenceErrors: false,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}

	rootCmd.PersistentFlags().CountVarP(&flags.verbosity, "verbose", "v", "Increase verbosity (-v INFO, -vv DEBUG, -vvv TRACE)")
	rootCmd.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "", "Config file (.yaml, .yml, .json or .toml)")
	rootCmd.PersistentFlags().StringVar(&flags.url, "url", "", "Websocket URL of the peer, overrides relay.url")

	rootCmd.AddCommand(newListenCmd(flags))
	rootCmd.AddCommand(newPublishCmd(flags))

	return rootCmd
}

// loadConfig reads the config file when one is given and applies flag overrides.
func (f *globalFlags) loadConfig() (libemit.Config, error) {
	var cfg libemit.Config
	if f.configPath != "" {
		var err error
		if cfg, err = libemit.LoadConfig(f.configPath); err != nil {
			return cfg, err
		}
	}
	if f.url != "" {
		cfg.Relay.URL = f.url
	}
	if cfg.Relay.URL == "" {
		return cfg, errors.Wrap(libemit.ErrInvalidConfig, "no relay url, set relay.url or --url")
	}
	return cfg, nil
}

// newRelay builds the emitter described by cfg and a relay mirroring it.
func newRelay(cfg libemit.Config) (*libemit.DynamicEmitter, *libemit.Relay, error) {
	logger := libemit.NewZerologLogger(log.Logger)

	opts, err := cfg.Options()
	if err != nil {
		return nil, nil, err
	}
	emitter := libemit.NewDynamicEmitter(append(opts, libemit.WithLogger(logger))...)

	relayOpts, err := cfg.Relay.RelayOptions()
	if err != nil {
		return nil, nil, err
	}

	repo, err := libemit.NewStaticDialParamsRepo(logger, cfg.Relay.URL, nil)
	if err != nil {
		return nil, nil, err
	}

	relay := libemit.NewRelay(
		emitter,
		libemit.NewWebsocketFactory(logger, nil, repo, libemit.ErrorAdapters{}),
		append(relayOpts, libemit.WithRelayLogger(logger))...,
	)

	return emitter, relay, nil
}
