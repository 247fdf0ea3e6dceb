package main

import (
	"fmt"
	"io"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/BetterCallFirewall/wildfire-client/internal/config"
	"github.com/BetterCallFirewall/wildfire-client/internal/driven"
	"github.com/BetterCallFirewall/wildfire-client/internal/printer"
	"github.com/BetterCallFirewall/wildfire-client/internal/wildfire"
)

// usageError неверные аргументы командной строки, код выхода 2
type usageError struct {
	err error
}

func (e *usageError) Error() string { return e.err.Error() }

func (e *usageError) Unwrap() error { return e.err }

// newRootCmd собирает команду. clientCfg позволяет подменить эндпоинты и HTTP клиент,
// пустые поля заполняются из конфигурации запуска.
func newRootCmd(stdout io.Writer, logger zerolog.Logger, clientCfg wildfire.Config) *cobra.Command {
	var flags *config.Flags

	cmd := &cobra.Command{
		Use:   "wildfire",
		Short: "Submit a file to WildFire or Query a known hash of a file",
		Args: func(_ *cobra.Command, args []string) error {
			if len(args) > 0 {
				return &usageError{fmt.Errorf("unrecognized arguments: %v", args)}
			}
			return nil
		},
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := flags.Resolve()
			if err != nil {
				return &usageError{err}
			}

			if cfg.Debug {
				logger = logger.Level(zerolog.DebugLevel)
			}
			cfg.DebugOutput(stdout)

			if clientCfg.ReportURL == "" {
				clientCfg.ReportURL = cfg.ReportURL
			}
			if clientCfg.SubmissionURL == "" {
				clientCfg.SubmissionURL = cfg.SubmissionURL
			}
			clientCfg.Logger = &logger
			client := wildfire.NewClient(clientCfg)

			runner := driven.NewRunner(client, client, printer.New(stdout), logger)
			return runner.Run(cmd.Context(), cfg)
		},
	}

	cmd.SetOut(stdout)
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &usageError{err}
	})
	cmd.Flags().SortFlags = false
	flags = config.BindFlags(cmd.Flags())

	return cmd
}
