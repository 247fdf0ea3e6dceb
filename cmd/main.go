package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/BetterCallFirewall/wildfire-client/internal/wildfire"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr, wildfire.Config{}))
}

// run возвращает код выхода: 0 успех, 1 ошибка выполнения, 2 неверные аргументы
func run(args []string, stdout, stderr io.Writer, clientCfg wildfire.Config) int {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger().
		Level(zerolog.InfoLevel)

	cmd := newRootCmd(stdout, logger, clientCfg)
	cmd.SetArgs(args)
	cmd.SetErr(stderr)

	err := cmd.ExecuteContext(context.Background())
	if err == nil {
		return 0
	}

	var uerr *usageError
	if errors.As(err, &uerr) {
		fmt.Fprint(stderr, cmd.UsageString())
		fmt.Fprintf(stderr, "%s: error: %v\n", cmd.Name(), err)
		return 2
	}

	logger.Error().Err(err).Msg("wildfire request failed")
	return 1
}
