package cmd

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

func RootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pgpong",
		Short: "Policy-gradient training on a simulated pong environment",
	}
	AddFlags(cmd)

	cmd.AddCommand(
		TrainCommand(),
		PlayCommand(),
		HistoryCommand(),
	)

	return cmd
}

func newLogger() zerolog.Logger {
	level, err := zerolog.ParseLevel(logLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).
		With().Timestamp().Logger()
}
