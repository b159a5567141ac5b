package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/use-agent/bookingwatch/config"
)

// errTargetsFailed makes the process exit non-zero without printing usage.
var errTargetsFailed = errors.New("one or more targets failed")

var (
	cfg       *config.Config
	fetchMode string
)

var rootCmd = &cobra.Command{
	Use:           "bookingwatch",
	Short:         "bookingwatch renders hotel booking pages, extracts prices and sends a summary to Telegram.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg = config.Load()
		if fetchMode != "" {
			cfg.Engine.FetchMode = fetchMode
		}
		initLogger(cfg.Log, cmd.ErrOrStderr())
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&fetchMode, "fetch-mode", "",
		"fetch engine: browser, http or auto (default from BOOKINGWATCH_FETCH_MODE)")
}

func execute(ctx context.Context) int {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if !errors.Is(err, errTargetsFailed) {
			fmt.Fprintln(os.Stderr, err)
		}
		return 1
	}
	return 0
}

// initLogger configures slog based on the LogConfig.
func initLogger(lc config.LogConfig, w io.Writer) {
	var level slog.Level
	switch lc.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if lc.Format == "text" {
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}

	slog.SetDefault(slog.New(handler))
}
