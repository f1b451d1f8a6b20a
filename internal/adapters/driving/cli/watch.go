package cli

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/crateview/docquery/internal/watcher"
)

var watchCmd = &cobra.Command{
	Use:   "watch [dir]",
	Short: "Ingest files dropped into a folder",
	Long: `Watches a directory and indexes any supported file created or
modified in it. Without an argument the configured watch directory is
used.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		dir := a.cfg.Watch.Dir
		if len(args) == 1 {
			dir = args[0]
		}
		if dir == "" {
			return errors.New("no watch directory given and none configured")
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		w := watcher.New(a.ingest, a.log,
			watcher.WithDebounce(time.Duration(a.cfg.Watch.DebounceMillis)*time.Millisecond))
		if err := w.Watch(ctx, dir); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
