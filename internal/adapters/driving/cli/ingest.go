package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/crateview/docquery/internal/core/ports/driving"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <file>...",
	Short: "Index files for querying",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		uploads := make([]driving.Upload, 0, len(args))
		for _, path := range args {
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("reading %s: %w", path, err)
			}
			uploads = append(uploads, driving.Upload{
				Filename: filepath.Base(path),
				Data:     data,
			})
		}

		results, err := a.ingest.IngestBatch(cmd.Context(), uploads)
		if err != nil {
			return err
		}

		failed := 0
		for i, res := range results {
			if res.Err != nil {
				failed++
				cmd.PrintErrf("FAIL  %s: %v\n", uploads[i].Filename, res.Err)
				continue
			}
			cmd.Printf("OK    %s  id=%s  chunks=%d\n",
				uploads[i].Filename, res.Document.ID, res.ChunksIndexed)
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d files failed", failed, len(results))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}
