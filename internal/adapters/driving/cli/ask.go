package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/crateview/docquery/internal/core/ports/driving"
)

var (
	askTopK    int
	askFileIDs []string
	askSession string
)

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask a question about indexed documents",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		query := strings.Join(args, " ")
		result, err := a.query.Answer(cmd.Context(), query, driving.QueryOptions{
			TopK:        askTopK,
			DocumentIDs: askFileIDs,
			SessionID:   askSession,
		})
		if err != nil {
			return err
		}

		cmd.Println(result.Answer.Answer)
		if result.Degraded {
			cmd.Println("\n(generation unavailable; answer assembled from retrieved evidence)")
		}
		if len(result.Answer.Citations) > 0 {
			cmd.Println("\nSources:")
			for _, c := range result.Answer.Citations {
				loc := c.Locator
				if loc != "" {
					loc = ", " + loc
				}
				cmd.Printf("  [%.2f] %s%s: %s\n", c.Confidence, c.DocumentName, loc, c.Snippet)
			}
		}
		cmd.Printf("\nConfidence: %.2f\n", result.Answer.Confidence)
		return nil
	},
}

func init() {
	askCmd.Flags().IntVarP(&askTopK, "top-k", "k", 0, "evidence budget (default from config)")
	askCmd.Flags().StringSliceVarP(&askFileIDs, "file", "f", nil, "restrict to document IDs")
	askCmd.Flags().StringVarP(&askSession, "session", "s", "", "record the turn in this chat session")
	rootCmd.AddCommand(askCmd)
}
