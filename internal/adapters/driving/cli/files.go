package cli

import (
	"github.com/spf13/cobra"
)

var lsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List indexed documents",
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		docs, err := a.documents.List(cmd.Context())
		if err != nil {
			return err
		}
		if len(docs) == 0 {
			cmd.Println("no documents indexed")
			return nil
		}
		for _, doc := range docs {
			cmd.Printf("%s  %-40s  %8d bytes  %s\n",
				doc.ID, doc.OriginalName, doc.Size,
				doc.UploadedAt.Format("2006-01-02 15:04"))
		}
		return nil
	},
}

var rmCmd = &cobra.Command{
	Use:   "rm <document-id>...",
	Short: "Delete documents and their index entries",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		for _, id := range args {
			if err := a.ingest.Delete(cmd.Context(), id); err != nil {
				return err
			}
			cmd.Printf("deleted %s\n", id)
		}
		return nil
	},
}

var reindexCmd = &cobra.Command{
	Use:   "reindex <document-id>...",
	Short: "Re-extract and re-index stored documents",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		for _, id := range args {
			count, err := a.ingest.Reindex(cmd.Context(), id)
			if err != nil {
				return err
			}
			cmd.Printf("reindexed %s: %d chunks\n", id, count)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(lsCmd)
	rootCmd.AddCommand(rmCmd)
	rootCmd.AddCommand(reindexCmd)
}
