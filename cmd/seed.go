package cmd

import (
	"fmt"

	"github.com/corpsite/corpsite-api/internal/seed"
	"github.com/spf13/cobra"
)

var seedFile string

// seedCmd loads fixture content into the configured stores
var seedCmd = &cobra.Command{
	Use:   "seed [file]",
	Short: "Load users, pages and investor documents from a YAML file",
	Long: `Writes the contents of a seed file through the same services the API uses.
Existing users and documents (same section and title) are skipped; pages
are replaced.

Example:
  corpsite-api seed deploy/seed.yaml`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSeed,
}

func init() {
	seedCmd.Flags().StringVarP(&seedFile, "file", "f", "seed.yaml", "seed file")
}

func runSeed(cmd *cobra.Command, args []string) error {
	path := seedFile
	if len(args) == 1 {
		path = args[0]
	}
	f, err := seed.Load(path)
	if err != nil {
		return err
	}
	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close(cmd.Context())

	res, err := seed.Apply(cmd.Context(), f, seed.Targets{
		Users:     a.deps.Users,
		Pages:     a.deps.Pages,
		Investors: a.deps.Investors,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "users: %d  pages: %d  documents: %d  skipped: %d\n", res.Users, res.Pages, res.Documents, res.Skipped)
	return nil
}
