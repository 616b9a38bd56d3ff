package cmd

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/corpsite/corpsite-api/internal/investor"
	"github.com/corpsite/corpsite-api/internal/ranking"
	"github.com/corpsite/corpsite-api/internal/seed"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	rankYear    string
	rankSection string
)

// rankCmd previews a listing offline
var rankCmd = &cobra.Command{
	Use:   "rank [file]",
	Short: "Print investor documents in the order the site lists them",
	Long: `Reads a seed file, or a bare YAML/JSON list of documents exported from the
CMS, and prints them ranked for the selected fiscal year without touching
any store. An empty --year picks the most
recent year; --year all disables filtering.

Example:
  corpsite-api rank seed.yaml --section annual-reports --year 2023-24`,
	Args: cobra.ExactArgs(1),
	RunE: runRank,
}

func init() {
	rankCmd.Flags().StringVar(&rankYear, "year", "", "fiscal year tag, or \"all\"")
	rankCmd.Flags().StringVar(&rankSection, "section", "", "only documents of this section")
}

func runRank(cmd *cobra.Command, args []string) error {
	all, err := loadDocuments(args[0])
	if err != nil {
		return err
	}
	docs := all
	if rankSection != "" {
		docs = docs[:0:0]
		for _, d := range all {
			if d.Section == rankSection {
				docs = append(docs, d)
			}
		}
	}
	year := rankYear
	switch year {
	case "":
		year = ranking.DefaultYear(docs)
	case "all":
		year = ""
	}
	return printRanked(cmd.OutOrStdout(), ranking.RankDocuments(docs, year), year)
}

// loadDocuments accepts a seed file or a top-level list of documents.
func loadDocuments(path string) ([]investor.Document, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var list []investor.Document
	if err := yaml.Unmarshal(raw, &list); err == nil {
		return list, nil
	}
	f, err := seed.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	return f.Documents, nil
}

func printRanked(w io.Writer, docs []investor.Document, year string) error {
	if year == "" {
		year = "all"
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "# year: %s\n", year)
	fmt.Fprintln(tw, "#\tPUBLISHED\tYEAR\tSECTION\tTITLE")
	for i, d := range docs {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", i+1, d.PublishedDate, d.Year, d.Section, d.Title)
	}
	return tw.Flush()
}
