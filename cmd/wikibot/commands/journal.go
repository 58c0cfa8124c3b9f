package commands

import (
	"errors"
	"os"
	"time"
	"wikibot/internal/journal"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var (
	journalLimit int
	journalTitle string
)

func init() {
	journalCmd.Flags().IntVar(&journalLimit, "limit", 20, "Number of entries to show.")
	journalCmd.Flags().StringVar(&journalTitle, "title", "", "Only show writes to this page.")
	rootCmd.AddCommand(journalCmd)
}

var journalCmd = &cobra.Command{
	Use:   "journal [--limit <n>] [--title <title>]",
	Short: "Prints the writes recorded in the edit journal, newest first.",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd.Context(), false)
		if err != nil {
			return err
		}
		defer s.Close()
		if s.journal == nil {
			return errors.New("no journal path in config")
		}

		var entries []journal.Entry
		if journalTitle != "" {
			entries, err = s.journal.ForTitle(cmd.Context(), journalTitle)
		} else {
			entries, err = s.journal.Recent(cmd.Context(), journalLimit)
		}
		if err != nil {
			return err
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"Time", "Action", "Page", "Result", "Revision", "Summary"})
		for _, entry := range entries {
			result := entry.Result
			if entry.ErrorCode != "" {
				result = entry.ErrorCode
			}
			t.AppendRow(table.Row{
				entry.CreatedAt.Local().Format(time.DateTime),
				entry.Action,
				entry.Title,
				result,
				entry.NewRevID,
				shorten(entry.Summary),
			})
		}
		t.SetStyle(table.StyleRounded)
		t.Render()
		return nil
	},
}
