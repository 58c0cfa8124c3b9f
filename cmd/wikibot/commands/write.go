package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"wikibot/internal/journal"
	"wikibot/internal/mediawiki"
	"wikibot/internal/wikitext"
	"wikibot/lib/textutil"

	"github.com/spf13/cobra"
)

var (
	writeFile     string
	writeSummary  string
	writeMinor    bool
	writeNotBot   bool
	writeForce    bool
	editDryRun    bool
	appendHeading string
)

func init() {
	for _, cmd := range []*cobra.Command{editCmd, appendCmd} {
		cmd.Flags().StringVar(&writeFile, "file", "-", "File holding the new text, - for stdin.")
		cmd.Flags().StringVar(&writeSummary, "summary", "", "Edit summary.")
		cmd.Flags().BoolVar(&writeMinor, "minor", false, "Mark as a minor edit.")
		cmd.Flags().BoolVar(&writeNotBot, "not-bot", false, "Do not flag the edit as a bot edit.")
		cmd.Flags().BoolVar(&writeForce, "force", false, "Write even when the page excludes this bot with {{bots}} or {{nobots}}.")
		rootCmd.AddCommand(cmd)
	}
	editCmd.Flags().BoolVar(&editDryRun, "dry-run", false, "Print the diff instead of saving.")
	appendCmd.Flags().StringVar(&appendHeading, "heading", "", "Heading of the new section.")
	_ = appendCmd.MarkFlagRequired("heading")
}

func readInput() (string, error) {
	var input io.Reader = os.Stdin
	if writeFile != "-" {
		f, err := os.Open(writeFile)
		if err != nil {
			return "", fmt.Errorf("open input: %w", err)
		}
		defer f.Close()
		input = f
	}
	raw, err := io.ReadAll(input)
	if err != nil {
		return "", fmt.Errorf("read input: %w", err)
	}
	return string(raw), nil
}

func writeOptions() []mediawiki.EditOption {
	var opts []mediawiki.EditOption
	if writeMinor {
		opts = append(opts, mediawiki.Minor())
	}
	if writeNotBot {
		opts = append(opts, mediawiki.NotBot())
	}
	return opts
}

// checkExclusion fails when the page opts out of this bot.
func (s *session) checkExclusion(page *mediawiki.Page) error {
	if writeForce {
		return nil
	}
	content, ok := page.Content()
	if !ok {
		return nil
	}
	if !wikitext.BotsAllowed(content, s.botName()) {
		return fmt.Errorf("%s excludes %q with {{bots}}/{{nobots}}, use --force to write anyway", page.Title(), s.botName())
	}
	return nil
}

func (s *session) report(ctx context.Context, action journal.Action, page *mediawiki.Page, summary string, res mediawiki.WriteResult) error {
	if s.journal != nil {
		_, err := s.journal.Record(ctx, journal.EntryFromWrite(action, page.Title(), summary, res))
		if err != nil {
			slog.Warn("failed to record edit in journal", "err", err)
		}
	}

	switch {
	case res.Success() && res.NoChange:
		fmt.Printf("%s: no change\n", page.Title())
	case res.Success():
		fmt.Printf("%s: saved revision %d (previous %d)\n", page.Title(), res.NewRevID, res.OldRevID)
	case res.Conflict():
		return fmt.Errorf("edit conflict on %s, read the page again and redo the change: %w", page.Title(), res.Err())
	default:
		return fmt.Errorf("the wiki rejected the write to %s: %w", page.Title(), res.Err())
	}
	return nil
}

var editCmd = &cobra.Command{
	Use:   "edit <title> [--file <path>] [--summary <text>] [--dry-run]",
	Short: "Replaces the text of a page, creating it if needed.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		text, err := readInput()
		if err != nil {
			return err
		}

		s, err := openSession(ctx, !editDryRun)
		if err != nil {
			return err
		}
		defer s.Close()

		page, err := s.page(ctx, args[0], false)
		if err != nil {
			return err
		}
		err = s.checkExclusion(page)
		if err != nil {
			return err
		}

		if editDryRun {
			old, _ := page.Content()
			patch, changed := textutil.Diff(old, text)
			if !changed {
				fmt.Printf("%s: no change\n", page.Title())
				return nil
			}
			fmt.Print(patch)
			return nil
		}

		res, err := page.Edit(ctx, text, writeSummary, writeOptions()...)
		if err != nil {
			return err
		}
		return s.report(ctx, journal.ActionEdit, page, writeSummary, res)
	},
}

var appendCmd = &cobra.Command{
	Use:   "append <title> --heading <heading> [--file <path>] [--summary <text>]",
	Short: "Adds a new section at the end of a page.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		text, err := readInput()
		if err != nil {
			return err
		}

		s, err := openSession(ctx, true)
		if err != nil {
			return err
		}
		defer s.Close()

		page, err := s.page(ctx, args[0], false)
		if err != nil {
			return err
		}
		err = s.checkExclusion(page)
		if err != nil {
			return err
		}

		summary := writeSummary
		if summary == "" {
			summary = appendHeading
		}
		res, err := page.AppendSection(ctx, appendHeading, text, summary, writeOptions()...)
		if err != nil {
			return err
		}
		return s.report(ctx, journal.ActionSection, page, summary, res)
	},
}
