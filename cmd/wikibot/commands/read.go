package commands

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"wikibot/internal/wikitext"

	"github.com/antzucaro/matchr"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var (
	showFollow      bool
	templatesName   string
	templatesFollow bool
	textLinks       bool
)

func init() {
	showCmd.Flags().BoolVar(&showFollow, "follow", false, "Follow one redirect.")
	templatesCmd.Flags().StringVar(&templatesName, "name", "", "Only show invocations of this template.")
	templatesCmd.Flags().BoolVar(&templatesFollow, "follow", false, "Follow one redirect.")
	textCmd.Flags().BoolVar(&textLinks, "links", false, "Also list the pages linked from the rendered text.")

	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(templatesCmd)
	rootCmd.AddCommand(textCmd)
}

var showCmd = &cobra.Command{
	Use:   "show <title> [--follow]",
	Short: "Prints the latest revision of a page.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd.Context(), true)
		if err != nil {
			return err
		}
		defer s.Close()

		page, err := s.page(cmd.Context(), args[0], showFollow)
		if err != nil {
			return err
		}
		if !page.Exists() {
			fmt.Printf("%s does not exist\n", page.Title())
			return nil
		}
		content, _ := page.Content()
		fmt.Printf("== %s (id %d, revision of %s) ==\n", page.Title(), page.ID(), page.BaseTimestamp())
		fmt.Println(content)
		return nil
	},
}

const maxValueWidth = 60

var templatesCmd = &cobra.Command{
	Use:   "templates <title> [--name <template>]",
	Short: "Lists the template invocations on a page and their arguments.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd.Context(), true)
		if err != nil {
			return err
		}
		defer s.Close()

		page, err := s.page(cmd.Context(), args[0], templatesFollow)
		if err != nil {
			return err
		}
		content, ok := page.Content()
		if !ok {
			return fmt.Errorf("%s does not exist", page.Title())
		}

		records := wikitext.ParseTemplates(content)
		if templatesName != "" {
			filtered := wikitext.FilterTemplates(records, templatesName)
			if len(filtered) == 0 {
				suggestTemplate(records, templatesName)
				return nil
			}
			records = filtered
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"#", "Template", "Key", "Value"})
		for i, record := range records {
			if len(record.Args) == 0 {
				t.AppendRow(table.Row{i + 1, record.Name, "", ""})
			}
			for _, arg := range record.Args {
				t.AppendRow(table.Row{i + 1, record.Name, arg.Key, shorten(arg.Value)})
			}
			t.AppendSeparator()
		}
		t.SetStyle(table.StyleRounded)
		t.Render()
		return nil
	},
}

// suggestTemplate prints the names on the page closest to the one asked for.
func suggestTemplate(records []wikitext.Template, name string) {
	type candidate struct {
		name  string
		score float64
	}
	seen := map[string]bool{}
	var candidates []candidate
	for _, record := range records {
		if seen[record.Name] {
			continue
		}
		seen[record.Name] = true
		score := matchr.JaroWinkler(strings.ToLower(record.Name), strings.ToLower(name), false)
		if score >= 0.8 {
			candidates = append(candidates, candidate{name: record.Name, score: score})
		}
	}
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})

	fmt.Printf("no invocations of %q\n", name)
	for _, c := range candidates {
		fmt.Printf("  did you mean %q?\n", c.name)
	}
}

func shorten(value string) string {
	value = strings.Join(strings.Fields(value), " ")
	runes := []rune(value)
	if len(runes) <= maxValueWidth {
		return value
	}
	return string(runes[:maxValueWidth-3]) + "..."
}

var textCmd = &cobra.Command{
	Use:   "text <title> [--links]",
	Short: "Prints the rendered text of a page.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd.Context(), true)
		if err != nil {
			return err
		}
		defer s.Close()

		rendered, err := s.client.Render(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Println(rendered.Text)

		if !textLinks {
			return nil
		}
		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"Link text", "Page"})
		for _, link := range rendered.Links {
			t.AppendRow(table.Row{link.Name, link.Title})
		}
		t.SetStyle(table.StyleRounded)
		t.Render()
		return nil
	},
}
