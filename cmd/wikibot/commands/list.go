package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var (
	listDelay float64
	prefixNs  int
)

func init() {
	for _, cmd := range []*cobra.Command{transclusionsCmd, categoryCmd, prefixCmd} {
		cmd.Flags().Float64Var(&listDelay, "delay", 0, "Seconds to wait between two result pages.")
		rootCmd.AddCommand(cmd)
	}
	prefixCmd.Flags().IntVar(&prefixNs, "ns", 0, "Namespace number to search in.")
}

func printTitles(titles []string, err error) error {
	if err != nil {
		return err
	}
	for _, title := range titles {
		fmt.Println(title)
	}
	fmt.Printf("%d pages\n", len(titles))
	return nil
}

func delay() time.Duration {
	return time.Duration(listDelay * float64(time.Second))
}

var transclusionsCmd = &cobra.Command{
	Use:   "transclusions <title> [--delay <seconds>]",
	Short: "Lists every page transcluding a page, usually a template.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd.Context(), true)
		if err != nil {
			return err
		}
		defer s.Close()
		return printTitles(s.client.GetTransclusions(cmd.Context(), args[0], delay()))
	},
}

var categoryCmd = &cobra.Command{
	Use:   "category <name> [--delay <seconds>]",
	Short: "Lists the members of a category.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd.Context(), true)
		if err != nil {
			return err
		}
		defer s.Close()
		return printTitles(s.client.CategoryMembers(cmd.Context(), args[0], delay()))
	},
}

var prefixCmd = &cobra.Command{
	Use:   "prefix <prefix> [--ns <namespace>] [--delay <seconds>]",
	Short: "Lists the pages whose title starts with a prefix.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd.Context(), true)
		if err != nil {
			return err
		}
		defer s.Close()
		return printTitles(s.client.PrefixIndex(cmd.Context(), args[0], prefixNs, delay()))
	},
}
