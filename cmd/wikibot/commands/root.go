package commands

import (
	"context"
	"fmt"
	"log/slog"
	"time"
	"wikibot/internal/components/telemetry"
	"wikibot/internal/journal"
	"wikibot/internal/mediawiki"
	"wikibot/lib/configutil"

	"github.com/spf13/cobra"
)

type Config struct {
	ApiUrl           string  `json:"api_url"`
	Username         string  `json:"username"`
	Password         string  `json:"password"`
	UserAgent        string  `json:"user_agent"`
	Maxlag           int     `json:"maxlag"`
	EditDelaySeconds float64 `json:"edit_delay_seconds"`
	// Journal is the path of the sqlite edit journal, no journal is kept
	// when empty.
	Journal string `json:"journal"`
	// BotName is the name checked against {{bots}} / {{nobots}}, defaults
	// to Username.
	BotName string `json:"bot_name"`
}

var (
	configPath string
	debug      bool
	dumpDir    string
)

var rootCmd = &cobra.Command{
	Use:   "wikibot",
	Short: "wikibot is a CLI for reading, inspecting and editing pages of a MediaWiki wiki.",

	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		telemetry.InitSlog(debug)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "wikibot.json5", "Config file, searched for upwards from the working directory.")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Log every request made to the wiki.")
	rootCmd.PersistentFlags().StringVar(&dumpDir, "dump-dir", "", "Write every request and response to a file in this directory, which is emptied first.")
}

func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

type session struct {
	config  Config
	client  *mediawiki.Client
	journal *journal.Journal
}

// openSession reads the config and builds a client, logging in when login
// is set and credentials are configured. The caller defers Close on the
// returned session, on error nothing is left open.
func openSession(ctx context.Context, login bool) (*session, error) {
	config, err := configutil.ReadRecursively[Config](configPath)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", configPath, err)
	}

	client, err := mediawiki.NewClient(mediawiki.ClientOptions{
		ApiUrl:    config.ApiUrl,
		UserAgent: config.UserAgent,
		Maxlag:    config.Maxlag,
		EditDelay: time.Duration(config.EditDelaySeconds * float64(time.Second)),
		DumpDir:   dumpDir,
	}, telemetry.NewSlogAPI())
	if err != nil {
		return nil, err
	}

	s := &session{config: config, client: client}
	if login && config.Username != "" {
		err = client.Login(ctx, config.Username, config.Password)
		if err != nil {
			s.Close()
			return nil, err
		}
	}
	if config.Journal != "" {
		s.journal, err = journal.Open(ctx, config.Journal, nil)
		if err != nil {
			s.Close()
			return nil, err
		}
	}
	return s, nil
}

func (s *session) botName() string {
	if s.config.BotName != "" {
		return s.config.BotName
	}
	return s.config.Username
}

// Close logs out if logged in and closes the journal.
func (s *session) Close() {
	// the command context may already be cancelled
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err := s.client.Close(ctx)
	if err != nil {
		slog.Warn("failed to close session", "err", err)
	}
	if s.journal != nil {
		_ = s.journal.Close()
	}
}

// page reads title, following one redirect when follow is set.
func (s *session) page(ctx context.Context, title string, follow bool) (*mediawiki.Page, error) {
	page, err := s.client.Page(ctx, title)
	if err != nil {
		return nil, err
	}
	if !follow {
		return page, nil
	}
	return page.ResolveRedirect(ctx)
}
