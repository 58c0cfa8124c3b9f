package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"time"
	"wikibot/cmd/wikibot/commands"
	"wikibot/internal/components/telemetry"
	"wikibot/lib/osutil"
)

func run() error {
	ctx, cancel := osutil.SignalContext()
	defer cancel()

	t, err := telemetry.SetupFromEnv(ctx, "wikibot")
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		slog.Warn("failed to setup telemetry", "err", err)
	default:
		defer t.Shutdown(context.Background())
		telemetry.InstrumentPerfStats(ctx, telemetry.NewSlogAPI(), 15*time.Second)
	}

	return commands.ExecuteContext(ctx)
}

func main() {
	err := run()
	if err != nil {
		osutil.Fatal("wikibot failed", err)
	}
}
