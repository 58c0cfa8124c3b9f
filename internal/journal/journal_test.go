package journal

import (
	"context"
	"path/filepath"
	"testing"
	"time"
	"wikibot/internal/components/chrono"
	"wikibot/internal/mediawiki"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestJournalRecent(t *testing.T) {
	ctx := context.Background()
	start := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	clock := chrono.NewFakeImpl(start)

	j, err := Open(ctx, ":memory:", clock)
	require.NoError(t, err)
	defer j.Close()

	first, err := j.Record(ctx, EntryFromWrite(ActionEdit, "Foo", "tag", mediawiki.WriteResult{
		Result:   "Success",
		OldRevID: 10,
		NewRevID: 11,
	}))
	require.NoError(t, err)

	require.NoError(t, clock.Sleep(ctx, time.Minute))
	_, err = j.Record(ctx, EntryFromWrite(ActionSection, "User talk:Bar", "Notice", mediawiki.WriteResult{
		Error: &mediawiki.APIError{Code: "editconflict", Info: "Edit conflict detected."},
	}))
	require.NoError(t, err)

	require.NoError(t, clock.Sleep(ctx, time.Minute))
	_, err = j.Record(ctx, EntryFromWrite(ActionEdit, "Foo", "retag", mediawiki.WriteResult{
		Result:   "Success",
		OldRevID: 11,
		NewRevID: 12,
	}))
	require.NoError(t, err)

	recent, err := j.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	require.Equal(t, "retag", recent[0].Summary)
	require.Equal(t, "User talk:Bar", recent[1].Title)
	require.Equal(t, ActionSection, recent[1].Action)
	require.Equal(t, "Error", recent[1].Result)
	require.Equal(t, "editconflict", recent[1].ErrorCode)

	history, err := j.ForTitle(ctx, "Foo")
	require.NoError(t, err)
	expected := []Entry{
		{
			ID:        3,
			Title:     "Foo",
			Action:    ActionEdit,
			Summary:   "retag",
			Result:    "Success",
			OldRevID:  11,
			NewRevID:  12,
			CreatedAt: start.Add(2 * time.Minute),
		},
		{
			ID:        first,
			Title:     "Foo",
			Action:    ActionEdit,
			Summary:   "tag",
			Result:    "Success",
			OldRevID:  10,
			NewRevID:  11,
			CreatedAt: start,
		},
	}
	require.Empty(t, cmp.Diff(expected, history))
}

func TestJournalPersists(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "journal.db")

	j, err := Open(ctx, path, nil)
	require.NoError(t, err)
	_, err = j.Record(ctx, Entry{Title: "Foo", Action: ActionEdit, Summary: "s", Result: "Success"})
	require.NoError(t, err)
	require.NoError(t, j.Close())

	j, err = Open(ctx, path, nil)
	require.NoError(t, err)
	defer j.Close()

	recent, err := j.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	require.Equal(t, "Foo", recent[0].Title)
	require.False(t, recent[0].CreatedAt.IsZero())
}
