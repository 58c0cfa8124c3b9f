// Package journal keeps a local record of every write the bot made, so an
// operator can see what happened on a run without digging through the
// wiki's contributions page.
package journal

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"time"
	"wikibot/internal/components/chrono"
	"wikibot/internal/mediawiki"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var Schema string

type Action string

const (
	ActionEdit    Action = "edit"
	ActionSection Action = "section"
)

type Entry struct {
	ID        int64
	Title     string
	Action    Action
	Summary   string
	Result    string
	ErrorCode string
	OldRevID  int64
	NewRevID  int64
	CreatedAt time.Time
}

// EntryFromWrite turns the outcome of a page write into a journal entry.
func EntryFromWrite(action Action, title, summary string, res mediawiki.WriteResult) Entry {
	entry := Entry{
		Title:    title,
		Action:   action,
		Summary:  summary,
		Result:   res.Result,
		OldRevID: res.OldRevID,
		NewRevID: res.NewRevID,
	}
	if res.Error != nil {
		entry.Result = "Error"
		entry.ErrorCode = res.Error.Code
	}
	if entry.Result == "" {
		entry.Result = "Unknown"
	}
	return entry
}

type Journal struct {
	db    *sql.DB
	clock chrono.API
}

// Open creates the journal database at path if needed. ":memory:" gives a
// journal that lives as long as the process.
func Open(ctx context.Context, path string, clock chrono.API) (*Journal, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("journal: open %s: %w", path, err)
	}
	// every connection to :memory: is its own database
	db.SetMaxOpenConns(1)

	_, err = db.ExecContext(ctx, Schema)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("journal: apply schema: %w", err)
	}
	if clock == nil {
		clock = chrono.NewStandardImpl()
	}
	return &Journal{db: db, clock: clock}, nil
}

func (j *Journal) Close() error {
	return j.db.Close()
}

// Record stores an entry and returns its id, CreatedAt defaults to now.
func (j *Journal) Record(ctx context.Context, entry Entry) (int64, error) {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = j.clock.Now()
	}
	res, err := j.db.ExecContext(
		ctx,
		`insert into edits(title, action, summary, result, error_code, old_revid, new_revid, created_at)
		values (?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.Title,
		string(entry.Action),
		entry.Summary,
		entry.Result,
		entry.ErrorCode,
		entry.OldRevID,
		entry.NewRevID,
		entry.CreatedAt.UnixMilli(),
	)
	if err != nil {
		return 0, fmt.Errorf("journal: record %q: %w", entry.Title, err)
	}
	return res.LastInsertId()
}

// Recent returns at most limit entries, newest first.
func (j *Journal) Recent(ctx context.Context, limit int) ([]Entry, error) {
	rows, err := j.db.QueryContext(
		ctx,
		`select id, title, action, summary, result, error_code, old_revid, new_revid, created_at
		from edits order by created_at desc, id desc limit ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("journal: recent: %w", err)
	}
	return scanEntries(rows)
}

// ForTitle returns every entry of one page, newest first.
func (j *Journal) ForTitle(ctx context.Context, title string) ([]Entry, error) {
	rows, err := j.db.QueryContext(
		ctx,
		`select id, title, action, summary, result, error_code, old_revid, new_revid, created_at
		from edits where title = ? order by created_at desc, id desc`,
		title,
	)
	if err != nil {
		return nil, fmt.Errorf("journal: for title %q: %w", title, err)
	}
	return scanEntries(rows)
}

func scanEntries(rows *sql.Rows) ([]Entry, error) {
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var entry Entry
		var action string
		var createdAt int64
		err := rows.Scan(
			&entry.ID,
			&entry.Title,
			&action,
			&entry.Summary,
			&entry.Result,
			&entry.ErrorCode,
			&entry.OldRevID,
			&entry.NewRevID,
			&createdAt,
		)
		if err != nil {
			return nil, fmt.Errorf("journal: scan: %w", err)
		}
		entry.Action = Action(action)
		entry.CreatedAt = time.UnixMilli(createdAt).UTC()
		out = append(out, entry)
	}
	return out, rows.Err()
}
