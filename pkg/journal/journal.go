// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package journal records two-phase file moves so an interrupted move can be finished
// or abandoned after a crash.
package journal

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// 📊 Phase is the progress of a journaled move
type Phase string

const (
	PhaseCopying   Phase = "copying"   // target may be absent, source intact
	PhaseCopied    Phase = "copied"    // target complete, source not yet removed
	PhaseDone      Phase = "done"      // source removed
	PhaseAbandoned Phase = "abandoned" // recovery found no target; source left in place
)

var ErrUnknownEntry = errors.Base("unknown journal entry")

// 📄 Entry is one journaled move
type Entry struct {
	ID        string
	Source    string
	Target    string
	Phase     Phase
	StartedAt time.Time
	UpdatedAt time.Time
}

// 📒 Journal records move progress
type Journal interface {
	Begin(ctx context.Context, id, source, target string) error
	Advance(ctx context.Context, id string, phase Phase) error
	Pending(ctx context.Context) ([]Entry, error)
	Close() error
}

const schema = `CREATE TABLE IF NOT EXISTS moves (
	id         TEXT PRIMARY KEY,
	source     TEXT NOT NULL,
	target     TEXT NOT NULL,
	phase      TEXT NOT NULL,
	started_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_moves_phase ON moves(phase);`

// 🗄️ SQLite is a Journal stored in a SQLite database file
type SQLite struct {
	db  *sql.DB
	now func() time.Time
}

var _ Journal = (*SQLite)(nil)

// 🏭 Open opens (creating when needed) the journal database at path
func Open(ctx context.Context, path string) (*SQLite, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, errors.Errorf("creating journal directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, errors.Errorf("opening journal: %w", err)
	}
	// sqlite allows a single writer
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, errors.Errorf("pinging journal: %w", err)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, errors.Errorf("migrating journal: %w", err)
	}

	zerolog.Ctx(ctx).Debug().Str("path", path).Msg("journal opened")

	return &SQLite{db: db, now: time.Now}, nil
}

// ✍️ Begin records the start of a move in PhaseCopying
func (j *SQLite) Begin(ctx context.Context, id, source, target string) error {
	now := j.now().UTC()
	_, err := j.db.ExecContext(ctx,
		`INSERT INTO moves (id, source, target, phase, started_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		id, source, target, string(PhaseCopying), now, now)
	if err != nil {
		return errors.Errorf("recording move %s: %w", id, err)
	}
	return nil
}

// ⏩ Advance moves an entry to the given phase
func (j *SQLite) Advance(ctx context.Context, id string, phase Phase) error {
	res, err := j.db.ExecContext(ctx,
		`UPDATE moves SET phase = ?, updated_at = ? WHERE id = ?`,
		string(phase), j.now().UTC(), id)
	if err != nil {
		return errors.Errorf("advancing move %s to %s: %w", id, phase, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Errorf("advancing move %s: %w", id, err)
	}
	if n == 0 {
		return errors.Errorf("%w: %s", ErrUnknownEntry, id)
	}
	return nil
}

// 📋 Pending lists entries that are neither done nor abandoned, oldest first
func (j *SQLite) Pending(ctx context.Context) ([]Entry, error) {
	rows, err := j.db.QueryContext(ctx,
		`SELECT id, source, target, phase, started_at, updated_at FROM moves
		 WHERE phase NOT IN (?, ?) ORDER BY started_at, id`,
		string(PhaseDone), string(PhaseAbandoned))
	if err != nil {
		return nil, errors.Errorf("querying pending moves: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var phase string
		if err := rows.Scan(&e.ID, &e.Source, &e.Target, &phase, &e.StartedAt, &e.UpdatedAt); err != nil {
			return nil, errors.Errorf("scanning move: %w", err)
		}
		e.Phase = Phase(phase)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Errorf("iterating moves: %w", err)
	}
	return entries, nil
}

// Close closes the database.
func (j *SQLite) Close() error {
	return j.db.Close()
}

// Nop is a Journal that records nothing. Used when no journal path is configured.
type Nop struct{}

var _ Journal = Nop{}

func (Nop) Begin(context.Context, string, string, string) error { return nil }
func (Nop) Advance(context.Context, string, Phase) error        { return nil }
func (Nop) Pending(context.Context) ([]Entry, error)            { return nil, nil }
func (Nop) Close() error                                        { return nil }
