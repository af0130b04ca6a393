// Package store handles SQLite persistence of session history.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/verte-zerg/stopit/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

// Store wraps SQLite access for session data.
type Store struct {
	db *sql.DB
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			participant TEXT NOT NULL,
			session_label TEXT NOT NULL,
			gender TEXT NOT NULL,
			age TEXT NOT NULL,
			started_at TEXT NOT NULL,
			ended_at TEXT NOT NULL,
			status TEXT NOT NULL,
			final_ssd_ms INTEGER NOT NULL,
			output_path TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS trials (
			session_id TEXT NOT NULL,
			seq INTEGER NOT NULL,
			block INTEGER NOT NULL,
			trial INTEGER NOT NULL,
			direction TEXT NOT NULL,
			signal INTEGER NOT NULL,
			response TEXT NOT NULL,
			rt_ms INTEGER NOT NULL,
			ssd_req_ms INTEGER NOT NULL,
			ssd_true_ms INTEGER NOT NULL,
			correct INTEGER NOT NULL,
			feedback TEXT NOT NULL,
			PRIMARY KEY (session_id, seq)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_started_at ON sessions(started_at);`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_participant ON sessions(participant);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// InsertSession stores a session and its trial log. An empty record ID is
// replaced by a new UUID; the stored ID is returned.
func (s *Store) InsertSession(ctx context.Context, rec model.SessionRecord, outcomes []model.TrialOutcome) (id string, err error) {
	id = rec.ID
	if id == "" {
		id = uuid.NewString()
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO sessions (id, participant, session_label, gender, age, started_at, ended_at, status, final_ssd_ms, output_path)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id,
		rec.Participant.ID,
		rec.Participant.Session,
		rec.Participant.Gender,
		rec.Participant.Age,
		rec.StartedAt.Format(time.RFC3339Nano),
		rec.EndedAt.Format(time.RFC3339Nano),
		rec.Status,
		rec.FinalSSDMs,
		rec.OutputPath,
	)
	if err != nil {
		return "", err
	}

	if len(outcomes) > 0 {
		stmt, perr := tx.PrepareContext(ctx,
			`INSERT INTO trials (session_id, seq, block, trial, direction, signal, response, rt_ms, ssd_req_ms, ssd_true_ms, correct, feedback)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if perr != nil {
			err = perr
			return "", err
		}
		defer func() {
			if cerr := stmt.Close(); cerr != nil {
				// Best-effort statement close.
				_ = cerr
			}
		}()
		for i, o := range outcomes {
			_, err = stmt.ExecContext(ctx, id, i, o.Block, o.Trial,
				o.Spec.Direction.String(), boolInt(o.Spec.HasSignal), string(o.Response),
				o.RTMs, o.SignalRequestMs, o.SignalActualMs, boolInt(o.Correct), o.Feedback)
			if err != nil {
				return "", err
			}
		}
	}

	if err = tx.Commit(); err != nil {
		return "", err
	}
	return id, nil
}

// ListSessions returns stored sessions in start order, filtered by cfg.
// cfg.Last keeps only the most recent sessions.
func (s *Store) ListSessions(ctx context.Context, cfg model.HistoryConfig) ([]model.SessionRecord, error) {
	clauses := []string{"1=1"}
	args := []any{}
	if cfg.Participant != "" {
		clauses = append(clauses, "s.participant = ?")
		args = append(args, cfg.Participant)
	}
	if cfg.Since != nil {
		clauses = append(clauses, "s.started_at >= ?")
		args = append(args, cfg.Since.Format(time.RFC3339Nano))
	}
	query := fmt.Sprintf(`SELECT s.id, s.participant, s.session_label, s.gender, s.age,
			s.started_at, s.ended_at, s.status, s.final_ssd_ms, s.output_path,
			(SELECT COUNT(*) FROM trials t WHERE t.session_id = s.id)
		FROM sessions s
		WHERE %s
		ORDER BY s.started_at ASC`, strings.Join(clauses, " AND "))
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var sessions []model.SessionRecord
	for rows.Next() {
		var rec model.SessionRecord
		var startedAt, endedAt string
		if err := rows.Scan(&rec.ID, &rec.Participant.ID, &rec.Participant.Session, &rec.Participant.Gender,
			&rec.Participant.Age, &startedAt, &endedAt, &rec.Status, &rec.FinalSSDMs, &rec.OutputPath, &rec.Trials); err != nil {
			return nil, err
		}
		if rec.StartedAt, err = time.Parse(time.RFC3339Nano, startedAt); err != nil {
			return nil, err
		}
		if rec.EndedAt, err = time.Parse(time.RFC3339Nano, endedAt); err != nil {
			return nil, err
		}
		sessions = append(sessions, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if cfg.Last > 0 && len(sessions) > cfg.Last {
		sessions = sessions[len(sessions)-cfg.Last:]
	}
	return sessions, nil
}

// ListOutcomes returns the trial log of a session in recorded order.
func (s *Store) ListOutcomes(ctx context.Context, sessionID string) ([]model.TrialOutcome, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT block, trial, direction, signal, response, rt_ms, ssd_req_ms, ssd_true_ms, correct, feedback
		FROM trials
		WHERE session_id = ?
		ORDER BY seq ASC`, sessionID)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var outcomes []model.TrialOutcome
	for rows.Next() {
		var o model.TrialOutcome
		var direction, response string
		var signal, correct int
		if err := rows.Scan(&o.Block, &o.Trial, &direction, &signal, &response, &o.RTMs,
			&o.SignalRequestMs, &o.SignalActualMs, &correct, &o.Feedback); err != nil {
			return nil, err
		}
		dir, ok := model.ParseDirection(direction)
		if !ok {
			return nil, fmt.Errorf("invalid direction %q in session %s", direction, sessionID)
		}
		o.Spec = model.TrialSpec{Direction: dir, HasSignal: signal != 0}
		o.Response = model.Key(response)
		o.Correct = correct != 0
		outcomes = append(outcomes, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return outcomes, nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
