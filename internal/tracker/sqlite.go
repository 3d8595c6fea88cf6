package tracker

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// SQLiteStore is the default on-disk backend.
type SQLiteStore struct {
	db *sql.DB
}

// DefaultDBPath returns the default SQLite location under the user's home.
func DefaultDBPath() string {
	return filepath.Join(os.Getenv("HOME"), ".go_prep", "tracker.db")
}

// OpenSQLite opens (or creates) the SQLite database at path and runs
// idempotent schema init.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return nil, fmt.Errorf("sqlite: mkdir %s: %w", filepath.Dir(path), err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open db: %w", err)
	}
	db.SetMaxOpenConns(1) // SQLite: single writer
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: init schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS applications (
	id             TEXT PRIMARY KEY,
	company        TEXT NOT NULL,
	role           TEXT NOT NULL,
	status         TEXT NOT NULL DEFAULT 'applied',
	current_round  TEXT,
	interview_date TEXT,
	notes          TEXT,
	created_at     TEXT NOT NULL,
	updated_at     TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS rounds (
	application_id  TEXT NOT NULL REFERENCES applications(id) ON DELETE CASCADE,
	round_number    INTEGER NOT NULL,
	round_type      TEXT NOT NULL,
	notes           TEXT,
	scheduled_date  TEXT,
	questions_asked TEXT NOT NULL DEFAULT '[]',
	created_at      TEXT NOT NULL,
	updated_at      TEXT NOT NULL,
	PRIMARY KEY (application_id, round_number)
);
CREATE TABLE IF NOT EXISTS sprints (
	id            TEXT PRIMARY KEY,
	role          TEXT NOT NULL,
	company       TEXT,
	focus         TEXT,
	duration_days INTEGER NOT NULL,
	days          TEXT NOT NULL,
	summary       TEXT,
	created_at    TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS questions (
	id         TEXT PRIMARY KEY,
	topic      TEXT,
	question   TEXT NOT NULL,
	answer     TEXT,
	source     TEXT,
	created_at TEXT NOT NULL
);
`

func (s *SQLiteStore) Close() error { return s.db.Close() }

// --- time helpers: SQLite stores RFC3339 strings ---

func fmtTime(t time.Time) string { return t.UTC().Format(time.RFC3339) }

func fmtTimePtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return fmtTime(*t)
}

func parseTimeStr(s sql.NullString) *time.Time {
	if !s.Valid || s.String == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, s.String)
	if err != nil {
		return nil
	}
	return &t
}

// ListApplications returns all applications with their rounds, ordered by
// round number within each application.
func (s *SQLiteStore) ListApplications(ctx context.Context) ([]Application, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, company, role, status, current_round, interview_date, notes, created_at, updated_at
		 FROM applications ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list applications: %w", err)
	}
	defer rows.Close()

	apps := []Application{}
	index := map[string]int{}
	for rows.Next() {
		var a Application
		var currentRound, interviewDate, notes sql.NullString
		var createdAt, updatedAt string
		if err := rows.Scan(&a.ID, &a.Company, &a.Role, &a.Status,
			&currentRound, &interviewDate, &notes, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scan application: %w", err)
		}
		a.CurrentRound = currentRound.String
		a.InterviewDate = parseTimeStr(interviewDate)
		a.Notes = notes.String
		if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
			a.CreatedAt = t
		}
		if t, err := time.Parse(time.RFC3339, updatedAt); err == nil {
			a.UpdatedAt = t
		}
		index[a.ID] = len(apps)
		apps = append(apps, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: list applications: %w", err)
	}

	rrows, err := s.db.QueryContext(ctx,
		`SELECT application_id, round_number, round_type, notes, scheduled_date, questions_asked
		 FROM rounds ORDER BY application_id, round_number`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list rounds: %w", err)
	}
	defer rrows.Close()

	for rrows.Next() {
		var appID string
		var r InterviewRound
		var notes, scheduled sql.NullString
		var questions string
		if err := rrows.Scan(&appID, &r.RoundNumber, &r.RoundType, &notes, &scheduled, &questions); err != nil {
			return nil, fmt.Errorf("sqlite: scan round: %w", err)
		}
		r.Notes = notes.String
		r.ScheduledDate = parseTimeStr(scheduled)
		if err := json.Unmarshal([]byte(questions), &r.QuestionsAsked); err != nil {
			r.QuestionsAsked = []string{}
		}
		if i, ok := index[appID]; ok {
			apps[i].Rounds = append(apps[i].Rounds, r)
		}
	}
	return apps, rrows.Err()
}

// GetApplication returns one application with rounds, or ErrNotFound.
func (s *SQLiteStore) GetApplication(ctx context.Context, id string) (*Application, error) {
	apps, err := s.ListApplications(ctx)
	if err != nil {
		return nil, err
	}
	for i := range apps {
		if apps[i].ID == id {
			return &apps[i], nil
		}
	}
	return nil, ErrNotFound
}

// CreateApplication inserts a new application, assigning an id when empty.
func (s *SQLiteStore) CreateApplication(ctx context.Context, app *Application) error {
	if app.ID == "" {
		app.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if app.CreatedAt.IsZero() {
		app.CreatedAt = now
	}
	app.UpdatedAt = now
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO applications (id, company, role, status, current_round, interview_date, notes, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		app.ID, app.Company, app.Role, string(app.Status), app.CurrentRound,
		fmtTimePtr(app.InterviewDate), app.Notes, fmtTime(app.CreatedAt), fmtTime(app.UpdatedAt))
	if err != nil {
		return fmt.Errorf("sqlite: insert application: %w", err)
	}
	return nil
}

// UpdateApplication applies the non-nil fields of patch.
func (s *SQLiteStore) UpdateApplication(ctx context.Context, id string, patch ApplicationPatch) error {
	set := "updated_at = ?"
	args := []any{fmtTime(time.Now().UTC())}
	add := func(col string, v any) {
		set += ", " + col + " = ?"
		args = append(args, v)
	}
	if patch.Company != nil {
		add("company", *patch.Company)
	}
	if patch.Role != nil {
		add("role", *patch.Role)
	}
	if patch.Status != nil {
		add("status", string(*patch.Status))
	}
	if patch.CurrentRound != nil {
		add("current_round", *patch.CurrentRound)
	}
	if patch.InterviewDate != nil {
		add("interview_date", fmtTime(*patch.InterviewDate))
	}
	if patch.Notes != nil {
		add("notes", *patch.Notes)
	}
	args = append(args, id)

	res, err := s.db.ExecContext(ctx, `UPDATE applications SET `+set+` WHERE id = ?`, args...)
	if err != nil {
		return fmt.Errorf("sqlite: update application: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// CreateRound inserts a new round. The (application_id, round_number)
// primary key enforces the one-round-per-number invariant.
func (s *SQLiteStore) CreateRound(ctx context.Context, applicationID string, data RoundData) error {
	questions := data.QuestionsAsked
	if questions == nil {
		questions = []string{}
	}
	qJSON, err := json.Marshal(questions)
	if err != nil {
		return fmt.Errorf("sqlite: marshal questions: %w", err)
	}
	now := fmtTime(time.Now().UTC())
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO rounds (application_id, round_number, round_type, notes, scheduled_date, questions_asked, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		applicationID, data.RoundNumber, data.RoundType, data.Notes,
		fmtTimePtr(data.ScheduledDate), string(qJSON), now, now)
	if err != nil {
		return fmt.Errorf("sqlite: insert round: %w", err)
	}
	return nil
}

// UpdateRound rewrites the mutable fields of an existing round.
func (s *SQLiteStore) UpdateRound(ctx context.Context, applicationID string, roundNumber int, data RoundData) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE rounds SET round_type = ?, notes = ?, scheduled_date = ?, updated_at = ?
		 WHERE application_id = ? AND round_number = ?`,
		data.RoundType, data.Notes, fmtTimePtr(data.ScheduledDate),
		fmtTime(time.Now().UTC()), applicationID, roundNumber)
	if err != nil {
		return fmt.Errorf("sqlite: update round: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// SaveSprint persists a generated study sprint.
func (s *SQLiteStore) SaveSprint(ctx context.Context, sp *Sprint) error {
	if sp.ID == "" {
		sp.ID = uuid.NewString()
	}
	if sp.CreatedAt.IsZero() {
		sp.CreatedAt = time.Now().UTC()
	}
	days, err := json.Marshal(sp.Days)
	if err != nil {
		return fmt.Errorf("sqlite: marshal sprint days: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO sprints (id, role, company, focus, duration_days, days, summary, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		sp.ID, sp.Role, sp.Company, sp.Focus, sp.DurationDays, string(days), sp.Summary, fmtTime(sp.CreatedAt))
	if err != nil {
		return fmt.Errorf("sqlite: insert sprint: %w", err)
	}
	return nil
}

// ListSprints returns sprints, newest first.
func (s *SQLiteStore) ListSprints(ctx context.Context, limit int) ([]Sprint, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, role, company, focus, duration_days, days, summary, created_at
		 FROM sprints ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list sprints: %w", err)
	}
	defer rows.Close()

	sprints := []Sprint{}
	for rows.Next() {
		var sp Sprint
		var company, focus, summary sql.NullString
		var days, createdAt string
		if err := rows.Scan(&sp.ID, &sp.Role, &company, &focus, &sp.DurationDays, &days, &summary, &createdAt); err != nil {
			return nil, fmt.Errorf("sqlite: scan sprint: %w", err)
		}
		sp.Company = company.String
		sp.Focus = focus.String
		sp.Summary = summary.String
		if err := json.Unmarshal([]byte(days), &sp.Days); err != nil {
			sp.Days = nil
		}
		if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
			sp.CreatedAt = t
		}
		sprints = append(sprints, sp)
	}
	return sprints, rows.Err()
}

// AddQuestion inserts a question bank entry.
func (s *SQLiteStore) AddQuestion(ctx context.Context, q *Question) error {
	if q.ID == "" {
		q.ID = uuid.NewString()
	}
	if q.CreatedAt.IsZero() {
		q.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO questions (id, topic, question, answer, source, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		q.ID, q.Topic, q.Question, q.Answer, q.Source, fmtTime(q.CreatedAt))
	if err != nil {
		return fmt.Errorf("sqlite: insert question: %w", err)
	}
	return nil
}

// ListQuestions returns question bank entries, optionally filtered by topic.
func (s *SQLiteStore) ListQuestions(ctx context.Context, topic string, limit int) ([]Question, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var rows *sql.Rows
	var err error
	if topic != "" {
		rows, err = s.db.QueryContext(ctx,
			`SELECT id, topic, question, answer, source, created_at
			 FROM questions WHERE topic = ? COLLATE NOCASE ORDER BY created_at DESC LIMIT ?`, topic, limit)
	} else {
		rows, err = s.db.QueryContext(ctx,
			`SELECT id, topic, question, answer, source, created_at
			 FROM questions ORDER BY created_at DESC LIMIT ?`, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: list questions: %w", err)
	}
	defer rows.Close()

	questions := []Question{}
	for rows.Next() {
		var q Question
		var topic, answer, source sql.NullString
		var createdAt string
		if err := rows.Scan(&q.ID, &topic, &q.Question, &answer, &source, &createdAt); err != nil {
			return nil, fmt.Errorf("sqlite: scan question: %w", err)
		}
		q.Topic = topic.String
		q.Answer = answer.String
		q.Source = source.String
		if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
			q.CreatedAt = t
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

// ReplaceAll swaps the entire dataset for the snapshot contents in one transaction.
func (s *SQLiteStore) ReplaceAll(ctx context.Context, snap *Snapshot) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: begin import: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	for _, table := range []string{"rounds", "applications", "sprints", "questions"} {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table); err != nil {
			return fmt.Errorf("sqlite: clear %s: %w", table, err)
		}
	}

	for i := range snap.Applications {
		app := &snap.Applications[i]
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO applications (id, company, role, status, current_round, interview_date, notes, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			app.ID, app.Company, app.Role, string(app.Status), app.CurrentRound,
			fmtTimePtr(app.InterviewDate), app.Notes, fmtTime(app.CreatedAt), fmtTime(app.UpdatedAt)); err != nil {
			return fmt.Errorf("sqlite: import application %s: %w", app.ID, err)
		}
		for _, r := range app.Rounds {
			questions := r.QuestionsAsked
			if questions == nil {
				questions = []string{}
			}
			qJSON, _ := json.Marshal(questions)
			now := fmtTime(time.Now().UTC())
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO rounds (application_id, round_number, round_type, notes, scheduled_date, questions_asked, created_at, updated_at)
				 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
				app.ID, r.RoundNumber, r.RoundType, r.Notes, fmtTimePtr(r.ScheduledDate), string(qJSON), now, now); err != nil {
				return fmt.Errorf("sqlite: import round %s/%d: %w", app.ID, r.RoundNumber, err)
			}
		}
	}

	for i := range snap.Sprints {
		sp := &snap.Sprints[i]
		days, _ := json.Marshal(sp.Days)
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO sprints (id, role, company, focus, duration_days, days, summary, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			sp.ID, sp.Role, sp.Company, sp.Focus, sp.DurationDays, string(days), sp.Summary, fmtTime(sp.CreatedAt)); err != nil {
			return fmt.Errorf("sqlite: import sprint %s: %w", sp.ID, err)
		}
	}

	for i := range snap.Questions {
		q := &snap.Questions[i]
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO questions (id, topic, question, answer, source, created_at)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			q.ID, q.Topic, q.Question, q.Answer, q.Source, fmtTime(q.CreatedAt)); err != nil {
			return fmt.Errorf("sqlite: import question %s: %w", q.ID, err)
		}
	}

	return tx.Commit()
}
