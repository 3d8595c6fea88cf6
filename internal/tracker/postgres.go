package tracker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore backs the tracker with PostgreSQL. Selected when
// DATABASE_URL is set; otherwise SQLite is used.
type PostgresStore struct {
	pool *pgxpool.Pool
}

const postgresSchema = `
CREATE TABLE IF NOT EXISTS applications (
	id             TEXT PRIMARY KEY,
	company        TEXT NOT NULL,
	role           TEXT NOT NULL,
	status         TEXT NOT NULL DEFAULT 'applied',
	current_round  TEXT,
	interview_date TIMESTAMPTZ,
	notes          TEXT,
	created_at     TIMESTAMPTZ NOT NULL,
	updated_at     TIMESTAMPTZ NOT NULL
);
CREATE TABLE IF NOT EXISTS rounds (
	application_id  TEXT NOT NULL REFERENCES applications(id) ON DELETE CASCADE,
	round_number    INTEGER NOT NULL,
	round_type      TEXT NOT NULL,
	notes           TEXT,
	scheduled_date  TIMESTAMPTZ,
	questions_asked JSONB NOT NULL DEFAULT '[]',
	created_at      TIMESTAMPTZ NOT NULL,
	updated_at      TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (application_id, round_number)
);
CREATE TABLE IF NOT EXISTS sprints (
	id            TEXT PRIMARY KEY,
	role          TEXT NOT NULL,
	company       TEXT,
	focus         TEXT,
	duration_days INTEGER NOT NULL,
	days          JSONB NOT NULL,
	summary       TEXT,
	created_at    TIMESTAMPTZ NOT NULL
);
CREATE TABLE IF NOT EXISTS questions (
	id         TEXT PRIMARY KEY,
	topic      TEXT,
	question   TEXT NOT NULL,
	answer     TEXT,
	source     TEXT,
	created_at TIMESTAMPTZ NOT NULL
);
`

// ConnectPostgres creates a pgx pool and runs idempotent schema init.
func ConnectPostgres(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("postgres: parse DATABASE_URL: %w", err)
	}
	config.MaxConns = 10
	config.MinConns = 1

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("postgres: connect: %w", err)
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: init schema: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

// ListApplications returns all applications with their rounds.
func (s *PostgresStore) ListApplications(ctx context.Context) ([]Application, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, company, role, status, current_round, interview_date, notes, created_at, updated_at
		 FROM applications ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("postgres: list applications: %w", err)
	}
	defer rows.Close()

	apps := []Application{}
	index := map[string]int{}
	for rows.Next() {
		var a Application
		var currentRound, notes *string
		if err := rows.Scan(&a.ID, &a.Company, &a.Role, &a.Status,
			&currentRound, &a.InterviewDate, &notes, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, fmt.Errorf("postgres: scan application: %w", err)
		}
		if currentRound != nil {
			a.CurrentRound = *currentRound
		}
		if notes != nil {
			a.Notes = *notes
		}
		index[a.ID] = len(apps)
		apps = append(apps, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list applications: %w", err)
	}

	rrows, err := s.pool.Query(ctx,
		`SELECT application_id, round_number, round_type, notes, scheduled_date, questions_asked
		 FROM rounds ORDER BY application_id, round_number`)
	if err != nil {
		return nil, fmt.Errorf("postgres: list rounds: %w", err)
	}
	defer rrows.Close()

	for rrows.Next() {
		var appID string
		var r InterviewRound
		var notes *string
		var questions []byte
		if err := rrows.Scan(&appID, &r.RoundNumber, &r.RoundType, &notes, &r.ScheduledDate, &questions); err != nil {
			return nil, fmt.Errorf("postgres: scan round: %w", err)
		}
		if notes != nil {
			r.Notes = *notes
		}
		if err := json.Unmarshal(questions, &r.QuestionsAsked); err != nil {
			r.QuestionsAsked = []string{}
		}
		if i, ok := index[appID]; ok {
			apps[i].Rounds = append(apps[i].Rounds, r)
		}
	}
	return apps, rrows.Err()
}

// GetApplication returns one application with rounds, or ErrNotFound.
func (s *PostgresStore) GetApplication(ctx context.Context, id string) (*Application, error) {
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
func (s *PostgresStore) CreateApplication(ctx context.Context, app *Application) error {
	if app.ID == "" {
		app.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if app.CreatedAt.IsZero() {
		app.CreatedAt = now
	}
	app.UpdatedAt = now
	_, err := s.pool.Exec(ctx,
		`INSERT INTO applications (id, company, role, status, current_round, interview_date, notes, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		app.ID, app.Company, app.Role, string(app.Status), app.CurrentRound,
		app.InterviewDate, app.Notes, app.CreatedAt, app.UpdatedAt)
	if err != nil {
		return fmt.Errorf("postgres: insert application: %w", err)
	}
	return nil
}

// UpdateApplication applies the non-nil fields of patch.
func (s *PostgresStore) UpdateApplication(ctx context.Context, id string, patch ApplicationPatch) error {
	set := "updated_at = $1"
	args := []any{time.Now().UTC()}
	add := func(col string, v any) {
		args = append(args, v)
		set += fmt.Sprintf(", %s = $%d", col, len(args))
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
		add("interview_date", *patch.InterviewDate)
	}
	if patch.Notes != nil {
		add("notes", *patch.Notes)
	}
	args = append(args, id)

	tag, err := s.pool.Exec(ctx,
		fmt.Sprintf(`UPDATE applications SET %s WHERE id = $%d`, set, len(args)), args...)
	if err != nil {
		return fmt.Errorf("postgres: update application: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// CreateRound inserts a new round.
func (s *PostgresStore) CreateRound(ctx context.Context, applicationID string, data RoundData) error {
	questions := data.QuestionsAsked
	if questions == nil {
		questions = []string{}
	}
	qJSON, err := json.Marshal(questions)
	if err != nil {
		return fmt.Errorf("postgres: marshal questions: %w", err)
	}
	now := time.Now().UTC()
	_, err = s.pool.Exec(ctx,
		`INSERT INTO rounds (application_id, round_number, round_type, notes, scheduled_date, questions_asked, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		applicationID, data.RoundNumber, data.RoundType, data.Notes, data.ScheduledDate, qJSON, now, now)
	if err != nil {
		return fmt.Errorf("postgres: insert round: %w", err)
	}
	return nil
}

// UpdateRound rewrites the mutable fields of an existing round.
func (s *PostgresStore) UpdateRound(ctx context.Context, applicationID string, roundNumber int, data RoundData) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE rounds SET round_type = $1, notes = $2, scheduled_date = $3, updated_at = $4
		 WHERE application_id = $5 AND round_number = $6`,
		data.RoundType, data.Notes, data.ScheduledDate, time.Now().UTC(), applicationID, roundNumber)
	if err != nil {
		return fmt.Errorf("postgres: update round: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SaveSprint persists a generated study sprint.
func (s *PostgresStore) SaveSprint(ctx context.Context, sp *Sprint) error {
	if sp.ID == "" {
		sp.ID = uuid.NewString()
	}
	if sp.CreatedAt.IsZero() {
		sp.CreatedAt = time.Now().UTC()
	}
	days, err := json.Marshal(sp.Days)
	if err != nil {
		return fmt.Errorf("postgres: marshal sprint days: %w", err)
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO sprints (id, role, company, focus, duration_days, days, summary, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		sp.ID, sp.Role, sp.Company, sp.Focus, sp.DurationDays, days, sp.Summary, sp.CreatedAt)
	if err != nil {
		return fmt.Errorf("postgres: insert sprint: %w", err)
	}
	return nil
}

// ListSprints returns sprints, newest first.
func (s *PostgresStore) ListSprints(ctx context.Context, limit int) ([]Sprint, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, role, company, focus, duration_days, days, summary, created_at
		 FROM sprints ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: list sprints: %w", err)
	}
	defer rows.Close()

	sprints := []Sprint{}
	for rows.Next() {
		var sp Sprint
		var company, focus, summary *string
		var days []byte
		if err := rows.Scan(&sp.ID, &sp.Role, &company, &focus, &sp.DurationDays, &days, &summary, &sp.CreatedAt); err != nil {
			return nil, fmt.Errorf("postgres: scan sprint: %w", err)
		}
		if company != nil {
			sp.Company = *company
		}
		if focus != nil {
			sp.Focus = *focus
		}
		if summary != nil {
			sp.Summary = *summary
		}
		if err := json.Unmarshal(days, &sp.Days); err != nil {
			sp.Days = nil
		}
		sprints = append(sprints, sp)
	}
	return sprints, rows.Err()
}

// AddQuestion inserts a question bank entry.
func (s *PostgresStore) AddQuestion(ctx context.Context, q *Question) error {
	if q.ID == "" {
		q.ID = uuid.NewString()
	}
	if q.CreatedAt.IsZero() {
		q.CreatedAt = time.Now().UTC()
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO questions (id, topic, question, answer, source, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		q.ID, q.Topic, q.Question, q.Answer, q.Source, q.CreatedAt)
	if err != nil {
		return fmt.Errorf("postgres: insert question: %w", err)
	}
	return nil
}

// ListQuestions returns question bank entries, optionally filtered by topic.
func (s *PostgresStore) ListQuestions(ctx context.Context, topic string, limit int) ([]Question, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var rows pgx.Rows
	var err error
	if topic != "" {
		rows, err = s.pool.Query(ctx,
			`SELECT id, topic, question, answer, source, created_at
			 FROM questions WHERE LOWER(topic) = LOWER($1) ORDER BY created_at DESC LIMIT $2`, topic, limit)
	} else {
		rows, err = s.pool.Query(ctx,
			`SELECT id, topic, question, answer, source, created_at
			 FROM questions ORDER BY created_at DESC LIMIT $1`, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: list questions: %w", err)
	}
	defer rows.Close()

	questions := []Question{}
	for rows.Next() {
		var q Question
		var topic, answer, source *string
		if err := rows.Scan(&q.ID, &topic, &q.Question, &answer, &source, &q.CreatedAt); err != nil {
			return nil, fmt.Errorf("postgres: scan question: %w", err)
		}
		if topic != nil {
			q.Topic = *topic
		}
		if answer != nil {
			q.Answer = *answer
		}
		if source != nil {
			q.Source = *source
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

// ReplaceAll swaps the entire dataset for the snapshot contents in one transaction.
func (s *PostgresStore) ReplaceAll(ctx context.Context, snap *Snapshot) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("postgres: begin import: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx, `DELETE FROM rounds; DELETE FROM applications; DELETE FROM sprints; DELETE FROM questions`); err != nil {
		return fmt.Errorf("postgres: clear tables: %w", err)
	}

	for i := range snap.Applications {
		app := &snap.Applications[i]
		if _, err := tx.Exec(ctx,
			`INSERT INTO applications (id, company, role, status, current_round, interview_date, notes, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			app.ID, app.Company, app.Role, string(app.Status), app.CurrentRound,
			app.InterviewDate, app.Notes, app.CreatedAt, app.UpdatedAt); err != nil {
			return fmt.Errorf("postgres: import application %s: %w", app.ID, err)
		}
		for _, r := range app.Rounds {
			questions := r.QuestionsAsked
			if questions == nil {
				questions = []string{}
			}
			qJSON, _ := json.Marshal(questions)
			now := time.Now().UTC()
			if _, err := tx.Exec(ctx,
				`INSERT INTO rounds (application_id, round_number, round_type, notes, scheduled_date, questions_asked, created_at, updated_at)
				 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
				app.ID, r.RoundNumber, r.RoundType, r.Notes, r.ScheduledDate, qJSON, now, now); err != nil {
				return fmt.Errorf("postgres: import round %s/%d: %w", app.ID, r.RoundNumber, err)
			}
		}
	}

	for i := range snap.Sprints {
		sp := &snap.Sprints[i]
		days, _ := json.Marshal(sp.Days)
		if _, err := tx.Exec(ctx,
			`INSERT INTO sprints (id, role, company, focus, duration_days, days, summary, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			sp.ID, sp.Role, sp.Company, sp.Focus, sp.DurationDays, days, sp.Summary, sp.CreatedAt); err != nil {
			return fmt.Errorf("postgres: import sprint %s: %w", sp.ID, err)
		}
	}

	for i := range snap.Questions {
		q := &snap.Questions[i]
		if _, err := tx.Exec(ctx,
			`INSERT INTO questions (id, topic, question, answer, source, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			q.ID, q.Topic, q.Question, q.Answer, q.Source, q.CreatedAt); err != nil {
			return fmt.Errorf("postgres: import question %s: %w", q.ID, err)
		}
	}

	return tx.Commit(ctx)
}
