package sink

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/routerlab/routerbench/internal/model"
)

// Pool is the subset of pgxpool.Pool the sink uses. pgxmock satisfies
// it too, which is how the Postgres sink is unit tested.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// PostgresSink implements Sink using a pgx connection pool.
type PostgresSink struct {
	pool Pool
}

// NewPostgres creates a PostgresSink with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresSink, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: connect")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresSink{pool: pool}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS results (
	profile    TEXT NOT NULL,
	prompt_id  INTEGER NOT NULL,
	model      TEXT NOT NULL,
	response   TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (profile, prompt_id)
);

CREATE INDEX IF NOT EXISTS idx_results_model ON results(profile, model);
`

func (s *PostgresSink) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresSink) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresSink) Has(ctx context.Context, profile string, promptID int) (bool, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT 1 FROM results WHERE profile = $1 AND prompt_id = $2`,
		profile, promptID,
	)
	var one int
	err := row.Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, eris.Wrapf(err, "postgres: has %s/%d", profile, promptID)
	}
	return true, nil
}

func (s *PostgresSink) Append(ctx context.Context, rec model.ResultRecord) error {
	ts := rec.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO results (profile, prompt_id, model, response, created_at) VALUES ($1, $2, $3, $4, $5)`,
		rec.Profile, rec.PromptID, rec.Model, rec.Response, ts,
	)
	return eris.Wrapf(err, "postgres: append %s/%d", rec.Profile, rec.PromptID)
}

func (s *PostgresSink) Count(ctx context.Context, profile string) (int, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM results WHERE profile = $1`, profile,
	)
	var n int
	if err := row.Scan(&n); err != nil {
		return 0, eris.Wrapf(err, "postgres: count %s", profile)
	}
	return n, nil
}

func (s *PostgresSink) Records(ctx context.Context, profile string) ([]model.ResultRecord, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT prompt_id, model, response, created_at FROM results WHERE profile = $1 ORDER BY created_at, prompt_id`,
		profile,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: records %s", profile)
	}
	defer rows.Close()

	var records []model.ResultRecord
	for rows.Next() {
		rec := model.ResultRecord{Profile: profile}
		if err := rows.Scan(&rec.PromptID, &rec.Model, &rec.Response, &rec.Timestamp); err != nil {
			return nil, eris.Wrap(err, "postgres: scan record")
		}
		records = append(records, rec)
	}
	return records, eris.Wrap(rows.Err(), "postgres: records iterate")
}

func (s *PostgresSink) Profiles(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT DISTINCT profile FROM results ORDER BY profile`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: profiles")
	}
	defer rows.Close()

	var profiles []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, eris.Wrap(err, "postgres: scan profile")
		}
		profiles = append(profiles, p)
	}
	return profiles, eris.Wrap(rows.Err(), "postgres: profiles iterate")
}
