package sink

import (
	"context"
	"database/sql"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/routerlab/routerbench/internal/model"
)

// SQLiteSink implements Sink using modernc.org/sqlite.
type SQLiteSink struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteSink, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=FULL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteSink{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS results (
	profile    TEXT NOT NULL,
	prompt_id  INTEGER NOT NULL,
	model      TEXT NOT NULL,
	response   TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT (datetime('now')),
	PRIMARY KEY (profile, prompt_id)
);

CREATE INDEX IF NOT EXISTS idx_results_profile ON results(profile);
CREATE INDEX IF NOT EXISTS idx_results_model ON results(profile, model);
`

func (s *SQLiteSink) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteSink) Close() error {
	return s.db.Close()
}

func (s *SQLiteSink) Has(ctx context.Context, profile string, promptID int) (bool, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM results WHERE profile = ? AND prompt_id = ?`,
		profile, promptID,
	)
	var one int
	err := row.Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, eris.Wrapf(err, "sqlite: has %s/%d", profile, promptID)
	}
	return true, nil
}

func (s *SQLiteSink) Append(ctx context.Context, rec model.ResultRecord) error {
	ts := rec.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO results (profile, prompt_id, model, response, created_at) VALUES (?, ?, ?, ?, ?)`,
		rec.Profile, rec.PromptID, rec.Model, rec.Response, ts,
	)
	return eris.Wrapf(err, "sqlite: append %s/%d", rec.Profile, rec.PromptID)
}

func (s *SQLiteSink) Count(ctx context.Context, profile string) (int, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM results WHERE profile = ?`, profile,
	)
	var n int
	if err := row.Scan(&n); err != nil {
		return 0, eris.Wrapf(err, "sqlite: count %s", profile)
	}
	return n, nil
}

func (s *SQLiteSink) Records(ctx context.Context, profile string) ([]model.ResultRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT prompt_id, model, response, created_at FROM results WHERE profile = ? ORDER BY created_at, prompt_id`,
		profile,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: records %s", profile)
	}
	defer rows.Close()

	var records []model.ResultRecord
	for rows.Next() {
		rec := model.ResultRecord{Profile: profile}
		if err := rows.Scan(&rec.PromptID, &rec.Model, &rec.Response, &rec.Timestamp); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan record")
		}
		records = append(records, rec)
	}
	return records, eris.Wrap(rows.Err(), "sqlite: records iterate")
}

func (s *SQLiteSink) Profiles(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT profile FROM results ORDER BY profile`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: profiles")
	}
	defer rows.Close()

	var profiles []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan profile")
		}
		profiles = append(profiles, p)
	}
	return profiles, eris.Wrap(rows.Err(), "sqlite: profiles iterate")
}
