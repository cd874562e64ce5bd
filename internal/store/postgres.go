package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/jonboulle/clockwork"
	_ "github.com/lib/pq"
)

// Postgres stores reports in the schema created by platform.AutoMigrate.
type Postgres struct {
	db    *sqlx.DB
	clock clockwork.Clock
}

// OpenPostgres connects to the database at url.
func OpenPostgres(ctx context.Context, url string) (*Postgres, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", url)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)
	return NewPostgres(db, nil), nil
}

// NewPostgres wraps an existing connection pool.
func NewPostgres(db *sqlx.DB, clock clockwork.Clock) *Postgres {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Postgres{db: db, clock: clock}
}

// DB exposes the underlying pool for migrations.
func (p *Postgres) DB() *sql.DB { return p.db.DB }

type reportRow struct {
	ID               string    `db:"id"`
	Category         string    `db:"category"`
	Description      string    `db:"description"`
	ImageURL         string    `db:"image_url"`
	Lat              *float64  `db:"lat"`
	Lon              *float64  `db:"lon"`
	Upvotes          int       `db:"upvotes"`
	SeverityScore    int       `db:"severity_score"`
	CategoryLabel    string    `db:"category_label"`
	Confidence       float64   `db:"confidence"`
	PredictionMethod string    `db:"prediction_method"`
	Profile          string    `db:"profile"`
	Result           []byte    `db:"result"`
	Snapshot         []byte    `db:"snapshot"`
	CreatedAt        time.Time `db:"created_at"`
	UpdatedAt        time.Time `db:"updated_at"`
}

const reportColumns = `id, category, description, image_url, lat, lon, upvotes,
	severity_score, category_label, confidence, prediction_method, profile,
	result, snapshot, created_at, updated_at`

func toRow(r *Report) (reportRow, error) {
	result, err := json.Marshal(r.Result)
	if err != nil {
		return reportRow{}, fmt.Errorf("marshal result: %w", err)
	}
	snapshot, err := json.Marshal(r.Snapshot)
	if err != nil {
		return reportRow{}, fmt.Errorf("marshal snapshot: %w", err)
	}
	return reportRow{
		ID:               r.ID,
		Category:         r.Category,
		Description:      r.Description,
		ImageURL:         r.ImageURL,
		Lat:              r.Lat,
		Lon:              r.Lon,
		Upvotes:          r.Upvotes,
		SeverityScore:    r.Result.SeverityScore,
		CategoryLabel:    r.Result.Category,
		Confidence:       r.Result.Confidence,
		PredictionMethod: string(r.Result.PredictionMethod),
		Profile:          r.Snapshot.Profile,
		Result:           result,
		Snapshot:         snapshot,
		CreatedAt:        r.CreatedAt,
		UpdatedAt:        r.UpdatedAt,
	}, nil
}

func (row reportRow) toReport() (*Report, error) {
	r := &Report{
		ID:          row.ID,
		Category:    row.Category,
		Description: row.Description,
		ImageURL:    row.ImageURL,
		Lat:         row.Lat,
		Lon:         row.Lon,
		Upvotes:     row.Upvotes,
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
	}
	if err := json.Unmarshal(row.Result, &r.Result); err != nil {
		return nil, fmt.Errorf("decode result of report %s: %w", row.ID, err)
	}
	if err := json.Unmarshal(row.Snapshot, &r.Snapshot); err != nil {
		return nil, fmt.Errorf("decode snapshot of report %s: %w", row.ID, err)
	}
	return r, nil
}

func (p *Postgres) Create(ctx context.Context, r *Report) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	now := p.clock.Now()
	r.CreatedAt, r.UpdatedAt = now, now

	row, err := toRow(r)
	if err != nil {
		return fmt.Errorf("create report: %w", err)
	}
	_, err = p.db.NamedExecContext(ctx,
		`INSERT INTO reports (`+reportColumns+`)
		 VALUES (:id, :category, :description, :image_url, :lat, :lon, :upvotes,
		         :severity_score, :category_label, :confidence, :prediction_method, :profile,
		         :result, :snapshot, :created_at, :updated_at)`, row)
	if err != nil {
		return fmt.Errorf("create report %s: %w", r.ID, err)
	}
	return nil
}

func (p *Postgres) Get(ctx context.Context, id string) (*Report, error) {
	var row reportRow
	err := p.db.GetContext(ctx, &row, `SELECT `+reportColumns+` FROM reports WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get report %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get report %s: %w", id, err)
	}
	return row.toReport()
}

func (p *Postgres) ListIDs(ctx context.Context) ([]string, error) {
	var ids []string
	if err := p.db.SelectContext(ctx, &ids, `SELECT id FROM reports ORDER BY created_at`); err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	return ids, nil
}

// lockReport reads a report row under FOR UPDATE inside tx.
func lockReport(ctx context.Context, tx *sqlx.Tx, id string) (*Report, error) {
	var row reportRow
	err := tx.GetContext(ctx, &row, `SELECT `+reportColumns+` FROM reports WHERE id = $1 FOR UPDATE`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return row.toReport()
}

func (p *Postgres) updateScore(ctx context.Context, tx *sqlx.Tx, r *Report) error {
	row, err := toRow(r)
	if err != nil {
		return err
	}
	_, err = tx.NamedExecContext(ctx,
		`UPDATE reports SET upvotes = :upvotes, severity_score = :severity_score,
		        category_label = :category_label, confidence = :confidence,
		        prediction_method = :prediction_method, profile = :profile,
		        result = :result, snapshot = :snapshot, updated_at = :updated_at
		 WHERE id = :id`, row)
	return err
}

// inTx runs fn in a transaction, committing only if fn succeeds.
func (p *Postgres) inTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := p.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (p *Postgres) Vote(ctx context.Context, reportID, userID string, dir Direction, rescore RescoreFunc) (*VoteOutcome, error) {
	var out *VoteOutcome
	err := p.inTx(ctx, func(tx *sqlx.Tx) error {
		r, err := lockReport(ctx, tx, reportID)
		if err != nil {
			return err
		}

		var existing Direction
		err = tx.GetContext(ctx, &existing,
			`SELECT value FROM votes WHERE report_id = $1 AND user_id = $2`, reportID, userID)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("read vote: %w", err)
		}

		next, delta := nextVote(existing, dir)
		upvotes := applyDelta(r.Upvotes, delta)
		res, snap, err := rescore(r.Snapshot, upvotes)
		if err != nil {
			return err
		}

		if next == 0 {
			_, err = tx.ExecContext(ctx, `DELETE FROM votes WHERE report_id = $1 AND user_id = $2`, reportID, userID)
		} else {
			_, err = tx.ExecContext(ctx,
				`INSERT INTO votes (report_id, user_id, value) VALUES ($1, $2, $3)
				 ON CONFLICT (report_id, user_id) DO UPDATE SET value = EXCLUDED.value`,
				reportID, userID, int(next))
		}
		if err != nil {
			return fmt.Errorf("write vote: %w", err)
		}

		r.Upvotes, r.Result, r.Snapshot, r.UpdatedAt = upvotes, res, snap, p.clock.Now()
		if err := p.updateScore(ctx, tx, r); err != nil {
			return fmt.Errorf("update score: %w", err)
		}
		out = &VoteOutcome{Report: r, Vote: next}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("vote on report %s: %w", reportID, err)
	}
	return out, nil
}

func (p *Postgres) Rescore(ctx context.Context, reportID string, rescore RescoreFunc) (*Report, error) {
	var out *Report
	err := p.inTx(ctx, func(tx *sqlx.Tx) error {
		r, err := lockReport(ctx, tx, reportID)
		if err != nil {
			return err
		}
		res, snap, err := rescore(r.Snapshot, r.Upvotes)
		if err != nil {
			return err
		}
		r.Result, r.Snapshot, r.UpdatedAt = res, snap, p.clock.Now()
		if err := p.updateScore(ctx, tx, r); err != nil {
			return fmt.Errorf("update score: %w", err)
		}
		out = r
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("rescore report %s: %w", reportID, err)
	}
	return out, nil
}

func (p *Postgres) Close() error {
	return p.db.Close()
}
