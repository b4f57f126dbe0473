// Package database implements the repository contracts over Postgres. Each
// entity is one row holding its JSON document; the id column is authoritative
// and overrides whatever id the document carries.
package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/georgysavva/scany/pgxscan"
	"github.com/girohack/jobconnect/internal/models"
	"github.com/girohack/jobconnect/internal/repository"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

const (
	usersTable        = "users"
	applicationsTable = "applications"
	offersTable       = "job_offers"
	demoJobsTable     = "demo_jobs"

	uniqueViolation = "23505"
	phoneIndex      = "users_phone_idx"
	emailIndex      = "users_email_idx"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id bigserial PRIMARY KEY,
		phone text NOT NULL DEFAULT '',
		email text NOT NULL DEFAULT '',
		data jsonb NOT NULL
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS users_phone_idx ON users (phone) WHERE phone <> ''`,
	`CREATE UNIQUE INDEX IF NOT EXISTS users_email_idx ON users (lower(email)) WHERE email <> ''`,
	`CREATE TABLE IF NOT EXISTS applications (id bigserial PRIMARY KEY, data jsonb NOT NULL)`,
	`CREATE TABLE IF NOT EXISTS job_offers (id bigserial PRIMARY KEY, data jsonb NOT NULL)`,
	`CREATE TABLE IF NOT EXISTS demo_jobs (id bigserial PRIMARY KEY, data jsonb NOT NULL)`,
}

type PostgresDb struct {
	db *pgxpool.Pool
}

func NewPostgres(ctx context.Context, uri string) (*PostgresDb, error) {
	pgxconfig, err := pgxpool.ParseConfig(uri)
	if err != nil {
		return nil, fmt.Errorf("parsing db uri: %w", err)
	}

	db, err := pgxpool.ConnectConfig(ctx, pgxconfig)
	if err != nil {
		return nil, fmt.Errorf("connecting postgres: %w", err)
	}

	if err := db.Ping(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}

	return &PostgresDb{db: db}, nil
}

func (p *PostgresDb) Close() {
	p.db.Close()
}

// Migrate creates the tables and indexes if they do not exist yet.
func (p *PostgresDb) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := p.db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migrating: %w", err)
		}
	}
	return nil
}

// Repositories returns Postgres-backed repositories sharing p's pool.
func (p *PostgresDb) Repositories() repository.Set {
	return repository.Set{
		Users: &userRepository{db: p.db},
		Applications: &applicationRepository{table[models.Application]{
			db: p.db, name: applicationsTable,
			setID: func(a *models.Application, id int) { a.ID = id },
		}},
		Offers: &offerRepository{table[models.Offer]{
			db: p.db, name: offersTable,
			setID: func(o *models.Offer, id int) { o.ID = id },
		}},
		DemoJobs: &demoJobRepository{table[models.JobPosting]{
			db: p.db, name: demoJobsTable,
			setID: func(j *models.JobPosting, id int) { j.ID = id },
		}},
	}
}

type record struct {
	ID   int    `db:"id"`
	Data []byte `db:"data"`
}

// querier is satisfied by both the pool and a transaction.
type querier interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
}

func scanRecords(ctx context.Context, q querier, sql string, args ...interface{}) ([]record, error) {
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recs []record
	if err := pgxscan.ScanAll(&recs, rows); err != nil {
		return nil, err
	}
	return recs, nil
}

func decode[T any](rec record, setID func(*T, int)) (T, error) {
	var v T
	if err := json.Unmarshal(rec.Data, &v); err != nil {
		return v, fmt.Errorf("decoding row %d: %w", rec.ID, err)
	}
	setID(&v, rec.ID)
	return v, nil
}

// table is a jsonb document table keyed by a bigserial id.
type table[T any] struct {
	db    *pgxpool.Pool
	name  string
	setID func(*T, int)
}

func (t *table[T]) list(ctx context.Context) ([]T, error) {
	recs, err := scanRecords(ctx, t.db, fmt.Sprintf("SELECT id, data FROM %s ORDER BY id", t.name))
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", t.name, err)
	}
	out := make([]T, 0, len(recs))
	for _, rec := range recs {
		v, err := decode(rec, t.setID)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func (t *table[T]) insert(ctx context.Context, v *T) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	var id int
	if err := t.db.QueryRow(ctx, fmt.Sprintf("INSERT INTO %s (data) VALUES ($1) RETURNING id", t.name), b).Scan(&id); err != nil {
		return fmt.Errorf("inserting into %s: %w", t.name, err)
	}
	t.setID(v, id)
	return nil
}

func (t *table[T]) update(ctx context.Context, id int, fn func(*T) error) (*T, error) {
	tx, err := t.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	recs, err := scanRecords(ctx, tx, fmt.Sprintf("SELECT id, data FROM %s WHERE id = $1 FOR UPDATE", t.name), id)
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, fmt.Errorf("%s %d: %w", t.name, id, repository.ErrNotFound)
	}
	v, err := decode(recs[0], t.setID)
	if err != nil {
		return nil, err
	}
	if err := fn(&v); err != nil {
		return nil, err
	}
	t.setID(&v, id)

	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	if _, err := tx.Exec(ctx, fmt.Sprintf("UPDATE %s SET data = $2 WHERE id = $1", t.name), id, b); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return &v, nil
}

type applicationRepository struct {
	table[models.Application]
}

func (r *applicationRepository) List(ctx context.Context) ([]models.Application, error) {
	return r.list(ctx)
}

func (r *applicationRepository) Create(ctx context.Context, a *models.Application) error {
	return r.insert(ctx, a)
}

func (r *applicationRepository) Update(ctx context.Context, id int, fn func(a *models.Application) error) (*models.Application, error) {
	return r.update(ctx, id, fn)
}

type offerRepository struct {
	table[models.Offer]
}

func (r *offerRepository) List(ctx context.Context) ([]models.Offer, error) {
	return r.list(ctx)
}

func (r *offerRepository) Create(ctx context.Context, o *models.Offer) error {
	return r.insert(ctx, o)
}

func (r *offerRepository) Update(ctx context.Context, id int, fn func(o *models.Offer) error) (*models.Offer, error) {
	return r.update(ctx, id, fn)
}

type demoJobRepository struct {
	table[models.JobPosting]
}

func (r *demoJobRepository) List(ctx context.Context) ([]models.JobPosting, error) {
	return r.list(ctx)
}

func (r *demoJobRepository) Create(ctx context.Context, j *models.JobPosting) error {
	return r.insert(ctx, j)
}

// uniqueError maps a unique index violation on users to the repository
// sentinel for the offending column.
func uniqueError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != uniqueViolation {
		return err
	}
	switch pgErr.ConstraintName {
	case phoneIndex:
		return repository.ErrPhoneTaken
	case emailIndex:
		return repository.ErrEmailTaken
	}
	return err
}
