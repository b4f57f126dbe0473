package database

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/girohack/jobconnect/internal/models"
	"github.com/girohack/jobconnect/internal/repository"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

func setUserID(u *models.User, id int) { u.ID = id }

type userRepository struct {
	db *pgxpool.Pool
}

func (r *userRepository) List(ctx context.Context) ([]models.User, error) {
	recs, err := scanRecords(ctx, r.db, "SELECT id, data FROM users ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	users := make([]models.User, 0, len(recs))
	for _, rec := range recs {
		u, err := decode(rec, setUserID)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, nil
}

func (r *userRepository) Get(ctx context.Context, id int) (*models.User, error) {
	recs, err := scanRecords(ctx, r.db, "SELECT id, data FROM users WHERE id = $1", id)
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, repository.ErrNotFound
	}
	u, err := decode(recs[0], setUserID)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *userRepository) Create(ctx context.Context, u *models.User) error {
	b, err := json.Marshal(u)
	if err != nil {
		return err
	}
	var id int
	err = r.db.QueryRow(ctx, "INSERT INTO users (phone, email, data) VALUES ($1, $2, $3) RETURNING id",
		strings.TrimSpace(u.Phone), strings.TrimSpace(u.Email), b).Scan(&id)
	if err != nil {
		return uniqueError(err)
	}
	u.ID = id
	return nil
}

func (r *userRepository) Update(ctx context.Context, id int, fn func(u *models.User) error) (*models.User, error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	recs, err := scanRecords(ctx, tx, "SELECT id, data FROM users WHERE id = $1 FOR UPDATE", id)
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, repository.ErrNotFound
	}
	u, err := decode(recs[0], setUserID)
	if err != nil {
		return nil, err
	}
	if err := fn(&u); err != nil {
		return nil, err
	}
	u.ID = id

	if err := saveUser(ctx, tx, &u); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *userRepository) UpdateEach(ctx context.Context, fn func(u *models.User) bool) (int, error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	recs, err := scanRecords(ctx, tx, "SELECT id, data FROM users ORDER BY id FOR UPDATE")
	if err != nil {
		return 0, err
	}
	changed := 0
	for _, rec := range recs {
		u, err := decode(rec, setUserID)
		if err != nil {
			return 0, err
		}
		if !fn(&u) {
			continue
		}
		if err := saveUser(ctx, tx, &u); err != nil {
			return 0, err
		}
		changed++
	}
	if changed == 0 {
		return 0, nil
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return changed, nil
}

func saveUser(ctx context.Context, tx pgx.Tx, u *models.User) error {
	b, err := json.Marshal(u)
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx, "UPDATE users SET phone = $2, email = $3, data = $4 WHERE id = $1",
		u.ID, strings.TrimSpace(u.Phone), strings.TrimSpace(u.Email), b)
	return uniqueError(err)
}
