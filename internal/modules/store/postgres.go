package store

import (
	"context"
	"database/sql"
	"errors"
)

type storePostgres struct{ db *sql.DB }

func NewPostgresRepository(db *sql.DB) Repository { return &storePostgres{db: db} }

func (r *storePostgres) GetStoreByID(ctx context.Context, id string) (*Store, error) {
	s := &Store{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id,name,created_at,updated_at FROM stores WHERE id=$1`, id).
		Scan(&s.ID, &s.Name, &s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (r *storePostgres) ListStores(ctx context.Context) ([]*Store, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id,name,created_at,updated_at FROM stores ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var stores []*Store
	for rows.Next() {
		s := &Store{}
		if err := rows.Scan(&s.ID, &s.Name, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		stores = append(stores, s)
	}
	return stores, rows.Err()
}
