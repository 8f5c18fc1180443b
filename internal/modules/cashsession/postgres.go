package cashsession

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

type postgresRepo struct{ db *sql.DB }

func NewPostgresRepository(db *sql.DB) Repository { return &postgresRepo{db: db} }

func (r *postgresRepo) ListSessions(ctx context.Context) ([]*CashSession, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id,store_id,store_name,register_name,opening_time,closing_time,
		       opening_operator_id,opening_operator_name,closing_operator_name,
		       opening_value,status,price_table
		FROM cash_sessions ORDER BY opening_time DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var sessions []*CashSession
	for rows.Next() {
		s, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

func (r *postgresRepo) UpsertSession(ctx context.Context, s *CashSession) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var current Status
	err = tx.QueryRowContext(ctx, `SELECT status FROM cash_sessions WHERE id=$1 FOR UPDATE`, s.ID).Scan(&current)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if s.Status != StatusOpen {
			return fmt.Errorf("%w: new session must be %s, got %s", ErrIllegalTransition, StatusOpen, s.Status)
		}
	case err != nil:
		return err
	case !CanTransition(current, s.Status):
		return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, current, s.Status)
	}

	var closingOperator sql.NullString
	if s.ClosingOperatorName != "" {
		closingOperator = sql.NullString{String: s.ClosingOperatorName, Valid: true}
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO cash_sessions
		  (id, store_id, store_name, register_name, opening_time, closing_time,
		   opening_operator_id, opening_operator_name, closing_operator_name,
		   opening_value, status, price_table)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
		ON CONFLICT (id) DO UPDATE SET
		  store_id=EXCLUDED.store_id, store_name=EXCLUDED.store_name,
		  register_name=EXCLUDED.register_name, opening_time=EXCLUDED.opening_time,
		  closing_time=EXCLUDED.closing_time,
		  opening_operator_id=EXCLUDED.opening_operator_id,
		  opening_operator_name=EXCLUDED.opening_operator_name,
		  closing_operator_name=EXCLUDED.closing_operator_name,
		  opening_value=EXCLUDED.opening_value, status=EXCLUDED.status,
		  price_table=EXCLUDED.price_table, updated_at=NOW()`,
		s.ID, s.StoreID, s.StoreName, s.RegisterName, s.OpeningTime, s.ClosingTime,
		s.OpeningOperatorID, s.OpeningOperatorName, closingOperator,
		s.OpeningValue, s.Status, s.PriceTable)
	if err != nil {
		return err
	}
	return tx.Commit()
}

// ── scanner ───────────────────────────────────────────────────────────────────

type rowScanner interface{ Scan(dest ...interface{}) error }

func (r *postgresRepo) scan(row rowScanner) (*CashSession, error) {
	s := &CashSession{}
	var closingTime sql.NullTime
	var closingOperator sql.NullString
	err := row.Scan(&s.ID, &s.StoreID, &s.StoreName, &s.RegisterName,
		&s.OpeningTime, &closingTime, &s.OpeningOperatorID, &s.OpeningOperatorName,
		&closingOperator, &s.OpeningValue, &s.Status, &s.PriceTable)
	if err != nil {
		return nil, err
	}
	if closingTime.Valid {
		t := closingTime.Time
		s.ClosingTime = &t
	}
	if closingOperator.Valid {
		s.ClosingOperatorName = closingOperator.String
	}
	return s, nil
}
