package repository

import (
	"context"
	"errors"
	"fmt"

	"aqi-map-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// UserRepository handles database operations for users
type UserRepository struct {
	db *pgxpool.Pool
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: db}
}

// querier is satisfied by both the pool and a transaction
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Create creates a new user
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (id, name, points, streak, last_contribution, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.db.Exec(ctx, query,
		user.ID, user.Name, user.Points, user.Streak, user.LastContribution, user.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetByID retrieves a user and their redeemed vouchers
func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	return getUser(ctx, r.db, id, false)
}

// Update loads the user with its row locked, applies fn and writes the result
// back in the same transaction. Vouchers appended by fn are inserted; an error
// from fn rolls everything back and is returned unchanged.
func (r *UserRepository) Update(ctx context.Context, id string, fn func(user *models.User) error) error {
	return pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		user, err := getUser(ctx, tx, id, true)
		if err != nil {
			return err
		}
		redeemed := len(user.Vouchers)

		if err := fn(user); err != nil {
			return err
		}

		query := `
			UPDATE users
			SET points = $1, streak = $2, last_contribution = $3
			WHERE id = $4
		`
		if _, err := tx.Exec(ctx, query, user.Points, user.Streak, user.LastContribution, id); err != nil {
			return fmt.Errorf("failed to update user: %w", err)
		}

		if len(user.Vouchers) < redeemed {
			return fmt.Errorf("vouchers cannot be removed from user %s", id)
		}
		for _, voucher := range user.Vouchers[redeemed:] {
			if _, err := tx.Exec(ctx,
				`INSERT INTO user_vouchers (user_id, voucher) VALUES ($1, $2)`,
				id, voucher,
			); err != nil {
				return fmt.Errorf("failed to record voucher: %w", err)
			}
		}
		return nil
	})
}

func getUser(ctx context.Context, q querier, id string, forUpdate bool) (*models.User, error) {
	query := `
		SELECT id, name, points, streak, last_contribution, created_at
		FROM users
		WHERE id = $1
	`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	var user models.User
	err := q.QueryRow(ctx, query, id).Scan(
		&user.ID, &user.Name, &user.Points, &user.Streak, &user.LastContribution, &user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("user %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	rows, err := q.Query(ctx,
		`SELECT voucher FROM user_vouchers WHERE user_id = $1 ORDER BY id`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get vouchers: %w", err)
	}
	defer rows.Close()

	user.Vouchers = make([]string, 0)
	for rows.Next() {
		var voucher string
		if err := rows.Scan(&voucher); err != nil {
			return nil, fmt.Errorf("failed to scan voucher: %w", err)
		}
		user.Vouchers = append(user.Vouchers, voucher)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating vouchers: %w", err)
	}

	return &user, nil
}
