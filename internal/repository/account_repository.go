package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/endyji01/fb-buffer/internal/models"
)

type AccountRepository interface {
	Create(ctx context.Context, a *models.Account) (int64, error)
	GetByID(ctx context.Context, id int64) (*models.Account, error)
	List(ctx context.Context) ([]*models.Account, error)
	Count(ctx context.Context) (int64, error)
}

type accountRepository struct {
	db *sql.DB
}

func NewAccountRepository(db *sql.DB) AccountRepository {
	return &accountRepository{db: db}
}

func (r *accountRepository) Create(ctx context.Context, a *models.Account) (int64, error) {
	query := `
		INSERT INTO accounts (name, page_id, token, created_at)
		VALUES (?, ?, ?, ?)
	`

	res, err := r.db.ExecContext(ctx, query, a.Name, a.PageID, a.Token, time.Now().UTC().Format(TimeFormat))
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	id, err := res.LastInsertId()
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}
	return id, nil
}

func (r *accountRepository) GetByID(ctx context.Context, id int64) (*models.Account, error) {
	query := `SELECT id, name, page_id, token, created_at FROM accounts WHERE id = ?`
	row := r.db.QueryRowContext(ctx, query, id)

	var a models.Account
	var createdAt string
	err := row.Scan(&a.ID, &a.Name, &a.PageID, &a.Token, &createdAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	a.CreatedAt, _ = time.Parse(TimeFormat, createdAt)

	return &a, nil
}

func (r *accountRepository) List(ctx context.Context) ([]*models.Account, error) {
	query := `SELECT id, name, page_id, token, created_at FROM accounts ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var accounts []*models.Account
	for rows.Next() {
		var a models.Account
		var createdAt string
		err := rows.Scan(&a.ID, &a.Name, &a.PageID, &a.Token, &createdAt)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		a.CreatedAt, _ = time.Parse(TimeFormat, createdAt)
		accounts = append(accounts, &a)
	}
	return accounts, rows.Err()
}

func (r *accountRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM accounts`).Scan(&n)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}
	return n, nil
}
