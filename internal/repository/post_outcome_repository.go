package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/endyji01/fb-buffer/internal/models"
)

type PostOutcomeRepository interface {
	Create(ctx context.Context, o *models.PostOutcome) (int64, error)
	ListByPostID(ctx context.Context, postID int64) ([]*models.PostOutcome, error)
}

type postOutcomeRepository struct {
	db *sql.DB
}

func NewPostOutcomeRepository(db *sql.DB) PostOutcomeRepository {
	return &postOutcomeRepository{db: db}
}

func (r *postOutcomeRepository) Create(ctx context.Context, o *models.PostOutcome) (int64, error) {
	query := `
		INSERT INTO post_outcomes (post_id, account_id, status, response, created_at)
		VALUES (?, ?, ?, ?, ?)
	`

	res, err := r.db.ExecContext(ctx, query, o.PostID, o.AccountID, o.Status, o.Response, time.Now().UTC().Format(TimeFormat))
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

func (r *postOutcomeRepository) ListByPostID(ctx context.Context, postID int64) ([]*models.PostOutcome, error) {
	query := `SELECT id, post_id, account_id, status, response, created_at FROM post_outcomes WHERE post_id = ? ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query, postID)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var outcomes []*models.PostOutcome
	for rows.Next() {
		var o models.PostOutcome
		var createdAt string
		err := rows.Scan(&o.ID, &o.PostID, &o.AccountID, &o.Status, &o.Response, &createdAt)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		o.CreatedAt, _ = time.Parse(TimeFormat, createdAt)
		outcomes = append(outcomes, &o)
	}
	return outcomes, rows.Err()
}
