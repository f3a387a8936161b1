package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/endyji01/fb-buffer/internal/models"
)

type PostRepository interface {
	Create(ctx context.Context, post *models.Post) (int64, error)
	GetByID(ctx context.Context, id int64) (*models.Post, error)
	ListDue(ctx context.Context, now time.Time) ([]*models.Post, error)
	List(ctx context.Context, limit int) ([]*models.Post, error)
	SetOutcome(ctx context.Context, postID int64, status, result string) error
	CountByStatus(ctx context.Context, status string) (int64, error)
}

type postRepository struct {
	db *sql.DB
}

func NewPostRepository(db *sql.DB) PostRepository {
	return &postRepository{db: db}
}

const postColumns = `id, account_ids, post_type, media_url, caption, first_comment, story_link, scheduled_at, status, result, created_at, updated_at`

func (r *postRepository) Create(ctx context.Context, post *models.Post) (int64, error) {
	query := `
		INSERT INTO posts (account_ids, post_type, media_url, caption, first_comment, story_link, scheduled_at, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	now := time.Now().UTC().Format(TimeFormat)
	res, err := r.db.ExecContext(ctx, query,
		post.AccountIDs,
		string(post.PostType),
		post.MediaURL,
		post.Caption,
		post.FirstComment,
		post.StoryLink,
		post.ScheduledAt.UTC().Format(TimeFormat),
		models.PostStatusPending,
		now,
		now,
	)
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

func scanPost(scan func(dest ...any) error) (*models.Post, error) {
	var post models.Post
	var postType, scheduledAt, createdAt, updatedAt string
	err := scan(&post.ID, &post.AccountIDs, &postType, &post.MediaURL, &post.Caption,
		&post.FirstComment, &post.StoryLink, &scheduledAt, &post.Status, &post.Result,
		&createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	post.PostType = models.PostType(postType)
	post.ScheduledAt, _ = time.Parse(TimeFormat, scheduledAt)
	post.CreatedAt, _ = time.Parse(TimeFormat, createdAt)
	post.UpdatedAt, _ = time.Parse(TimeFormat, updatedAt)
	return &post, nil
}

func (r *postRepository) GetByID(ctx context.Context, id int64) (*models.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE id = ?`
	row := r.db.QueryRowContext(ctx, query, id)

	post, err := scanPost(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	return post, nil
}

// ListDue returns pending posts whose scheduled time has passed. Timestamps
// are stored as UTC RFC3339 text, so the comparison is done on the text form.
func (r *postRepository) ListDue(ctx context.Context, now time.Time) ([]*models.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE status = ? AND scheduled_at <= ? ORDER BY scheduled_at`
	rows, err := r.db.QueryContext(ctx, query, models.PostStatusPending, now.UTC().Format(TimeFormat))
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var posts []*models.Post
	for rows.Next() {
		post, err := scanPost(rows.Scan)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		posts = append(posts, post)
	}
	return posts, rows.Err()
}

func (r *postRepository) List(ctx context.Context, limit int) ([]*models.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts ORDER BY scheduled_at DESC LIMIT ?`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var posts []*models.Post
	for rows.Next() {
		post, err := scanPost(rows.Scan)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		posts = append(posts, post)
	}
	return posts, rows.Err()
}

func (r *postRepository) SetOutcome(ctx context.Context, postID int64, status, result string) error {
	query := `
		UPDATE posts
		SET status = ?,
			result = ?,
			updated_at = ?
		WHERE id = ?
	`
	_, err := r.db.ExecContext(ctx, query, status, result, time.Now().UTC().Format(TimeFormat), postID)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *postRepository) CountByStatus(ctx context.Context, status string) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM posts WHERE status = ?`, status).Scan(&n)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}
	return n, nil
}
