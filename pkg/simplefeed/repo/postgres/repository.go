// Package postgres provides a simplefeed.Repository backed by
// PostgreSQL via pgx. Schema lives under migrations/.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tendant/simple-feed/pkg/simplefeed"
)

// DBTX is an interface that allows us to use either a database connection or a transaction
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// Repository implements simplefeed.Repository using PostgreSQL
type Repository struct {
	db DBTX
}

// New creates a new PostgreSQL repository
func New(db DBTX) simplefeed.Repository {
	return &Repository{db: db}
}

// NewWithPool creates a new PostgreSQL repository with connection pool
func NewWithPool(pool *pgxpool.Pool) simplefeed.Repository {
	return &Repository{db: pool}
}

// handlePostgresError maps driver errors onto the domain taxonomy.
func handlePostgresError(operation string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			if strings.Contains(pgErr.ConstraintName, "email") {
				return simplefeed.ErrEmailTaken
			}
			return fmt.Errorf("duplicate entry in %s", operation)
		case "23503": // foreign_key_violation
			return fmt.Errorf("referenced record not found in %s", operation)
		case "23502": // not_null_violation
			return fmt.Errorf("required field %s is missing", pgErr.ColumnName)
		case "42P01": // undefined_table
			return fmt.Errorf("table does not exist - database migration required")
		default:
			return fmt.Errorf("database error in %s: %s (code: %s)", operation, pgErr.Message, pgErr.Code)
		}
	}

	return fmt.Errorf("database error in %s: %w", operation, err)
}

// User operations

func (r *Repository) CreateUser(ctx context.Context, user *simplefeed.User) error {
	query := `
		INSERT INTO users (id, email, password_hash, name, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.db.Exec(ctx, query,
		user.ID, user.Email, user.PasswordHash, user.Name, user.Status,
		user.CreatedAt, user.UpdatedAt)
	if err != nil {
		return handlePostgresError("create user", err)
	}
	return nil
}

func (r *Repository) GetUser(ctx context.Context, id uuid.UUID) (*simplefeed.User, error) {
	query := `
		SELECT id, email, password_hash, name, status, created_at, updated_at
		FROM users WHERE id = $1`

	return r.scanUser(ctx, r.db.QueryRow(ctx, query, id))
}

func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*simplefeed.User, error) {
	query := `
		SELECT id, email, password_hash, name, status, created_at, updated_at
		FROM users WHERE email = $1`

	return r.scanUser(ctx, r.db.QueryRow(ctx, query, email))
}

func (r *Repository) scanUser(ctx context.Context, row pgx.Row) (*simplefeed.User, error) {
	var user simplefeed.User
	err := row.Scan(&user.ID, &user.Email, &user.PasswordHash, &user.Name,
		&user.Status, &user.CreatedAt, &user.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, simplefeed.ErrUserNotFound
	}
	if err != nil {
		return nil, handlePostgresError("get user", err)
	}

	// Owned-post set, newest first
	rows, err := r.db.Query(ctx,
		`SELECT id FROM posts WHERE creator_id = $1 ORDER BY created_at DESC`, user.ID)
	if err != nil {
		return nil, handlePostgresError("get user posts", err)
	}
	defer rows.Close()
	for rows.Next() {
		var postID uuid.UUID
		if err := rows.Scan(&postID); err != nil {
			return nil, handlePostgresError("get user posts", err)
		}
		user.PostIDs = append(user.PostIDs, postID)
	}
	if err := rows.Err(); err != nil {
		return nil, handlePostgresError("get user posts", err)
	}

	return &user, nil
}

func (r *Repository) UpdateUser(ctx context.Context, user *simplefeed.User) error {
	query := `
		UPDATE users SET email = $2, password_hash = $3, name = $4, status = $5, updated_at = $6
		WHERE id = $1`

	tag, err := r.db.Exec(ctx, query,
		user.ID, user.Email, user.PasswordHash, user.Name, user.Status, user.UpdatedAt)
	if err != nil {
		return handlePostgresError("update user", err)
	}
	if tag.RowsAffected() == 0 {
		return simplefeed.ErrUserNotFound
	}
	return nil
}

// Post operations

func (r *Repository) CreatePost(ctx context.Context, post *simplefeed.Post) error {
	query := `
		INSERT INTO posts (id, title, content, image_url, creator_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.db.Exec(ctx, query,
		post.ID, post.Title, post.Content, post.ImageURL, post.CreatorID,
		post.CreatedAt, post.UpdatedAt)
	if err != nil {
		return handlePostgresError("create post", err)
	}
	return nil
}

func (r *Repository) GetPost(ctx context.Context, id uuid.UUID) (*simplefeed.Post, error) {
	query := `
		SELECT id, title, content, image_url, creator_id, created_at, updated_at
		FROM posts WHERE id = $1`

	var post simplefeed.Post
	err := r.db.QueryRow(ctx, query, id).Scan(
		&post.ID, &post.Title, &post.Content, &post.ImageURL, &post.CreatorID,
		&post.CreatedAt, &post.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, simplefeed.ErrPostNotFound
	}
	if err != nil {
		return nil, handlePostgresError("get post", err)
	}
	return &post, nil
}

func (r *Repository) UpdatePost(ctx context.Context, post *simplefeed.Post) error {
	query := `
		UPDATE posts SET title = $2, content = $3, image_url = $4, updated_at = $5
		WHERE id = $1`

	tag, err := r.db.Exec(ctx, query,
		post.ID, post.Title, post.Content, post.ImageURL, post.UpdatedAt)
	if err != nil {
		return handlePostgresError("update post", err)
	}
	if tag.RowsAffected() == 0 {
		return simplefeed.ErrPostNotFound
	}
	return nil
}

func (r *Repository) DeletePost(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM posts WHERE id = $1`, id)
	if err != nil {
		return handlePostgresError("delete post", err)
	}
	if tag.RowsAffected() == 0 {
		return simplefeed.ErrPostNotFound
	}
	return nil
}

func (r *Repository) ListPosts(ctx context.Context, offset, limit int) ([]*simplefeed.Post, error) {
	query := `
		SELECT id, title, content, image_url, creator_id, created_at, updated_at
		FROM posts ORDER BY created_at DESC OFFSET $1 LIMIT $2`

	rows, err := r.db.Query(ctx, query, offset, limit)
	if err != nil {
		return nil, handlePostgresError("list posts", err)
	}
	defer rows.Close()

	posts := make([]*simplefeed.Post, 0, limit)
	for rows.Next() {
		var post simplefeed.Post
		if err := rows.Scan(&post.ID, &post.Title, &post.Content, &post.ImageURL,
			&post.CreatorID, &post.CreatedAt, &post.UpdatedAt); err != nil {
			return nil, handlePostgresError("list posts", err)
		}
		posts = append(posts, &post)
	}
	if err := rows.Err(); err != nil {
		return nil, handlePostgresError("list posts", err)
	}

	return posts, nil
}

func (r *Repository) CountPosts(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM posts`).Scan(&count); err != nil {
		return 0, handlePostgresError("count posts", err)
	}
	return count, nil
}
