package simplefeed

import (
	"context"
	"io"

	"github.com/google/uuid"
)

// Repository defines the interface for user and post persistence.
// Implementations return ErrUserNotFound/ErrPostNotFound for missing
// records and ErrEmailTaken for a duplicate email on CreateUser.
type Repository interface {
	// User operations
	CreateUser(ctx context.Context, user *User) error
	GetUser(ctx context.Context, id uuid.UUID) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	UpdateUser(ctx context.Context, user *User) error

	// Post operations
	CreatePost(ctx context.Context, post *Post) error
	GetPost(ctx context.Context, id uuid.UUID) (*Post, error)
	UpdatePost(ctx context.Context, post *Post) error
	DeletePost(ctx context.Context, id uuid.UUID) error

	// ListPosts returns posts ordered by creation time descending.
	ListPosts(ctx context.Context, offset, limit int) ([]*Post, error)
	CountPosts(ctx context.Context) (int, error)
}

// ImageStore defines the interface for uploaded image storage.
type ImageStore interface {
	Save(ctx context.Context, key string, reader io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

// EventSink defines the interface for post lifecycle notifications.
// Sinks must not block the calling operation; failures are logged by
// the service and never surfaced to the caller.
type EventSink interface {
	PostCreated(ctx context.Context, post *PostView) error
	PostUpdated(ctx context.Context, post *PostView) error
	PostDeleted(ctx context.Context, postID uuid.UUID) error
}

// TokenIssuer produces signed bearer tokens for authenticated users.
type TokenIssuer interface {
	Issue(userID uuid.UUID, email string) (string, error)
}
