package simplefeed

import (
	"context"

	"github.com/google/uuid"
)

// Service defines the main interface for the simple-feed library.
//
// Operations taking an Identity require it to be authenticated and
// fail with ErrNotAuthenticated before touching any store otherwise.
// ListPosts and GetPost carry no identity; whether they require
// authentication is a transport concern (the query API demands it, the
// plain feed routes do not).
type Service interface {
	// Account operations
	SignUp(ctx context.Context, req SignUpRequest) (*UserView, error)
	Login(ctx context.Context, email, password string) (*AuthPayload, error)
	CurrentUser(ctx context.Context, id Identity) (*UserView, error)
	UpdateStatus(ctx context.Context, id Identity, status string) (*UserView, error)

	// Feed operations
	ListPosts(ctx context.Context, page int) (*PostPage, error)
	GetPost(ctx context.Context, postID uuid.UUID) (*PostView, error)
	CreatePost(ctx context.Context, id Identity, req CreatePostRequest) (*PostView, error)
	UpdatePost(ctx context.Context, id Identity, postID uuid.UUID, req UpdatePostRequest) (*PostView, error)
	DeletePost(ctx context.Context, id Identity, postID uuid.UUID) error
}
