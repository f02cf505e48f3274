// Package memory provides an in-memory simplefeed.Repository for
// tests and development.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/tendant/simple-feed/pkg/simplefeed"
)

// Repository implements simplefeed.Repository using in-memory storage
type Repository struct {
	mu           sync.RWMutex
	users        map[uuid.UUID]*simplefeed.User
	usersByEmail map[string]uuid.UUID
	posts        map[uuid.UUID]*simplefeed.Post
}

// New creates a new in-memory repository
func New() simplefeed.Repository {
	return &Repository{
		users:        make(map[uuid.UUID]*simplefeed.User),
		usersByEmail: make(map[string]uuid.UUID),
		posts:        make(map[uuid.UUID]*simplefeed.Post),
	}
}

// User operations

func (r *Repository) CreateUser(ctx context.Context, user *simplefeed.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.usersByEmail[user.Email]; exists {
		return simplefeed.ErrEmailTaken
	}

	// Store a copy to avoid external modifications
	userCopy := *user
	r.users[user.ID] = &userCopy
	r.usersByEmail[user.Email] = user.ID

	return nil
}

func (r *Repository) GetUser(ctx context.Context, id uuid.UUID) (*simplefeed.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, exists := r.users[id]
	if !exists {
		return nil, simplefeed.ErrUserNotFound
	}

	userCopy := *user
	userCopy.PostIDs = r.postIDsLocked(id)
	return &userCopy, nil
}

func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*simplefeed.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, exists := r.usersByEmail[email]
	if !exists {
		return nil, simplefeed.ErrUserNotFound
	}

	userCopy := *r.users[id]
	userCopy.PostIDs = r.postIDsLocked(id)
	return &userCopy, nil
}

func (r *Repository) UpdateUser(ctx context.Context, user *simplefeed.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, exists := r.users[user.ID]
	if !exists {
		return simplefeed.ErrUserNotFound
	}

	if stored.Email != user.Email {
		delete(r.usersByEmail, stored.Email)
		r.usersByEmail[user.Email] = user.ID
	}

	userCopy := *user
	r.users[user.ID] = &userCopy

	return nil
}

// Post operations

func (r *Repository) CreatePost(ctx context.Context, post *simplefeed.Post) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	postCopy := *post
	r.posts[post.ID] = &postCopy

	return nil
}

func (r *Repository) GetPost(ctx context.Context, id uuid.UUID) (*simplefeed.Post, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	post, exists := r.posts[id]
	if !exists {
		return nil, simplefeed.ErrPostNotFound
	}

	postCopy := *post
	return &postCopy, nil
}

func (r *Repository) UpdatePost(ctx context.Context, post *simplefeed.Post) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.posts[post.ID]; !exists {
		return simplefeed.ErrPostNotFound
	}

	postCopy := *post
	r.posts[post.ID] = &postCopy

	return nil
}

func (r *Repository) DeletePost(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.posts[id]; !exists {
		return simplefeed.ErrPostNotFound
	}
	delete(r.posts, id)

	return nil
}

func (r *Repository) ListPosts(ctx context.Context, offset, limit int) ([]*simplefeed.Post, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sorted := r.sortedPostsLocked()

	if offset >= len(sorted) {
		return []*simplefeed.Post{}, nil
	}
	end := offset + limit
	if limit <= 0 || end > len(sorted) {
		end = len(sorted)
	}

	result := make([]*simplefeed.Post, 0, end-offset)
	for _, post := range sorted[offset:end] {
		postCopy := *post
		result = append(result, &postCopy)
	}
	return result, nil
}

func (r *Repository) CountPosts(ctx context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.posts), nil
}

// postIDsLocked assembles a user's owned-post set, newest first.
// Callers must hold at least the read lock.
func (r *Repository) postIDsLocked(userID uuid.UUID) []uuid.UUID {
	var ids []uuid.UUID
	for _, post := range r.sortedPostsLocked() {
		if post.CreatorID == userID {
			ids = append(ids, post.ID)
		}
	}
	return ids
}

// sortedPostsLocked returns all posts ordered by creation time
// descending. Callers must hold at least the read lock.
func (r *Repository) sortedPostsLocked() []*simplefeed.Post {
	sorted := make([]*simplefeed.Post, 0, len(r.posts))
	for _, post := range r.posts {
		sorted = append(sorted, post)
	}
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].CreatedAt.Equal(sorted[j].CreatedAt) {
			return sorted[i].ID.String() > sorted[j].ID.String()
		}
		return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
	})
	return sorted
}
