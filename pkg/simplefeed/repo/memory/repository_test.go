package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tendant/simple-feed/pkg/simplefeed"
	"github.com/tendant/simple-feed/pkg/simplefeed/repo/memory"
)

func newUser(email string) *simplefeed.User {
	now := time.Now().UTC()
	return &simplefeed.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: "$2a$12$fakefakefakefakefakefake",
		Name:         "Tester",
		Status:       simplefeed.DefaultStatus,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func newPost(creatorID uuid.UUID, title string, createdAt time.Time) *simplefeed.Post {
	return &simplefeed.Post{
		ID:        uuid.New(),
		Title:     title,
		Content:   "some content",
		ImageURL:  "images/" + title + ".png",
		CreatorID: creatorID,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
}

func TestUserOperations(t *testing.T) {
	repo := memory.New()
	ctx := context.Background()

	user := newUser("one@example.com")
	require.NoError(t, repo.CreateUser(ctx, user))

	t.Run("GetUser", func(t *testing.T) {
		got, err := repo.GetUser(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, user.Email, got.Email)
		assert.Empty(t, got.PostIDs)
	})

	t.Run("GetUserByEmail", func(t *testing.T) {
		got, err := repo.GetUserByEmail(ctx, "one@example.com")
		require.NoError(t, err)
		assert.Equal(t, user.ID, got.ID)
	})

	t.Run("DuplicateEmail", func(t *testing.T) {
		err := repo.CreateUser(ctx, newUser("one@example.com"))
		assert.ErrorIs(t, err, simplefeed.ErrEmailTaken)
	})

	t.Run("UpdateUser", func(t *testing.T) {
		user.Status = "Shipping"
		require.NoError(t, repo.UpdateUser(ctx, user))

		got, err := repo.GetUser(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, "Shipping", got.Status)
	})

	t.Run("NotFound", func(t *testing.T) {
		_, err := repo.GetUser(ctx, uuid.New())
		assert.ErrorIs(t, err, simplefeed.ErrUserNotFound)

		_, err = repo.GetUserByEmail(ctx, "nobody@example.com")
		assert.ErrorIs(t, err, simplefeed.ErrUserNotFound)
	})
}

func TestPostOperations(t *testing.T) {
	repo := memory.New()
	ctx := context.Background()

	user := newUser("author@example.com")
	require.NoError(t, repo.CreateUser(ctx, user))

	base := time.Now().UTC()
	posts := make([]*simplefeed.Post, 0, 5)
	for i := 0; i < 5; i++ {
		p := newPost(user.ID, string(rune('a'+i)), base.Add(time.Duration(i)*time.Second))
		require.NoError(t, repo.CreatePost(ctx, p))
		posts = append(posts, p)
	}

	t.Run("ListNewestFirst", func(t *testing.T) {
		got, err := repo.ListPosts(ctx, 0, 2)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, posts[4].ID, got[0].ID)
		assert.Equal(t, posts[3].ID, got[1].ID)
	})

	t.Run("ListOffsets", func(t *testing.T) {
		got, err := repo.ListPosts(ctx, 4, 2)
		require.NoError(t, err)
		assert.Len(t, got, 1)

		got, err = repo.ListPosts(ctx, 6, 2)
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("Count", func(t *testing.T) {
		n, err := repo.CountPosts(ctx)
		require.NoError(t, err)
		assert.Equal(t, 5, n)
	})

	t.Run("OwnedPostSet", func(t *testing.T) {
		got, err := repo.GetUser(ctx, user.ID)
		require.NoError(t, err)
		assert.Len(t, got.PostIDs, 5)
		assert.Equal(t, posts[4].ID, got.PostIDs[0])
	})

	t.Run("DeleteDetaches", func(t *testing.T) {
		require.NoError(t, repo.DeletePost(ctx, posts[2].ID))

		_, err := repo.GetPost(ctx, posts[2].ID)
		assert.ErrorIs(t, err, simplefeed.ErrPostNotFound)

		got, err := repo.GetUser(ctx, user.ID)
		require.NoError(t, err)
		assert.Len(t, got.PostIDs, 4)
		assert.NotContains(t, got.PostIDs, posts[2].ID)
	})

	t.Run("UpdatePost", func(t *testing.T) {
		posts[0].Title = "updated title"
		require.NoError(t, repo.UpdatePost(ctx, posts[0]))

		got, err := repo.GetPost(ctx, posts[0].ID)
		require.NoError(t, err)
		assert.Equal(t, "updated title", got.Title)
	})

	t.Run("NotFound", func(t *testing.T) {
		assert.ErrorIs(t, repo.DeletePost(ctx, uuid.New()), simplefeed.ErrPostNotFound)
		assert.ErrorIs(t, repo.UpdatePost(ctx, newPost(user.ID, "zzzzz", base)), simplefeed.ErrPostNotFound)
	})
}
