package simplefeed

import (
	"time"

	"github.com/google/uuid"
)

// DefaultStatus is the status line assigned to newly created users.
const DefaultStatus = "I am new!"

// User is the stored shape of an account. PasswordHash is never
// serialized; PostIDs is assembled by the repository from the posts
// collection, newest first.
type User struct {
	ID           uuid.UUID   `json:"id"`
	Email        string      `json:"email"`
	PasswordHash string      `json:"-"`
	Name         string      `json:"name"`
	Status       string      `json:"status"`
	PostIDs      []uuid.UUID `json:"post_ids,omitempty"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

// Post is the stored shape of a feed entry. CreatorID is immutable
// after creation.
type Post struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	ImageURL  string    `json:"image_url"`
	CreatorID uuid.UUID `json:"creator_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Creator is the denormalized owner summary embedded in API responses.
type Creator struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// PostView is the API shape of a post: the stored fields plus the
// creator summary. Storage shape and API shape are kept distinct on
// purpose; use NewPostView to go from one to the other.
type PostView struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	ImageURL  string    `json:"imageUrl"`
	Creator   Creator   `json:"creator"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewPostView shapes a stored post and its owner into the response
// form.
func NewPostView(post *Post, creator *User) *PostView {
	return &PostView{
		ID:        post.ID,
		Title:     post.Title,
		Content:   post.Content,
		ImageURL:  post.ImageURL,
		Creator:   Creator{ID: creator.ID, Name: creator.Name},
		CreatedAt: post.CreatedAt,
		UpdatedAt: post.UpdatedAt,
	}
}

// UserView is the API shape of an account.
type UserView struct {
	ID      uuid.UUID   `json:"id"`
	Email   string      `json:"email"`
	Name    string      `json:"name"`
	Status  string      `json:"status"`
	PostIDs []uuid.UUID `json:"posts"`
}

// NewUserView shapes a stored user into the response form.
func NewUserView(user *User) *UserView {
	return &UserView{
		ID:      user.ID,
		Email:   user.Email,
		Name:    user.Name,
		Status:  user.Status,
		PostIDs: user.PostIDs,
	}
}

// PostPage is one page of the feed plus the total count for
// client-side pagination math.
type PostPage struct {
	Posts      []*PostView `json:"posts"`
	TotalPosts int         `json:"totalPosts"`
}

// AuthPayload is returned by a successful login.
type AuthPayload struct {
	Token  string    `json:"token"`
	UserID uuid.UUID `json:"userId"`
}
