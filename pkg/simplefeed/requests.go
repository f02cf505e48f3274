package simplefeed

// SignUpRequest contains the input for creating a new account.
type SignUpRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

// CreatePostRequest contains the input for creating a post. ImageURL
// must reference an already uploaded image.
type CreatePostRequest struct {
	Title    string `json:"title"`
	Content  string `json:"content"`
	ImageURL string `json:"imageUrl"`
}

// UpdatePostRequest contains the input for updating a post. Title and
// content always overwrite; a nil ImageURL keeps the stored image, a
// non-nil one replaces it (deleting the old resource when it differs).
type UpdatePostRequest struct {
	Title    string  `json:"title"`
	Content  string  `json:"content"`
	ImageURL *string `json:"imageUrl,omitempty"`
}
