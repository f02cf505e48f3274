package simplefeed

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// DefaultPageSize is the fixed feed page size.
const DefaultPageSize = 2

// PasswordHashCost is the bcrypt cost factor for stored passwords.
const PasswordHashCost = 12

// service implements the Service interface
type service struct {
	repository Repository
	images     ImageStore
	events     EventSink
	tokens     TokenIssuer
	logger     *slog.Logger
	pageSize   int
}

// Option represents a functional option for configuring the service
type Option func(*service)

// WithRepository sets the repository for the service
func WithRepository(repo Repository) Option {
	return func(s *service) {
		s.repository = repo
	}
}

// WithImageStore sets the image store used for best-effort cleanup of
// replaced and deleted post images
func WithImageStore(store ImageStore) Option {
	return func(s *service) {
		s.images = store
	}
}

// WithEventSink sets the event sink notified of post lifecycle changes
func WithEventSink(sink EventSink) Option {
	return func(s *service) {
		s.events = sink
	}
}

// WithTokens sets the token issuer used by Login
func WithTokens(issuer TokenIssuer) Option {
	return func(s *service) {
		s.tokens = issuer
	}
}

// WithLogger sets the logger for the service
func WithLogger(logger *slog.Logger) Option {
	return func(s *service) {
		s.logger = logger
	}
}

// WithPageSize overrides the feed page size
func WithPageSize(size int) Option {
	return func(s *service) {
		if size > 0 {
			s.pageSize = size
		}
	}
}

// New creates a new service instance with the given options
func New(options ...Option) (Service, error) {
	s := &service{
		events:   NewNoopEventSink(),
		logger:   slog.Default(),
		pageSize: DefaultPageSize,
	}

	for _, option := range options {
		option(s)
	}

	if s.repository == nil {
		return nil, fmt.Errorf("repository is required")
	}

	return s, nil
}

// Account operations

func (s *service) SignUp(ctx context.Context, req SignUpRequest) (*UserView, error) {
	verr := &ValidationError{}
	if !validEmail(req.Email) {
		verr.Add("email", "Invalid email")
	}
	if !validLength(req.Password, minPasswordLength) {
		verr.Add("password", "Password too short")
	}
	if verr.HasErrors() {
		return nil, verr
	}

	if _, err := s.repository.GetUserByEmail(ctx, req.Email); err == nil {
		return nil, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), PasswordHashCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now().UTC()
	user := &User{
		ID:           uuid.New(),
		Email:        req.Email,
		PasswordHash: string(hash),
		Name:         req.Name,
		Status:       DefaultStatus,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repository.CreateUser(ctx, user); err != nil {
		return nil, &UserError{UserID: user.ID, Op: "signup", Err: err}
	}

	s.logger.Info("user created", "user_id", user.ID, "email", user.Email)
	return NewUserView(user), nil
}

func (s *service) Login(ctx context.Context, email, password string) (*AuthPayload, error) {
	user, err := s.repository.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}

	if s.tokens == nil {
		return nil, fmt.Errorf("token issuer is not configured")
	}

	token, err := s.tokens.Issue(user.ID, user.Email)
	if err != nil {
		return nil, &UserError{UserID: user.ID, Op: "login", Err: err}
	}

	return &AuthPayload{Token: token, UserID: user.ID}, nil
}

func (s *service) CurrentUser(ctx context.Context, id Identity) (*UserView, error) {
	if !id.Authenticated {
		return nil, ErrNotAuthenticated
	}

	user, err := s.repository.GetUser(ctx, id.UserID)
	if err != nil {
		return nil, err
	}
	return NewUserView(user), nil
}

func (s *service) UpdateStatus(ctx context.Context, id Identity, status string) (*UserView, error) {
	if !id.Authenticated {
		return nil, ErrNotAuthenticated
	}

	if !validLength(status, 1) {
		verr := &ValidationError{}
		verr.Add("status", "Status must not be empty")
		return nil, verr
	}

	user, err := s.repository.GetUser(ctx, id.UserID)
	if err != nil {
		return nil, err
	}

	user.Status = status
	user.UpdatedAt = time.Now().UTC()
	if err := s.repository.UpdateUser(ctx, user); err != nil {
		return nil, &UserError{UserID: user.ID, Op: "update_status", Err: err}
	}

	return NewUserView(user), nil
}

// Feed operations

func (s *service) ListPosts(ctx context.Context, page int) (*PostPage, error) {
	if page < 1 {
		page = 1
	}

	total, err := s.repository.CountPosts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count posts: %w", err)
	}

	posts, err := s.repository.ListPosts(ctx, (page-1)*s.pageSize, s.pageSize)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}

	views := make([]*PostView, 0, len(posts))
	creators := make(map[uuid.UUID]*User)
	for _, post := range posts {
		creator, ok := creators[post.CreatorID]
		if !ok {
			creator, err = s.repository.GetUser(ctx, post.CreatorID)
			if err != nil {
				return nil, &PostError{PostID: post.ID, Op: "list", Err: err}
			}
			creators[post.CreatorID] = creator
		}
		views = append(views, NewPostView(post, creator))
	}

	return &PostPage{Posts: views, TotalPosts: total}, nil
}

func (s *service) GetPost(ctx context.Context, postID uuid.UUID) (*PostView, error) {
	post, err := s.repository.GetPost(ctx, postID)
	if err != nil {
		return nil, err
	}

	creator, err := s.repository.GetUser(ctx, post.CreatorID)
	if err != nil {
		return nil, &PostError{PostID: postID, Op: "get", Err: err}
	}

	return NewPostView(post, creator), nil
}

func (s *service) CreatePost(ctx context.Context, id Identity, req CreatePostRequest) (*PostView, error) {
	if !id.Authenticated {
		return nil, ErrNotAuthenticated
	}

	if err := validatePostInput(req.Title, req.Content); err != nil {
		return nil, err
	}

	creator, err := s.repository.GetUser(ctx, id.UserID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	post := &Post{
		ID:        uuid.New(),
		Title:     req.Title,
		Content:   req.Content,
		ImageURL:  req.ImageURL,
		CreatorID: creator.ID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repository.CreatePost(ctx, post); err != nil {
		return nil, &PostError{PostID: post.ID, Op: "create", Err: err}
	}

	view := NewPostView(post, creator)
	s.emit(ctx, "create", func(ctx context.Context) error {
		return s.events.PostCreated(ctx, view)
	})

	s.logger.Info("post created", "post_id", post.ID, "creator_id", creator.ID)
	return view, nil
}

func (s *service) UpdatePost(ctx context.Context, id Identity, postID uuid.UUID, req UpdatePostRequest) (*PostView, error) {
	if !id.Authenticated {
		return nil, ErrNotAuthenticated
	}

	post, err := s.repository.GetPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post.CreatorID != id.UserID {
		return nil, ErrNotAuthorized
	}

	if err := validatePostInput(req.Title, req.Content); err != nil {
		return nil, err
	}

	post.Title = req.Title
	post.Content = req.Content
	if req.ImageURL != nil && *req.ImageURL != post.ImageURL {
		s.removeImage(ctx, post.ImageURL)
		post.ImageURL = *req.ImageURL
	}
	post.UpdatedAt = time.Now().UTC()

	if err := s.repository.UpdatePost(ctx, post); err != nil {
		return nil, &PostError{PostID: postID, Op: "update", Err: err}
	}

	creator, err := s.repository.GetUser(ctx, post.CreatorID)
	if err != nil {
		return nil, &PostError{PostID: postID, Op: "update", Err: err}
	}

	view := NewPostView(post, creator)
	s.emit(ctx, "update", func(ctx context.Context) error {
		return s.events.PostUpdated(ctx, view)
	})

	return view, nil
}

func (s *service) DeletePost(ctx context.Context, id Identity, postID uuid.UUID) error {
	if !id.Authenticated {
		return ErrNotAuthenticated
	}

	post, err := s.repository.GetPost(ctx, postID)
	if err != nil {
		return err
	}
	if post.CreatorID != id.UserID {
		return ErrNotAuthorized
	}

	s.removeImage(ctx, post.ImageURL)

	if err := s.repository.DeletePost(ctx, postID); err != nil {
		return &PostError{PostID: postID, Op: "delete", Err: err}
	}

	s.emit(ctx, "delete", func(ctx context.Context) error {
		return s.events.PostDeleted(ctx, postID)
	})

	s.logger.Info("post deleted", "post_id", postID, "creator_id", id.UserID)
	return nil
}

// removeImage deletes a stored image best-effort. Failures are logged
// and never surfaced to the caller.
func (s *service) removeImage(ctx context.Context, imageURL string) {
	if s.images == nil || imageURL == "" {
		return
	}
	if err := s.images.Delete(ctx, imageURL); err != nil {
		s.logger.Warn("failed to delete image", "image", imageURL, "error", err)
	}
}

// emit forwards a lifecycle event to the sink, logging failures.
func (s *service) emit(ctx context.Context, action string, fn func(context.Context) error) {
	if err := fn(ctx); err != nil {
		s.logger.Warn("failed to publish post event", "action", action, "error", err)
	}
}
