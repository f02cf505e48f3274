// Package api exposes the simple-feed service over HTTP: a single
// query/mutation endpoint with named operations, the image upload
// endpoint, static image serving, unauthenticated feed routes, and
// the websocket live channel.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/http"
	"path"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/google/uuid"

	"github.com/tendant/simple-feed/pkg/simplefeed"
)

// ImagePrefix is the public path prefix uploaded images are stored
// under and served from.
const ImagePrefix = "images"

// maxUploadSize bounds a single image upload.
const maxUploadSize = 10 << 20

// Handler serves the simple-feed HTTP surface.
type Handler struct {
	service  simplefeed.Service
	images   simplefeed.ImageStore
	verifier TokenVerifier
	live     http.Handler
	logger   *slog.Logger
}

// NewHandler creates a handler. live is mounted at /ws when non-nil
// (pass the realtime hub); images may be nil when uploads are
// disabled.
func NewHandler(service simplefeed.Service, images simplefeed.ImageStore, verifier TokenVerifier, live http.Handler, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		service:  service,
		images:   images,
		verifier: verifier,
		live:     live,
		logger:   logger,
	}
}

// Routes sets up the HTTP routes
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(corsMiddleware)
	r.Use(IdentityMiddleware(h.verifier))

	r.Get("/health", h.Health)

	if h.live != nil {
		// No timeout here; websocket connections are long-lived.
		r.Get("/ws", h.live.ServeHTTP)
	}

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(60 * time.Second))

		r.Post("/api", h.Operations)
		r.Put("/post-image", h.UploadImage)
		r.Get("/"+ImagePrefix+"/*", h.ServeImage)
		r.Get("/feed/posts", h.ListFeed)
		r.Get("/feed/posts/{postID}", h.GetFeedPost)
	})

	return r
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]string{"status": "ok"})
}

// Query/mutation endpoint

// operationEnvelope is the request body of POST /api: a named
// operation plus its parameters.
type operationEnvelope struct {
	Operation string          `json:"operation"`
	Params    json.RawMessage `json:"params,omitempty"`
}

type loginParams struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type createUserParams struct {
	Input simplefeed.SignUpRequest `json:"input"`
}

type postsParams struct {
	Page int `json:"page"`
}

type postIDParams struct {
	PostID string `json:"postId"`
}

type createPostParams struct {
	Input simplefeed.CreatePostRequest `json:"input"`
}

type updatePostParams struct {
	PostID string                       `json:"postId"`
	Input  simplefeed.UpdatePostRequest `json:"input"`
}

type statusParams struct {
	Status string `json:"status"`
}

// Operations dispatches a named operation. Every operation except
// login and createUser requires an authenticated identity.
func (h *Handler) Operations(w http.ResponseWriter, r *http.Request) {
	var env operationEnvelope
	if err := json.NewDecoder(r.Body).Decode(&env); err != nil {
		h.writeMessage(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}

	ctx := r.Context()
	id := simplefeed.IdentityFromContext(ctx)

	result, err := func() (interface{}, error) {
		switch env.Operation {
		case "login":
			var p loginParams
			if err := decodeParams(env.Params, &p); err != nil {
				return nil, err
			}
			return h.service.Login(ctx, p.Email, p.Password)

		case "createUser":
			var p createUserParams
			if err := decodeParams(env.Params, &p); err != nil {
				return nil, err
			}
			return h.service.SignUp(ctx, p.Input)

		case "posts":
			if !id.Authenticated {
				return nil, simplefeed.ErrNotAuthenticated
			}
			var p postsParams
			if err := decodeParams(env.Params, &p); err != nil {
				return nil, err
			}
			return h.service.ListPosts(ctx, p.Page)

		case "post":
			if !id.Authenticated {
				return nil, simplefeed.ErrNotAuthenticated
			}
			postID, err := parsePostID(env.Params)
			if err != nil {
				return nil, err
			}
			return h.service.GetPost(ctx, postID)

		case "createPost":
			var p createPostParams
			if err := decodeParams(env.Params, &p); err != nil {
				return nil, err
			}
			return h.service.CreatePost(ctx, id, p.Input)

		case "updatePost":
			var p updatePostParams
			if err := decodeParams(env.Params, &p); err != nil {
				return nil, err
			}
			postID, err := parseUUID(p.PostID)
			if err != nil {
				return nil, err
			}
			return h.service.UpdatePost(ctx, id, postID, p.Input)

		case "deletePost":
			postID, err := parsePostID(env.Params)
			if err != nil {
				return nil, err
			}
			if err := h.service.DeletePost(ctx, id, postID); err != nil {
				return nil, err
			}
			return map[string]bool{"deleted": true}, nil

		case "user":
			return h.service.CurrentUser(ctx, id)

		case "updateStatus":
			var p statusParams
			if err := decodeParams(env.Params, &p); err != nil {
				return nil, err
			}
			return h.service.UpdateStatus(ctx, id, p.Status)

		default:
			return nil, fmt.Errorf("%w: %q", errUnknownOperation, env.Operation)
		}
	}()

	if err != nil {
		if errors.Is(err, errUnknownOperation) {
			h.writeMessage(w, r, http.StatusBadRequest, err.Error())
			return
		}
		h.writeError(w, r, err)
		return
	}

	render.JSON(w, r, result)
}

var errUnknownOperation = errors.New("unknown operation")

func decodeParams(raw json.RawMessage, dst interface{}) error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		verr := &simplefeed.ValidationError{}
		verr.Add("params", "Malformed operation parameters")
		return verr
	}
	return nil
}

func parsePostID(raw json.RawMessage) (uuid.UUID, error) {
	var p postIDParams
	if err := decodeParams(raw, &p); err != nil {
		return uuid.Nil, err
	}
	return parseUUID(p.PostID)
}

func parseUUID(value string) (uuid.UUID, error) {
	id, err := uuid.Parse(value)
	if err != nil {
		verr := &simplefeed.ValidationError{}
		verr.Add("postId", "Invalid post id")
		return uuid.Nil, verr
	}
	return id, nil
}

// Image upload

var allowedImageTypes = map[string]bool{
	"image/png":  true,
	"image/jpg":  true,
	"image/jpeg": true,
}

// UploadImage stores a single multipart image and returns the path to
// reference in a subsequent createPost/updatePost call. Files with a
// disallowed content type are silently dropped, matching the "no file
// provided" path.
func (h *Handler) UploadImage(w http.ResponseWriter, r *http.Request) {
	id := simplefeed.IdentityFromContext(r.Context())
	if !id.Authenticated {
		h.writeError(w, r, simplefeed.ErrNotAuthenticated)
		return
	}
	if h.images == nil {
		h.writeMessage(w, r, http.StatusInternalServerError, "Image storage is not configured")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		h.writeMessage(w, r, http.StatusBadRequest, "Invalid multipart body")
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil || !allowedImageType(header) {
		if file != nil {
			file.Close()
		}
		render.JSON(w, r, map[string]string{"message": "No file provided"})
		return
	}
	defer file.Close()

	// Replacing an image from the client side: drop the previous one
	// best-effort before storing the new.
	if oldPath := r.FormValue("oldPath"); oldPath != "" {
		if err := h.images.Delete(r.Context(), oldPath); err != nil {
			h.logger.Warn("failed to delete previous image", "path", oldPath, "error", err)
		}
	}

	key := path.Join(ImagePrefix, uploadKey(header.Filename))
	if err := h.images.Save(r.Context(), key, file); err != nil {
		h.logger.Error("failed to store image", "key", key, "error", err)
		h.writeMessage(w, r, http.StatusInternalServerError, "Failed to store file")
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, map[string]string{
		"message":  "File stored",
		"filePath": key,
	})
}

func allowedImageType(header *multipart.FileHeader) bool {
	if header == nil {
		return false
	}
	return allowedImageTypes[header.Header.Get("Content-Type")]
}

// uploadKey prefixes the original filename with a timestamp so
// repeated uploads of the same file never collide.
func uploadKey(filename string) string {
	return time.Now().UTC().Format("2006-01-02T15-04-05.000000000Z") + "-" + filepath.Base(filename)
}

// ServeImage streams a stored image back under the public prefix.
func (h *Handler) ServeImage(w http.ResponseWriter, r *http.Request) {
	if h.images == nil {
		h.writeError(w, r, simplefeed.ErrImageNotFound)
		return
	}

	key := path.Join(ImagePrefix, chi.URLParam(r, "*"))
	rc, err := h.images.Open(r.Context(), key)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	defer rc.Close()

	contentType := mime.TypeByExtension(filepath.Ext(key))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)

	if _, err := io.Copy(w, rc); err != nil {
		h.logger.Warn("failed to stream image", "key", key, "error", err)
	}
}

// Plain feed routes (read-only, unauthenticated)

func (h *Handler) ListFeed(w http.ResponseWriter, r *http.Request) {
	page := 1
	if raw := r.URL.Query().Get("page"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			page = parsed
		}
	}

	pageData, err := h.service.ListPosts(r.Context(), page)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"message":    "Fetched posts",
		"posts":      pageData.Posts,
		"totalItems": pageData.TotalPosts,
	})
}

func (h *Handler) GetFeedPost(w http.ResponseWriter, r *http.Request) {
	postID, err := uuid.Parse(chi.URLParam(r, "postID"))
	if err != nil {
		h.writeError(w, r, simplefeed.ErrPostNotFound)
		return
	}

	post, err := h.service.GetPost(r.Context(), postID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"message": "Post fetched",
		"post":    post,
	})
}

// Error boundary

// errorBody is the JSON shape of every failure response.
type errorBody struct {
	Message string                  `json:"message"`
	Data    []simplefeed.FieldError `json:"data,omitempty"`
}

// writeError maps a service error onto its status code and serializes
// {message, data}. Unclassified errors become opaque 500s.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := simplefeed.HTTPStatus(err)

	body := errorBody{Message: err.Error()}
	var verr *simplefeed.ValidationError
	if errors.As(err, &verr) {
		body.Message = "Invalid input"
		body.Data = verr.Fields
	}
	if status == http.StatusInternalServerError {
		h.logger.Error("request failed", "path", r.URL.Path, "error", err)
		body.Message = "An internal server error occurred"
	}

	render.Status(r, status)
	render.JSON(w, r, body)
}

func (h *Handler) writeMessage(w http.ResponseWriter, r *http.Request, status int, message string) {
	render.Status(r, status)
	render.JSON(w, r, errorBody{Message: message})
}
