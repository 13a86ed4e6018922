package http

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/emberchat/ember-server/internal/auth"
	"github.com/emberchat/ember-server/internal/core"
	"github.com/emberchat/ember-server/internal/storage"
	"github.com/emberchat/ember-server/internal/store"
)

// maxUploadBytes caps a single image upload.
const maxUploadBytes = 8 << 20

// APIHandlers provides HTTP handlers for REST API endpoints.
type APIHandlers struct {
	authService *auth.Service
	messages    store.MessageStore
	uploads     *storage.Disk
	historyLim  int
	log         *zerolog.Logger
}

// NewAPIHandlers creates a new API handlers instance.
func NewAPIHandlers(authService *auth.Service, messages store.MessageStore, uploads *storage.Disk, historyLimit int, logger *zerolog.Logger) *APIHandlers {
	return &APIHandlers{
		authService: authService,
		messages:    messages,
		uploads:     uploads,
		historyLim:  historyLimit,
		log:         logger,
	}
}

// RegisterRequest represents the registration request body.
type RegisterRequest struct {
	Username string `json:"username" binding:"required,min=3,max=32"`
	Password string `json:"password" binding:"required,min=6"`
}

// LoginRequest represents the login request body.
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// AuthResponse represents the authentication response body.
type AuthResponse struct {
	Token string `json:"token"`
}

// UploadResponse carries the opaque handle of a stored image.
type UploadResponse struct {
	Handle string `json:"handle"`
}

// HistoryResponse lists recent messages of one room.
type HistoryResponse struct {
	Room     string         `json:"room"`
	Messages []EventMessage `json:"messages"`
}

// EventMessage mirrors proto.EventMessage for the REST surface.
type EventMessage struct {
	ID    int64  `json:"id"`
	From  string `json:"from"`
	To    string `json:"to,omitempty"`
	Text  string `json:"text,omitempty"`
	Image string `json:"image,omitempty"`
	TS    int64  `json:"ts"`
}

// ErrorResponse represents an error response body.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Register handles user registration.
// POST /api/register
func (h *APIHandlers) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug().Err(err).Msg("invalid register request")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	token, err := h.authService.Register(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrUsernameTaken):
			c.JSON(http.StatusConflict, ErrorResponse{Error: "username taken"})
		case errors.Is(err, auth.ErrInvalidUsername):
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid username"})
		default:
			h.log.Error().Err(err).Msg("register failed")
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "registration failed"})
		}
		return
	}

	c.JSON(http.StatusCreated, AuthResponse{Token: token})
}

// Login handles user login.
// POST /api/login
func (h *APIHandlers) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug().Err(err).Msg("invalid login request")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	token, err := h.authService.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "invalid credentials"})
			return
		}
		h.log.Error().Err(err).Msg("login failed")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "login failed"})
		return
	}

	c.JSON(http.StatusOK, AuthResponse{Token: token})
}

// Upload stores an image and returns its handle for use in msg/dm frames.
// POST /api/upload (multipart, field "file")
func (h *APIHandlers) Upload(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "file is required"})
		return
	}
	if file.Size > maxUploadBytes {
		c.JSON(http.StatusRequestEntityTooLarge, ErrorResponse{Error: "file too large"})
		return
	}

	f, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "unreadable file"})
		return
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxUploadBytes))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "unreadable file"})
		return
	}

	handle, err := h.uploads.Save(data, file.Filename)
	if err != nil {
		h.log.Error().Err(err).Msg("save upload")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "upload failed"})
		return
	}

	c.JSON(http.StatusCreated, UploadResponse{Handle: handle})
}

// History returns recent messages of the global room, or of the caller's
// direct room with ?with=<user>.
// GET /api/history
func (h *APIHandlers) History(c *gin.Context) {
	username := c.GetString(ContextKeyUsername)

	key := core.GlobalRoom()
	if with := c.Query("with"); with != "" {
		key = core.DirectRoom(username, with)
	}

	rows, err := h.messages.ListRecentMessages(c.Request.Context(), key.String(), h.historyLim)
	if err != nil {
		h.log.Error().Err(err).Stringer("room", key).Msg("load history")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "history unavailable"})
		return
	}

	messages := make([]EventMessage, 0, len(rows))
	for _, row := range rows {
		messages = append(messages, EventMessage{
			ID:    row.ID,
			From:  row.Sender,
			To:    row.Recipient,
			Text:  row.Body,
			Image: row.Image,
			TS:    row.CreatedAt.Unix(),
		})
	}

	c.JSON(http.StatusOK, HistoryResponse{Room: key.String(), Messages: messages})
}
