package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/hongminglow/smartsave/internal/auth"
	"github.com/hongminglow/smartsave/internal/http/respond"
	"github.com/hongminglow/smartsave/internal/ledger"
	"github.com/hongminglow/smartsave/internal/logging"
	"github.com/hongminglow/smartsave/internal/models"
	"github.com/hongminglow/smartsave/internal/models/dto"
	"github.com/hongminglow/smartsave/internal/storage"
)

const (
	seedUserID    = "user-123"
	seedUserName  = "Test User"
	seedUserEmail = "test@example.com"
)

// UserHandler owns onboarding and profile endpoints.
type UserHandler struct {
	store  storage.UserStore
	tokens *auth.TokenManager
	log    logging.Logger
	seed   bool
}

// NewUserHandler constructs the handler. tokens may be nil when identity is
// not enforced. The demo seed route is only registered when seed is true.
func NewUserHandler(store storage.UserStore, tokens *auth.TokenManager, log logging.Logger, seed bool) *UserHandler {
	return &UserHandler{store: store, tokens: tokens, log: log, seed: seed}
}

// Register attaches user routes to the mux.
func (h *UserHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/users", h.handleCreate)
	if h.seed {
		mux.HandleFunc("GET /api/seed-user", h.handleSeed)
	}
	mux.HandleFunc("GET /api/users/{id}", h.handleGet)
	mux.HandleFunc("POST /api/user/update-profile", h.handleUpdateProfile)
}

func validateLockPreference(days int) error {
	if days < 1 || days > ledger.MaxLockDays {
		return fmt.Errorf("lockPreference must be between 1 and %d days", ledger.MaxLockDays)
	}
	return nil
}

func (h *UserHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateUserRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	user := models.User{
		ID:                 strings.TrimSpace(req.UserID),
		Name:               strings.TrimSpace(req.Name),
		Email:              strings.TrimSpace(req.Email),
		IncomeBracket:      strings.TrimSpace(req.IncomeBracket),
		Goal:               strings.TrimSpace(req.Goal),
		LockPreferenceDays: req.LockPreferenceDays,
	}
	if user.ID == "" || user.Name == "" || user.Email == "" {
		respond.Error(w, http.StatusBadRequest, "userId, name, and email are required")
		return
	}
	if user.LockPreferenceDays != 0 {
		if err := validateLockPreference(user.LockPreferenceDays); err != nil {
			respond.Error(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	if !authorize(w, r, user.ID) {
		return
	}

	created, err := h.store.CreateUser(r.Context(), user)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrAlreadyExists):
			respond.Error(w, http.StatusConflict, "user already exists")
		default:
			h.log.Error(r.Context(), "create user failed", "user_id", user.ID, "error", err)
			respond.Error(w, http.StatusInternalServerError, "failed to create user")
		}
		return
	}
	respond.JSON(w, http.StatusCreated, created)
}

// handleSeed makes sure the demo user exists and, when identity is enforced,
// returns a token for it.
func (h *UserHandler) handleSeed(w http.ResponseWriter, r *http.Request) {
	message := "Test user created"
	user, err := h.store.CreateUser(r.Context(), models.User{ID: seedUserID, Name: seedUserName, Email: seedUserEmail})
	if errors.Is(err, storage.ErrAlreadyExists) {
		message = "Test user already exists"
		user, err = h.store.GetUser(r.Context(), seedUserID)
	}
	if err != nil {
		h.log.Error(r.Context(), "seed user failed", "error", err)
		respond.Error(w, http.StatusInternalServerError, "failed to seed user")
		return
	}

	resp := dto.SeedUserResponse{Message: message, User: user}
	if h.tokens != nil {
		token, err := h.tokens.Generate(user.ID)
		if err != nil {
			respond.Error(w, http.StatusInternalServerError, "failed to generate token")
			return
		}
		resp.Token = token
	}
	respond.JSON(w, http.StatusOK, resp)
}

func (h *UserHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.PathValue("id"))
	if !authorize(w, r, id) {
		return
	}
	user, err := h.store.GetUser(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respond.Error(w, http.StatusNotFound, "user not found")
			return
		}
		h.log.Error(r.Context(), "get user failed", "user_id", id, "error", err)
		respond.Error(w, http.StatusInternalServerError, "failed to fetch user")
		return
	}
	respond.JSON(w, http.StatusOK, user)
}

func (h *UserHandler) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdateProfileRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.UserID = strings.TrimSpace(req.UserID)
	if req.UserID == "" {
		respond.Error(w, http.StatusBadRequest, "userId is required")
		return
	}
	if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
		respond.Error(w, http.StatusBadRequest, "name cannot be empty")
		return
	}
	if req.LockPreferenceDays != nil {
		if err := validateLockPreference(*req.LockPreferenceDays); err != nil {
			respond.Error(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	if !authorize(w, r, req.UserID) {
		return
	}

	user, err := h.store.UpdateProfile(r.Context(), req.UserID, models.ProfileUpdate{
		Name:               req.Name,
		IncomeBracket:      req.IncomeBracket,
		Goal:               req.Goal,
		LockPreferenceDays: req.LockPreferenceDays,
	})
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respond.Error(w, http.StatusNotFound, "user not found")
			return
		}
		h.log.Error(r.Context(), "update profile failed", "user_id", req.UserID, "error", err)
		respond.Error(w, http.StatusInternalServerError, "failed to update profile")
		return
	}
	respond.JSON(w, http.StatusOK, user)
}
