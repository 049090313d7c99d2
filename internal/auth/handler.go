package auth

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/bookden/library-app/backend/internal/api"
	"github.com/bookden/library-app/backend/internal/models"
)

// TokenRevoker invalidates session tokens ahead of their expiry.
type TokenRevoker interface {
	Revoke(ctx context.Context, tokenID string, expires time.Time) error
}

// UserStore defines the interface for user persistence.
type UserStore interface {
	CreateUser(ctx context.Context, u *models.User) (string, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	UpdateUser(ctx context.Context, u *models.User) error
	DeleteUser(ctx context.Context, id string) error
}

// Handler holds account-related HTTP handlers.
type Handler struct {
	users   UserStore
	revoked TokenRevoker
	secret  string
	ttl     time.Duration
}

func NewHandler(users UserStore, revoked TokenRevoker, secret string, ttl time.Duration) *Handler {
	return &Handler{users: users, revoked: revoked, secret: secret, ttl: ttl}
}

// Register creates a new user account with the "user" role.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Email) == "" || req.Password == "" {
		api.Error(w, http.StatusBadRequest, "Name, email and password are required")
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		api.Error(w, http.StatusInternalServerError, "Internal error")
		return
	}

	user := &models.User{
		Name:          strings.TrimSpace(req.Name),
		Email:         strings.ToLower(strings.TrimSpace(req.Email)),
		Password:      string(hashed),
		Role:          models.RoleUser,
		BorrowedBooks: []models.BorrowEntry{},
	}
	if _, err := h.users.CreateUser(r.Context(), user); err != nil {
		if errors.Is(err, models.ErrDuplicateEmail) {
			api.Error(w, http.StatusConflict, "Email already registered")
			return
		}
		log.Printf("create user error: %v", err)
		api.Error(w, http.StatusInternalServerError, "Failed to create user")
		return
	}

	api.Respond(w, http.StatusCreated, user, "User registered successfully")
}

// Login verifies credentials and issues a signed session token.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, err := h.users.GetUserByEmail(r.Context(), strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		log.Printf("get user error: %v", err)
		api.Error(w, http.StatusInternalServerError, "Internal error")
		return
	}
	if user == nil {
		api.Error(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		api.Error(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}

	token, err := IssueToken(h.secret, user.ID.Hex(), user.Role, h.ttl)
	if err != nil {
		log.Printf("issue token error: %v", err)
		api.Error(w, http.StatusInternalServerError, "Failed to create session")
		return
	}

	api.Respond(w, http.StatusOK, map[string]interface{}{
		"user":  user,
		"token": token,
	}, "Logged in successfully")
}

// Logout revokes the presented token until its natural expiry.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	p, ok := FromContext(r.Context())
	if !ok {
		api.Error(w, http.StatusUnauthorized, "Not authenticated")
		return
	}
	if err := h.revoked.Revoke(r.Context(), p.TokenID, p.Expires); err != nil {
		log.Printf("revoke token error: %v", err)
		api.Error(w, http.StatusInternalServerError, "Logout failed")
		return
	}
	api.Respond(w, http.StatusOK, nil, "Logged out successfully")
}

// Me returns the currently authenticated user, borrow list included.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	p, ok := FromContext(r.Context())
	if !ok {
		api.Error(w, http.StatusUnauthorized, "Not authenticated")
		return
	}
	user, err := h.users.GetUserByID(r.Context(), p.UserID)
	if err != nil {
		log.Printf("get user error: %v", err)
		api.Error(w, http.StatusInternalServerError, "Internal error")
		return
	}
	if user == nil {
		api.Error(w, http.StatusNotFound, "User not found")
		return
	}
	api.Respond(w, http.StatusOK, user, "User retrieved successfully")
}

// UpdateMe applies a partial profile update to the current user.
func (h *Handler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	p, ok := FromContext(r.Context())
	if !ok {
		api.Error(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	var req models.ProfileUpdate
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, err := h.users.GetUserByID(r.Context(), p.UserID)
	if err != nil {
		log.Printf("get user error: %v", err)
		api.Error(w, http.StatusInternalServerError, "Internal error")
		return
	}
	if user == nil {
		api.Error(w, http.StatusNotFound, "User not found")
		return
	}

	if req.Name != nil {
		if strings.TrimSpace(*req.Name) == "" {
			api.Error(w, http.StatusBadRequest, "Name must not be empty")
			return
		}
		user.Name = strings.TrimSpace(*req.Name)
	}
	if req.Email != nil {
		if strings.TrimSpace(*req.Email) == "" {
			api.Error(w, http.StatusBadRequest, "Email must not be empty")
			return
		}
		user.Email = strings.ToLower(strings.TrimSpace(*req.Email))
	}
	if req.Password != nil {
		if *req.Password == "" {
			api.Error(w, http.StatusBadRequest, "Password must not be empty")
			return
		}
		hashed, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.DefaultCost)
		if err != nil {
			api.Error(w, http.StatusInternalServerError, "Internal error")
			return
		}
		user.Password = string(hashed)
	}

	if err := h.users.UpdateUser(r.Context(), user); err != nil {
		if errors.Is(err, models.ErrDuplicateEmail) {
			api.Error(w, http.StatusConflict, "Email already registered")
			return
		}
		log.Printf("update user error: %v", err)
		api.Error(w, http.StatusInternalServerError, "Failed to update user")
		return
	}

	api.Respond(w, http.StatusOK, user, "User updated successfully")
}

// DeleteMe removes the current user's account and revokes the session.
// Book records are untouched; copies still out on loan stay out.
func (h *Handler) DeleteMe(w http.ResponseWriter, r *http.Request) {
	p, ok := FromContext(r.Context())
	if !ok {
		api.Error(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	user, err := h.users.GetUserByID(r.Context(), p.UserID)
	if err != nil {
		log.Printf("get user error: %v", err)
		api.Error(w, http.StatusInternalServerError, "Internal error")
		return
	}
	if user == nil {
		api.Error(w, http.StatusNotFound, "User not found")
		return
	}

	if err := h.users.DeleteUser(r.Context(), p.UserID); err != nil {
		log.Printf("delete user error: %v", err)
		api.Error(w, http.StatusInternalServerError, "Failed to delete user")
		return
	}
	if err := h.revoked.Revoke(r.Context(), p.TokenID, p.Expires); err != nil {
		log.Printf("revoke token error: %v", err)
	}

	api.Respond(w, http.StatusOK, nil, "Account deleted successfully")
}
