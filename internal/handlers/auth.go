package handlers

import (
	"context"
	"errors"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/shortlinks/internal/accounts"
	"github.com/serroba/shortlinks/internal/session"
	"go.uber.org/zap"
)

// AuthHandler serves signup, login, logout and the current user.
type AuthHandler struct {
	accounts *accounts.Registry
	sessions *session.Manager
	logger   *zap.Logger
}

// NewAuthHandler creates an AuthHandler.
func NewAuthHandler(registry *accounts.Registry, sessions *session.Manager, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		accounts: registry,
		sessions: sessions,
		logger:   logger,
	}
}

func (h *AuthHandler) Signup(ctx context.Context, req *CredentialsRequest) (*SessionResponse, error) {
	account, err := h.accounts.CreateAccount(ctx, req.Body.Email, req.Body.Password)
	if err != nil {
		switch {
		case errors.Is(err, accounts.ErrValidation):
			return nil, huma.Error400BadRequest(err.Error())
		case errors.Is(err, accounts.ErrConflict):
			return nil, huma.Error409Conflict("email already registered")
		default:
			h.logger.Error("failed to create account", zap.Error(err))

			return nil, huma.Error500InternalServerError("failed to create account")
		}
	}

	return h.startSession(account)
}

func (h *AuthHandler) Login(ctx context.Context, req *CredentialsRequest) (*SessionResponse, error) {
	if req.Body.Email == "" || req.Body.Password == "" {
		return nil, huma.Error400BadRequest("email and password are required")
	}

	account, err := h.accounts.Verify(ctx, req.Body.Email, req.Body.Password)
	if err != nil {
		if errors.Is(err, accounts.ErrInvalidCredentials) {
			return nil, huma.Error401Unauthorized("invalid email or password")
		}

		h.logger.Error("failed to verify credentials", zap.Error(err))

		return nil, huma.Error500InternalServerError("failed to log in")
	}

	return h.startSession(account)
}

func (h *AuthHandler) Logout(ctx context.Context, _ *struct{}) (*LogoutResponse, error) {
	if _, err := requireAccount(ctx); err != nil {
		return nil, err
	}

	resp := &LogoutResponse{SetCookie: *h.sessions.ClearCookie()}
	resp.Body.Message = "logged out"

	return resp, nil
}

func (h *AuthHandler) CurrentUser(ctx context.Context, _ *struct{}) (*UserResponse, error) {
	accountID, err := requireAccount(ctx)
	if err != nil {
		return nil, err
	}

	account, err := h.accounts.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, accounts.ErrNotFound) {
			return nil, huma.Error404NotFound("user not found")
		}

		h.logger.Error("failed to load account", zap.String("user_id", accountID), zap.Error(err))

		return nil, huma.Error500InternalServerError("failed to retrieve user")
	}

	resp := &UserResponse{}
	resp.Body.UserID = account.ID
	resp.Body.Email = account.Email
	resp.Body.CreatedAt = account.CreatedAt

	return resp, nil
}

func (h *AuthHandler) startSession(account *accounts.Account) (*SessionResponse, error) {
	token, expires, err := h.sessions.Issue(account.ID)
	if err != nil {
		h.logger.Error("failed to issue session", zap.String("user_id", account.ID), zap.Error(err))

		return nil, huma.Error500InternalServerError("failed to start session")
	}

	resp := &SessionResponse{SetCookie: *h.sessions.Cookie(token, expires)}
	resp.Body.User = AccountBody{UserID: account.ID, Email: account.Email}
	resp.Body.Token = token
	resp.Body.ExpiresAt = expires

	return resp, nil
}

// requireAccount returns the caller's account id or a 401.
func requireAccount(ctx context.Context) (string, error) {
	accountID, ok := session.AccountFromContext(ctx)
	if !ok {
		return "", huma.Error401Unauthorized("authentication required")
	}

	return accountID, nil
}
