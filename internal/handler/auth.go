package handler

import (
	"context"
	"errors"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/airops/auth-service/internal/config"
	"github.com/airops/auth-service/internal/middleware"
	"github.com/airops/auth-service/internal/model"
	"github.com/airops/auth-service/internal/queue"
	"github.com/airops/auth-service/internal/repository"
	"github.com/airops/auth-service/internal/respond"
	"github.com/airops/auth-service/internal/service"
	"github.com/airops/auth-service/internal/token"
	"github.com/airops/auth-service/internal/utils"
)

// AuthHandler bundles dependencies for the auth endpoints.
type AuthHandler struct {
	Cfg     config.Config
	Tokens  *token.Manager
	Users   repository.UserStore
	Clients repository.ClientStore

	// publish ships an audit event; overridable in tests. The default
	// publishes to RabbitMQ in the background so a slow broker never
	// delays a login.
	publish func(ev queue.AuthEvent)
}

func NewAuthHandler(cfg config.Config, tokens *token.Manager, users repository.UserStore, clients repository.ClientStore) *AuthHandler {
	return &AuthHandler{
		Cfg:     cfg,
		Tokens:  tokens,
		Users:   users,
		Clients: clients,
		publish: func(ev queue.AuthEvent) {
			go func() { _ = service.PublishAuthEvent(context.Background(), ev) }()
		},
	}
}

// ----- DTOs -----

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Remember bool   `json:"remember"`
}

type loginResp struct {
	Status       bool             `json:"status"`
	Message      string           `json:"message"`
	AccessToken  string           `json:"accessToken"`
	RefreshToken string           `json:"refreshToken"`
	User         model.PublicUser `json:"user"`
}

type createClientReq struct {
	Name            string `json:"name"`
	Secret          string `json:"secret"`
	AssociateUserID string `json:"associate_user_id"`
}

type accessTokenReq struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
}

type accessTokenResp struct {
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
	AccessToken string `json:"access_token"`
}

// Login verifies an email/password pair and opens an interactive session:
// both tokens are set as scoped cookies and also returned in the body.
// Unknown email and wrong password produce the same generic message so the
// endpoint cannot be used to enumerate accounts; the distinction survives
// only in the audit event.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return respond.Error(c, http.StatusBadRequest, "validation", "Validation Failed")
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		return respond.Error(c, http.StatusBadRequest, "validation", "Validation Failed")
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		return respond.Error(c, http.StatusBadRequest, "validation", "Must be a valid email")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.FindByEmail(ctx, req.Email)
	if errors.Is(err, repository.ErrNotFound) {
		h.auditLoginFailure(c, "", req.Email, "unknown email")
		return respond.Error(c, http.StatusUnauthorized, "invalid_credentials", "Invalid credentials")
	}
	if err != nil {
		c.Logger().Errorf("login: load user %s: %v", req.Email, err)
		return respond.Error(c, http.StatusInternalServerError, "internal", "Internal Server Error")
	}
	if !u.IsVerified {
		h.auditLoginFailure(c, u.ID, u.Email, "email not verified")
		return respond.Error(c, http.StatusUnauthorized, "not_verified", "Email not verified")
	}
	if !u.IsActive {
		h.auditLoginFailure(c, u.ID, u.Email, "deactivated")
		return respond.Error(c, http.StatusUnauthorized, "deactivated", "You're deactivated by the admin. Please contact admin to login.")
	}
	if !utils.VerifySecret(u.PasswordHash, req.Password) {
		h.auditLoginFailure(c, u.ID, u.Email, "wrong password")
		return respond.Error(c, http.StatusUnauthorized, "invalid_credentials", "Invalid credentials")
	}

	p := token.Principal{UserID: u.ID, Role: u.Role, Email: u.Email}
	pair, err := h.Tokens.IssuePair(p, req.Remember)
	if err != nil {
		c.Logger().Errorf("login: issue tokens: %v", err)
		return respond.Error(c, http.StatusInternalServerError, "internal", "Internal Server Error")
	}

	setTokenCookie(c, RefreshCookie, pair.RefreshToken, token.TTL(token.Refresh, req.Remember))
	setTokenCookie(c, middleware.AccessCookie, pair.AccessToken, token.TTL(token.Access, req.Remember))

	h.publish(queue.AuthEvent{
		Type:       queue.EventLoginSuccess,
		UserID:     u.ID,
		Email:      u.Email,
		RemoteIP:   c.RealIP(),
		OccurredAt: time.Now().UTC().Format(time.RFC3339),
	})

	return c.JSON(http.StatusOK, loginResp{
		Status:       true,
		Message:      "Login successful",
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		User:         u.Public(),
	})
}

// Refresh exchanges a valid refresh-token cookie for a brand new pair. The
// new pair always uses the short, non-remembered lifetimes: a remembered
// session cannot extend itself forever without the user logging in again.
func (h *AuthHandler) Refresh(c echo.Context) error {
	ck, err := c.Cookie(RefreshCookie)
	if err != nil || ck.Value == "" {
		return respond.Error(c, http.StatusBadRequest, "token_missing", "Refresh token not provided")
	}

	p, err := h.Tokens.Verify(ck.Value, token.Refresh)
	if errors.Is(err, token.ErrExpired) {
		return respond.Error(c, http.StatusUnauthorized, "token_expired", "Refresh token expired")
	}
	if err != nil {
		return respond.Error(c, http.StatusForbidden, "token_invalid", "Invalid refresh token")
	}

	pair, err := h.Tokens.IssuePair(p, false)
	if err != nil {
		c.Logger().Errorf("refresh: issue tokens: %v", err)
		return respond.Error(c, http.StatusInternalServerError, "internal", "Internal server error")
	}

	setTokenCookie(c, middleware.AccessCookie, pair.AccessToken, token.AccessTTL)
	setTokenCookie(c, RefreshCookie, pair.RefreshToken, token.RefreshTTL)

	h.publish(queue.AuthEvent{
		Type:       queue.EventTokenRefreshed,
		UserID:     p.UserID,
		Email:      p.Email,
		RemoteIP:   c.RealIP(),
		OccurredAt: time.Now().UTC().Format(time.RFC3339),
	})

	return respond.Message(c, http.StatusOK, "Token refreshed successfully")
}

// Logout clears both token cookies. Tokens are stateless so there is nothing
// to revoke server-side; the session ends when the client loses the cookies.
func (h *AuthHandler) Logout(c echo.Context) error {
	ck, err := c.Cookie(RefreshCookie)
	if err != nil || ck.Value == "" {
		return respond.Error(c, http.StatusBadRequest, "token_missing", "Refresh token not provided")
	}
	clearTokenCookie(c, middleware.AccessCookie)
	clearTokenCookie(c, RefreshCookie)
	return respond.Message(c, http.StatusOK, "Logged out successfully")
}

// CreateClient registers a machine client delegating to an existing active
// user. SuperAdmin only (enforced by the route's role gate). The secret is
// stored bcrypt-hashed; audit columns are stamped from the caller's
// principal.
func (h *AuthHandler) CreateClient(c echo.Context) error {
	var req createClientReq
	if err := c.Bind(&req); err != nil {
		return respond.Error(c, http.StatusBadRequest, "validation", "Validation Failed")
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" || req.AssociateUserID == "" {
		return respond.Error(c, http.StatusBadRequest, "validation", "Validation Failed")
	}
	if len(req.Secret) < 6 {
		return respond.Error(c, http.StatusBadRequest, "validation", "Secret must contain at least 6 characters")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.FindByID(ctx, req.AssociateUserID)
	if errors.Is(err, repository.ErrNotFound) {
		return respond.Error(c, http.StatusNotFound, "account_not_found", "Associated user not found")
	}
	if err != nil {
		c.Logger().Errorf("create client: load user %s: %v", req.AssociateUserID, err)
		return respond.Error(c, http.StatusInternalServerError, "internal", "Internal Server Error")
	}
	if !u.IsActive {
		return respond.Error(c, http.StatusForbidden, "account_inactive", "Associated user is inactive")
	}

	hash, err := utils.HashSecret(req.Secret, h.Cfg.BcryptCost)
	if err != nil {
		c.Logger().Errorf("create client: hash secret: %v", err)
		return respond.Error(c, http.StatusInternalServerError, "internal", "Internal Server Error")
	}

	cl := model.Client{Name: req.Name, SecretHash: hash, AssociateUserID: u.ID}
	if p, ok := middleware.PrincipalFrom(c); ok {
		cl.CreatedBy.String, cl.CreatedBy.Valid = p.UserID, true
		cl.UpdatedBy.String, cl.UpdatedBy.Valid = p.UserID, true
	}

	created, err := h.Clients.Create(ctx, cl)
	if errors.Is(err, repository.ErrNameExists) {
		return respond.Error(c, http.StatusConflict, "name_exists", "Client name already exists")
	}
	if err != nil {
		c.Logger().Errorf("create client: insert: %v", err)
		return respond.Error(c, http.StatusInternalServerError, "internal", "Internal Server Error")
	}
	return respond.Results(c, http.StatusCreated, "Client created successfully", created)
}

// GetAccessToken is the machine credential exchange: client_id/client_secret
// in, one short-lived access token out. No cookies and no refresh token —
// non-interactive callers re-exchange credentials when the token expires.
func (h *AuthHandler) GetAccessToken(c echo.Context) error {
	var req accessTokenReq
	if err := c.Bind(&req); err != nil {
		return respond.Error(c, http.StatusBadRequest, "validation", "Validation Failed")
	}
	req.ClientID = strings.TrimSpace(req.ClientID)
	req.ClientSecret = strings.TrimSpace(req.ClientSecret)
	if req.ClientID == "" || req.ClientSecret == "" {
		return respond.Error(c, http.StatusBadRequest, "validation", "Validation Failed")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	cl, err := h.Clients.FindByID(ctx, req.ClientID, true)
	if errors.Is(err, repository.ErrNotFound) {
		return respond.Error(c, http.StatusNotFound, "client_not_found", "Client not found")
	}
	if err != nil {
		c.Logger().Errorf("access token: load client %s: %v", req.ClientID, err)
		return respond.Error(c, http.StatusInternalServerError, "internal", "Internal Server Error")
	}
	// a deleted associated account surfaces as a nil AssociateUser
	if cl.AssociateUser == nil || !cl.AssociateUser.IsActive {
		return respond.Error(c, http.StatusForbidden, "account_inactive", "Associated user is inactive")
	}
	if !utils.VerifySecret(cl.SecretHash, req.ClientSecret) {
		return respond.Error(c, http.StatusUnauthorized, "invalid_client_credentials", "Invalid client credentials")
	}

	p := token.Principal{
		UserID:   cl.AssociateUser.ID,
		Role:     cl.AssociateUser.Role,
		Email:    cl.AssociateUser.Email,
		ClientID: cl.ID,
	}
	signed, _, err := h.Tokens.Issue(p, token.Access, false)
	if err != nil {
		c.Logger().Errorf("access token: issue: %v", err)
		return respond.Error(c, http.StatusInternalServerError, "internal", "Internal Server Error")
	}

	h.publish(queue.AuthEvent{
		Type:       queue.EventClientToken,
		UserID:     p.UserID,
		Email:      p.Email,
		ClientID:   cl.ID,
		RemoteIP:   c.RealIP(),
		OccurredAt: time.Now().UTC().Format(time.RFC3339),
	})

	return respond.Results(c, http.StatusOK, "Access token issued", accessTokenResp{
		TokenType:   "Bearer",
		ExpiresIn:   int(token.AccessTTL / time.Second),
		AccessToken: signed,
	})
}

// Me returns the principal attached by the session middleware.
func (h *AuthHandler) Me(c echo.Context) error {
	p, ok := middleware.PrincipalFrom(c)
	if !ok {
		return respond.Error(c, http.StatusUnauthorized, "unauthenticated", "Unauthenticated")
	}
	return respond.Results(c, http.StatusOK, "Session active", echo.Map{
		"user_id":   p.UserID,
		"role":      p.Role,
		"email":     p.Email,
		"client_id": p.ClientID,
	})
}

func (h *AuthHandler) auditLoginFailure(c echo.Context, userID, email, reason string) {
	h.publish(queue.AuthEvent{
		Type:       queue.EventLoginFailure,
		UserID:     userID,
		Email:      email,
		RemoteIP:   c.RealIP(),
		Reason:     reason,
		OccurredAt: time.Now().UTC().Format(time.RFC3339),
	})
}
