package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/airops/auth-service/internal/config"
	"github.com/airops/auth-service/internal/middleware"
	"github.com/airops/auth-service/internal/model"
	"github.com/airops/auth-service/internal/queue"
	"github.com/airops/auth-service/internal/repository"
	"github.com/airops/auth-service/internal/token"
	"github.com/airops/auth-service/internal/utils"
)

const (
	testAccessSecret  = "handler-access-secret"
	testRefreshSecret = "handler-refresh-secret"
	testPassword      = "secret1"
)

// ----- fakes -----

type fakeUserStore struct {
	byID map[string]model.User
}

func (f *fakeUserStore) FindByEmail(_ context.Context, email string) (model.User, error) {
	for _, u := range f.byID {
		if u.Email == email {
			return u, nil
		}
	}
	return model.User{}, repository.ErrNotFound
}

func (f *fakeUserStore) FindByID(_ context.Context, id string) (model.User, error) {
	u, ok := f.byID[id]
	if !ok {
		return model.User{}, repository.ErrNotFound
	}
	return u, nil
}

func (f *fakeUserStore) List(_ context.Context) ([]model.User, error) {
	out := make([]model.User, 0, len(f.byID))
	for _, u := range f.byID {
		out = append(out, u)
	}
	return out, nil
}

type fakeClientStore struct {
	byID  map[string]model.Client
	users *fakeUserStore
}

func (f *fakeClientStore) FindByID(ctx context.Context, id string, includeUser bool) (model.Client, error) {
	c, ok := f.byID[id]
	if !ok {
		return model.Client{}, repository.ErrNotFound
	}
	if includeUser {
		if u, err := f.users.FindByID(ctx, c.AssociateUserID); err == nil {
			c.AssociateUser = &u
		}
	}
	return c, nil
}

func (f *fakeClientStore) Create(_ context.Context, c model.Client) (model.Client, error) {
	for _, existing := range f.byID {
		if strings.EqualFold(existing.Name, c.Name) {
			return model.Client{}, repository.ErrNameExists
		}
	}
	c.ID = "client-" + c.Name
	f.byID[c.ID] = c
	return c, nil
}

// ----- harness -----

type harness struct {
	h       *AuthHandler
	tokens  *token.Manager
	users   *fakeUserStore
	clients *fakeClientStore
	events  *[]queue.AuthEvent
}

func mustHash(t *testing.T, secret string) string {
	t.Helper()
	hash, err := utils.HashSecret(secret, bcrypt.MinCost)
	require.NoError(t, err)
	return hash
}

func newHarness(t *testing.T) harness {
	t.Helper()
	tokens, err := token.NewManager(testAccessSecret, testRefreshSecret)
	require.NoError(t, err)

	hash := mustHash(t, testPassword)
	users := &fakeUserStore{byID: map[string]model.User{
		"u-1": {ID: "u-1", Name: "Asha", Email: "a@x.com", Role: model.RoleAdmin, Photo: "a.png", PasswordHash: hash, IsActive: true, IsVerified: true},
		"u-2": {ID: "u-2", Name: "Noor", Email: "unverified@x.com", Role: model.RoleUser, PasswordHash: hash, IsActive: true, IsVerified: false},
		"u-3": {ID: "u-3", Name: "Mani", Email: "inactive@x.com", Role: model.RoleUser, PasswordHash: hash, IsActive: false, IsVerified: true},
	}}
	clients := &fakeClientStore{users: users, byID: map[string]model.Client{
		"c-1": {ID: "c-1", Name: "reporting", SecretHash: mustHash(t, "client-secret"), AssociateUserID: "u-1"},
		"c-2": {ID: "c-2", Name: "batch", SecretHash: mustHash(t, "client-secret"), AssociateUserID: "u-3"},
		"c-3": {ID: "c-3", Name: "orphan", SecretHash: mustHash(t, "client-secret"), AssociateUserID: "gone"},
	}}

	h := NewAuthHandler(config.Config{BcryptCost: bcrypt.MinCost}, tokens, users, clients)
	events := &[]queue.AuthEvent{}
	h.publish = func(ev queue.AuthEvent) { *events = append(*events, ev) }

	return harness{h: h, tokens: tokens, users: users, clients: clients, events: events}
}

func doJSON(t *testing.T, handlerFunc echo.HandlerFunc, method, path, body string, mutate func(*http.Request)) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if mutate != nil {
		mutate(req)
	}
	rec := httptest.NewRecorder()
	require.NoError(t, handlerFunc(e.NewContext(req, rec)))
	return rec
}

func cookieByName(t *testing.T, rec *httptest.ResponseRecorder, name string) *http.Cookie {
	t.Helper()
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == name {
			return ck
		}
	}
	t.Fatalf("cookie %s not set", name)
	return nil
}

// ----- login -----

func TestLoginSuccess(t *testing.T) {
	hs := newHarness(t)
	rec := doJSON(t, hs.h.Login, http.MethodPost, "/api/login",
		`{"email":"a@x.com","password":"secret1","remember":false}`, nil)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp loginResp
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.True(t, resp.Status)
	require.Equal(t, "Login successful", resp.Message)
	require.Equal(t, "u-1", resp.User.ID)
	require.Equal(t, "Asha", resp.User.Name)
	require.Equal(t, model.RoleAdmin, resp.User.Role)
	require.Equal(t, "a.png", resp.User.Photo)

	// both tokens must verify against their own secrets and carry the principal
	p, err := hs.tokens.Verify(resp.AccessToken, token.Access)
	require.NoError(t, err)
	require.Equal(t, token.Principal{UserID: "u-1", Role: model.RoleAdmin, Email: "a@x.com"}, p)
	p, err = hs.tokens.Verify(resp.RefreshToken, token.Refresh)
	require.NoError(t, err)
	require.Equal(t, "u-1", p.UserID)

	access := cookieByName(t, rec, middleware.AccessCookie)
	require.Equal(t, 900, access.MaxAge)
	require.True(t, access.HttpOnly)
	require.True(t, access.Secure)
	require.Equal(t, http.SameSiteStrictMode, access.SameSite)

	refresh := cookieByName(t, rec, RefreshCookie)
	require.Equal(t, 86400, refresh.MaxAge)

	require.Len(t, *hs.events, 1)
	require.Equal(t, queue.EventLoginSuccess, (*hs.events)[0].Type)
}

func TestLoginRememberExtendsCookies(t *testing.T) {
	hs := newHarness(t)
	rec := doJSON(t, hs.h.Login, http.MethodPost, "/api/login",
		`{"email":"a@x.com","password":"secret1","remember":true}`, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 604800, cookieByName(t, rec, middleware.AccessCookie).MaxAge)
	require.Equal(t, 2592000, cookieByName(t, rec, RefreshCookie).MaxAge)
}

func TestLoginUnknownEmailAndWrongPasswordLookAlike(t *testing.T) {
	hs := newHarness(t)

	unknown := doJSON(t, hs.h.Login, http.MethodPost, "/api/login",
		`{"email":"nobody@x.com","password":"secret1"}`, nil)
	wrongPw := doJSON(t, hs.h.Login, http.MethodPost, "/api/login",
		`{"email":"a@x.com","password":"wrong"}`, nil)

	require.Equal(t, http.StatusUnauthorized, unknown.Code)
	require.Equal(t, http.StatusUnauthorized, wrongPw.Code)
	// identical bodies: the endpoint must not reveal which part was wrong
	require.JSONEq(t, unknown.Body.String(), wrongPw.Body.String())

	// the audit trail keeps the distinction
	require.Len(t, *hs.events, 2)
	require.Equal(t, "unknown email", (*hs.events)[0].Reason)
	require.Equal(t, "wrong password", (*hs.events)[1].Reason)
}

func TestLoginUnverified(t *testing.T) {
	hs := newHarness(t)
	rec := doJSON(t, hs.h.Login, http.MethodPost, "/api/login",
		`{"email":"unverified@x.com","password":"secret1"}`, nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Contains(t, rec.Body.String(), "Email not verified")
}

func TestLoginDeactivated(t *testing.T) {
	hs := newHarness(t)
	rec := doJSON(t, hs.h.Login, http.MethodPost, "/api/login",
		`{"email":"inactive@x.com","password":"secret1"}`, nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Contains(t, rec.Body.String(), "deactivated")
}

func TestLoginValidation(t *testing.T) {
	hs := newHarness(t)
	for _, body := range []string{
		`{}`,
		`{"email":"a@x.com"}`,
		`{"password":"secret1"}`,
		`{"email":"not-an-email","password":"secret1"}`,
	} {
		rec := doJSON(t, hs.h.Login, http.MethodPost, "/api/login", body, nil)
		require.Equal(t, http.StatusBadRequest, rec.Code, "body=%s", body)
	}
	require.Empty(t, *hs.events, "validation failures never reach the audit trail")
}

// ----- refresh -----

func TestRefreshDowngradesLifetimes(t *testing.T) {
	hs := newHarness(t)
	// original session was remembered; the refreshed pair must not be
	pair, err := hs.tokens.IssuePair(token.Principal{UserID: "u-1", Role: model.RoleAdmin, Email: "a@x.com"}, true)
	require.NoError(t, err)

	rec := doJSON(t, hs.h.Refresh, http.MethodPost, "/api/refresh_token", "", func(r *http.Request) {
		r.AddCookie(&http.Cookie{Name: RefreshCookie, Value: pair.RefreshToken})
	})

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 900, cookieByName(t, rec, middleware.AccessCookie).MaxAge)
	require.Equal(t, 86400, cookieByName(t, rec, RefreshCookie).MaxAge)

	// the new access cookie verifies and still carries the same principal
	p, err := hs.tokens.Verify(cookieByName(t, rec, middleware.AccessCookie).Value, token.Access)
	require.NoError(t, err)
	require.Equal(t, "u-1", p.UserID)
}

func TestRefreshMissingCookie(t *testing.T) {
	hs := newHarness(t)
	rec := doJSON(t, hs.h.Refresh, http.MethodPost, "/api/refresh_token", "", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "token_missing")
}

func TestRefreshInvalidToken(t *testing.T) {
	hs := newHarness(t)
	rec := doJSON(t, hs.h.Refresh, http.MethodPost, "/api/refresh_token", "", func(r *http.Request) {
		r.AddCookie(&http.Cookie{Name: RefreshCookie, Value: "garbage"})
	})
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Contains(t, rec.Body.String(), "token_invalid")
}

func TestRefreshExpiredToken(t *testing.T) {
	hs := newHarness(t)

	now := time.Now().UTC()
	claims := &token.Claims{
		UserID: "u-1",
		Role:   string(model.RoleAdmin),
		Email:  "a@x.com",
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now.Add(-48 * time.Hour)),
			ExpiresAt: jwt.NewNumericDate(now.Add(-time.Hour)),
		},
	}
	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testRefreshSecret))
	require.NoError(t, err)

	rec := doJSON(t, hs.h.Refresh, http.MethodPost, "/api/refresh_token", "", func(r *http.Request) {
		r.AddCookie(&http.Cookie{Name: RefreshCookie, Value: expired})
	})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Contains(t, rec.Body.String(), "token_expired")
}

func TestRefreshRejectsAccessToken(t *testing.T) {
	hs := newHarness(t)
	access, _, err := hs.tokens.Issue(token.Principal{UserID: "u-1", Role: model.RoleAdmin, Email: "a@x.com"}, token.Access, false)
	require.NoError(t, err)

	rec := doJSON(t, hs.h.Refresh, http.MethodPost, "/api/refresh_token", "", func(r *http.Request) {
		r.AddCookie(&http.Cookie{Name: RefreshCookie, Value: access})
	})
	require.Equal(t, http.StatusForbidden, rec.Code)
}

// ----- logout -----

func TestLogoutClearsCookies(t *testing.T) {
	hs := newHarness(t)
	pair, err := hs.tokens.IssuePair(token.Principal{UserID: "u-1", Role: model.RoleAdmin, Email: "a@x.com"}, false)
	require.NoError(t, err)

	rec := doJSON(t, hs.h.Logout, http.MethodPost, "/api/logout", "", func(r *http.Request) {
		r.AddCookie(&http.Cookie{Name: RefreshCookie, Value: pair.RefreshToken})
	})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Less(t, cookieByName(t, rec, middleware.AccessCookie).MaxAge, 0)
	require.Less(t, cookieByName(t, rec, RefreshCookie).MaxAge, 0)
}

func TestLogoutWithoutCookie(t *testing.T) {
	hs := newHarness(t)
	rec := doJSON(t, hs.h.Logout, http.MethodPost, "/api/logout", "", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

// ----- machine credential flow -----

func TestGetAccessTokenSuccess(t *testing.T) {
	hs := newHarness(t)
	rec := doJSON(t, hs.h.GetAccessToken, http.MethodPost, "/api/access_token",
		`{"client_id":"c-1","client_secret":"client-secret"}`, nil)

	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Results accessTokenResp `json:"results"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "Bearer", body.Results.TokenType)
	require.Equal(t, 900, body.Results.ExpiresIn)

	p, err := hs.tokens.Verify(body.Results.AccessToken, token.Access)
	require.NoError(t, err)
	require.Equal(t, "u-1", p.UserID)
	require.Equal(t, "c-1", p.ClientID)

	// machine flow never opens a cookie session
	require.Empty(t, rec.Result().Cookies())
}

func TestGetAccessTokenUnknownClient(t *testing.T) {
	hs := newHarness(t)
	rec := doJSON(t, hs.h.GetAccessToken, http.MethodPost, "/api/access_token",
		`{"client_id":"nope","client_secret":"client-secret"}`, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetAccessTokenInactiveAssociate(t *testing.T) {
	hs := newHarness(t)
	// correct secret but the delegated account is deactivated
	rec := doJSON(t, hs.h.GetAccessToken, http.MethodPost, "/api/access_token",
		`{"client_id":"c-2","client_secret":"client-secret"}`, nil)
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Contains(t, rec.Body.String(), "Associated user is inactive")
}

func TestGetAccessTokenDeletedAssociate(t *testing.T) {
	hs := newHarness(t)
	rec := doJSON(t, hs.h.GetAccessToken, http.MethodPost, "/api/access_token",
		`{"client_id":"c-3","client_secret":"client-secret"}`, nil)
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestGetAccessTokenWrongSecret(t *testing.T) {
	hs := newHarness(t)
	rec := doJSON(t, hs.h.GetAccessToken, http.MethodPost, "/api/access_token",
		`{"client_id":"c-1","client_secret":"wrong"}`, nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Contains(t, rec.Body.String(), "Invalid client credentials")
}

func TestGetAccessTokenValidation(t *testing.T) {
	hs := newHarness(t)
	rec := doJSON(t, hs.h.GetAccessToken, http.MethodPost, "/api/access_token",
		`{"client_id":"","client_secret":""}`, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

// ----- client registration -----

func TestCreateClientSuccess(t *testing.T) {
	hs := newHarness(t)
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/client",
		strings.NewReader(`{"name":"etl","secret":"secret6","associate_user_id":"u-1"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set(middleware.PrincipalKey, token.Principal{UserID: "u-1", Role: model.RoleSuperAdmin, Email: "a@x.com"})

	require.NoError(t, hs.h.CreateClient(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	created, ok := hs.clients.byID["client-etl"]
	require.True(t, ok)
	require.Equal(t, "u-1", created.AssociateUserID)
	require.True(t, utils.VerifySecret(created.SecretHash, "secret6"))
	require.Equal(t, "u-1", created.CreatedBy.String)
}

func TestCreateClientDuplicateName(t *testing.T) {
	hs := newHarness(t)
	rec := doJSON(t, hs.h.CreateClient, http.MethodPost, "/api/client",
		`{"name":"Reporting","secret":"secret6","associate_user_id":"u-1"}`, nil)
	require.Equal(t, http.StatusConflict, rec.Code)
}

func TestCreateClientAssociateMissing(t *testing.T) {
	hs := newHarness(t)
	rec := doJSON(t, hs.h.CreateClient, http.MethodPost, "/api/client",
		`{"name":"etl","secret":"secret6","associate_user_id":"gone"}`, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateClientAssociateInactive(t *testing.T) {
	hs := newHarness(t)
	rec := doJSON(t, hs.h.CreateClient, http.MethodPost, "/api/client",
		`{"name":"etl","secret":"secret6","associate_user_id":"u-3"}`, nil)
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestCreateClientShortSecret(t *testing.T) {
	hs := newHarness(t)
	rec := doJSON(t, hs.h.CreateClient, http.MethodPost, "/api/client",
		`{"name":"etl","secret":"abc","associate_user_id":"u-1"}`, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}
