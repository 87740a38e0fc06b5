package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"Taskflow/internal/auth"
	dom "Taskflow/internal/domain"
	"Taskflow/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memUsers struct {
	users []dom.User
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (dom.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return dom.User{}, pgx.ErrNoRows
}

func (m *memUsers) GetByID(_ context.Context, id int64) (dom.User, error) {
	for _, u := range m.users {
		if u.ID == id {
			return u, nil
		}
	}
	return dom.User{}, pgx.ErrNoRows
}

func (m *memUsers) Create(_ context.Context, email, hash string) (dom.User, error) {
	if _, err := m.GetByEmail(context.Background(), email); err == nil {
		return dom.User{}, &pgconn.PgError{Code: "23505"}
	}
	u := dom.User{ID: int64(len(m.users) + 1), Email: email, PasswordHash: hash, CreatedAt: time.Now()}
	m.users = append(m.users, u)
	return u, nil
}

type memSessions struct {
	byID map[string]int64
}

func (s *memSessions) Create(_ context.Context, userID int64) (string, error) {
	id := "sess-" + string(rune('a'+len(s.byID)))
	s.byID[id] = userID
	return id, nil
}

func (s *memSessions) Delete(_ context.Context, id string) error {
	delete(s.byID, id)
	return nil
}

func (s *memSessions) GetUserID(_ context.Context, id string) (int64, bool) {
	uid, ok := s.byID[id]
	return uid, ok
}

func newAuthRouter() (*gin.Engine, *memSessions) {
	sessions := &memSessions{byID: map[string]int64{}}
	h := NewAuthHandler(sessions, service.NewUserService(&memUsers{}), 3600)

	r := gin.New()
	r.POST("/auth/register", h.Register)
	r.POST("/auth/login", h.Login)
	r.POST("/auth/logout", h.Logout)
	r.GET("/auth/me", auth.RequireSession(sessions), h.Me)
	return r, sessions
}

func sessionCookie(t *testing.T, w *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range w.Result().Cookies() {
		if c.Name == auth.SessionCookieName {
			return c
		}
	}
	t.Fatalf("no %s cookie in response", auth.SessionCookieName)
	return nil
}

func withCookie(r http.Handler, method, path string, c *http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	req.AddCookie(c)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthHandler_RegisterLoginLogout(t *testing.T) {
	r, sessions := newAuthRouter()

	w := do(r, http.MethodPost, "/auth/register", gin.H{"email": "ada@example.com", "password": "secret"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	cookie := sessionCookie(t, w)
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, 3600, cookie.MaxAge)

	w = do(r, http.MethodPost, "/auth/login", gin.H{"email": "ADA@example.com", "password": "secret"})
	require.Equal(t, http.StatusOK, w.Code)
	cookie = sessionCookie(t, w)

	w = withCookie(r, http.MethodGet, "/auth/me", cookie)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), "ada@example.com"))

	w = withCookie(r, http.MethodPost, "/auth/logout", cookie)
	assert.Equal(t, http.StatusNoContent, w.Code)
	_, ok := sessions.byID[cookie.Value]
	assert.False(t, ok)

	w = withCookie(r, http.MethodGet, "/auth/me", cookie)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthHandler_LoginFailures(t *testing.T) {
	r, _ := newAuthRouter()
	w := do(r, http.MethodPost, "/auth/register", gin.H{"email": "ada@example.com", "password": "secret"})
	require.Equal(t, http.StatusCreated, w.Code)

	w = do(r, http.MethodPost, "/auth/login", gin.H{"email": "ada@example.com", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(r, http.MethodPost, "/auth/login", gin.H{"email": "ada@example.com"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAuthHandler_RegisterFailures(t *testing.T) {
	r, _ := newAuthRouter()
	w := do(r, http.MethodPost, "/auth/register", gin.H{"email": "ada@example.com", "password": "secret"})
	require.Equal(t, http.StatusCreated, w.Code)

	w = do(r, http.MethodPost, "/auth/register", gin.H{"email": "ada@example.com", "password": "again"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(r, http.MethodPost, "/auth/register", gin.H{"email": "not-an-email", "password": "x"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
