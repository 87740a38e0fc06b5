package app

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"Taskflow/internal/config"
	"Taskflow/internal/service"
	"Taskflow/internal/store"
	"Taskflow/internal/store/memstore"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sickStore is a store whose backend reports itself down.
type sickStore struct {
	store.Store
}

func (sickStore) Health(context.Context) error {
	return errors.New("change listener reconnecting")
}

func newTestRouter(t *testing.T) *gin.Engine {
	return newTestRouterWith(t, memstore.New())
}

func newTestRouterWith(t *testing.T, s store.Store) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	tasks := service.NewTaskService(s, nil)
	require.NoError(t, tasks.Start(context.Background()))
	t.Cleanup(tasks.Close)

	cfg := config.Config{
		App:   config.AppConfig{Env: "test", Version: "1.2.3"},
		Store: config.StoreConfig{Driver: config.StoreMemory},
	}
	r := gin.New()
	Setup(r, cfg, Deps{Tasks: tasks})
	return r
}

func get(r http.Handler, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestSetup_PublicRoutes(t *testing.T) {
	r := newTestRouter(t)

	w := get(r, "/health")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"ok":true,"env":"test","store":"memory"}`, w.Body.String())

	w = get(r, "/version")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"version":"1.2.3"}`, w.Body.String())

	w = get(r, "/swagger-doc.json")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "/tasks/{id}/toggle")
}

func TestSetup_TaskRoutesRequireSession(t *testing.T) {
	r := newTestRouter(t)

	for _, path := range []string{"/api/v1/tasks", "/api/v1/history", "/api/v1/auth/me"} {
		w := get(r, path)
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
	}
}

func TestSetup_HealthReportsStoreDown(t *testing.T) {
	r := newTestRouterWith(t, sickStore{Store: memstore.New()})

	w := get(r, "/health")

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), `"ok":false`)
	assert.Contains(t, w.Body.String(), "change listener reconnecting")
}
