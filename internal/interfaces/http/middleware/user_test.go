package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func echoUser() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(ContextGetUserID(r.Context())))
	})
}

func TestUserMiddleware_StoresUserID(t *testing.T) {
	h := NewUserMiddleware(DefaultUserConfig(), nil)(echoUser())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-User-ID", " alice@example.com ")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "alice@example.com", rec.Body.String())
}

func TestUserMiddleware_AnonymousAllowed(t *testing.T) {
	h := NewUserMiddleware(DefaultUserConfig(), nil)(echoUser())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Body.String())
}

func TestUserMiddleware_Required(t *testing.T) {
	h := NewUserMiddleware(UserConfig{Required: true}, nil)(echoUser())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), `"code":"COMMON_002"`)
}

func TestUserMiddleware_RejectsMalformedID(t *testing.T) {
	h := NewUserMiddleware(DefaultUserConfig(), nil)(echoUser())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-User-ID", "bob smith")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

//Personal.AI order the ending
