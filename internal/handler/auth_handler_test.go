package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignUpAndMeWithBearerToken(t *testing.T) {
	srv := newTestServer(t, nil)

	token, id := srv.signUp(t, "Ada Lovelace", "ada@example.com")

	w := srv.do(t, http.MethodGet, "/auth/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		User map[string]any `json:"user"`
	}
	decode(t, w, &resp)
	assert.Equal(t, id, resp.User["id"])
	assert.Equal(t, "ada_lovelace", resp.User["username"])
	assert.Equal(t, "2024-05-10", resp.User["join_date"])
	assert.Contains(t, resp.User, "bio_html")
}

func TestMeRequiresIdentity(t *testing.T) {
	srv := newTestServer(t, nil)

	w := srv.do(t, http.MethodGet, "/auth/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, codeUnauthorized, errorCode(t, w))

	w = srv.do(t, http.MethodGet, "/auth/me", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSignUpConflictAndValidation(t *testing.T) {
	srv := newTestServer(t, nil)
	srv.signUp(t, "Kai", "kai@example.com")

	w := srv.do(t, http.MethodPost, "/auth/signup", "", gin.H{"name": "Kai Two", "email": "KAI@example.com", "password": "secret1"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, codeConflict, errorCode(t, w))

	w = srv.do(t, http.MethodPost, "/auth/signup", "", gin.H{"name": "Short", "email": "short@example.com", "password": "123"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, codeInvalidInput, errorCode(t, w))

	req := httptest.NewRequest(http.MethodPost, "/auth/signup", nil)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.engine.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSignInFailures(t *testing.T) {
	srv := newTestServer(t, nil)
	srv.signUp(t, "Kai", "kai@example.com")

	w := srv.do(t, http.MethodPost, "/auth/signin", "", gin.H{"email": "kai@example.com", "password": "wrong-pass"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	var resp struct {
		Error string `json:"error"`
	}
	decode(t, w, &resp)
	assert.Equal(t, "Invalid email or password", resp.Error)
}

func TestSessionCookieFallbackAndSignOut(t *testing.T) {
	srv := newTestServer(t, nil)
	srv.signUp(t, "Kai", "kai@example.com")

	w := srv.do(t, http.MethodPost, "/auth/signin", "", gin.H{"email": "kai@example.com", "password": "secret1"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	cookies := w.Result().Cookies()
	require.NotEmpty(t, cookies)

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	srv.engine.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	req = httptest.NewRequest(http.MethodPost, "/auth/signout", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec = httptest.NewRecorder()
	srv.engine.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	cleared := rec.Result().Cookies()
	require.NotEmpty(t, cleared)

	req = httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	for _, c := range cleared {
		req.AddCookie(c)
	}
	rec = httptest.NewRecorder()
	srv.engine.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
