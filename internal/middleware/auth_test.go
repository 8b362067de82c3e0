package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func roleRequest(role string) *http.Request {
	req := httptest.NewRequest("POST", "/api/estagios", nil)
	if role == "" {
		return req
	}
	ctx := context.WithValue(req.Context(), RoleKey, role)
	return req.WithContext(ctx)
}

func TestRequireRole(t *testing.T) {
	m := &AuthMiddleware{}
	called := false
	gate := m.RequireRole("admin")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusNoContent)
	}))

	// Admin passes through
	rec := httptest.NewRecorder()
	gate.ServeHTTP(rec, roleRequest("admin"))
	assert.True(t, called)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	// Operators are rejected
	called = false
	rec = httptest.NewRecorder()
	gate.ServeHTTP(rec, roleRequest("operador"))
	assert.False(t, called)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// No role in context at all
	rec = httptest.NewRecorder()
	gate.ServeHTTP(rec, roleRequest(""))
	assert.False(t, called)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireRoleMultipleAllowed(t *testing.T) {
	m := &AuthMiddleware{}
	gate := m.RequireRole("admin", "supervisor")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	rec := httptest.NewRecorder()
	gate.ServeHTTP(rec, roleRequest("supervisor"))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}
