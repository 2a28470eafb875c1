package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerifier_Middleware(t *testing.T) {
	v := NewVerifier("segredo-de-teste")

	var got Identity
	protected := v.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = FromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	t.Run("sucesso - token válido", func(t *testing.T) {
		token, err := v.Issue(Identity{ID: "nutri-1", Role: RoleNutritionist})
		require.NoError(t, err)

		req := httptest.NewRequest("GET", "/plans", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rr := httptest.NewRecorder()
		protected.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, Identity{ID: "nutri-1", Role: RoleNutritionist}, got)
	})

	t.Run("erro - sem cabeçalho", func(t *testing.T) {
		rr := httptest.NewRecorder()
		protected.ServeHTTP(rr, httptest.NewRequest("GET", "/plans", nil))
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("erro - assinado com outro segredo", func(t *testing.T) {
		token, err := NewVerifier("outro").Issue(Identity{ID: "nutri-1", Role: RoleNutritionist})
		require.NoError(t, err)

		req := httptest.NewRequest("GET", "/plans", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rr := httptest.NewRecorder()
		protected.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("erro - token expirado", func(t *testing.T) {
		token, err := v.Issue(Identity{ID: "pac-1", Role: RolePatient}, func(c *jwt.RegisteredClaims) {
			c.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))
		})
		require.NoError(t, err)

		req := httptest.NewRequest("GET", "/plans", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rr := httptest.NewRecorder()
		protected.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}

func TestVerifier_RejectsUnknownRole(t *testing.T) {
	v := NewVerifier("segredo")
	token, err := v.Issue(Identity{ID: "x", Role: "admin"})
	require.NoError(t, err)

	_, err = v.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
