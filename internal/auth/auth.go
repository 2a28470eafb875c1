// Package auth identifica quem está chamando a API a partir do token Bearer.
// A emissão do token fica com o provedor de identidade; aqui só verificamos.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

type Role string

const (
	RoleNutritionist Role = "nutritionist"
	RolePatient      Role = "patient"
)

// Identity é o usuário já autenticado.
type Identity struct {
	ID   string
	Role Role
}

var ErrInvalidToken = errors.New("token inválido")

type ctxKey struct{}

// WithIdentity guarda a identidade no contexto.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// FromContext devolve a identidade guardada por Middleware.
func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(ctxKey{}).(Identity)
	return id, ok
}

type claims struct {
	Role Role `json:"role"`
	jwt.RegisteredClaims
}

// Verifier valida tokens HS256 assinados com o segredo compartilhado.
type Verifier struct {
	secret []byte
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

// Verify confere assinatura, validade e papel do token.
func (v *Verifier) Verify(token string) (Identity, error) {
	var c claims
	_, err := jwt.ParseWithClaims(token, &c, func(t *jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return Identity{}, ErrInvalidToken
	}
	if c.Subject == "" || (c.Role != RoleNutritionist && c.Role != RolePatient) {
		return Identity{}, ErrInvalidToken
	}
	return Identity{ID: c.Subject, Role: c.Role}, nil
}

// Issue assina um token para a identidade. Usado por ferramentas e testes;
// em produção quem emite é o provedor de identidade.
func (v *Verifier) Issue(id Identity, claimsFn ...func(*jwt.RegisteredClaims)) (string, error) {
	c := claims{Role: id.Role, RegisteredClaims: jwt.RegisteredClaims{Subject: id.ID}}
	for _, fn := range claimsFn {
		fn(&c.RegisteredClaims)
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(v.secret)
}

// Middleware exige um token Bearer válido e coloca a identidade no contexto.
func (v *Verifier) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			unauthorized(w, "cabeçalho Authorization obrigatório")
			return
		}
		id, err := v.Verify(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			unauthorized(w, err.Error())
			return
		}
		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
	})
}

func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
