package auth

import (
	"fmt"
	"net/http"
	"strings"

	"unipark/internal/db"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/mux"
)

// Middleware validates the Bearer token and injects the Actor into the
// request context. Downstream handlers can rely on ActorFromContext.
func Middleware(secret string) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			actor, err := ParseToken(strings.TrimPrefix(header, "Bearer "), secret)
			if err != nil {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), actor)))
		})
	}
}

// RequireRole rejects requests whose actor does not hold one of the given
// roles. Admin passes staff checks.
func RequireRole(roles ...db.Role) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, ok := ActorFromContext(r.Context())
			if !ok {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			for _, role := range roles {
				if actor.Role == role || (role == db.RoleStaff && actor.IsStaff()) {
					next.ServeHTTP(w, r)
					return
				}
			}
			http.Error(w, "Forbidden", http.StatusForbidden)
		})
	}
}

// ParseToken verifies an HS256 token and extracts the actor claims.
func ParseToken(raw, secret string) (Actor, error) {
	token, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return Actor{}, fmt.Errorf("invalid token: %w", err)
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return Actor{}, fmt.Errorf("unexpected claims type")
	}
	userID, ok := claims["user_id"].(float64)
	if !ok {
		return Actor{}, fmt.Errorf("missing user_id claim")
	}
	role, ok := claims["role"].(string)
	if !ok {
		return Actor{}, fmt.Errorf("missing role claim")
	}
	return Actor{UserID: int(userID), Role: db.Role(role)}, nil
}
