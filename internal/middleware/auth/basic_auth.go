package auth

import (
	"context"
	"crypto/subtle"
	"net/http"
)

type ctxKey struct{}

// BasicAuth пропускает запрос, если логин и пароль есть в users,
// и кладет логин в контекст запроса.
func BasicAuth(realm string, users map[string]string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			username, password, ok := r.BasicAuth()
			if !ok {
				requireAuth(w, realm)
				return
			}

			expected, known := users[username]
			if !known || subtle.ConstantTimeCompare([]byte(password), []byte(expected)) != 1 {
				requireAuth(w, realm)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), username)))
		})
	}
}

func WithUser(ctx context.Context, username string) context.Context {
	return context.WithValue(ctx, ctxKey{}, username)
}

// User возвращает логин, проверенный BasicAuth.
func User(ctx context.Context) (string, bool) {
	username, ok := ctx.Value(ctxKey{}).(string)
	return username, ok && username != ""
}

func requireAuth(w http.ResponseWriter, realm string) {
	w.Header().Set("WWW-Authenticate", `Basic realm="`+realm+`"`)
	http.Error(w, "Unauthorized", http.StatusUnauthorized)
}
