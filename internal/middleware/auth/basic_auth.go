package auth

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"mebel-mes/internal/identity"
)

const HeaderUser = "X-User"

// BasicAuth закрывает админские маршруты; логин попадает в контекст как автор событий
func BasicAuth(username, password string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, pass, ok := r.BasicAuth()
			if !ok {
				requireAuth(w)
				return
			}

			if subtle.ConstantTimeCompare([]byte(user), []byte(username)) != 1 ||
				subtle.ConstantTimeCompare([]byte(pass), []byte(password)) != 1 {
				requireAuth(w)
				return
			}

			next.ServeHTTP(w, r.WithContext(identity.WithActor(r.Context(), user)))
		})
	}
}

// Actor берёт мастера/оператора из X-User. Заголовок не проверяется, это подпись в журнале.
func Actor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := strings.TrimSpace(r.Header.Get(HeaderUser))
		if user == "" {
			next.ServeHTTP(w, r)
			return
		}

		next.ServeHTTP(w, r.WithContext(identity.WithActor(r.Context(), user)))
	})
}

func requireAuth(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", `Basic realm="MES Admin"`)
	http.Error(w, "Unauthorized", http.StatusUnauthorized)
}
