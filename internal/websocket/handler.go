package websocket

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/DevPardx/raiz-backend-sub000/internal/apperr"
	"github.com/DevPardx/raiz-backend-sub000/internal/middleware"
	"github.com/DevPardx/raiz-backend-sub000/internal/utils"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	// Клиенты – Telegram Mini App и мобильные приложения с разными origin
	CheckOrigin: func(r *http.Request) bool { return true },
}

// NewRouter создаёт HTTP роутер для WebSocket сервера
func NewRouter(gateway *Gateway, jwtService *utils.JWTService) http.Handler {
	r := chi.NewRouter()

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/ws", ServeWS(gateway, jwtService))

	return r
}

// ServeWS аутентифицирует пользователя по JWT и переводит соединение в WebSocket.
// Токен передаётся параметром token или заголовком Authorization.
func ServeWS(gateway *Gateway, jwtService *utils.JWTService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		lang := r.Header.Get("Accept-Language")

		token := r.URL.Query().Get("token")
		if token == "" {
			token, _ = middleware.BearerToken(r.Header.Get("Authorization"))
		}
		if token == "" {
			writeError(w, gateway, lang, apperr.KeyUnauthorized)
			return
		}

		identity, err := jwtService.ExtractIdentity(token)
		if err != nil {
			writeError(w, gateway, lang, apperr.KeyInvalidToken)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			// Upgrade уже ответил клиенту
			gateway.log.WithError(err).Debug("Ошибка перехода на WebSocket")
			return
		}

		gateway.Serve(NewClient(identity.UserID, lang, conn))
	}
}

func writeError(w http.ResponseWriter, gateway *Gateway, lang, key string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error": gateway.translator.T(lang, key),
		"code":  key,
	})
}
