package http

import (
	"net/http"
	"time"

	httpmw "github.com/loopchat/chat-service/internal/transport/http/middleware"
	"github.com/loopchat/chat-service/internal/transport/ws"

	"github.com/go-chi/chi/v5"
	middlewareChi "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

func NewRouter(h *Handler, wsServer *ws.Server, jwtSecret string) http.Handler {
	r := chi.NewRouter()
	r.Use(middlewareChi.RequestID)
	r.Use(middlewareChi.RealIP)
	r.Use(middlewareChi.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// WS endpoint authenticates itself via access_token query param
	r.Get("/ws", wsServer.HandleWS)

	r.Group(func(pr chi.Router) {
		pr.Use(httpmw.AuthMiddleware(jwtSecret))
		pr.Use(middlewareChi.Timeout(30 * time.Second))

		pr.Route("/chats", func(cr chi.Router) {
			cr.Get("/", h.ListChats)
			cr.Post("/direct", h.CreateDirectChat)
			cr.Post("/group", h.CreateGroupChat)

			cr.Route("/{id}", func(ir chi.Router) {
				ir.Get("/", h.GetChat)
				ir.Put("/", h.UpdateGroupChat)
				ir.Post("/read", h.MarkRead)
				ir.Get("/participants", h.GetParticipants)
				ir.Get("/messages", h.ListMessages)
				ir.Post("/messages", h.SendMessage)
			})
		})

		pr.Get("/contacts", h.ListContacts)

		pr.Route("/users", func(ur chi.Router) {
			ur.Get("/", h.ListUsers)
			ur.Get("/{id}", h.GetUser)
		})
	})

	// health
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	return r
}
