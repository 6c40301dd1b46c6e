package http

import (
	"log/slog"
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"

	"lumebackend/internal/delivery/http/controllers"
	"lumebackend/internal/delivery/http/middleware"
	"lumebackend/internal/domain"
)

// NewRouter initializes the HTTP router with all application routes
func NewRouter(matchingController *controllers.MatchingController, verifier domain.TokenVerifier, logger *slog.Logger) *http.ServeMux {
	mux := http.NewServeMux()
	auth := middleware.RequireAuth(verifier, logger)

	// Matching API
	mux.HandleFunc("GET /api/matching/person", auth(matchingController.RandomPerson))
	mux.HandleFunc("GET /api/matching/event", auth(matchingController.RandomEvent))
	mux.HandleFunc("POST /api/matching/event/swipe", auth(matchingController.SwipeEvent))

	// Liveness
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	// Swagger
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	return mux
}
