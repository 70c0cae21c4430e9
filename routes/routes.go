package routes

import (
	_ "embed"
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/aidosk/tournament-manager/handlers"
)

//go:embed openapi.json
var openapiSpec []byte

// SetupRoutes wires every HTTP endpoint onto the router.
func SetupRoutes(
	router *chi.Mux,
	tournamentHandler *handlers.TournamentHandler,
	gameHandler *handlers.GameHandler,
	playerHandler *handlers.PlayerHandler,
	teamHandler *handlers.TeamHandler,
	webSocketHandler *handlers.WebSocketHandler,
) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	router.Get("/swagger/doc.json", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write(openapiSpec)
	})
	router.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	router.Route("/tournaments", func(r chi.Router) {
		r.Get("/", tournamentHandler.ListHandler)
		r.Post("/", tournamentHandler.CreateHandler)

		r.Route("/{tournamentID}", func(r chi.Router) {
			r.Get("/", tournamentHandler.GetByIDHandler)
			r.Put("/", tournamentHandler.UpdateDetailsHandler)
			r.Delete("/", tournamentHandler.DeleteHandler)

			r.Post("/start", tournamentHandler.StartHandler)
			r.Post("/advance-round", tournamentHandler.AdvanceRoundHandler)
			r.Post("/complete", tournamentHandler.CompleteHandler)
			r.Post("/cancel", tournamentHandler.CancelHandler)

			r.Get("/stats", tournamentHandler.StatsHandler)

			r.Post("/logo", tournamentHandler.UploadLogoHandler)
			r.Delete("/logo", tournamentHandler.RemoveLogoHandler)

			r.Route("/players", func(r chi.Router) {
				r.Get("/", tournamentHandler.ListPlayersHandler)
				r.Post("/", tournamentHandler.RegisterPlayerHandler)
				r.Delete("/{playerID}", tournamentHandler.UnregisterPlayerHandler)
			})

			r.Route("/games", func(r chi.Router) {
				r.Get("/", gameHandler.ListHandler)
				r.Post("/", gameHandler.CreateHandler)
				r.Get("/{gameID}", gameHandler.GetByIDHandler)
				r.Delete("/{gameID}", gameHandler.DeleteHandler)
				r.Put("/{gameID}/score", gameHandler.RecordScoreHandler)
			})
		})
	})

	router.Route("/players", func(r chi.Router) {
		r.Get("/", playerHandler.ListHandler)
		r.Post("/", playerHandler.CreateHandler)
		r.Get("/{playerID}", playerHandler.GetByIDHandler)
		r.Put("/{playerID}", playerHandler.UpdateHandler)
		r.Delete("/{playerID}", playerHandler.DeleteHandler)
	})

	router.Route("/teams", func(r chi.Router) {
		r.Get("/", teamHandler.ListHandler)
		r.Post("/", teamHandler.CreateHandler)
		r.Get("/{teamID}", teamHandler.GetByIDHandler)
		r.Put("/{teamID}", teamHandler.UpdateHandler)
		r.Delete("/{teamID}", teamHandler.DeleteHandler)
		r.Post("/{teamID}/logo", teamHandler.UploadLogoHandler)
		r.Delete("/{teamID}/logo", teamHandler.RemoveLogoHandler)
	})

	router.Get("/ws/tournaments/{tournamentID}", webSocketHandler.ServeWs)
}
