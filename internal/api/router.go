package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/promptforge/promptforge/internal/api/handlers"
	"github.com/promptforge/promptforge/internal/api/middleware"
	"github.com/promptforge/promptforge/internal/audit"
	"github.com/promptforge/promptforge/internal/auth"
	"github.com/promptforge/promptforge/internal/config"
	"github.com/promptforge/promptforge/internal/llm"
	"github.com/promptforge/promptforge/internal/prompt"
	"github.com/promptforge/promptforge/internal/queue"
	"github.com/promptforge/promptforge/internal/secrets"
	"github.com/promptforge/promptforge/internal/vectordb"
	"github.com/promptforge/promptforge/internal/version"
)

type Router struct {
	mux   *chi.Mux
	db    *pgxpool.Pool
	redis *redis.Client
	cfg   *config.Config
	codec *secrets.Codec
	jwt   *auth.JWTMiddleware
	llmGW llm.Gateway
}

func NewRouter(db *pgxpool.Pool, rdb *redis.Client, cfg *config.Config, codec *secrets.Codec) *Router {
	users := auth.NewService(db)
	return &Router{
		mux:   chi.NewRouter(),
		db:    db,
		redis: rdb,
		cfg:   cfg,
		codec: codec,
		jwt:   auth.NewJWTMiddleware(cfg.Auth.JWTSecret, users),
		llmGW: llm.NewGateway(cfg.LLM),
	}
}

func (rt *Router) Setup() http.Handler {
	r := rt.mux

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS([]string{"*"}))

	rl := middleware.NewRateLimiter(100, 200)
	r.Use(rl.Limit)

	// Unauthenticated operational endpoints
	health := handlers.NewHealthHandler(rt.db, rt.redis)
	r.Get("/healthz", health.Healthz)
	r.Get("/readyz", health.Readyz)
	r.Handle("/metrics", promhttp.Handler())

	// Services
	promptSvc := prompt.NewService(rt.db)
	versionStore := version.NewStore(rt.db)
	auditSvc := audit.NewService(rt.db)
	queueClient := queue.NewClient(rt.cfg.Redis)
	vectorSvc := vectordb.NewService(rt.db, rt.codec)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(rt.jwt.Authenticate)

		promptH := handlers.NewPromptHandler(promptSvc, versionStore, rt.llmGW, auditSvc, queueClient)
		r.Route("/prompts", func(r chi.Router) {
			r.Post("/", promptH.Create)
			r.Get("/", promptH.List)
			r.Get("/{id}", promptH.Get)
			r.Put("/{id}", promptH.Update)
			r.Delete("/{id}", promptH.Delete)
			r.Post("/{id}/restore", promptH.Restore)
			r.Post("/{id}/run", promptH.Run)
		})

		versionH := handlers.NewVersionHandler(versionStore, promptSvc, queueClient)
		r.Route("/versions", func(r chi.Router) {
			r.Post("/", versionH.Save)
			r.Get("/", versionH.List)
		})

		databaseH := handlers.NewDatabaseHandler(vectorSvc, auditSvc, queueClient)
		r.Route("/databases", func(r chi.Router) {
			r.Post("/", databaseH.Create)
			r.Get("/", databaseH.List)
			r.Delete("/", databaseH.Delete)
		})

		catalogH := handlers.NewCatalogHandler(rt.llmGW)
		r.Get("/models", catalogH.Models)
	})

	return r
}
