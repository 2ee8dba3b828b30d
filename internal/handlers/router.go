package handlers

import (
	"net/http"

	"walletapi/internal/config"
	"walletapi/internal/middleware"
	"walletapi/internal/websocket"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

type Handler struct {
	cfg      config.Config
	auth     AuthService
	wallets  WalletService
	deposits DepositService
	apiKeys  APIKeyService
	hub      *websocket.Hub
}

func New(cfg config.Config, auth AuthService, wallets WalletService, deposits DepositService, apiKeys APIKeyService, hub *websocket.Hub) *Handler {
	return &Handler{
		cfg:      cfg,
		auth:     auth,
		wallets:  wallets,
		deposits: deposits,
		apiKeys:  apiKeys,
		hub:      hub,
	}
}

func (h *Handler) Routes() http.Handler {
	router := chi.NewRouter()
	router.Use(chimiddleware.Logger)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{h.cfg.AllowedOrigins},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-API-Key"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	authn := middleware.Auth(h.cfg.JWTSecret, h.apiKeys)

	router.Route("/auth", func(r chi.Router) {
		r.Post("/session", h.CreateSession)
		r.With(authn).Get("/me", h.Me)
	})

	router.Route("/wallet", func(r chi.Router) {
		// The webhook authenticates by signature, not by principal.
		r.Post("/paystack/webhook", h.PaystackWebhook)

		r.Group(func(r chi.Router) {
			r.Use(authn)
			r.With(middleware.RequirePermission("read")).Get("/balance", h.GetBalance)
			r.With(middleware.RequirePermission("read")).Get("/transactions", h.ListTransactions)
			r.With(middleware.RequirePermission("read")).Get("/deposit/{reference}/status", h.GetDepositStatus)
			r.With(middleware.RequirePermission("deposit")).Post("/deposit", h.InitiateDeposit)
			r.With(middleware.RequirePermission("transfer")).Post("/transfer", h.Transfer)
		})
	})

	router.Route("/api-keys", func(r chi.Router) {
		r.Use(authn)
		r.Use(middleware.RequireSession)
		r.Post("/", h.CreateAPIKey)
		r.Get("/", h.ListAPIKeys)
		r.Delete("/{id}", h.RevokeAPIKey)
		r.Post("/rollover", h.RolloverAPIKey)
	})

	router.Get("/ws/balances", h.WSBalances)

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	return router
}
