package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"walletapi/internal/config"
	"walletapi/internal/db"
	"walletapi/internal/handlers"
	"walletapi/internal/paystack"
	"walletapi/internal/services"
	"walletapi/internal/store"
	"walletapi/internal/websocket"

	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file loaded: %v", err)
	}
	cfg := config.Load()
	database, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}
	defer database.Close()

	users := store.NewUserStore(database)
	wallets := store.NewWalletStore(database)
	transactions := store.NewTransactionStore(database)
	apiKeys := store.NewAPIKeyStore(database)
	txRunner := db.NewTxRunner(database)
	hub := websocket.NewHub()
	gateway := paystack.NewClient(cfg.PaystackBaseURL, cfg.PaystackSecretKey)

	authService := services.NewAuthService(txRunner, users, wallets, cfg.JWTSecret, cfg.TokenTTL)
	walletService := services.NewWalletService(txRunner, wallets, transactions, hub)
	depositService := services.NewDepositService(txRunner, wallets, transactions, gateway, hub, cfg.MinDepositMinor)
	apiKeyService := services.NewAPIKeyService(apiKeys)

	handler := handlers.New(cfg, authService, walletService, depositService, apiKeyService, hub)
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler.Routes(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("wallet API listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)
	<-shutdown

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("shutdown error: %v", err)
	}
}
