package main

import (
	"net/http"
	"os"
	"time"

	"health-record-access/internal/adapters/auth/idp"
	"health-record-access/internal/platform/logger"
	"health-record-access/internal/ports/auth"
	"health-record-access/internal/router"

	"github.com/joho/godotenv"
)

func main() {
	// .env es opcional (dev); en prod las vars vienen del entorno.
	_ = godotenv.Load()

	log := logger.NewFromEnv()

	addr := ":8080"
	if v := os.Getenv("PORT"); v != "" {
		addr = ":" + v
	}

	// Sin IDP_BASE_URL corre en modo dev: identidad vía X-Debug-Professional-ID.
	var verifier auth.AuthVerifier
	if baseURL := os.Getenv("IDP_BASE_URL"); baseURL != "" {
		client, err := idp.NewClient(idp.Config{
			BaseURL: baseURL,
			APIKey:  os.Getenv("IDP_API_KEY"),
		}, log)
		if err != nil {
			log.Error("idp client init failed", map[string]any{"err": err.Error()})
			os.Exit(1)
		}
		verifier = idp.NewVerifier(client)
	}

	r := router.NewRouter(router.Options{
		AuthVerifier: verifier,
		Log:          log,
	})

	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	log.Info("starting server", map[string]any{"addr": addr})
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", map[string]any{"err": err.Error()})
		os.Exit(1)
	}
}
