package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/marketly/marketly-backend/api/responses"
	"github.com/marketly/marketly-backend/pkg/config"
)

// Pinger is satisfied by the database and redis clients.
type Pinger interface {
	Ping(ctx context.Context) error
}

func Health(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, map[string]any{
			"status":    "ok",
			"env":       cfg.App.Env,
			"timestamp": time.Now().UTC(),
		})
	}
}

// DBStatus reports connectivity of the database and, when configured, redis.
// A database failure answers 503.
func DBStatus(database Pinger, cache Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		status := http.StatusOK
		payload := map[string]string{"database": "connected"}
		if database == nil || database.Ping(ctx) != nil {
			status = http.StatusServiceUnavailable
			payload["database"] = "disconnected"
		}
		if cache != nil {
			payload["redis"] = "connected"
			if err := cache.Ping(ctx); err != nil {
				payload["redis"] = "disconnected"
			}
		}
		responses.WriteSuccessStatus(w, status, payload)
	}
}
