package handlers

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

const healthCheckTimeout = 5 * time.Second

type HealthHandler struct {
	DB *sql.DB
}

// CheckHealth reports liveness and database connectivity.
func (hh *HealthHandler) CheckHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	if err := hh.DB.PingContext(ctx); err != nil {
		log.Error().Err(err).Msg("health check: database ping failed")
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status":   "unhealthy",
			"database": "disconnected",
			"error":    err.Error(),
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status":   "healthy",
		"database": "connected",
	})
}

// APIInfo serves the root endpoint with a short service description and
// endpoint index.
func APIInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Pereval API",
		"version": "1.0.0",
		"endpoints": map[string]string{
			"POST /submitData":                 "Добавить новый перевал",
			"GET /submitData/{id}":             "Получить перевал по ID",
			"PATCH /submitData/{id}":           "Отредактировать перевал в статусе new",
			"GET /submitData/?user__email=...": "Получить перевалы пользователя",
			"GET /health":                      "Проверка состояния сервиса",
		},
	})
}
