package middlewares

import (
	"net/http"

	"github.com/rs/cors"
)

// NewCORS allows the ordering pages to call the API. "*" allows any origin.
func NewCORS(origins []string) *cors.Cors {
	return cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions,
		},
		AllowedHeaders:   []string{"Content-Type", "Accept", "Origin", "X-Requested-With"},
		AllowCredentials: false,
		MaxAge:           600,
	})
}
