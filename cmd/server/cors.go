package main

import (
	"net/http"

	"github.com/rs/cors"

	"github.com/tair/goldlink/pkg/config"
)

// newCORS allows credentialed requests only from the configured origins.
// rs/cors treats an empty origin list as "*", so no origins denies all.
func newCORS(cfg config.CORSConfig) *cors.Cors {
	opts := cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	}
	if len(cfg.AllowedOrigins) == 0 {
		opts.AllowOriginFunc = func(string) bool { return false }
	}
	return cors.New(opts)
}
