package middleware

import (
	"log/slog"
	"net/http"

	"github.com/mcoot/pokerstats/internal/middleware"
)

// Logging assigns each API request an id and logs it once the handler returns
func Logging(logger *slog.Logger) func(http.Handler) http.Handler {
	return middleware.Logging(logger)
}
