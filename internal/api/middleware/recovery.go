package middleware

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/mcoot/pokerstats/internal/api/apierr"
	"github.com/mcoot/pokerstats/internal/api/response"
	"github.com/mcoot/pokerstats/internal/middleware"
)

// Recovery turns handler panics into INTERNAL_ERROR responses. The message
// carries the request id so a client report can be matched to the log line.
func Recovery(logger *slog.Logger) func(http.Handler) http.Handler {
	return middleware.Recovery(logger, writePanicResponse)
}

func writePanicResponse(w http.ResponseWriter, r *http.Request, _ any) {
	msg := "Internal server error"
	if id := middleware.RequestID(r.Context()); id != "" {
		msg = fmt.Sprintf("Internal server error (request %s)", id)
	}
	response.JSON(w, http.StatusInternalServerError, apierr.ErrorResponse{
		Error: apierr.APIError{Code: apierr.CodeInternalError, Message: msg},
	})
}
