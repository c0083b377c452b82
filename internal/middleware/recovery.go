package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"chatbot/internal/domain"
	"chatbot/internal/httputil"
)

// Recovery turns a handler panic into a logged 500 with the generic message.
// http.ErrAbortHandler is re-raised so net/http can drop the connection.
func Recovery(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				logger.Error("handler panicked",
					"panic", rec,
					"route", r.Method+" "+r.URL.Path,
					"request_id", httputil.GetRequestID(r),
					"stack", string(debug.Stack()),
				)
				httputil.RespondJSON(w, http.StatusInternalServerError, httputil.ErrorBody{
					Code:    "internal:api",
					Message: domain.GenericErrorMessage,
				})
			}()

			next.ServeHTTP(w, r)
		})
	}
}
