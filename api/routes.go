package api

import (
	"net/http"
	"regexp"
	"strings"
)

var localhostPattern = regexp.MustCompile(`^localhost:\d+$`)

func cleanOrigin(origin string) string {
	cleanedOrigin := strings.TrimPrefix(origin, "https://")
	cleanedOrigin = strings.TrimPrefix(cleanedOrigin, "http://")
	if idx := strings.Index(cleanedOrigin, "/"); idx != -1 {
		cleanedOrigin = cleanedOrigin[:idx]
	}
	return cleanedOrigin
}

func isAllowedOrigin(origin string, allowedOrigins []string) bool {
	cleanedRequest := cleanOrigin(origin)

	// Allow localhost for development
	if localhostPattern.MatchString(cleanedRequest) {
		return true
	}

	// Check against configured allowed origins
	for _, allowed := range allowedOrigins {
		if allowed == "*" {
			return true
		}
		cleanedAllowed := cleanOrigin(strings.TrimSpace(allowed))
		if cleanedAllowed == cleanedRequest {
			return true
		}
	}

	return false
}

func wrapMuxWithCorsAndOrigins(mux *http.ServeMux, app *Application) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")

		if origin == "" {
			referer := r.Header.Get("Referer")
			if referer != "" {
				origin = referer
			}
		}

		if origin == "" {
			handleCors(mux.ServeHTTP)(w, r)
			return
		}

		// Check if origin is allowed
		if isAllowedOrigin(origin, app.Config.AllowedOrigins) {
			handleCors(mux.ServeHTTP)(w, r)
			return
		}

		app.writeError(w, r, http.StatusForbidden, HandlerError{
			Code:             "FORBIDDEN",
			Message:          "origin not allowed: " + cleanOrigin(origin),
			ErrorName:        "Origin Not Allowed",
			PossibleSolution: "Add the origin to ALLOWED_ORIGINS",
			CallerInfo:       getCallerInfo(),
		})
	})
}

// BuildRoutes registers every endpoint on mux and returns the full handler
// chain: request IDs, request logging, panic recovery, then CORS.
func (app *Application) BuildRoutes(mux *http.ServeMux) http.Handler {
	mux.HandleFunc("/", app.endpointNotFound)
	mux.HandleFunc("GET /api/health", app.health)

	// Colours
	mux.HandleFunc("GET /api/colors", app.listColors)
	mux.HandleFunc("GET /api/colors/match", app.matchColor)
	mux.HandleFunc("GET /api/colors/validate/{code}", app.validateColorCode)

	// Patterns
	mux.HandleFunc("GET /api/patterns", app.listPatterns)
	mux.HandleFunc("POST /api/patterns", app.createPattern)
	mux.HandleFunc("POST /api/patterns/convert", app.convertImage)
	mux.HandleFunc("GET /api/patterns/{id}", app.getPattern)
	mux.HandleFunc("PUT /api/patterns/{id}", app.updatePattern)
	mux.HandleFunc("DELETE /api/patterns/{id}", app.deletePattern)
	mux.HandleFunc("GET /api/patterns/{id}/stats", app.getPatternStats)
	mux.HandleFunc("GET /api/patterns/{id}/thumbnail.png", app.getPatternThumbnail)

	// Tags
	mux.HandleFunc("GET /api/tags", app.listTags)
	mux.HandleFunc("POST /api/tags", app.createTag)
	mux.HandleFunc("DELETE /api/tags/{id}", app.deleteTag)

	// Admin endpoints
	mux.HandleFunc("POST /api/admin/colors/reload", app.verifyPermissions(app.reloadColors))

	// Wrap entire mux with CORS and origins check
	var handler http.Handler = wrapMuxWithCorsAndOrigins(mux, app)
	handler = app.recoverPanic(handler)
	handler = app.logRequests(handler)
	return requestID(handler)
}
