package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"
)

const maxJSONBody = 1 << 20

// GET /api/health
func (app *Application) health(w http.ResponseWriter, r *http.Request) {
	status := map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
		"colors":    app.Colors.Table().Len(),
	}

	if app.DB != nil {
		if err := app.DB.Ping(); err != nil {
			app.requestLogger(r).WithError(err).Warn("Database ping failed")
			status["status"] = "degraded"
			status["database"] = "unavailable"
		} else {
			status["database"] = "ok"
		}
	}

	app.writeJSON(w, r, http.StatusOK, status)
}

// Catch-all for unknown paths
func (app *Application) endpointNotFound(w http.ResponseWriter, r *http.Request) {
	app.notFound(w, r, "Endpoint not found")
}

// decodeJSON reads a JSON request body into dst, rejecting trailing data.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body must not be empty")
		}
		return err
	}
	if dec.More() {
		return errors.New("request body must contain a single JSON object")
	}
	return nil
}

// pathID parses a positive integer path parameter.
func pathID(r *http.Request, name string) (int64, error) {
	raw := r.PathValue(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("invalid %s %q", name, raw)
	}
	return id, nil
}

// queryInt parses an optional integer query parameter; absent is 0.
func queryInt(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer", name)
	}
	return v, nil
}
