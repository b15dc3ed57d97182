package api

import (
	"errors"
	"net/http"
	"regexp"

	"github.com/pixel-beads/api/colormatch"
)

var hexQueryPattern = regexp.MustCompile(`^[0-9a-fA-F]{6}$`)

// GET /api/colors
func (app *Application) listColors(w http.ResponseWriter, r *http.Request) {
	app.writeJSON(w, r, http.StatusOK, app.Colors.Entries())
}

// GET /api/colors/match?hex=rrggbb
func (app *Application) matchColor(w http.ResponseWriter, r *http.Request) {
	hex := r.URL.Query().Get("hex")
	if !hexQueryPattern.MatchString(hex) {
		app.validationError(w, r, errMustBeHex)
		return
	}

	result, err := app.Colors.Match(hex)
	if err != nil {
		if errors.Is(err, colormatch.ErrEmptyTable) {
			app.internalServerError(w, r, err)
			return
		}
		app.validationError(w, r, err)
		return
	}

	app.writeJSON(w, r, http.StatusOK, result)
}

// GET /api/colors/validate/{code}
func (app *Application) validateColorCode(w http.ResponseWriter, r *http.Request) {
	code := r.PathValue("code")
	app.writeJSON(w, r, http.StatusOK, map[string]interface{}{
		"code":  code,
		"valid": app.Colors.IsValidColorCode(code),
	})
}
