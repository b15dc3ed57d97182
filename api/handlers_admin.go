package api

import (
	"errors"
	"net/http"
)

// POST /api/admin/colors/reload
func (app *Application) reloadColors(w http.ResponseWriter, r *http.Request) {
	if app.Reloader == nil {
		app.internalServerError(w, r, errors.New("no reference table reloader configured"))
		return
	}

	n, err := app.Reloader.ReloadNow()
	if err != nil {
		// the previous table is still being served
		app.writeError(w, r, http.StatusUnprocessableEntity, HandlerError{
			Code:             "INVALID_TABLE",
			Message:          err.Error(),
			ErrorName:        "Reference Table Rejected",
			PossibleSolution: "Fix the table file; the previous table is still active",
			CallerInfo:       getCallerInfo(),
		})
		return
	}

	app.requestLogger(r).WithField("entries", n).Info("Reference table reloaded")
	app.writeJSON(w, r, http.StatusOK, map[string]int{"entries": n})
}
