package api

import (
	"net/http"

	"github.com/pixel-beads/api/datastore"
	"github.com/pixel-beads/api/models"
)

// GET /api/tags
func (app *Application) listTags(w http.ResponseWriter, r *http.Request) {
	tags, err := app.TagRepo.GetAll()
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	app.writeJSON(w, r, http.StatusOK, tags)
}

// POST /api/tags
func (app *Application) createTag(w http.ResponseWriter, r *http.Request) {
	req := models.TagCreateRequest{}
	if err := decodeJSON(w, r, &req); err != nil {
		app.badJSONRequest(w, r, err)
		return
	}

	if err := req.Validate(); err != nil {
		app.validationError(w, r, err)
		return
	}

	tag, err := app.TagRepo.Create(req.Name)
	if err != nil {
		if datastore.IsConflict(err) {
			app.conflict(w, r, "Tag already exists")
			return
		}
		app.internalServerError(w, r, err)
		return
	}

	app.writeJSON(w, r, http.StatusCreated, tag)
}

// DELETE /api/tags/{id}
func (app *Application) deleteTag(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		app.validationError(w, r, errInvalidTagID)
		return
	}

	deleted, err := app.TagRepo.Delete(id)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}
	if !deleted {
		app.notFound(w, r, "Tag not found")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
