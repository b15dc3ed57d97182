package api

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"golang.org/x/crypto/blake2b"

	"github.com/pixel-beads/api/imaging"
	"github.com/pixel-beads/api/models"
	"github.com/pixel-beads/api/patterns"
)

// patternError maps service errors onto responses.
func (app *Application) patternError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, patterns.ErrNotFound):
		app.notFound(w, r, "Pattern not found")
	case patterns.IsInvalid(err):
		app.validationError(w, r, err)
	default:
		app.internalServerError(w, r, err)
	}
}

// patternETag is a strong validator over the serialized pattern.
func patternETag(p models.Pattern) (string, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return "", err
	}
	sum := blake2b.Sum256(b)
	return `"` + hex.EncodeToString(sum[:16]) + `"`, nil
}

// GET /api/patterns
func (app *Application) listPatterns(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	page, err := queryInt(r, "page")
	if err != nil {
		app.validationError(w, r, err)
		return
	}
	pageSize, err := queryInt(r, "pageSize")
	if err != nil {
		app.validationError(w, r, err)
		return
	}

	query := models.PatternListQuery{
		Keyword:  q.Get("keyword"),
		Tag:      q.Get("tag"),
		Page:     page,
		PageSize: pageSize,
		Sort:     q.Get("sort"),
		Order:    q.Get("order"),
	}

	// explicit zeros are out of range rather than "use the default"
	if q.Has("page") && page == 0 {
		query.Page = -1
	}
	if q.Has("pageSize") && pageSize == 0 {
		query.PageSize = -1
	}

	list, err := app.Patterns.List(query)
	if err != nil {
		app.patternError(w, r, err)
		return
	}

	app.writeJSON(w, r, http.StatusOK, list)
}

// GET /api/patterns/{id}
func (app *Application) getPattern(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		app.validationError(w, r, errInvalidPatternID)
		return
	}

	pattern, err := app.Patterns.Get(id)
	if err != nil {
		app.patternError(w, r, err)
		return
	}

	etag, err := patternETag(pattern)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}
	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", "no-cache")

	if match := r.Header.Get("If-None-Match"); match != "" && match == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	app.writeJSON(w, r, http.StatusOK, pattern)
}

// POST /api/patterns
func (app *Application) createPattern(w http.ResponseWriter, r *http.Request) {
	req := models.PatternCreateRequest{}
	if err := decodeJSON(w, r, &req); err != nil {
		app.badJSONRequest(w, r, err)
		return
	}

	pattern, err := app.Patterns.Create(req)
	if err != nil {
		app.patternError(w, r, err)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/api/patterns/%d", pattern.ID))
	app.writeJSON(w, r, http.StatusCreated, pattern)
}

// PUT /api/patterns/{id}
func (app *Application) updatePattern(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		app.validationError(w, r, errInvalidPatternID)
		return
	}

	req := models.PatternUpdateRequest{}
	if err := decodeJSON(w, r, &req); err != nil {
		app.badJSONRequest(w, r, err)
		return
	}

	pattern, err := app.Patterns.Update(id, req)
	if err != nil {
		app.patternError(w, r, err)
		return
	}

	app.writeJSON(w, r, http.StatusOK, pattern)
}

// DELETE /api/patterns/{id}
func (app *Application) deletePattern(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		app.validationError(w, r, errInvalidPatternID)
		return
	}

	if err := app.Patterns.Delete(id); err != nil {
		app.patternError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GET /api/patterns/{id}/stats
func (app *Application) getPatternStats(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		app.validationError(w, r, errInvalidPatternID)
		return
	}

	stats, err := app.Patterns.Stats(id)
	if err != nil {
		app.patternError(w, r, err)
		return
	}

	app.writeJSON(w, r, http.StatusOK, stats)
}

// GET /api/patterns/{id}/thumbnail.png?scale=n
func (app *Application) getPatternThumbnail(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		app.validationError(w, r, errInvalidPatternID)
		return
	}

	scale := imaging.DefaultScale
	if raw := r.URL.Query().Get("scale"); raw != "" {
		scale, err = strconv.Atoi(raw)
		if err != nil || scale < 1 || scale > imaging.MaxScale {
			app.validationError(w, r, fmt.Errorf("scale must be an integer between 1 and %d", imaging.MaxScale))
			return
		}
	}

	pattern, err := app.Patterns.Get(id)
	if err != nil {
		app.patternError(w, r, err)
		return
	}

	img, err := imaging.Render(pattern, app.Colors, scale)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := imaging.WritePNG(&buf, img); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// POST /api/patterns/convert (multipart: image, width, height, colors)
func (app *Application) convertImage(w http.ResponseWriter, r *http.Request) {
	limit := app.Config.MaxUploadBytes
	if limit <= 0 {
		limit = DefaultMaxUploadBytes
	}
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := r.ParseMultipartForm(limit); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			app.payloadTooLarge(w, r, err)
			return
		}
		app.validationError(w, r, fmt.Errorf("expected multipart form: %w", err))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, _, err := r.FormFile("image")
	if err != nil {
		app.validationError(w, r, errors.New("image file is required"))
		return
	}
	defer file.Close()

	opts := imaging.ConvertOptions{}
	for name, dst := range map[string]*int{"width": &opts.Width, "height": &opts.Height, "colors": &opts.MaxColors} {
		raw := r.FormValue(name)
		if raw == "" {
			continue
		}
		v, err := strconv.Atoi(raw)
		if err != nil {
			app.validationError(w, r, fmt.Errorf("%s must be an integer", name))
			return
		}
		*dst = v
	}

	img, format, err := imaging.Decode(file)
	if err != nil {
		app.validationError(w, r, err)
		return
	}

	// default to the source size when it already fits the grid limit
	if opts.Width == 0 && opts.Height == 0 {
		b := img.Bounds()
		opts.Width, opts.Height = imaging.FitGrid(b.Dx(), b.Dy())
	}

	draft, err := imaging.Convert(img, opts, app.Colors)
	if err != nil {
		app.validationError(w, r, err)
		return
	}

	app.requestLogger(r).WithField("format", format).Debug("Converted image")
	app.writeJSON(w, r, http.StatusOK, draft)
}
