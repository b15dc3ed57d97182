package api

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pixel-beads/api/assets"
	"github.com/pixel-beads/api/colormatch"
	"github.com/pixel-beads/api/datastore"
	"github.com/pixel-beads/api/migrations"
	"github.com/pixel-beads/api/models"
	"github.com/pixel-beads/api/patterns"
	"github.com/pixel-beads/api/scheduler"
)

const testSecret = "test-secret"

type testServer struct {
	app       *Application
	handler   http.Handler
	tablePath string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	db, err := datastore.NewDB(datastore.SQLite, datastore.BuildSQLiteConnStr(":memory:"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	logger, _ := test.NewNullLogger()
	require.NoError(t, migrations.RunMigrations(db, datastore.SQLite, logger))

	table, err := colormatch.ParseTableBytes(assets.Colors())
	require.NoError(t, err)
	matcher := colormatch.NewMatcher(table)

	patternRepo, err := datastore.NewPatternDatabase(db)
	require.NoError(t, err)
	tagRepo, err := datastore.NewTagDatabase(db)
	require.NoError(t, err)

	tablePath := filepath.Join(t.TempDir(), "colors.txt")
	require.NoError(t, os.WriteFile(tablePath, assets.Colors(), 0o644))

	app := &Application{
		Config: Config{
			JwtSecret:      testSecret,
			AllowedOrigins: []string{"https://beads.example.com"},
			MaxUploadBytes: 1 << 20,
		},
		Logger:   logger,
		Patterns: patterns.NewService(patternRepo, matcher),
		TagRepo:  tagRepo,
		Colors:   matcher,
		Reloader: scheduler.NewReloader(matcher, tablePath, 0, logger),
		DB:       db,
	}

	return &testServer{app: app, handler: app.BuildRoutes(http.NewServeMux()), tablePath: tablePath}
}

type apiResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *HandlerError   `json:"error"`
}

func (ts *testServer) do(t *testing.T, method, path string, body interface{}, headers ...string) (*httptest.ResponseRecorder, apiResponse) {
	t.Helper()

	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)

	var resp apiResponse
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp), rec.Body.String())
	}
	return rec, resp
}

func decodeData(t *testing.T, resp apiResponse, dst interface{}) {
	t.Helper()
	require.True(t, resp.Success)
	require.NoError(t, json.Unmarshal(resp.Data, dst))
}

func heartBody() map[string]interface{} {
	return map[string]interface{}{
		"name":    "heart",
		"width":   3,
		"height":  2,
		"palette": []interface{}{nil, "A1", "H7"},
		"data":    "1*1,1*0,1*1,3*2",
		"tags":    []string{"love"},
	}
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)

	rec, resp := ts.do(t, http.MethodGet, "/api/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	var health map[string]interface{}
	decodeData(t, resp, &health)
	assert.Equal(t, "ok", health["status"])
	assert.Equal(t, "ok", health["database"])
	assert.NotEmpty(t, health["timestamp"])
}

func TestUnknownEndpoint(t *testing.T) {
	ts := newTestServer(t)

	rec, resp := ts.do(t, http.MethodGet, "/api/nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Equal(t, CodeNotFound, resp.Error.Code)
	assert.Equal(t, "Endpoint not found", resp.Error.Message)
}

func TestColors(t *testing.T) {
	ts := newTestServer(t)

	rec, resp := ts.do(t, http.MethodGet, "/api/colors", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	var entries []colormatch.Entry
	decodeData(t, resp, &entries)
	assert.Len(t, entries, ts.app.Colors.Table().Len())
	assert.Equal(t, colormatch.Entry{Code: "A1", Hex: "#faf5cd", Group: "A"}, entries[0])

	rec, resp = ts.do(t, http.MethodGet, "/api/colors/validate/A1", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"code":"A1","valid":true}`, string(resp.Data))

	_, resp = ts.do(t, http.MethodGet, "/api/colors/validate/ZZ9", nil)
	assert.JSONEq(t, `{"code":"ZZ9","valid":false}`, string(resp.Data))
}

func TestMatchColor(t *testing.T) {
	ts := newTestServer(t)

	rec, resp := ts.do(t, http.MethodGet, "/api/colors/match?hex=FAF5CD", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	var result colormatch.Result
	decodeData(t, resp, &result)
	assert.Equal(t, "#faf5cd", result.Input)
	assert.Equal(t, "A1", result.Best.Code)
	assert.Equal(t, 0.0, result.Best.Distance)
	assert.Len(t, result.Alternatives, colormatch.NumAlternatives)
	for _, alt := range result.Alternatives {
		assert.GreaterOrEqual(t, alt.Distance, result.Best.Distance)
	}

	for _, bad := range []string{"", "fff", "%23faf5cd", "gggggg", "faf5cd00"} {
		rec, resp := ts.do(t, http.MethodGet, "/api/colors/match?hex="+bad, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code, bad)
		require.NotNil(t, resp.Error, bad)
		assert.Equal(t, CodeValidation, resp.Error.Code)
	}
}

func TestPatternLifecycle(t *testing.T) {
	ts := newTestServer(t)

	rec, resp := ts.do(t, http.MethodPost, "/api/patterns", heartBody())
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created models.Pattern
	decodeData(t, resp, &created)
	assert.Equal(t, "heart", created.Name)
	assert.Equal(t, models.Palette{"", "A1", "H7"}, created.Palette)
	assert.Equal(t, []string{"love"}, created.Tags)
	assert.Contains(t, string(resp.Data), `"palette":[null,"A1","H7"]`)

	path := "/api/patterns/" + itoa(created.ID)

	rec, resp = ts.do(t, http.MethodGet, path, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	etag := rec.Header().Get("ETag")
	assert.NotEmpty(t, etag)
	var got models.Pattern
	decodeData(t, resp, &got)
	assert.Equal(t, created.Data, got.Data)

	rec, _ = ts.do(t, http.MethodGet, path, nil, "If-None-Match", etag)
	assert.Equal(t, http.StatusNotModified, rec.Code)

	rec, resp = ts.do(t, http.MethodPut, path, map[string]interface{}{"name": "big heart"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var updated models.Pattern
	decodeData(t, resp, &updated)
	assert.Equal(t, "big heart", updated.Name)

	rec, _ = ts.do(t, http.MethodGet, path, nil, "If-None-Match", etag)
	assert.Equal(t, http.StatusOK, rec.Code, "etag changes with content")

	rec, resp = ts.do(t, http.MethodPut, path, map[string]interface{}{"data": "5*1"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, CodeValidation, resp.Error.Code)

	rec, _ = ts.do(t, http.MethodDelete, path, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec, resp = ts.do(t, http.MethodDelete, path, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Pattern not found", resp.Error.Message)

	rec, _ = ts.do(t, http.MethodGet, path, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = ts.do(t, http.MethodPut, path, map[string]interface{}{"name": "ghost"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreatePatternValidation(t *testing.T) {
	ts := newTestServer(t)

	unknown := heartBody()
	unknown["palette"] = []interface{}{nil, "A1", "NOPE"}

	badData := heartBody()
	badData["data"] = "1*0"

	badWidth := heartBody()
	badWidth["width"] = 129

	noName := heartBody()
	delete(noName, "name")

	for name, body := range map[string]interface{}{
		"unknown code": unknown,
		"bad data":     badData,
		"bad width":    badWidth,
		"no name":      noName,
		"broken json":  `{"name":`,
		"empty body":   "",
	} {
		rec, resp := ts.do(t, http.MethodPost, "/api/patterns", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, name)
		require.NotNil(t, resp.Error, name)
		assert.Equal(t, CodeValidation, resp.Error.Code, name)
	}

	_, resp := ts.do(t, http.MethodPost, "/api/patterns", unknown)
	assert.Contains(t, resp.Error.Message, "NOPE")

	rec, resp := ts.do(t, http.MethodGet, "/api/patterns/abc", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid pattern ID", resp.Error.Message)
}

func TestListPatterns(t *testing.T) {
	ts := newTestServer(t)

	for _, name := range []string{"cat", "dog", "tree"} {
		body := heartBody()
		body["name"] = name
		body["tags"] = []string{name[:1]}
		rec, _ := ts.do(t, http.MethodPost, "/api/patterns", body)
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec, resp := ts.do(t, http.MethodGet, "/api/patterns?sort=name&order=asc&pageSize=2", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list models.PatternList
	decodeData(t, resp, &list)
	require.Len(t, list.Items, 2)
	assert.Equal(t, "cat", list.Items[0].Name)
	assert.Equal(t, models.Pagination{Page: 1, PageSize: 2, Total: 3, TotalPages: 2}, list.Pagination)

	_, resp = ts.do(t, http.MethodGet, "/api/patterns?keyword=DO", nil)
	decodeData(t, resp, &list)
	require.Len(t, list.Items, 1)
	assert.Equal(t, "dog", list.Items[0].Name)

	_, resp = ts.do(t, http.MethodGet, "/api/patterns?tag=t", nil)
	decodeData(t, resp, &list)
	require.Len(t, list.Items, 1)
	assert.Equal(t, "tree", list.Items[0].Name)

	for _, query := range []string{"page=0", "page=x", "pageSize=101", "pageSize=0", "sort=id", "order=up"} {
		rec, _ := ts.do(t, http.MethodGet, "/api/patterns?"+query, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code, query)
	}
}

func TestPatternStatsAndThumbnail(t *testing.T) {
	ts := newTestServer(t)

	_, resp := ts.do(t, http.MethodPost, "/api/patterns", heartBody())
	var created models.Pattern
	decodeData(t, resp, &created)
	path := "/api/patterns/" + itoa(created.ID)

	rec, resp := ts.do(t, http.MethodGet, path+"/stats", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var stats models.UsageStats
	decodeData(t, resp, &stats)
	assert.Equal(t, 6, stats.Total)
	assert.Equal(t, 1, stats.Empty)
	assert.Equal(t, 5, stats.Painted)
	require.Len(t, stats.Items, 2)
	assert.Equal(t, models.UsageItem{Code: "H7", Hex: "#000000", Count: 3}, stats.Items[0])
	assert.Equal(t, models.UsageItem{Code: "A1", Hex: "#faf5cd", Count: 2}, stats.Items[1])

	rec, _ = ts.do(t, http.MethodGet, path+"/thumbnail.png?scale=4", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	img, err := png.Decode(rec.Body)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 12, 8), img.Bounds())
	_, _, _, a := img.At(4, 0).RGBA()
	assert.Zero(t, a, "unpainted cell is transparent")

	rec, _ = ts.do(t, http.MethodGet, path+"/thumbnail.png?scale=99", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = ts.do(t, http.MethodGet, "/api/patterns/999/stats", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func multipartImage(t *testing.T, fields map[string]string, img image.Image) (*bytes.Buffer, string) {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if img != nil {
		fw, err := mw.CreateFormFile("image", "upload.png")
		require.NoError(t, err)
		require.NoError(t, png.Encode(fw, img))
	}
	require.NoError(t, mw.Close())
	return &body, mw.FormDataContentType()
}

func TestConvertImage(t *testing.T) {
	ts := newTestServer(t)

	src := image.NewNRGBA(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			if x >= 4 {
				src.SetNRGBA(x, y, color.NRGBA{R: 250, G: 245, B: 205, A: 255})
			}
		}
	}

	body, contentType := multipartImage(t, map[string]string{"width": "8", "height": "8", "colors": "4"}, src)
	req := httptest.NewRequest(http.MethodPost, "/api/patterns/convert", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp apiResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	var draft models.PatternDraft
	decodeData(t, resp, &draft)
	assert.Equal(t, 8, draft.Width)
	assert.Equal(t, models.Palette{"", "A1"}, draft.Palette)
	assert.Equal(t, strings.Repeat("4*0,4*1,", 7)+"4*0,4*1", draft.Data)

	// missing file
	body, contentType = multipartImage(t, map[string]string{"width": "8"}, nil)
	req = httptest.NewRequest(http.MethodPost, "/api/patterns/convert", body)
	req.Header.Set("Content-Type", contentType)
	rec = httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTags(t *testing.T) {
	ts := newTestServer(t)

	rec, resp := ts.do(t, http.MethodPost, "/api/tags", map[string]string{"name": "animals"})
	require.Equal(t, http.StatusCreated, rec.Code)
	var tag models.Tag
	decodeData(t, resp, &tag)
	assert.Equal(t, "animals", tag.Name)

	rec, resp = ts.do(t, http.MethodPost, "/api/tags", map[string]string{"name": "animals"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, CodeConflict, resp.Error.Code)
	assert.Equal(t, "Tag already exists", resp.Error.Message)

	rec, _ = ts.do(t, http.MethodPost, "/api/tags", map[string]string{"name": strings.Repeat("x", 31)})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	body := heartBody()
	body["tags"] = []string{"animals"}
	rec, _ = ts.do(t, http.MethodPost, "/api/patterns", body)
	require.Equal(t, http.StatusCreated, rec.Code)

	_, resp = ts.do(t, http.MethodGet, "/api/tags", nil)
	var tags []models.Tag
	decodeData(t, resp, &tags)
	require.Len(t, tags, 1)
	assert.Equal(t, 1, tags[0].Count)

	rec, _ = ts.do(t, http.MethodDelete, "/api/tags/"+itoa(tag.ID), nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec, _ = ts.do(t, http.MethodDelete, "/api/tags/"+itoa(tag.ID), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = ts.do(t, http.MethodDelete, "/api/tags/zero", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdminReload(t *testing.T) {
	ts := newTestServer(t)

	token, _, err := models.NewAdminToken("ops", testSecret, time.Hour)
	require.NoError(t, err)
	forged, _, err := models.NewAdminToken("ops", "other", time.Hour)
	require.NoError(t, err)

	rec, resp := ts.do(t, http.MethodPost, "/api/admin/colors/reload", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, CodeUnauthorized, resp.Error.Code)

	rec, _ = ts.do(t, http.MethodPost, "/api/admin/colors/reload", nil, "Authorization", "Bearer "+forged)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = ts.do(t, http.MethodPost, "/api/admin/colors/reload", nil, "Authorization", "Basic abc")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	require.NoError(t, os.WriteFile(ts.tablePath, []byte("Z1\t#123456\n"), 0o644))
	rec, resp = ts.do(t, http.MethodPost, "/api/admin/colors/reload", nil, "Authorization", "Bearer "+token)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"entries":1}`, string(resp.Data))
	assert.True(t, ts.app.Colors.IsValidColorCode("Z1"))

	require.NoError(t, os.WriteFile(ts.tablePath, []byte("garbage\n"), 0o644))
	rec, _ = ts.do(t, http.MethodPost, "/api/admin/colors/reload", nil, "Cookie", models.JWT.ADMIN_COOKIE_NAME+"="+token)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.True(t, ts.app.Colors.IsValidColorCode("Z1"))
}

func TestCorsAndOrigins(t *testing.T) {
	ts := newTestServer(t)

	rec, _ := ts.do(t, http.MethodGet, "/api/health", nil, "Origin", "https://evil.example.com")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, _ = ts.do(t, http.MethodGet, "/api/health", nil, "Origin", "https://beads.example.com")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "https://beads.example.com", rec.Header().Get("Access-Control-Allow-Origin"))

	rec, _ = ts.do(t, http.MethodOptions, "/api/patterns", nil, "Origin", "http://localhost:5173")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "PUT")
	assert.Empty(t, rec.Body.String())
}

func TestRequestID(t *testing.T) {
	ts := newTestServer(t)

	rec, _ := ts.do(t, http.MethodGet, "/api/health", nil)
	_, err := uuid.Parse(rec.Header().Get(requestIDHeader))
	assert.NoError(t, err)

	id := uuid.NewString()
	rec, _ = ts.do(t, http.MethodGet, "/api/health", nil, requestIDHeader, id)
	assert.Equal(t, id, rec.Header().Get(requestIDHeader))

	rec, _ = ts.do(t, http.MethodGet, "/api/health", nil, requestIDHeader, "not-a-uuid")
	assert.NotEqual(t, "not-a-uuid", rec.Header().Get(requestIDHeader))
}

func TestRecoverPanic(t *testing.T) {
	ts := newTestServer(t)

	h := ts.app.recoverPanic(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	var resp apiResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.Equal(t, CodeInternal, resp.Error.Code)
	assert.NotContains(t, rec.Body.String(), "boom")
}

func TestIsAllowedOrigin(t *testing.T) {
	allowed := []string{"https://beads.example.com"}
	assert.True(t, isAllowedOrigin("https://beads.example.com/editor", allowed))
	assert.True(t, isAllowedOrigin("http://localhost:3000", allowed))
	assert.False(t, isAllowedOrigin("https://beads.example.com.evil.io", allowed))
	assert.True(t, isAllowedOrigin("https://anything.io", []string{"*"}))
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
