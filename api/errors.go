package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"runtime"

	"github.com/sirupsen/logrus"
)

// Helper function to get caller information
func getCallerInfo() string {
	_, file, line, ok := runtime.Caller(2)
	if !ok {
		return "[unknown]"
	}
	return fmt.Sprintf("[%s:%d]", filepath.Base(file), line)
}

// HandlerError is the error half of the response envelope. Code and Message
// are what clients branch on; the rest helps whoever is debugging.
type HandlerError struct {
	Code             string `json:"code"`
	Message          string `json:"message"`
	ErrorName        string `json:"errorName"`
	PossibleSolution string `json:"possibleSolution"`
	CallerInfo       string `json:"callerInfo"`
}

// envelope wraps every JSON response: {"success":true,"data":...} or
// {"success":false,"error":{...}}.
type envelope struct {
	Success bool          `json:"success"`
	Data    interface{}   `json:"data,omitempty"`
	Error   *HandlerError `json:"error,omitempty"`
}

const (
	CodeValidation   = "VALIDATION_ERROR"
	CodeNotFound     = "NOT_FOUND"
	CodeConflict     = "CONFLICT"
	CodeUnauthorized = "UNAUTHORIZED"
	CodeInternal     = "INTERNAL_ERROR"
	CodeTooLarge     = "PAYLOAD_TOO_LARGE"
)

var ErrInvalidPrivelege = fmt.Errorf("invalid authentication privileges")

var errInvalidPatternID = errors.New("Invalid pattern ID")
var errInvalidTagID = errors.New("Invalid tag ID")
var errMustBeHex = errors.New("hex must be 6 hex digits without #")

func (app *Application) writeJSON(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(envelope{Success: true, Data: data}); err != nil {
		app.requestLogger(r).WithError(err).Warn("Failed to write response")
	}
}

func (app *Application) writeError(w http.ResponseWriter, r *http.Request, status int, handlerErr HandlerError) {
	entry := app.requestLogger(r).WithFields(logrus.Fields{
		"code":   handlerErr.Code,
		"caller": handlerErr.CallerInfo,
	})
	if status >= http.StatusInternalServerError {
		entry.Error(handlerErr.Message)
	} else {
		entry.Debug(handlerErr.Message)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(envelope{Success: false, Error: &handlerErr})
}

func (app *Application) invalidAuthorization(w http.ResponseWriter, r *http.Request, err error) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="admin"`)
	app.writeError(w, r, http.StatusUnauthorized, HandlerError{
		Code:             CodeUnauthorized,
		Message:          err.Error(),
		ErrorName:        "Error Authenticating for Endpoint",
		PossibleSolution: "Check your headers and ensure you're submitting a valid admin token",
		CallerInfo:       getCallerInfo(),
	})
}

func (app *Application) badJSONRequest(w http.ResponseWriter, r *http.Request, err error) {
	app.writeError(w, r, http.StatusBadRequest, HandlerError{
		Code:             CodeValidation,
		Message:          err.Error(),
		ErrorName:        "Error Parsing JSON",
		PossibleSolution: "Double check your JSON formatting",
		CallerInfo:       getCallerInfo(),
	})
}

func (app *Application) validationError(w http.ResponseWriter, r *http.Request, err error) {
	app.writeError(w, r, http.StatusBadRequest, HandlerError{
		Code:             CodeValidation,
		Message:          err.Error(),
		ErrorName:        "Validation Failed",
		PossibleSolution: "Check your request parameters",
		CallerInfo:       getCallerInfo(),
	})
}

func (app *Application) notFound(w http.ResponseWriter, r *http.Request, message string) {
	app.writeError(w, r, http.StatusNotFound, HandlerError{
		Code:             CodeNotFound,
		Message:          message,
		ErrorName:        "Not Found",
		PossibleSolution: "Check the resource ID or path",
		CallerInfo:       getCallerInfo(),
	})
}

func (app *Application) conflict(w http.ResponseWriter, r *http.Request, message string) {
	app.writeError(w, r, http.StatusConflict, HandlerError{
		Code:             CodeConflict,
		Message:          message,
		ErrorName:        "Already Exists",
		PossibleSolution: "Use the existing resource or choose another name",
		CallerInfo:       getCallerInfo(),
	})
}

func (app *Application) payloadTooLarge(w http.ResponseWriter, r *http.Request, err error) {
	app.writeError(w, r, http.StatusRequestEntityTooLarge, HandlerError{
		Code:             CodeTooLarge,
		Message:          err.Error(),
		ErrorName:        "Payload Too Large",
		PossibleSolution: "Upload a smaller image",
		CallerInfo:       getCallerInfo(),
	})
}

// internalServerError never echoes err to the client; it is logged instead.
func (app *Application) internalServerError(w http.ResponseWriter, r *http.Request, err error) {
	app.requestLogger(r).WithError(err).Error("Internal server error")
	app.writeError(w, r, http.StatusInternalServerError, HandlerError{
		Code:             CodeInternal,
		Message:          "Internal server error",
		ErrorName:        "Internal Server Error",
		PossibleSolution: "Internal Server Error requiring support",
		CallerInfo:       getCallerInfo(),
	})
}
