package httputil

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/banshee-data/triangulator/internal/monitoring"
)

// ContentTypeBinary is the media type of Mesh and PointSet payloads.
const ContentTypeBinary = "application/octet-stream"

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Error      string `json:"error"`
	Details    string `json:"details,omitempty"`
	PointSetID string `json:"pointSetId,omitempty"`
	StatusCode int    `json:"status_code,omitempty"`
}

// WriteJSON writes data as JSON with the given status code.
func WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		monitoring.Logf("failed to encode json response: %v", err)
	}
}

// WriteJSONOK writes a 200 JSON response.
func WriteJSONOK(w http.ResponseWriter, data interface{}) {
	WriteJSON(w, http.StatusOK, data)
}

// WriteError writes an ErrorBody with the given status code.
func WriteError(w http.ResponseWriter, status int, body ErrorBody) {
	WriteJSON(w, status, body)
}

// WriteJSONError writes {"error": msg} with the given status code.
func WriteJSONError(w http.ResponseWriter, status int, msg string) {
	WriteError(w, status, ErrorBody{Error: msg})
}

// WriteBinary writes body as application/octet-stream.
func WriteBinary(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", ContentTypeBinary)
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		monitoring.Logf("failed to write binary response: %v", err)
	}
}

// NotFound writes a 404 with the given message.
func NotFound(w http.ResponseWriter, msg string) {
	WriteJSONError(w, http.StatusNotFound, msg)
}

// BadRequest writes a 400 with the given message and details.
func BadRequest(w http.ResponseWriter, msg, details string) {
	WriteError(w, http.StatusBadRequest, ErrorBody{Error: msg, Details: details})
}

// BadGateway writes a 502 with the given message and details.
func BadGateway(w http.ResponseWriter, msg, details string) {
	WriteError(w, http.StatusBadGateway, ErrorBody{Error: msg, Details: details})
}

// InternalServerError writes a 500 with the given message and details.
func InternalServerError(w http.ResponseWriter, msg, details string) {
	WriteError(w, http.StatusInternalServerError, ErrorBody{Error: msg, Details: details})
}
