package handlers

import (
	"encoding/json"
	"net/http"
)

// Error codes used in API error responses
const (
	CodeBadInput         = "bad_input"
	CodeNotFound         = "not_found"
	CodeMethodNotAllowed = "method_not_allowed"
	CodeInternal         = "internal_error"
)

type errorBody struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

type errorResponse struct {
	Error errorBody `json:"error"`
}

// WriteJSON writes a JSON response with the given status code
func WriteJSON(w http.ResponseWriter, statusCode int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(data)
}

// WriteError writes the standardized error shape with HTTP status mapped
// by error kind: 400 bad input, 404 no results, 405 wrong method, 500
// internal.
func WriteError(w http.ResponseWriter, statusCode int, message, code string) error {
	return WriteJSON(w, statusCode, errorResponse{
		Error: errorBody{Message: message, Code: code},
	})
}

// RequireMethod enforces the HTTP method, writing a 405 error otherwise
func RequireMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method != method {
		WriteError(w, http.StatusMethodNotAllowed, "method not allowed", CodeMethodNotAllowed)
		return false
	}
	return true
}

// DecodeJSON parses the request body into dst, writing a 400 error on
// malformed input
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid JSON request body", CodeBadInput)
		return false
	}
	return true
}
