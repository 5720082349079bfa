package response

import (
	"encoding/json"
	"net/http"
	"strconv"
)

const encodeFailureBody = `{"error":{"code":"INTERNAL_ERROR","message":"Response could not be encoded"}}` + "\n"

// JSON writes a JSON response. The body is encoded before the status line
// goes out, so a value that cannot be encoded yields a 500 instead of a
// truncated 200.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	if data == nil {
		w.WriteHeader(status)
		return
	}

	body, err := json.Marshal(data)
	if err != nil {
		w.Header().Set("Content-Length", strconv.Itoa(len(encodeFailureBody)))
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(encodeFailureBody))
		return
	}
	body = append(body, '\n')

	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

// Created writes a 201 JSON response
func Created(w http.ResponseWriter, data any) {
	JSON(w, http.StatusCreated, data)
}

// NoContent writes a 204 No Content response
func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}
