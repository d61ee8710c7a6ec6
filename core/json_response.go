package core

import (
	"encoding/json"
	"errors"
	"maps"
	"net/http"
)

// JSONBody is the standard JSON response envelope.
type JSONBody struct {
	Status string         `json:"status,omitempty"`
	Data   any            `json:"data,omitempty"`
	Meta   map[string]any `json:"meta,omitempty"`
	Error  *ErrorDetail   `json:"error,omitempty"`
}

// ErrorDetail carries error information in JSON responses.
type ErrorDetail struct {
	Code    string              `json:"code,omitempty"`
	Message string              `json:"message,omitempty"`
	Details map[string][]string `json:"details,omitempty"`
}

type jsonResponse struct {
	status int
	body   JSONBody
}

func (j jsonResponse) Render(w http.ResponseWriter, r *http.Request) error {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(j.status)
	return json.NewEncoder(w).Encode(j.body)
}

// JSON creates a 200 response with the given status word and data.
func JSON(status string, data any) Response {
	return jsonResponse{
		status: http.StatusOK,
		body:   JSONBody{Status: status, Data: data},
	}
}

// JSONStatus creates a 200 response carrying only a status word,
// e.g. {"status":"ok"}.
func JSONStatus(status string) Response {
	return jsonResponse{
		status: http.StatusOK,
		body:   JSONBody{Status: status},
	}
}

// JSONWithCode creates a response with an explicit HTTP status code.
func JSONWithCode(code int, status string, data any) Response {
	return jsonResponse{
		status: code,
		body:   JSONBody{Status: status, Data: data},
	}
}

// JSONError maps an error to a JSON error response. ValidationError
// renders as 422 with per-field details, HTTPError uses its own code,
// anything else is a 500.
func JSONError(err error) Response {
	status := http.StatusInternalServerError
	detail := &ErrorDetail{
		Code:    ErrInternalServerError.Key,
		Message: err.Error(),
	}

	var valErr ValidationError
	var httpErr HTTPError
	switch {
	case errors.As(err, &valErr):
		status = http.StatusUnprocessableEntity
		detail.Code = "validation_error"
		detail.Message = valErr.Error()
		if len(valErr) > 0 {
			detail.Details = make(map[string][]string)
			maps.Copy(detail.Details, valErr)
		}
	case errors.As(err, &httpErr):
		status = httpErr.Code
		detail.Code = httpErr.Key
		detail.Message = http.StatusText(httpErr.Code)
	}

	return jsonResponse{
		status: status,
		body:   JSONBody{Error: detail},
	}
}

// JSONErrorWithCode creates an error response with an explicit code and
// message, bypassing the error-type mapping.
func JSONErrorWithCode(code int, errCode, message string) Response {
	return jsonResponse{
		status: code,
		body:   JSONBody{Error: &ErrorDetail{Code: errCode, Message: message}},
	}
}
