package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"fxhedge/internal/fetcher"
	"fxhedge/internal/forward"
	"fxhedge/internal/hedging"
)

// Problem is an RFC7807 problem details body.
type Problem struct {
	Title  string            `json:"title"`
	Status int               `json:"status"`
	Detail string            `json:"detail,omitempty"`
	Fields map[string]string `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeProblem(w http.ResponseWriter, status int, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(Problem{Title: http.StatusText(status), Status: status, Detail: detail})
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, forward.ErrInvalidPair),
		errors.Is(err, forward.ErrTenorNotFound),
		errors.Is(err, forward.ErrInvalidSpot):
		return http.StatusBadRequest
	case errors.Is(err, fetcher.ErrPairUnavailable),
		errors.Is(err, forward.ErrUnknownCurrency):
		return http.StatusNotFound
	case errors.Is(err, hedging.ErrEmptyCurve):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
