package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"

	"tbpedia-dashboard/internal/apiclient"
	"tbpedia-dashboard/internal/apperr"
	"tbpedia-dashboard/internal/guard"
	"tbpedia-dashboard/internal/session"
)

type ErrorResponse struct {
	Error    string            `json:"error"`
	Message  string            `json:"message,omitempty"`
	Fields   map[string]string `json:"fields,omitempty"`
	Redirect string            `json:"redirect,omitempty"`
}

func respondWithJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(payload)
}

func respondWithError(w http.ResponseWriter, code int, errorCode, message string) {
	respondWithJSON(w, code, ErrorResponse{Error: errorCode, Message: message})
}

// respondWithAPIError renders err with its taxonomy status. Unauthorized
// answers point the front end back to sign-in; the cookie was already
// cleared by the client hook.
func respondWithAPIError(w http.ResponseWriter, err error) {
	resp := ErrorResponse{
		Error:   string(apperr.KindOf(err)),
		Message: apperr.Message(err),
	}
	var e *apperr.Error
	if errors.As(err, &e) {
		resp.Fields = e.Fields
	}
	if apperr.Is(err, apperr.KindUnauthorized) {
		resp.Redirect = guard.SignInPath
	}
	respondWithJSON(w, apperr.HTTPStatus(err), resp)
}

// decodeJSON reads a request body into v. An empty body leaves v untouched.
func decodeJSON(r *http.Request, v any) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	if err != nil {
		return apperr.Wrap(apperr.KindValidation, err, "Invalid request body")
	}
	return nil
}

// boundClient returns the request's session and a client that expires it on
// any 401.
func boundClient(r *http.Request, base *apiclient.Client) (*session.Store, *apiclient.Client, bool) {
	store, ok := session.FromContext(r.Context())
	if !ok {
		return nil, nil, false
	}
	return store, base.WithSession(store, store.Expire), true
}

func queryInt(r *http.Request, key string, fallback int) int {
	v, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil || v < 1 {
		return fallback
	}
	return v
}

func logFor(r *http.Request, fallback zerolog.Logger) *zerolog.Logger {
	if l := zerolog.Ctx(r.Context()); l.GetLevel() != zerolog.Disabled {
		return l
	}
	return &fallback
}
