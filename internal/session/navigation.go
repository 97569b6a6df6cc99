package session

import (
	"net/http"

	"github.com/gorilla/sessions"
	"github.com/rs/zerolog"
)

const (
	navSessionName = "tbpedia_nav"
	returnToKey    = "return_to"
)

// Navigator keeps short-lived navigation state in a signed cookie: the
// location a signed-out visitor asked for, and flash messages.
type Navigator struct {
	store  *sessions.CookieStore
	logger zerolog.Logger
}

func NewNavigator(secret []byte, secure bool, logger zerolog.Logger) *Navigator {
	store := sessions.NewCookieStore(secret)
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   15 * 60,
		Secure:   secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	return &Navigator{store: store, logger: logger}
}

func (n *Navigator) get(r *http.Request) *sessions.Session {
	s, err := n.store.Get(r, navSessionName)
	if err != nil {
		// Undecodable cookies yield a fresh session.
		n.logger.Debug().Err(err).Msg("Discarding navigation cookie")
	}
	return s
}

func (n *Navigator) save(w http.ResponseWriter, r *http.Request, s *sessions.Session) {
	if err := s.Save(r, w); err != nil {
		n.logger.Warn().Err(err).Msg("Failed to save navigation cookie")
	}
}

// RememberReturnTo records where the visitor was heading before being sent
// to sign in.
func (n *Navigator) RememberReturnTo(w http.ResponseWriter, r *http.Request, location string) {
	s := n.get(r)
	s.Values[returnToKey] = location
	n.save(w, r, s)
}

// PeekReturnTo reads the remembered location without consuming it.
func (n *Navigator) PeekReturnTo(r *http.Request) string {
	loc, _ := n.get(r).Values[returnToKey].(string)
	return loc
}

// TakeReturnTo reads and forgets the remembered location.
func (n *Navigator) TakeReturnTo(w http.ResponseWriter, r *http.Request) string {
	s := n.get(r)
	loc, _ := s.Values[returnToKey].(string)
	if loc != "" {
		delete(s.Values, returnToKey)
		n.save(w, r, s)
	}
	return loc
}

func (n *Navigator) AddFlash(w http.ResponseWriter, r *http.Request, message string) {
	s := n.get(r)
	s.AddFlash(message)
	n.save(w, r, s)
}

func (n *Navigator) Flashes(w http.ResponseWriter, r *http.Request) []string {
	s := n.get(r)
	raw := s.Flashes()
	if len(raw) == 0 {
		return nil
	}
	n.save(w, r, s)
	out := make([]string, 0, len(raw))
	for _, f := range raw {
		if msg, ok := f.(string); ok {
			out = append(out, msg)
		}
	}
	return out
}
