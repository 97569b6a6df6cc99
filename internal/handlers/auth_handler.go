package handlers

import (
	"net/http"

	"github.com/rs/zerolog"

	"tbpedia-dashboard/internal/guard"
	"tbpedia-dashboard/internal/models"
	"tbpedia-dashboard/internal/services"
	"tbpedia-dashboard/internal/session"
)

type AuthHandler struct {
	authService *services.AuthService
	nav         *session.Navigator
	policy      guard.Policy
	logger      zerolog.Logger
}

func NewAuthHandler(authService *services.AuthService, nav *session.Navigator, policy guard.Policy, logger zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		nav:         nav,
		policy:      policy,
		logger:      logger,
	}
}

type signInScreen struct {
	User     *models.User `json:"user,omitempty"`
	Landing  string       `json:"landing,omitempty"`
	ReturnTo string       `json:"return_to,omitempty"`
	Flashes  []string     `json:"flashes,omitempty"`
}

// SignInScreen describes the sign-in page. A visitor who is already signed
// in gets their landing location.
func (h *AuthHandler) SignInScreen(w http.ResponseWriter, r *http.Request) {
	screen := signInScreen{
		ReturnTo: h.nav.PeekReturnTo(r),
		Flashes:  h.nav.Flashes(w, r),
	}
	if store, ok := session.FromContext(r.Context()); ok {
		if u := store.User(); u != nil {
			screen.User = u
			screen.Landing = guard.Landing(u.Role)
		}
	}
	respondWithJSON(w, http.StatusOK, screen)
}

func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req models.SignInRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithAPIError(w, err)
		return
	}

	store, ok := session.FromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusInternalServerError, "internal_error", "Session unavailable")
		return
	}

	resp, err := h.authService.SignIn(r.Context(), store, &req)
	if err != nil {
		logFor(r, h.logger).Warn().Err(err).Str("name", req.Name).Msg("Sign-in rejected")
		respondWithAPIError(w, err)
		return
	}

	if returnTo := h.nav.TakeReturnTo(w, r); returnTo != "" && h.policy.Permits(returnTo, resp.User.Role) {
		resp.Landing = returnTo
	}
	respondWithJSON(w, http.StatusOK, resp)
}

func (h *AuthHandler) SignUpSellerScreen(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]any{"type": models.SignUpSeller})
}

func (h *AuthHandler) SignUpBuyerScreen(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]any{"type": models.SignUpBuyer})
}

func (h *AuthHandler) SignUpSeller(w http.ResponseWriter, r *http.Request) {
	var req models.SellerSignUpRequest
	h.signUp(w, r, models.SignUpSeller, &req)
}

func (h *AuthHandler) SignUpBuyer(w http.ResponseWriter, r *http.Request) {
	var req models.BuyerSignUpRequest
	h.signUp(w, r, models.SignUpBuyer, &req)
}

func (h *AuthHandler) signUp(w http.ResponseWriter, r *http.Request, kind models.SignUpType, req any) {
	if err := decodeJSON(r, req); err != nil {
		respondWithAPIError(w, err)
		return
	}
	if err := h.authService.SignUp(r.Context(), kind, req); err != nil {
		respondWithAPIError(w, err)
		return
	}

	h.nav.AddFlash(w, r, "Account created. Please sign in.")
	respondWithJSON(w, http.StatusCreated, map[string]string{
		"message":  "Account created",
		"redirect": guard.SignInPath,
	})
}

// SignOut always ends the local session, even when the remote sign-out
// fails.
func (h *AuthHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	if store, ok := session.FromContext(r.Context()); ok {
		store.Logout(r.Context())
	}
	respondWithJSON(w, http.StatusOK, map[string]string{"redirect": guard.SignInPath})
}
