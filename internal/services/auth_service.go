package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"

	"tbpedia-dashboard/internal/apiclient"
	"tbpedia-dashboard/internal/apperr"
	"tbpedia-dashboard/internal/guard"
	"tbpedia-dashboard/internal/models"
	"tbpedia-dashboard/internal/session"
	"tbpedia-dashboard/internal/validation"
)

// AuthService runs the sign-in, sign-up and identity flows against the
// remote API. It owns no state; the session store passed in does.
type AuthService struct {
	client *apiclient.Client
	logger zerolog.Logger
}

func NewAuthService(client *apiclient.Client, logger zerolog.Logger) *AuthService {
	return &AuthService{
		client: client,
		logger: logger,
	}
}

type staticToken string

func (t staticToken) Credential() (string, bool) {
	return string(t), t != ""
}

// SignIn exchanges name and password for a credential, resolves the identity
// behind it and starts the session in store.
func (s *AuthService) SignIn(ctx context.Context, store *session.Store, req *models.SignInRequest) (*models.AuthResponse, error) {
	if err := validation.Validate(req); err != nil {
		return nil, err
	}

	var signIn models.SignInResponse
	if err := s.client.DoPublic(ctx, http.MethodPost, apiclient.PathSignIn, req, &signIn); err != nil {
		s.logger.Warn().Err(err).Str("name", req.Name).Msg("Sign-in failed")
		return nil, err
	}
	if signIn.Token == "" {
		return nil, apperr.New(apperr.KindUnknown, "sign-in returned no token")
	}

	user, err := s.Self(ctx, signIn.Token)
	if err != nil {
		return nil, fmt.Errorf("resolve identity: %w", err)
	}
	if err := store.Login(user, signIn.Token); err != nil {
		return nil, err
	}

	return &models.AuthResponse{
		User:    user,
		Landing: guard.Landing(user.Role),
	}, nil
}

// SignUp registers a buyer or seller account. It never signs in.
func (s *AuthService) SignUp(ctx context.Context, kind models.SignUpType, payload any) error {
	switch kind {
	case models.SignUpBuyer, models.SignUpSeller:
	default:
		return apperr.Validation(fmt.Sprintf("unknown sign-up type %q", kind), nil)
	}
	if err := validation.Validate(payload); err != nil {
		return err
	}

	path := apiclient.PathSignUp + "?type=" + string(kind)
	if err := s.client.DoPublic(ctx, http.MethodPost, path, payload, nil); err != nil {
		s.logger.Warn().Err(err).Str("type", string(kind)).Msg("Sign-up failed")
		return err
	}
	s.logger.Info().Str("type", string(kind)).Msg("Account registered")
	return nil
}

// Self resolves the identity behind credential. It satisfies
// session.LookupFunc.
func (s *AuthService) Self(ctx context.Context, credential string) (*models.User, error) {
	var user models.User
	err := s.client.WithSession(staticToken(credential), nil).Do(ctx, http.MethodGet, apiclient.PathSelf, nil, nil, &user)
	if err != nil {
		return nil, err
	}
	if !user.Role.Valid() {
		return nil, errors.New("identity has no usable role")
	}
	return &user, nil
}

// SignOut revokes credential remotely. It satisfies session.SignOutFunc.
func (s *AuthService) SignOut(ctx context.Context, credential string) error {
	return s.client.WithSession(staticToken(credential), nil).Do(ctx, http.MethodPost, apiclient.PathSignOut, nil, nil, nil)
}

// NewStore builds a session store over jar wired to this service.
func (s *AuthService) NewStore(jar session.CredentialJar, opts ...session.Option) *session.Store {
	opts = append([]session.Option{session.WithSignOut(s.SignOut)}, opts...)
	return session.New(jar, s.Self, s.logger, opts...)
}
