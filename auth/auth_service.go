// Package auth orchestrates the authorization-code flow: pending records at
// the authorize step, live credential validation at submission, single-use
// codes, and token issuance and rotation at the token endpoint.
package auth

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/gridbase/gridgate/auth/authcode"
	"github.com/gridbase/gridgate/auth/pending"
	"github.com/gridbase/gridgate/backend"
	errs "github.com/gridbase/gridgate/internal/errors"
	"github.com/gridbase/gridgate/session"
	"github.com/gridbase/gridgate/token"
)

// Repos holds the registries the Service operates on.
type Repos struct {
	Pending  pending.Repo
	Codes    authcode.Repo
	Sessions *session.Registry
}

// Service implements the authorization flow against the three registries.
type Service struct {
	repos     Repos
	issuer    *token.Issuer
	validator backend.CredentialValidator

	authCodeTTL time.Duration
	scope       string
	nowTime     func() time.Time
}

type ServiceOption func(*Service)

// WithNowTime sets the clock function (primarily for testing).
func WithNowTime(nowFunc func() time.Time) ServiceOption {
	return func(s *Service) {
		s.nowTime = nowFunc
	}
}

// WithAuthCodeTTL overrides the authorization-code TTL.
func WithAuthCodeTTL(ttl time.Duration) ServiceOption {
	return func(s *Service) {
		s.authCodeTTL = ttl
	}
}

// WithScope overrides the fixed scope string in token responses.
func WithScope(scope string) ServiceOption {
	return func(s *Service) {
		s.scope = scope
	}
}

// NewService initializes the authorization service with its dependencies.
func NewService(repos Repos, issuer *token.Issuer, validator backend.CredentialValidator, options ...ServiceOption) (*Service, error) {
	if repos.Pending == nil {
		return nil, errors.New("[NewService] pending repo is required")
	}
	if repos.Codes == nil {
		return nil, errors.New("[NewService] code repo is required")
	}
	if repos.Sessions == nil {
		return nil, errors.New("[NewService] session registry is required")
	}
	if issuer == nil {
		return nil, errors.New("[NewService] token issuer is required")
	}
	if validator == nil {
		return nil, errors.New("[NewService] credential validator is required")
	}

	service := &Service{
		repos:       repos,
		issuer:      issuer,
		validator:   validator,
		authCodeTTL: authcode.DefaultTTL,
		scope:       "gridbase:api",
		nowTime:     time.Now,
	}
	for _, opt := range options {
		opt(service)
	}
	return service, nil
}

// Authorize validates the request and creates a pending authorization. The
// returned id keys the credential-collection form; no authentication happens
// here.
func (s *Service) Authorize(req *AuthorizeRequest) (string, error) {
	if err := req.Validate(); err != nil {
		return "", err
	}

	id := uuid.New().String()
	if err := s.repos.Pending.Upsert(&pending.Authorization{
		ID:                  id,
		CodeChallenge:       req.CodeChallenge,
		CodeChallengeMethod: req.CodeChallengeMethod,
		RedirectURI:         req.RedirectURI,
		State:               req.State,
		CreatedAt:           s.nowTime(),
	}); err != nil {
		return "", errors.Wrap(err, "[Service.Authorize] store pending authorization")
	}
	return id, nil
}

// PendingAuthorization looks up a live pending record, for re-rendering the
// credential form.
func (s *Service) PendingAuthorization(id string) (*pending.Authorization, error) {
	return s.repos.Pending.Get(id)
}

// SubmitResult carries the redirect the submission handler issues on
// success.
type SubmitResult struct {
	RedirectURI string
	Code        string
	State       string
}

// Submit attaches credentials to a pending authorization. The credentials
// are trusted only after a live connectivity test against the backend; on
// success the session is created and persisted with its tokens unset, a
// single-use code is minted, and the pending record is deleted.
func (s *Service) Submit(ctx context.Context, pendingID string, creds backend.Credentials) (*SubmitResult, error) {
	pendingAuth, err := s.repos.Pending.Get(pendingID)
	if err != nil {
		return nil, err
	}

	if !creds.Complete() {
		return nil, errs.ErrMissingCredentials
	}

	if err := s.validator.Validate(ctx, creds); err != nil {
		return nil, s.recordFailedAttempt(pendingAuth, err)
	}

	now := s.nowTime()
	sess := &session.Session{
		ID:          uuid.New().String(),
		Credentials: creds,
		CreatedAt:   now,
	}
	if err := s.repos.Sessions.Upsert(sess); err != nil {
		return nil, errors.Wrap(err, "[Service.Submit] persist session")
	}

	code, err := authcode.New(sess.ID, now.Add(s.authCodeTTL))
	if err != nil {
		return nil, errors.Wrap(err, "[Service.Submit] mint authorization code")
	}
	code.CodeChallenge = pendingAuth.CodeChallenge
	code.CodeChallengeMethod = pendingAuth.CodeChallengeMethod
	if err := s.repos.Codes.Put(code); err != nil {
		return nil, errors.Wrap(err, "[Service.Submit] store authorization code")
	}

	if err := s.repos.Pending.Delete(pendingID); err != nil {
		return nil, errors.Wrap(err, "[Service.Submit] delete pending authorization")
	}

	log.Info().Str("session_id", sess.ID).Msg("session created after live credential validation")
	return &SubmitResult{
		RedirectURI: pendingAuth.RedirectURI,
		Code:        code.Code,
		State:       pendingAuth.State,
	}, nil
}

// recordFailedAttempt keeps the pending record retriable until the TTL or
// the attempt cap, whichever comes first.
func (s *Service) recordFailedAttempt(pendingAuth *pending.Authorization, cause error) error {
	pendingAuth.Attempts++
	if pendingAuth.Attempts >= pending.MaxAttempts {
		_ = s.repos.Pending.Delete(pendingAuth.ID)
		log.Warn().Str("pending_id", pendingAuth.ID).Msg("pending authorization deleted after too many failed attempts")
		return errs.ErrTooManyAttempts
	}
	if err := s.repos.Pending.Upsert(pendingAuth); err != nil {
		return errors.Wrap(err, "[Service.recordFailedAttempt] update pending authorization")
	}
	return errs.Wrapf(errs.ErrBackendRejected, "credential validation failed: %v", cause)
}

// Token handles the token endpoint, dispatching on grant type.
func (s *Service) Token(req *TokenRequest) (*TokenResponse, error) {
	switch req.GrantType {
	case AuthorizationCodeGrant:
		return s.exchangeCode(req)
	case RefreshTokenGrant:
		return s.refresh(req)
	default:
		return nil, errs.Wrapf(errs.ErrUnsupportedGrantType, "grant_type %q", req.GrantType)
	}
}

func (s *Service) exchangeCode(req *TokenRequest) (*TokenResponse, error) {
	if req.Code == "" {
		return nil, errs.Wrapf(errs.ErrInvalidRequest, "code is required")
	}

	code, err := s.repos.Codes.Redeem(req.Code)
	if err != nil {
		return nil, errs.Wrapf(errs.ErrInvalidGrant, "%v", err)
	}

	if !checkCodeChallenge(code.CodeChallenge, req.CodeVerifier, code.CodeChallengeMethod) {
		return nil, errs.ErrPKCEMismatch
	}

	sess, err := s.issuer.Issue(code.SessionID)
	if err != nil {
		return nil, errs.Wrapf(errs.ErrInvalidGrant, "issue tokens: %v", err)
	}
	return s.tokenResponse(sess), nil
}

func (s *Service) refresh(req *TokenRequest) (*TokenResponse, error) {
	if req.RefreshToken == "" {
		return nil, errs.Wrapf(errs.ErrInvalidRequest, "refresh_token is required")
	}

	sess, err := s.issuer.Rotate(req.RefreshToken)
	if err != nil {
		return nil, errs.Wrapf(errs.ErrInvalidGrant, "%v", err)
	}
	return s.tokenResponse(sess), nil
}

// Revoke destroys the session holding the given access or refresh token.
func (s *Service) Revoke(rawToken string) error {
	return s.issuer.Revoke(rawToken)
}

// ResolveBearer resolves an access token to its session for the dispatch
// gate.
func (s *Service) ResolveBearer(accessToken string) (*session.Session, error) {
	return s.repos.Sessions.FindByAccessToken(accessToken)
}

func (s *Service) tokenResponse(sess *session.Session) *TokenResponse {
	return &TokenResponse{
		AccessToken:  sess.AccessToken,
		TokenType:    "Bearer",
		ExpiresIn:    int64(s.issuer.Lifetime() / time.Second),
		RefreshToken: sess.RefreshToken,
		Scope:        s.scope,
	}
}
