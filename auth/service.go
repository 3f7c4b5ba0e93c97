package auth

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/user/shortlink-go/apperror"
	"github.com/user/shortlink-go/metrics"
	"github.com/user/shortlink-go/users"
)

// Recorder receives the outcome of every registration and login attempt.
// *metrics.AuthMetrics implements it.
type Recorder interface {
	ObserveRegistration(outcome string)
	ObserveLogin(outcome string)
}

type nopRecorder struct{}

func (nopRecorder) ObserveRegistration(string) {}
func (nopRecorder) ObserveLogin(string)        {}

// dummyPassword is hashed once and verified against when a login names an
// unknown email, so both rejection paths pay for one bcrypt comparison.
const dummyPassword = "shortlink-timing-equaliser"

// AuthService runs the registration and authentication flows.
type AuthService struct {
	store     users.Store
	hasher    PasswordHasher
	tokens    TokenSigner
	validator *Validator
	recorder  Recorder
	logger    *slog.Logger

	dummyOnce   sync.Once
	dummyDigest string
}

// NewAuthService wires the flows to their collaborators. A nil recorder disables
// outcome counting; a nil logger falls back to slog.Default().
func NewAuthService(store users.Store, hasher PasswordHasher, tokens TokenSigner, recorder Recorder, logger *slog.Logger) *AuthService {
	if recorder == nil {
		recorder = nopRecorder{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthService{
		store:     store,
		hasher:    hasher,
		tokens:    tokens,
		validator: NewValidator(),
		recorder:  recorder,
		logger:    logger,
	}
}

// Register validates the payload, rejects an email or userName that is already
// taken, hashes the password and persists the new user.
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*users.User, error) {
	if err := s.validator.Validate(req); err != nil {
		s.recorder.ObserveRegistration(metrics.OutcomeInvalid)
		return nil, err
	}
	email := normalizeEmail(req.Email)

	exists, err := s.store.ExistsByEmailOrUserName(ctx, email, req.UserName)
	if err != nil {
		return nil, s.registrationFailed(ctx, "checking existing user", err)
	}
	if exists {
		s.recorder.ObserveRegistration(metrics.OutcomeConflict)
		return nil, apperror.NewConflictError(apperror.MsgAlreadyRegistered, users.ErrDuplicate)
	}

	digest, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, s.registrationFailed(ctx, "hashing password", err)
	}

	user := &users.User{
		UserName:     req.UserName,
		Email:        email,
		PasswordHash: digest,
	}
	if err := s.store.Create(ctx, user); err != nil {
		if errors.Is(err, users.ErrDuplicate) {
			// Lost a race with a concurrent registration; the unique index caught it.
			s.recorder.ObserveRegistration(metrics.OutcomeConflict)
			return nil, apperror.NewConflictError(apperror.MsgAlreadyRegistered, err)
		}
		return nil, s.registrationFailed(ctx, "creating user", err)
	}

	s.recorder.ObserveRegistration(metrics.OutcomeSuccess)
	s.logger.InfoContext(ctx, "user registered",
		slog.String("user_id", user.ID),
		slog.String("request_id", middleware.GetReqID(ctx)),
	)
	return user, nil
}

// Login validates the payload, verifies the credentials and issues a token.
// An unknown email and a wrong password produce the same AuthError.
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	if err := s.validator.Validate(req); err != nil {
		s.recorder.ObserveLogin(metrics.OutcomeInvalid)
		return nil, err
	}

	user, err := s.store.GetByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			s.burnVerify(req.Password)
			s.recorder.ObserveLogin(metrics.OutcomeDenied)
			return nil, apperror.NewAuthError(err)
		}
		return nil, s.loginFailed(ctx, "looking up user", err)
	}

	ok, err := s.hasher.Verify(req.Password, user.PasswordHash)
	if err != nil {
		return nil, s.loginFailed(ctx, "verifying password", err)
	}
	if !ok {
		s.recorder.ObserveLogin(metrics.OutcomeDenied)
		return nil, apperror.NewAuthError(nil)
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, s.loginFailed(ctx, "issuing token", err)
	}

	s.recorder.ObserveLogin(metrics.OutcomeSuccess)
	return &LoginResponse{Data: token, Message: MsgLoggedIn}, nil
}

// burnVerify spends one bcrypt comparison against a throwaway digest.
func (s *AuthService) burnVerify(password string) {
	s.dummyOnce.Do(func() {
		digest, err := s.hasher.Hash(dummyPassword)
		if err == nil {
			s.dummyDigest = digest
		}
	})
	if s.dummyDigest != "" {
		_, _ = s.hasher.Verify(password, s.dummyDigest)
	}
}

func (s *AuthService) registrationFailed(ctx context.Context, step string, err error) error {
	s.recorder.ObserveRegistration(metrics.OutcomeError)
	s.logInternal(ctx, "registration failed", step, err)
	return apperror.NewInternalError(err)
}

func (s *AuthService) loginFailed(ctx context.Context, step string, err error) error {
	s.recorder.ObserveLogin(metrics.OutcomeError)
	s.logInternal(ctx, "login failed", step, err)
	return apperror.NewInternalError(err)
}

func (s *AuthService) logInternal(ctx context.Context, msg, step string, err error) {
	s.logger.ErrorContext(ctx, msg,
		slog.String("step", step),
		slog.String("request_id", middleware.GetReqID(ctx)),
		slog.Any("error", err),
	)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
