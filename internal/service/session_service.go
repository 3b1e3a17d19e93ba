package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sessionkit/cookie-session/internal/auth"
	"github.com/sessionkit/cookie-session/internal/domain"
	"github.com/sessionkit/cookie-session/internal/events"
	"github.com/sessionkit/cookie-session/internal/repository"
	apperrors "github.com/sessionkit/cookie-session/pkg/util"
)

// SessionService coordinates registration, login and logout.
type SessionService struct {
	users      repository.UserRepository
	denylist   auth.Denylist
	dispatcher events.Dispatcher
	logger     *zap.Logger
	bcryptCost int
	now        func() time.Time
}

// SessionDependencies encapsulates collaborators of the session service.
type SessionDependencies struct {
	UserRepo   repository.UserRepository
	Denylist   auth.Denylist
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// NewSessionService builds the service.
func NewSessionService(bcryptCost int, deps SessionDependencies) *SessionService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionService{
		users:      deps.UserRepo,
		denylist:   deps.Denylist,
		dispatcher: deps.Dispatcher,
		logger:     logger,
		bcryptCost: bcryptCost,
		now:        time.Now,
	}
}

// Register creates a new account.
func (s *SessionService) Register(ctx context.Context, name, email, password string) (*domain.User, error) {
	email = normalizeEmail(email)
	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, apperrors.NewConflict(repository.ErrEmailTaken.Error())
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, err
	}

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Name:         strings.TrimSpace(name),
		Email:        email,
		PasswordHash: hash,
		Status:       domain.UserStatusActive,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrEmailTaken) {
			return nil, apperrors.NewConflict(err.Error())
		}
		return nil, err
	}

	s.publish(ctx, events.EventUserRegistered, user.ID, nil)
	return user, nil
}

// Authenticate checks credentials and returns the active account.
func (s *SessionService) Authenticate(ctx context.Context, email, password string) (*domain.User, error) {
	user, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, apperrors.NewUnauthorized("invalid credentials")
		}
		return nil, err
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, apperrors.NewUnauthorized("invalid credentials")
	}
	if user.Status != domain.UserStatusActive {
		return nil, apperrors.NewUnauthorized("account suspended")
	}
	return user, nil
}

// NewSession allocates session metadata for user.
func (s *SessionService) NewSession(user *domain.User) domain.Session {
	return domain.Session{
		ID:       uuid.NewString(),
		UserID:   user.ID,
		IssuedAt: s.now(),
	}
}

// Claims builds the token payload for user.
func (s *SessionService) Claims(user *domain.User) map[string]any {
	return map[string]any{
		"email": user.Email,
		"name":  user.Name,
	}
}

// SessionStarted records a session that was written to the client.
func (s *SessionService) SessionStarted(ctx context.Context, session domain.Session) {
	s.publish(ctx, events.EventSessionIssued, session.UserID, events.SessionPayload{
		SessionID: session.ID,
		ExpiresAt: session.ExpiresAt,
	})
}

// EndSession denylists the token behind claims until it would have expired.
// Without a configured denylist this only records the event.
func (s *SessionService) EndSession(ctx context.Context, claims auth.Claims) error {
	jti, _ := claims["jti"].(string)
	subject, _ := claims.GetSubject()

	var expiresAt time.Time
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		expiresAt = exp.Time
	}

	if s.denylist != nil && jti != "" && !expiresAt.IsZero() {
		if err := s.denylist.Revoke(ctx, jti, expiresAt); err != nil {
			return err
		}
	}

	s.publish(ctx, events.EventSessionRevoked, subject, events.SessionPayload{
		SessionID: jti,
		ExpiresAt: expiresAt,
	})
	return nil
}

// SessionRejected is the reject hook handed to auth.Sessions.
func (s *SessionService) SessionRejected(ctx context.Context, cookieName, path string, reason error) {
	s.publish(ctx, events.EventSessionRejected, "", events.RejectionPayload{
		Cookie: cookieName,
		Path:   path,
		Reason: reason.Error(),
	})
}

func (s *SessionService) publish(ctx context.Context, eventType events.EventType, subjectID string, payload interface{}) {
	if s.dispatcher == nil {
		return
	}
	err := s.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		SubjectID: subjectID,
		Timestamp: s.now(),
		Payload:   payload,
	})
	if err != nil {
		s.logger.Warn("event handler failed", zap.String("event", string(eventType)), zap.Error(err))
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
