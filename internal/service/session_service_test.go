package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/sessionkit/cookie-session/internal/auth"
	"github.com/sessionkit/cookie-session/internal/domain"
	"github.com/sessionkit/cookie-session/internal/events"
	"github.com/sessionkit/cookie-session/internal/repository"
	apperrors "github.com/sessionkit/cookie-session/pkg/util"
)

type memoryUsers struct {
	mu    sync.Mutex
	byID  map[string]*domain.User
	count int
}

func newMemoryUsers() *memoryUsers {
	return &memoryUsers{byID: map[string]*domain.User{}}
}

func (m *memoryUsers) Create(_ context.Context, user *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byID {
		if u.Email == user.Email {
			return repository.ErrEmailTaken
		}
	}
	m.count++
	user.ID = "user-" + string(rune('0'+m.count))
	cp := *user
	m.byID[user.ID] = &cp
	return nil
}

func (m *memoryUsers) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byID {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

type memoryDenylist struct {
	revoked map[string]time.Time
}

func (d *memoryDenylist) Revoke(_ context.Context, jti string, until time.Time) error {
	d.revoked[jti] = until
	return nil
}

func (d *memoryDenylist) IsRevoked(_ context.Context, jti string) (bool, error) {
	_, ok := d.revoked[jti]
	return ok, nil
}

func newTestService(t *testing.T) (*SessionService, *memoryDenylist, *[]events.Event) {
	t.Helper()
	dispatcher := events.NewInMemoryDispatcher()
	var published []events.Event
	for _, et := range events.AllEventTypes {
		dispatcher.Subscribe(et, func(_ context.Context, e events.Event) error {
			published = append(published, e)
			return nil
		})
	}
	denylist := &memoryDenylist{revoked: map[string]time.Time{}}
	svc := NewSessionService(bcrypt.MinCost, SessionDependencies{
		UserRepo:   newMemoryUsers(),
		Denylist:   denylist,
		Dispatcher: dispatcher,
	})
	return svc, denylist, &published
}

func statusOf(err error) int {
	var de *apperrors.DomainError
	if errors.As(err, &de) {
		return de.HTTPStatus
	}
	return 0
}

func TestRegisterAndAuthenticate(t *testing.T) {
	svc, _, published := newTestService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, " Ada ", "Ada@Example.com ", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", user.Email)
	assert.Equal(t, "Ada", user.Name)
	assert.NotEqual(t, "s3cret", user.PasswordHash)
	require.Len(t, *published, 1)
	assert.Equal(t, events.EventUserRegistered, (*published)[0].Type)

	got, err := svc.Authenticate(ctx, "ada@example.com", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	_, err = svc.Authenticate(ctx, "ada@example.com", "wrong")
	assert.Equal(t, 401, statusOf(err))

	_, err = svc.Authenticate(ctx, "nobody@example.com", "s3cret")
	assert.Equal(t, 401, statusOf(err))
}

func TestRegister_DuplicateEmail(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "Ada", "ada@example.com", "pw")
	require.NoError(t, err)

	_, err = svc.Register(ctx, "Ada", "ADA@example.com", "pw")
	assert.Equal(t, 409, statusOf(err))
}

func TestEndSession_DenylistsJTI(t *testing.T) {
	svc, denylist, published := newTestService(t)
	exp := time.Now().Add(time.Hour)

	claims := auth.Claims{
		"sub": "user-1",
		"jti": "session-1",
		"exp": float64(exp.Unix()),
	}
	require.NoError(t, svc.EndSession(context.Background(), claims))

	until, ok := denylist.revoked["session-1"]
	require.True(t, ok)
	assert.Equal(t, exp.Unix(), until.Unix())

	require.Len(t, *published, 1)
	assert.Equal(t, events.EventSessionRevoked, (*published)[0].Type)
	assert.Equal(t, "user-1", (*published)[0].SubjectID)
}

func TestEndSession_WithoutJTI(t *testing.T) {
	svc, denylist, _ := newTestService(t)
	require.NoError(t, svc.EndSession(context.Background(), auth.Claims{"exp": float64(time.Now().Add(time.Minute).Unix())}))
	assert.Empty(t, denylist.revoked)
}

func TestNewSessionAndClaims(t *testing.T) {
	svc, _, _ := newTestService(t)
	user := &domain.User{ID: "u1", Email: "a@b.c", Name: "A"}

	s1 := svc.NewSession(user)
	s2 := svc.NewSession(user)
	assert.NotEqual(t, s1.ID, s2.ID)
	assert.Equal(t, "u1", s1.UserID)
	assert.Equal(t, map[string]any{"email": "a@b.c", "name": "A"}, svc.Claims(user))
}
