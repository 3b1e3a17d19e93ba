package handlers

import (
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/sessionkit/cookie-session/internal/api/dto"
	"github.com/sessionkit/cookie-session/internal/auth"
	"github.com/sessionkit/cookie-session/internal/domain"
	"github.com/sessionkit/cookie-session/internal/service"
	apperrors "github.com/sessionkit/cookie-session/pkg/util"
)

// SessionHandler exposes register, login, me and logout.
type SessionHandler struct {
	svc        *service.SessionService
	sessions   *auth.Sessions
	cookieName string
	tokenTTL   string
	logger     *zap.Logger
}

// NewSessionHandler constructs handler.
func NewSessionHandler(svc *service.SessionService, sessions *auth.Sessions, cookieName, tokenTTL string, logger *zap.Logger) *SessionHandler {
	return &SessionHandler{svc: svc, sessions: sessions, cookieName: cookieName, tokenTTL: tokenTTL, logger: logger}
}

// Register handles POST /auth/register.
func (h *SessionHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if req.Email == "" || req.Password == "" || req.Name == "" {
		return apperrors.NewValidationError("name, email, password required", nil)
	}

	user, err := h.svc.Register(c.UserContext(), req.Name, req.Email, req.Password)
	if err != nil {
		return err
	}

	session, err := h.startSession(c, user)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"data": fiber.Map{"user": userResponse(user), "session": session},
	})
}

// Login handles POST /auth/login.
func (h *SessionHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if req.Email == "" || req.Password == "" {
		return apperrors.NewValidationError("email and password required", nil)
	}

	user, err := h.svc.Authenticate(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}

	session, err := h.startSession(c, user)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"data": fiber.Map{"user": userResponse(user), "session": session},
	})
}

// Me handles GET /auth/me. It runs behind the credential middleware.
func (h *SessionHandler) Me(c *fiber.Ctx) error {
	var claims dto.SessionClaims
	if err := auth.BindPayload(c, &claims); err != nil {
		return apperrors.NewInternalError(err)
	}
	return c.JSON(fiber.Map{"data": claims})
}

// Logout handles POST /auth/logout. The cookie is always cleared; a token that
// still verifies is also denylisted.
func (h *SessionHandler) Logout(c *fiber.Ctx) error {
	claims, verifyErr := h.sessions.Verify(c, h.cookieName)
	h.sessions.Revoke(c, h.cookieName)

	if verifyErr == nil {
		if err := h.svc.EndSession(c.UserContext(), claims); err != nil {
			return apperrors.NewInternalError(err)
		}
	} else {
		h.logger.Debug("logout without valid credential", zap.Error(verifyErr))
	}

	return c.JSON(dto.MessageResponse{Status: http.StatusOK, Message: "Logged out"})
}

func (h *SessionHandler) startSession(c *fiber.Ctx, user *domain.User) (dto.SessionResponse, error) {
	session := h.svc.NewSession(user)
	expiresAt, err := h.sessions.Issue(c, h.svc.Claims(user), h.cookieName, auth.SignOptions{
		ExpiresIn: h.tokenTTL,
		Subject:   user.ID,
		JWTID:     session.ID,
	})
	if err != nil {
		h.logger.Error("issue session", zap.String("user_id", user.ID), zap.Error(err))
		return dto.SessionResponse{}, apperrors.NewInternalError(err)
	}

	session.ExpiresAt = expiresAt
	h.svc.SessionStarted(c.UserContext(), session)
	return dto.SessionResponse{ID: session.ID, ExpiresAt: expiresAt.UTC().Truncate(time.Second)}, nil
}

func userResponse(user *domain.User) dto.UserResponse {
	return dto.UserResponse{ID: user.ID, Name: user.Name, Email: user.Email}
}
