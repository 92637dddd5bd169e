package httpserver

import (
	"errors"
	"fmt"
	"net/http"
	"net/mail"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/jschilling12/justabill/internal/domain"
	apperrors "github.com/jschilling12/justabill/internal/platform/errors"
)

const minPasswordLength = 8

func (s *Server) registerUserRoutes() {
	s.echo.POST("/api/auth/register", s.handleRegister, s.requireUser)
	s.echo.POST("/api/auth/login", s.handleLogin)
	s.echo.GET("/api/me", s.handleMe, s.requireUser)
	s.echo.PUT("/api/me/affiliation", s.handleUpdateAffiliation, s.requireUser)
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func validateCredentials(req credentialsRequest) error {
	if _, err := mail.ParseAddress(req.Email); err != nil {
		return apperrors.ValidationError("invalid email address")
	}
	if len(req.Password) < minPasswordLength {
		return apperrors.ValidationError("password must be at least 8 characters")
	}
	return nil
}

type authResponse struct {
	Token string       `json:"token"`
	User  *domain.User `json:"user"`
}

// handleRegister upgrades the calling user (anonymous or not) to a
// registered account, keeping their vote history.
func (s *Server) handleRegister(c echo.Context) error {
	ctx := c.Request().Context()

	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	var req credentialsRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body")
	}
	if err := validateCredentials(req); err != nil {
		return err
	}

	user, err := s.app.Register(ctx, userID, req.Email, req.Password)
	switch {
	case errors.Is(err, domain.ErrEmailTaken):
		return apperrors.ConflictError("email already registered")
	case errors.Is(err, domain.ErrUserNotFound):
		return apperrors.NotFoundError("user not found")
	case err != nil:
		return apperrors.InternalError("failed to register", err)
	}

	token, err := s.tokens.Mint(user.ID)
	if err != nil {
		return apperrors.InternalError("failed to issue token", err)
	}

	if err := c.JSON(http.StatusCreated, authResponse{Token: token, User: user}); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func (s *Server) handleLogin(c echo.Context) error {
	ctx := c.Request().Context()

	var req credentialsRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body")
	}

	user, err := s.app.Login(ctx, req.Email, req.Password)
	if errors.Is(err, domain.ErrInvalidCredentials) {
		return apperrors.UnauthorizedError("invalid email or password")
	}
	if err != nil {
		return apperrors.InternalError("failed to log in", err)
	}

	token, err := s.tokens.Mint(user.ID)
	if err != nil {
		return apperrors.InternalError("failed to issue token", err)
	}

	if err := c.JSON(http.StatusOK, authResponse{Token: token, User: user}); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func (s *Server) handleMe(c echo.Context) error {
	ctx := c.Request().Context()

	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	user, err := s.app.GetUser(ctx, userID)
	if errors.Is(err, domain.ErrUserNotFound) {
		return apperrors.NotFoundError("user not found")
	}
	if err != nil {
		return apperrors.InternalError("failed to load user", err)
	}

	if err := c.JSON(http.StatusOK, user); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

type affiliationRequest struct {
	Affiliation string `json:"affiliation"`
}

func (s *Server) handleUpdateAffiliation(c echo.Context) error {
	ctx := c.Request().Context()

	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	var req affiliationRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body")
	}
	if strings.TrimSpace(req.Affiliation) == "" {
		return apperrors.ValidationError("affiliation must not be empty")
	}

	user, err := s.app.UpdateAffiliation(ctx, userID, req.Affiliation)
	if errors.Is(err, domain.ErrUserNotFound) {
		return apperrors.NotFoundError("user not found")
	}
	if err != nil {
		return apperrors.InternalError("failed to update affiliation", err)
	}

	if err := c.JSON(http.StatusOK, user); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}
