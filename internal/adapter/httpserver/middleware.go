package httpserver

import (
	"crypto/subtle"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/jschilling12/justabill/internal/platform/correlation"
	apperrors "github.com/jschilling12/justabill/internal/platform/errors"
)

const (
	headerSessionID = "X-Session-ID"
	headerAdminKey  = "X-Admin-Key"
)

func correlationMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := correlation.WithID(c.Request().Context(), correlation.NewID())
		c.SetRequest(c.Request().WithContext(ctx))
		return next(c)
	}
}

// requireUser resolves the caller's identity and stores it under "userID".
// A bearer token identifies a registered user; otherwise a session ID
// header resolves to a (possibly freshly created) anonymous user.
func (s *Server) requireUser(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if header := c.Request().Header.Get(echo.HeaderAuthorization); header != "" {
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok {
				return apperrors.UnauthorizedError("malformed authorization header")
			}

			userID, err := s.tokens.Verify(token)
			if err != nil {
				return apperrors.UnauthorizedError("invalid or expired token")
			}

			c.Set("userID", userID)
			return next(c)
		}

		if sessionID := c.Request().Header.Get(headerSessionID); sessionID != "" {
			user, err := s.app.GetOrCreateSessionUser(c.Request().Context(), sessionID)
			if err != nil {
				return apperrors.InternalError("failed to resolve session user", err)
			}

			c.Set("userID", user.ID)
			return next(c)
		}

		return apperrors.UnauthorizedError("authentication required")
	}
}

// requireAdmin guards operational endpoints with the shared admin key.
func (s *Server) requireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		key := c.Request().Header.Get(headerAdminKey)
		if subtle.ConstantTimeCompare([]byte(key), []byte(s.config.AdminAPIKey)) != 1 {
			return apperrors.UnauthorizedError("invalid admin key")
		}
		return next(c)
	}
}

func currentUserID(c echo.Context) (uuid.UUID, error) {
	userID, ok := c.Get("userID").(uuid.UUID)
	if !ok {
		return uuid.Nil, apperrors.InternalError("invalid user ID in context", nil)
	}
	return userID, nil
}
