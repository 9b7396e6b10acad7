package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/vaanipro/backend/internal/client"
	"github.com/vaanipro/backend/internal/model"
	"github.com/vaanipro/backend/internal/service"
)

var errInvalidBody = errors.New("invalid request body")

type apiError struct {
	status  int
	code    string
	message string
}

// Order matters: the first matching sentinel wins.
var apiErrors = []struct {
	err error
	apiError
}{
	{service.ErrMissingFields, apiError{http.StatusBadRequest, "MissingFields", ""}},
	{service.ErrInvalidEmail, apiError{http.StatusBadRequest, "InvalidEmail", "Invalid email format"}},
	{service.ErrWeakPassword, apiError{http.StatusBadRequest, "WeakPassword", "Password must be at least 6 characters long"}},
	{service.ErrPasswordTooLong, apiError{http.StatusBadRequest, "PasswordTooLong", "Password must be at most 72 bytes long"}},
	{service.ErrDuplicateEmail, apiError{http.StatusBadRequest, "DuplicateEmail", "Email already exists"}},
	{service.ErrInvalidCredentials, apiError{http.StatusBadRequest, "InvalidCredentials", "Invalid credentials"}},
	{service.ErrTooManyAttempts, apiError{http.StatusTooManyRequests, "TooManyAttempts", "Too many login attempts. Please try again later"}},
	{service.ErrNoToken, apiError{http.StatusUnauthorized, "NoToken", "Not authorized, no token provided"}},
	{service.ErrInvalidToken, apiError{http.StatusUnauthorized, "InvalidToken", "Not authorized, invalid token"}},
	{service.ErrNoRefreshToken, apiError{http.StatusUnauthorized, "NoRefreshToken", ""}},
	{service.ErrInvalidRefreshToken, apiError{http.StatusUnauthorized, "InvalidRefreshToken", "Invalid refresh token"}},
	{service.ErrRefreshTokenExpired, apiError{http.StatusUnauthorized, "RefreshTokenExpired", "Refresh token expired, please login again"}},
	{service.ErrUserNotFound, apiError{http.StatusUnauthorized, "UserNotFound", "User not found"}},
	{service.ErrInvalidChatRequest, apiError{http.StatusBadRequest, "InvalidRequest", ""}},
	{service.ErrChatNotFound, apiError{http.StatusNotFound, "ChatNotFound", "Chat not found"}},
	{service.ErrNoMessages, apiError{http.StatusBadRequest, "MissingMessages", "Messages array is required and must not be empty"}},
	{service.ErrAIUnavailable, apiError{http.StatusServiceUnavailable, "AIUnavailable", "AI generation is not configured"}},
	{client.ErrAgentUnavailable, apiError{http.StatusServiceUnavailable, "AgentUnavailable", "Agent service is unavailable"}},
	{errInvalidBody, apiError{http.StatusBadRequest, "InvalidRequest", "Invalid request body"}},
}

var internalError = apiError{http.StatusInternalServerError, "InternalError", "Server error"}

func lookupError(err error) apiError {
	for _, candidate := range apiErrors {
		if errors.Is(err, candidate.err) {
			if candidate.message == "" {
				// Messages that carry detail, such as the missing field names.
				candidate.message = err.Error()
			}
			return candidate.apiError
		}
	}
	return internalError
}

// writeError answers with the status and code mapped from err. Unmapped
// errors become a generic 500; the cause is attached to the gin context for
// the request logger and echoed only outside release mode.
func writeError(c *gin.Context, err error) {
	mapped := lookupError(err)
	resp := model.ErrorResponse{
		Success: false,
		Code:    mapped.code,
		Message: mapped.message,
	}
	if mapped.status == http.StatusInternalServerError {
		_ = c.Error(err)
		if gin.Mode() != gin.ReleaseMode {
			resp.Error = err.Error()
		}
	}
	c.AbortWithStatusJSON(mapped.status, resp)
}
