package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	zlog "github.com/rs/zerolog/log"

	"catalog-accounts/internal/app"
	"catalog-accounts/internal/transport/http/response"
)

// LoginPath is where anonymous callers are sent when an action needs a user.
const LoginPath = "/api/v1/auth/login"

func writeError(c *gin.Context, err error, fallback string) {
	var verr *app.ValidationError
	switch {
	case errors.Is(err, app.ErrLoginRequired):
		c.Redirect(http.StatusFound, LoginPath)
	case errors.As(err, &verr):
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, verr.Error())
	case errors.Is(err, app.ErrInvalidInput):
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid input")
	case errors.Is(err, app.ErrNameExists):
		response.Error(c, http.StatusBadRequest, response.CodeNameExists, "That login name is not available")
	case errors.Is(err, app.ErrInvalidCredential):
		response.Error(c, http.StatusUnauthorized, response.CodeInvalidCredentials, "Login failed. Bad username or password.")
	case errors.Is(err, app.ErrUserNotFound):
		response.Error(c, http.StatusNotFound, response.CodeUserNotFound, "User not found")
	case errors.Is(err, app.ErrInvalidResetKey):
		response.Error(c, http.StatusForbidden, response.CodeInvalidResetKey, "Invalid reset key. Please try again.")
	case errors.Is(err, app.ErrNotAuthorized):
		response.Error(c, http.StatusForbidden, response.CodeForbidden, "Unauthorized")
	case errors.Is(err, app.ErrDelivery):
		response.Error(c, http.StatusBadGateway, response.CodeDeliveryFailed,
			"Error sending the email. Try again later or contact an administrator for help")
	default:
		zlog.Error().Err(err).Str("path", c.FullPath()).Msg(fallback)
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, fallback)
	}
}

func invalidPayload(c *gin.Context) {
	response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
}
