package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"catalog-accounts/internal/app"
	"catalog-accounts/internal/transport/http/response"
)

type ResetHandler struct {
	resetService *app.ResetService
}

type RequestResetRequest struct {
	User string `json:"user" binding:"max=255"`
}

type PerformResetRequest struct {
	Key       string `json:"key" binding:"max=128"`
	Password1 string `json:"password1" binding:"max=128"`
	Password2 string `json:"password2" binding:"max=128"`
}

func NewResetHandler(resetService *app.ResetService) *ResetHandler {
	return &ResetHandler{resetService: resetService}
}

func (h *ResetHandler) Request(c *gin.Context) {
	var req RequestResetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidPayload(c)
		return
	}

	if err := h.resetService.RequestReset(c.Request.Context(), req.User); err != nil {
		writeError(c, err, "request reset failed")
		return
	}
	response.OKMessage(c, "A reset link has been emailed to you (unless the account specified does not exist)", nil)
}

// Perform accepts the key in the body or, as in the e-mailed link, the query.
func (h *ResetHandler) Perform(c *gin.Context) {
	var req PerformResetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidPayload(c)
		return
	}
	if req.Key == "" {
		req.Key = c.Query("key")
	}

	userID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		writeError(c, app.ErrUserNotFound, "")
		return
	}

	if _, err := h.resetService.PerformReset(c.Request.Context(), app.PerformResetInput{
		UserID:    uint(userID),
		Key:       req.Key,
		Password1: req.Password1,
		Password2: req.Password2,
	}); err != nil {
		writeError(c, err, "reset password failed")
		return
	}
	response.OKMessage(c, "Your password has been reset.", nil)
}
