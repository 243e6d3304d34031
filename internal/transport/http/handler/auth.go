package handler

import (
	"github.com/gin-gonic/gin"

	"catalog-accounts/internal/app"
	"catalog-accounts/internal/transport/http/middleware"
	"catalog-accounts/internal/transport/http/response"
)

type AuthHandler struct {
	authService *app.AuthService
}

type RegisterRequest struct {
	Name      string `json:"name" binding:"required,max=100"`
	FullName  string `json:"fullname" binding:"max=255"`
	Email     string `json:"email" binding:"required,email,max=255"`
	Password1 string `json:"password1" binding:"max=128"`
	Password2 string `json:"password2" binding:"max=128"`
}

type LoginRequest struct {
	Name     string `json:"name" binding:"required,max=100"`
	Password string `json:"password" binding:"required,max=128"`
}

func NewAuthHandler(authService *app.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidPayload(c)
		return
	}

	caller := middleware.CallerFrom(c)
	result, err := h.authService.Register(c.Request.Context(), caller, app.RegisterInput{
		Name:      req.Name,
		FullName:  req.FullName,
		Email:     req.Email,
		Password1: req.Password1,
		Password2: req.Password2,
	})
	if err != nil {
		writeError(c, err, "register failed")
		return
	}

	data := gin.H{"user": userView(caller, result.User)}
	if result.Token != "" {
		data["token"] = result.Token
		data["user"] = userView(&app.Caller{UserID: result.User.ID}, result.User)
		response.OK(c, data)
		return
	}
	response.OKMessage(c, `User "`+result.User.Name+`" is now registered but you are still logged in as "`+caller.Name+`" from before`, data)
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidPayload(c)
		return
	}

	result, err := h.authService.Login(app.LoginInput{
		Name:     req.Name,
		Password: req.Password,
	})
	if err != nil {
		writeError(c, err, "login failed")
		return
	}

	caller := &app.Caller{UserID: result.User.ID, Sysadmin: result.User.Sysadmin}
	response.OK(c, gin.H{
		"token": result.Token,
		"user":  userView(caller, result.User),
	})
}

func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.authService.Logout(c.Request.Context(), middleware.ClaimsFrom(c)); err != nil {
		writeError(c, err, "logout failed")
		return
	}
	response.OKMessage(c, "You are now logged out", nil)
}

func (h *AuthHandler) Me(c *gin.Context) {
	caller := middleware.CallerFrom(c)
	if caller == nil {
		writeError(c, app.ErrLoginRequired, "")
		return
	}

	user, err := h.authService.GetUserByID(caller.UserID)
	if err != nil {
		writeError(c, err, "fetch current user failed")
		return
	}
	if user == nil {
		writeError(c, app.ErrUserNotFound, "")
		return
	}
	response.OK(c, userView(caller, user))
}
