package handler

import (
	"github.com/gin-gonic/gin"

	"catalog-accounts/internal/app"
	"catalog-accounts/internal/transport/http/middleware"
	"catalog-accounts/internal/transport/http/response"
)

type UserHandler struct {
	userService     *app.UserService
	activityService *app.ActivityService
}

type ListUsersQuery struct {
	Q      string `form:"q" binding:"max=100"`
	Limit  int    `form:"limit" binding:"min=0,max=200"`
	Offset int    `form:"offset" binding:"min=0"`
}

type UpdateUserRequest struct {
	Name        *string `json:"name" binding:"omitempty,max=100"`
	FullName    *string `json:"fullname" binding:"omitempty,max=255"`
	Email       *string `json:"email" binding:"omitempty,max=255"`
	About       *string `json:"about"`
	OldPassword string  `json:"old_password" binding:"max=128"`
	Password1   string  `json:"password1" binding:"max=128"`
	Password2   string  `json:"password2" binding:"max=128"`
}

type ActivityQuery struct {
	Limit int `form:"limit" binding:"min=0,max=100"`
}

func NewUserHandler(userService *app.UserService, activityService *app.ActivityService) *UserHandler {
	return &UserHandler{
		userService:     userService,
		activityService: activityService,
	}
}

func (h *UserHandler) List(c *gin.Context) {
	var q ListUsersQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		invalidPayload(c)
		return
	}

	caller := middleware.CallerFrom(c)
	users, err := h.userService.List(caller, app.ListUsersInput{
		Query:  q.Q,
		Limit:  q.Limit,
		Offset: q.Offset,
	})
	if err != nil {
		writeError(c, err, "list users failed")
		return
	}
	response.OK(c, gin.H{"users": userViews(caller, users)})
}

func (h *UserHandler) Show(c *gin.Context) {
	user, err := h.userService.Show(c.Param("id"))
	if err != nil {
		writeError(c, err, "fetch user failed")
		return
	}
	response.OK(c, userView(middleware.CallerFrom(c), user))
}

func (h *UserHandler) Update(c *gin.Context) {
	var req UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidPayload(c)
		return
	}

	caller := middleware.CallerFrom(c)
	user, err := h.userService.Update(c.Request.Context(), caller, c.Param("id"), app.UpdateUserInput{
		Name:        req.Name,
		FullName:    req.FullName,
		Email:       req.Email,
		About:       req.About,
		OldPassword: req.OldPassword,
		Password1:   req.Password1,
		Password2:   req.Password2,
	})
	if err != nil {
		writeError(c, err, "update user failed")
		return
	}
	response.OKMessage(c, "Profile updated", userView(caller, user))
}

func (h *UserHandler) Delete(c *gin.Context) {
	if err := h.userService.Delete(c.Request.Context(), middleware.CallerFrom(c), c.Param("id")); err != nil {
		writeError(c, err, "delete user failed")
		return
	}
	response.OKMessage(c, "User deleted", nil)
}

func (h *UserHandler) Activity(c *gin.Context) {
	var q ActivityQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		invalidPayload(c)
		return
	}

	items, err := h.activityService.Stream(c.Request.Context(), c.Param("id"), q.Limit)
	if err != nil {
		writeError(c, err, "fetch activity failed")
		return
	}
	response.OK(c, gin.H{"activities": items})
}
