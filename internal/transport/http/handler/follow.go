package handler

import (
	"github.com/gin-gonic/gin"

	"catalog-accounts/internal/app"
	"catalog-accounts/internal/transport/http/middleware"
	"catalog-accounts/internal/transport/http/response"
)

type FollowHandler struct {
	followService *app.FollowService
}

func NewFollowHandler(followService *app.FollowService) *FollowHandler {
	return &FollowHandler{followService: followService}
}

func (h *FollowHandler) Follow(c *gin.Context) {
	result, err := h.followService.Follow(c.Request.Context(), middleware.CallerFrom(c), c.Param("id"))
	if err != nil {
		writeError(c, err, "follow user failed")
		return
	}

	message := "You are now following " + result.Target.DisplayName()
	if !result.Changed {
		message = "You are already following " + result.Target.DisplayName()
	}
	response.OKMessage(c, message, gin.H{"following": true, "changed": result.Changed})
}

func (h *FollowHandler) Unfollow(c *gin.Context) {
	result, err := h.followService.Unfollow(c.Request.Context(), middleware.CallerFrom(c), c.Param("id"))
	if err != nil {
		writeError(c, err, "unfollow user failed")
		return
	}

	message := "You are no longer following " + result.Target.DisplayName()
	if !result.Changed {
		message = "You are not following " + result.Target.DisplayName()
	}
	response.OKMessage(c, message, gin.H{"following": false, "changed": result.Changed})
}

func (h *FollowHandler) Followers(c *gin.Context) {
	caller := middleware.CallerFrom(c)
	users, err := h.followService.ListFollowers(c.Request.Context(), caller, c.Param("id"))
	if err != nil {
		writeError(c, err, "list followers failed")
		return
	}
	response.OK(c, gin.H{"followers": userViews(caller, users)})
}

func (h *FollowHandler) FollowerCount(c *gin.Context) {
	count, err := h.followService.FollowerCount(c.Param("id"))
	if err != nil {
		writeError(c, err, "count followers failed")
		return
	}
	response.OK(c, gin.H{"count": count})
}
