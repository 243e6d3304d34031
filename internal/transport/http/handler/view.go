package handler

import (
	"github.com/gin-gonic/gin"

	"catalog-accounts/internal/app"
	"catalog-accounts/internal/model"
)

// userView renders a user. E-mail is shown only to the owner and sysadmins.
func userView(caller *app.Caller, u *model.User) gin.H {
	view := gin.H{
		"id":           u.ID,
		"name":         u.Name,
		"fullname":     u.FullName,
		"display_name": u.DisplayName(),
		"about":        u.About,
		"state":        u.State,
		"sysadmin":     u.Sysadmin,
		"created_at":   u.CreatedAt,
	}
	if caller != nil && (caller.UserID == u.ID || caller.IsSysadmin()) {
		view["email"] = u.Email
	}
	return view
}

func userViews(caller *app.Caller, users []model.User) []gin.H {
	out := make([]gin.H, 0, len(users))
	for i := range users {
		out = append(out, userView(caller, &users[i]))
	}
	return out
}
