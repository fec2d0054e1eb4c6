package handler

import (
	"net/http"

	"github.com/Kiran8658/FSD-Even-project/internal/clock"
	"github.com/Kiran8658/FSD-Even-project/internal/service"
	"github.com/gin-gonic/gin"
)

type profilePayload struct {
	Name    *string `json:"name"`
	Bio     *string `json:"bio"`
	Avatar  *string `json:"avatar"`
	College *string `json:"college"`
}

// GetUserByUsername 公开资料页
func (a *API) GetUserByUsername(c *gin.Context) {
	profile, err := a.accounts.GetByUsername(c.Request.Context(), c.Param("username"))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": serializeProfile(profile)})
}

func (a *API) GetUserByID(c *gin.Context) {
	profile, err := a.accounts.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": serializeProfile(profile)})
}

// UpdateMe 只修改请求中出现的字段
func (a *API) UpdateMe(c *gin.Context) {
	var payload profilePayload
	if !bindJSON(c, &payload, "请求参数格式错误") {
		return
	}

	profile, err := a.accounts.UpdateProfile(c.Request.Context(), currentAccountID(c), service.ProfileUpdate{
		Name:    payload.Name,
		Bio:     payload.Bio,
		Avatar:  payload.Avatar,
		College: payload.College,
	})
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "资料已更新", "user": serializeProfile(profile)})
}

func serializeProfile(profile *service.Profile) gin.H {
	return gin.H{
		"id":        profile.ID,
		"username":  profile.Username,
		"email":     profile.Email,
		"name":      profile.Name,
		"avatar":    profile.Avatar,
		"bio":       profile.Bio,
		"bio_html":  profile.BioHTML,
		"college":   profile.College,
		"join_date": clock.FormatDay(profile.JoinedAt),
	}
}
