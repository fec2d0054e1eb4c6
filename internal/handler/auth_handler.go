package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/Kiran8658/FSD-Even-project/internal/service"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

const (
	sessionAccountKey = "account_id"
	contextAccountKey = "account_id"
)

type signUpRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignUp 注册账户并建立会话
func (a *API) SignUp(c *gin.Context) {
	var req signUpRequest
	if !bindJSON(c, &req, "请求参数格式错误") {
		return
	}

	result, err := a.accounts.SignUp(c.Request.Context(), service.SignUpInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		handleServiceError(c, err)
		return
	}
	a.respondAuth(c, http.StatusCreated, "注册成功", result)
}

// SignIn 校验邮箱与密码
func (a *API) SignIn(c *gin.Context) {
	var req signInRequest
	if !bindJSON(c, &req, "请求参数格式错误") {
		return
	}

	result, err := a.accounts.SignIn(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	a.respondAuth(c, http.StatusOK, "登录成功", result)
}

// SignOut 清除 cookie 会话；bearer token 为无状态凭证，由客户端丢弃
func (a *API) SignOut(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	if err := session.Save(); err != nil {
		c.Error(err)
	}
	c.JSON(http.StatusOK, gin.H{"message": "已退出登录"})
}

// Me 返回当前登录账户
func (a *API) Me(c *gin.Context) {
	profile, err := a.accounts.Get(c.Request.Context(), currentAccountID(c))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": serializeProfile(profile)})
}

func (a *API) respondAuth(c *gin.Context, status int, message string, result *service.AuthResult) {
	session := sessions.Default(c)
	session.Set(sessionAccountKey, result.Profile.ID)
	if err := session.Save(); err != nil {
		c.Error(err)
		respondError(c, http.StatusInternalServerError, codeInternal, "会话保存失败")
		return
	}

	c.JSON(status, gin.H{
		"message":    message,
		"token":      result.Token,
		"token_type": "Bearer",
		"expires_at": result.ExpiresAt.UTC().Format(time.RFC3339),
		"user":       serializeProfile(&result.Profile),
	})
}

// AuthRequired 优先校验 Authorization: Bearer，缺省时回退到 cookie 会话
func (a *API) AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if token := bearerToken(c); token != "" {
			accountID, err := a.accounts.Authenticate(token)
			if err != nil {
				respondError(c, http.StatusUnauthorized, codeUnauthorized, "登录已失效，请重新登录")
				c.Abort()
				return
			}
			c.Set(contextAccountKey, accountID)
			c.Next()
			return
		}

		session := sessions.Default(c)
		accountID, _ := session.Get(sessionAccountKey).(string)
		if accountID == "" {
			respondError(c, http.StatusUnauthorized, codeUnauthorized, "请先登录")
			c.Abort()
			return
		}
		c.Set(contextAccountKey, accountID)
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if len(header) > 7 && strings.EqualFold(header[:7], "Bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return ""
}

func currentAccountID(c *gin.Context) string {
	return c.GetString(contextAccountKey)
}
