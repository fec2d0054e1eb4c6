package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Kiran8658/FSD-Even-project/internal/clock"
	"github.com/Kiran8658/FSD-Even-project/internal/db"
	"github.com/Kiran8658/FSD-Even-project/internal/logger"
	"github.com/Kiran8658/FSD-Even-project/internal/service"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	gormlogger "gorm.io/gorm/logger"
)

var (
	testDBSeq atomic.Int64
	baseNow   = time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC)
)

type testServer struct {
	api    *API
	engine *gin.Engine
	clock  *clock.Fixed
}

func newTestServer(t *testing.T, log *logger.Logger) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:handler-%d-%d?mode=memory&cache=shared", time.Now().UnixNano(), testDBSeq.Add(1))
	gdb, err := db.Open(db.Options{Driver: db.DriverSQLite, DSN: dsn, Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gdb))
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			sqlDB.Close()
		}
	})

	clk := clock.NewFixed(baseNow)
	api := NewAPI(gdb, Dependencies{
		Tokens: service.NewTokenIssuer("handler-test-secret", time.Hour, clk),
		Clock:  clk,
		Logger: log,
	})

	r := gin.New()
	r.Use(RequestLogger(log))
	r.Use(sessions.Sessions("test_session", cookie.NewStore([]byte("handler-test"))))
	r.POST("/auth/signup", api.SignUp)
	r.POST("/auth/signin", api.SignIn)
	r.POST("/auth/signout", api.SignOut)
	r.GET("/auth/me", api.AuthRequired(), api.Me)
	r.GET("/users/id/:id", api.GetUserByID)
	r.GET("/users/:username", api.GetUserByUsername)
	r.PUT("/users/me", api.AuthRequired(), api.UpdateMe)

	dashboard := r.Group("/dashboard", api.AuthRequired())
	dashboard.GET("/stats", api.GetStats)
	dashboard.GET("/activities", api.GetActivities)
	dashboard.POST("/activities/log", api.LogActivity)
	dashboard.POST("/streak/recompute", api.RecomputeStreak)
	dashboard.GET("/skills", api.GetSkills)
	dashboard.POST("/skills", api.SetSkill)
	dashboard.GET("/skills/catalog", api.GetSkillCatalog)
	dashboard.GET("/insights", api.GetInsights)
	dashboard.POST("/insights/:id/read", api.MarkInsightRead)
	dashboard.GET("/overview", api.GetOverview)

	return &testServer{api: api, engine: r, clock: clk}
}

// do 发送请求；token 非空时附带 Bearer 头
func (s *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	var req *http.Request
	if reader != nil {
		req = httptest.NewRequest(method, path, reader)
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}

// signUp 注册账户并返回 token 与用户 id
func (s *testServer) signUp(t *testing.T, name, email string) (string, string) {
	t.Helper()
	w := s.do(t, http.MethodPost, "/auth/signup", "", gin.H{"name": name, "email": email, "password": "secret1"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp struct {
		Token string `json:"token"`
		User  struct {
			ID string `json:"id"`
		} `json:"user"`
	}
	decode(t, w, &resp)
	require.NotEmpty(t, resp.Token)
	return resp.Token, resp.User.ID
}

func decode(t *testing.T, w *httptest.ResponseRecorder, dst any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), dst), w.Body.String())
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp struct {
		Code string `json:"code"`
	}
	decode(t, w, &resp)
	return resp.Code
}
