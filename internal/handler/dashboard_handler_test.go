package handler

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type streakPayload struct {
	CurrentStreak      int `json:"current_streak"`
	LongestStreak      int `json:"longest_streak"`
	TotalActivityCount int `json:"total_activity_count"`
}

func TestLogActivityDefaultsToOneToday(t *testing.T) {
	srv := newTestServer(t, nil)
	token, _ := srv.signUp(t, "Ada", "ada@example.com")

	w := srv.do(t, http.MethodPost, "/dashboard/activities/log", token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Activity struct {
			Date  string `json:"date"`
			Count int    `json:"count"`
		} `json:"activity"`
		Streak     streakPayload `json:"streak"`
		Backfilled bool          `json:"backfilled"`
	}
	decode(t, w, &resp)
	assert.Equal(t, "2024-05-10", resp.Activity.Date)
	assert.Equal(t, 1, resp.Activity.Count)
	assert.Equal(t, 1, resp.Streak.CurrentStreak)
	assert.Equal(t, 1, resp.Streak.TotalActivityCount)
	assert.False(t, resp.Backfilled)

	// 同一天再次打卡只累加数量
	w = srv.do(t, http.MethodPost, "/dashboard/activities/log", token, gin.H{"count": 3, "type": "reading"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	decode(t, w, &resp)
	assert.Equal(t, 4, resp.Activity.Count)
	assert.Equal(t, 1, resp.Streak.CurrentStreak)
	assert.Equal(t, 4, resp.Streak.TotalActivityCount)
}

func TestLogActivityRejectsInvalidInput(t *testing.T) {
	srv := newTestServer(t, nil)
	token, _ := srv.signUp(t, "Ada", "ada@example.com")

	cases := []gin.H{
		{"count": 0},
		{"count": -2},
		{"date": "2024-05-11"},
		{"date": "10/05/2024"},
	}
	for _, body := range cases {
		w := srv.do(t, http.MethodPost, "/dashboard/activities/log", token, body)
		assert.Equal(t, http.StatusBadRequest, w.Code, "body %v", body)
		assert.Equal(t, codeInvalidInput, errorCode(t, w))
	}
}

func TestBackfillAndRecomputeStreak(t *testing.T) {
	srv := newTestServer(t, nil)
	token, _ := srv.signUp(t, "Ada", "ada@example.com")

	for _, date := range []string{"2024-05-08", "2024-05-09"} {
		w := srv.do(t, http.MethodPost, "/dashboard/activities/log", token, gin.H{"date": date})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	}

	w := srv.do(t, http.MethodGet, "/dashboard/stats", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var stats struct {
		Stats map[string]int `json:"stats"`
	}
	decode(t, w, &stats)
	assert.Equal(t, 2, stats.Stats["total_activity_count"])
	assert.Equal(t, 0, stats.Stats["current_streak"])

	w = srv.do(t, http.MethodPost, "/dashboard/streak/recompute", token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp struct {
		Streak streakPayload `json:"streak"`
	}
	decode(t, w, &resp)
	assert.Equal(t, 2, resp.Streak.CurrentStreak)
	assert.Equal(t, 2, resp.Streak.LongestStreak)
}

func TestGetActivitiesRange(t *testing.T) {
	srv := newTestServer(t, nil)
	token, _ := srv.signUp(t, "Ada", "ada@example.com")
	require.Equal(t, http.StatusOK, srv.do(t, http.MethodPost, "/dashboard/activities/log", token, gin.H{"count": 2}).Code)

	w := srv.do(t, http.MethodGet, "/dashboard/activities", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Range struct {
			Start string `json:"start"`
			End   string `json:"end"`
		} `json:"range"`
		Data []struct {
			Date  string `json:"date"`
			Count int    `json:"count"`
		} `json:"data"`
	}
	decode(t, w, &resp)
	require.Len(t, resp.Data, 7)
	assert.Equal(t, "2024-05-04", resp.Range.Start)
	assert.Equal(t, "2024-05-10", resp.Data[6].Date)
	assert.Equal(t, 2, resp.Data[6].Count)
	assert.Equal(t, 0, resp.Data[0].Count)

	w = srv.do(t, http.MethodGet, "/dashboard/activities?start=2024-05-01&end=2024-05-03", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &resp)
	assert.Len(t, resp.Data, 3)

	for _, path := range []string{
		"/dashboard/activities?days=abc",
		"/dashboard/activities?days=0",
		"/dashboard/activities?days=400",
		"/dashboard/activities?start=2024-05-03&end=2024-05-01",
		"/dashboard/activities?start=2024-05-03",
		"/dashboard/activities?start=bad&end=2024-05-01",
	} {
		w := srv.do(t, http.MethodGet, path, token, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code, path)
	}
}

func TestSkillEndpoints(t *testing.T) {
	srv := newTestServer(t, nil)
	token, _ := srv.signUp(t, "Ada", "ada@example.com")

	w := srv.do(t, http.MethodGet, "/dashboard/skills", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Skills []map[string]any `json:"skills"`
	}
	decode(t, w, &list)
	require.Len(t, list.Skills, 6)
	assert.Equal(t, true, list.Skills[0]["synthesized"])

	w = srv.do(t, http.MethodPost, "/dashboard/skills", token, gin.H{"name": "React", "level": 120})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var set struct {
		Skill map[string]any `json:"skill"`
	}
	decode(t, w, &set)
	assert.EqualValues(t, 100, set.Skill["level"])

	w = srv.do(t, http.MethodPost, "/dashboard/skills", token, gin.H{"name": "React"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = srv.do(t, http.MethodPost, "/dashboard/skills", token, gin.H{"name": "Elixir", "level": 10})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = srv.do(t, http.MethodGet, "/dashboard/skills/catalog", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &list)
	assert.Len(t, list.Skills, 6)
}

func TestInsightEndpoints(t *testing.T) {
	srv := newTestServer(t, nil)
	token, _ := srv.signUp(t, "Ada", "ada@example.com")

	w := srv.do(t, http.MethodGet, "/dashboard/insights?lang=zh", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Insights []struct {
			ID          string `json:"id"`
			Title       string `json:"title"`
			Synthesized bool   `json:"synthesized"`
		} `json:"insights"`
	}
	decode(t, w, &resp)
	require.Len(t, resp.Insights, 2)
	assert.Equal(t, "欢迎来到 FEDF！", resp.Insights[0].Title)
	assert.True(t, resp.Insights[0].Synthesized)

	w = srv.do(t, http.MethodPost, "/dashboard/insights/"+resp.Insights[0].ID+"/read", token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, codeNotFound, errorCode(t, w))
}

func TestOverviewEndpoint(t *testing.T) {
	srv := newTestServer(t, nil)
	token, _ := srv.signUp(t, "Ada", "ada@example.com")
	require.Equal(t, http.StatusOK, srv.do(t, http.MethodPost, "/dashboard/activities/log", token, nil).Code)

	w := srv.do(t, http.MethodGet, "/dashboard/overview?days=14", token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Stats      map[string]int `json:"stats"`
		Activities struct {
			Data []map[string]any `json:"data"`
		} `json:"activities"`
		Skills   []map[string]any `json:"skills"`
		Insights []map[string]any `json:"insights"`
	}
	decode(t, w, &resp)
	assert.Equal(t, 1, resp.Stats["current_streak"])
	assert.Len(t, resp.Activities.Data, 14)
	assert.Len(t, resp.Skills, 6)
	assert.NotEmpty(t, resp.Insights)
}

func TestDashboardRequiresAuth(t *testing.T) {
	srv := newTestServer(t, nil)
	w := srv.do(t, http.MethodGet, "/dashboard/stats", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
