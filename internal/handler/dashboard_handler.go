package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/Kiran8658/FSD-Even-project/internal/clock"
	"github.com/Kiran8658/FSD-Even-project/internal/db"
	"github.com/Kiran8658/FSD-Even-project/internal/locale"
	"github.com/Kiran8658/FSD-Even-project/internal/service"
	"github.com/Kiran8658/FSD-Even-project/internal/streak"
	"github.com/gin-gonic/gin"
)

type activityLogPayload struct {
	Date  string `json:"date"`
	Count *int   `json:"count"`
	Type  string `json:"type"`
	Note  string `json:"note"`
}

type skillPayload struct {
	Name     string `json:"name"`
	Category string `json:"category"`
	Level    *int   `json:"level"`
}

// GetStats 看板顶部统计
func (a *API) GetStats(c *gin.Context) {
	stats, err := a.dashboard.Stats(c.Request.Context(), currentAccountID(c))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"stats": serializeStats(stats)})
}

// GetActivities 返回稠密的日活动序列，支持 days 或 start/end
func (a *API) GetActivities(c *gin.Context) {
	query, ok := parseRangeQuery(c)
	if !ok {
		return
	}

	activities, err := a.dashboard.ActivityRange(c.Request.Context(), currentAccountID(c), query)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, serializeActivityRange(activities))
}

// LogActivity 记录一次学习打卡；count 缺省为 1，date 缺省为今天
func (a *API) LogActivity(c *gin.Context) {
	var payload activityLogPayload
	if c.Request.ContentLength != 0 {
		if !bindJSON(c, &payload, "请求参数格式错误") {
			return
		}
	}

	input := service.ActivityLogInput{Count: 1, Type: payload.Type, Note: payload.Note}
	if payload.Count != nil {
		input.Count = *payload.Count
	}
	if raw := strings.TrimSpace(payload.Date); raw != "" {
		day, err := clock.ParseDay(raw)
		if err != nil {
			respondError(c, http.StatusBadRequest, codeInvalidInput, "date 格式应为 YYYY-MM-DD")
			return
		}
		input.Date = &day
	}

	result, err := a.dashboard.RecordActivity(c.Request.Context(), currentAccountID(c), input)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	insights := make([]gin.H, 0, len(result.Insights))
	for _, insight := range result.Insights {
		insights = append(insights, serializeStoredInsight(insight))
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "打卡成功",
		"activity": gin.H{
			"date":  clock.FormatDay(result.Record.Date),
			"count": result.Record.Count,
			"type":  result.Record.Type,
			"note":  result.Record.Note,
		},
		"streak":     serializeCounters(result.Counters),
		"backfilled": result.Backfilled,
		"insights":   insights,
	})
}

// RecomputeStreak 依据历史记录修复连胜计数
func (a *API) RecomputeStreak(c *gin.Context) {
	counters, err := a.dashboard.RecomputeStreaks(c.Request.Context(), currentAccountID(c))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"streak": serializeCounters(counters)})
}

func (a *API) GetSkills(c *gin.Context) {
	skills, err := a.skills.List(c.Request.Context(), currentAccountID(c))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"skills": serializeSkills(skills)})
}

// SetSkill 设置熟练度，超出 [0, 100] 的值会被截断
func (a *API) SetSkill(c *gin.Context) {
	var payload skillPayload
	if !bindJSON(c, &payload, "请求参数格式错误") {
		return
	}
	if payload.Level == nil {
		respondError(c, http.StatusBadRequest, codeInvalidInput, "level 不能为空")
		return
	}

	skill, err := a.skills.SetLevel(c.Request.Context(), currentAccountID(c), service.SetSkillInput{
		Name:     payload.Name,
		Category: payload.Category,
		Level:    *payload.Level,
	})
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "技能已更新", "skill": serializeSkill(*skill)})
}

func (a *API) GetSkillCatalog(c *gin.Context) {
	catalog, err := a.skills.Catalog(c.Request.Context())
	if err != nil {
		handleServiceError(c, err)
		return
	}

	items := make([]gin.H, 0, len(catalog))
	for _, skill := range catalog {
		items = append(items, gin.H{"id": skill.ID, "name": skill.Name, "category": skill.Category})
	}
	c.JSON(http.StatusOK, gin.H{"skills": items})
}

// GetInsights 语言取自 ?lang=，其次 Accept-Language
func (a *API) GetInsights(c *gin.Context) {
	insights, err := a.insights.List(c.Request.Context(), currentAccountID(c), requestLanguage(c))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"insights": serializeInsights(insights)})
}

func (a *API) MarkInsightRead(c *gin.Context) {
	insight, err := a.insights.MarkRead(c.Request.Context(), currentAccountID(c), c.Param("id"))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"insight": serializeInsight(*insight)})
}

// GetOverview 一次返回看板首屏数据
func (a *API) GetOverview(c *gin.Context) {
	query, ok := parseRangeQuery(c)
	if !ok {
		return
	}

	overview, err := a.overview.Get(c.Request.Context(), currentAccountID(c), query, requestLanguage(c))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"stats":      serializeStats(overview.Stats),
		"activities": serializeActivityRange(overview.Activities),
		"skills":     serializeSkills(overview.Skills),
		"insights":   serializeInsights(overview.Insights),
	})
}

func requestLanguage(c *gin.Context) string {
	return locale.Resolve(c.Query("lang"), c.GetHeader("Accept-Language"))
}

func serializeStats(stats *service.DashboardStats) gin.H {
	return gin.H{
		"total_activity_count": stats.TotalActivityCount,
		"current_streak":       stats.CurrentStreak,
		"longest_streak":       stats.LongestStreak,
		"consistency_rate":     stats.ConsistencyRate,
		"skills_learned":       stats.SkillsLearned,
	}
}

func serializeActivityRange(activities *service.ActivityRange) gin.H {
	days := make([]gin.H, 0, len(activities.Days))
	for _, day := range activities.Days {
		days = append(days, gin.H{"date": clock.FormatDay(day.Date), "count": day.Count})
	}
	return gin.H{
		"range": gin.H{
			"start": clock.FormatDay(activities.Start),
			"end":   clock.FormatDay(activities.End),
		},
		"data": days,
	}
}

func serializeCounters(counters streak.Counters) gin.H {
	payload := gin.H{
		"current_streak":       counters.Current,
		"longest_streak":       counters.Longest,
		"total_activity_count": counters.Total,
	}
	if counters.LastActivityAt != nil {
		payload["last_activity_at"] = counters.LastActivityAt.UTC().Format(time.RFC3339)
	}
	return payload
}

func serializeSkill(skill service.SkillView) gin.H {
	return gin.H{
		"skill_id":    skill.SkillID,
		"name":        skill.Name,
		"category":    skill.Category,
		"level":       skill.Level,
		"synthesized": skill.Synthesized,
	}
}

func serializeSkills(skills []service.SkillView) []gin.H {
	items := make([]gin.H, 0, len(skills))
	for _, skill := range skills {
		items = append(items, serializeSkill(skill))
	}
	return items
}

func serializeInsight(insight service.InsightView) gin.H {
	return gin.H{
		"id":          insight.ID,
		"title":       insight.Title,
		"description": insight.Description,
		"category":    insight.Category,
		"icon":        insight.Icon,
		"read":        insight.Read,
		"synthesized": insight.Synthesized,
		"created_at":  insight.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func serializeInsights(insights []service.InsightView) []gin.H {
	items := make([]gin.H, 0, len(insights))
	for _, insight := range insights {
		items = append(items, serializeInsight(insight))
	}
	return items
}

func serializeStoredInsight(insight db.Insight) gin.H {
	return gin.H{
		"id":          insight.ID,
		"title":       insight.Title,
		"description": insight.Description,
		"category":    insight.Category,
		"icon":        insight.Icon,
		"read":        insight.Read,
		"created_at":  insight.CreatedAt.UTC().Format(time.RFC3339),
	}
}
