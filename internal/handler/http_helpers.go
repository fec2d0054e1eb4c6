package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Kiran8658/FSD-Even-project/internal/clock"
	"github.com/Kiran8658/FSD-Even-project/internal/service"
	"github.com/gin-gonic/gin"
)

const (
	codeInvalidInput = "invalid_input"
	codeNotFound     = "not_found"
	codeConflict     = "conflict"
	codeUnauthorized = "unauthorized"
	codeUnavailable  = "unavailable"
	codeInternal     = "internal"
)

func respondError(c *gin.Context, status int, code, message string) {
	c.JSON(status, gin.H{"error": message, "code": code})
}

func bindJSON(c *gin.Context, dst interface{}, message string) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		respondError(c, http.StatusBadRequest, codeInvalidInput, message)
		return false
	}
	return true
}

// handleServiceError 把服务层错误分类映射为状态码
func handleServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidCredentials), errors.Is(err, service.ErrInvalidToken):
		respondError(c, http.StatusUnauthorized, codeUnauthorized, err.Error())
	case errors.Is(err, service.ErrInvalidInput):
		respondError(c, http.StatusBadRequest, codeInvalidInput, err.Error())
	case errors.Is(err, service.ErrNotFound):
		respondError(c, http.StatusNotFound, codeNotFound, err.Error())
	case errors.Is(err, service.ErrConflict):
		respondError(c, http.StatusConflict, codeConflict, err.Error())
	case errors.Is(err, service.ErrUnavailable):
		c.Error(err)
		respondError(c, http.StatusServiceUnavailable, codeUnavailable, "服务暂时不可用，请稍后重试")
	default:
		c.Error(err)
		respondError(c, http.StatusInternalServerError, codeInternal, "操作失败")
	}
}

// parseDayQuery 解析 YYYY-MM-DD 查询参数；缺省时返回 nil
func parseDayQuery(c *gin.Context, key string) (*time.Time, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil, nil
	}
	day, err := clock.ParseDay(raw)
	if err != nil {
		return nil, err
	}
	return &day, nil
}

func parseRangeQuery(c *gin.Context) (service.RangeQuery, bool) {
	var query service.RangeQuery

	if raw := strings.TrimSpace(c.Query("days")); raw != "" {
		days, err := strconv.Atoi(raw)
		if err != nil || days < 1 {
			respondError(c, http.StatusBadRequest, codeInvalidInput, "days 必须为正整数")
			return query, false
		}
		query.Days = days
	}

	start, err := parseDayQuery(c, "start")
	if err != nil {
		respondError(c, http.StatusBadRequest, codeInvalidInput, "start 日期格式应为 YYYY-MM-DD")
		return query, false
	}
	end, err := parseDayQuery(c, "end")
	if err != nil {
		respondError(c, http.StatusBadRequest, codeInvalidInput, "end 日期格式应为 YYYY-MM-DD")
		return query, false
	}
	query.Start, query.End = start, end
	return query, true
}
