package api

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"budget/config"

	"github.com/gin-gonic/gin"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// 交易时间支持的格式
var dateTimeLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// serverLocation 报表与日期解析使用的时区
func serverLocation() *time.Location {
	cfg := config.GetConfig()
	if cfg == nil {
		return time.Local
	}
	loc, err := cfg.Server.Location()
	if err != nil {
		return time.Local
	}
	return loc
}

// parseDateTime 解析交易时间，RFC3339 带时区，其余格式按服务器时区解释
func parseDateTime(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.In(loc), nil
	}
	for _, layout := range dateTimeLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, errors.New("时间格式错误，应为: 2006-01-02 15:04:05 或 2006-01-02")
}

// parseID 解析路径中的 id
func parseID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || id == 0 {
		BadRequest(c, "无效的ID")
		return 0, false
	}
	return uint(id), true
}

// parsePage 分页参数，page 从 1 开始，limit 默认 20，最大 100
func parsePage(c *gin.Context) (page, limit int) {
	page, _ = strconv.Atoi(c.Query("page"))
	if page <= 0 {
		page = 1
	}
	limit, _ = strconv.Atoi(c.Query("limit"))
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	return page, limit
}

// parseDateRange 解析 start_date / end_date（YYYY-MM-DD，含结束日当天）
// required 为 true 时两者都必须提供；未提供的一端返回零值。
func parseDateRange(c *gin.Context, loc *time.Location, required bool) (start, end time.Time, ok bool) {
	startStr := c.Query("start_date")
	endStr := c.Query("end_date")

	if required && (startStr == "" || endStr == "") {
		BadRequest(c, "请提供开始日期和结束日期")
		return start, end, false
	}

	var err error
	if startStr != "" {
		start, err = time.ParseInLocation("2006-01-02", startStr, loc)
		if err != nil {
			BadRequest(c, "开始日期格式错误，应为: 2006-01-02")
			return start, end, false
		}
	}
	if endStr != "" {
		end, err = time.ParseInLocation("2006-01-02", endStr, loc)
		if err != nil {
			BadRequest(c, "结束日期格式错误，应为: 2006-01-02")
			return start, end, false
		}
		end = end.AddDate(0, 0, 1).Add(-time.Nanosecond)
	}
	if !start.IsZero() && !end.IsZero() && end.Before(start) {
		BadRequest(c, "结束日期不能早于开始日期")
		return start, end, false
	}
	return start, end, true
}
