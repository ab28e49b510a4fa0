package api

import (
	"errors"
	"time"

	"budget/middleware"
	"budget/service"

	"github.com/gin-gonic/gin"
)

// DashboardHandler 仪表盘
type DashboardHandler struct {
	dashboard *service.DashboardService
	email     *service.EmailService
	now       func() time.Time
}

func NewDashboardHandler(dashboard *service.DashboardService, email *service.EmailService) *DashboardHandler {
	return &DashboardHandler{dashboard: dashboard, email: email, now: time.Now}
}

// compute 计算仪表盘，失败时已写入响应
func (h *DashboardHandler) compute(c *gin.Context) (*service.DashboardStats, bool) {
	stats, err := h.dashboard.ComputeDashboard(
		c.Request.Context(),
		middleware.GetCurrentUserID(c),
		c.Query("month"),
		h.now(),
	)
	if err != nil {
		if errors.Is(err, service.ErrInvalidMonth) {
			BadRequest(c, err.Error())
		} else {
			serverError(c, err, "统计失败")
		}
		return nil, false
	}
	return stats, true
}

// Get 获取仪表盘数据
// @Summary 获取仪表盘数据
// @Description 月度收支合计、截至月末的累计余额、支出类别占比、近 6 个月趋势、截至月末 30 天的每日余额
// @Tags 统计
// @Produce json
// @Security BearerAuth
// @Param month query string false "月份 (YYYY-MM)，默认当月"
// @Success 200 {object} Response{data=service.DashboardStats} "获取成功"
// @Failure 400 {object} Response "月份格式错误"
// @Failure 401 {object} Response "未授权"
// @Failure 500 {object} Response "服务器错误"
// @Router /api/v1/dashboard [get]
func (h *DashboardHandler) Get(c *gin.Context) {
	stats, ok := h.compute(c)
	if !ok {
		return
	}
	Success(c, stats)
}

// SendReport 发送月度报告邮件
// @Summary 发送月度报告邮件
// @Description 把指定月份的仪表盘概况发送到当前用户邮箱
// @Tags 统计
// @Produce json
// @Security BearerAuth
// @Param month query string false "月份 (YYYY-MM)，默认当月"
// @Success 200 {object} Response "发送成功"
// @Failure 400 {object} Response "月份格式错误或邮件服务未启用"
// @Router /api/v1/dashboard/email [post]
func (h *DashboardHandler) SendReport(c *gin.Context) {
	if !h.email.Enabled() {
		BadRequest(c, service.ErrEmailDisabled.Error())
		return
	}

	user, ok := loadCurrentUser(c)
	if !ok {
		return
	}
	stats, ok := h.compute(c)
	if !ok {
		return
	}

	if err := h.email.SendMonthlyReport(user.Email, user.Name, user.Currency, stats); err != nil {
		serverError(c, err, "发送邮件失败")
		return
	}
	SuccessWithMessage(c, "报告已发送", gin.H{"month": stats.Month, "email": user.Email})
}
