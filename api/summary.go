package api

import (
	"budget/middleware"
	"budget/models"
	"budget/store"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// StatisticsHandler 区间统计
type StatisticsHandler struct {
	transactions *store.TransactionStore
}

func NewStatisticsHandler(transactions *store.TransactionStore) *StatisticsHandler {
	return &StatisticsHandler{transactions: transactions}
}

// IncomeExpenseSummaryResponse 收入/支出汇总返回
type IncomeExpenseSummaryResponse struct {
	TotalIncome  decimal.Decimal `json:"totalIncome" swaggertype:"number" example:"5000.00"`  // 收入总和
	TotalExpense decimal.Decimal `json:"totalExpense" swaggertype:"number" example:"123.45"`  // 支出总和
	Balance      decimal.Decimal `json:"balance" swaggertype:"number" example:"4876.55"`      // 收入减支出
	StartDate    string          `json:"startDate,omitempty" example:"2026-01-01"`
	EndDate      string          `json:"endDate,omitempty" example:"2026-12-31"`
}

// GetIncomeExpenseSummary 获取收入和支出汇总
// @Summary 获取收入/支出汇总
// @Description 按日期范围统计当前用户的收入与支出总和。不传 start_date/end_date 则统计全部时间。
// @Tags 统计
// @Produce json
// @Security BearerAuth
// @Param start_date query string false "开始日期 (YYYY-MM-DD)，例如 2026-01-01"
// @Param end_date query string false "结束日期 (YYYY-MM-DD)，例如 2026-12-31"
// @Success 200 {object} Response{data=IncomeExpenseSummaryResponse} "获取成功"
// @Failure 400 {object} Response "日期格式错误"
// @Failure 401 {object} Response "未授权"
// @Router /api/v1/statistics/summary [get]
func (h *StatisticsHandler) GetIncomeExpenseSummary(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	start, end, ok := parseDateRange(c, serverLocation(), false)
	if !ok {
		return
	}

	var income, expense decimal.Decimal
	g, ctx := errgroup.WithContext(c.Request.Context())
	g.Go(func() (err error) {
		income, err = h.transactions.SumBetween(ctx, userID, models.TypeIncome, start, end)
		return err
	})
	g.Go(func() (err error) {
		expense, err = h.transactions.SumBetween(ctx, userID, models.TypeExpense, start, end)
		return err
	})
	if err := g.Wait(); err != nil {
		serverError(c, err, "统计失败")
		return
	}

	Success(c, IncomeExpenseSummaryResponse{
		TotalIncome:  income,
		TotalExpense: expense,
		Balance:      income.Sub(expense),
		StartDate:    c.Query("start_date"),
		EndDate:      c.Query("end_date"),
	})
}
