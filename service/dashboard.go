package service

import (
	"context"
	"errors"
	"regexp"
	"sort"
	"time"

	"budget/models"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

const (
	recentLimit     = 5
	trendMonths     = 6
	balanceTrendLen = 30

	monthKeyLayout = "2006-01"
	dayKeyLayout   = "2006-01-02"
	monthLabel     = "Jan 2006"
)

// ErrInvalidMonth 月份参数格式错误
var ErrInvalidMonth = errors.New("月份格式无效，应为 YYYY-MM")

var monthPattern = regexp.MustCompile(`^\d{4}-\d{2}$`)

// TransactionReader 报表所需的记录查询
type TransactionReader interface {
	FindInRange(ctx context.Context, userID uint, from, to time.Time) ([]models.Transaction, error)
	FindRecent(ctx context.Context, userID uint, limit int) ([]models.Transaction, error)
	SumByType(ctx context.Context, userID uint, typ models.TransactionType, until time.Time) (decimal.Decimal, error)
}

// CategoryBreakdownItem 支出类别占比
type CategoryBreakdownItem struct {
	CategoryID uint            `json:"categoryId"`
	Name       string          `json:"name"`
	Color      string          `json:"color"`
	Icon       string          `json:"icon"`
	Amount     decimal.Decimal `json:"amount" swaggertype:"number"`
	Percentage int64           `json:"percentage"`
}

// MonthlyTrendItem 月度收支
type MonthlyTrendItem struct {
	Month    string          `json:"month"`
	Income   decimal.Decimal `json:"income" swaggertype:"number"`
	Expenses decimal.Decimal `json:"expenses" swaggertype:"number"`
}

// BalanceTrendItem 某日结束时的累计余额，Projected 表示该日晚于今天
type BalanceTrendItem struct {
	Date      string          `json:"date"`
	Balance   decimal.Decimal `json:"balance" swaggertype:"number"`
	Projected bool            `json:"projected"`
}

// DashboardStats 仪表盘数据
type DashboardStats struct {
	Month              string                  `json:"month"`
	AsOf               string                  `json:"asOf"`
	TotalIncome        decimal.Decimal         `json:"totalIncome" swaggertype:"number"`
	TotalExpenses      decimal.Decimal         `json:"totalExpenses" swaggertype:"number"`
	Balance            decimal.Decimal         `json:"balance" swaggertype:"number"`
	RunningBalance     decimal.Decimal         `json:"runningBalance" swaggertype:"number"`
	TransactionCount   int                     `json:"transactionCount"`
	RecentTransactions []models.Transaction    `json:"recentTransactions"`
	CategoryBreakdown  []CategoryBreakdownItem `json:"categoryBreakdown"`
	MonthlyTrend       []MonthlyTrendItem      `json:"monthlyTrend"`
	BalanceTrend       []BalanceTrendItem      `json:"balanceTrend"`
}

// Period 选定月份的起止时间，End 为当月最后一纳秒
type Period struct {
	Month string
	Start time.Time
	End   time.Time
}

// TrendStart 30 天余额窗口的起点
func (p Period) TrendStart() time.Time {
	return startOfDay(p.End.AddDate(0, 0, -(balanceTrendLen - 1)))
}

// TrendMonthsStart 近 6 个月窗口的起点
func (p Period) TrendMonthsStart() time.Time {
	return p.Start.AddDate(0, -(trendMonths - 1), 0)
}

// ResolvePeriod 解析月份参数，为空时取 asOf 所在月份
func ResolvePeriod(month string, asOf time.Time, loc *time.Location) (Period, error) {
	var start time.Time
	if month == "" {
		y, m, _ := asOf.In(loc).Date()
		start = time.Date(y, m, 1, 0, 0, 0, 0, loc)
	} else {
		if !monthPattern.MatchString(month) {
			return Period{}, ErrInvalidMonth
		}
		t, err := time.ParseInLocation(monthKeyLayout, month, loc)
		if err != nil {
			return Period{}, ErrInvalidMonth
		}
		start = t
	}
	return Period{
		Month: start.Format(monthKeyLayout),
		Start: start,
		End:   start.AddDate(0, 1, 0).Add(-time.Nanosecond),
	}, nil
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// DashboardService 仪表盘统计
type DashboardService struct {
	store TransactionReader
	loc   *time.Location
}

func NewDashboardService(store TransactionReader, loc *time.Location) *DashboardService {
	if loc == nil {
		loc = time.Local
	}
	return &DashboardService{store: store, loc: loc}
}

// Location 统计使用的时区
func (s *DashboardService) Location() *time.Location {
	return s.loc
}

// ComputeDashboard 计算某用户某月的仪表盘数据
// month 为空表示 asOf 所在月份；任一查询失败则整体失败，不返回部分结果。
func (s *DashboardService) ComputeDashboard(ctx context.Context, userID uint, month string, asOf time.Time) (*DashboardStats, error) {
	p, err := ResolvePeriod(month, asOf, s.loc)
	if err != nil {
		return nil, err
	}
	trendStart := p.TrendStart()

	var (
		period, recent, sixMonths, window []models.Transaction
		incomeSum, expenseSum             decimal.Decimal
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		period, err = s.store.FindInRange(gctx, userID, p.Start, p.End)
		return err
	})
	g.Go(func() (err error) {
		recent, err = s.store.FindRecent(gctx, userID, recentLimit)
		return err
	})
	g.Go(func() (err error) {
		sixMonths, err = s.store.FindInRange(gctx, userID, p.TrendMonthsStart(), p.End)
		return err
	})
	g.Go(func() (err error) {
		incomeSum, err = s.store.SumByType(gctx, userID, models.TypeIncome, p.End)
		return err
	})
	g.Go(func() (err error) {
		expenseSum, err = s.store.SumByType(gctx, userID, models.TypeExpense, p.End)
		return err
	})
	g.Go(func() (err error) {
		window, err = s.store.FindInRange(gctx, userID, trendStart, p.End)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	totalIncome, totalExpenses := sumByType(period)
	runningBalance := incomeSum.Sub(expenseSum)

	if recent == nil {
		recent = []models.Transaction{}
	}

	return &DashboardStats{
		Month:              p.Month,
		AsOf:               asOf.In(s.loc).Format(dayKeyLayout),
		TotalIncome:        totalIncome,
		TotalExpenses:      totalExpenses,
		Balance:            totalIncome.Sub(totalExpenses),
		RunningBalance:     runningBalance,
		TransactionCount:   len(period),
		RecentTransactions: recent,
		CategoryBreakdown:  categoryBreakdown(period, totalExpenses),
		MonthlyTrend:       s.monthlyTrend(p, sixMonths),
		BalanceTrend:       s.balanceTrend(trendStart, window, runningBalance, asOf),
	}, nil
}

func sumByType(list []models.Transaction) (income, expense decimal.Decimal) {
	for i := range list {
		switch list[i].Type {
		case models.TypeIncome:
			income = income.Add(list[i].Amount)
		case models.TypeExpense:
			expense = expense.Add(list[i].Amount)
		}
	}
	return income, expense
}

func categoryBreakdown(period []models.Transaction, total decimal.Decimal) []CategoryBreakdownItem {
	items := []CategoryBreakdownItem{}
	index := make(map[uint]int)
	for i := range period {
		tx := &period[i]
		if tx.Type != models.TypeExpense {
			continue
		}
		if j, ok := index[tx.CategoryID]; ok {
			items[j].Amount = items[j].Amount.Add(tx.Amount)
			continue
		}
		index[tx.CategoryID] = len(items)
		items = append(items, CategoryBreakdownItem{
			CategoryID: tx.CategoryID,
			Name:       tx.Category.Name,
			Color:      tx.Category.Color,
			Icon:       tx.Category.Icon,
			Amount:     tx.Amount,
		})
	}

	hundred := decimal.NewFromInt(100)
	for i := range items {
		if total.IsZero() {
			continue
		}
		items[i].Percentage = items[i].Amount.Mul(hundred).Div(total).Round(0).IntPart()
	}

	sort.SliceStable(items, func(a, b int) bool {
		if c := items[a].Amount.Cmp(items[b].Amount); c != 0 {
			return c > 0
		}
		return items[a].Name < items[b].Name
	})
	return items
}

func (s *DashboardService) monthlyTrend(p Period, list []models.Transaction) []MonthlyTrendItem {
	type bucket struct{ income, expense decimal.Decimal }
	buckets := make(map[string]*bucket, trendMonths)
	for i := range list {
		key := list[i].Date.In(s.loc).Format(monthKeyLayout)
		b, ok := buckets[key]
		if !ok {
			b = &bucket{}
			buckets[key] = b
		}
		switch list[i].Type {
		case models.TypeIncome:
			b.income = b.income.Add(list[i].Amount)
		case models.TypeExpense:
			b.expense = b.expense.Add(list[i].Amount)
		}
	}

	first := p.TrendMonthsStart()
	items := make([]MonthlyTrendItem, 0, trendMonths)
	for i := 0; i < trendMonths; i++ {
		m := first.AddDate(0, i, 0)
		item := MonthlyTrendItem{Month: m.Format(monthLabel)}
		if b, ok := buckets[m.Format(monthKeyLayout)]; ok {
			item.Income = b.income
			item.Expenses = b.expense
		}
		items = append(items, item)
	}
	return items
}

func (s *DashboardService) balanceTrend(trendStart time.Time, window []models.Transaction, runningBalance decimal.Decimal, asOf time.Time) []BalanceTrendItem {
	windowNet := decimal.Zero
	deltas := make(map[string]decimal.Decimal)
	for i := range window {
		amt := window[i].SignedAmount()
		windowNet = windowNet.Add(amt)
		key := window[i].Date.In(s.loc).Format(dayKeyLayout)
		deltas[key] = deltas[key].Add(amt)
	}

	today := asOf.In(s.loc).Format(dayKeyLayout)
	balance := runningBalance.Sub(windowNet)
	items := make([]BalanceTrendItem, 0, balanceTrendLen)
	for i := 0; i < balanceTrendLen; i++ {
		key := trendStart.AddDate(0, 0, i).Format(dayKeyLayout)
		balance = balance.Add(deltas[key])
		items = append(items, BalanceTrendItem{
			Date:      key,
			Balance:   balance,
			Projected: key > today,
		})
	}
	return items
}
