package api

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"budget/middleware"
	"budget/models"
	"budget/sanitize"
	"budget/store"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

const exportTimeLayout = "2006-01-02 15:04:05"

// ExportHandler 导出处理器
type ExportHandler struct {
	transactions *store.TransactionStore
}

// NewExportHandler 创建导出处理器
func NewExportHandler(transactions *store.TransactionStore) *ExportHandler {
	return &ExportHandler{transactions: transactions}
}

var exportHeaders = []string{"ID", "日期", "类型", "类别", "金额", "描述", "创建时间"}

// exportRow 单行导出内容，文本列已做公式注入防护
func exportRow(tx *models.Transaction, loc *time.Location) []string {
	return []string{
		fmt.Sprintf("%d", tx.ID),
		tx.Date.In(loc).Format(exportTimeLayout),
		string(tx.Type),
		sanitize.ForSpreadsheet(tx.Category.Name),
		tx.Amount.StringFixed(2),
		sanitize.ForSpreadsheet(tx.Description),
		tx.CreatedAt.In(loc).Format(exportTimeLayout),
	}
}

// load 查询导出区间内的记录，按日期倒序
func (h *ExportHandler) load(c *gin.Context) ([]models.Transaction, *time.Location, bool) {
	loc := serverLocation()
	start, end, ok := parseDateRange(c, loc, true)
	if !ok {
		return nil, nil, false
	}

	list, err := h.transactions.FindInRange(c.Request.Context(), middleware.GetCurrentUserID(c), start, end)
	if err != nil {
		serverError(c, err, "查询数据失败")
		return nil, nil, false
	}
	// FindInRange 为升序，导出按最新在前
	for i, j := 0, len(list)-1; i < j; i, j = i+1, j-1 {
		list[i], list[j] = list[j], list[i]
	}
	return list, loc, true
}

// ExportCSV 导出收支记录为 CSV
// @Summary 导出收支记录为 CSV
// @Description 根据日期范围导出收支记录为 CSV 文件
// @Tags 导出
// @Produce text/csv
// @Security BearerAuth
// @Param start_date query string true "开始日期 (2026-01-01)"
// @Param end_date query string true "结束日期 (2026-12-31)"
// @Success 200 {file} file "CSV 文件"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 401 {object} Response "未授权"
// @Router /api/v1/export/csv [get]
func (h *ExportHandler) ExportCSV(c *gin.Context) {
	list, loc, ok := h.load(c)
	if !ok {
		return
	}

	buf := new(bytes.Buffer)
	// 添加 BOM 以支持 Excel 中文显示
	buf.WriteString("\xEF\xBB\xBF")

	writer := csv.NewWriter(buf)
	if err := writer.Write(exportHeaders); err != nil {
		InternalError(c, "生成 CSV 失败")
		return
	}
	for i := range list {
		if err := writer.Write(exportRow(&list[i], loc)); err != nil {
			InternalError(c, "生成 CSV 失败")
			return
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		InternalError(c, "生成 CSV 失败")
		return
	}

	filename := fmt.Sprintf("transactions_%s_%s.csv", c.Query("start_date"), c.Query("end_date"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

// ExportExcel 导出收支记录为 Excel
// @Summary 导出收支记录为 Excel
// @Description 根据日期范围导出收支记录为 xlsx，末行为收入、支出合计
// @Tags 导出
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security BearerAuth
// @Param start_date query string true "开始日期 (2026-01-01)"
// @Param end_date query string true "结束日期 (2026-12-31)"
// @Success 200 {file} file "Excel 文件"
// @Failure 400 {object} Response "请求参数错误"
// @Router /api/v1/export/excel [get]
func (h *ExportHandler) ExportExcel(c *gin.Context) {
	list, loc, ok := h.load(c)
	if !ok {
		return
	}

	f, err := buildWorkbook(list, loc)
	if err != nil {
		serverError(c, err, "生成 Excel 失败")
		return
	}
	defer f.Close()

	filename := fmt.Sprintf("收支记录_%s_%s.xlsx", c.Query("start_date"), c.Query("end_date"))
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename*=UTF-8''%s", url.PathEscape(filename)))

	if err := f.Write(c.Writer); err != nil {
		serverError(c, err, "生成 Excel 失败")
		return
	}
}

const exportSheet = "收支记录"

func cellBorder() []excelize.Border {
	return []excelize.Border{
		{Type: "left", Color: "000000", Style: 1},
		{Type: "top", Color: "000000", Style: 1},
		{Type: "bottom", Color: "000000", Style: 1},
		{Type: "right", Color: "000000", Style: 1},
	}
}

// buildWorkbook 生成导出工作簿
func buildWorkbook(list []models.Transaction, loc *time.Location) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		f.Close()
		return nil, err
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 12, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"2D8B5A"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border:    cellBorder(),
	})
	if err != nil {
		f.Close()
		return nil, err
	}
	dataStyle, _ := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{Vertical: "center"},
		Border:    cellBorder(),
	})
	summaryStyle, _ := f.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Bold: true, Size: 11},
		Fill:   excelize.Fill{Type: "pattern", Color: []string{"FFC000"}, Pattern: 1},
		Border: cellBorder(),
	})

	widths := map[string]float64{"A": 8, "B": 20, "C": 10, "D": 18, "E": 14, "F": 36, "G": 20}
	for col, w := range widths {
		f.SetColWidth(exportSheet, col, col, w)
	}

	for i, header := range exportHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(exportSheet, cell, header)
	}
	f.SetCellStyle(exportSheet, "A1", "G1", headerStyle)

	income, expense := decimal.Zero, decimal.Zero
	for i := range list {
		tx := &list[i]
		row := i + 2
		values := exportRow(tx, loc)
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			if col == 4 {
				amount, _ := tx.Amount.Float64()
				f.SetCellValue(exportSheet, cell, amount)
				continue
			}
			f.SetCellStr(exportSheet, cell, v)
		}
		f.SetCellStyle(exportSheet, fmt.Sprintf("A%d", row), fmt.Sprintf("G%d", row), dataStyle)

		switch tx.Type {
		case models.TypeIncome:
			income = income.Add(tx.Amount)
		case models.TypeExpense:
			expense = expense.Add(tx.Amount)
		}
	}

	// 汇总行
	summaryRow := len(list) + 2
	f.SetCellValue(exportSheet, fmt.Sprintf("A%d", summaryRow), "合计")
	f.SetCellValue(exportSheet, fmt.Sprintf("D%d", summaryRow), fmt.Sprintf("收入 %s", income.StringFixed(2)))
	f.SetCellValue(exportSheet, fmt.Sprintf("E%d", summaryRow), fmt.Sprintf("支出 %s", expense.StringFixed(2)))
	f.SetCellValue(exportSheet, fmt.Sprintf("F%d", summaryRow), fmt.Sprintf("共 %d 条记录", len(list)))
	f.SetCellStyle(exportSheet, fmt.Sprintf("A%d", summaryRow), fmt.Sprintf("G%d", summaryRow), summaryStyle)

	return f, nil
}
