package api

import (
	"time"
	"unicode/utf8"

	"budget/database"
	"budget/middleware"
	"budget/models"
	"budget/sanitize"
	"budget/service"
	"budget/store"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// 金额上限，对应 decimal(12,2)
var maxAmount = decimal.RequireFromString("9999999999.99")

// TransactionHandler 收支记录处理器
type TransactionHandler struct {
	categories *store.CategoryStore
}

// NewTransactionHandler 创建收支记录处理器
func NewTransactionHandler(categories *store.CategoryStore) *TransactionHandler {
	return &TransactionHandler{categories: categories}
}

// TransactionRequest 创建/更新收支记录请求
type TransactionRequest struct {
	Amount      decimal.Decimal        `json:"amount" swaggertype:"number" example:"99.5"`
	Description string                 `json:"description" example:"Lunch"`
	Type        models.TransactionType `json:"type" binding:"required,oneof=INCOME EXPENSE" example:"EXPENSE"`
	Date        string                 `json:"date" binding:"required" example:"2026-02-15 12:30:00"`
	CategoryID  uint                   `json:"categoryId" binding:"required" example:"1"`
}

// toTransaction 校验请求并生成记录，失败时已写入 400 响应
func (h *TransactionHandler) toTransaction(c *gin.Context, userID uint, req *TransactionRequest) (*models.Transaction, bool) {
	amount := req.Amount.Round(2)
	if !amount.IsPositive() {
		BadRequest(c, "金额必须大于0")
		return nil, false
	}
	if amount.GreaterThan(maxAmount) {
		BadRequest(c, "金额超出范围")
		return nil, false
	}

	description := sanitize.Text(req.Description)
	if utf8.RuneCountInString(description) > 255 {
		BadRequest(c, "描述不能超过255个字符")
		return nil, false
	}

	date, err := parseDateTime(req.Date, serverLocation())
	if err != nil {
		BadRequest(c, err.Error())
		return nil, false
	}

	cat, err := h.categories.FindVisible(c.Request.Context(), userID, req.CategoryID)
	if err != nil {
		if store.IsNotFound(err) {
			BadRequest(c, "类别不存在")
		} else {
			serverError(c, err, "查询类别失败")
		}
		return nil, false
	}
	if cat.Type != req.Type {
		BadRequest(c, "类别类型与收支类型不一致")
		return nil, false
	}

	return &models.Transaction{
		UserID:      userID,
		Amount:      amount,
		Type:        req.Type,
		Description: description,
		Date:        date,
		CategoryID:  cat.ID,
		Category:    *cat,
	}, true
}

// findOwnedTransaction 查询当前用户的记录，不存在或不属于当前用户时返回 404
func findOwnedTransaction(c *gin.Context, id, userID uint) (*models.Transaction, bool) {
	var tx models.Transaction
	err := database.DB.Preload("Category").
		Where("id = ? AND user_id = ?", id, userID).
		First(&tx).Error
	if err != nil {
		if store.IsNotFound(err) {
			NotFound(c, "记录不存在")
		} else {
			serverError(c, err, "查询失败")
		}
		return nil, false
	}
	return &tx, true
}

// Create 创建收支记录
// @Summary 创建收支记录
// @Description 金额必须大于0；类别必须是当前用户可用的类别，且类型与记录类型一致
// @Tags 收支记录
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body TransactionRequest true "收支记录"
// @Success 201 {object} Response{data=models.Transaction} "创建成功"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 401 {object} Response "未授权"
// @Router /api/v1/transactions [post]
func (h *TransactionHandler) Create(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	var req TransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "参数错误"))
		return
	}

	tx, ok := h.toTransaction(c, userID, &req)
	if !ok {
		return
	}

	if err := database.DB.Omit("Category").Create(tx).Error; err != nil {
		serverError(c, err, "创建收支记录失败")
		return
	}

	Created(c, "创建成功", tx)
}

// List 获取收支记录列表
// @Summary 获取收支记录列表
// @Description 按日期倒序分页，可按类型和月份筛选
// @Tags 收支记录
// @Produce json
// @Security BearerAuth
// @Param type query string false "INCOME 或 EXPENSE"
// @Param month query string false "月份 (YYYY-MM)"
// @Param page query int false "页码" default(1)
// @Param limit query int false "每页数量，最大 100" default(20)
// @Success 200 {object} Response{data=PageResponse{list=[]models.Transaction}} "获取成功"
// @Failure 400 {object} Response "请求参数错误"
// @Router /api/v1/transactions [get]
func (h *TransactionHandler) List(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	page, limit := parsePage(c)

	query := database.DB.Model(&models.Transaction{}).Where("user_id = ?", userID)

	if t := c.Query("type"); t != "" {
		typ, ok := models.ParseTransactionType(t)
		if !ok {
			BadRequest(c, "类型只能是 INCOME 或 EXPENSE")
			return
		}
		query = query.Where("type = ?", typ)
	}

	if month := c.Query("month"); month != "" {
		p, err := service.ResolvePeriod(month, time.Now(), serverLocation())
		if err != nil {
			BadRequest(c, err.Error())
			return
		}
		query = query.Where("date >= ? AND date <= ?", p.Start, p.End)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		serverError(c, err, "查询失败")
		return
	}

	list := []models.Transaction{}
	err := query.Preload("Category").
		Order("date DESC, id DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&list).Error
	if err != nil {
		serverError(c, err, "查询失败")
		return
	}

	Success(c, NewPageResponse(list, total, page, limit))
}

// Get 获取单条收支记录
// @Summary 获取单条收支记录
// @Tags 收支记录
// @Produce json
// @Security BearerAuth
// @Param id path int true "记录ID"
// @Success 200 {object} Response{data=models.Transaction} "获取成功"
// @Failure 404 {object} Response "记录不存在"
// @Router /api/v1/transactions/{id} [get]
func (h *TransactionHandler) Get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	tx, ok := findOwnedTransaction(c, id, middleware.GetCurrentUserID(c))
	if !ok {
		return
	}
	Success(c, tx)
}

// Update 更新收支记录
// @Summary 更新收支记录
// @Description 整体更新，校验规则与创建一致
// @Tags 收支记录
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "记录ID"
// @Param request body TransactionRequest true "收支记录"
// @Success 200 {object} Response{data=models.Transaction} "更新成功"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 404 {object} Response "记录不存在"
// @Router /api/v1/transactions/{id} [put]
func (h *TransactionHandler) Update(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	id, ok := parseID(c)
	if !ok {
		return
	}

	existing, ok := findOwnedTransaction(c, id, userID)
	if !ok {
		return
	}

	var req TransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "参数错误"))
		return
	}

	tx, ok := h.toTransaction(c, userID, &req)
	if !ok {
		return
	}

	err := database.DB.Model(existing).
		Select("amount", "type", "description", "date", "category_id").
		Omit("Category").
		Updates(tx).Error
	if err != nil {
		serverError(c, err, "更新失败")
		return
	}

	tx.ID = existing.ID
	tx.CreatedAt = existing.CreatedAt
	tx.UpdatedAt = existing.UpdatedAt
	SuccessWithMessage(c, "更新成功", tx)
}

// Delete 删除收支记录
// @Summary 删除收支记录
// @Tags 收支记录
// @Produce json
// @Security BearerAuth
// @Param id path int true "记录ID"
// @Success 200 {object} Response "删除成功"
// @Failure 404 {object} Response "记录不存在"
// @Router /api/v1/transactions/{id} [delete]
func (h *TransactionHandler) Delete(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	id, ok := parseID(c)
	if !ok {
		return
	}

	res := database.DB.Where("id = ? AND user_id = ?", id, userID).Delete(&models.Transaction{})
	if res.Error != nil {
		serverError(c, res.Error, "删除失败")
		return
	}
	if res.RowsAffected == 0 {
		NotFound(c, "记录不存在")
		return
	}

	SuccessWithMessage(c, "删除成功", nil)
}
