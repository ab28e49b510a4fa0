package api

import (
	"fmt"
	"regexp"
	"strings"

	"budget/database"
	"budget/middleware"
	"budget/models"
	"budget/store"

	"github.com/gin-gonic/gin"
)

var colorPattern = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// CategoryHandler 收支类别管理
type CategoryHandler struct {
	categories   *store.CategoryStore
	transactions *store.TransactionStore
}

func NewCategoryHandler(categories *store.CategoryStore, transactions *store.TransactionStore) *CategoryHandler {
	return &CategoryHandler{categories: categories, transactions: transactions}
}

// CategoryRequest 创建/更新类别请求
type CategoryRequest struct {
	Name  string                 `json:"name" binding:"required,min=1,max=50" example:"Coffee"`
	Type  models.TransactionType `json:"type" binding:"required,oneof=INCOME EXPENSE" example:"EXPENSE"`
	Icon  string                 `json:"icon" binding:"required,max=50" example:"Coffee"`
	Color string                 `json:"color" binding:"required" example:"#6F4E37"` // 颜色代码，如 #E07C4F
}

func (r *CategoryRequest) normalize(c *gin.Context) bool {
	r.Name = strings.TrimSpace(r.Name)
	r.Icon = strings.TrimSpace(r.Icon)
	if r.Name == "" {
		BadRequest(c, "名称不能为空")
		return false
	}
	if r.Icon == "" {
		BadRequest(c, "图标不能为空")
		return false
	}
	if !colorPattern.MatchString(r.Color) {
		BadRequest(c, "颜色格式错误，应为 #RRGGBB")
		return false
	}
	return true
}

// List 列出可用类别
// @Summary 获取类别列表
// @Description 返回系统预置类别和当前用户的自定义类别，预置在前，按名称排序
// @Tags 类别
// @Produce json
// @Security BearerAuth
// @Param type query string false "INCOME 或 EXPENSE"
// @Success 200 {object} Response{data=[]models.Category} "获取成功"
// @Failure 400 {object} Response "类型错误"
// @Router /api/v1/categories [get]
func (h *CategoryHandler) List(c *gin.Context) {
	var typ models.TransactionType
	if t := c.Query("type"); t != "" {
		var ok bool
		if typ, ok = models.ParseTransactionType(t); !ok {
			BadRequest(c, "类型只能是 INCOME 或 EXPENSE")
			return
		}
	}

	list, err := h.categories.Visible(c.Request.Context(), middleware.GetCurrentUserID(c), typ)
	if err != nil {
		serverError(c, err, "查询失败")
		return
	}
	Success(c, list)
}

// Create 创建自定义类别
// @Summary 创建自定义类别
// @Description 同类型下名称不能与预置类别或自己的其他类别重复
// @Tags 类别
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CategoryRequest true "类别信息"
// @Success 201 {object} Response{data=models.Category} "创建成功"
// @Failure 400 {object} Response "参数错误或名称已存在"
// @Router /api/v1/categories [post]
func (h *CategoryHandler) Create(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	var req CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "参数错误"))
		return
	}
	if !req.normalize(c) {
		return
	}

	taken, err := h.categories.NameTaken(c.Request.Context(), userID, req.Name, req.Type, 0)
	if err != nil {
		serverError(c, err, "创建失败")
		return
	}
	if taken {
		BadRequest(c, "类别名称已存在")
		return
	}

	cat := models.Category{
		UserID: &userID,
		Name:   req.Name,
		Type:   req.Type,
		Icon:   req.Icon,
		Color:  strings.ToUpper(req.Color),
	}
	if err := database.DB.Create(&cat).Error; err != nil {
		serverError(c, err, "创建失败")
		return
	}
	Created(c, "创建成功", cat)
}

// Update 更新自定义类别
// @Summary 更新自定义类别
// @Description 仅能修改自己的自定义类别；类别类型创建后不能修改
// @Tags 类别
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "类别ID"
// @Param request body CategoryRequest true "类别信息"
// @Success 200 {object} Response{data=models.Category} "更新成功"
// @Failure 400 {object} Response "参数错误或名称已存在"
// @Failure 404 {object} Response "类别不存在"
// @Router /api/v1/categories/{id} [put]
func (h *CategoryHandler) Update(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	id, ok := parseID(c)
	if !ok {
		return
	}

	cat, ok := h.findOwned(c, userID, id)
	if !ok {
		return
	}

	var req CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "参数错误"))
		return
	}
	if !req.normalize(c) {
		return
	}

	// 类型在创建时确定
	if req.Type != cat.Type {
		BadRequest(c, "类别类型创建后不能修改")
		return
	}

	taken, err := h.categories.NameTaken(c.Request.Context(), userID, req.Name, req.Type, cat.ID)
	if err != nil {
		serverError(c, err, "更新失败")
		return
	}
	if taken {
		BadRequest(c, "类别名称已存在")
		return
	}

	updates := map[string]interface{}{
		"name":  req.Name,
		"icon":  req.Icon,
		"color": strings.ToUpper(req.Color),
	}
	if err := database.DB.Model(cat).Updates(updates).Error; err != nil {
		serverError(c, err, "更新失败")
		return
	}
	cat.Name = req.Name
	cat.Icon = req.Icon
	cat.Color = strings.ToUpper(req.Color)
	SuccessWithMessage(c, "更新成功", cat)
}

// Delete 删除自定义类别
// @Summary 删除自定义类别
// @Description 预置类别不能删除；仍被记录使用的类别不能删除
// @Tags 类别
// @Produce json
// @Security BearerAuth
// @Param id path int true "类别ID"
// @Success 200 {object} Response "删除成功"
// @Failure 400 {object} Response "类别仍在使用"
// @Failure 404 {object} Response "类别不存在"
// @Router /api/v1/categories/{id} [delete]
func (h *CategoryHandler) Delete(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	id, ok := parseID(c)
	if !ok {
		return
	}

	cat, ok := h.findOwned(c, userID, id)
	if !ok {
		return
	}

	n, err := h.transactions.CountByCategory(c.Request.Context(), cat.ID)
	if err != nil {
		serverError(c, err, "删除失败")
		return
	}
	if n > 0 {
		BadRequest(c, fmt.Sprintf("仍有 %d 条记录使用该类别，无法删除", n))
		return
	}

	if err := database.DB.Delete(cat).Error; err != nil {
		serverError(c, err, "删除失败")
		return
	}
	SuccessWithMessage(c, "删除成功", nil)
}

// findOwned 预置类别和他人的类别都视为不存在
func (h *CategoryHandler) findOwned(c *gin.Context, userID, id uint) (*models.Category, bool) {
	cat, err := h.categories.FindOwned(c.Request.Context(), userID, id)
	if err != nil {
		if store.IsNotFound(err) {
			NotFound(c, "类别不存在")
		} else {
			serverError(c, err, "查询失败")
		}
		return nil, false
	}
	return cat, true
}
