package api

import (
	"strings"

	"budget/config"
	"budget/database"
	"budget/logger"
	"budget/middleware"
	"budget/models"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"
)

// AuthHandler 认证处理器
type AuthHandler struct {
	cfg *config.Config
}

// NewAuthHandler 创建认证处理器
func NewAuthHandler(cfg *config.Config) *AuthHandler {
	return &AuthHandler{cfg: cfg}
}

// RegisterRequest 注册请求
type RegisterRequest struct {
	Name            string `json:"name" binding:"required,min=2,max=100" example:"Juan"`
	Email           string `json:"email" binding:"required,max=100" example:"juan@example.com"`
	Password        string `json:"password" binding:"required,min=6,max=72" example:"password123"`
	ConfirmPassword string `json:"confirmPassword" binding:"required" example:"password123"`
}

// LoginRequest 登录请求
type LoginRequest struct {
	Email    string `json:"email" binding:"required,max=100" example:"juan@example.com"`
	Password string `json:"password" binding:"required" example:"password123"`
}

// LoginResponse 登录响应
type LoginResponse struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// bindEmail 先去空格转小写，再按 email 规则校验，失败时已写入 400
func bindEmail(c *gin.Context, raw, message string) (string, bool) {
	email := normalizeEmail(raw)
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		if err := v.Var(email, "required,email,max=100"); err != nil {
			BadRequest(c, message)
			return "", false
		}
	}
	return email, true
}

// Register 用户注册
// @Summary 用户注册
// @Description 创建新用户账号，注册后可直接登录
// @Tags 认证
// @Accept json
// @Produce json
// @Param request body RegisterRequest true "注册信息"
// @Success 201 {object} Response{data=models.User} "注册成功"
// @Failure 400 {object} Response "请求参数错误或邮箱已注册"
// @Failure 500 {object} Response "服务器错误"
// @Router /api/v1/auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "参数错误"))
		return
	}
	if req.Password != req.ConfirmPassword {
		BadRequest(c, "两次输入的密码不一致")
		return
	}

	email, ok := bindEmail(c, req.Email, "邮箱格式错误")
	if !ok {
		return
	}

	// 检查邮箱是否已注册
	var count int64
	if err := database.DB.Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		serverError(c, err, "注册失败")
		return
	}
	if count > 0 {
		BadRequest(c, "该邮箱已被注册")
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		InternalError(c, "密码加密失败")
		return
	}

	user := models.User{
		Name:     strings.TrimSpace(req.Name),
		Email:    email,
		Password: string(hashedPassword),
		Currency: models.DefaultCurrency,
	}
	if err := database.DB.Create(&user).Error; err != nil {
		serverError(c, err, "创建用户失败")
		return
	}

	logger.FromContext(c.Request.Context()).Info("新用户注册", "user_id", user.ID)
	Created(c, "注册成功", user)
}

// Login 用户登录
// @Summary 用户登录
// @Description 使用邮箱和密码登录，获取 JWT token。同一 IP 登录尝试受限流保护
// @Tags 认证
// @Accept json
// @Produce json
// @Param request body LoginRequest true "登录信息"
// @Success 200 {object} Response{data=LoginResponse} "登录成功"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 401 {object} Response "邮箱或密码错误"
// @Failure 429 {object} Response "尝试过于频繁"
// @Router /api/v1/auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "参数错误"))
		return
	}

	email, ok := bindEmail(c, req.Email, "邮箱格式错误")
	if !ok {
		return
	}

	var user models.User
	if err := database.DB.Where("email = ?", email).First(&user).Error; err != nil {
		Unauthorized(c, "邮箱或密码错误")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		Unauthorized(c, "邮箱或密码错误")
		return
	}

	token, err := middleware.GenerateToken(user.ID, user.Email, h.cfg.JWT.ExpireTime)
	if err != nil {
		InternalError(c, "生成 token 失败")
		return
	}

	Success(c, LoginResponse{
		Token: token,
		User:  user,
	})
}
