package handlers

import (
	"net/http"

	"github.com/3Eeeecho/go-cloudbox/internal/handlers/response"
	"github.com/3Eeeecho/go-cloudbox/internal/services/admin"
	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	authService admin.AuthService
}

func NewAuthHandler(authService admin.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6,max=255"`
	Name     string `json:"name" binding:"max=128"`
}

// LoginRequest 登录请求结构体
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// @Summary 用户注册
// @Description 用户注册接口，成功后直接返回 token
// @Tags 用户认证
// @Accept json
// @Produce json
// @Param data body RegisterRequest true "注册信息"
// @Success 201 {object} response.Response "注册成功"
// @Failure 400 {object} response.Response "参数错误"
// @Failure 409 {object} response.Response "邮箱已存在"
// @Router /api/v1/auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	result, err := h.authService.Register(c.Request.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		response.HandleError(c, err, "注册失败")
		return
	}
	response.Success(c, http.StatusCreated, "注册成功", result)
}

// @Summary 用户登录
// @Description 用户登录接口
// @Tags 用户认证
// @Accept json
// @Produce json
// @Param data body LoginRequest true "登录信息"
// @Success 200 {object} response.Response "登录成功，返回token"
// @Failure 400 {object} response.Response "参数错误"
// @Failure 401 {object} response.Response "邮箱或密码错误"
// @Router /api/v1/auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	result, err := h.authService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		response.HandleError(c, err, "登录失败")
		return
	}
	response.Success(c, http.StatusOK, "登录成功", result)
}
