package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	authUC "github.com/khoahotran/profile-portal/internal/application/usecase/auth"
	"github.com/khoahotran/profile-portal/pkg/apperror"
	"github.com/khoahotran/profile-portal/pkg/logger"
)

type AuthHandler struct {
	registerUseCase     *authUC.RegisterUseCase
	loginUseCase        *authUC.LoginUseCase
	requestResetUseCase *authUC.RequestPasswordResetUseCase
	resetUseCase        *authUC.ResetPasswordUseCase
	currentUserUseCase  *authUC.GetCurrentUserUseCase
	logger              logger.Logger
}

func NewAuthHandler(
	registerUC *authUC.RegisterUseCase,
	loginUC *authUC.LoginUseCase,
	requestResetUC *authUC.RequestPasswordResetUseCase,
	resetUC *authUC.ResetPasswordUseCase,
	currentUserUC *authUC.GetCurrentUserUseCase,
	log logger.Logger,
) *AuthHandler {
	return &AuthHandler{
		registerUseCase:     registerUC,
		loginUseCase:        loginUC,
		requestResetUseCase: requestResetUC,
		resetUseCase:        resetUC,
		currentUserUseCase:  currentUserUC,
		logger:              log,
	}
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(bindError(err))
		return
	}

	output, err := h.registerUseCase.Execute(c.Request.Context(), authUC.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, AuthResponse{User: ToUserDTO(output.User), Token: output.AccessToken})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(bindError(err))
		return
	}

	output, err := h.loginUseCase.Execute(c.Request.Context(), authUC.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, AuthResponse{User: ToUserDTO(output.User), Token: output.AccessToken})
}

func (h *AuthHandler) RequestPasswordReset(c *gin.Context) {
	var req resetRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(bindError(err))
		return
	}

	if err := h.requestResetUseCase.Execute(c.Request.Context(), authUC.RequestPasswordResetInput{Email: req.Email}); err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "If an account exists for that email, a reset link has been sent"})
}

func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req resetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(bindError(err))
		return
	}

	err := h.resetUseCase.Execute(c.Request.Context(), authUC.ResetPasswordInput{
		Token:       req.Token,
		NewPassword: req.NewPassword,
	})
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Password updated successfully"})
}

func (h *AuthHandler) Me(c *gin.Context) {
	userID, ok := GetUserIDFromGinContext(c)
	if !ok {
		c.Error(apperror.NewPermissionDenied("userID not found in context"))
		return
	}

	u, err := h.currentUserUseCase.Execute(c.Request.Context(), userID)
	if err != nil {
		c.Error(err)
		return
	}

	dto := ToUserDTO(u)
	dto.CreatedAt = &u.CreatedAt
	c.JSON(http.StatusOK, gin.H{"user": dto})
}
