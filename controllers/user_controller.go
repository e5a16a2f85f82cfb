package controllers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cppla/postboard/middleware"
	"github.com/cppla/postboard/models"
	"github.com/cppla/postboard/store"
	"github.com/cppla/postboard/utils"
)

// UserController handles account signup and token issuance.
type UserController struct {
	users    store.UserStore
	secret   string
	tokenTTL time.Duration
}

// NewUserController creates a new UserController instance.
func NewUserController(users store.UserStore, secret string, tokenTTL time.Duration) *UserController {
	return &UserController{users: users, secret: secret, tokenTTL: tokenTTL}
}

type credentials struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

// Signup creates a new account.
func (u *UserController) Signup(ctx *gin.Context) {
	var req credentials
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, "invalid request payload")
		return
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		utils.Sugar.Errorw("hash password failed", "error", err)
		utils.Error(ctx, http.StatusInternalServerError, "Invalid authentication credentials!")
		return
	}

	user, err := u.users.CreateUser(ctx.Request.Context(), models.User{Email: req.Email, PasswordHash: hash})
	if err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			utils.Error(ctx, http.StatusConflict, "Email already registered!")
			return
		}
		utils.Sugar.Errorw("create user failed", "error", err)
		utils.Error(ctx, http.StatusInternalServerError, "Invalid authentication credentials!")
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{
		"message": "User created!",
		"result":  gin.H{"id": user.ID, "email": user.Email},
	})
}

// Login verifies credentials and issues a JWT.
func (u *UserController) Login(ctx *gin.Context) {
	var req credentials
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusUnauthorized, "Auth failed")
		return
	}

	user, err := u.users.FindUserByEmail(ctx.Request.Context(), req.Email)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			utils.Sugar.Errorw("find user failed", "error", err)
		}
		utils.Error(ctx, http.StatusUnauthorized, "Auth failed")
		return
	}
	if !utils.CheckPassword(user.PasswordHash, req.Password) {
		utils.Error(ctx, http.StatusUnauthorized, "Auth failed")
		return
	}

	token, _, err := utils.GenerateToken(u.secret, user.ID, user.Email, u.tokenTTL)
	if err != nil {
		utils.Sugar.Errorw("generate token failed", "error", err)
		utils.Error(ctx, http.StatusInternalServerError, "failed to generate token")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"token":     token,
		"expiresIn": int64(u.tokenTTL / time.Second),
		"userId":    user.ID,
	})
}

// Logout invalidates the token by blacklisting it until expiration.
func (u *UserController) Logout(ctx *gin.Context) {
	token := ctx.GetString(middleware.ContextTokenKey)
	if token == "" {
		utils.Error(ctx, http.StatusUnauthorized, "Auth failed!")
		return
	}

	expiresAt := time.Now().Add(u.tokenTTL)
	if v, ok := ctx.Get(middleware.ContextClaimsKey); ok {
		if claims, ok := v.(*utils.Claims); ok && claims.ExpiresAt != nil {
			expiresAt = claims.ExpiresAt.Time
		}
	}

	utils.BlacklistToken(token, expiresAt)
	utils.Message(ctx, http.StatusOK, "logged out")
}
