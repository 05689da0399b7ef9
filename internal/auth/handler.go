package auth

import (
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Handler serves account management. This is a single-maintainer tool:
// registration is open only while the users table is empty, so the
// first run bootstraps the one account and the endpoint closes itself.
type Handler struct {
	Repo   *Repo
	Tokens TokenService
}

func NewHandler(repo *Repo, tokens TokenService) *Handler {
	return &Handler{Repo: repo, Tokens: tokens}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/register", h.register)
	rg.POST("/login", h.login)
	rg.POST("/change-password", RequireAuth(h.Tokens, h.Repo), h.changePassword)
	rg.POST("/logout", RequireAuth(h.Tokens, h.Repo), h.logout)
}

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// bcrypt truncates past 72 bytes, so longer passwords are rejected
// rather than silently shortened.
func validPassword(p string) bool { return len(p) >= 8 && len(p) <= 72 }

func (h *Handler) register(c *gin.Context) {
	var req credentials
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	if len(req.Username) < 3 || len(req.Username) > 30 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username must be 3-30 characters"})
		return
	}
	if !validPassword(req.Password) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "password must be 8-72 characters"})
		return
	}

	n, err := h.Repo.Count(c.Request.Context())
	if err != nil {
		log.Printf("[auth] count users: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "register failed"})
		return
	}
	if n > 0 {
		c.JSON(http.StatusForbidden, gin.H{"error": "registration is closed"})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "register failed"})
		return
	}

	u := User{
		ID:           uuid.NewString(),
		Username:     req.Username,
		PasswordHash: string(hash),
	}
	if err := h.Repo.Create(c.Request.Context(), u); err != nil {
		log.Printf("[auth] create user: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "register failed"})
		return
	}

	h.issueToken(c, http.StatusCreated, &u)
}

func (h *Handler) login(c *gin.Context) {
	var req credentials
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	u, err := h.Repo.ByUsername(c.Request.Context(), req.Username)
	if err != nil || u == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)) != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	h.issueToken(c, http.StatusOK, u)
}

func (h *Handler) issueToken(c *gin.Context, status int, u *User) {
	token, exp, err := h.Tokens.Sign(u)
	if err != nil {
		log.Printf("[auth] sign token: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token failed"})
		return
	}
	c.JSON(status, gin.H{
		"username":   u.Username,
		"token":      token,
		"expires_at": exp.UTC().Format(time.RFC3339),
	})
}

type changePasswordReq struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

// changePassword rotates the hash; the token-version bump inside
// SetPassword means the caller's own token stops working too and they
// log in again with the new password.
func (h *Handler) changePassword(c *gin.Context) {
	var req changePasswordReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if !validPassword(req.NewPassword) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "password must be 8-72 characters"})
		return
	}

	claims, ok := ClaimsFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	u, err := h.Repo.ByID(c.Request.Context(), claims.UserID)
	if err != nil || u == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.OldPassword)) != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "change password failed"})
		return
	}
	if err := h.Repo.SetPassword(c.Request.Context(), u.ID, string(hash)); err != nil {
		log.Printf("[auth] set password: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "change password failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "password changed"})
}

func (h *Handler) logout(c *gin.Context) {
	claims, ok := ClaimsFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	if err := h.Repo.RevokeTokens(c.Request.Context(), claims.UserID); err != nil {
		log.Printf("[auth] revoke tokens: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "logout failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "logged out"})
}
