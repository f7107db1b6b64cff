package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dipandhali2021/jims-sub002/internal/cascade"
	"github.com/dipandhali2021/jims-sub002/internal/ledger"
	"github.com/dipandhali2021/jims-sub002/internal/metrics"
	"github.com/dipandhali2021/jims-sub002/internal/middleware"
	"github.com/dipandhali2021/jims-sub002/internal/models"
	"github.com/dipandhali2021/jims-sub002/internal/util"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// AdminHandler serves user administration. All routes sit behind
// RequireAdmin.
type AdminHandler struct {
	DB             *gorm.DB
	IDP            cascade.IdentityProvider
	CascadeTimeout time.Duration
}

func NewAdminHandler(db *gorm.DB, idp cascade.IdentityProvider, cascadeTimeout time.Duration) *AdminHandler {
	if idp == nil {
		idp = cascade.NoopIdentityProvider{}
	}
	if cascadeTimeout <= 0 {
		cascadeTimeout = time.Minute
	}
	return &AdminHandler{DB: db, IDP: idp, CascadeTimeout: cascadeTimeout}
}

func userResp(u *models.User) gin.H {
	return gin.H{
		"id":            u.ID,
		"username":      u.Username,
		"display_name":  u.DisplayName,
		"role":          u.Role,
		"created_at":    u.CreatedAt,
		"last_login_at": u.LastLoginAt,
	}
}

// ListUsers returns all accounts.
func (h *AdminHandler) ListUsers(c *gin.Context) {
	var users []models.User
	if err := h.DB.Order("id ASC").Find(&users).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, "failed to list users")
		return
	}

	items := make([]gin.H, 0, len(users))
	for i := range users {
		items = append(items, userResp(&users[i]))
	}
	util.Success(c, util.Response{"items": items, "total": len(items)})
}

type changeRoleReq struct {
	Role string `json:"role" binding:"required,oneof=admin user"`
}

// ChangeRole updates the role column, the single source of truth for
// authorization. Existing tokens keep working; every request reloads
// the row.
func (h *AdminHandler) ChangeRole(c *gin.Context) {
	actor := middleware.CurrentUser(c)
	if actor == nil {
		util.Error(c, http.StatusUnauthorized, "not logged in")
		return
	}
	id, ok := idFromParam(c)
	if !ok {
		return
	}

	var req changeRoleReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, "role must be admin or user")
		return
	}

	// demoting yourself could leave the system without any admin
	if id == actor.ID && req.Role != models.RoleAdmin {
		util.Error(c, http.StatusBadRequest, "cannot demote your own account")
		return
	}

	var user models.User
	if err := h.DB.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.Error(c, http.StatusNotFound, "user not found")
		} else {
			util.Error(c, http.StatusInternalServerError, "failed to load user")
		}
		return
	}

	if err := h.DB.Model(&user).Update("role", req.Role).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, "failed to update role")
		return
	}
	user.Role = req.Role

	util.Success(c, util.Response{"user": userResp(&user)})
}

// DeleteUser runs the full deletion cascade for a user account.
func (h *AdminHandler) DeleteUser(c *gin.Context) {
	actor := middleware.CurrentUser(c)
	if actor == nil {
		util.Error(c, http.StatusUnauthorized, "not logged in")
		return
	}
	id, ok := idFromParam(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.CascadeTimeout)
	defer cancel()

	if err := cascade.DeleteUser(ctx, h.DB, h.IDP, id, actor.ID); err != nil {
		switch {
		case errors.Is(err, cascade.ErrSelfDelete):
			util.Error(c, http.StatusBadRequest, "cannot delete your own account")
		case errors.Is(err, ledger.ErrNotFound):
			util.Error(c, http.StatusNotFound, "user not found")
		default:
			util.Error(c, http.StatusInternalServerError, "failed to delete user")
		}
		return
	}

	metrics.CascadeDeletesTotal.WithLabelValues("user").Inc()
	util.Success(c, util.Response{"message": "user deleted"})
}

// ListActions returns the admin action trail, newest first.
func (h *AdminHandler) ListActions(c *gin.Context) {
	var actions []models.AdminAction
	if err := h.DB.Order("created_at DESC, id DESC").
		Limit(200).
		Find(&actions).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, "failed to list admin actions")
		return
	}

	items := make([]gin.H, 0, len(actions))
	for _, a := range actions {
		items = append(items, gin.H{
			"id":         a.ID,
			"user_id":    a.UserID,
			"method":     a.Method,
			"path":       a.Path,
			"summary":    a.Summary,
			"ip":         a.IP,
			"created_at": a.CreatedAt,
		})
	}
	util.Success(c, util.Response{"items": items, "total": len(items)})
}
