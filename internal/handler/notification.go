package handler

import (
	"net/http"

	"github.com/dipandhali2021/jims-sub002/internal/middleware"
	"github.com/dipandhali2021/jims-sub002/internal/models"
	"github.com/dipandhali2021/jims-sub002/internal/util"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// NotificationHandler serves per-user notifications with a fixed
// retention cap enforced on read.
type NotificationHandler struct {
	DB *gorm.DB
}

func NewNotificationHandler(db *gorm.DB) *NotificationHandler {
	return &NotificationHandler{DB: db}
}

// List returns the user's notifications, newest first. Reading also
// trims anything beyond the retention cap.
func (h *NotificationHandler) List(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		util.Error(c, http.StatusUnauthorized, "not logged in")
		return
	}

	// retention: keep the newest N, drop the rest
	var keep []uint
	if err := h.DB.Model(&models.Notification{}).
		Where("user_id = ?", user.ID).
		Order("created_at DESC, id DESC").
		Limit(models.NotificationRetention).
		Pluck("id", &keep).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, "failed to list notifications")
		return
	}
	if len(keep) == models.NotificationRetention {
		if err := h.DB.Where("user_id = ? AND id NOT IN ?", user.ID, keep).
			Delete(&models.Notification{}).Error; err != nil {
			util.Error(c, http.StatusInternalServerError, "failed to trim notifications")
			return
		}
	}

	var list []models.Notification
	if err := h.DB.Where("user_id = ?", user.ID).
		Order("created_at DESC, id DESC").
		Find(&list).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, "failed to list notifications")
		return
	}

	items := make([]gin.H, 0, len(list))
	for _, n := range list {
		items = append(items, gin.H{
			"id":         n.ID,
			"title":      n.Title,
			"body":       n.Body,
			"read":       n.Read,
			"created_at": n.CreatedAt,
		})
	}
	util.Success(c, util.Response{"items": items, "total": len(items)})
}

// MarkAllRead flags every notification of the user as read.
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		util.Error(c, http.StatusUnauthorized, "not logged in")
		return
	}

	if err := h.DB.Model(&models.Notification{}).
		Where("user_id = ? AND read = ?", user.ID, false).
		Update("read", true).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, "failed to update notifications")
		return
	}
	util.Success(c, util.Response{"message": "all notifications marked read"})
}

// Clear deletes all of the user's notifications.
func (h *NotificationHandler) Clear(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		util.Error(c, http.StatusUnauthorized, "not logged in")
		return
	}

	if err := h.DB.Where("user_id = ?", user.ID).
		Delete(&models.Notification{}).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, "failed to clear notifications")
		return
	}
	util.Success(c, util.Response{"message": "notifications cleared"})
}

// Notify inserts a notification for a user. Used by other handlers when
// approvals land; delivery to external channels is out of scope.
func Notify(db *gorm.DB, userID uint, title, body string) {
	n := models.Notification{UserID: userID, Title: title, Body: body}
	_ = db.Create(&n).Error
}
