package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dipandhali2021/jims-sub002/internal/database"
	"github.com/dipandhali2021/jims-sub002/internal/models"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := database.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// asUser plants a user into the gin context the way AuthMiddleware does.
func asUser(u *models.User) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("currentUser", u)
		c.Next()
	}
}

func notificationRouter(db *gorm.DB, u *models.User) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewNotificationHandler(db)
	r := gin.New()
	r.Use(asUser(u))
	r.GET("/notifications", h.List)
	r.PUT("/notifications/read", h.MarkAllRead)
	r.DELETE("/notifications", h.Clear)
	return r
}

func TestNotificationList_TrimsToRetention(t *testing.T) {
	db := newTestDB(t)
	user := &models.User{Username: "u1", PasswordHash: "x", Role: models.RoleUser}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	for i := 0; i < 15; i++ {
		Notify(db, user.ID, fmt.Sprintf("note %d", i), "")
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/notifications", nil)
	notificationRouter(db, user).ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}

	var resp struct {
		Items []struct {
			Title string `json:"title"`
		} `json:"items"`
		Total int `json:"total"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Total != models.NotificationRetention {
		t.Errorf("total = %d, want %d", resp.Total, models.NotificationRetention)
	}
	if len(resp.Items) > 0 && resp.Items[0].Title != "note 14" {
		t.Errorf("first item = %q, want newest (note 14)", resp.Items[0].Title)
	}

	var left int64
	db.Model(&models.Notification{}).Where("user_id = ?", user.ID).Count(&left)
	if left != int64(models.NotificationRetention) {
		t.Errorf("rows left = %d, want %d", left, models.NotificationRetention)
	}
}

func TestNotificationList_DoesNotTouchOtherUsers(t *testing.T) {
	db := newTestDB(t)
	a := &models.User{Username: "a", PasswordHash: "x", Role: models.RoleUser}
	b := &models.User{Username: "b", PasswordHash: "x", Role: models.RoleUser}
	for _, u := range []*models.User{a, b} {
		if err := db.Create(u).Error; err != nil {
			t.Fatalf("seed user: %v", err)
		}
	}
	for i := 0; i < 15; i++ {
		Notify(db, a.ID, fmt.Sprintf("a %d", i), "")
	}
	for i := 0; i < 3; i++ {
		Notify(db, b.ID, fmt.Sprintf("b %d", i), "")
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/notifications", nil)
	notificationRouter(db, a).ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	var left int64
	db.Model(&models.Notification{}).Where("user_id = ?", b.ID).Count(&left)
	if left != 3 {
		t.Errorf("other user's rows = %d, want 3", left)
	}
}

func TestNotificationMarkAllRead(t *testing.T) {
	db := newTestDB(t)
	user := &models.User{Username: "u1", PasswordHash: "x", Role: models.RoleUser}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	Notify(db, user.ID, "one", "")
	Notify(db, user.ID, "two", "")

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/notifications/read", nil)
	notificationRouter(db, user).ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}

	var unread int64
	db.Model(&models.Notification{}).Where("user_id = ? AND read = ?", user.ID, false).Count(&unread)
	if unread != 0 {
		t.Errorf("unread = %d, want 0", unread)
	}
}

func TestNotificationClear(t *testing.T) {
	db := newTestDB(t)
	user := &models.User{Username: "u1", PasswordHash: "x", Role: models.RoleUser}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	Notify(db, user.ID, "one", "")

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/notifications", nil)
	notificationRouter(db, user).ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	var left int64
	db.Model(&models.Notification{}).Where("user_id = ?", user.ID).Count(&left)
	if left != 0 {
		t.Errorf("rows left = %d, want 0", left)
	}
}
