package middleware

import (
	"bytes"
	"io"

	"github.com/dipandhali2021/jims-sub002/internal/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// AdminActionLog records every write an admin performs directly.
// Direct admin writes skip the approval workflow, so this trail is the
// only place they show up as "pre-approved" actions.
func AdminActionLog(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		// capture the body before handlers consume it
		var bodyBytes []byte
		if c.Request.Body != nil {
			bodyBytes, _ = io.ReadAll(c.Request.Body)
			c.Request.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))
		}

		c.Next()

		user := CurrentUser(c)
		if user == nil || !user.IsAdmin() {
			return
		}
		switch c.Request.Method {
		case "POST", "PUT", "DELETE":
		default:
			return
		}
		// only successful writes are actions worth tracing
		if c.Writer.Status() >= 400 {
			return
		}

		summary := c.Request.Method + " " + c.Request.URL.Path
		if len(bodyBytes) > 0 && len(bodyBytes) < 2000 {
			summary += " " + string(bodyBytes)
		}

		action := models.AdminAction{
			UserID:    &user.ID,
			Path:      c.Request.URL.Path,
			Method:    c.Request.Method,
			Summary:   summary,
			IP:        c.ClientIP(),
			UserAgent: c.Request.UserAgent(),
		}
		_ = db.Create(&action).Error
	}
}
