package util

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Response is the generic success payload map.
type Response map[string]interface{}

// Success writes the payload as-is with HTTP 200.
func Success(c *gin.Context, data Response) {
	c.JSON(http.StatusOK, data)
}

// Error writes the uniform error envelope {"error": msg}.
func Error(c *gin.Context, httpStatus int, msg string) {
	c.JSON(httpStatus, gin.H{"error": msg})
}
