package util

import (
	"os"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SafeErrorResponse returns a JSON error response, logging details but only exposing safe info to users
func SafeErrorResponse(c *gin.Context, log *zap.SugaredLogger, statusCode int, userMessage string, err error) {
	// Always log the detailed error for debugging
	if err != nil && log != nil {
		log.Errorw("request failed", "path", c.Request.URL.Path, "error", err)
	}

	response := gin.H{
		"success": false,
		"message": userMessage,
	}

	// Only include detailed error in development mode
	if os.Getenv("GIN_MODE") != "release" && err != nil {
		response["error"] = err.Error()
	}

	c.JSON(statusCode, response)
}
