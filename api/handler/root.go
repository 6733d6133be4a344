package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/vidinfo/models"
)

// Version is reported by GET / and GET /health.
const Version = "1.0.0"

// Root returns a handler for GET / describing the service.
func Root() gin.HandlerFunc {
	info := models.ServiceInfo{
		Service: "vidinfo",
		Version: Version,
		Endpoints: map[string]string{
			"GET /health":   "liveness and extraction tool availability",
			"POST /extract": "extract video metadata: {\"url\": \"...\", \"webhook_url\": \"...\"}",
		},
	}
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, info)
	}
}

// NotFound answers unknown routes with the standard error body.
func NotFound() gin.HandlerFunc {
	return func(c *gin.Context) {
		respondError(c, models.NewAPIError(models.ErrCodeNotFound, "route not found: "+c.Request.Method+" "+c.Request.URL.Path, nil))
	}
}
