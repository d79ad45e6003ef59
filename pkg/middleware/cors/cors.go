// Package cors restricts browser access to the editor API. The desktop shell
// serves the UI from its own origin, so by default every origin is allowed;
// a deployment behind a shared host narrows it down via configuration.
package cors

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/curriculum-tools/dataeditor/pkg/config"
)

const (
	allowedMethods = "GET, POST, PUT, DELETE, OPTIONS"
	allowedHeaders = "Content-Type, X-Request-ID"
)

// New returns the CORS middleware for the editor surface. Preflight requests
// are answered directly with 204.
func New(cfg config.CORSConfig) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(cfg.AllowedOrigins))
	for _, origin := range cfg.AllowedOrigins {
		allowed[strings.TrimRight(origin, "/")] = struct{}{}
	}

	return func(c *gin.Context) {
		header := c.Writer.Header()
		header.Set("Vary", "Origin")

		if origin := c.GetHeader("Origin"); allowOrigin(allowed, origin) {
			header.Set("Access-Control-Allow-Origin", origin)
			header.Set("Access-Control-Allow-Methods", allowedMethods)
			header.Set("Access-Control-Allow-Headers", allowedHeaders)
			header.Set("Access-Control-Max-Age", "600")
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func allowOrigin(allowed map[string]struct{}, origin string) bool {
	if origin == "" {
		return false
	}
	if len(allowed) == 0 {
		return true
	}
	_, ok := allowed[strings.TrimRight(origin, "/")]
	return ok
}
