package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"syncspace-backend/pkg/env"
)

// devOrigins are accepted on top of CORS_ALLOWED_ORIGINS so local web
// clients work without configuration.
var devOrigins = []string{
	"http://localhost:3000",
	"http://127.0.0.1:3000",
}

// CORSMiddleware answers preflights and stamps CORS headers for allowed
// origins. CORS_ALLOWED_ORIGINS is a comma-separated list; requests from
// origins outside it are rejected outright.
func CORSMiddleware() gin.HandlerFunc {
	allowed := make(map[string]struct{})
	for _, origin := range devOrigins {
		allowed[origin] = struct{}{}
	}
	for _, origin := range strings.Split(env.GetString("CORS_ALLOWED_ORIGINS", ""), ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			allowed[origin] = struct{}{}
		}
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin != "" {
			if _, ok := allowed[origin]; !ok {
				c.AbortWithStatus(http.StatusForbidden)
				return
			}
			h := c.Writer.Header()
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Allow-Credentials", "true")
			h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
			h.Set("Access-Control-Max-Age", "86400")
			h.Set("Vary", "Origin")
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
