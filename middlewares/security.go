package middlewares

import (
	"github.com/gin-gonic/gin"
)

// apiContentPolicy -> service ini hanya JSON dan PNG, tidak ada halaman yang boleh load resource
const apiContentPolicy = "default-src 'none'; frame-ancestors 'none'"

// SecurityHeaders sets the response headers shared by every route
func SecurityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Content-Security-Policy", apiContentPolicy)
		c.Header("X-Frame-Options", "DENY")
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("Cross-Origin-Resource-Policy", "cross-origin")
		c.Header("Referrer-Policy", "no-referrer")
		c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")

		c.Next()
	}
}
