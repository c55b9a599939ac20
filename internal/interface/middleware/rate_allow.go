package middleware

import (
	"net"

	"github.com/gin-gonic/gin"
)

// AllowPrivateIP bypasses the limit for loopback and RFC 1918 / RFC 4193
// clients, judged by c.ClientIP() so forwarded headers only count from
// trusted proxies.
func AllowPrivateIP() AllowFunc {
	return func(c *gin.Context) bool {
		ip := net.ParseIP(c.ClientIP())
		return ip != nil && (ip.IsLoopback() || ip.IsPrivate())
	}
}
