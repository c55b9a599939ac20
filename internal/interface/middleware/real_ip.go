package middleware

import (
	"net"
	"strings"

	"github.com/gin-gonic/gin"
)

const realIPKey = "real_ip"

// RealIP stores the reported client IP under "real_ip" for access logs and
// email metadata. Proxy headers are checked in order CF-Connecting-IP,
// X-Real-IP, left-most X-Forwarded-For; the first parseable one wins,
// otherwise c.ClientIP(). The value is client-controlled, so rate limiting
// uses clientIP instead.
func RealIP() gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := ""
		for _, h := range []string{"CF-Connecting-IP", "X-Real-IP", "X-Forwarded-For"} {
			v, _, _ := strings.Cut(c.GetHeader(h), ",")
			if parsed := net.ParseIP(strings.TrimSpace(v)); parsed != nil {
				ip = parsed.String()
				break
			}
		}
		if ip == "" {
			ip = c.ClientIP()
		}
		c.Set(realIPKey, ip)
		c.Next()
	}
}

func ipFromCtx(c *gin.Context) string {
	if ip := c.GetString(realIPKey); ip != "" {
		return ip
	}
	return clientIP(c)
}

// clientIP is the peer address, or the forwarded one when the peer is a
// trusted proxy (see gin.Engine.SetTrustedProxies).
func clientIP(c *gin.Context) string {
	if ip := c.ClientIP(); ip != "" {
		return ip
	}
	return "unknown"
}
