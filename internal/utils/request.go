package utils

import (
	"crypto/rand"
	"encoding/base64"
	"github.com/gin-gonic/gin"
	"net"
	"net/url"
	"strings"
)

// ClientIP prefers the left-most X-Forwarded-For hop, then falls back to
// the socket peer address.
func ClientIP(c *gin.Context) string {
	if c == nil {
		return ""
	}
	if xff := c.GetHeader("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		ip := strings.TrimSpace(parts[0])
		if ip != "" {
			return ip
		}
	}
	ip, _, err := net.SplitHostPort(strings.TrimSpace(c.Request.RemoteAddr))
	if err != nil {
		return strings.TrimSpace(c.Request.RemoteAddr)
	}
	return ip
}

// SecureToken returns a URL-safe random token, the equivalent of 32 random
// bytes.
func SecureToken() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return ""
	}
	return base64.RawURLEncoding.EncodeToString(b)
}

// PathFromURL extracts the path component of a URL, or returns the input
// unchanged when it is already a bare path.
func PathFromURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if strings.HasPrefix(raw, "/") {
		return raw
	}
	u, err := url.Parse(raw)
	if err != nil || u.Path == "" {
		return raw
	}
	return u.Path
}

// ShortToken returns a URL-safe random token truncated to n characters,
// used for referral and unsubscribe codes that travel in URLs.
func ShortToken(n int) string {
	if n <= 0 {
		return ""
	}
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return ""
	}
	tok := base64.RawURLEncoding.EncodeToString(b)
	if len(tok) > n {
		tok = tok[:n]
	}
	return tok
}
