package server

import (
	"net"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// AllowedHosts creates middleware that rejects requests whose Host header is
// not in the allow list. A list containing "*" admits every host; entries
// beginning with a dot match any subdomain.
func AllowedHosts(hosts []string) gin.HandlerFunc {
	for _, host := range hosts {
		if host == "*" {
			return func(c *gin.Context) { c.Next() }
		}
	}

	allowed := make([]string, 0, len(hosts))
	for _, host := range hosts {
		allowed = append(allowed, strings.ToLower(strings.TrimSpace(host)))
	}

	return func(c *gin.Context) {
		host := strings.ToLower(c.Request.Host)
		if h, _, err := net.SplitHostPort(host); err == nil {
			host = h
		}

		for _, candidate := range allowed {
			if candidate == host {
				c.Next()
				return
			}
			if strings.HasPrefix(candidate, ".") && strings.HasSuffix(host, candidate) {
				c.Next()
				return
			}
		}

		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid host header"})
	}
}
