package middleware

import (
	"net/netip"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/storefront/backend/internal/interfaces/http/dto"
)

// SwaggerConfig controls who may read the API documentation
type SwaggerConfig struct {
	Enabled bool
	// AllowedIPs holds addresses or CIDR prefixes; empty allows every client
	AllowedIPs []string
	// Authenticate, when set, runs before the docs are served. Pass the JWT
	// guard (optionally followed by RequireAdmin) to keep the docs behind a login.
	Authenticate []gin.HandlerFunc
}

// SwaggerProtection gates the /swagger routes. A disabled endpoint answers
// 404 so its existence is not advertised. Malformed AllowedIPs entries are
// ignored; config validation rejects them before the server starts.
func SwaggerProtection(cfg SwaggerConfig) gin.HandlerFunc {
	prefixes := parseAllowedIPs(cfg.AllowedIPs)
	guards := compactHandlers(cfg.Authenticate)

	return func(c *gin.Context) {
		if !cfg.Enabled {
			abortWithError(c, dto.ErrCodeNotFound, "API documentation is not available")
			return
		}

		if len(cfg.AllowedIPs) > 0 && !clientAllowed(c.ClientIP(), prefixes) {
			abortWithError(c, dto.ErrCodeForbidden, "Access to API documentation is restricted")
			return
		}

		for _, guard := range guards {
			guard(c)
			if c.IsAborted() {
				return
			}
		}
		c.Next()
	}
}

// parseAllowedIPs turns addresses and CIDR prefixes into prefixes, skipping
// entries that do not parse
func parseAllowedIPs(entries []string) []netip.Prefix {
	prefixes := make([]netip.Prefix, 0, len(entries))
	for _, entry := range entries {
		if prefix, err := parseAllowedIP(entry); err == nil {
			prefixes = append(prefixes, prefix)
		}
	}
	return prefixes
}

func parseAllowedIP(entry string) (netip.Prefix, error) {
	entry = strings.TrimSpace(entry)
	if strings.Contains(entry, "/") {
		prefix, err := netip.ParsePrefix(entry)
		if err != nil {
			return netip.Prefix{}, err
		}
		return prefix.Masked(), nil
	}
	addr, err := netip.ParseAddr(entry)
	if err != nil {
		return netip.Prefix{}, err
	}
	return netip.PrefixFrom(addr, addr.BitLen()), nil
}

func clientAllowed(clientIP string, prefixes []netip.Prefix) bool {
	addr, err := netip.ParseAddr(clientIP)
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	for _, prefix := range prefixes {
		if prefix.Contains(addr) {
			return true
		}
	}
	return false
}

func compactHandlers(handlers []gin.HandlerFunc) []gin.HandlerFunc {
	out := make([]gin.HandlerFunc, 0, len(handlers))
	for _, h := range handlers {
		if h != nil {
			out = append(out, h)
		}
	}
	return out
}
