package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	ctxUserID = "uid"
	ctxRole   = "role"
)

func abort(c *gin.Context, status int, code, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"error": msg, "code": code})
}

// Guard requires a valid access token and, when roles are given, one of those roles.
func Guard(iss *Issuer, allowedRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := strings.TrimSpace(c.GetHeader("Authorization"))
		if raw == "" {
			abort(c, http.StatusUnauthorized, "Unauthorized", "missing token")
			return
		}
		parts := strings.Split(raw, " ")
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			abort(c, http.StatusUnauthorized, "Unauthorized", "invalid token")
			return
		}
		claims, err := iss.ParseAccess(parts[1])
		if err != nil {
			abort(c, http.StatusUnauthorized, "Unauthorized", "unauthorized")
			return
		}
		if len(allowedRoles) > 0 {
			match := false
			for _, r := range allowedRoles {
				if claims.Role == r {
					match = true
					break
				}
			}
			if !match {
				abort(c, http.StatusForbidden, "Forbidden", "forbidden")
				return
			}
		}
		c.Set(ctxUserID, claims.UserID)
		c.Set(ctxRole, claims.Role)
		c.Next()
	}
}

func AdminGuard(iss *Issuer) gin.HandlerFunc {
	return Guard(iss, RoleAdmin)
}

func UserID(c *gin.Context) string { return c.GetString(ctxUserID) }

func IsAdmin(c *gin.Context) bool { return c.GetString(ctxRole) == RoleAdmin }
