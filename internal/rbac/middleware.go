package rbac

import (
	"net/http"

	"telecom-network/internal/auth"

	"github.com/gin-gonic/gin"
)

// RequireAnyRole allows access if the caller has any of the provided roles.
// super_admin bypasses all checks.
func RequireAnyRole(allowed ...string) gin.HandlerFunc {
	allowedSet := make(map[string]struct{}, len(allowed))
	for _, r := range allowed {
		allowedSet[r] = struct{}{}
	}

	return func(c *gin.Context) {
		role, err := auth.Role(c.Request.Context())
		if err != nil || role == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "role required"})
			return
		}

		if IsSuperAdmin(role) {
			c.Next()
			return
		}

		if _, ok := allowedSet[role]; !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}
		c.Next()
	}
}

// OwnerResolver returns the client key owning the resource addressed by the request.
// ok is false when the resource does not exist.
type OwnerResolver func(c *gin.Context) (clientKey string, ok bool)

// RequireClientScope lets client tokens through only for resources of their own client.
// Other roles pass; combine with RequireAnyRole. Unknown resources pass so the
// handler can answer 404.
func RequireClientScope(owner OwnerResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, _ := auth.Role(c.Request.Context())
		if role != RoleClient {
			c.Next()
			return
		}
		clientKey, err := auth.ClientKey(c.Request.Context())
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "client_key required"})
			return
		}
		got, ok := owner(c)
		if ok && got != clientKey {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}
		c.Next()
	}
}
