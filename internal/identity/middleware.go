package identity

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/psyto/lattice/pkg/trust"
)

const ctxOwner = "lattice_owner"

// RequireOwner returns a Gin middleware that enforces a valid Bearer owner
// token.
//
// On success it injects the authenticated trust.Identity into the context
// under the "lattice_owner" key.
func RequireOwner() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Bearer owner token required",
			})
			return
		}

		tokenStr := strings.TrimPrefix(authHeader, "Bearer ")
		owner, err := VerifyOwnerToken(tokenStr)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "invalid owner token: " + err.Error(),
			})
			return
		}

		c.Set(ctxOwner, owner)
		c.Next()
	}
}

// OwnerFromCtx retrieves the authenticated owner injected by RequireOwner.
func OwnerFromCtx(c *gin.Context) (trust.Identity, bool) {
	v, ok := c.Get(ctxOwner)
	if !ok {
		return trust.Identity{}, false
	}
	owner, ok := v.(trust.Identity)
	return owner, ok
}
