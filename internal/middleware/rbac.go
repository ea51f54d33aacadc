package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/academic-ledger/internal/models"
	appErrors "github.com/noah-isme/academic-ledger/pkg/errors"
	"github.com/noah-isme/academic-ledger/pkg/response"
)

// RequireOrganization admits only callers whose token names one of the
// given MSP IDs. Contract transactions are authorized by the ledger policy;
// this guards gateway-only routes such as document downloads.
func RequireOrganization(orgs ...string) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(orgs))
	for _, org := range orgs {
		if org = strings.TrimSpace(org); org != "" {
			allowed[org] = struct{}{}
		}
	}
	return func(c *gin.Context) {
		value, exists := c.Get(ContextUserKey)
		if !exists {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		claims, ok := value.(*models.JWTClaims)
		if !ok {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		if _, ok := allowed[claims.Organization]; ok {
			c.Next()
			return
		}
		response.Error(c, appErrors.Clonef(appErrors.ErrAuthorization, "organization %q may not access this resource", claims.Organization))
		c.Abort()
	}
}
