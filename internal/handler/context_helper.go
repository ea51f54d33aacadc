package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/academic-ledger/internal/contract"
	"github.com/noah-isme/academic-ledger/internal/gateway"
	"github.com/noah-isme/academic-ledger/internal/ledger"
	"github.com/noah-isme/academic-ledger/internal/middleware"
	"github.com/noah-isme/academic-ledger/internal/models"
	"github.com/noah-isme/academic-ledger/internal/service"
)

// transactionGateway is the ledger surface the HTTP handlers depend on.
type transactionGateway interface {
	Submit(ctx context.Context, caller ledger.Identity, name string, args []string) (*gateway.Result, error)
	Evaluate(ctx context.Context, caller ledger.Identity, name string, args []string) (*gateway.Result, error)
	Functions() []contract.Function
}

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		return nil
	}
	return claims
}

// callerIdentity is the organization and user the request acts for, or the
// anonymous identity when no valid token was presented.
func callerIdentity(c *gin.Context) ledger.Identity {
	return service.Identity(claimsFromContext(c))
}
