package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/projectline/projectline/internal/types"
)

// TenantMiddleware resolves the tenant and user for the request from
// headers, falling back to the defaults for single-tenant deployments.
// Token storage and sequence counters are scoped by the resolved tenant.
func TenantMiddleware(c *gin.Context) {
	ctx := c.Request.Context()

	tenantID := c.GetHeader(types.HeaderTenantID)
	if tenantID == "" {
		tenantID = types.DefaultTenantID
	}

	userID := c.GetHeader(types.HeaderUserID)
	if userID == "" {
		userID = types.DefaultUserID
	}

	ctx = context.WithValue(ctx, types.CtxTenantID, tenantID)
	ctx = context.WithValue(ctx, types.CtxUserID, userID)
	c.Request = c.Request.WithContext(ctx)

	c.Next()
}
