package main

import (
	"context"
	"net/http"
	"time"

	"telecom-network/internal/httpapi"
	"telecom-network/internal/rbac"

	"github.com/gin-gonic/gin"
)

// healthFunc probes a backing service; nil means there is nothing to probe.
type healthFunc func(ctx context.Context) error

const healthTimeout = 2 * time.Second

// registerRoutes wires HTTP routes to handlers.
// Keep this file free of business logic. Handlers should delegate to internal modules.
func registerRoutes(r *gin.Engine, h httpapi.Handlers, authMW gin.HandlerFunc, health healthFunc) {
	// public
	r.GET("/healthz", func(c *gin.Context) {
		if health != nil {
			if err := health(c.Request.Context()); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	// NOTE: token issuance does not check credentials yet.
	r.POST("/v1/auth/token", h.IssueToken)

	// protected API group
	v1 := r.Group("/v1")
	v1.Use(authMW)

	operator := rbac.RequireAnyRole(rbac.RoleOperator)
	anyone := rbac.RequireAnyRole(rbac.RoleOperator, rbac.RoleClient)

	// CLIENT routes
	// Client tokens only see their own client.
	v1.POST("/clients", operator, h.RegisterClient)
	v1.GET("/clients", operator, h.ListClients)
	client := v1.Group("/clients/:client")
	client.Use(anyone, rbac.RequireClientScope(httpapi.ClientParam))
	{
		client.GET("", h.GetClient)
		client.GET("/terminals", h.ClientTerminals)
		client.GET("/communications", h.ClientCommunications)
		client.PUT("/notifications", h.SetNotifications)
		client.POST("/notifications/drain", h.DrainNotifications)
		client.PUT("/plan", operator, h.SetPlan)
	}

	// TERMINAL routes
	v1.POST("/terminals", operator, h.RegisterTerminal)
	v1.GET("/terminals", operator, h.ListTerminals)
	terminal := v1.Group("/terminals/:terminal")
	terminal.Use(anyone, rbac.RequireClientScope(h.TerminalOwner))
	{
		terminal.GET("", h.GetTerminal)
		terminal.PUT("/state", h.SwitchState)
		terminal.POST("/friends", h.AddFriend)
		terminal.DELETE("/friends/:friend", h.RemoveFriend)
		terminal.POST("/texts", h.SendText)
		terminal.POST("/calls", h.StartCall)
		terminal.POST("/calls/end", h.EndCall)
		terminal.POST("/payments", h.Pay)
		terminal.GET("/balance", h.Balance)
		terminal.GET("/communications", h.TerminalCommunications)
	}

	// COMMUNICATION and REPORT routes
	v1.GET("/communications", operator, h.ListCommunications)
	v1.GET("/communications/:communication", operator, h.GetCommunication)
	reports := v1.Group("/reports")
	reports.Use(operator)
	{
		reports.GET("/clients", h.ClientReport)
		reports.GET("/terminals/unused", h.UnusedTerminals)
		reports.GET("/terminals/positive", h.PositiveTerminals)
		reports.GET("/totals", h.Totals)
	}

	// ADMIN routes
	admin := v1.Group("/admin")
	admin.Use(operator)
	{
		admin.POST("/import", h.Import)
		admin.POST("/save", h.Save)
		admin.GET("/audit", h.AuditLog)
	}
}
