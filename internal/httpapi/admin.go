package httpapi

import (
	"context"
	"fmt"
	"net/http"

	"telecom-network/internal/audit"
	"telecom-network/internal/network"
	"telecom-network/internal/snapshot"

	"github.com/gin-gonic/gin"
)

const maxImportBytes = 4 << 20

// Import loads the pipe-delimited registry format from the request body.
// Nothing is applied when any line is rejected.
func (h Handlers) Import(c *gin.Context) {
	body := http.MaxBytesReader(c.Writer, c.Request.Body, maxImportBytes)
	var res network.ImportResult
	err := h.Net.Do(func(n *network.Network) error {
		var err error
		res, err = n.Import(c.Request.Context(), body)
		return err
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	h.record(c, func(ctx context.Context, s *audit.Service, a audit.Actor) error {
		return s.LogImport(ctx, a, fmt.Sprintf("imported %d clients, %d terminals, %d friendships", res.Clients, res.Terminals, res.Friends))
	})
	c.JSON(http.StatusOK, res)
}

// Save writes a snapshot now if anything changed since the last one.
func (h Handlers) Save(c *gin.Context) {
	if h.Store == nil {
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "snapshot store not configured"})
		return
	}
	saved, err := snapshot.SaveIfDirty(c.Request.Context(), h.Net, h.Store)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.record(c, func(ctx context.Context, s *audit.Service, a audit.Actor) error {
		return s.LogAdminAction(ctx, a, fmt.Sprintf("manual save (written=%t)", saved))
	})
	c.JSON(http.StatusOK, gin.H{"saved": saved})
}

// AuditLog lists audit events, optionally for one ?client=.
func (h Handlers) AuditLog(c *gin.Context) {
	if h.Audit == nil {
		c.JSON(http.StatusOK, gin.H{"events": []audit.Event{}})
		return
	}
	evs, err := h.Audit.List(c.Request.Context(), c.Query("client"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": evs})
}
