package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"telecom-network/internal/audit"
	"telecom-network/internal/auth"
	"telecom-network/internal/clients"
	"telecom-network/internal/communications"
	"telecom-network/internal/network"
	"telecom-network/internal/pricing"
	"telecom-network/internal/rbac"
	"telecom-network/internal/reporting"
	"telecom-network/internal/snapshot"
	"telecom-network/internal/terminals"
	"telecom-network/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Handlers groups HTTP handlers for dependency injection.
// Keep these thin: parse/validate input, call internal services, return JSON.
//
// Every handler reaches the network through Net.Do, so requests are applied one at a time.
type Handlers struct {
	Auth    *auth.Manager
	Net     *network.Service
	Reports *reporting.Service
	Audit   *audit.Service

	// Store is where POST /admin/save writes; nil disables manual saves.
	Store snapshot.Store
}

// --- Auth ---

type tokenRequest struct {
	UserID    string `json:"user_id"`
	ClientKey string `json:"client_key"`
	Role      string `json:"role"`
}

// IssueToken issues a JWT token pair.
//
// NOTE: credentials are not checked. Client tokens are only issued for registered clients.
func (h Handlers) IssueToken(c *gin.Context) {
	if h.Auth == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "auth not configured"})
		return
	}
	var req tokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if req.UserID == "" || req.Role == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "user_id, role required"})
		return
	}
	if !rbac.IsKnownRole(req.Role) {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "unknown role"})
		return
	}
	if req.Role == rbac.RoleClient {
		if req.ClientKey == "" {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "client_key required for client role"})
			return
		}
		err := h.Net.Do(func(n *network.Network) error {
			_, err := n.Client(req.ClientKey)
			return err
		})
		if err != nil {
			h.fail(c, err)
			return
		}
	}
	pair, err := h.Auth.IssuePair(time.Now(), req.UserID, req.ClientKey, req.Role)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "token issuance failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"access_token": pair.AccessToken, "refresh_token": pair.RefreshToken})
}

// TerminalOwner resolves the client owning the :terminal path parameter.
func (h Handlers) TerminalOwner(c *gin.Context) (string, bool) {
	var owner string
	err := h.Net.Do(func(n *network.Network) error {
		t, err := n.Terminal(c.Param("terminal"))
		if err != nil {
			return err
		}
		owner = t.OwnerKey()
		return nil
	})
	return owner, err == nil
}

// ClientParam resolves the :client path parameter as its own owner.
func ClientParam(c *gin.Context) (string, bool) {
	k := c.Param("client")
	return k, k != ""
}

// statusFor maps domain sentinels to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, network.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, network.ErrClientExists),
		errors.Is(err, network.ErrTerminalExists),
		errors.Is(err, clients.ErrNotificationsAlreadyEnabled),
		errors.Is(err, clients.ErrNotificationsAlreadyDisabled),
		errors.Is(err, snapshot.ErrSaveInProgress):
		return http.StatusConflict
	case errors.Is(err, network.ErrFailedContact),
		errors.Is(err, terminals.ErrOffTerminal),
		errors.Is(err, terminals.ErrSilencedTerminal),
		errors.Is(err, terminals.ErrBusyTerminal),
		errors.Is(err, terminals.ErrInvalidTransition),
		errors.Is(err, communications.ErrInvalidCommunication):
		return http.StatusConflict
	case errors.Is(err, terminals.ErrUnsupportedAtOrigin),
		errors.Is(err, terminals.ErrUnsupportedAtDestination):
		return http.StatusUnprocessableEntity
	case errors.Is(err, terminals.ErrInvalidKey),
		errors.Is(err, terminals.ErrInvalidFriend),
		errors.Is(err, clients.ErrInvalidClient),
		errors.Is(err, pricing.ErrUnknownPlan),
		errors.Is(err, network.ErrUnrecognizedEntry),
		errors.Is(err, network.ErrInvalidEntry),
		errors.Is(err, reporting.ErrInvalidRequest):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (h Handlers) fail(c *gin.Context, err error) {
	status := statusFor(err)
	log := logger.FromGin(c)
	if status >= http.StatusInternalServerError {
		log.Error("request failed", "err", err)
		c.AbortWithStatusJSON(status, gin.H{"error": "internal error"})
		return
	}
	log.Warn("request rejected", "status", status, "err", err)
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}

// render writes body as JSON, or text as text/plain when ?format=text.
func render(c *gin.Context, status int, body any, text string) {
	if c.Query("format") == "text" {
		c.String(status, text+"\n")
		return
	}
	c.JSON(status, body)
}

func actor(c *gin.Context) audit.Actor {
	ctx := c.Request.Context()
	uid, _ := auth.UserID(ctx)
	role, _ := auth.Role(ctx)
	return audit.Actor{UserID: uid, Role: role, IP: c.ClientIP()}
}

// record appends an audit event. Failures are logged, never returned.
func (h Handlers) record(c *gin.Context, fn func(ctx context.Context, s *audit.Service, a audit.Actor) error) {
	if h.Audit == nil {
		return
	}
	ctx := c.Request.Context()
	if err := fn(ctx, h.Audit, actor(c)); err != nil {
		logger.From(ctx).Warn("audit append failed", "err", err)
	}
}
