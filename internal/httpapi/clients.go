package httpapi

import (
	"net/http"

	"telecom-network/internal/clients"
	"telecom-network/internal/display"
	"telecom-network/internal/network"
	"telecom-network/internal/notifications"
	"telecom-network/internal/reporting"

	"github.com/gin-gonic/gin"
)

type clientView struct {
	Key           string   `json:"key"`
	Name          string   `json:"name"`
	TaxID         string   `json:"tax_id"`
	Plan          string   `json:"plan"`
	Tier          string   `json:"tier"`
	Notifications bool     `json:"notifications"`
	Terminals     []string `json:"terminals"`
	Paid          int64    `json:"paid"`
	Owed          int64    `json:"owed"`
	Balance       int64    `json:"balance"`
}

func newClientView(c *clients.Client, a network.Account) clientView {
	return clientView{
		Key:           c.Key(),
		Name:          c.Name(),
		TaxID:         c.TaxID(),
		Plan:          c.Plan().Name(),
		Tier:          string(c.Tier()),
		Notifications: c.NotificationsEnabled(),
		Terminals:     c.Terminals(),
		Paid:          a.Paid,
		Owed:          a.Owed,
		Balance:       a.Balance(),
	}
}

func clientLine(c *clients.Client, a network.Account) display.ClientLine {
	return display.ClientLine{Client: c, Paid: a.Paid, Owed: a.Owed}
}

type registerClientRequest struct {
	Key   string `json:"key"`
	Name  string `json:"name"`
	TaxID string `json:"tax_id"`
}

func (h Handlers) RegisterClient(c *gin.Context) {
	var req registerClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	var (
		view clientView
		line string
	)
	err := h.Net.Do(func(n *network.Network) error {
		cl, err := n.RegisterClient(req.Key, req.Name, req.TaxID)
		if err != nil {
			return err
		}
		view = newClientView(cl, network.Account{})
		line = display.Format(clientLine(cl, network.Account{}))
		return nil
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	render(c, http.StatusCreated, view, line)
}

func (h Handlers) ListClients(c *gin.Context) {
	var (
		views []clientView
		lines []display.ClientLine
	)
	err := h.Net.Do(func(n *network.Network) error {
		for _, cl := range n.Clients() {
			a, err := n.ClientAccount(cl.Key())
			if err != nil {
				return err
			}
			views = append(views, newClientView(cl, a))
			lines = append(lines, clientLine(cl, a))
		}
		return nil
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	if views == nil {
		views = []clientView{}
	}
	render(c, http.StatusOK, gin.H{"clients": views}, display.Lines(lines))
}

func (h Handlers) GetClient(c *gin.Context) {
	key := c.Param("client")
	var (
		view clientView
		line string
	)
	err := h.Net.Do(func(n *network.Network) error {
		cl, err := n.Client(key)
		if err != nil {
			return err
		}
		a, err := n.ClientAccount(key)
		if err != nil {
			return err
		}
		view = newClientView(cl, a)
		line = display.Format(clientLine(cl, a))
		return nil
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	render(c, http.StatusOK, view, line)
}

type notificationsRequest struct {
	Enabled *bool `json:"enabled"`
}

// SetNotifications toggles whether the client collects reachability notifications.
func (h Handlers) SetNotifications(c *gin.Context) {
	var req notificationsRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Enabled == nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "enabled required"})
		return
	}
	key := c.Param("client")
	err := h.Net.Do(func(n *network.Network) error {
		return n.SetClientNotifications(key, *req.Enabled)
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"client": key, "notifications": *req.Enabled})
}

// DrainNotifications returns and clears the client's pending notifications.
func (h Handlers) DrainNotifications(c *gin.Context) {
	key := c.Param("client")
	var out []notifications.Notification
	err := h.Net.Do(func(n *network.Network) error {
		var err error
		out, err = n.DrainNotifications(key)
		return err
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	if out == nil {
		out = []notifications.Notification{}
	}
	render(c, http.StatusOK, gin.H{"notifications": out}, display.Lines(out))
}

type planRequest struct {
	Plan string `json:"plan"`
}

func (h Handlers) SetPlan(c *gin.Context) {
	var req planRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Plan == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "plan required"})
		return
	}
	key := c.Param("client")
	err := h.Net.Do(func(n *network.Network) error {
		return n.SetClientPlan(key, req.Plan)
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"client": key, "plan": req.Plan})
}

// ClientTerminals lists the terminals a client owns.
func (h Handlers) ClientTerminals(c *gin.Context) {
	key := c.Param("client")
	var (
		views []terminalView
		lines []display.TerminalLine
	)
	err := h.Net.Do(func(n *network.Network) error {
		ts, err := n.ClientTerminals(key)
		if err != nil {
			return err
		}
		for _, t := range ts {
			a, err := n.TerminalAccount(t.Key())
			if err != nil {
				return err
			}
			views = append(views, newTerminalView(t, a))
			lines = append(lines, terminalLine(t, a))
		}
		return nil
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	if views == nil {
		views = []terminalView{}
	}
	render(c, http.StatusOK, gin.H{"terminals": views}, display.Lines(lines))
}

// ClientCommunications lists what the client's terminals made (default) or received.
func (h Handlers) ClientCommunications(c *gin.Context) {
	key := c.Param("client")
	dir := reporting.Direction(c.DefaultQuery("direction", string(reporting.DirectionMade)))
	out, err := h.Reports.ClientCommunications(c.Request.Context(), key, dir)
	if err != nil {
		h.fail(c, err)
		return
	}
	render(c, http.StatusOK, gin.H{"communications": out}, display.Lines(out))
}
