package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"telecom-network/internal/audit"
	"telecom-network/internal/communications"
	"telecom-network/internal/display"
	"telecom-network/internal/network"
	"telecom-network/internal/terminals"

	"github.com/gin-gonic/gin"
)

type terminalView struct {
	Key      string          `json:"key"`
	Kind     terminals.Kind  `json:"kind"`
	Owner    string          `json:"owner"`
	State    terminals.State `json:"state"`
	Friends  []string        `json:"friends"`
	Made     []int           `json:"made"`
	Received []int           `json:"received"`
	Paid     int64           `json:"paid"`
	Owed     int64           `json:"owed"`
	Balance  int64           `json:"balance"`
}

func newTerminalView(t *terminals.Terminal, a network.Account) terminalView {
	return terminalView{
		Key:      t.Key(),
		Kind:     t.Kind(),
		Owner:    t.OwnerKey(),
		State:    t.State(),
		Friends:  t.Friends(),
		Made:     t.Made(),
		Received: t.Received(),
		Paid:     a.Paid,
		Owed:     a.Owed,
		Balance:  a.Balance(),
	}
}

func terminalLine(t *terminals.Terminal, a network.Account) display.TerminalLine {
	return display.TerminalLine{Terminal: t, Paid: a.Paid, Owed: a.Owed}
}

type registerTerminalRequest struct {
	Key    string `json:"key"`
	Kind   string `json:"kind"`
	Client string `json:"client"`
	// State is ON, OFF or SILENCE; empty means ON.
	State string `json:"state"`
}

func (h Handlers) RegisterTerminal(c *gin.Context) {
	var req registerTerminalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	kind, err := terminals.ParseKind(req.Kind)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	initial, ok := initialState(req.State)
	if !ok {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "state must be ON, OFF or SILENCE"})
		return
	}
	var (
		view terminalView
		line string
	)
	err = h.Net.Do(func(n *network.Network) error {
		t, err := n.RegisterTerminal(req.Key, kind, req.Client, initial)
		if err != nil {
			return err
		}
		view = newTerminalView(t, network.Account{})
		line = display.Format(terminalLine(t, network.Account{}))
		return nil
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	render(c, http.StatusCreated, view, line)
}

func (h Handlers) ListTerminals(c *gin.Context) {
	var (
		views []terminalView
		lines []display.TerminalLine
	)
	err := h.Net.Do(func(n *network.Network) error {
		for _, t := range n.Terminals() {
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

func (h Handlers) GetTerminal(c *gin.Context) {
	key := c.Param("terminal")
	var (
		view terminalView
		line string
	)
	err := h.Net.Do(func(n *network.Network) error {
		t, err := n.Terminal(key)
		if err != nil {
			return err
		}
		a, err := n.TerminalAccount(key)
		if err != nil {
			return err
		}
		view = newTerminalView(t, a)
		line = display.Format(terminalLine(t, a))
		return nil
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	render(c, http.StatusOK, view, line)
}

type switchRequest struct {
	State string `json:"state"`
}

// SwitchState turns a terminal ON, OFF or SILENCE.
func (h Handlers) SwitchState(c *gin.Context) {
	var req switchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	r, ok := switchRequestFor(req.State)
	if !ok {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "state must be ON, OFF or SILENCE"})
		return
	}
	key := c.Param("terminal")
	var (
		owner    string
		from, to terminals.State
	)
	err := h.Net.Do(func(n *network.Network) error {
		t, err := n.Terminal(key)
		if err != nil {
			return err
		}
		owner, from = t.OwnerKey(), t.State()
		to, err = n.SwitchTerminal(c.Request.Context(), key, r)
		return err
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	h.record(c, func(ctx context.Context, s *audit.Service, a audit.Actor) error {
		return s.LogStateChange(ctx, a, owner, key, from.String(), to.String())
	})
	c.JSON(http.StatusOK, gin.H{"terminal": key, "state": to})
}

type friendRequest struct {
	Friend string `json:"friend"`
}

func (h Handlers) AddFriend(c *gin.Context) {
	var req friendRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Friend == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "friend required"})
		return
	}
	key := c.Param("terminal")
	err := h.Net.Do(func(n *network.Network) error { return n.AddFriend(key, req.Friend) })
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"terminal": key, "friend": req.Friend})
}

func (h Handlers) RemoveFriend(c *gin.Context) {
	key, friend := c.Param("terminal"), c.Param("friend")
	err := h.Net.Do(func(n *network.Network) error { return n.RemoveFriend(key, friend) })
	if err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type textRequest struct {
	To      string `json:"to"`
	Message string `json:"message"`
}

func (h Handlers) SendText(c *gin.Context) {
	var req textRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.To == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "to required"})
		return
	}
	key := c.Param("terminal")
	var comm communications.Communication
	err := h.Net.Do(func(n *network.Network) error {
		var err error
		comm, err = n.SendText(c.Request.Context(), key, req.To, req.Message)
		return err
	})
	if err != nil {
		h.failContact(c, key, req.To, err)
		return
	}
	render(c, http.StatusCreated, comm, display.Format(comm))
}

type callRequest struct {
	To   string `json:"to"`
	Type string `json:"type"`
}

// StartCall opens a VOICE or VIDEO communication.
func (h Handlers) StartCall(c *gin.Context) {
	var req callRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.To == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "to required"})
		return
	}
	typ, err := communications.ParseType(req.Type)
	if err != nil || !typ.Interactive() {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "type must be VOICE or VIDEO"})
		return
	}
	key := c.Param("terminal")
	var comm communications.Communication
	err = h.Net.Do(func(n *network.Network) error {
		var err error
		comm, err = n.StartInteractive(c.Request.Context(), key, req.To, typ)
		return err
	})
	if err != nil {
		h.failContact(c, key, req.To, err)
		return
	}
	render(c, http.StatusCreated, comm, display.Format(comm))
}

type endCallRequest struct {
	// Units is a pointer so a missing field is told apart from a zero-length call.
	Units *int `json:"units"`
}

// EndCall ends the terminal's current call after the given number of units.
func (h Handlers) EndCall(c *gin.Context) {
	var req endCallRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Units == nil || *req.Units < 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "units required and must not be negative"})
		return
	}
	key := c.Param("terminal")
	var comm communications.Communication
	err := h.Net.Do(func(n *network.Network) error {
		var err error
		comm, err = n.EndInteractive(c.Request.Context(), key, *req.Units)
		return err
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	render(c, http.StatusOK, comm, display.Format(comm))
}

type paymentRequest struct {
	Communication int `json:"communication"`
}

func (h Handlers) Pay(c *gin.Context) {
	var req paymentRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Communication <= 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "communication required"})
		return
	}
	key := c.Param("terminal")
	var (
		comm  communications.Communication
		owner string
	)
	err := h.Net.Do(func(n *network.Network) error {
		t, err := n.Terminal(key)
		if err != nil {
			return err
		}
		owner = t.OwnerKey()
		comm, err = n.Pay(c.Request.Context(), key, req.Communication)
		return err
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	h.record(c, func(ctx context.Context, s *audit.Service, a audit.Actor) error {
		return s.LogPayment(ctx, a, owner, key, comm.Key, comm.Price)
	})
	render(c, http.StatusOK, comm, display.Format(comm))
}

func (h Handlers) Balance(c *gin.Context) {
	key := c.Param("terminal")
	var acc network.Account
	err := h.Net.Do(func(n *network.Network) error {
		var err error
		acc, err = n.TerminalAccount(key)
		return err
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"terminal": key, "paid": acc.Paid, "owed": acc.Owed, "balance": acc.Balance()})
}

// TerminalCommunications lists what a terminal made, or received with ?direction=received.
func (h Handlers) TerminalCommunications(c *gin.Context) {
	key := c.Param("terminal")
	received := c.Query("direction") == "received"
	var out []communications.Communication
	err := h.Net.Do(func(n *network.Network) error {
		t, err := n.Terminal(key)
		if err != nil {
			return err
		}
		keys := t.Made()
		if received {
			keys = t.Received()
		}
		out = n.CommunicationsOf(keys)
		return nil
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	if out == nil {
		out = []communications.Communication{}
	}
	render(c, http.StatusOK, gin.H{"communications": out}, display.Lines(out))
}

func (h Handlers) ListCommunications(c *gin.Context) {
	var out []communications.Communication
	_ = h.Net.Do(func(n *network.Network) error {
		out = n.Communications()
		return nil
	})
	if out == nil {
		out = []communications.Communication{}
	}
	render(c, http.StatusOK, gin.H{"communications": out}, display.Lines(out))
}

func (h Handlers) GetCommunication(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("communication"))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "communication must be a number"})
		return
	}
	var comm communications.Communication
	err = h.Net.Do(func(n *network.Network) error {
		var err error
		comm, err = n.Communication(id)
		return err
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	render(c, http.StatusOK, comm, display.Format(comm))
}

// failContact audits a failed contact against the sender's client, then fails the request.
func (h Handlers) failContact(c *gin.Context, senderKey, receiverKey string, err error) {
	if errors.Is(err, network.ErrFailedContact) {
		var owner string
		_ = h.Net.Do(func(n *network.Network) error {
			if t, err := n.Terminal(senderKey); err == nil {
				owner = t.OwnerKey()
			}
			return nil
		})
		h.record(c, func(ctx context.Context, s *audit.Service, a audit.Actor) error {
			return s.LogFailedContact(ctx, a, owner, receiverKey, err.Error())
		})
	}
	h.fail(c, err)
}

func initialState(s string) (terminals.State, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", "ON":
		return terminals.StateIdle, true
	case "OFF":
		return terminals.StateOff, true
	case "SILENCE":
		return terminals.StateSilence, true
	default:
		return 0, false
	}
}

func switchRequestFor(s string) (terminals.Request, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "ON":
		return terminals.RequestToOn, true
	case "OFF":
		return terminals.RequestToOff, true
	case "SILENCE":
		return terminals.RequestToSilence, true
	default:
		return 0, false
	}
}
