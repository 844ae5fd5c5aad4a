package network

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"telecom-network/internal/clients"
	"telecom-network/internal/communications"
	"telecom-network/internal/notifications"
	"telecom-network/internal/pricing"
	"telecom-network/internal/terminals"
)

var (
	ErrNotFound       = errors.New("not found")
	ErrClientExists   = errors.New("client already exists")
	ErrTerminalExists = errors.New("terminal already exists")
	ErrFailedContact  = errors.New("failed contact")
)

// Network is the registry of clients, terminals and communications plus the
// operations that move them.
//
// Not safe for concurrent use. Drivers serialize calls through Service.
type Network struct {
	log       *slog.Logger
	catalog   *pricing.Catalog
	publisher notifications.Publisher

	clients   map[string]*clients.Client
	terminals map[string]*terminals.Terminal
	comms     map[int]*communications.Communication

	nextKey int
	dirty   bool
}

type Option func(*Network)

func WithLogger(l *slog.Logger) Option {
	return func(n *Network) {
		if l != nil {
			n.log = l
		}
	}
}

func WithCatalog(c *pricing.Catalog) Option {
	return func(n *Network) {
		if c != nil {
			n.catalog = c
		}
	}
}

// WithPublisher sets where notifications go besides the client inbox.
func WithPublisher(p notifications.Publisher) Option {
	return func(n *Network) {
		if p != nil {
			n.publisher = p
		}
	}
}

func New(opts ...Option) *Network {
	n := &Network{
		log:     slog.Default(),
		catalog: pricing.NewCatalog(pricing.DefaultRateBook()),
	}
	for _, o := range opts {
		o(n)
	}
	if n.publisher == nil {
		n.publisher = notifications.LogPublisher{Log: n.log}
	}
	n.reset()
	return n
}

func (n *Network) reset() {
	n.clients = map[string]*clients.Client{}
	n.terminals = map[string]*terminals.Terminal{}
	n.comms = map[int]*communications.Communication{}
	n.nextKey = 1
}

func (n *Network) Catalog() *pricing.Catalog { return n.catalog }

// Dirty reports whether anything changed since the last MarkClean.
func (n *Network) Dirty() bool { return n.dirty }
func (n *Network) MarkClean()  { n.dirty = false }
func (n *Network) MarkDirty()  { n.dirty = true }

// RegisterClient adds a client on the catalog's default plan.
func (n *Network) RegisterClient(key, name, taxID string) (*clients.Client, error) {
	key = strings.TrimSpace(key)
	if _, ok := n.clients[key]; ok {
		return nil, fmt.Errorf("%w: %s", ErrClientExists, key)
	}
	c, err := clients.New(key, name, taxID, n.catalog.Default())
	if err != nil {
		return nil, err
	}
	n.clients[key] = c
	n.dirty = true
	n.log.Debug("client registered", "client", key)
	return c, nil
}

// RegisterTerminal adds a terminal in the requested initial state (Idle, Off or Silence).
func (n *Network) RegisterTerminal(key string, kind terminals.Kind, clientKey string, initial terminals.State) (*terminals.Terminal, error) {
	if !terminals.ValidKey(key) {
		return nil, fmt.Errorf("%w: %q", terminals.ErrInvalidKey, key)
	}
	if _, ok := n.terminals[key]; ok {
		return nil, fmt.Errorf("%w: %s", ErrTerminalExists, key)
	}
	c, err := n.Client(clientKey)
	if err != nil {
		return nil, err
	}
	t, err := terminals.New(key, kind, clientKey, initial)
	if err != nil {
		return nil, err
	}
	n.terminals[key] = t
	c.AddTerminal(key)
	n.dirty = true
	n.log.Debug("terminal registered", "terminal", key, "client", clientKey, "kind", kind, "state", initial)
	return t, nil
}

func (n *Network) Client(key string) (*clients.Client, error) {
	c, ok := n.clients[key]
	if !ok {
		return nil, fmt.Errorf("%w: client %s", ErrNotFound, key)
	}
	return c, nil
}

func (n *Network) Terminal(key string) (*terminals.Terminal, error) {
	t, ok := n.terminals[key]
	if !ok {
		return nil, fmt.Errorf("%w: terminal %s", ErrNotFound, key)
	}
	return t, nil
}

// Communication returns a copy; communications change only through network operations.
func (n *Network) Communication(key int) (communications.Communication, error) {
	c, ok := n.comms[key]
	if !ok {
		return communications.Communication{}, fmt.Errorf("%w: communication %d", ErrNotFound, key)
	}
	return *c, nil
}

// Clients lists clients ordered by key.
func (n *Network) Clients() []*clients.Client {
	out := make([]*clients.Client, 0, len(n.clients))
	for _, k := range sortedKeys(n.clients) {
		out = append(out, n.clients[k])
	}
	return out
}

// Terminals lists terminals ordered by key.
func (n *Network) Terminals() []*terminals.Terminal {
	out := make([]*terminals.Terminal, 0, len(n.terminals))
	for _, k := range sortedKeys(n.terminals) {
		out = append(out, n.terminals[k])
	}
	return out
}

// ClientTerminals lists the terminals of one client ordered by key.
func (n *Network) ClientTerminals(clientKey string) ([]*terminals.Terminal, error) {
	c, err := n.Client(clientKey)
	if err != nil {
		return nil, err
	}
	out := make([]*terminals.Terminal, 0)
	for _, k := range c.Terminals() {
		if t, ok := n.terminals[k]; ok {
			out = append(out, t)
		}
	}
	return out, nil
}

// Communications lists every communication ordered by key.
func (n *Network) Communications() []communications.Communication {
	keys := make([]int, 0, len(n.comms))
	for k := range n.comms {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	out := make([]communications.Communication, 0, len(keys))
	for _, k := range keys {
		out = append(out, *n.comms[k])
	}
	return out
}

// CommunicationsOf lists communications by key, skipping unknown keys.
func (n *Network) CommunicationsOf(keys []int) []communications.Communication {
	out := make([]communications.Communication, 0, len(keys))
	for _, k := range keys {
		if c, ok := n.comms[k]; ok {
			out = append(out, *c)
		}
	}
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, CompareKeys)
	return keys
}
