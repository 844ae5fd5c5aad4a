package network

import (
	"context"
	"errors"
	"fmt"

	"telecom-network/internal/clients"
	"telecom-network/internal/communications"
	"telecom-network/internal/notifications"
	"telecom-network/internal/pricing"
	"telecom-network/internal/terminals"
)

// Every operation below validates before it mutates: on error nothing changed,
// except the failed-contact bookkeeping documented on SendText and StartInteractive.

// SendText delivers a text. It only fails when the receiver is off; the attempt is then
// recorded as a failed contact and ErrFailedContact (wrapping terminals.ErrOffTerminal) is returned.
func (n *Network) SendText(ctx context.Context, senderKey, receiverKey, message string) (communications.Communication, error) {
	sender, receiver, client, err := n.endpoints(senderKey, receiverKey)
	if err != nil {
		return communications.Communication{}, err
	}
	if receiver.State() == terminals.StateOff {
		n.recordFailedContact(client, receiver)
		return communications.Communication{}, fmt.Errorf("%w: %w: terminal %s", ErrFailedContact, terminals.ErrOffTerminal, receiverKey)
	}

	length := communications.TextLength(message)
	price, err := n.price(client, sender, receiver, communications.TypeText, length)
	if err != nil {
		return communications.Communication{}, err
	}
	comm, err := communications.NewText(n.nextKey, senderKey, receiverKey, message, price)
	if err != nil {
		return communications.Communication{}, err
	}

	n.store(comm)
	sender.RecordMade(comm.Key)
	receiver.RecordReceived(comm.Key)
	n.afterMade(client, comm.Type)

	n.log.DebugContext(ctx, "text sent", "communication", comm.Key, "from", senderKey, "to", receiverKey, "price", comm.Price)
	return comm, nil
}

// StartInteractive opens a voice or video communication; both terminals become busy.
// A receiver that is off, silenced or busy is recorded as a failed contact and the
// error wraps both ErrFailedContact and the receiver's state error.
func (n *Network) StartInteractive(ctx context.Context, senderKey, receiverKey string, typ communications.Type) (communications.Communication, error) {
	if !typ.Interactive() {
		return communications.Communication{}, fmt.Errorf("%w: %s is not interactive", communications.ErrInvalidCommunication, typ)
	}
	sender, receiver, client, err := n.endpoints(senderKey, receiverKey)
	if err != nil {
		return communications.Communication{}, err
	}
	if !sender.Kind().Supports(typ) {
		return communications.Communication{}, fmt.Errorf("%w: %s on %s terminal %s", terminals.ErrUnsupportedAtOrigin, typ, sender.Kind(), senderKey)
	}
	if !receiver.Kind().Supports(typ) {
		return communications.Communication{}, fmt.Errorf("%w: %s on %s terminal %s", terminals.ErrUnsupportedAtDestination, typ, receiver.Kind(), receiverKey)
	}
	if err := sender.CheckStart(); err != nil {
		return communications.Communication{}, err
	}
	if err := receiver.CheckReceive(); err != nil {
		n.recordFailedContact(client, receiver)
		return communications.Communication{}, fmt.Errorf("%w: %w: terminal %s", ErrFailedContact, err, receiverKey)
	}

	comm, err := communications.NewInteractive(n.nextKey, typ, senderKey, receiverKey)
	if err != nil {
		return communications.Communication{}, err
	}
	// Both checks passed above, so neither Begin can fail.
	if err := sender.BeginMade(comm.Key); err != nil {
		return communications.Communication{}, err
	}
	if err := receiver.BeginReceived(comm.Key); err != nil {
		_, _ = sender.Release()
		return communications.Communication{}, err
	}
	n.store(comm)

	n.log.DebugContext(ctx, "communication started", "communication", comm.Key, "type", typ, "from", senderKey, "to", receiverKey)
	return comm, nil
}

// EndInteractive ends the current communication of its originator, prices it with the
// sender client's plan and restores both terminals to their saved state.
func (n *Network) EndInteractive(ctx context.Context, terminalKey string, units int) (communications.Communication, error) {
	sender, err := n.Terminal(terminalKey)
	if err != nil {
		return communications.Communication{}, err
	}
	if err := sender.CheckEnd(); err != nil {
		return communications.Communication{}, err
	}
	if units < 0 {
		return communications.Communication{}, fmt.Errorf("%w: negative duration", communications.ErrInvalidCommunication)
	}
	key, _ := sender.CurrentCommunication()
	comm, ok := n.comms[key]
	if !ok || !comm.IsOngoing() {
		return communications.Communication{}, fmt.Errorf("%w: communication %d is not ongoing", communications.ErrInvalidCommunication, key)
	}
	receiver, err := n.Terminal(comm.ReceiverKey)
	if err != nil {
		return communications.Communication{}, err
	}
	client, err := n.Client(sender.OwnerKey())
	if err != nil {
		return communications.Communication{}, err
	}

	price, err := n.price(client, sender, receiver, comm.Type, units)
	if err != nil {
		return communications.Communication{}, err
	}
	if err := comm.Finish(units, price); err != nil {
		return communications.Communication{}, err
	}
	for _, t := range []*terminals.Terminal{sender, receiver} {
		prev, err := t.Release()
		if err != nil {
			return communications.Communication{}, err
		}
		n.notifyReachable(ctx, t, prev)
	}
	n.dirty = true
	n.afterMade(client, comm.Type)

	n.log.DebugContext(ctx, "communication ended", "communication", comm.Key, "units", units, "price", price)
	return *comm, nil
}

// Pay settles a finished, unpaid communication made by terminalKey.
func (n *Network) Pay(ctx context.Context, terminalKey string, commKey int) (communications.Communication, error) {
	t, err := n.Terminal(terminalKey)
	if err != nil {
		return communications.Communication{}, err
	}
	if !t.HasMade(commKey) {
		return communications.Communication{}, fmt.Errorf("%w: communication %d was not made by terminal %s", communications.ErrInvalidCommunication, commKey, terminalKey)
	}
	if cur, busy := t.CurrentCommunication(); busy && cur == commKey {
		return communications.Communication{}, fmt.Errorf("%w: communication %d is in progress", communications.ErrInvalidCommunication, commKey)
	}
	comm, ok := n.comms[commKey]
	if !ok {
		return communications.Communication{}, fmt.Errorf("%w: communication %d", communications.ErrInvalidCommunication, commKey)
	}
	client, err := n.Client(t.OwnerKey())
	if err != nil {
		return communications.Communication{}, err
	}
	if err := comm.Pay(); err != nil {
		return communications.Communication{}, err
	}
	n.dirty = true
	if client.OnPayment(n.clientAccount(client).Balance()) {
		n.log.InfoContext(ctx, "client tier changed", "client", client.Key(), "tier", client.Tier())
	}

	n.log.DebugContext(ctx, "communication paid", "communication", commKey, "terminal", terminalKey, "amount", comm.Price)
	return *comm, nil
}

// SwitchTerminal applies a manual state change and notifies waiting clients
// when the terminal becomes reachable.
func (n *Network) SwitchTerminal(ctx context.Context, terminalKey string, req terminals.Request) (terminals.State, error) {
	t, err := n.Terminal(terminalKey)
	if err != nil {
		return 0, err
	}
	prev, err := t.Switch(req)
	if err != nil {
		return t.State(), err
	}
	n.dirty = true
	n.notifyReachable(ctx, t, prev)
	n.log.DebugContext(ctx, "terminal switched", "terminal", terminalKey, "from", prev, "to", t.State())
	return t.State(), nil
}

// AddFriend declares friendKey a friend of terminalKey. Both terminals must exist.
func (n *Network) AddFriend(terminalKey, friendKey string) error {
	t, err := n.Terminal(terminalKey)
	if err != nil {
		return err
	}
	if _, err := n.Terminal(friendKey); err != nil {
		return fmt.Errorf("%w: %w", terminals.ErrInvalidFriend, err)
	}
	if err := t.AddFriend(friendKey); err != nil {
		return err
	}
	n.dirty = true
	return nil
}

// RemoveFriend drops friendKey; removing a non-friend is a no-op.
func (n *Network) RemoveFriend(terminalKey, friendKey string) error {
	t, err := n.Terminal(terminalKey)
	if err != nil {
		return err
	}
	if t.RemoveFriend(friendKey) {
		n.dirty = true
	}
	return nil
}

// SetClientPlan switches the client to a catalog plan. Existing prices stay as they are.
func (n *Network) SetClientPlan(clientKey, planName string) error {
	c, err := n.Client(clientKey)
	if err != nil {
		return err
	}
	plan, err := n.catalog.Find(planName)
	if err != nil {
		return err
	}
	if err := c.SetPlan(plan); err != nil {
		return err
	}
	n.dirty = true
	return nil
}

func (n *Network) SetClientNotifications(clientKey string, enabled bool) error {
	c, err := n.Client(clientKey)
	if err != nil {
		return err
	}
	if err := c.SetNotifications(enabled); err != nil {
		return err
	}
	n.dirty = true
	return nil
}

// DrainNotifications empties the client's inbox.
func (n *Network) DrainNotifications(clientKey string) ([]notifications.Notification, error) {
	c, err := n.Client(clientKey)
	if err != nil {
		return nil, err
	}
	out := c.DrainInbox()
	if len(out) > 0 {
		n.dirty = true
	}
	return out, nil
}

func (n *Network) endpoints(senderKey, receiverKey string) (*terminals.Terminal, *terminals.Terminal, *clients.Client, error) {
	if senderKey == receiverKey {
		return nil, nil, nil, fmt.Errorf("%w: terminal %s cannot contact itself", communications.ErrInvalidCommunication, senderKey)
	}
	sender, err := n.Terminal(senderKey)
	if err != nil {
		return nil, nil, nil, err
	}
	receiver, err := n.Terminal(receiverKey)
	if err != nil {
		return nil, nil, nil, err
	}
	client, err := n.Client(sender.OwnerKey())
	if err != nil {
		return nil, nil, nil, err
	}
	return sender, receiver, client, nil
}

func (n *Network) quote(client *clients.Client, sender, receiver *terminals.Terminal, typ communications.Type, length int) pricing.Quote {
	return pricing.Quote{
		Type:      typ,
		Length:    length,
		Tier:      client.Tier(),
		Friends:   sender.IsFriend(receiver.Key()),
		SameOwner: sender.OwnerKey() == receiver.OwnerKey(),
	}
}

// price asks the client's plan for a price. A price the plan cannot represent rejects the communication.
func (n *Network) price(client *clients.Client, sender, receiver *terminals.Terminal, typ communications.Type, length int) (int64, error) {
	p, err := client.Plan().Price(n.quote(client, sender, receiver, typ, length))
	if err != nil {
		return 0, fmt.Errorf("%w: %w", communications.ErrInvalidCommunication, err)
	}
	return p, nil
}

func (n *Network) store(c communications.Communication) {
	n.comms[c.Key] = &c
	n.nextKey = c.Key + 1
	n.dirty = true
}

func (n *Network) recordFailedContact(sender *clients.Client, receiver *terminals.Terminal) {
	receiver.AddFailedContact(sender.Key())
	sender.RecordFailedContact(receiver.OwnerKey())
	n.dirty = true
}

func (n *Network) afterMade(client *clients.Client, typ communications.Type) {
	if client.OnCommunicationMade(typ, n.clientAccount(client).Balance()) {
		n.log.Info("client tier changed", "client", client.Key(), "tier", client.Tier())
	}
}

// notifyReachable delivers pending failed-contact notifications when t moved from prev
// to a state that accepts contact again.
func (n *Network) notifyReachable(ctx context.Context, t *terminals.Terminal, prev terminals.State) {
	kind, ok := notifications.KindFor(prev, t.State())
	if !ok {
		return
	}
	for _, clientKey := range t.TakeFailedContacts() {
		c, ok := n.clients[clientKey]
		if !ok {
			continue
		}
		note := notifications.Notification{Kind: kind, TerminalKey: t.Key(), ClientKey: clientKey}
		if !c.Deliver(note) {
			continue
		}
		if err := n.publisher.Publish(ctx, note); err != nil && !errors.Is(err, context.Canceled) {
			n.log.WarnContext(ctx, "notification publish failed", "err", err, "client", clientKey, "terminal", t.Key())
		}
	}
}
