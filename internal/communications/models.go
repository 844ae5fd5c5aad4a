package communications

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// Communication is one exchange between a sender and a receiver terminal.
//
// Endpoints are referenced by terminal key, never by pointer.
// Money invariant: Price is in the smallest currency unit and is set exactly once,
// at creation for text and at Finish for voice/video.
type Communication struct {
	Key  int  `json:"key"`
	Type Type `json:"type"`

	SenderKey   string `json:"sender"`
	ReceiverKey string `json:"receiver"`

	// Length is characters for text and duration units for voice/video.
	Length int   `json:"length"`
	Price  int64 `json:"price"`

	Status Status `json:"status"`
	Paid   bool   `json:"paid"`
}

type Type string

const (
	TypeText  Type = "TEXT"
	TypeVoice Type = "VOICE"
	TypeVideo Type = "VIDEO"
)

// Interactive reports whether the type has an ongoing phase.
func (t Type) Interactive() bool { return t == TypeVoice || t == TypeVideo }

func ParseType(s string) (Type, error) {
	switch Type(strings.ToUpper(strings.TrimSpace(s))) {
	case TypeText:
		return TypeText, nil
	case TypeVoice:
		return TypeVoice, nil
	case TypeVideo:
		return TypeVideo, nil
	default:
		return "", fmt.Errorf("communications: unknown type %q", s)
	}
}

type Status string

const (
	StatusOngoing  Status = "ONGOING"
	StatusFinished Status = "FINISHED"
)

var ErrInvalidCommunication = errors.New("invalid communication")

// NewText builds a finished text communication. Length is the message size in characters.
func NewText(key int, senderKey, receiverKey, message string, price int64) (Communication, error) {
	if err := validateEndpoints(key, senderKey, receiverKey); err != nil {
		return Communication{}, err
	}
	if price < 0 {
		return Communication{}, fmt.Errorf("%w: negative price", ErrInvalidCommunication)
	}
	return Communication{
		Key:         key,
		Type:        TypeText,
		SenderKey:   senderKey,
		ReceiverKey: receiverKey,
		Length:      TextLength(message),
		Price:       price,
		Status:      StatusFinished,
	}, nil
}

// NewInteractive builds an ongoing voice or video communication with length and price 0.
func NewInteractive(key int, typ Type, senderKey, receiverKey string) (Communication, error) {
	if !typ.Interactive() {
		return Communication{}, fmt.Errorf("%w: %s is not interactive", ErrInvalidCommunication, typ)
	}
	if err := validateEndpoints(key, senderKey, receiverKey); err != nil {
		return Communication{}, err
	}
	return Communication{
		Key:         key,
		Type:        typ,
		SenderKey:   senderKey,
		ReceiverKey: receiverKey,
		Status:      StatusOngoing,
	}, nil
}

// TextLength counts characters, not bytes.
func TextLength(message string) int { return utf8.RuneCountInString(message) }

func (c Communication) IsOngoing() bool  { return c.Status == StatusOngoing }
func (c Communication) IsFinished() bool { return c.Status == StatusFinished }

// Finish closes an ongoing communication. It can only happen once.
func (c *Communication) Finish(units int, price int64) error {
	if c.Status != StatusOngoing {
		return fmt.Errorf("%w: communication %d is not ongoing", ErrInvalidCommunication, c.Key)
	}
	if units < 0 || price < 0 {
		return fmt.Errorf("%w: negative units or price", ErrInvalidCommunication)
	}
	c.Length = units
	c.Price = price
	c.Status = StatusFinished
	return nil
}

// Pay flips Paid once. Ongoing communications cannot be paid.
func (c *Communication) Pay() error {
	if c.Status != StatusFinished {
		return fmt.Errorf("%w: communication %d is not finished", ErrInvalidCommunication, c.Key)
	}
	if c.Paid {
		return fmt.Errorf("%w: communication %d already paid", ErrInvalidCommunication, c.Key)
	}
	c.Paid = true
	return nil
}

func validateEndpoints(key int, senderKey, receiverKey string) error {
	if key <= 0 {
		return fmt.Errorf("%w: key must be positive", ErrInvalidCommunication)
	}
	if senderKey == "" || receiverKey == "" {
		return fmt.Errorf("%w: sender and receiver required", ErrInvalidCommunication)
	}
	if senderKey == receiverKey {
		return fmt.Errorf("%w: sender and receiver must differ", ErrInvalidCommunication)
	}
	return nil
}
