package server

import (
	"encoding/json"
	"time"

	"github.com/windfall/windfall/internal/blackjack"
)

// MessageType identifies a table socket message
type MessageType string

const (
	// Client → Server
	MessageTypeBet     MessageType = "bet"
	MessageTypeHit     MessageType = "hit"
	MessageTypeStand   MessageType = "stand"
	MessageTypeNewHand MessageType = "new_hand"

	// Both directions: clients ask for it, the server answers every message with it
	MessageTypeState MessageType = "state"

	// Server → Client
	MessageTypeError MessageType = "error"
)

func (t MessageType) String() string { return string(t) }

// Message represents the base WebSocket message structure
type Message struct {
	Type      MessageType     `json:"type"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// NewMessage creates a message stamped with now
func NewMessage(messageType MessageType, data any, now time.Time) (*Message, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	return &Message{
		Type:      messageType,
		Data:      dataBytes,
		Timestamp: now,
	}, nil
}

// BetData is the payload of a bet message
type BetData struct {
	Amount int `json:"amount"`
}

// StateData carries the player's view of the round
type StateData struct {
	Table string         `json:"table"`
	View  blackjack.View `json:"view"`
}

// ErrorData explains a rejected action. Reason is set for refused bets.
type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Reason  string `json:"reason,omitempty"`
}

// action maps a client message type onto a round action
func (t MessageType) action() (blackjack.Action, bool) {
	switch t {
	case MessageTypeBet:
		return blackjack.ActionBet, true
	case MessageTypeHit:
		return blackjack.ActionHit, true
	case MessageTypeStand:
		return blackjack.ActionStand, true
	case MessageTypeNewHand:
		return blackjack.ActionNewHand, true
	case MessageTypeState:
		return actionState, true
	default:
		return "", false
	}
}
