package wallet

import (
	"encoding/json"
	"fmt"
)

// Side is the direction of an order.
type Side string

// Side values.
const (
	SideUnspecified Side = "SIDE_UNSPECIFIED"
	SideBuy         Side = "SIDE_BUY"
	SideSell        Side = "SIDE_SELL"
)

// TimeInForce controls how long an order stays active.
type TimeInForce string

// TimeInForce values.
const (
	TimeInForceUnspecified TimeInForce = "TIME_IN_FORCE_UNSPECIFIED"
	// TimeInForceGTC keeps the order on the book until it trades
	// completely or is cancelled.
	TimeInForceGTC TimeInForce = "TIME_IN_FORCE_GTC"
	// TimeInForceGTT keeps the order on the book until it trades, is
	// cancelled, or expires at ExpiresAt.
	TimeInForceGTT TimeInForce = "TIME_IN_FORCE_GTT"
	// TimeInForceIOC trades what it can immediately and discards the rest.
	TimeInForceIOC TimeInForce = "TIME_IN_FORCE_IOC"
	// TimeInForceFOK trades completely or not at all.
	TimeInForceFOK TimeInForce = "TIME_IN_FORCE_FOK"
	// TimeInForceGFA is accepted only during an auction period.
	TimeInForceGFA TimeInForce = "TIME_IN_FORCE_GFA"
	// TimeInForceGFN is accepted only during normal trading.
	TimeInForceGFN TimeInForce = "TIME_IN_FORCE_GFN"
)

// OrderType is the pricing mode of an order.
type OrderType string

// OrderType values.
const (
	OrderTypeUnspecified OrderType = "TYPE_UNSPECIFIED"
	OrderTypeLimit       OrderType = "TYPE_LIMIT"
	OrderTypeMarket      OrderType = "TYPE_MARKET"
	OrderTypeNetwork     OrderType = "TYPE_NETWORK"
)

// PeggedReference is the price point a pegged order tracks.
type PeggedReference string

// PeggedReference values.
const (
	PeggedReferenceUnspecified PeggedReference = "PEGGED_REFERENCE_UNSPECIFIED"
	PeggedReferenceMid         PeggedReference = "PEGGED_REFERENCE_MID"
	PeggedReferenceBestBid     PeggedReference = "PEGGED_REFERENCE_BEST_BID"
	PeggedReferenceBestAsk     PeggedReference = "PEGGED_REFERENCE_BEST_ASK"
)

// VoteValue is the direction of a governance vote.
type VoteValue string

// VoteValue values.
const (
	VoteValueUnspecified VoteValue = "VALUE_UNSPECIFIED"
	VoteValueNo          VoteValue = "VALUE_NO"
	VoteValueYes         VoteValue = "VALUE_YES"
)

// Command is a marketplace instruction accepted by send_transaction. On
// the wire each command is wrapped in a single-key envelope named after
// its type, e.g. {"orderSubmission": {...}}.
type Command interface {
	commandKey() string
}

// PeggedOrder prices a limit order as REFERENCE +/- OFFSET.
type PeggedOrder struct {
	Reference PeggedReference `json:"reference"`
	Offset    string          `json:"offset"`
}

// OrderSubmission creates a new order on a market.
type OrderSubmission struct {
	MarketID string `json:"marketId"`
	// Price is an unsigned integer scaled to the market's decimal
	// places, e.g. "123456" for 1.23456 on a five-decimal market.
	// Required for limit orders, ignored for market orders.
	Price       string      `json:"price"`
	Size        uint64      `json:"size"`
	Side        Side        `json:"side"`
	TimeInForce TimeInForce `json:"timeInForce"`
	// ExpiresAt is nanoseconds since the epoch; required only for GTT.
	ExpiresAt   int64        `json:"expiresAt"`
	Type        OrderType    `json:"type"`
	Reference   string       `json:"reference"`
	PeggedOrder *PeggedOrder `json:"peggedOrder,omitempty"`
}

func (OrderSubmission) commandKey() string { return "orderSubmission" }

// OrderCancellation cancels an existing order.
type OrderCancellation struct {
	OrderID  string `json:"orderId"`
	MarketID string `json:"marketId"`
}

func (OrderCancellation) commandKey() string { return "orderCancellation" }

// OrderAmendment updates an existing order. OrderID and MarketID locate
// the order and are never amended themselves.
type OrderAmendment struct {
	OrderID  string  `json:"orderId"`
	MarketID string  `json:"marketId"`
	Price    *string `json:"price,omitempty"`
	// SizeDelta adjusts the size: negative shrinks, positive grows,
	// zero leaves it unchanged.
	SizeDelta       int64           `json:"sizeDelta"`
	ExpiresAt       *int64          `json:"expiresAt,omitempty"`
	TimeInForce     TimeInForce     `json:"timeInForce"`
	PeggedOffset    string          `json:"peggedOffset,omitempty"`
	PeggedReference PeggedReference `json:"peggedReference,omitempty"`
}

func (OrderAmendment) commandKey() string { return "orderAmendment" }

// BatchMarketInstructions bundles order instructions into one
// transaction. The service processes cancellations first, then
// amendments, then submissions.
type BatchMarketInstructions struct {
	Cancellations []OrderCancellation `json:"cancellations"`
	Amendments    []OrderAmendment    `json:"amendments"`
	Submissions   []OrderSubmission   `json:"submissions"`
}

func (BatchMarketInstructions) commandKey() string { return "batchMarketInstructions" }

// VoteSubmission casts a governance vote on a proposal.
type VoteSubmission struct {
	ProposalID string    `json:"proposalId"`
	Value      VoteValue `json:"value"`
}

func (VoteSubmission) commandKey() string { return "voteSubmission" }

// commandEnvelope serializes a Command as its single-key wire envelope.
type commandEnvelope struct {
	cmd Command
}

// MarshalJSON implements json.Marshaler.
func (e commandEnvelope) MarshalJSON() ([]byte, error) {
	if e.cmd == nil {
		return nil, ErrEmptyCommand
	}
	return json.Marshal(map[string]Command{e.cmd.commandKey(): e.cmd})
}

// MarshalCommand wraps cmd in its wire envelope.
func MarshalCommand(cmd Command) ([]byte, error) {
	return commandEnvelope{cmd: cmd}.MarshalJSON()
}

// DecodeCommand parses a wire envelope back into its concrete command.
// Exactly one command key must be present.
func DecodeCommand(data []byte) (Command, error) {
	var env struct {
		BatchMarketInstructions *BatchMarketInstructions `json:"batchMarketInstructions"`
		OrderSubmission         *OrderSubmission         `json:"orderSubmission"`
		OrderCancellation       *OrderCancellation       `json:"orderCancellation"`
		OrderAmendment          *OrderAmendment          `json:"orderAmendment"`
		VoteSubmission          *VoteSubmission          `json:"voteSubmission"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnknownCommand, err)
	}

	var (
		cmd   Command
		count int
	)
	if env.BatchMarketInstructions != nil {
		cmd, count = *env.BatchMarketInstructions, count+1
	}
	if env.OrderSubmission != nil {
		cmd, count = *env.OrderSubmission, count+1
	}
	if env.OrderCancellation != nil {
		cmd, count = *env.OrderCancellation, count+1
	}
	if env.OrderAmendment != nil {
		cmd, count = *env.OrderAmendment, count+1
	}
	if env.VoteSubmission != nil {
		cmd, count = *env.VoteSubmission, count+1
	}

	switch count {
	case 0:
		return nil, ErrEmptyCommand
	case 1:
		return cmd, nil
	default:
		return nil, fmt.Errorf("%w: multiple command keys", ErrUnknownCommand)
	}
}
