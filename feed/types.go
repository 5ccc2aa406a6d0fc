package feed

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Amount is a decimal as it appeared on the wire. The engine sends prices and
// quantities either as JSON strings or as JSON numbers; the original text is kept
// so that "3500.00" renders as 3500.00.
type Amount struct {
	text  string
	value decimal.Decimal
}

func NewAmount(text string) (Amount, error) {
	v, err := decimal.NewFromString(text)
	if err != nil {
		return Amount{}, fmt.Errorf("invalid decimal %q: %w", text, err)
	}
	return Amount{text: text, value: v}, nil
}

func (a Amount) String() string { return a.text }

func (a Amount) Decimal() decimal.Decimal { return a.value }

func (a *Amount) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		return errors.New("amount is null")
	}

	text := string(b)
	if len(b) > 0 && b[0] == '"' {
		if err := json.Unmarshal(b, &text); err != nil {
			return err
		}
	}

	parsed, err := NewAmount(text)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// Level is one price level of a book side, sent as [price, quantity].
type Level struct {
	Price    Amount
	Quantity Amount
}

func (l *Level) UnmarshalJSON(b []byte) error {
	var pair []json.RawMessage
	if err := json.Unmarshal(b, &pair); err != nil {
		return fmt.Errorf("level must be a [price, quantity] array: %w", err)
	}
	if len(pair) < 2 {
		return fmt.Errorf("level must be a [price, quantity] array, got %d elements", len(pair))
	}
	if err := l.Price.UnmarshalJSON(pair[0]); err != nil {
		return fmt.Errorf("level price: %w", err)
	}
	if err := l.Quantity.UnmarshalJSON(pair[1]); err != nil {
		return fmt.Errorf("level quantity: %w", err)
	}
	return nil
}

type OrderBookUpdate struct {
	Symbol    string
	Timestamp string
	Bids      []Level
	Asks      []Level
}

// Side is the aggressor side of a trade.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

type TradeEvent struct {
	Symbol        string
	Price         Amount
	Quantity      Amount
	AggressorSide Side
	TradeID       string

	// Sent by the engine but not required.
	Timestamp    string
	MakerOrderID string
	TakerOrderID string
}
