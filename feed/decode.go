package feed

import (
	"encoding/json"
)

type orderBookMessage struct {
	Symbol    *string  `json:"symbol"`
	Timestamp *string  `json:"timestamp"`
	Bids      *[]Level `json:"bids"`
	Asks      *[]Level `json:"asks"`
}

type tradeMessage struct {
	Symbol        *string `json:"symbol"`
	Price         *Amount `json:"price"`
	Quantity      *Amount `json:"quantity"`
	AggressorSide *Side   `json:"aggressor_side"`
	TradeID       *string `json:"trade_id"`

	Timestamp    string `json:"timestamp"`
	MakerOrderID string `json:"maker_order_id"`
	TakerOrderID string `json:"taker_order_id"`
}

// DecodeOrderBook parses one order book message. Levels keep the order they were sent in.
func DecodeOrderBook(data []byte) (OrderBookUpdate, error) {
	var msg orderBookMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return OrderBookUpdate{}, &DecodeError{Err: err, Payload: excerpt(data)}
	}

	var err error
	switch {
	case msg.Symbol == nil || *msg.Symbol == "":
		err = missing("symbol")
	case msg.Timestamp == nil || *msg.Timestamp == "":
		err = missing("timestamp")
	case msg.Bids == nil:
		err = missing("bids")
	case msg.Asks == nil:
		err = missing("asks")
	}
	if err != nil {
		return OrderBookUpdate{}, &DecodeError{Err: err, Payload: excerpt(data)}
	}

	return OrderBookUpdate{
		Symbol:    *msg.Symbol,
		Timestamp: *msg.Timestamp,
		Bids:      *msg.Bids,
		Asks:      *msg.Asks,
	}, nil
}

// DecodeTrade parses one executed trade message.
func DecodeTrade(data []byte) (TradeEvent, error) {
	var msg tradeMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return TradeEvent{}, &DecodeError{Err: err, Payload: excerpt(data)}
	}

	var err error
	switch {
	case msg.Symbol == nil || *msg.Symbol == "":
		err = missing("symbol")
	case msg.Price == nil:
		err = missing("price")
	case msg.Quantity == nil:
		err = missing("quantity")
	case msg.AggressorSide == nil || *msg.AggressorSide == "":
		err = missing("aggressor_side")
	case msg.TradeID == nil || *msg.TradeID == "":
		err = missing("trade_id")
	}
	if err != nil {
		return TradeEvent{}, &DecodeError{Err: err, Payload: excerpt(data)}
	}

	return TradeEvent{
		Symbol:        *msg.Symbol,
		Price:         *msg.Price,
		Quantity:      *msg.Quantity,
		AggressorSide: *msg.AggressorSide,
		TradeID:       *msg.TradeID,
		Timestamp:     msg.Timestamp,
		MakerOrderID:  msg.MakerOrderID,
		TakerOrderID:  msg.TakerOrderID,
	}, nil
}
