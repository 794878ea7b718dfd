package domain

import (
	"math"
	"time"
)

// OrderDirection represents the side of a fill or order
type OrderDirection int

const (
	DirectionHold OrderDirection = iota
	DirectionBuy
	DirectionSell
)

// String returns the direction name
func (d OrderDirection) String() string {
	switch d {
	case DirectionBuy:
		return "Buy"
	case DirectionSell:
		return "Sell"
	default:
		return "Hold"
	}
}

// Opposite returns the closing direction for this direction
func (d OrderDirection) Opposite() OrderDirection {
	switch d {
	case DirectionBuy:
		return DirectionSell
	case DirectionSell:
		return DirectionBuy
	default:
		return DirectionHold
	}
}

// DirectionFromQuantity derives the direction from a signed quantity
func DirectionFromQuantity(quantity float64) OrderDirection {
	switch {
	case quantity > 0:
		return DirectionBuy
	case quantity < 0:
		return DirectionSell
	default:
		return DirectionHold
	}
}

// Fill is an execution report for (part of) an order. Quantity is signed:
// positive for buys, negative for sells.
type Fill struct {
	Symbol    Symbol         `json:"symbol"`
	UTCTime   time.Time      `json:"utc_time"`
	Price     float64        `json:"price"`
	Quantity  float64        `json:"quantity"`
	Fee       float64        `json:"fee"`
	Direction OrderDirection `json:"direction"`
	OrderID   string         `json:"order_id"`
}

// AbsQuantity returns the unsigned fill size
func (f Fill) AbsQuantity() float64 {
	return math.Abs(f.Quantity)
}

// IsBuy returns true for a buy fill
func (f Fill) IsBuy() bool {
	return f.Direction == DirectionBuy
}

// IsSell returns true for a sell fill
func (f Fill) IsSell() bool {
	return f.Direction == DirectionSell
}
