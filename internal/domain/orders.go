package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// SubmitOrderRequest is a request for the order-routing layer to execute a
// market order. Quantity is signed; a negative quantity closes a long.
type SubmitOrderRequest struct {
	ID       string    `json:"id"`
	Symbol   Symbol    `json:"symbol"`
	Quantity float64   `json:"quantity"`
	Tag      string    `json:"tag"`
	Created  time.Time `json:"created"`
}

// NewSubmitOrderRequest creates an order request with a fresh id
func NewSubmitOrderRequest(symbol Symbol, quantity float64, tag string, created time.Time) SubmitOrderRequest {
	return SubmitOrderRequest{
		ID:       uuid.NewString(),
		Symbol:   symbol,
		Quantity: quantity,
		Tag:      tag,
		Created:  created,
	}
}

// OrderTicket tracks one submitted order. The routing layer confirms the
// execution through Confirm; WaitForFill blocks the caller until the
// confirmation arrives or the timeout elapses.
type OrderTicket struct {
	Request SubmitOrderRequest
	filled  chan Fill
}

// NewOrderTicket creates a ticket for a submitted request
func NewOrderTicket(req SubmitOrderRequest) *OrderTicket {
	return &OrderTicket{
		Request: req,
		filled:  make(chan Fill, 1),
	}
}

// Confirm records the fill for this ticket. Only the first confirmation is
// kept; later calls are dropped.
func (t *OrderTicket) Confirm(fill Fill) {
	select {
	case t.filled <- fill:
	default:
	}
}

// WaitForFill blocks until the order's fill confirmation arrives or the
// timeout elapses.
func (t *OrderTicket) WaitForFill(timeout time.Duration) (Fill, error) {
	select {
	case fill := <-t.filled:
		return fill, nil
	case <-time.After(timeout):
		return Fill{}, fmt.Errorf("timed out after %s waiting for fill of order %s", timeout, t.Request.ID)
	}
}
