package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ordersight/matchday/internal/utils"
)

// Data provenance values shared by orders and matches.
const (
	SourceReal  = "real"
	SourceMock  = "mock"
	SourceMixed = "mixed"
)

// OrderEvent represents a single food-order transaction.
// Instances are validated at construction and treated as immutable afterwards.
type OrderEvent struct {
	ID           string          `json:"order_id"`
	Timestamp    time.Time       `json:"timestamp"`
	Location     string          `json:"location"`
	TotalAmount  decimal.Decimal `json:"total_amount"`
	ItemCount    int             `json:"item_count"`
	CategoryTags []string        `json:"category_tags"`
	Source       string          `json:"data_source"`
}

// NewOrderEvent builds and validates an OrderEvent. It never returns a
// partially constructed record: on validation failure the event is nil.
func NewOrderEvent(id string, ts time.Time, location string, total decimal.Decimal, itemCount int, tags []string, source string) (*OrderEvent, error) {
	o := &OrderEvent{
		ID:           id,
		Timestamp:    ts,
		Location:     location,
		TotalAmount:  total,
		ItemCount:    itemCount,
		CategoryTags: tags,
		Source:       source,
	}
	if err := o.Validate(); err != nil {
		return nil, err
	}
	return o, nil
}

// Validate checks every field of the order.
func (o *OrderEvent) Validate() error {
	if o.ID == "" {
		return utils.NewValidationError("order_id must be a non-empty string")
	}
	if o.Timestamp.IsZero() {
		return utils.NewValidationError("timestamp must be set")
	}
	if o.Location == "" {
		return utils.NewValidationError("location must be a non-empty string")
	}
	if o.TotalAmount.IsNegative() {
		return utils.NewValidationErrorf("total_amount must be non-negative, got %s", o.TotalAmount)
	}
	if o.ItemCount <= 0 {
		return utils.NewValidationErrorf("item_count must be a positive integer, got %d", o.ItemCount)
	}
	if len(o.CategoryTags) == 0 {
		return utils.NewValidationError("category_tags must be a non-empty list")
	}
	for _, tag := range o.CategoryTags {
		if strings.TrimSpace(tag) == "" {
			return utils.NewValidationError("all category tags must be non-empty strings")
		}
	}
	if o.Source != SourceReal && o.Source != SourceMock {
		return utils.NewValidationErrorf("data_source must be either %q or %q, got %q", SourceReal, SourceMock, o.Source)
	}
	return nil
}
