package models

import "time"

// Event types published to the part-events topic.
const (
	EventTypePartIngested = "part.ingested"
)

// BaseEvent carries the common event envelope fields.
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// PartIngestedEvent is emitted after an ingestion run finishes against the
// inventory store, whether the part was created or already existed.
type PartIngestedEvent struct {
	BaseEvent
	Supplier    string `json:"supplier"`
	SKU         string `json:"sku"`
	MPN         string `json:"mpn"`
	IPN         string `json:"ipn"`
	InventoryPK int    `json:"inventory_pk"`
	WasNew      bool   `json:"was_new"`
}
