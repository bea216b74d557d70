package models

import "time"

// StagingRecord is the snapshot persisted when checkout is initiated: the
// selected lines handed to the payment flow, plus the full cart as it stood
// at staging time so an abandoned checkout can be rolled back.
type StagingRecord struct {
	StagedItems  []CartItem `json:"staged_items"`
	OriginalCart []CartItem `json:"original_cart"`
}

// CheckoutStagedEvent is published to Kafka when a staging snapshot has been
// durably written and the user is being handed to the payment flow.
type CheckoutStagedEvent struct {
	Event     string     `json:"event"` // "checkout.staged"
	EventID   string     `json:"event_id"`
	UserID    string     `json:"user_id"`
	Items     []CartItem `json:"items"`
	Total     float64    `json:"total"`
	Timestamp time.Time  `json:"timestamp"`
}
