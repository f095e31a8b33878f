package domain

import "time"

// Event types double as broker routing keys. They are fixed string
// constants; consumers subscribe by these subjects.
const (
	EventDonationCreated   = "donation.created"
	EventDonationCompleted = "donation.completed"
	EventDonationFailed    = "donation.failed"
	EventDonationRefunded  = "donation.refunded"
	EventPaymentAuthorized = "payment.authorized"
	EventPaymentCaptured   = "payment.captured"
	EventPaymentRefunded   = "payment.refunded"
)

// DomainEvent is the base interface for all domain events.
type DomainEvent interface {
	EventType() string
	RoutingKey() string
	AggregateID() string
}

// DonationCreatedEvent is emitted once a donation reaches a publishable
// state. It rides the same commit as the completed transition.
type DonationCreatedEvent struct {
	DonationID string    `json:"donation_id"`
	CampaignID string    `json:"campaign_id"`
	Amount     int64     `json:"amount"`
	DonorKind  DonorKind `json:"donor_kind"`
	DonorID    string    `json:"donor_id,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

func (e *DonationCreatedEvent) EventType() string   { return EventDonationCreated }
func (e *DonationCreatedEvent) RoutingKey() string  { return EventDonationCreated }
func (e *DonationCreatedEvent) AggregateID() string { return e.DonationID }

// DonationCompletedEvent is emitted when a donation completes.
type DonationCompletedEvent struct {
	DonationID  string    `json:"donation_id"`
	CampaignID  string    `json:"campaign_id"`
	Amount      int64     `json:"amount"`
	CompletedAt time.Time `json:"completed_at"`
}

func (e *DonationCompletedEvent) EventType() string   { return EventDonationCompleted }
func (e *DonationCompletedEvent) RoutingKey() string  { return EventDonationCompleted }
func (e *DonationCompletedEvent) AggregateID() string { return e.DonationID }

// DonationFailedEvent is emitted when a donation fails.
type DonationFailedEvent struct {
	DonationID string    `json:"donation_id"`
	CampaignID string    `json:"campaign_id"`
	Amount     int64     `json:"amount"`
	Reason     string    `json:"reason"`
	FailedAt   time.Time `json:"failed_at"`
}

func (e *DonationFailedEvent) EventType() string   { return EventDonationFailed }
func (e *DonationFailedEvent) RoutingKey() string  { return EventDonationFailed }
func (e *DonationFailedEvent) AggregateID() string { return e.DonationID }

// DonationRefundedEvent is emitted when a donation is refunded.
type DonationRefundedEvent struct {
	DonationID string    `json:"donation_id"`
	CampaignID string    `json:"campaign_id"`
	Amount     int64     `json:"amount"`
	Reason     string    `json:"reason"`
	RefundedAt time.Time `json:"refunded_at"`
}

func (e *DonationRefundedEvent) EventType() string   { return EventDonationRefunded }
func (e *DonationRefundedEvent) RoutingKey() string  { return EventDonationRefunded }
func (e *DonationRefundedEvent) AggregateID() string { return e.DonationID }

// PaymentAuthorizedEvent is emitted when funds are authorized.
type PaymentAuthorizedEvent struct {
	DonationID   string    `json:"donation_id"`
	Amount       int64     `json:"amount"`
	AuthorizedAt time.Time `json:"authorized_at"`
}

func (e *PaymentAuthorizedEvent) EventType() string   { return EventPaymentAuthorized }
func (e *PaymentAuthorizedEvent) RoutingKey() string  { return EventPaymentAuthorized }
func (e *PaymentAuthorizedEvent) AggregateID() string { return e.DonationID }

// PaymentCapturedEvent is emitted when funds are captured.
type PaymentCapturedEvent struct {
	DonationID string    `json:"donation_id"`
	Amount     int64     `json:"amount"`
	CapturedAt time.Time `json:"captured_at"`
}

func (e *PaymentCapturedEvent) EventType() string   { return EventPaymentCaptured }
func (e *PaymentCapturedEvent) RoutingKey() string  { return EventPaymentCaptured }
func (e *PaymentCapturedEvent) AggregateID() string { return e.DonationID }

// PaymentRefundedEvent is emitted when a provider-side refund is relayed.
type PaymentRefundedEvent struct {
	DonationID      string    `json:"donation_id"`
	Amount          int64     `json:"amount"`
	ProviderEventID string    `json:"provider_event_id,omitempty"`
	RefundedAt      time.Time `json:"refunded_at"`
}

func (e *PaymentRefundedEvent) EventType() string   { return EventPaymentRefunded }
func (e *PaymentRefundedEvent) RoutingKey() string  { return EventPaymentRefunded }
func (e *PaymentRefundedEvent) AggregateID() string { return e.DonationID }
