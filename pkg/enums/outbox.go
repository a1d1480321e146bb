package enums

// OutboxEventType enumerates domain events written through the outbox.
type OutboxEventType string

const (
	EventOrderPlaced        OutboxEventType = "order.placed"
	EventUserRegistered     OutboxEventType = "user.registered"
	EventVerificationResent OutboxEventType = "user.verification_resent"
	EventContactReceived    OutboxEventType = "contact.received"
)

// OutboxAggregateType identifies the entity an event belongs to.
type OutboxAggregateType string

const (
	AggregateOrder   OutboxAggregateType = "order"
	AggregateUser    OutboxAggregateType = "user"
	AggregateContact OutboxAggregateType = "contact"
)
