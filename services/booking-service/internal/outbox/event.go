package outbox

// Event is the envelope written to outbox_events. The Kafka topic equals
// EventType and the message key is AggregateID.
type Event struct {
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
}
