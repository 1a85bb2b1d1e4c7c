package shop

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/ariefcatur/go-storefront.git/internal/catalog"
	kafkax "github.com/ariefcatur/go-storefront.git/internal/kafka"
	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
)

const (
	TopicProductChanged = "catalog.product.changed"

	EventProductChanged = "ProductChanged"
)

const (
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"
)

type Envelope struct {
	EventID      string          `json:"event_id"`
	EventType    string          `json:"event_type"`
	EventVersion int             `json:"event_version"`
	OccurredAt   time.Time       `json:"occurred_at"`
	Producer     string          `json:"producer"`
	TraceID      string          `json:"trace_id,omitempty"`
	Payload      json.RawMessage `json:"payload"`
}

type ProductChangedPayload struct {
	Action  string          `json:"action"`
	Product catalog.Product `json:"product"`
}

// PartitionKey keeps every event for one product on one partition, in order.
func PartitionKey(productID int64) []byte {
	return []byte(strconv.FormatInt(productID, 10))
}

// Events receives product mutations after they are committed.
type Events interface {
	ProductChanged(ctx context.Context, action string, p catalog.Product)
}

type publisher interface {
	Publish(key, value []byte, headers ...kafkago.Header) bool
}

// KafkaEvents publishes ProductChanged envelopes.
type KafkaEvents struct {
	Producer publisher
	Service  string
}

func NewKafkaEvents(p *kafkax.Producer, service string) *KafkaEvents {
	return &KafkaEvents{Producer: p, Service: service}
}

type traceKey struct{}

// WithTrace tags ctx with the request id carried into published envelopes.
func WithTrace(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, traceKey{}, id)
}

func (k *KafkaEvents) ProductChanged(ctx context.Context, action string, p catalog.Product) {
	trace, _ := ctx.Value(traceKey{}).(string)
	ev := Envelope{
		EventID:      uuid.NewString(),
		EventType:    EventProductChanged,
		EventVersion: 1,
		OccurredAt:   time.Now().UTC(),
		Producer:     k.Service,
		TraceID:      trace,
		Payload:      kafkax.MustMarshal(ProductChangedPayload{Action: action, Product: p}),
	}
	k.Producer.Publish(PartitionKey(p.ID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(EventProductChanged)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}
