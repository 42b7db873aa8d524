// Package kafka publishes delivered orders to a topic that downstream history
// consumers read.
package kafka

import (
	"context"
	"encoding/json"
	"time"

	"mensajero/internal/core/domain/model/order"

	"github.com/pkg/errors"
	"github.com/segmentio/kafka-go"
)

const EventOrderDelivered = "OrderDelivered"

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// OrderDeliveredMessage is the JSON value of every published message.
type OrderDeliveredMessage struct {
	Event          string            `json:"event"`
	OrderID        string            `json:"orderId"`
	CourierID      string            `json:"courierId,omitempty"`
	Items          []json.RawMessage `json:"items"`
	Pickup         Location          `json:"pickup"`
	Dropoff        Location          `json:"dropoff"`
	RoadDistanceKm *float64          `json:"roadDistanceKm,omitempty"`
	DeliveryPrice  *float64          `json:"deliveryPrice,omitempty"`
	CreatedAt      time.Time         `json:"createdAt"`
	Version        int64             `json:"version"`
}

type Location struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Archiver implements ports.OrderArchiver. Messages are keyed by order id so
// a redelivery lands on the same partition as the first attempt.
type Archiver struct {
	w     messageWriter
	topic string
}

func NewArchiver(brokers []string, topic string) *Archiver {
	return newArchiverWithWriter(&kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		BatchTimeout:           10 * time.Millisecond,
		AllowAutoTopicCreation: true,
	}, topic)
}

func newArchiverWithWriter(w messageWriter, topic string) *Archiver {
	return &Archiver{w: w, topic: topic}
}

func (a *Archiver) Archive(ctx context.Context, snapshot order.Snapshot) error {
	value, err := json.Marshal(newOrderDeliveredMessage(snapshot))
	if err != nil {
		return errors.Wrap(err, "marshal order delivered message")
	}

	if err := a.w.WriteMessages(ctx, kafka.Message{
		Topic: a.topic,
		Key:   []byte(snapshot.ID.String()),
		Value: value,
	}); err != nil {
		return errors.Wrap(err, "kafka publish")
	}
	return nil
}

// Close flushes and closes the underlying writer when it supports it.
func (a *Archiver) Close() error {
	if c, ok := a.w.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}

func newOrderDeliveredMessage(s order.Snapshot) OrderDeliveredMessage {
	msg := OrderDeliveredMessage{
		Event:     EventOrderDelivered,
		OrderID:   s.ID.String(),
		Items:     s.Items,
		Pickup:    Location{Lat: s.Pickup.Latitude(), Lon: s.Pickup.Longitude()},
		Dropoff:   Location{Lat: s.Dropoff.Latitude(), Lon: s.Dropoff.Longitude()},
		CreatedAt: s.CreatedAt,
		Version:   s.Version,
	}
	if msg.Items == nil {
		msg.Items = []json.RawMessage{}
	}
	if s.CourierID != nil {
		msg.CourierID = s.CourierID.String()
	}
	if s.Route != nil {
		km, price := s.Route.DistanceKm(), s.Route.Price()
		msg.RoadDistanceKm = &km
		msg.DeliveryPrice = &price
	}
	return msg
}
