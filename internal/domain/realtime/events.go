package realtime

import (
	"context"
	"fmt"

	"rentalhub/internal/domain/booking"
	"rentalhub/internal/relay"
)

// Subscribe pushes every booking event to the owner and the traveler.
func (h *Hub) Subscribe(r *relay.Relay) {
	for _, topic := range booking.Topics {
		r.Subscribe(topic, h.onBookingEvent)
	}
}

func (h *Hub) onBookingEvent(_ context.Context, ev relay.Event) error {
	var p booking.Event
	if err := ev.Decode(&p); err != nil {
		return fmt.Errorf("decode %s: %w", ev.Topic, err)
	}

	msg := &Message{Type: ev.Topic, Payload: p}
	h.SendToUser(p.OwnerID, msg)
	if p.TravelerID != p.OwnerID {
		h.SendToUser(p.TravelerID, msg)
	}
	return nil
}
