package live

import (
	"context"
	"fmt"
	"log"

	"github.com/go-redis/redis/v8"
)

// relayChannel carries topic names between replicas
const relayChannel = "sliptrack:changes"

// Relay mirrors hub publishes over a Redis channel so several server
// replicas converge on the same live state. Its own messages come back
// through the subscription; the extra local tick is harmless because
// subscribers reload full snapshots.
type Relay struct {
	hub    *Hub
	client *redis.Client
}

// NewRelay connects to Redis and verifies the connection
func NewRelay(hub *Hub, addr string) (*Relay, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return &Relay{hub: hub, client: client}, nil
}

// Start consumes remote publishes until the context is cancelled
func (r *Relay) Start(ctx context.Context) {
	pubsub := r.client.Subscribe(ctx, relayChannel)
	go func() {
		defer pubsub.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-pubsub.Channel():
				if !ok {
					return
				}
				r.hub.Publish(Topic(msg.Payload))
			}
		}
	}()
}

// Publish notifies local subscribers and mirrors the event to the
// other replicas
func (r *Relay) Publish(topic Topic) {
	r.hub.Publish(topic)
	if err := r.client.Publish(context.Background(), relayChannel, string(topic)).Err(); err != nil {
		log.Printf("Failed to relay change notification: %v", err)
	}
}

// Close releases the Redis connection
func (r *Relay) Close() error {
	return r.client.Close()
}
