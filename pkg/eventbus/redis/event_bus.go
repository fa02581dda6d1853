// Package redis provides a Redis-list backed event bus for deployments that
// already run Redis but no Kafka.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cascadehq/cascade/pkg/eventbus"
	"github.com/cascadehq/cascade/pkg/events"
	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"
)

const popTimeout = 1 * time.Second

// envelope is the wire shape pushed onto the Redis list.
type envelope struct {
	Key       string           `json:"key"`
	EventType events.EventType `json:"event_type"`
	Payload   json.RawMessage  `json:"payload"`
}

// EventBus implements eventbus.EventBus on a single Redis list per topic.
type EventBus struct {
	client        redis.UniversalClient
	logger        *slog.Logger
	subscriptions map[events.EventType]eventbus.EventHandler
	stopCh        chan struct{}
	wg            sync.WaitGroup
}

// NewEventBus connects to Redis and verifies the connection before use.
func NewEventBus(ctx context.Context, logger *slog.Logger, redisURL string) (*EventBus, error) {
	options, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}

	client := redis.NewClient(options)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &EventBus{
		client:        client,
		logger:        logger.With("module", "redis_event_bus"),
		subscriptions: make(map[events.EventType]eventbus.EventHandler),
		stopCh:        make(chan struct{}),
	}, nil
}

func (eb *EventBus) GenerateID() string {
	return uuid.New().String()
}

func (eb *EventBus) Publish(ctx context.Context, key string, event eventbus.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	wrapped, err := json.Marshal(envelope{
		Key:       key,
		EventType: event.GetType(),
		Payload:   payload,
	})
	if err != nil {
		return err
	}

	return eb.client.RPush(ctx, events.Topic, wrapped).Err()
}

func (eb *EventBus) Handle(eventType events.EventType, handler eventbus.EventHandler) error {
	eb.subscriptions[eventType] = handler

	return nil
}

func (eb *EventBus) Subscribe(ctx context.Context) error {
	eb.wg.Add(1)

	go eb.consume(ctx)

	return nil
}

func (eb *EventBus) Close() error {
	close(eb.stopCh)
	eb.wg.Wait()

	return eb.client.Close()
}

func (eb *EventBus) consume(ctx context.Context) {
	defer eb.wg.Done()

	for {
		select {
		case <-eb.stopCh:
			return
		case <-ctx.Done():
			return
		default:
			if err := eb.processMessage(ctx); err != nil {
				eb.logger.ErrorContext(ctx, "Error processing event", "error", err)
				time.Sleep(1 * time.Second)
			}
		}
	}
}

func (eb *EventBus) processMessage(ctx context.Context) error {
	result, err := eb.client.BLPop(ctx, popTimeout, events.Topic).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) || errors.Is(err, context.Canceled) {
			return nil
		}

		return fmt.Errorf("failed to pop event: %w", err)
	}

	if len(result) < 2 {
		return nil
	}

	var wrapped envelope
	if err := json.Unmarshal([]byte(result[1]), &wrapped); err != nil {
		return fmt.Errorf("malformed event envelope: %w", err)
	}

	handler, exists := eb.subscriptions[wrapped.EventType]
	if !exists {
		return nil
	}

	event := newEvent(wrapped.EventType)
	if event == nil {
		return nil
	}

	if err := json.Unmarshal(wrapped.Payload, event); err != nil {
		return fmt.Errorf("malformed event payload: %w", err)
	}

	return handler(ctx, event)
}

func newEvent(eventType events.EventType) any {
	switch eventType {
	case events.InstanceStartedEvent:
		return &events.InstanceStarted{}
	case events.InstanceAdvancedEvent:
		return &events.InstanceAdvanced{}
	case events.InstanceCompletedEvent:
		return &events.InstanceCompleted{}
	case events.InstanceRejectedEvent:
		return &events.InstanceRejected{}
	case events.InstanceCancelledEvent:
		return &events.InstanceCancelled{}
	case events.TaskCreatedEvent:
		return &events.TaskCreated{}
	case events.TaskResolvedEvent:
		return &events.TaskResolved{}
	case events.TaskOverdueEvent:
		return &events.TaskOverdue{}
	case events.ApprovalDecidedEvent:
		return &events.ApprovalDecided{}
	default:
		return nil
	}
}
