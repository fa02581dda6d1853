package main

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/cascadehq/cascade/pkg/eventbus"
	"github.com/cascadehq/cascade/pkg/events"
	"github.com/cascadehq/cascade/pkg/otelhelper"
	"github.com/cascadehq/cascade/pkg/persistence"
	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Sweeper periodically scans for open tasks past their due date and
// publishes a task.overdue event for each one. A task is notified at most
// once: only tasks whose due date falls inside the window since the last
// sweep are published.
type Sweeper struct {
	id          string
	logger      *slog.Logger
	persistence persistence.Persistence
	eventBus    eventbus.EventBus
	tracer      trace.Tracer

	mu        sync.Mutex
	lastSweep time.Time
}

func NewSweeper(
	id string,
	persistence persistence.Persistence,
	eventBus eventbus.EventBus,
	tracer trace.Tracer,
	logger *slog.Logger,
) *Sweeper {
	return &Sweeper{
		id:          id,
		logger:      logger.With("module", "sweeper"),
		persistence: persistence,
		eventBus:    eventBus,
		tracer:      tracer,
		lastSweep:   time.Now().UTC(),
	}
}

// Run schedules sweeps on the given cron expression and blocks until the
// context is cancelled.
func (s *Sweeper) Run(ctx context.Context, schedule string) error {
	c := cron.New(cron.WithChain(
		cron.SkipIfStillRunning(cron.DefaultLogger),
		cron.Recover(cron.DefaultLogger),
	))

	_, err := c.AddFunc(schedule, func() {
		if err := s.Sweep(ctx); err != nil {
			s.logger.ErrorContext(ctx, "Sweep failed", "error", err)
		}
	})
	if err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "Starting sweeper", "schedule", schedule)
	c.Start()

	<-ctx.Done()

	stopCtx := c.Stop()
	<-stopCtx.Done()

	s.logger.Info("Sweeper stopped")

	return nil
}

// Sweep publishes overdue notifications for tasks that crossed their due
// date since the previous sweep.
func (s *Sweeper) Sweep(ctx context.Context) error {
	now := time.Now().UTC()

	s.mu.Lock()
	since := s.lastSweep
	s.mu.Unlock()

	ctx, span := otelhelper.StartSpan(ctx, s.tracer, "sweeper.sweep",
		attribute.String(otelhelper.ServiceIDKey, s.id),
	)
	defer span.End()

	tasks, err := s.persistence.TaskRepository().ListOverdue(ctx, now)
	if err != nil {
		otelhelper.SetError(span, err)

		return err
	}

	// Advance the window only after a successful listing so a failed sweep
	// does not swallow its tasks.
	s.mu.Lock()
	s.lastSweep = now
	s.mu.Unlock()

	published := 0

	for _, task := range tasks {
		// Already announced in a previous sweep.
		if !task.DueAt.After(since) {
			continue
		}

		event := events.TaskOverdue{
			BaseEvent: events.BaseEvent{
				ID:         s.generateEventID(),
				Type:       events.TaskOverdueEvent,
				Timestamp:  now,
				InstanceID: task.InstanceID,
			},
			TaskID:   task.ID,
			NodeID:   task.NodeID,
			Assignee: task.Assignee,
			DueAt:    *task.DueAt,
		}

		if err := s.eventBus.Publish(ctx, task.InstanceID, event); err != nil {
			s.logger.ErrorContext(ctx, "Failed to publish overdue event",
				"task_id", task.ID, "error", err)

			continue
		}

		published++
	}

	span.SetAttributes(attribute.Int("cascade.sweep.overdue", len(tasks)))

	if published > 0 {
		s.logger.InfoContext(ctx, "Published overdue notifications",
			"overdue", len(tasks), "published", published)
	}

	return nil
}

func (s *Sweeper) generateEventID() string {
	if s.eventBus != nil {
		return s.eventBus.GenerateID()
	}

	return uuid.New().String()
}
