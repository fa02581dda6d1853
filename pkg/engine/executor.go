package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cascadehq/cascade/pkg/eventbus"
	"github.com/cascadehq/cascade/pkg/events"
	"github.com/cascadehq/cascade/pkg/models"
	"github.com/cascadehq/cascade/pkg/otelhelper"
	"github.com/cascadehq/cascade/pkg/persistence"
	"github.com/cascadehq/cascade/pkg/registry"
	"github.com/cascadehq/cascade/pkg/validation"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	defaultAutomationTimeout = 30 * time.Second

	// maxHopsPerAdvance bounds one advance pass so a cycle built entirely
	// from automation/condition nodes cannot spin forever.
	maxHopsPerAdvance = 1000
)

// Executor walks workflow instances through their definition graph. It
// holds no per-instance state: everything lives in the persisted records,
// so any number of executors may serve the same store concurrently.
type Executor struct {
	persistence       persistence.Persistence
	registry          *registry.Registry
	eventBus          eventbus.EventBus
	logger            *slog.Logger
	tracer            trace.Tracer
	automationTimeout time.Duration
}

// Option configures an Executor.
type Option func(*Executor)

// WithAutomationTimeout bounds each automation handler execution.
func WithAutomationTimeout(timeout time.Duration) Option {
	return func(e *Executor) {
		e.automationTimeout = timeout
	}
}

// NewExecutor creates an execution engine over the given store. The event
// bus may be nil when no subscriber cares about state changes.
func NewExecutor(
	logger *slog.Logger,
	store persistence.Persistence,
	handlerRegistry *registry.Registry,
	eventBus eventbus.EventBus,
	opts ...Option,
) *Executor {
	executor := &Executor{
		persistence:       store,
		registry:          handlerRegistry,
		eventBus:          eventBus,
		logger:            logger.With("module", "engine"),
		tracer:            otel.Tracer("cascade/engine"),
		automationTimeout: defaultAutomationTimeout,
	}

	for _, opt := range opts {
		opt(executor)
	}

	return executor
}

// Start creates an instance of an active definition and advances it until
// the first suspension or termination.
func (e *Executor) Start(ctx context.Context, definitionID, actorID string) (*models.WorkflowInstance, error) {
	ctx, span := otelhelper.StartSpan(ctx, e.tracer, "engine.start",
		attribute.String(otelhelper.DefinitionIDKey, definitionID),
		attribute.String(otelhelper.ActorIDKey, actorID),
	)
	defer span.End()

	definition, err := e.persistence.DefinitionRepository().GetByID(ctx, definitionID)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, err
	}

	if !definition.IsExecutable() {
		err = &InvalidDefinitionError{DefinitionID: definitionID, Err: ErrDefinitionNotActive}
		otelhelper.SetError(span, err)

		return nil, err
	}

	if err := validation.Validate(definition); err != nil {
		err = &InvalidDefinitionError{DefinitionID: definitionID, Err: err}
		otelhelper.SetError(span, err)

		return nil, err
	}

	graph := definition.Graph()
	start := graph.StartNodes()[0]
	now := time.Now().UTC()

	instance := &models.WorkflowInstance{
		ID:            uuid.New().String(),
		DefinitionID:  definitionID,
		Status:        models.InstanceStatusInProgress,
		CurrentNodeID: start.ID,
		Context:       map[string]any{},
		StartedBy:     actorID,
		StartedAt:     now,
	}

	if err := e.persistence.InstanceRepository().Create(ctx, instance); err != nil {
		otelhelper.SetError(span, err)

		return nil, fmt.Errorf("failed to create instance: %w", err)
	}

	span.SetAttributes(attribute.String(otelhelper.InstanceIDKey, instance.ID))

	e.publish(ctx, instance.ID, events.InstanceStarted{
		BaseEvent: e.baseEvent(events.InstanceStartedEvent, instance),
		StartedBy: actorID,
	})

	e.logger.InfoContext(ctx, "Instance started",
		"definition_id", definitionID,
		"instance_id", instance.ID,
		"started_by", actorID,
	)

	if err := e.run(ctx, graph, instance); err != nil {
		otelhelper.SetError(span, err)

		return nil, err
	}

	return instance, nil
}

// Advance performs one execution pass over the instance. Safe to retry:
// terminal instances are a no-op, suspended instances stay suspended until
// their open task resolves.
func (e *Executor) Advance(ctx context.Context, instanceID string) (models.InstanceStatus, error) {
	ctx, span := otelhelper.StartSpan(ctx, e.tracer, "engine.advance",
		attribute.String(otelhelper.InstanceIDKey, instanceID),
	)
	defer span.End()

	instance, err := e.persistence.InstanceRepository().GetByID(ctx, instanceID)
	if err != nil {
		otelhelper.SetError(span, err)

		return "", err
	}

	if instance.IsTerminal() {
		return instance.Status, nil
	}

	definition, err := e.persistence.DefinitionRepository().GetByID(ctx, instance.DefinitionID)
	if err != nil {
		otelhelper.SetError(span, err)

		return "", err
	}

	if err := e.run(ctx, definition.Graph(), instance); err != nil {
		otelhelper.SetError(span, err)

		return "", err
	}

	return instance.Status, nil
}

// ResumeTask applies a human outcome to a pending task, then advances the
// owning instance past the task's node.
func (e *Executor) ResumeTask(ctx context.Context, taskID, actorID string, outcome models.TaskOutcome, comments string) (*models.WorkflowInstance, error) {
	ctx, span := otelhelper.StartSpan(ctx, e.tracer, "engine.resume_task",
		attribute.String(otelhelper.TaskIDKey, taskID),
		attribute.String(otelhelper.ActorIDKey, actorID),
		attribute.String("cascade.outcome", string(outcome)),
	)
	defer span.End()

	task, err := e.persistence.TaskRepository().GetByID(ctx, taskID)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, err
	}

	if task.IsResolved() {
		return nil, ErrTaskAlreadyResolved
	}

	instance, err := e.persistence.InstanceRepository().GetByID(ctx, task.InstanceID)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, err
	}

	if instance.IsTerminal() {
		return nil, ErrInstanceClosed
	}

	if instance.CurrentTaskID != task.ID {
		return nil, ErrTaskSuperseded
	}

	approval, err := e.approvalForTask(ctx, task.ID)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, err
	}

	now := time.Now().UTC()

	if approval != nil {
		if err := e.decideApproval(ctx, instance, task, approval, actorID, outcome, comments, now); err != nil {
			return nil, err
		}
	} else {
		if outcome != models.TaskOutcomeCompleted && outcome != models.TaskOutcomeSkipped {
			return nil, fmt.Errorf("%w: task %s takes completed or skipped, got %q", ErrInvalidOutcome, task.ID, outcome)
		}

		if outcome == models.TaskOutcomeCompleted {
			task.Status = models.TaskStatusCompleted
		} else {
			task.Status = models.TaskStatusSkipped
		}
	}

	task.ResolvedAt = &now
	task.ResolvedBy = actorID

	if err := e.persistence.TaskRepository().Update(ctx, task); err != nil {
		otelhelper.SetError(span, err)

		return nil, fmt.Errorf("failed to update task %s: %w", task.ID, err)
	}

	e.publish(ctx, instance.ID, events.TaskResolved{
		BaseEvent:  e.baseEvent(events.TaskResolvedEvent, instance),
		TaskID:     task.ID,
		NodeID:     task.NodeID,
		Outcome:    outcome,
		ResolvedBy: actorID,
	})

	e.logger.InfoContext(ctx, "Task resolved",
		"instance_id", instance.ID,
		"task_id", task.ID,
		"outcome", outcome,
		"resolved_by", actorID,
	)

	definition, err := e.persistence.DefinitionRepository().GetByID(ctx, instance.DefinitionID)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, err
	}

	if err := e.run(ctx, definition.Graph(), instance); err != nil {
		otelhelper.SetError(span, err)

		return nil, err
	}

	return instance, nil
}

// Cancel terminates a non-terminal instance on operator request.
func (e *Executor) Cancel(ctx context.Context, instanceID, actorID string) (*models.WorkflowInstance, error) {
	instance, err := e.persistence.InstanceRepository().GetByID(ctx, instanceID)
	if err != nil {
		return nil, err
	}

	if instance.IsTerminal() {
		return nil, ErrInstanceClosed
	}

	now := time.Now().UTC()
	instance.Status = models.InstanceStatusCancelled
	instance.CurrentNodeID = ""
	instance.CurrentTaskID = ""
	instance.CompletedAt = &now

	if err := e.persistence.InstanceRepository().Update(ctx, instance); err != nil {
		return nil, err
	}

	e.publish(ctx, instance.ID, events.InstanceCancelled{
		BaseEvent:   e.baseEvent(events.InstanceCancelledEvent, instance),
		CancelledBy: actorID,
	})

	e.logger.InfoContext(ctx, "Instance cancelled",
		"instance_id", instance.ID,
		"cancelled_by", actorID,
	)

	return instance, nil
}

func (e *Executor) decideApproval(
	ctx context.Context,
	instance *models.WorkflowInstance,
	task *models.WorkflowTask,
	approval *models.WorkflowApproval,
	actorID string,
	outcome models.TaskOutcome,
	comments string,
	now time.Time,
) error {
	if outcome != models.TaskOutcomeApproved && outcome != models.TaskOutcomeRejected {
		return fmt.Errorf("%w: approval %s takes approved or rejected, got %q", ErrInvalidOutcome, approval.ID, outcome)
	}

	if outcome == models.TaskOutcomeApproved {
		approval.Status = models.ApprovalStatusApproved
	} else {
		approval.Status = models.ApprovalStatusRejected
		task.Rejected = true
	}

	approval.Comments = comments
	approval.DecidedAt = &now
	approval.DecidedBy = actorID

	if err := e.persistence.ApprovalRepository().Update(ctx, approval); err != nil {
		return fmt.Errorf("failed to update approval %s: %w", approval.ID, err)
	}

	// The task record always closes as completed; the rejection travels on
	// the approval decision and the task's rejected flag.
	task.Status = models.TaskStatusCompleted

	e.publish(ctx, instance.ID, events.ApprovalDecided{
		BaseEvent:  e.baseEvent(events.ApprovalDecidedEvent, instance),
		ApprovalID: approval.ID,
		TaskID:     task.ID,
		NodeID:     task.NodeID,
		Decision:   approval.Status,
		DecidedBy:  actorID,
		Comments:   comments,
	})

	return nil
}

func (e *Executor) approvalForTask(ctx context.Context, taskID string) (*models.WorkflowApproval, error) {
	approval, err := e.persistence.ApprovalRepository().GetByTaskID(ctx, taskID)
	if err != nil {
		if persistence.IsApprovalNotFound(err) {
			return nil, nil
		}

		return nil, err
	}

	return approval, nil
}
