package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/cascadehq/cascade/pkg/eventbus"
	"github.com/cascadehq/cascade/pkg/events"
	"github.com/cascadehq/cascade/pkg/models"
	"github.com/cascadehq/cascade/pkg/protocol"
	"github.com/google/uuid"
)

// run is the core step loop. It advances the instance node by node,
// suspending at task/approval nodes and terminating at end nodes, so a
// single pass may traverse any number of automation and condition nodes.
// Run-time failures never bubble out as errors: they close the instance as
// rejected with the reason recorded in context.
func (e *Executor) run(ctx context.Context, graph *models.Graph, instance *models.WorkflowInstance) error {
	for hops := 0; ; hops++ {
		if instance.IsTerminal() {
			return nil
		}

		if hops >= maxHopsPerAdvance {
			return e.failInstance(ctx, instance,
				fmt.Sprintf("exceeded %d transitions in one pass, assuming a non-suspending cycle", maxHopsPerAdvance))
		}

		node := graph.NodeByID(instance.CurrentNodeID)
		if node == nil {
			return e.failInstance(ctx, instance,
				fmt.Sprintf("current node %q no longer exists in the definition", instance.CurrentNodeID))
		}

		switch node.Type {
		case models.NodeTypeStart:
			if err := e.moveAlongSingleEdge(ctx, graph, instance, node); err != nil {
				return err
			}

		case models.NodeTypeEnd:
			return e.completeInstance(ctx, instance)

		case models.NodeTypeTask, models.NodeTypeApproval:
			suspended, err := e.stepHumanNode(ctx, graph, instance, node)
			if err != nil || suspended {
				return err
			}

		case models.NodeTypeCondition:
			if err := e.stepCondition(ctx, graph, instance, node); err != nil {
				return err
			}

			if instance.IsTerminal() {
				return nil
			}

		case models.NodeTypeAutomation:
			if err := e.stepAutomation(ctx, graph, instance, node); err != nil {
				return err
			}

			if instance.IsTerminal() {
				return nil
			}
		}
	}
}

// stepHumanNode materializes the task (and approval) on first entry and
// suspends; on re-entry with a resolved task it follows the outgoing edge.
// Returns true when the instance is suspended waiting for a human.
func (e *Executor) stepHumanNode(ctx context.Context, graph *models.Graph, instance *models.WorkflowInstance, node *models.Node) (bool, error) {
	if instance.CurrentTaskID == "" {
		if err := e.materializeTask(ctx, instance, node); err != nil {
			return false, err
		}

		return true, nil
	}

	task, err := e.persistence.TaskRepository().GetByID(ctx, instance.CurrentTaskID)
	if err != nil {
		return false, err
	}

	if !task.IsResolved() {
		// Idempotent retry of Advance while the task is still open.
		return true, nil
	}

	if node.Type == models.NodeTypeApproval && task.Rejected {
		return false, e.failInstance(ctx, instance,
			fmt.Sprintf("approval %q was rejected", node.Label))
	}

	return false, e.moveAlongSingleEdge(ctx, graph, instance, node)
}

func (e *Executor) materializeTask(ctx context.Context, instance *models.WorkflowInstance, node *models.Node) error {
	now := time.Now().UTC()

	assignee, ok := node.StringParam(models.ParamAssignee)
	if !ok {
		assignee = instance.StartedBy
	}

	task := &models.WorkflowTask{
		ID:          uuid.New().String(),
		InstanceID:  instance.ID,
		NodeID:      node.ID,
		Title:       node.Label,
		Description: node.Description,
		Assignee:    assignee,
		Status:      models.TaskStatusPending,
		DueAt:       dueDate(node, now),
		CreatedAt:   now,
	}

	if err := e.persistence.TaskRepository().Create(ctx, task); err != nil {
		return fmt.Errorf("failed to create task for node %s: %w", node.ID, err)
	}

	if node.Type == models.NodeTypeApproval {
		approver, ok := node.StringParam(models.ParamApprover)
		if !ok {
			approver = assignee
		}

		approval := &models.WorkflowApproval{
			ID:         uuid.New().String(),
			InstanceID: instance.ID,
			TaskID:     task.ID,
			NodeID:     node.ID,
			Title:      node.Label,
			Approver:   approver,
			Status:     models.ApprovalStatusPending,
		}

		if err := e.persistence.ApprovalRepository().Create(ctx, approval); err != nil {
			return fmt.Errorf("failed to create approval for node %s: %w", node.ID, err)
		}
	}

	instance.CurrentTaskID = task.ID
	instance.Status = models.InstanceStatusInProgress

	if err := e.persistence.InstanceRepository().Update(ctx, instance); err != nil {
		return err
	}

	e.publish(ctx, instance.ID, events.TaskCreated{
		BaseEvent: e.baseEvent(events.TaskCreatedEvent, instance),
		TaskID:    task.ID,
		NodeID:    node.ID,
		Assignee:  task.Assignee,
		DueAt:     task.DueAt,
	})

	e.logger.InfoContext(ctx, "Task created",
		"instance_id", instance.ID,
		"node_id", node.ID,
		"task_id", task.ID,
		"assignee", task.Assignee,
	)

	return nil
}

func (e *Executor) stepCondition(ctx context.Context, graph *models.Graph, instance *models.WorkflowInstance, node *models.Node) error {
	language, _ := node.StringParam(models.ParamLanguage)

	evaluator := models.GetBranchEvaluator(language)
	if evaluator == nil {
		return e.failInstance(ctx, instance,
			fmt.Sprintf("condition %q uses unknown language %q", node.Label, language))
	}

	label, err := evaluator.Evaluate(node.Params, instance.Context)
	if err != nil {
		return e.failInstance(ctx, instance,
			fmt.Sprintf("condition %q failed to evaluate: %v", node.Label, err))
	}

	for _, edge := range graph.OutgoingEdges(node.ID) {
		if edge.BranchLabel == label {
			return e.moveTo(ctx, instance, node.ID, edge.Target)
		}
	}

	return e.failInstance(ctx, instance,
		fmt.Sprintf("condition %q has no branch matching result %q", node.Label, label))
}

func (e *Executor) stepAutomation(ctx context.Context, graph *models.Graph, instance *models.WorkflowInstance, node *models.Node) error {
	handlerType, ok := node.StringParam(models.ParamHandler)
	if !ok {
		return e.failInstance(ctx, instance,
			fmt.Sprintf("automation %q does not declare a handler", node.Label))
	}

	config, _ := node.Params[models.ParamConfig].(map[string]any)

	handler, err := e.registry.CreateHandler(handlerType, config)
	if err != nil {
		return e.failInstance(ctx, instance,
			fmt.Sprintf("automation %q: %v", node.Label, err))
	}

	handlerCtx, cancel := context.WithTimeout(ctx, e.automationTimeout)
	output, err := handler.Execute(handlerCtx, protocol.HandlerInput{
		InstanceID: instance.ID,
		NodeID:     node.ID,
		Context:    instance.Context,
	})
	cancel()

	if err != nil {
		return e.failInstance(ctx, instance,
			fmt.Sprintf("automation %q failed: %v", node.Label, err))
	}

	instance.MergeContext(output)

	return e.moveAlongSingleEdge(ctx, graph, instance, node)
}

// moveAlongSingleEdge follows the node's only outgoing edge; validation
// guarantees there is exactly one for every non-condition, non-end node.
func (e *Executor) moveAlongSingleEdge(ctx context.Context, graph *models.Graph, instance *models.WorkflowInstance, node *models.Node) error {
	outgoing := graph.OutgoingEdges(node.ID)
	if len(outgoing) != 1 {
		return e.failInstance(ctx, instance,
			fmt.Sprintf("node %q has %d outgoing edges, expected exactly one", node.ID, len(outgoing)))
	}

	return e.moveTo(ctx, instance, node.ID, outgoing[0].Target)
}

func (e *Executor) moveTo(ctx context.Context, instance *models.WorkflowInstance, fromNodeID, toNodeID string) error {
	instance.CurrentNodeID = toNodeID
	instance.CurrentTaskID = ""

	if err := e.persistence.InstanceRepository().Update(ctx, instance); err != nil {
		return err
	}

	e.publish(ctx, instance.ID, events.InstanceAdvanced{
		BaseEvent:  e.baseEvent(events.InstanceAdvancedEvent, instance),
		FromNodeID: fromNodeID,
		ToNodeID:   toNodeID,
		Status:     instance.Status,
	})

	return nil
}

func (e *Executor) completeInstance(ctx context.Context, instance *models.WorkflowInstance) error {
	now := time.Now().UTC()
	instance.Complete(now)

	if err := e.persistence.InstanceRepository().Update(ctx, instance); err != nil {
		return err
	}

	e.publish(ctx, instance.ID, events.InstanceCompleted{
		BaseEvent: e.baseEvent(events.InstanceCompletedEvent, instance),
		Duration:  now.Sub(instance.StartedAt),
	})

	e.logger.InfoContext(ctx, "Instance completed",
		"instance_id", instance.ID,
		"duration", now.Sub(instance.StartedAt),
	)

	return nil
}

// failInstance converts a run-time failure into a terminal rejected status.
// The reason stays in context for audit; the call itself succeeds.
func (e *Executor) failInstance(ctx context.Context, instance *models.WorkflowInstance, reason string) error {
	instance.Fail(reason, time.Now().UTC())

	if err := e.persistence.InstanceRepository().Update(ctx, instance); err != nil {
		return err
	}

	e.publish(ctx, instance.ID, events.InstanceRejected{
		BaseEvent: e.baseEvent(events.InstanceRejectedEvent, instance),
		Reason:    reason,
	})

	e.logger.WarnContext(ctx, "Instance rejected",
		"instance_id", instance.ID,
		"reason", reason,
	)

	return nil
}

func (e *Executor) baseEvent(eventType events.EventType, instance *models.WorkflowInstance) events.BaseEvent {
	id := uuid.New().String()
	if e.eventBus != nil {
		id = e.eventBus.GenerateID()
	}

	return events.BaseEvent{
		ID:           id,
		Type:         eventType,
		Timestamp:    time.Now().UTC(),
		DefinitionID: instance.DefinitionID,
		InstanceID:   instance.ID,
	}
}

func (e *Executor) publish(ctx context.Context, key string, event eventbus.Event) {
	if e.eventBus == nil {
		return
	}

	if err := e.eventBus.Publish(ctx, key, event); err != nil {
		e.logger.ErrorContext(ctx, "Failed to publish event",
			"event_type", event.GetType(),
			"error", err,
		)
	}
}

// dueDate derives a task due date from the node's due_in_hours parameter.
func dueDate(node *models.Node, now time.Time) *time.Time {
	if node.Params == nil {
		return nil
	}

	var hours float64

	switch v := node.Params[models.ParamDueInHours].(type) {
	case int:
		hours = float64(v)
	case int64:
		hours = float64(v)
	case float64:
		hours = v
	default:
		return nil
	}

	if hours <= 0 {
		return nil
	}

	due := now.Add(time.Duration(hours * float64(time.Hour)))

	return &due
}
