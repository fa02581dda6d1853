package postgresql

func migrations() map[int]string {
	return map[int]string{
		1: `
			CREATE TABLE workflow_definitions (
				id UUID PRIMARY KEY,
				name VARCHAR(255) NOT NULL,
				description TEXT NOT NULL DEFAULT '',
				status VARCHAR(50) NOT NULL CHECK (status IN ('draft', 'active', 'archived')),
				nodes JSONB NOT NULL DEFAULT '[]',
				edges JSONB NOT NULL DEFAULT '[]',
				owner VARCHAR(255),
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL,
				archived_at TIMESTAMP WITH TIME ZONE
			);

			CREATE INDEX idx_definitions_status ON workflow_definitions(status);
			CREATE INDEX idx_definitions_owner ON workflow_definitions(owner);
			CREATE INDEX idx_definitions_created_at ON workflow_definitions(created_at);

			CREATE TABLE workflow_instances (
				id UUID PRIMARY KEY,
				definition_id UUID NOT NULL REFERENCES workflow_definitions(id),
				status VARCHAR(50) NOT NULL CHECK (status IN ('pending', 'in_progress', 'completed', 'rejected', 'cancelled')),
				current_node_id VARCHAR(255),
				current_task_id UUID,
				context JSONB NOT NULL DEFAULT '{}',
				started_by VARCHAR(255) NOT NULL,
				started_at TIMESTAMP WITH TIME ZONE NOT NULL,
				completed_at TIMESTAMP WITH TIME ZONE,
				version BIGINT NOT NULL DEFAULT 1
			);

			CREATE INDEX idx_instances_definition_id ON workflow_instances(definition_id);
			CREATE INDEX idx_instances_status ON workflow_instances(status);

			CREATE TABLE workflow_tasks (
				id UUID PRIMARY KEY,
				instance_id UUID NOT NULL REFERENCES workflow_instances(id) ON DELETE CASCADE,
				node_id VARCHAR(255) NOT NULL,
				title VARCHAR(255) NOT NULL,
				description TEXT NOT NULL DEFAULT '',
				assignee VARCHAR(255) NOT NULL,
				status VARCHAR(50) NOT NULL CHECK (status IN ('pending', 'in_progress', 'completed', 'skipped')),
				due_at TIMESTAMP WITH TIME ZONE,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				resolved_at TIMESTAMP WITH TIME ZONE,
				resolved_by VARCHAR(255),
				rejected BOOLEAN NOT NULL DEFAULT false
			);

			CREATE INDEX idx_tasks_instance_id ON workflow_tasks(instance_id);
			CREATE INDEX idx_tasks_assignee ON workflow_tasks(assignee);
			CREATE INDEX idx_tasks_status ON workflow_tasks(status);
			CREATE INDEX idx_tasks_due_at ON workflow_tasks(due_at) WHERE resolved_at IS NULL;

			CREATE TABLE workflow_approvals (
				id UUID PRIMARY KEY,
				instance_id UUID NOT NULL REFERENCES workflow_instances(id) ON DELETE CASCADE,
				task_id UUID NOT NULL UNIQUE REFERENCES workflow_tasks(id) ON DELETE CASCADE,
				node_id VARCHAR(255) NOT NULL,
				title VARCHAR(255) NOT NULL,
				approver VARCHAR(255) NOT NULL,
				status VARCHAR(50) NOT NULL CHECK (status IN ('pending', 'approved', 'rejected')),
				comments TEXT NOT NULL DEFAULT '',
				decided_at TIMESTAMP WITH TIME ZONE,
				decided_by VARCHAR(255)
			);

			CREATE INDEX idx_approvals_instance_id ON workflow_approvals(instance_id);
		`,
	}
}
