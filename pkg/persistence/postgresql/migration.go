package postgresql

// migrations returns the versioned schema for the workflow engine. New
// schema changes append a new version; existing entries never change.
func migrations() map[int]string {
	return map[int]string{
		1: `
			CREATE TABLE IF NOT EXISTS workflows (
				id UUID PRIMARY KEY,
				name VARCHAR(255) NOT NULL,
				definition JSONB NOT NULL,
				status VARCHAR(50) NOT NULL DEFAULT 'active',
				is_active BOOLEAN NOT NULL DEFAULT true,
				owner VARCHAR(255),
				created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
				deleted_at TIMESTAMP WITH TIME ZONE
			);

			CREATE INDEX IF NOT EXISTS idx_workflows_status ON workflows(status) WHERE deleted_at IS NULL;
			CREATE INDEX IF NOT EXISTS idx_workflows_owner ON workflows(owner) WHERE deleted_at IS NULL;

			CREATE TABLE IF NOT EXISTS executions (
				id UUID PRIMARY KEY,
				workflow_id UUID NOT NULL,
				status VARCHAR(50) NOT NULL DEFAULT 'pending',
				started_at TIMESTAMP WITH TIME ZONE NOT NULL,
				finished_at TIMESTAMP WITH TIME ZONE,
				output JSONB,
				error TEXT,
				cursor VARCHAR(255),
				context JSONB,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
			);

			CREATE INDEX IF NOT EXISTS idx_executions_workflow_id ON executions(workflow_id);
			CREATE INDEX IF NOT EXISTS idx_executions_status ON executions(status);

			CREATE TABLE IF NOT EXISTS execution_logs (
				id BIGSERIAL PRIMARY KEY,
				execution_id UUID NOT NULL,
				node_id VARCHAR(255) NOT NULL,
				level VARCHAR(20) NOT NULL,
				message TEXT NOT NULL,
				timestamp TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
			);

			CREATE INDEX IF NOT EXISTS idx_execution_logs_execution_id ON execution_logs(execution_id);
		`,
	}
}
