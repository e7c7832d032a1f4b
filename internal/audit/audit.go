package audit

import "time"

// Actor identifies who performed an action.
type Actor string

const (
	ActorUser      Actor = "user"
	ActorScheduler Actor = "scheduler"
	ActorAgent     Actor = "agent"
)

// Action describes what was done.
type Action string

const (
	ActionConnectionSaved   Action = "connection_saved"
	ActionConnectionTested  Action = "connection_tested"
	ActionConnectionDeleted Action = "connection_deleted"
	ActionMappingSaved      Action = "mapping_saved"
	ActionMappingConfirmed  Action = "mapping_confirmed"
	ActionSyncCompleted     Action = "sync_completed"
	ActionSyncFailed        Action = "sync_failed"
	ActionKnowledgeAdded    Action = "knowledge_added"
	ActionKnowledgeDeleted  Action = "knowledge_deleted"
	ActionRetrainCompleted  Action = "retrain_completed"
)

// Scope describes the area an action touched.
type Scope string

const (
	ScopeConnection Scope = "connection"
	ScopeMapping    Scope = "mapping"
	ScopeSync       Scope = "sync"
	ScopeKnowledge  Scope = "knowledge"
)

// Entry is a single audit trail record.
type Entry struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Actor     Actor     `json:"actor"`
	Action    Action    `json:"action"`
	Scope     Scope     `json:"scope"`
	ScopeID   string    `json:"scope_id,omitempty"`
	Detail    string    `json:"detail,omitempty"`
}
