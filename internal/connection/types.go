package connection

import "time"

// SiteConnection is the stored link between an owning agent and a remote
// site. At most one exists per agent.
type SiteConnection struct {
	ID              string     `json:"id"`
	AgentID         string     `json:"agent_id"`
	SiteURL         string     `json:"site_url"`
	VerifiedAt      *time.Time `json:"verified_at,omitempty"`
	LastTestSuccess bool       `json:"last_test_success"`
	LastTestMessage string     `json:"last_test_message,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

// TestResult is the structured outcome of a reachability test. Failures
// are values, never errors across the component boundary.
type TestResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
