package adapter

import (
	"time"
)

// Record is one provider record in its normalized JSON-object shape.
type Record = map[string]any

// Capabilities declares which optional surfaces a provider implements.
// Callers check these flags instead of probing for method behavior.
type Capabilities struct {
	Webhooks        bool `json:"webhooks"`
	Teams           bool `json:"teams"`
	IncrementalSync bool `json:"incremental_sync"`
	Search          bool `json:"search"`
	Push            bool `json:"push"`
}

// Definition is static provider metadata. Building one never fails.
type Definition struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Version      string       `json:"version"`
	Capabilities Capabilities `json:"capabilities"`
}

// FetchRequest describes one page of a pull from the provider.
// Limit/Offset interpretation is adapter-specific; ModifiedSince plus
// IncrementalSync signals delta-sync semantics.
type FetchRequest struct {
	Entity          string
	Filters         map[string]any
	Fields          []string
	Limit           int
	Offset          int
	Cursor          string
	OrderBy         string
	OrderDirection  string
	ModifiedSince   *time.Time
	IncrementalSync bool
	ExternalUserID  string
}

// FetchResult is one page of records. When HasMore is set, the provider must
// also supply NextOffset or Cursor (or have returned records, so linear offset
// advance can make progress) or batch orchestration refuses to continue.
type FetchResult struct {
	Records    []Record `json:"records"`
	Total      *int     `json:"total,omitempty"`
	HasMore    bool     `json:"has_more"`
	NextOffset *int     `json:"next_offset,omitempty"`
	Cursor     string   `json:"cursor,omitempty"`
}

// Push operations.
const (
	OperationCreate = "create"
	OperationUpdate = "update"
	OperationDelete = "delete"
)

// PushOptions identifies the target entity and operation for one push call.
type PushOptions struct {
	Entity    string
	Operation string
}

// PushResult reports one record's outcome. Failures are encoded in the result
// rather than returned as errors so batch callers can continue.
type PushResult struct {
	Success    bool           `json:"success"`
	ExternalID string         `json:"external_id,omitempty"`
	Error      string         `json:"error,omitempty"`
	Details    map[string]any `json:"details,omitempty"`
}

// SearchOptions describes a provider-side search.
type SearchOptions struct {
	Entity string
	Query  string
	Fields []string
	Limit  int
}

// EntitySchema describes one syncable entity's fields.
type EntitySchema struct {
	Name   string        `json:"name"`
	Fields []FieldSchema `json:"fields"`
}

type FieldSchema struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Label    string `json:"label,omitempty"`
	Required bool   `json:"required,omitempty"`
}

// ConnectionTestResult reports connectivity. Connectivity failures are carried
// in the result, never as errors.
type ConnectionTestResult struct {
	Success bool           `json:"success"`
	Error   string         `json:"error,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

// HealthCheckResult is computed on demand and not cached by the framework.
type HealthCheckResult struct {
	Healthy       bool           `json:"healthy"`
	ResponseTime  time.Duration  `json:"response_time"`
	Error         string         `json:"error,omitempty"`
	LastCheckedAt time.Time      `json:"last_checked_at"`
	Details       map[string]any `json:"details,omitempty"`
}

// WebhookEvent is the normalized shape of an inbound provider notification.
type WebhookEvent struct {
	Type       string         `json:"type"`
	Entity     string         `json:"entity"`
	ExternalID string         `json:"external_id"`
	Operation  string         `json:"operation"`
	Data       map[string]any `json:"data,omitempty"`
	Timestamp  time.Time      `json:"timestamp"`
}

// TeamSyncConfig narrows a group/team sync for providers that support it.
type TeamSyncConfig struct {
	Filter         string
	IncludeMembers bool
}

// Team is one provider-side group.
type Team struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Members []string `json:"members,omitempty"`
}
