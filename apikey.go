package apiguard

import "time"

// APIKey is the key record an authentication event refers to.
//
// The record is owned by the host application. apiguard only relies on ID,
// which must be stable for the lifetime of the key so queued events can be
// resolved back to it.
type APIKey struct {
	ID        string            `json:"id"`
	Name      string            `json:"name,omitempty"`
	Owner     string            `json:"owner,omitempty"`
	Scopes    []string          `json:"scopes,omitempty"`
	CreatedAt time.Time         `json:"created_at,omitzero"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}
