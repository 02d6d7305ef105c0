// Package queue defines the audit events exchanged over the message broker
// and the background consumer that persists them.
package queue

// Event type values published by the auth flows.
const (
	EventLoginSuccess   = "login.success"
	EventLoginFailure   = "login.failure"
	EventTokenRefreshed = "token.refreshed"
	EventClientToken    = "client.token.issued"
)

// AuthEvent is published on every authentication attempt and token issuance.
// It carries enough context for audit logging and anomaly detection without
// a round trip to the primary database. Secrets and token values are never
// included.
type AuthEvent struct {
	Type       string `json:"type"`
	UserID     string `json:"user_id,omitempty"`
	Email      string `json:"email,omitempty"`
	ClientID   string `json:"client_id,omitempty"`
	RemoteIP   string `json:"remote_ip,omitempty"`
	Reason     string `json:"reason,omitempty"`
	OccurredAt string `json:"occurred_at"`
}
