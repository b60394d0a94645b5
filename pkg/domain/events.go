package domain

import "time"

// EventType defines the category of the event.
type EventType string

const (
	EventTemplateCreated    EventType = "template.created"
	EventTemplateUpdated    EventType = "template.updated"
	EventVersionCreated     EventType = "version.created"
	EventVersionActivated   EventType = "version.activated"
	EventVersionDeactivated EventType = "version.deactivated"
	EventLineageDeactivated EventType = "lineage.deactivated"
)

// Event notifies the workflow subsystem about a template lifecycle change.
type Event struct {
	Type       EventType `json:"type"`
	Timestamp  time.Time `json:"timestamp"`
	TemplateID string    `json:"template_id,omitempty"`
	LineageID  string    `json:"lineage_id"`
	TenantID   string    `json:"tenant_id,omitempty"`
	Version    int       `json:"version,omitempty"`
	// Detail carries an operation-specific note (e.g. the question mutation).
	Detail string `json:"detail,omitempty"`
}

// NewEvent builds an event for the given template.
func NewEvent(typ EventType, t *FormTemplate, at time.Time) Event {
	return Event{
		Type:       typ,
		Timestamp:  at,
		TemplateID: t.ID,
		LineageID:  t.LineageID,
		TenantID:   t.TenantID,
		Version:    t.Version,
	}
}
