package types

import "github.com/menuvision/backend/internal/models"

// EventType tags one progress event in the streaming protocol.
type EventType string

const (
	EventStatus       EventType = "status"
	EventParsed       EventType = "parsed"
	EventProcessing   EventType = "processing"
	EventItemComplete EventType = "item-complete"
	EventItemError    EventType = "item-error"
	EventComplete     EventType = "complete"
	EventError        EventType = "error"
)

// ProgressEvent is one typed, ordered message reporting pipeline state.
// Payload is one of the *Payload structs below, matching Type.
type ProgressEvent struct {
	Type    EventType
	Payload any
}

// StatusPayload accompanies free-form status updates.
type StatusPayload struct {
	Message string `json:"message"`
}

// ParsedPayload reports the candidate list right after parsing.
type ParsedPayload struct {
	Count   int      `json:"count"`
	Items   []string `json:"items"`
	Message string   `json:"message"`
}

// ProcessingPayload announces that work on item Current of Total has begun.
type ProcessingPayload struct {
	Current int    `json:"current"`
	Total   int    `json:"total"`
	Item    string `json:"item"`
	Message string `json:"message"`
}

// ItemCompletePayload carries the fully persisted item.
type ItemCompletePayload struct {
	Item    *models.MenuItem `json:"item"`
	Current int              `json:"current"`
	Total   int              `json:"total"`
	Message string           `json:"message"`
}

// ItemErrorPayload reports a single failed item; the run continues.
type ItemErrorPayload struct {
	Item    string `json:"item"`
	Current int    `json:"current"`
	Total   int    `json:"total"`
	Message string `json:"message"`
}

// CompletePayload is the terminal event of a successful run.
type CompletePayload struct {
	SessionID int                `json:"sessionId"`
	MenuItems []*models.MenuItem `json:"menuItems"`
	Success   bool               `json:"success"`
	Message   string             `json:"message"`
}

// ErrorPayload is the terminal event of a failed run.
type ErrorPayload struct {
	Message string `json:"message"`
}
