package scan

// EventTypeCompleted is published after a scan has been persisted.
const EventTypeCompleted = "scan.completed"

// Event is the payload sent from API -> SQS -> Worker.
type Event struct {
	Type          string `json:"type"`
	Scan          Scan   `json:"scan"`
	CorrelationID string `json:"correlation_id,omitempty"`
}
