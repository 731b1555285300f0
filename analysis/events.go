package analysis

type EventType string

const (
	EventStart            EventType = "start"
	EventInitial          EventType = "initial"
	EventProductsFetched  EventType = "products_fetched"
	EventProgress         EventType = "progress"
	EventCategoryComplete EventType = "category_complete"
	EventCategoryError    EventType = "category_error"
	EventComplete         EventType = "complete"
	EventError            EventType = "error"
)

// Event is one streamed progress message. Exactly one EventComplete or
// EventError terminates every run, never both, and nothing follows it.
type Event struct {
	Type     EventType      `json:"type"`
	RunId    string         `json:"runId,omitempty"`
	Message  string         `json:"message,omitempty"`
	Category Dimension      `json:"category,omitempty"`
	Score    *CategoryScore `json:"score,omitempty"`
	Result   *Result        `json:"result,omitempty"`
	Error    string         `json:"error,omitempty"`
}

func (e *Event) IsTerminal() bool {
	return e.Type == EventComplete || e.Type == EventError
}
