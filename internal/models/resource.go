package models

// Resource is a guidance resource attached to an urgent response.
type Resource struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url,omitempty"`
}

// ServiceResponse is the payload the guidance service answers a message
// with. It is treated as an opaque, immutable value: decoded once and never
// persisted beyond the current history.
type ServiceResponse struct {
	BotText           string     `json:"bot_response"`
	IsUrgent          bool       `json:"is_urgent"`
	RelevantResources []Resource `json:"relevant_resources,omitempty"`
	IsError           bool       `json:"is_error,omitempty"`
}
