// internal/model/message.go
package model

// Message is the rendered text for one recipient, created once before
// dispatch and immutable afterwards. The review link and opt-out suffix are
// appended at send time, not here.
type Message struct {
	Row        int    `json:"row"`
	Body       string `json:"body"`
	TemplateID string `json:"template_id"` // template tier/variant, or "ai" for generated text
}
