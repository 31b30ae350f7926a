// internal/optout/inbound.go
package optout

import "strings"

// Replies sent back for recognized inbound commands.
const (
	UnsubscribeReply = "You've been unsubscribed. Reply START to resubscribe."
	ResubscribeReply = "You're resubscribed to messages."
)

var stopWords = []string{"stop", "unsubscribe", "opt out"}

// HandleInbound interprets an inbound message from a destination. A body
// containing any stop word (case-insensitive, anywhere in the text) opts the
// sender out; an exact "start" opts them back in. Anything else is ordinary
// content: no state change and no reply.
func (r *Registry) HandleInbound(from, body string) (string, bool) {
	lower := strings.ToLower(strings.TrimSpace(body))

	for _, w := range stopWords {
		if strings.Contains(lower, w) {
			r.OptOut(from)
			return UnsubscribeReply, true
		}
	}

	if lower == "start" {
		r.OptIn(from)
		return ResubscribeReply, true
	}

	return "", false
}
