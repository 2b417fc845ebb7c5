package engine

import (
	"context"
	"fmt"
)

// MessageComposer produces the text for a send_connection_request,
// send_followup, or comment_post step. The engine does not ship an LLM
// integration (no language-model SDK is in scope); StaticComposer is the
// production composer and simply resolves whichever template the caller
// gives it. A real AI-backed composer can be substituted here later
// without touching the step handlers.
type MessageComposer interface {
	Compose(ctx context.Context, vars map[string]string, template, fallback string) (string, error)
}

// StaticComposer resolves {{...}} placeholders in template, or in fallback
// when template is empty.
type StaticComposer struct{}

// Compose implements MessageComposer.
func (StaticComposer) Compose(_ context.Context, vars map[string]string, template, fallback string) (string, error) {
	text := template
	if text == "" {
		text = fallback
	}
	if text == "" {
		return "", fmt.Errorf("no message template or fallback configured")
	}
	return SubstituteTemplate(text, vars), nil
}
