package rag

import (
	"fmt"
	"strings"

	"notebook-ai/internal/llm"
	"notebook-ai/internal/scope"
)

const baseSystemPrompt = "You are a helpful assistant that answers questions based on the user's notes. " +
	"Use the search_notes tool to find relevant passages before answering. You may search more than once with different queries. " +
	"Answer using only the information returned by the tool. If the notes do not contain enough information to answer the question, say so. " +
	"Mention the titles of the notes you used."

// buildSystemPrompt describes the tool and scope, followed by the prior conversation if any.
func buildSystemPrompt(resolved scope.Resolved, history []llm.Message) string {
	var b strings.Builder
	b.WriteString(baseSystemPrompt)

	switch resolved.Kind {
	case scope.KindNote:
		b.WriteString("\n\nThe search is limited to a single note.")
	case scope.KindFolder:
		b.WriteString("\n\nThe search is limited to the notes in one folder.")
	}
	if resolved.Empty() {
		b.WriteString(" There are currently no published notes in scope.")
	}

	if t := transcript(history); t != "" {
		b.WriteString("\n\nConversation so far:\n")
		b.WriteString(t)
	}
	return b.String()
}

// transcript serializes user and assistant turns; other roles are dropped.
func transcript(history []llm.Message) string {
	var b strings.Builder
	for _, m := range history {
		content := strings.TrimSpace(m.Content)
		if content == "" {
			continue
		}
		switch m.Role {
		case llm.RoleUser:
			fmt.Fprintf(&b, "User: %s\n", content)
		case llm.RoleAssistant:
			fmt.Fprintf(&b, "Assistant: %s\n", content)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}
