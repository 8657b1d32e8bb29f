// Package prompt renders retrieved evidence, conversation history and the
// user's question into a single grounding prompt.
//
// The instruction to answer only from the supplied context, together with
// the low generation temperature used by the caller, is the system's only
// control against ungrounded answers. It is a prompting convention: the
// model is asked, not forced, to stay inside the context.
package prompt

import (
	"fmt"
	"strings"

	"github.com/bull/grounded-chat/internal/session"
	"github.com/bull/grounded-chat/internal/storage"
)

// InsufficientContextReply is the phrase the model is told to use verbatim
// when the context does not answer the question.
const InsufficientContextReply = "I don't have enough information in the provided documentation to answer that question."

// NoHistory stands in for an empty conversation.
const NoHistory = "(no previous conversation)"

const instructions = `You are a support assistant for our product documentation.
Answer the user's question using ONLY the information in the CONTEXT section below.
Do not use prior knowledge and do not invent details that are not in the context.
If the context does not contain enough information to answer, reply exactly with:
"` + InsufficientContextReply + `"
Be concise and cite the source titles you relied on.`

// Compose builds the grounding prompt. chunks are rendered in the order
// given, which is the ranker's order. It has no side effects.
func Compose(chunks []storage.ScoredChunk, history []session.Turn, question string) string {
	var sb strings.Builder

	sb.WriteString(instructions)
	sb.WriteString("\n\nCONTEXT:\n")
	for i, c := range chunks {
		fmt.Fprintf(&sb, "[%d] (Source: %q, Relevance: %.1f%%)\n%s\n\n", i+1, c.Title, c.Score*100, c.Content)
	}

	sb.WriteString("CONVERSATION HISTORY:\n")
	if len(history) == 0 {
		sb.WriteString(NoHistory)
		sb.WriteString("\n")
	}
	for _, turn := range history {
		fmt.Fprintf(&sb, "%s: %s\n", speaker(turn.Role), turn.Content)
	}

	sb.WriteString("\nQUESTION: ")
	sb.WriteString(question)
	sb.WriteString("\n\nANSWER:")
	return sb.String()
}

func speaker(role session.Role) string {
	if role == session.RoleAssistant {
		return "Assistant"
	}
	return "User"
}
