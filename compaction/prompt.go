package compaction

import (
	"strings"

	"github.com/alexk-dev/compactpg/types"
)

// maxMessageExcerptLength bounds how much of each message's content is
// included in the summarization prompt.
const maxMessageExcerptLength = 300

// summarySystemPrompt is a continuation-oriented summary prompt: the goal is
// a "working memory" recap that lets the assistant continue work seamlessly
// after compaction (what we did, what we're doing, what to do next).
const summarySystemPrompt = `Provide a detailed but concise summary of the conversation above.
Focus on information that would be helpful for continuing the conversation.

Include, when applicable:
- what we did / what has been accomplished
- what we're doing right now
- decisions made and their rationale
- user preferences and constraints
- important details such as referenced files, commands, settings, IDs/URLs
- open questions, blockers, and what we should do next

Keep it factual. Write in the same language the conversation uses.
Do NOT include greetings, apologies, or meta-commentary. Output only the summary.`

// summaryUserPreamble introduces the conversation excerpt in the user turn of
// the summarization request.
const summaryUserPreamble = "Provide a detailed but concise summary of our conversation above. " +
	"Focus on information that would be helpful for continuing the conversation, " +
	"including what we did, what we're doing, which files we're working on, and what we're going to do next.\n\n"

// buildSummaryPrompt renders the messages into a single role-tagged user
// prompt. Tool result messages and messages without content are skipped, and
// each remaining message is truncated to a bounded excerpt.
func buildSummaryPrompt(messages []*types.Message) string {
	return summaryUserPreamble + formatConversation(messages)
}

func formatConversation(messages []*types.Message) string {
	lines := make([]string, 0, len(messages))
	for _, msg := range messages {
		if msg == nil || !msg.HasContent() || msg.IsToolMessage() {
			continue
		}
		lines = append(lines, string(msg.Role)+": "+truncate(msg.Content, maxMessageExcerptLength))
	}
	return strings.Join(lines, "\n")
}

func truncate(text string, maxLen int) string {
	if len(text) <= maxLen {
		return text
	}
	return text[:maxLen] + "..."
}
