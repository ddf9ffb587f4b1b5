package usecase

import (
	"fmt"
	"strings"

	"support-kb-ingest/internal/domain/model"
)

const summaryInstructions = `Respond with only a JSON object in exactly this shape and no other text:
{
  "category": "one of technical, billing, account",
  "service": "lowercase service name such as ec2, rds, lambda, s3, vpc",
  "question": "the core question in one or two sentences",
  "answer": "the short answer support gave",
  "solution": "how the issue was resolved in three to five lines",
  "steps": ["step 1", "step 2", "step 3"],
  "tags": ["related", "keyword", "tags"],
  "user_messages": ["key verbatim messages from the customer"],
  "support_messages": ["key verbatim messages from support"]
}`

// BuildSummaryPrompt renders the ticket metadata and transcript into one prompt.
func BuildSummaryPrompt(thread *model.TicketThread) string {
	t := thread.Ticket
	var b strings.Builder
	b.WriteString("Analyze and summarize the following support case.\n\n")
	fmt.Fprintf(&b, "Subject: %s\n", orDefault(t.Subject, "N/A"))
	fmt.Fprintf(&b, "Severity: %s\n", orDefault(t.SeverityCode, "normal"))
	fmt.Fprintf(&b, "Service code: %s\n", orDefault(t.ServiceCode, "general"))
	fmt.Fprintf(&b, "Created: %s\n", orDefault(t.CreatedAt, "N/A"))
	b.WriteString("\nConversation:\n")
	for _, c := range thread.Communications {
		fmt.Fprintf(&b, "\n[%s]\n%s\n", orDefault(c.SubmittedBy, "Unknown"), c.Body)
	}
	b.WriteString("\n")
	b.WriteString(summaryInstructions)
	b.WriteString("\n")
	return b.String()
}

// StripCodeFence removes a leading ```json or ``` fence and its closing fence.
// Replies that do not open with a fence are returned trimmed and untouched.
func StripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	rest := s[3:]
	if nl := strings.IndexByte(rest, '\n'); nl >= 0 && isFenceTag(rest[:nl]) {
		rest = rest[nl+1:]
	} else if strings.HasPrefix(strings.ToLower(rest), "json") {
		rest = rest[4:]
	}
	if end := strings.LastIndex(rest, "```"); end >= 0 {
		rest = rest[:end]
	}
	return strings.TrimSpace(rest)
}

func isFenceTag(s string) bool {
	s = strings.TrimSpace(s)
	return s == "" || strings.EqualFold(s, "json")
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
