package submission

import (
	"strings"

	"fraudwatch/internal/gateway/entity"

	"github.com/google/uuid"
)

// fallbackTitleRunes is the prefix length of a description used as title
// when the summarizer fails.
const fallbackTitleRunes = 75

// summaryInput appends text evidence and evidence notes to the description
// so the summarizer sees everything the user provided.
func summaryInput(description string, evidence []entity.Evidence, notes []string) string {
	var extra []string
	for _, e := range evidence {
		if e.IsPhoto() {
			continue
		}
		if t := strings.TrimSpace(e.Text); t != "" {
			extra = append(extra, "- "+t)
		}
	}
	for _, n := range notes {
		extra = append(extra, "- "+n)
	}
	if len(extra) == 0 {
		return description
	}
	return description + "\n\nAdditional evidence:\n" + strings.Join(extra, "\n")
}

// mergeText is the summarizer input for folding a new submission into an
// existing report.
func mergeText(existingContent, newInput string) string {
	return "Existing Summary:\n" + strings.TrimSpace(existingContent) +
		"\n\n---\n\nNew Incident Description:\n" + strings.TrimSpace(newInput)
}

// fallbackSummary stands in for the summarizer on the insert path. Content
// is the user's description as written.
func fallbackSummary(description string) entity.Summary {
	return entity.Summary{
		Title:   truncateRunes(description, fallbackTitleRunes),
		Type:    entity.DefaultReportType,
		Content: strings.TrimSpace(description),
	}
}

func truncateRunes(s string, n int) string {
	r := []rune(strings.TrimSpace(s))
	if len(r) <= n {
		return string(r)
	}
	return string(r[:n]) + "..."
}

func newReportID() string {
	return uuid.NewString()
}
