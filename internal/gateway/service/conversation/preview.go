package conversation

import (
	"fmt"
	"strings"

	"fraudwatch/internal/gateway/entity"
)

// maxPreviewPhotos caps how many photos a preview renders.
const maxPreviewPhotos = 5

// renderPreview shows the draft as the user will submit it. Text evidence is
// rendered verbatim; photos beyond maxPreviewPhotos are only counted.
func renderPreview(d entity.Draft) Reply {
	desc := strings.TrimSpace(d.Description)
	if desc == "" {
		desc = "(none)"
	}

	var (
		lines  []string
		photos []string
		hidden int
	)
	for _, ev := range d.Evidence {
		if !ev.IsPhoto() {
			lines = append(lines, "- "+ev.Text)
			continue
		}
		if len(photos) >= maxPreviewPhotos {
			hidden++
			continue
		}
		photos = append(photos, ev.Handle)
		lines = append(lines, fmt.Sprintf("- Photo evidence #%d", len(photos)))
	}
	if hidden > 0 {
		lines = append(lines, fmt.Sprintf("- ...and %d more photo(s) not shown", hidden))
	}
	evidence := "(none)"
	if len(lines) > 0 {
		evidence = strings.Join(lines, "\n")
	}

	return Reply{
		Text:   fmt.Sprintf("Here is your report so far:\n\nDescription:\n%s\n\nEvidence:\n%s", desc, evidence),
		Photos: photos,
	}
}
