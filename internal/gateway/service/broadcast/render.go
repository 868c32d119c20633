package broadcast

import (
	"fmt"
	"strings"

	"fraudwatch/internal/gateway/entity"
)

// Render formats r as a channel announcement.
func Render(r entity.Report) Announcement {
	typ := strings.TrimSpace(r.Type)
	if typ == "" {
		typ = entity.DefaultReportType
	}
	content := strings.ReplaceAll(r.Content, `\ \ `, "\n")
	text := fmt.Sprintf("📢 *Scam Alert!* 📢\n\n"+
		"*Title:* %s\n"+
		"*Type:* %s\n"+
		"*Reported Instances:* %d\n\n"+
		"*Details & How to Avoid:*\n%s\n\n"+
		"#FraudWatch #ScamAlert #%s",
		strings.TrimSpace(r.Title), typ, r.Count, strings.TrimSpace(content), hashtag(typ))
	return Announcement{ReportID: r.ID, Text: text, ImageURL: strings.TrimSpace(r.ImageRef)}
}

func hashtag(typ string) string {
	return strings.NewReplacer(" ", "", "-", "").Replace(typ)
}
