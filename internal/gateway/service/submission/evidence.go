package submission

import (
	"context"
	"fmt"
	"strings"

	"fraudwatch/internal/gateway/entity"
	evidencerepo "fraudwatch/internal/gateway/repository/evidence"
	"fraudwatch/internal/gateway/service/aigateway"
)

type evidenceResult struct {
	// url is the durable reference of the single stored image, if any.
	url   string
	image *aigateway.Image
	notes []string
}

// materializeEvidence stores at most one photo of the draft. Failures are
// recorded as notes and never abort the submission.
func (p *Pipeline) materializeEvidence(ctx context.Context, chatID string, d entity.Draft) evidenceResult {
	var res evidenceResult
	photos := make([]entity.Evidence, 0, 2)
	for _, e := range d.Evidence {
		if e.IsPhoto() {
			photos = append(photos, e)
		}
	}
	if len(photos) == 0 {
		return res
	}
	if extra := len(photos) - 1; extra > 0 {
		res.notes = append(res.notes, fmt.Sprintf("%d additional photo(s) were provided but not stored (one image per report).", extra))
	}

	photo := photos[0]
	if photo.Known && strings.TrimSpace(photo.URL) != "" {
		res.url = photo.URL
		return res
	}
	if p.media == nil || p.evidence == nil {
		res.notes = append(res.notes, "Photo evidence was provided but evidence storage is not configured.")
		return res
	}

	p.notify(ctx, chatID, msgUploading)
	blob, err := p.media.Fetch(ctx, photo.Handle)
	if err != nil {
		return p.uploadFailed(ctx, chatID, res, err)
	}
	sctx, cancel := context.WithTimeout(ctx, p.cfg.StoreTimeout)
	url, err := p.evidence.Put(sctx, evidencerepo.NewKey(p.now(), blob.MIMEType), blob.Data, blob.MIMEType)
	cancel()
	if err != nil {
		return p.uploadFailed(ctx, chatID, res, err)
	}
	p.notify(ctx, chatID, msgUploaded)
	res.url = url
	res.image = &aigateway.Image{MIMEType: blob.MIMEType, Data: blob.Data}
	return res
}

func (p *Pipeline) uploadFailed(ctx context.Context, chatID string, res evidenceResult, err error) evidenceResult {
	p.log.WarnContext(ctx, "photo evidence upload failed", "error", err)
	detail := truncateRunes(err.Error(), 100)
	p.notify(ctx, chatID, fmt.Sprintf(msgUploadFailed, detail))
	res.notes = append(res.notes, "Photo evidence could not be uploaded: "+detail)
	return res
}
