package submission

import "fraudwatch/internal/gateway/entity"

type Result int

const (
	ResultFailed Result = iota
	ResultNew
	ResultMerged
	ResultRejected
	ResultMissingDescription
)

func (r Result) String() string {
	switch r {
	case ResultNew:
		return "new"
	case ResultMerged:
		return "merged"
	case ResultRejected:
		return "rejected"
	case ResultMissingDescription:
		return "missing_description"
	default:
		return "failed"
	}
}

// Outcome is what a submission produced. Report is set for ResultNew and
// ResultMerged. Degraded lists the fallback paths taken along the way.
type Outcome struct {
	Result   Result
	Report   entity.Report
	Degraded []string
	Err      error
}

// Stored reports whether the submission left a report in the store.
func (o Outcome) Stored() bool {
	return o.Result == ResultNew || o.Result == ResultMerged
}
