package entity

import "time"

const DefaultReportType = "General Scam"

// Summary is the structured extraction the AI gateway produces for a report.
type Summary struct {
	Title   string `json:"title"`
	Type    string `json:"type"`
	Content string `json:"content"`
}

// Report is a durable, possibly merged, incident record.
//
// Count is at least 1. Broadcasted only ever moves from false to true.
// Version increments on every successful update and backs optimistic locking.
type Report struct {
	ID          string
	Title       string
	Type        string
	Content     string
	ImageRef    string
	Embedding   []float32
	Count       int
	Broadcasted bool
	Version     int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (r Report) Summary() Summary {
	return Summary{Title: r.Title, Type: r.Type, Content: r.Content}
}

func (r Report) HasEmbedding() bool { return len(r.Embedding) > 0 }

// Clone returns a copy whose embedding does not alias r's.
func (r Report) Clone() Report {
	out := r
	if r.Embedding != nil {
		out.Embedding = append([]float32(nil), r.Embedding...)
	}
	return out
}

// ReportPatch lists the fields a merge may overwrite. Nil pointers are left
// untouched. Broadcasted is not patchable; use the store's mark operation.
type ReportPatch struct {
	Title     *string
	Type      *string
	Content   *string
	ImageRef  *string
	Embedding []float32
	Count     *int
	UpdatedAt time.Time
}
