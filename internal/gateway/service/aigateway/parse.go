package aigateway

import (
	"fmt"
	"strings"
	"unicode"

	"fraudwatch/internal/gateway/entity"
	"fraudwatch/internal/util/jsonutil"
)

type Verdict int

const (
	VerdictAmbiguous Verdict = iota
	VerdictLegitimate
	VerdictNotLegitimate
)

func (v Verdict) String() string {
	switch v {
	case VerdictLegitimate:
		return "legitimate"
	case VerdictNotLegitimate:
		return "not_legitimate"
	default:
		return "ambiguous"
	}
}

// ParseVerdict maps a classifier answer to a Verdict. Exact "true"/"false"
// win. A chatty answer decides only when it opens with the verdict word, or
// when exactly one of the words appears whole with no negation before it.
// Everything else is ambiguous.
func ParseVerdict(answer string) Verdict {
	s := strings.ToLower(strings.TrimSpace(answer))
	s = strings.Trim(s, "`*\"'. \n")
	switch s {
	case "true":
		return VerdictLegitimate
	case "false":
		return VerdictNotLegitimate
	}

	words := strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && r != '\'' && r != '’'
	})
	firstTrue, firstFalse := -1, -1
	for i, w := range words {
		switch w {
		case "true":
			if firstTrue < 0 {
				firstTrue = i
			}
		case "false":
			if firstFalse < 0 {
				firstFalse = i
			}
		}
	}
	var at int
	var v Verdict
	switch {
	case firstTrue >= 0 && firstFalse < 0:
		at, v = firstTrue, VerdictLegitimate
	case firstFalse >= 0 && firstTrue < 0:
		at, v = firstFalse, VerdictNotLegitimate
	default:
		return VerdictAmbiguous
	}
	if at == 0 {
		return v
	}
	for _, w := range words[:at] {
		if isNegation(w) {
			return VerdictAmbiguous
		}
	}
	return v
}

var negations = map[string]bool{
	"not": true, "no": true, "never": true, "cannot": true, "neither": true, "nor": true,
	"hardly": true, "barely": true, "doubt": true, "unlikely": true,
}

func isNegation(w string) bool {
	w = strings.ReplaceAll(w, "’", "'")
	return negations[w] || strings.HasSuffix(w, "n't")
}

type rawSummary struct {
	Title   *string `json:"title"`
	Type    *string `json:"type"`
	Content *string `json:"content"`
}

// ParseSummary decodes the summarizer's JSON answer. Title and content are
// required; a missing or blank type falls back to the generic report type.
func ParseSummary(answer string) (entity.Summary, error) {
	var raw rawSummary
	if err := jsonutil.UnmarshalFlex(answer, &raw); err != nil {
		return entity.Summary{}, fmt.Errorf("%w: %v", entity.ErrMalformedAIOutput, err)
	}
	if raw.Title == nil || strings.TrimSpace(*raw.Title) == "" {
		return entity.Summary{}, fmt.Errorf("%w: missing title", entity.ErrMalformedAIOutput)
	}
	if raw.Content == nil || strings.TrimSpace(*raw.Content) == "" {
		return entity.Summary{}, fmt.Errorf("%w: missing content", entity.ErrMalformedAIOutput)
	}
	s := entity.Summary{
		Title:   strings.TrimSpace(*raw.Title),
		Type:    entity.DefaultReportType,
		Content: strings.TrimSpace(*raw.Content),
	}
	if raw.Type != nil && strings.TrimSpace(*raw.Type) != "" {
		s.Type = strings.TrimSpace(*raw.Type)
	}
	return s, nil
}
