package conversation

import (
	"strings"

	"fraudwatch/internal/gateway/entity"
)

const commandMarker = "/"

type Intent int

const (
	IntentUnknown Intent = iota
	IntentStartReport
	IntentHelp
	IntentCancel
	IntentCommand
	IntentYes
	IntentNo
	IntentEdit
	IntentView
	IntentBack
	IntentConfirm
	IntentAddEvidence
	IntentText
	IntentPhoto
)

var intentNames = map[Intent]string{
	IntentUnknown:     "unknown",
	IntentStartReport: "start_report",
	IntentHelp:        "help",
	IntentCancel:      "cancel",
	IntentCommand:     "command",
	IntentYes:         "yes",
	IntentNo:          "no",
	IntentEdit:        "edit",
	IntentView:        "view",
	IntentBack:        "back",
	IntentConfirm:     "confirm",
	IntentAddEvidence: "add_evidence",
	IntentText:        "text",
	IntentPhoto:       "photo",
}

func (i Intent) String() string {
	if s, ok := intentNames[i]; ok {
		return s
	}
	return "unknown"
}

// Button labels offered with prompts. Matching is case-insensitive and also
// accepts the short forms in decisionWords.
const (
	OptionYes         = "Yes (Submit evidence)"
	OptionNo          = "No (Submit report)"
	OptionEdit        = "Edit description"
	OptionView        = "View report"
	OptionBack        = "Back"
	OptionConfirm     = "Confirm submission"
	OptionAddEvidence = "Add more evidence"
	OptionReport      = "/report"
)

var decisionWords = map[string]Intent{
	"yes":                   IntentYes,
	"yes (submit evidence)": IntentYes,
	"no":                    IntentNo,
	"no (submit report)":    IntentNo,
	"edit":                  IntentEdit,
	"edit description":      IntentEdit,
	"view":                  IntentView,
	"view report":           IntentView,
	"back":                  IntentBack,
	"confirm":               IntentConfirm,
	"confirm submission":    IntentConfirm,
	"add":                   IntentAddEvidence,
	"add more evidence":     IntentAddEvidence,
}

// classify maps an event to an intent given the state it arrives in. States
// that collect free text never interpret buttons: anything not starting with
// the command marker is content.
func classify(state entity.State, ev Event) Intent {
	if strings.TrimSpace(ev.Photo) != "" {
		return IntentPhoto
	}
	text := strings.TrimSpace(ev.Text)
	if strings.HasPrefix(text, commandMarker) {
		return classifyCommand(text)
	}
	if state.ExpectsFreeText() || state == entity.StateIdle {
		if text == "" {
			return IntentUnknown
		}
		return IntentText
	}
	lower := strings.ToLower(text)
	if in, ok := decisionWords[lower]; ok {
		return in
	}
	switch {
	case strings.HasPrefix(lower, "yes"):
		return IntentYes
	case strings.HasPrefix(lower, "no "), strings.HasPrefix(lower, "no,"):
		return IntentNo
	}
	return IntentUnknown
}

func classifyCommand(text string) Intent {
	cmd := strings.ToLower(strings.Fields(text)[0])
	// "/report@botname" style suffixes are accepted.
	if at := strings.IndexByte(cmd, '@'); at > 0 {
		cmd = cmd[:at]
	}
	switch cmd {
	case "/report":
		return IntentStartReport
	case "/start", "/help":
		return IntentHelp
	case "/cancel":
		return IntentCancel
	default:
		return IntentCommand
	}
}
