package conversation

import (
	"context"
	"strings"

	"fraudwatch/internal/gateway/entity"
)

type transitionKey struct {
	state  entity.State
	intent Intent
}

type action func(ctx context.Context, e *Engine, t *turn) error

// transitions is the conversation state machine. Pairs not listed fall
// through to the state's entry in fallbacks.
var transitions = map[transitionKey]action{
	{entity.StateIdle, IntentStartReport}: startReport,
	{entity.StateIdle, IntentHelp}:        welcome,
	{entity.StateIdle, IntentText}:        chat,
	{entity.StateIdle, IntentPhoto}:       unsupportedMedia,

	{entity.StateAwaitingDescription, IntentText}: setDescription,

	{entity.StateAwaitingEvidenceDecision, IntentYes}:     requestEvidence,
	{entity.StateAwaitingEvidenceDecision, IntentNo}:      requestConfirmation,
	{entity.StateAwaitingEvidenceDecision, IntentConfirm}: requestConfirmation,
	{entity.StateAwaitingEvidenceDecision, IntentEdit}:    requestDescriptionEdit,
	{entity.StateAwaitingEvidenceDecision, IntentView}:    viewReport,
	{entity.StateAwaitingEvidenceDecision, IntentBack}:    evidenceOptions,
	{entity.StateAwaitingEvidenceDecision, IntentCancel}:  cancelReport,

	{entity.StateAwaitingEvidence, IntentText}:  addTextEvidence,
	{entity.StateAwaitingEvidence, IntentPhoto}: addPhotoEvidence,

	{entity.StateAwaitingConfirmation, IntentConfirm}:     submit,
	{entity.StateAwaitingConfirmation, IntentEdit}:        requestDescriptionEdit,
	{entity.StateAwaitingConfirmation, IntentAddEvidence}: requestEvidence,
	{entity.StateAwaitingConfirmation, IntentYes}:         requestEvidence,
	{entity.StateAwaitingConfirmation, IntentCancel}:      cancelReport,
}

var fallbacks = map[entity.State]action{
	entity.StateIdle:                     welcome,
	entity.StateAwaitingDescription:      rejectDescription,
	entity.StateAwaitingEvidenceDecision: evidenceOptions,
	entity.StateAwaitingEvidence:         rejectEvidence,
	entity.StateAwaitingConfirmation:     requestConfirmation,
}

var (
	evidenceDecisionOptions = []string{OptionYes, OptionNo, OptionEdit, OptionView}
	confirmationOptions     = []string{OptionConfirm, OptionEdit, OptionAddEvidence}
)

func welcome(ctx context.Context, e *Engine, t *turn) error {
	e.reply(ctx, t.ev.ChatID, Reply{Text: msgWelcome, Options: []string{OptionReport}})
	return nil
}

func startReport(ctx context.Context, e *Engine, t *turn) error {
	t.draft = entity.NewDraft(t.ev.UserID, t.ev.ChatID, e.now())
	t.save = true
	e.reply(ctx, t.ev.ChatID, Reply{Text: msgDescribe})
	return nil
}

func chat(ctx context.Context, e *Engine, t *turn) error {
	if e.assistant == nil {
		return welcome(ctx, e, t)
	}
	answer, err := e.assistant.Chat(ctx, strings.TrimSpace(t.ev.Text))
	if err != nil {
		e.reply(ctx, t.ev.ChatID, Reply{Text: msgChatUnavailable})
		return err
	}
	e.reply(ctx, t.ev.ChatID, Reply{Text: answer})
	return nil
}

func unsupportedMedia(ctx context.Context, e *Engine, t *turn) error {
	e.reply(ctx, t.ev.ChatID, Reply{Text: msgUnsupportedMedia})
	return nil
}

func setDescription(ctx context.Context, e *Engine, t *turn) error {
	edited := strings.TrimSpace(t.draft.Description) != ""
	t.draft.Description = strings.TrimSpace(t.ev.Text)
	t.draft.State = entity.StateAwaitingEvidenceDecision
	t.save = true
	if edited {
		e.reply(ctx, t.ev.ChatID, Reply{Text: msgDescriptionUpdated})
	}
	return evidenceOptions(ctx, e, t)
}

func rejectDescription(ctx context.Context, e *Engine, t *turn) error {
	msg := msgDescriptionRejected
	if t.intent == IntentPhoto || t.intent == IntentUnknown {
		msg = msgDescriptionNeedsText
	}
	e.reply(ctx, t.ev.ChatID, Reply{Text: msg})
	return entity.ErrInputRejected
}

func evidenceOptions(ctx context.Context, e *Engine, t *turn) error {
	e.reply(ctx, t.ev.ChatID, Reply{Text: msgEvidenceQuestion, Options: evidenceDecisionOptions})
	return nil
}

func requestEvidence(ctx context.Context, e *Engine, t *turn) error {
	t.draft.State = entity.StateAwaitingEvidence
	t.save = true
	e.reply(ctx, t.ev.ChatID, Reply{Text: msgProvideEvidence})
	return nil
}

func requestDescriptionEdit(ctx context.Context, e *Engine, t *turn) error {
	t.draft.State = entity.StateAwaitingDescription
	t.save = true
	e.reply(ctx, t.ev.ChatID, Reply{Text: msgNewDescription})
	return nil
}

func requestConfirmation(ctx context.Context, e *Engine, t *turn) error {
	if t.draft.State != entity.StateAwaitingConfirmation {
		t.draft.State = entity.StateAwaitingConfirmation
		t.save = true
	}
	e.reply(ctx, t.ev.ChatID, renderPreview(t.draft))
	e.reply(ctx, t.ev.ChatID, Reply{Text: msgConfirmPrompt, Options: confirmationOptions})
	return nil
}

func viewReport(ctx context.Context, e *Engine, t *turn) error {
	e.reply(ctx, t.ev.ChatID, renderPreview(t.draft))
	e.reply(ctx, t.ev.ChatID, Reply{Text: msgBackPrompt, Options: []string{OptionBack}})
	return nil
}

func addTextEvidence(ctx context.Context, e *Engine, t *turn) error {
	t.draft.Evidence = append(t.draft.Evidence, entity.TextEvidence(strings.TrimSpace(t.ev.Text)))
	t.draft.State = entity.StateAwaitingEvidenceDecision
	t.save = true
	e.reply(ctx, t.ev.ChatID, Reply{Text: msgMoreEvidence, Options: evidenceDecisionOptions})
	return nil
}

func addPhotoEvidence(ctx context.Context, e *Engine, t *turn) error {
	t.draft.Evidence = append(t.draft.Evidence, entity.PhotoEvidence(strings.TrimSpace(t.ev.Photo)))
	if caption := strings.TrimSpace(t.ev.Text); caption != "" && !strings.HasPrefix(caption, commandMarker) {
		t.draft.Evidence = append(t.draft.Evidence, entity.TextEvidence(caption))
	}
	t.draft.State = entity.StateAwaitingEvidenceDecision
	t.save = true
	e.reply(ctx, t.ev.ChatID, Reply{Text: msgPhotoAdded, Options: evidenceDecisionOptions})
	return nil
}

func rejectEvidence(ctx context.Context, e *Engine, t *turn) error {
	e.reply(ctx, t.ev.ChatID, Reply{Text: msgEvidenceRejected})
	return entity.ErrInputRejected
}

func cancelReport(ctx context.Context, e *Engine, t *turn) error {
	t.drop = true
	e.reply(ctx, t.ev.ChatID, Reply{Text: msgCancelled})
	return welcome(ctx, e, t)
}

// submit hands the draft to the pipeline. The draft is destroyed whatever the
// outcome so a failing backend cannot leave the user stuck.
func submit(ctx context.Context, e *Engine, t *turn) error {
	t.drop = true
	out := e.submitter.Submit(ctx, t.ev.ChatID, t.draft.Clone())
	e.log.InfoContext(ctx, "report submitted", "user_id", t.ev.UserID.String(), "outcome", out.Result.String(), "report_id", out.Report.ID)
	_ = welcome(ctx, e, t)
	return out.Err
}
