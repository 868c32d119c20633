// Package conversation drives the per-user report conversation. Each inbound
// event is classified into an intent and dispatched through a transition
// table keyed by the user's current state.
package conversation

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"fraudwatch/internal/gateway/entity"
	"fraudwatch/internal/gateway/repository/session"
	"fraudwatch/internal/gateway/service/submission"
)

// Event is one inbound user message. Photo holds the transport handle of an
// attached image; Text may accompany it as a caption.
type Event struct {
	UserID entity.UserID
	ChatID string
	Text   string
	Photo  string
}

// Reply is an outbound message. Options are suggested answers the client can
// render as buttons; Photos are transport handles to show alongside.
type Reply struct {
	Text    string
	Options []string
	Photos  []string
}

type Replier interface {
	Reply(ctx context.Context, chatID string, r Reply) error
}

type Submitter interface {
	Submit(ctx context.Context, chatID string, d entity.Draft) submission.Outcome
}

// Assistant answers free-form messages outside of a report session.
type Assistant interface {
	Chat(ctx context.Context, message string) (string, error)
}

type Engine struct {
	sessions  session.Store
	locker    *session.Locker
	submitter Submitter
	assistant Assistant
	replier   Replier
	log       *slog.Logger
	now       func() time.Time
}

// New builds an engine. assistant may be nil, in which case idle chatter gets
// the welcome text.
func New(sessions session.Store, locker *session.Locker, submitter Submitter, assistant Assistant, replier Replier, logger *slog.Logger) *Engine {
	if locker == nil {
		locker = session.NewLocker()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		sessions:  sessions,
		locker:    locker,
		submitter: submitter,
		assistant: assistant,
		replier:   replier,
		log:       logger.With("component", "conversation"),
		now:       time.Now,
	}
}

// turn is the mutable context of one Handle call.
type turn struct {
	ev     Event
	intent Intent
	draft  entity.Draft
	// save persists draft after the action; drop deletes it.
	save bool
	drop bool
}

// Handle processes one event to completion. Events for the same user are
// serialized; other users proceed in parallel.
func (e *Engine) Handle(ctx context.Context, ev Event) error {
	ev.UserID = entity.NormalizeUserID(ev.UserID.String())
	if ev.UserID.IsZero() {
		return fmt.Errorf("user id is required")
	}
	if strings.TrimSpace(ev.ChatID) == "" {
		ev.ChatID = ev.UserID.String()
	}

	unlock := e.locker.Lock(ev.UserID)
	defer unlock()

	log := e.log.With("user_id", ev.UserID.String())
	d, ok, err := e.sessions.Get(ctx, ev.UserID)
	if err != nil {
		log.ErrorContext(ctx, "load session failed", "error", err)
		e.reply(ctx, ev.ChatID, Reply{Text: msgInternalError})
		return fmt.Errorf("load session: %w", err)
	}
	if !ok {
		d = entity.Draft{UserID: ev.UserID, ChatID: ev.ChatID, State: entity.StateIdle}
	}

	from := d.State
	t := &turn{ev: ev, intent: classify(from, ev), draft: d}
	act, found := transitions[transitionKey{state: from, intent: t.intent}]
	if !found {
		act = fallbacks[from]
	}
	if err := act(ctx, e, t); err != nil {
		log.WarnContext(ctx, "transition failed", "state", from.String(), "intent", t.intent.String(), "error", err)
	}

	switch {
	case t.drop:
		if err := e.sessions.Delete(ctx, ev.UserID); err != nil {
			log.ErrorContext(ctx, "delete session failed", "error", err)
			return fmt.Errorf("delete session: %w", err)
		}
	case t.save:
		t.draft.UpdatedAt = e.now()
		if err := e.sessions.Put(ctx, t.draft); err != nil {
			log.ErrorContext(ctx, "save session failed", "error", err)
			e.reply(ctx, ev.ChatID, Reply{Text: msgInternalError})
			return fmt.Errorf("save session: %w", err)
		}
	}
	if to := t.draft.State; to != from || t.drop {
		log.DebugContext(ctx, "state changed", "from", from.String(), "to", stateAfter(t).String(), "intent", t.intent.String())
	}
	return nil
}

func stateAfter(t *turn) entity.State {
	if t.drop {
		return entity.StateIdle
	}
	return t.draft.State
}

func (e *Engine) reply(ctx context.Context, chatID string, r Reply) {
	if e.replier == nil {
		return
	}
	if err := e.replier.Reply(ctx, chatID, r); err != nil {
		e.log.DebugContext(ctx, "reply not delivered", "chat_id", chatID, "error", err)
	}
}
