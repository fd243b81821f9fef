// Package flow runs a single wellness chat session. The Controller owns the session state
// and decides, turn by turn, whether a message is answered by the crisis gate, an action or the model.
package flow

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/BTreeMap/WellnessGate/internal/actions"
	"github.com/BTreeMap/WellnessGate/internal/crisis"
	"github.com/BTreeMap/WellnessGate/internal/genai"
	"github.com/BTreeMap/WellnessGate/internal/intent"
	"github.com/BTreeMap/WellnessGate/internal/models"
	"github.com/BTreeMap/WellnessGate/internal/recommend"
)

// Fixed user-facing messages.
const (
	SeverityNotice  = "Your recent check-in scores suggest you may be going through a particularly hard time."
	FarewellMessage = "Goodbye! Take care of yourself."
	FallbackReply   = "Sorry, I could not process that. Could you tell me a bit more?"
	NoneListed      = "none"
)

// CrisisMessage is shown whenever the crisis gate fires and as part of the severity banner.
const CrisisMessage = "It sounds like you might be in a lot of pain right now, and you don't have to face it alone. " +
	"If you are in immediate danger, please call your local emergency number. " +
	"In the US you can call or text 988 to reach the Suicide & Crisis Lifeline; elsewhere, please contact a local crisis line or someone you trust. " +
	"Type 'continue' whenever you'd like to keep talking."

// Commands recognised before any other processing.
const (
	CommandQuit          = "quit"
	CommandExit          = "exit"
	CommandContinue      = "continue"
	CommandShowReminders = "show reminders"
	CommandShowTasks     = "show tasks"
)

// State is the controller's position in the session lifecycle.
type State string

const (
	StateBannerPending State = "banner_pending"
	StateChatting      State = "chatting"
	StateTerminated    State = "terminated"
)

// OutcomeKind tells the caller which branch handled a turn.
type OutcomeKind string

const (
	OutcomeBanner   OutcomeKind = "banner"
	OutcomeFarewell OutcomeKind = "farewell"
	OutcomeListing  OutcomeKind = "listing"
	OutcomeCrisis   OutcomeKind = "crisis"
	OutcomeActions  OutcomeKind = "actions"
	OutcomeReply    OutcomeKind = "reply"
	OutcomeFallback OutcomeKind = "fallback"
	OutcomeIgnored  OutcomeKind = "ignored"
)

// Outcome is what one call to Banner or Handle produced.
type Outcome struct {
	Kind     OutcomeKind
	Messages []string
	Decision models.CrisisDecision
}

// Controller orchestrates one chat session. It is not safe for concurrent use.
type Controller struct {
	session      *Session
	catalog      []models.Activity
	suggestions  []models.Activity
	gate         *crisis.Gate
	generator    genai.Generator
	systemPrompt string
	state        State
}

// ControllerOption configures a Controller.
type ControllerOption func(*controllerOpts)

type controllerOpts struct {
	generator    genai.Generator
	historyLimit int
}

// WithGenerator sets the reply generator. Without one every reply is the fallback.
func WithGenerator(g genai.Generator) ControllerOption {
	return func(o *controllerOpts) {
		o.generator = g
	}
}

// WithHistoryLimit sets the history window (-1 no limit, 0 no history, positive last N messages).
func WithHistoryLimit(n int) ControllerOption {
	return func(o *controllerOpts) {
		o.historyLimit = n
	}
}

// NewController starts a session for profile. Suggestions and the system instruction are
// computed once here.
func NewController(profile models.Profile, catalog []models.Activity, gate *crisis.Gate, opts ...ControllerOption) *Controller {
	cfg := controllerOpts{historyLimit: DefaultHistoryLimit}
	for _, opt := range opts {
		opt(&cfg)
	}
	if gate == nil {
		gate = crisis.NewGate()
	}

	suggestions := recommend.PickActivities(profile, catalog)
	c := &Controller{
		session:      NewSession(profile, cfg.historyLimit),
		catalog:      catalog,
		suggestions:  suggestions,
		gate:         gate,
		generator:    cfg.generator,
		systemPrompt: BuildSystemPrompt(profile, suggestions),
		state:        StateChatting,
	}
	if gate.ProfileSevere(profile) {
		c.state = StateBannerPending
	}

	slog.Info("Controller.NewController: session started", "sessionID", c.session.ID, "profileID", profile.ID, "state", c.state, "suggestions", len(suggestions), "historyLimit", c.session.HistoryLimit(), "hasGenerator", c.generator != nil)
	return c
}

// State returns the current lifecycle state.
func (c *Controller) State() State {
	return c.state
}

// Session returns the controller's session. Callers must treat it as read-only.
func (c *Controller) Session() *Session {
	return c.session
}

// Suggestions returns the activities chosen for this session.
func (c *Controller) Suggestions() []models.Activity {
	return append([]models.Activity(nil), c.suggestions...)
}

// SystemPrompt returns the system instruction sent with every generation request.
func (c *Controller) SystemPrompt() string {
	return c.systemPrompt
}

// Banner emits the severity notice and crisis resources if they are pending, moving the
// session to Chatting. It consumes no user input and does nothing in any other state.
func (c *Controller) Banner() Outcome {
	if c.state != StateBannerPending {
		return Outcome{Kind: OutcomeIgnored}
	}
	c.session.markBannerShown()
	c.state = StateChatting
	slog.Info("Controller.Banner: severity banner shown", "sessionID", c.session.ID, "profileID", c.session.Profile.ID)
	return Outcome{Kind: OutcomeBanner, Messages: []string{SeverityNotice, CrisisMessage}}
}

// Handle processes one line of user input.
func (c *Controller) Handle(ctx context.Context, input string) Outcome {
	if c.state == StateTerminated {
		return Outcome{Kind: OutcomeIgnored}
	}

	var prefix []string
	if c.state == StateBannerPending {
		prefix = c.Banner().Messages
	}

	out := c.handleChatting(ctx, input)
	if len(prefix) > 0 {
		out.Messages = append(prefix, out.Messages...)
	}
	return out
}

func (c *Controller) handleChatting(ctx context.Context, input string) Outcome {
	text := strings.TrimSpace(input)
	command := strings.ToLower(text)
	sid := c.session.ID

	switch command {
	case "":
		return Outcome{Kind: OutcomeIgnored}
	case CommandQuit, CommandExit:
		c.state = StateTerminated
		slog.Info("Controller.Handle: session terminated by user", "sessionID", sid)
		return Outcome{Kind: OutcomeFarewell, Messages: []string{FarewellMessage}}
	case CommandShowReminders, CommandShowTasks:
		return Outcome{Kind: OutcomeListing, Messages: c.listActions()}
	}

	decision := models.CrisisDecision{Reason: models.CrisisReasonNone}
	if command == CommandContinue {
		slog.Debug("Controller.Handle: crisis gate bypassed for this turn", "sessionID", sid)
	} else {
		decision = c.gate.Evaluate(ctx, c.session.Profile, text)
		if decision.Triggered {
			slog.Warn("Controller.Handle: crisis detected, withholding generation", "sessionID", sid, "reason", decision.Reason)
			return Outcome{Kind: OutcomeCrisis, Messages: []string{CrisisMessage}, Decision: decision}
		}
	}

	if flags := intent.Parse(text); flags.Any() {
		msgs := actions.Simulate(c.session, flags, text, c.catalog)
		slog.Debug("Controller.Handle: handled as action", "sessionID", sid, "flags", flags)
		return Outcome{Kind: OutcomeActions, Messages: msgs, Decision: decision}
	}

	return c.generate(ctx, text, decision)
}

func (c *Controller) generate(ctx context.Context, text string, decision models.CrisisDecision) Outcome {
	sid := c.session.ID
	if c.generator == nil {
		slog.Warn("Controller.generate: no generator configured, using fallback", "sessionID", sid)
		return Outcome{Kind: OutcomeFallback, Messages: []string{FallbackReply}, Decision: decision}
	}

	reply, err := c.generator.GenerateReply(ctx, c.systemPrompt, c.session.History(), text)
	reply = strings.TrimSpace(reply)
	if err != nil || reply == "" {
		slog.Error("Controller.generate: generation failed, using fallback", "sessionID", sid, "error", err)
		return Outcome{Kind: OutcomeFallback, Messages: []string{FallbackReply}, Decision: decision}
	}

	c.session.appendExchange(text, reply)
	slog.Debug("Controller.generate: reply generated", "sessionID", sid, "replyLength", len(reply), "historyLength", len(c.session.history))
	return Outcome{Kind: OutcomeReply, Messages: []string{reply}, Decision: decision}
}

func (c *Controller) listActions() []string {
	return []string{
		formatList("Reminders", c.session.Reminders()),
		formatList("Appointments", c.session.Appointments()),
	}
}

func formatList(title string, items []string) string {
	if len(items) == 0 {
		return fmt.Sprintf("%s: %s", title, NoneListed)
	}
	var b strings.Builder
	b.WriteString(title)
	b.WriteString(":")
	for i, item := range items {
		fmt.Fprintf(&b, "\n%d. %s", i+1, item)
	}
	return b.String()
}
