package models

// Speaker identifies who produced a turn in the conversation history.
type Speaker string

const (
	// SpeakerUser marks text typed by the user.
	SpeakerUser Speaker = "user"
	// SpeakerAssistant marks text returned by the generative backend.
	SpeakerAssistant Speaker = "assistant"
)

// Turn is a single entry in the conversation history.
type Turn struct {
	Speaker Speaker `json:"speaker"`
	Text    string  `json:"text"`
}

// IntentFlags holds the independent intent classifications of a message.
type IntentFlags struct {
	Reminder    bool `json:"reminder"`
	Appointment bool `json:"appointment"`
	Content     bool `json:"content"`
}

// Any reports whether at least one intent is set.
func (f IntentFlags) Any() bool {
	return f.Reminder || f.Appointment || f.Content
}

// CrisisReason explains why the crisis gate fired.
type CrisisReason string

const (
	CrisisReasonNone            CrisisReason = "none"
	CrisisReasonKeyword         CrisisReason = "keyword"
	CrisisReasonMLScore         CrisisReason = "ml_score"
	CrisisReasonProfileSeverity CrisisReason = "profile_severity"
)

// CrisisDecision is the transient result of a crisis gate evaluation.
type CrisisDecision struct {
	Triggered bool         `json:"triggered"`
	Reason    CrisisReason `json:"reason"`
	// Score is set only when the classifier produced a usable score.
	Score *float64 `json:"score,omitempty"`
}

// FailureKind distinguishes why an optional dependency produced no usable result.
type FailureKind string

const (
	// FailureUnavailable means the dependency is not configured or cannot be reached.
	FailureUnavailable FailureKind = "unavailable"
	// FailureTimeout means the call exceeded its deadline.
	FailureTimeout FailureKind = "timeout"
	// FailureInvalidOutput means the call returned something unusable.
	FailureInvalidOutput FailureKind = "invalid_output"
	// FailureUpstream means the dependency returned an error.
	FailureUpstream FailureKind = "upstream"
)
