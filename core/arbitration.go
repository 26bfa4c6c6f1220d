package orchestration

import (
	"strings"
	"time"
)

const DefaultSilenceDelay = 1500 * time.Millisecond

type Verdict int

const (
	// VerdictWait means the speaker may still be talking.
	VerdictWait Verdict = iota
	// VerdictIgnore means there is nothing to act on.
	VerdictIgnore
	// VerdictExit means an exit phrase was heard.
	VerdictExit
	// VerdictDiscard means the utterance arrived while the assistant was busy.
	VerdictDiscard
	// VerdictDispatch means the utterance should be sent.
	VerdictDispatch
)

func (v Verdict) String() string {
	switch v {
	case VerdictWait:
		return "wait"
	case VerdictIgnore:
		return "ignore"
	case VerdictExit:
		return "exit"
	case VerdictDiscard:
		return "discard"
	case VerdictDispatch:
		return "dispatch"
	}
	return "unknown"
}

type Decision struct {
	Verdict Verdict
	// Text is the trimmed utterance the verdict applies to.
	Text string
}

// Arbiter decides what a finished utterance means.
type Arbiter struct {
	SilenceDelay time.Duration
	ExitPhrases  Phrases
}

func NewArbiter() Arbiter {
	return Arbiter{SilenceDelay: DefaultSilenceDelay, ExitPhrases: DefaultExitPhrases}
}

// Decide is a pure function of the transcript, the silence observed since it
// last changed and whether the assistant is busy. Exit phrases win over
// everything else.
func (a Arbiter) Decide(transcript string, silence time.Duration, busy bool) Decision {
	text := strings.TrimSpace(transcript)
	switch {
	case silence < a.SilenceDelay:
		return Decision{Verdict: VerdictWait, Text: text}
	case text == "":
		return Decision{Verdict: VerdictIgnore}
	case a.ExitPhrases.Match(text):
		return Decision{Verdict: VerdictExit, Text: text}
	case busy:
		return Decision{Verdict: VerdictDiscard, Text: text}
	default:
		return Decision{Verdict: VerdictDispatch, Text: text}
	}
}
