package orchestration

import (
	"testing"
	"time"
)

func TestArbiterDecide(t *testing.T) {
	arbiter := NewArbiter()
	settled := arbiter.SilenceDelay

	testCases := []struct {
		name       string
		transcript string
		silence    time.Duration
		busy       bool
		verdict    Verdict
		text       string
	}{
		{name: "still speaking", transcript: "功率", silence: time.Second, verdict: VerdictWait, text: "功率"},
		{name: "empty transcript", transcript: "  ", silence: settled, verdict: VerdictIgnore},
		{name: "exit while idle", transcript: "再见小鑫", silence: settled, verdict: VerdictExit, text: "再见小鑫"},
		{name: "exit while busy", transcript: "再见小鑫。", silence: settled, busy: true, verdict: VerdictExit, text: "再见小鑫。"},
		{name: "question while busy", transcript: "今天发电量", silence: settled, busy: true, verdict: VerdictDiscard, text: "今天发电量"},
		{name: "question while idle", transcript: " 当前功率是多少 ", silence: 2 * settled, verdict: VerdictDispatch, text: "当前功率是多少"},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			decision := arbiter.Decide(testCase.transcript, testCase.silence, testCase.busy)
			if decision.Verdict != testCase.verdict {
				t.Fatalf("expected verdict %s, got %s", testCase.verdict, decision.Verdict)
			}
			if decision.Text != testCase.text {
				t.Fatalf("expected text %q, got %q", testCase.text, decision.Text)
			}
		})
	}
}

func TestArbiterDecideIsDeterministic(t *testing.T) {
	arbiter := NewArbiter()
	first := arbiter.Decide("关闭语音", arbiter.SilenceDelay, true)
	for range 10 {
		if got := arbiter.Decide("关闭语音", arbiter.SilenceDelay, true); got != first {
			t.Fatalf("expected the same decision for the same inputs, got %+v and %+v", first, got)
		}
	}
}
