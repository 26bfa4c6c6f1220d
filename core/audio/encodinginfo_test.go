package audio

import (
	"testing"
	"time"
)

func TestBytesFor(t *testing.T) {
	encoding := GetDefaultEncodingInfo()
	if got := encoding.BytesFor(50 * time.Millisecond); got != 1600 {
		t.Fatalf("expected 1600 bytes for 50ms of 16kHz linear16, got %d", got)
	}

	mulaw := EncodingInfo{SampleRate: 8000, Format: EncodingMulaw}
	if got := mulaw.BytesFor(time.Second); got != 8000 {
		t.Fatalf("expected 8000 bytes for 1s of 8kHz mulaw, got %d", got)
	}
	if mulaw.SilenceValue() != 0xFF {
		t.Fatalf("unexpected mulaw silence value")
	}
}

func TestIsZero(t *testing.T) {
	if !(EncodingInfo{}).IsZero() {
		t.Fatalf("expected empty encoding to be zero")
	}
	if GetDefaultEncodingInfo().IsZero() {
		t.Fatalf("expected default encoding to be set")
	}
}
