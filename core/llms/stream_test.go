package llms

import (
	"errors"
	"testing"
)

func TestCollectConcatenatesFragmentsInOrder(t *testing.T) {
	stream := func(yield func(string, error) bool) {
		for _, fragment := range []string{"能", "源", "站点"} {
			if !yield(fragment, nil) {
				return
			}
		}
	}

	got, err := Collect(stream)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "能源站点" {
		t.Fatalf("expected %q, got %q", "能源站点", got)
	}
}

func TestCollectReturnsPartialTextOnError(t *testing.T) {
	streamErr := errors.New("stream broke")
	stream := func(yield func(string, error) bool) {
		if !yield("partial", nil) {
			return
		}
		yield("", streamErr)
	}

	got, err := Collect(stream)
	if !errors.Is(err, streamErr) {
		t.Fatalf("expected stream error, got %v", err)
	}
	if got != "partial" {
		t.Fatalf("expected partial text, got %q", got)
	}
}

func TestRoleIsValid(t *testing.T) {
	if !RoleUser.IsValid() || !RoleAssistant.IsValid() || !RoleSystem.IsValid() {
		t.Fatalf("expected known roles to be valid")
	}
	if Role("tool").IsValid() {
		t.Fatalf("expected unknown role to be invalid")
	}
}
