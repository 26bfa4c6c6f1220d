package miniaudio

import "testing"

func TestPlaybackBufferPlaysQueuedAudioInOrder(t *testing.T) {
	buffer := playbackBuffer{}
	buffer.write([]byte{1, 2, 3})
	buffer.write([]byte{4, 5})

	out := make([]byte, 4)
	buffer.read(out, 4)
	if out[0] != 1 || out[3] != 4 {
		t.Fatalf("expected first four bytes, got %v", out)
	}

	out = []byte{9, 9, 9, 9}
	buffer.read(out, 4)
	if out[0] != 5 || out[1] != 0 || out[3] != 0 {
		t.Fatalf("expected remaining byte padded with silence, got %v", out)
	}
}

func TestPlaybackBufferReleasesMarksOncePlayed(t *testing.T) {
	buffer := playbackBuffer{}
	buffer.write(make([]byte, 6))
	buffer.mark("first", func(string) {})
	buffer.write(make([]byte, 6))
	buffer.mark("second", func(string) {})

	out := make([]byte, 4)
	if passed := buffer.read(out, 4); len(passed) != 0 {
		t.Fatalf("expected no marks before their audio played, got %d", len(passed))
	}
	passed := buffer.read(out, 4)
	if len(passed) != 1 || passed[0].name != "first" {
		t.Fatalf("expected first mark, got %+v", passed)
	}
	passed = buffer.read(out, 4)
	if len(passed) != 1 || passed[0].name != "second" {
		t.Fatalf("expected second mark, got %+v", passed)
	}
}

func TestPlaybackBufferMarkOnEmptyBufferFiresOnNextRead(t *testing.T) {
	buffer := playbackBuffer{}
	called := ""
	buffer.mark("done", func(name string) { called = name })

	passed := buffer.read(make([]byte, 4), 4)
	runMarks(passed)
	if called != "done" {
		t.Fatalf("expected mark callback, got %q", called)
	}
}

func TestPlaybackBufferClearDropsAudioAndMarks(t *testing.T) {
	buffer := playbackBuffer{}
	buffer.write([]byte{1, 2, 3})
	buffer.mark("dropped", func(string) { t.Fatalf("expected cleared mark to never run") })
	buffer.clear()

	out := []byte{7, 7}
	runMarks(buffer.read(out, 2))
	if out[0] != 0 || out[1] != 0 {
		t.Fatalf("expected silence after clear, got %v", out)
	}
}
