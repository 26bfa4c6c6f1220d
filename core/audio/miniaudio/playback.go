package miniaudio

import (
	"fmt"
	"sync"

	"github.com/gen2brain/malgo"
)

type playbackClient struct {
	device *malgo.Device
	buffer playbackBuffer

	mu sync.Mutex
}

func (c *playbackClient) Init(audioContext *malgo.AllocatedContext, sampleRate uint32) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	channels := 1
	format := malgo.FormatS16
	bytesPerFrame := malgo.SampleSizeInBytes(format) * channels

	config := malgo.DefaultDeviceConfig(malgo.Playback)
	config.SampleRate = sampleRate
	config.Playback.Format = format
	config.Playback.Channels = uint32(channels)
	config.Alsa.NoMMap = 1
	config.PeriodSizeInFrames = sampleRate / 10 // ~100ms of audio
	config.Periods = 4

	device, err := malgo.InitDevice(audioContext.Context, config, malgo.DeviceCallbacks{
		Data: func(pOutput, _ []byte, frameCount uint32) {
			passed := c.buffer.read(pOutput, int(frameCount)*bytesPerFrame)
			if len(passed) > 0 {
				go runMarks(passed)
			}
		},
	})
	if err != nil {
		return fmt.Errorf("failed to initialize playback device: %w", err)
	}
	c.device = device

	return nil
}

func (c *playbackClient) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.device == nil {
		return errDeviceNotInitialized
	}

	if err := c.device.Start(); err != nil {
		return fmt.Errorf("failed to start playback device: %w", err)
	}
	return nil
}

// SendAudio queues audio behind whatever is still playing.
func (c *playbackClient) SendAudio(audio []byte) error {
	c.mu.Lock()
	device := c.device
	c.mu.Unlock()
	if device == nil {
		return errDeviceNotInitialized
	} else if !device.IsStarted() {
		return fmt.Errorf("device not started")
	}

	c.buffer.write(audio)
	return nil
}

// ClearBuffer drops queued audio. Pending marks are dropped without being
// called.
func (c *playbackClient) ClearBuffer() {
	c.buffer.clear()
}

// Mark calls callback once everything queued before it has been played.
func (c *playbackClient) Mark(name string, callback func(string)) error {
	c.buffer.mark(name, callback)
	return nil
}

func (c *playbackClient) Uninit() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.device == nil {
		return nil
	}
	c.device.Uninit()
	c.device = nil
	c.buffer.clear()
	return nil
}

type playbackMark struct {
	name     string
	position int
	callback func(string)
}

func runMarks(marks []playbackMark) {
	for _, mark := range marks {
		mark.callback(mark.name)
	}
}

// playbackBuffer holds audio waiting for the device along with the marks
// placed between chunks of it.
type playbackBuffer struct {
	mu    sync.Mutex
	audio []byte
	marks []playbackMark
}

func (b *playbackBuffer) write(audio []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.audio = append(b.audio, audio...)
}

func (b *playbackBuffer) clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.audio = nil
	b.marks = nil
}

func (b *playbackBuffer) mark(name string, callback func(string)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.marks = append(b.marks, playbackMark{name: name, position: len(b.audio), callback: callback})
}

// read fills out with up to need bytes, padding with silence, and returns the
// marks the played audio has passed.
func (b *playbackBuffer) read(out []byte, need int) []playbackMark {
	b.mu.Lock()
	defer b.mu.Unlock()

	n := copy(out[:min(need, len(out))], b.audio)
	clear(out[n:min(need, len(out))])
	b.audio = b.audio[n:]
	if len(b.audio) == 0 {
		b.audio = nil
	}

	passed := 0
	for passed < len(b.marks) && b.marks[passed].position <= n {
		passed++
	}
	toCall := b.marks[:passed:passed]
	b.marks = b.marks[passed:]
	for i := range b.marks {
		b.marks[i].position -= n
	}
	return toCall
}
