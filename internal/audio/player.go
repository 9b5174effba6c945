package audio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/ebitengine/oto/v3"
)

// Player plays mono float32 PCM through the system audio device.
type Player struct {
	ctx        *oto.Context
	sampleRate int
}

// NewPlayer opens an audio context for the given sample rate.
// Opening the device can take a moment on some platforms; NewPlayer
// blocks until the context is ready.
func NewPlayer(sampleRate int) (*Player, error) {
	if sampleRate < 1 {
		return nil, fmt.Errorf("invalid sample rate: %d", sampleRate)
	}

	op := &oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: 1,
		Format:       oto.FormatSignedInt16LE,
		BufferSize:   100 * time.Millisecond,
	}

	ctx, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, fmt.Errorf("opening audio device: %w", err)
	}
	<-ready

	return &Player{ctx: ctx, sampleRate: sampleRate}, nil
}

// Play converts samples to 16-bit PCM and blocks until playback finishes.
func (p *Player) Play(samples []float32) error {
	if len(samples) == 0 {
		return errors.New("no samples to play")
	}

	pcm := &bytes.Buffer{}
	pcm.Grow(len(samples) * 2)
	for _, s := range samples {
		clamped := math.Max(-1.0, math.Min(1.0, float64(s)))
		_ = binary.Write(pcm, binary.LittleEndian, int16(clamped*32767))
	}

	player := p.ctx.NewPlayer(bytes.NewReader(pcm.Bytes()))
	player.Play()

	for player.IsPlaying() {
		time.Sleep(10 * time.Millisecond)
	}

	return player.Close()
}
