// Package tts wires the synthesis pipeline end to end: text normalization,
// phonemization, tokenization, voice-style lookup, and job scheduling onto
// the inference backend.
package tts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/example/go-kokoro-tts/internal/config"
	"github.com/example/go-kokoro-tts/internal/engine"
	"github.com/example/go-kokoro-tts/internal/onnx"
	"github.com/example/go-kokoro-tts/internal/phonemizer"
	"github.com/example/go-kokoro-tts/internal/text"
	"github.com/example/go-kokoro-tts/internal/tokenizer"
	"github.com/example/go-kokoro-tts/internal/vocab"
	"github.com/example/go-kokoro-tts/internal/voice"
)

// ErrEmptyInput is returned when the input text yields nothing speakable.
var ErrEmptyInput = errors.New("input produced no speakable content")

// SampleRate of all audio the service produces.
const SampleRate = onnx.SampleRate

// Request describes one synthesis call. Zero-value fields fall back to the
// service defaults from configuration.
type Request struct {
	Text  string
	Voice string
	Lang  string
	Speed float64
}

// Service owns the full text-to-audio pipeline and the scheduling engine
// behind it. Safe for concurrent use.
type Service struct {
	phon   phonemizer.Phonemizer
	post   *phonemizer.PostProcessor
	tok    *tokenizer.Tokenizer
	voices *voice.Manager
	engine *engine.Engine
	log    *slog.Logger

	defaultVoice string
	defaultLang  string
	defaultSpeed float64
}

// NewService loads the voice manifest and the acoustic model, then starts
// the scheduling engine. Callers must Close the service to release the
// inference session.
func NewService(cfg config.Config, log *slog.Logger) (*Service, error) {
	if log == nil {
		log = slog.Default()
	}

	voices, err := voice.NewManager(cfg.Paths.VoiceManifest)
	if err != nil {
		return nil, fmt.Errorf("load voice manifest: %w", err)
	}

	model, err := onnx.LoadModel(onnx.ModelConfig{
		ModelPath: cfg.Paths.ModelPath,
		Runtime: onnx.RunnerConfig{
			LibraryPath: cfg.Runtime.ORTLibraryPath,
			APIVersion:  uint32(cfg.Runtime.ORTAPIVersion),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("load acoustic model: %w", err)
	}

	v := vocab.Default()
	return &Service{
		phon: &phonemizer.ESpeak{
			ExecutablePath: cfg.Phonemizer.ExecutablePath,
			DataDir:        cfg.Phonemizer.DataDir,
		},
		post:         phonemizer.NewPostProcessor(v),
		tok:          tokenizer.New(v),
		voices:       voices,
		engine:       engine.New(model, log),
		log:          log,
		defaultVoice: cfg.TTS.Voice,
		defaultLang:  cfg.Phonemizer.Language,
		defaultSpeed: cfg.TTS.Speed,
	}, nil
}

// Close shuts down the scheduling engine, canceling any queued work, and
// releases the inference session.
func (s *Service) Close() {
	s.engine.Shutdown()
}

// Voices lists the voices available to Synthesize.
func (s *Service) Voices() []voice.Voice {
	return s.voices.List()
}

// Phonemize converts input text to the vocabulary-filtered phoneme string
// that drives tokenization. Exposed for inspection tooling.
func (s *Service) Phonemize(ctx context.Context, input, lang string) (string, error) {
	if lang == "" {
		lang = s.defaultLang
	}

	normalized := text.Normalize(input)
	if normalized == "" {
		return "", ErrEmptyInput
	}

	lines, err := s.phon.Phonemize(ctx, normalized, lang)
	if err != nil {
		return "", fmt.Errorf("phonemize: %w", err)
	}

	return s.post.Process(normalized, lines, lang), nil
}

// Tokenize maps a phoneme string to model token ids.
func (s *Service) Tokenize(phonemes string) ([]int64, error) {
	return s.tok.Encode(phonemes)
}

// Synthesize runs the full pipeline and blocks until all audio is produced
// or ctx is canceled. The returned samples are mono float32 at SampleRate.
func (s *Service) Synthesize(ctx context.Context, req Request) ([]float32, error) {
	var (
		mu  sync.Mutex
		out []float32
	)
	job, err := s.SpeakAsync(ctx, req, func(samples []float32) {
		mu.Lock()
		out = append(out, samples...)
		mu.Unlock()
	})
	if err != nil {
		return nil, err
	}

	select {
	case <-job.Done():
	case <-ctx.Done():
		job.Cancel()
		return nil, ctx.Err()
	}

	if job.State() != engine.Completed {
		return nil, fmt.Errorf("synthesis job %s ended %s", job.ID(), job.State())
	}

	mu.Lock()
	defer mu.Unlock()
	return out, nil
}

// SpeakAsync prepares the pipeline for req and enqueues a job whose steps
// invoke onChunk, in order, with each chunk's samples. The returned job
// handle is used to cancel or to wait for completion.
func (s *Service) SpeakAsync(ctx context.Context, req Request, onChunk func(samples []float32)) (*engine.Job, error) {
	steps, err := s.buildSteps(ctx, req, onChunk)
	if err != nil {
		return nil, err
	}
	return s.engine.Enqueue(engine.NewJob(steps))
}

// buildSteps runs the text pipeline and pairs each phoneme chunk with its
// style vector and speed.
func (s *Service) buildSteps(ctx context.Context, req Request, onChunk func(samples []float32)) ([]engine.Step, error) {
	voiceID := req.Voice
	if voiceID == "" {
		voiceID = s.defaultVoice
	}
	lang := req.Lang
	if lang == "" {
		lang = s.voiceLang(voiceID)
	}
	speed := req.Speed
	if speed == 0 {
		speed = s.defaultSpeed
	}
	if speed <= 0 {
		speed = 1.0
	}

	style, err := s.voices.Load(voiceID)
	if err != nil {
		return nil, fmt.Errorf("load voice %q: %w", voiceID, err)
	}

	phonemes, err := s.Phonemize(ctx, req.Text, lang)
	if err != nil {
		return nil, err
	}

	var steps []engine.Step
	for _, chunk := range splitChunks(phonemes, engine.MaxTokens) {
		tokens, err := s.tok.Encode(chunk)
		if err != nil {
			return nil, fmt.Errorf("tokenize: %w", err)
		}
		if len(tokens) == 0 {
			continue
		}
		steps = append(steps, engine.Step{
			Tokens:     tokens,
			Style:      style.Vector(len(tokens)),
			Speed:      float32(speed),
			OnComplete: onChunk,
		})
	}
	if len(steps) == 0 {
		return nil, ErrEmptyInput
	}

	return steps, nil
}

// voiceLang returns the manifest language for a voice, or the configured
// default when the voice does not declare one.
func (s *Service) voiceLang(voiceID string) string {
	for _, v := range s.voices.List() {
		if v.ID == voiceID && v.Lang != "" {
			return v.Lang
		}
	}
	return s.defaultLang
}

// splitChunks breaks a phoneme string into pieces of at most max runes each,
// cutting just after the last punctuation mark that fits. A piece with no
// punctuation is cut hard at the limit.
func splitChunks(s string, max int) []string {
	runes := []rune(s)

	var chunks []string
	for len(runes) > max {
		cut := -1
		for i := max - 1; i >= 0; i-- {
			if strings.ContainsRune(text.Punctuation, runes[i]) {
				cut = i + 1
				break
			}
		}
		if cut <= 0 {
			cut = max
		}
		if chunk := strings.TrimSpace(string(runes[:cut])); chunk != "" {
			chunks = append(chunks, chunk)
		}
		runes = runes[cut:]
		for len(runes) > 0 && runes[0] == ' ' {
			runes = runes[1:]
		}
	}
	if rest := strings.TrimSpace(string(runes)); rest != "" {
		chunks = append(chunks, rest)
	}

	return chunks
}
