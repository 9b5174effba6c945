package onnx

import (
	"context"
	"fmt"
)

// Audio contract of the acoustic model.
const (
	// SampleRate of the produced waveform, mono float32.
	SampleRate = 24000

	// StyleDim is the width of the voice-style conditioning vector.
	StyleDim = 256

	// maxTokens is the longest token sequence the graph accepts; longer
	// sequences are truncated rather than rejected.
	maxTokens = 510
)

// Graph tensor names.
const (
	inputTokens   = "input_ids"
	inputStyle    = "style"
	inputSpeed    = "speed"
	outputSamples = "waveform"
)

// ModelConfig locates the acoustic model and the ORT shared library.
type ModelConfig struct {
	ModelPath string
	Runtime   RunnerConfig
}

// Model is the inference backend: token ids plus a voice-style vector and a
// speed scalar in, audio samples out. Each Infer call is stateless apart
// from the loaded weights. It satisfies the engine's Backend interface.
type Model struct {
	runner *Runner
}

// LoadModel opens an ORT session for the acoustic model.
func LoadModel(cfg ModelConfig) (*Model, error) {
	if cfg.ModelPath == "" {
		return nil, fmt.Errorf("model path is required")
	}

	runner, err := NewRunner("acoustic", cfg.ModelPath, cfg.Runtime)
	if err != nil {
		return nil, err
	}

	return &Model{runner: runner}, nil
}

// Infer runs one synthesis call. The token sequence is framed with the pad
// id on both ends, as the graph expects, and truncated to the model's
// maximum length first.
func (m *Model) Infer(ctx context.Context, tokens []int64, style []float32, speed float32) ([]float32, error) {
	if len(style) != StyleDim {
		return nil, fmt.Errorf("style vector has %d elements, want %d", len(style), StyleDim)
	}
	if speed <= 0 {
		return nil, fmt.Errorf("speed must be positive, got %v", speed)
	}
	if len(tokens) > maxTokens {
		tokens = tokens[:maxTokens]
	}

	framed := make([]int64, 0, len(tokens)+2)
	framed = append(framed, 0)
	framed = append(framed, tokens...)
	framed = append(framed, 0)

	ids, err := NewTensor(framed, []int64{1, int64(len(framed))})
	if err != nil {
		return nil, fmt.Errorf("token tensor: %w", err)
	}
	styleT, err := NewTensor(style, []int64{1, StyleDim})
	if err != nil {
		return nil, fmt.Errorf("style tensor: %w", err)
	}
	speedT, err := NewTensor([]float32{speed}, []int64{1})
	if err != nil {
		return nil, fmt.Errorf("speed tensor: %w", err)
	}

	outputs, err := m.runner.Run(ctx, map[string]*Tensor{
		inputTokens: ids,
		inputStyle:  styleT,
		inputSpeed:  speedT,
	})
	if err != nil {
		return nil, err
	}

	wave, ok := outputs[outputSamples]
	if !ok {
		// Exported graphs differ in output naming; accept a single unnamed
		// match rather than failing on the label.
		if len(outputs) != 1 {
			return nil, fmt.Errorf("output %q missing (graph has %d outputs)", outputSamples, len(outputs))
		}
		for _, t := range outputs {
			wave = t
		}
	}

	samples, err := wave.Float32()
	if err != nil {
		return nil, fmt.Errorf("waveform output: %w", err)
	}

	return samples, nil
}

// Close releases the ORT session.
func (m *Model) Close() error {
	m.runner.Close()
	return nil
}
