package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/example/go-kokoro-tts/internal/audio"
	"github.com/example/go-kokoro-tts/internal/tts"
	"github.com/spf13/cobra"
)

func newSynthCmd() *cobra.Command {
	var text string
	var out string
	var voiceID string
	var lang string
	var speed float64
	var play bool
	var normalize bool
	var dcBlock bool
	var fadeInMS float64
	var fadeOutMS float64

	cmd := &cobra.Command{
		Use:   "synth",
		Short: "Synthesize text to WAV",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			inputText, err := readSynthText(text, os.Stdin)
			if err != nil {
				return err
			}

			svc, err := tts.NewService(cfg, nil)
			if err != nil {
				return err
			}
			defer svc.Close()

			samples, err := svc.Synthesize(cmd.Context(), tts.Request{
				Text:  inputText,
				Voice: voiceID,
				Lang:  lang,
				Speed: speed,
			})
			if err != nil {
				return fmt.Errorf("synth failed: %w", err)
			}

			samples = audio.ApplyHooks(samples, dspHooks(synthDSPOptions{
				Normalize: normalize,
				DCBlock:   dcBlock,
				FadeInMS:  fadeInMS,
				FadeOutMS: fadeOutMS,
			})...)

			if play {
				return playSamples(samples)
			}

			wavData, err := audio.EncodeWAV(samples)
			if err != nil {
				return fmt.Errorf("encode WAV: %w", err)
			}
			return writeSynthOutput(out, wavData, os.Stdout)
		},
	}

	cmd.Flags().StringVar(&text, "text", "", "Text to synthesize (if empty, read from stdin)")
	cmd.Flags().StringVar(&out, "out", "out.wav", "Output WAV path ('-' for stdout)")
	cmd.Flags().StringVar(&voiceID, "voice", "", "Voice ID from the manifest (overrides config)")
	cmd.Flags().StringVar(&lang, "lang", "", "Phonemization language (defaults to the voice's language)")
	cmd.Flags().Float64Var(&speed, "speed", 0, "Speaking speed multiplier (overrides config)")
	cmd.Flags().BoolVar(&play, "play", false, "Play through the system audio device instead of writing a file")
	cmd.Flags().BoolVar(&normalize, "normalize", false, "Peak-normalize output audio")
	cmd.Flags().BoolVar(&dcBlock, "dc-block", false, "Apply DC-block high-pass filter")
	cmd.Flags().Float64Var(&fadeInMS, "fade-in-ms", 0, "Apply linear fade-in duration in milliseconds")
	cmd.Flags().Float64Var(&fadeOutMS, "fade-out-ms", 0, "Apply linear fade-out duration in milliseconds")

	return cmd
}

type synthDSPOptions struct {
	Normalize bool
	DCBlock   bool
	FadeInMS  float64
	FadeOutMS float64
}

// dspHooks translates the flag set into the ordered hook chain applied to
// the synthesized samples.
func dspHooks(opts synthDSPOptions) []audio.Hook {
	var hooks []audio.Hook
	if opts.Normalize {
		hooks = append(hooks, audio.PeakNormalize)
	}
	if opts.DCBlock {
		hooks = append(hooks, func(s []float32) []float32 {
			return audio.DCBlock(s, audio.ExpectedSampleRate)
		})
	}
	if opts.FadeInMS > 0 {
		ms := opts.FadeInMS
		hooks = append(hooks, func(s []float32) []float32 {
			return audio.FadeIn(s, audio.ExpectedSampleRate, ms)
		})
	}
	if opts.FadeOutMS > 0 {
		ms := opts.FadeOutMS
		hooks = append(hooks, func(s []float32) []float32 {
			return audio.FadeOut(s, audio.ExpectedSampleRate, ms)
		})
	}
	return hooks
}

func playSamples(samples []float32) error {
	player, err := audio.NewPlayer(audio.ExpectedSampleRate)
	if err != nil {
		return fmt.Errorf("open audio device: %w", err)
	}
	return player.Play(samples)
}

func writeSynthOutput(outPath string, wavData []byte, stdout io.Writer) error {
	if outPath == "-" {
		if stdout == nil {
			return fmt.Errorf("stdout writer is nil")
		}
		_, err := stdout.Write(wavData)
		return err
	}
	return os.WriteFile(outPath, wavData, 0o644)
}

func readSynthText(text string, stdin io.Reader) (string, error) {
	if strings.TrimSpace(text) != "" {
		return text, nil
	}

	b, err := io.ReadAll(stdin)
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	input := strings.TrimSpace(string(b))
	if input == "" {
		return "", fmt.Errorf("either provide --text or pipe text on stdin")
	}
	return input, nil
}
