package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/example/go-kokoro-tts/internal/doctor"
	"github.com/example/go-kokoro-tts/internal/voice"
	"github.com/spf13/cobra"
)

func newDoctorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Run local runtime and model checks",
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			exe := cfg.Phonemizer.ExecutablePath
			if exe == "" {
				exe = "espeak-ng"
			}

			dcfg := doctor.Config{
				ESpeakVersion: func() (string, error) {
					return probeESpeakVersion(exe)
				},
				ORTLibraryPath: cfg.Runtime.ORTLibraryPath,
				ModelPath:      cfg.Paths.ModelPath,
				VoiceManifest:  cfg.Paths.VoiceManifest,
				VoiceFiles:     collectVoiceFiles(cfg.Paths.VoiceManifest),
			}

			result := doctor.Run(dcfg, os.Stdout)

			if result.Failed() {
				for _, f := range result.Failures() {
					fmt.Fprintf(os.Stderr, "FAIL: %s\n", f)
				}

				return errors.New("doctor checks failed")
			}

			_, _ = fmt.Fprintln(os.Stdout, "doctor checks passed")

			return nil
		},
	}

	return cmd
}

// probeESpeakVersion runs `espeak-ng --version` and returns its output.
func probeESpeakVersion(exe string) (string, error) {
	out, err := exec.CommandContext(context.Background(), exe, "--version").Output()
	if err != nil {
		return "", fmt.Errorf("%s --version failed: %w", exe, err)
	}

	return strings.TrimSpace(string(out)), nil
}

// collectVoiceFiles returns resolved absolute voice file paths from the
// manifest. Paths are resolved relative to the manifest directory, not to the
// working directory, so doctor checks are correct regardless of CWD.
func collectVoiceFiles(manifestPath string) []string {
	vm, err := voice.NewManager(manifestPath)
	if err != nil {
		return nil
	}

	voices := vm.List()

	paths := make([]string, 0, len(voices))
	for _, v := range voices {
		resolved, err := vm.ResolvePath(v.ID)
		if err != nil {
			// Voice file missing or unresolvable; include the raw path so the
			// doctor check can report the failure with a useful message.
			paths = append(paths, v.Path)
			continue
		}
		if abs, err := filepath.Abs(resolved); err == nil {
			resolved = abs
		}

		paths = append(paths, resolved)
	}

	return paths
}
