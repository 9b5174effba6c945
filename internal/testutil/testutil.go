// Package testutil provides shared skip helpers for integration tests.
//
// Each helper calls t.Skip with a clear human-readable reason when the named
// prerequisite is absent, so integration tests remain runnable in partial
// environments without failing noisily.
//
// Typical usage:
//
//	func TestMyIntegration(t *testing.T) {
//	    testutil.RequireESpeakNG(t)
//	    testutil.RequireONNXRuntime(t)
//	    ...
//	}
package testutil

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/example/go-kokoro-tts/internal/voice"
)

// RequireESpeakNG skips the test if the espeak-ng binary is not found in
// PATH or the path given by the KOKOROTTS_PHONEMIZER_EXECUTABLE_PATH
// environment variable.
func RequireESpeakNG(tb testing.TB) {
	tb.Helper()

	exe := os.Getenv("KOKOROTTS_PHONEMIZER_EXECUTABLE_PATH")
	if exe == "" {
		exe = "espeak-ng"
	}

	if _, err := exec.LookPath(exe); err != nil {
		tb.Skipf("espeak-ng binary not available (%q not in PATH); set KOKOROTTS_PHONEMIZER_EXECUTABLE_PATH to override", exe)
	}
}

// RequireONNXRuntime skips the test if no ONNX Runtime shared library can be
// located. It checks (in order): the ORT_LIBRARY_PATH env var, then the
// KOKOROTTS_ORT_LIB env var, then common system library paths.
func RequireONNXRuntime(tb testing.TB) {
	tb.Helper()

	for _, env := range []string{"ORT_LIBRARY_PATH", "KOKOROTTS_ORT_LIB"} {
		if p := os.Getenv(env); p != "" {
			if _, err := os.Stat(p); err == nil {
				return // found
			}

			tb.Skipf("ONNX Runtime library not found at %s=%q", env, p)
		}
	}
	// Fall back to common system locations.
	candidates := []string{
		"/usr/lib/libonnxruntime.so",
		"/usr/local/lib/libonnxruntime.so",
		"/usr/lib/x86_64-linux-gnu/libonnxruntime.so",
	}
	for _, p := range candidates {
		if _, err := os.Stat(p); err == nil {
			return // found
		}
	}

	tb.Skip("ONNX Runtime shared library not found; set ORT_LIBRARY_PATH or KOKOROTTS_ORT_LIB")
}

// RequireVoiceFile skips the test if the voice identified by id cannot be
// resolved from voices/voices.json relative to the current working directory.
func RequireVoiceFile(tb testing.TB, id string) {
	tb.Helper()

	manifestPath := filepath.Join("voices", "voices.json")

	vm, err := voice.NewManager(manifestPath)
	if err != nil {
		tb.Skipf("voice manifest not available at %q: %v", manifestPath, err)
	}

	if _, err := vm.ResolvePath(id); err != nil {
		tb.Skipf("voice %q not available: %v", id, err)
	}
}
