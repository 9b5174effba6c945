// Package doctor provides environment preflight checks for kokorotts.
package doctor

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// PassMark and FailMark are the prefix symbols printed for each check result.
const (
	PassMark = "✓"
	FailMark = "✗"
)

// VersionFunc returns a version string or an error if the component is unavailable.
type VersionFunc func() (string, error)

// Config holds injectable dependencies for each doctor check.
type Config struct {
	// ESpeakVersion returns the output of `espeak-ng --version`.
	ESpeakVersion VersionFunc
	// ORTLibraryPath is the ONNX Runtime shared library to verify on disk.
	// Empty means unconfigured, which is reported as a failure.
	ORTLibraryPath string
	// ModelPath is the acoustic model file to verify on disk.
	ModelPath string
	// VoiceManifest is the voice manifest file to verify on disk.
	VoiceManifest string
	// VoiceFiles is the list of voice style file paths to verify on disk.
	VoiceFiles []string
}

// Result collects the outcome of all checks.
type Result struct {
	failures []string
}

// Failed returns true if any check failed.
func (r *Result) Failed() bool { return len(r.failures) > 0 }

// Failures returns the list of failure messages.
func (r *Result) Failures() []string { return append([]string(nil), r.failures...) }

// AddFailure appends an external failure message to the result.
func (r *Result) AddFailure(msg string) { r.failures = append(r.failures, msg) }

func (r *Result) fail(msg string) { r.failures = append(r.failures, msg) }

// Run executes all configured checks and writes human-readable output to w.
// Each check line is prefixed with PassMark or FailMark.
func Run(cfg Config, w io.Writer) Result {
	var res Result

	// ---- espeak-ng binary ---------------------------------------------------
	ver, err := cfg.ESpeakVersion()
	if err != nil {
		res.fail(fmt.Sprintf("espeak-ng binary: %v", err))
		fmt.Fprintf(w, "%s espeak-ng binary: not found (%v)\n", FailMark, err)
	} else {
		fmt.Fprintf(w, "%s espeak-ng binary: %s\n", PassMark, firstLine(ver))
	}

	// ---- ONNX Runtime library -----------------------------------------------
	if cfg.ORTLibraryPath == "" {
		res.fail("onnxruntime library: path not configured (set --ort-lib or KOKOROTTS_ORT_LIB)")
		fmt.Fprintf(w, "%s onnxruntime library: not configured\n", FailMark)
	} else if _, err := os.Stat(cfg.ORTLibraryPath); err != nil {
		res.fail(fmt.Sprintf("onnxruntime library %q: %v", cfg.ORTLibraryPath, err))
		fmt.Fprintf(w, "%s onnxruntime library %s: not found\n", FailMark, cfg.ORTLibraryPath)
	} else {
		fmt.Fprintf(w, "%s onnxruntime library: %s\n", PassMark, cfg.ORTLibraryPath)
	}

	// ---- model file -----------------------------------------------------------
	if _, err := os.Stat(cfg.ModelPath); err != nil {
		res.fail(fmt.Sprintf("model file %q: %v", cfg.ModelPath, err))
		fmt.Fprintf(w, "%s model file %s: not found\n", FailMark, cfg.ModelPath)
	} else {
		fmt.Fprintf(w, "%s model file: %s\n", PassMark, cfg.ModelPath)
	}

	// ---- voice manifest and files ---------------------------------------------
	if _, err := os.Stat(cfg.VoiceManifest); err != nil {
		res.fail(fmt.Sprintf("voice manifest %q: %v", cfg.VoiceManifest, err))
		fmt.Fprintf(w, "%s voice manifest %s: not found\n", FailMark, cfg.VoiceManifest)
	} else {
		fmt.Fprintf(w, "%s voice manifest: %s\n", PassMark, cfg.VoiceManifest)
	}

	for _, path := range cfg.VoiceFiles {
		if _, err := os.Stat(path); err != nil {
			res.fail(fmt.Sprintf("voice file %q: %v", path, err))
			fmt.Fprintf(w, "%s voice file %s: not found\n", FailMark, path)
		} else {
			fmt.Fprintf(w, "%s voice file: %s\n", PassMark, path)
		}
	}

	return res
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}
