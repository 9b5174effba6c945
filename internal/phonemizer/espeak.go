// Package phonemizer converts normalized text to IPA phoneme strings by
// delegating to an external phonemization tool, then restores the structure
// the tool discards.
package phonemizer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"unicode/utf8"
)

// ErrNotFound is returned when the phonemizer executable cannot be located.
var ErrNotFound = errors.New("phonemizer executable not found")

// DataPathEnv names the environment variable handed to the subprocess when a
// data directory is configured and the dictionaries are not co-located with
// the executable.
const DataPathEnv = "ESPEAK_DATA_PATH"

// DefaultExecutable is the phonemizer binary looked up on PATH when no
// explicit path is configured.
const DefaultExecutable = "espeak-ng"

// Phonemizer produces one raw phoneme line per punctuation-delimited segment
// of the normalized input text.
type Phonemizer interface {
	Phonemize(ctx context.Context, text, lang string) ([]string, error)
}

// ESpeak invokes espeak-ng as a subprocess, one process per call. It holds
// no process handle between calls, so a single value is safe to share across
// goroutines; concurrent calls simply spawn independent subprocesses.
type ESpeak struct {
	// ExecutablePath overrides the default espeak-ng binary name/path.
	ExecutablePath string

	// DataDir is exported as ESPEAK_DATA_PATH for the subprocess when set.
	DataDir string
}

// Phonemize runs `espeak-ng --ipa=3 -q -v <lang> "<text>"` and returns its
// stdout split into lines. The tool emits one line per segment, splitting on
// every punctuation character and discarding the punctuation itself.
//
// There is no retry: the subprocess is stateless and deterministic for
// identical input, so a failure would simply repeat.
func (e *ESpeak) Phonemize(ctx context.Context, text, lang string) ([]string, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	exe := e.ExecutablePath
	if exe == "" {
		exe = DefaultExecutable
	}

	cmd := exec.CommandContext(ctx, exe, "--ipa=3", "-q", "-v", lang, text)
	if e.DataDir != "" {
		cmd.Env = append(os.Environ(), DataPathEnv+"="+e.DataDir)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return nil, fmt.Errorf("%w: %q", ErrNotFound, exe)
		}
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return nil, fmt.Errorf("phonemize %q: %w: %s", lang, err, msg)
		}
		return nil, fmt.Errorf("phonemize %q: %w", lang, err)
	}

	out := stdout.Bytes()
	if !utf8.Valid(out) {
		return nil, fmt.Errorf("phonemize %q: output is not valid UTF-8", lang)
	}

	return splitLines(string(out)), nil
}

// splitLines normalizes line endings, trims trailing whitespace per line,
// and drops trailing empty lines.
func splitLines(s string) []string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")

	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	for len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}

	return lines
}
