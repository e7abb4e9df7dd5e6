package stt

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/adrg/xdg"
)

const (
	// DefaultModelSize is used when neither config nor WHISPER_MODEL set one.
	DefaultModelSize = "medium"

	// fallbackModelSize is tried when the configured model is missing.
	fallbackModelSize = "base"

	modelBaseURL = "https://huggingface.co/ggerganov/whisper.cpp/resolve/main/"
)

// Model sizes and their approximate download sizes.
var modelSizes = map[string]struct {
	File string
	Size int64
}{
	"tiny":   {"ggml-tiny.bin", 75 * 1024 * 1024},
	"base":   {"ggml-base.bin", 142 * 1024 * 1024},
	"small":  {"ggml-small.bin", 466 * 1024 * 1024},
	"medium": {"ggml-medium.bin", 1500 * 1024 * 1024},
	"large":  {"ggml-large-v3.bin", 2900 * 1024 * 1024},
}

// curlPath is the download tool.
var curlPath = "curl"

// ModelsDir is where downloaded models live.
func ModelsDir() string {
	return filepath.Join(xdg.DataHome, "voxkey", "models")
}

// ValidModelSize reports whether size names a known model.
func ValidModelSize(size string) bool {
	_, ok := modelSizes[size]
	return ok
}

// ModelFileName returns the file name for a model size.
func ModelFileName(size string) string {
	if m, ok := modelSizes[size]; ok {
		return m.File
	}
	return "ggml-" + size + ".bin"
}

// ModelURL returns the download URL for a model size.
func ModelURL(size string) string {
	return modelBaseURL + ModelFileName(size)
}

// ModelDownloadSize returns the approximate download size in bytes.
func ModelDownloadSize(size string) int64 {
	return modelSizes[size].Size
}

// DownloadModel fetches url into dest with curl. progress, if non-nil,
// receives whole percentages as they change. The file is written next to
// dest and renamed when complete; partial files are removed on failure or
// cancellation.
func DownloadModel(ctx context.Context, url, dest string, progress func(percent int)) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return fmt.Errorf("create model dir: %w", err)
	}

	part := dest + ".part"
	cmd := exec.CommandContext(ctx, curlPath, "-L", "--fail", "--progress-bar", "-o", part, url)
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("curl stderr: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start curl: %w", err)
	}

	tail := scanProgress(stderr, progress)
	err = cmd.Wait()

	if ctx.Err() != nil {
		_ = os.Remove(part)
		return ctx.Err()
	}
	if err != nil {
		_ = os.Remove(part)
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return newToolError("curl", exitErr.ExitCode(), tail)
		}
		return fmt.Errorf("run curl: %w", err)
	}

	if err := os.Rename(part, dest); err != nil {
		_ = os.Remove(part)
		return fmt.Errorf("rename model: %w", err)
	}
	return nil
}

// scanProgress reads curl's progress bar and reports percentage changes.
// It returns the last line that was not a progress update.
func scanProgress(r io.Reader, progress func(percent int)) string {
	sc := bufio.NewScanner(r)
	sc.Split(splitCRLF)

	last := -1
	var tail string
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		pct, ok := extractPercent(line)
		if !ok {
			tail = line
			continue
		}
		if p := int(pct); p > last {
			last = p
			if progress != nil {
				progress(p)
			}
		}
	}
	return tail
}

// splitCRLF splits on either carriage return or newline, since progress
// bars redraw with a bare \r.
func splitCRLF(data []byte, atEOF bool) (int, []byte, error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		return i + 1, data[:i], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}

// extractPercent returns the number immediately before the last '%'.
func extractPercent(line string) (float64, bool) {
	end := strings.LastIndexByte(line, '%')
	if end <= 0 {
		return 0, false
	}
	start := end
	for start > 0 {
		c := line[start-1]
		if (c < '0' || c > '9') && c != '.' {
			break
		}
		start--
	}
	if start == end {
		return 0, false
	}
	v, err := strconv.ParseFloat(line[start:end], 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
