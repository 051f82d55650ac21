package ocr

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"
)

// windowsInstallPaths are the default install locations probed when tesseract
// is not on PATH.
var windowsInstallPaths = []string{
	`C:\Program Files\Tesseract-OCR\tesseract.exe`,
	`C:\Program Files (x86)\Tesseract-OCR\tesseract.exe`,
}

// Tesseract runs the tesseract binary as a subprocess, feeding the image on
// stdin and reading the recognized text from stdout.
type Tesseract struct {
	cmd string
}

// NewTesseract locates the tesseract binary. An explicit cmd (or the
// TESSERACT_CMD environment variable) overrides discovery; otherwise PATH is
// searched, then the common Windows install locations.
func NewTesseract(cmd string) (*Tesseract, error) {
	if cmd == "" {
		cmd = os.Getenv("TESSERACT_CMD")
	}
	if cmd != "" {
		return &Tesseract{cmd: cmd}, nil
	}

	if path, err := exec.LookPath("tesseract"); err == nil {
		return &Tesseract{cmd: path}, nil
	}

	if runtime.GOOS == "windows" {
		for _, path := range windowsInstallPaths {
			if _, err := os.Stat(path); err == nil {
				return &Tesseract{cmd: path}, nil
			}
		}
	}

	return nil, fmt.Errorf("tesseract binary not found")
}

func (t *Tesseract) Name() string { return "tesseract" }

// ExtractText runs `tesseract stdin stdout` on the image.
func (t *Tesseract) ExtractText(ctx context.Context, image []byte) (string, error) {
	cmd := exec.CommandContext(ctx, t.cmd, "stdin", "stdout")
	cmd.Stdin = bytes.NewReader(image)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("tesseract: %w (%s)", err, strings.TrimSpace(stderr.String()))
	}

	return stdout.String(), nil
}

// Version reports the installed tesseract version; used by the startup
// self-test.
func (t *Tesseract) Version(ctx context.Context) (string, error) {
	out, err := exec.CommandContext(ctx, t.cmd, "--version").CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("tesseract --version: %w", err)
	}

	// First line looks like "tesseract 5.3.0".
	line, _, _ := strings.Cut(string(out), "\n")
	return strings.TrimSpace(line), nil
}
