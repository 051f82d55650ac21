package ocr

import (
	"errors"
	"testing"
)

func TestNewUnknownEngine(t *testing.T) {
	_, err := New("paddle", Config{})
	var ue UnknownEngineError
	if !errors.As(err, &ue) || ue.Name != "paddle" {
		t.Fatalf("expected UnknownEngineError, got %v", err)
	}
}

func TestNewTesseractExplicitCmd(t *testing.T) {
	eng, err := NewTesseract("/opt/tesseract/bin/tesseract")
	if err != nil {
		t.Fatalf("NewTesseract: %v", err)
	}
	if eng.Name() != "tesseract" {
		t.Fatalf("unexpected engine name %q", eng.Name())
	}
}

func TestNewOpenAIRequiresKey(t *testing.T) {
	if _, err := NewOpenAI("", "", ""); err == nil {
		t.Fatalf("expected error without API key")
	}
}
