// Package ocr turns screenshot bytes into text. Engines are external
// collaborators: a tesseract subprocess or a vision-capable LLM. Callers are
// expected to tolerate engine failure; the verification pipeline degrades to
// filename matching when extraction fails.
package ocr

import "context"

// Engine extracts the visible text from an image.
type Engine interface {
	// ExtractText returns the text visible in the image, possibly empty.
	ExtractText(ctx context.Context, image []byte) (string, error)
	// Name identifies the engine in logs.
	Name() string
}

// New builds the engine selected by name. Supported: "tesseract" (default)
// and "openai".
func New(name string, cfg Config) (Engine, error) {
	switch name {
	case "", "tesseract":
		return NewTesseract(cfg.TesseractCmd)
	case "openai":
		return NewOpenAI(cfg.OpenAIKey, cfg.OpenAIBaseURL, cfg.OpenAIModel)
	}
	return nil, UnknownEngineError{Name: name}
}

// Config carries engine-specific settings; only the fields for the selected
// engine are consulted.
type Config struct {
	TesseractCmd  string
	OpenAIKey     string
	OpenAIBaseURL string
	OpenAIModel   string
}

type UnknownEngineError struct {
	Name string
}

func (e UnknownEngineError) Error() string {
	return "unknown ocr engine: " + e.Name
}
