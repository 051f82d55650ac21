package verification

import (
	"context"
	"log"
	"strings"

	"github.com/axis-hub/subverify/src/verifybot/components/ocr"
)

// Extractor turns attachment bytes into classifier input. OCR failure never
// blocks verification: when the engine is missing or errors, the lower-cased
// filename stands in as the text source. Filenames can be chosen by the
// uploader, so this fallback is a known bypass vector; it is kept because an
// unavailable OCR engine should degrade, not reject, every submission.
type Extractor struct {
	engine ocr.Engine
}

// NewExtractor wraps an OCR engine; a nil engine means every extraction takes
// the filename path.
func NewExtractor(engine ocr.Engine) *Extractor {
	return &Extractor{engine: engine}
}

// Extract returns the text to classify for one attachment.
func (e *Extractor) Extract(ctx context.Context, image []byte, filename string) string {
	if e.engine == nil {
		return strings.ToLower(filename)
	}

	text, err := e.engine.ExtractText(ctx, image)
	if err != nil {
		log.Printf("OCR error (%s), falling back to filename: %v", e.engine.Name(), err)
		return strings.ToLower(filename)
	}

	return text
}
