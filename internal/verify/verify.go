// Package verify checks uploaded ID documents against the registration
// rules: declared media type, byte size, and a minimal content sanity
// check for images. It does not inspect image pixels.
package verify

import (
	"strings"

	"github.com/numerano/teams-backend/internal/model"
)

// MaxSizeBytes is the upload size limit (5 MiB).
const MaxSizeBytes = 5 * 1024 * 1024

// minImageBytes is a heuristic floor: anything smaller cannot plausibly be
// a photographed or scanned ID.
const minImageBytes = 1024

var acceptedTypes = map[string]struct{}{
	"application/pdf": {},
	"image/jpeg":      {},
	"image/png":       {},
	"image/webp":      {},
	"image/heic":      {},
}

type Result struct {
	Valid  bool
	Reason string
}

// IDCard validates a single uploaded document. Reason is set only on
// rejection.
func IDCard(doc *model.Upload) Result {
	if doc == nil {
		return Result{Reason: "No file received."}
	}

	if _, ok := acceptedTypes[doc.ContentType]; !ok {
		return Result{Reason: "Unsupported file type."}
	}

	if doc.Size > MaxSizeBytes {
		return Result{Reason: "File is too large. Max 5MB."}
	}

	if strings.HasPrefix(doc.ContentType, "image/") && len(doc.Content) < minImageBytes {
		return Result{Reason: "Image appears too small to be an ID."}
	}

	return Result{Valid: true}
}
