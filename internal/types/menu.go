package types

import "github.com/menuvision/backend/internal/models"

// MenuInput is the raw material for one processing run: either pasted
// text or the bytes of an uploaded menu image.
type MenuInput struct {
	Text      string
	ImageData []byte
	MimeType  string
	Filename  string
}

// IsImage reports whether the input came in as an image upload.
func (in MenuInput) IsImage() bool { return len(in.ImageData) > 0 }

// MenuCandidate is an extracted dish before image resolution and
// storage. Both fields are non-empty once validation has run.
type MenuCandidate struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// ProcessResult is the outcome of a blocking processing run.
// FailedItems names the candidates whose image or persist step failed;
// the run still succeeds without them.
type ProcessResult struct {
	SessionID   int                `json:"sessionId"`
	MenuItems   []*models.MenuItem `json:"menuItems"`
	FailedItems []string           `json:"failedItems,omitempty"`
	Success     bool               `json:"success"`
}
