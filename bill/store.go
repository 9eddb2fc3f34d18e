package bill

import (
	"context"
	"fmt"
	"io"
)

// Attachment is a candidate receipt file as selected by the user.
type Attachment struct {
	Name        string
	ContentType string
	Content     io.Reader
}

// AttachmentRef is what the store hands back after a successful upload.
// Key is the id the backend assigned to the newly created record.
type AttachmentRef struct {
	FileURL  string `json:"fileUrl"`
	FileName string `json:"fileName"`
	Key      string `json:"key"`
}

// UpdateParams carries the serialized record and the id it targets.
type UpdateParams struct {
	Data     []byte
	Selector string
}

// Store is the backing-store capability shared by Lister and Submitter.
// Production uses the HTTP client in package store; tests substitute fakes
// with the same signatures.
type Store interface {
	List(ctx context.Context) ([]Bill, error)
	UploadAttachment(ctx context.Context, file Attachment, ownerEmail string) (AttachmentRef, error)
	Update(ctx context.Context, params UpdateParams) (Bill, error)
}

// APIError is a transport-level failure from the store backend. It crosses
// layers unchanged so callers see the original status code.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("bill: store request failed with status %d", e.Status)
	}
	return fmt.Sprintf("bill: store request failed with status %d: %s", e.Status, e.Message)
}
