package bill

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// DisallowedFileMessage is the exact text shown when a selected receipt is
// not a jpg, jpeg or png. UI layers and tests match it verbatim.
const DisallowedFileMessage = "Seuls les formats jpg, jpeg, png sont autorisés."

var (
	// ErrFileTypeNotAllowed signals a receipt outside the jpg/jpeg/png allow-list.
	ErrFileTypeNotAllowed = errors.New("bill: file type not allowed")
	// ErrMissingBillID signals an update attempted before any record id is known.
	ErrMissingBillID = errors.New("bill: missing bill id")
)

var allowedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
}

// Target identifies the view a completed flow navigates to.
type Target string

const (
	TargetBills   Target = "#employee/bills"
	TargetNewBill Target = "#employee/bill/new"
)

// ErrorSurface is the narrow UI hook for the file-type rejection message.
type ErrorSurface interface {
	Show(message string)
	Hide()
}

// IdentityReader exposes the stored user entry. Read-only here.
type IdentityReader interface {
	User() (User, error)
}

// FormFields are the caller's current form values at submit time. Numeric
// fields stay strings; the backend is authoritative about their validity.
type FormFields struct {
	Type       string
	Name       string
	Date       string
	Amount     string
	VAT        string
	Pct        string
	Commentary string
}

// Submitter owns the lifecycle of one in-progress expense record: it
// validates and stages the receipt attachment, then composes and persists
// the record on submit. One instance serves one creation flow; selections
// that race an in-flight upload resolve as last completed upload wins.
type Submitter struct {
	store    Store
	identity IdentityReader
	navigate func(Target)
	errs     ErrorSurface
	pending  PendingAttachment
}

func NewSubmitter(store Store, identity IdentityReader, navigate func(Target), errs ErrorSurface) *Submitter {
	return &Submitter{
		store:    store,
		identity: identity,
		navigate: navigate,
		errs:     errs,
	}
}

// Pending returns the currently staged attachment reference.
func (s *Submitter) Pending() PendingAttachment {
	return s.pending
}

// SetBillID primes the record id when an existing record is being edited
// instead of created through an upload.
func (s *Submitter) SetBillID(id string) {
	s.pending.BillID = id
}

// HandleFileSelected validates the candidate receipt and, if allowed,
// uploads it and stages the returned reference. A rejected selection shows
// the error surface and leaves any previously staged attachment in place;
// only a later successful upload replaces it.
func (s *Submitter) HandleFileSelected(ctx context.Context, file Attachment) error {
	ext := strings.ToLower(filepath.Ext(file.Name))
	if !allowedExtensions[ext] {
		if s.errs != nil {
			s.errs.Show(DisallowedFileMessage)
		}
		return ErrFileTypeNotAllowed
	}
	if s.errs != nil {
		s.errs.Hide()
	}

	user, err := s.identity.User()
	if err != nil {
		return fmt.Errorf("bill: read user: %w", err)
	}

	ref, err := s.store.UploadAttachment(ctx, file, user.Email)
	if err != nil {
		return err
	}

	s.pending = PendingAttachment{
		FileURL:  ref.FileURL,
		FileName: ref.FileName,
		BillID:   ref.Key,
	}
	return nil
}

// Submit composes the record from the form values, the stored identity and
// the staged attachment, persists it with status pending, and signals
// completion through the navigation callback exactly once. On failure all
// state is left intact so the caller can retry with the same attachment.
func (s *Submitter) Submit(ctx context.Context, form FormFields) error {
	user, err := s.identity.User()
	if err != nil {
		return fmt.Errorf("bill: read user: %w", err)
	}

	b := Bill{
		Email:      user.Email,
		Type:       form.Type,
		Name:       form.Name,
		Date:       form.Date,
		Amount:     Numeric(form.Amount),
		VAT:        Numeric(form.VAT),
		Pct:        Numeric(form.Pct),
		Commentary: form.Commentary,
		FileURL:    s.pending.FileURL,
		FileName:   s.pending.FileName,
		Status:     StatusPending,
	}

	if _, err := s.UpdateBill(ctx, b); err != nil {
		return err
	}

	s.pending = PendingAttachment{}
	if s.navigate != nil {
		s.navigate(TargetBills)
	}
	return nil
}

// UpdateBill persists the record through the store's update operation,
// keyed by the known record id. Store failures propagate unchanged.
func (s *Submitter) UpdateBill(ctx context.Context, b Bill) (Bill, error) {
	if s.pending.BillID == "" {
		return Bill{}, ErrMissingBillID
	}

	data, err := json.Marshal(b)
	if err != nil {
		return Bill{}, fmt.Errorf("bill: marshal record: %w", err)
	}

	return s.store.Update(ctx, UpdateParams{Data: data, Selector: s.pending.BillID})
}
