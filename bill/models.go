package bill

import "encoding/json"

// Status represents the lifecycle of an expense record. It is assigned by
// the backend; clients never set anything other than the initial pending.
type Status string

const (
	StatusPending  Status = "pending"
	StatusAccepted Status = "accepted"
	StatusRefused  Status = "refused"
)

// Numeric carries amount-like fields without interpreting them. Values
// arrive from the form as strings and from older stored records as JSON
// numbers; both are kept verbatim, and malformed input passes through
// unchanged for the backend to judge.
type Numeric string

func (n *Numeric) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*n = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*n = Numeric(s)
		return nil
	}
	*n = Numeric(data)
	return nil
}

func (n Numeric) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(n))
}

// Bill mirrors the bills table and the API payload.
type Bill struct {
	ID         string  `json:"id,omitempty"`
	Email      string  `json:"email"`
	Type       string  `json:"type"`
	Name       string  `json:"name"`
	Date       string  `json:"date"`
	Amount     Numeric `json:"amount"`
	VAT        Numeric `json:"vat"`
	Pct        Numeric `json:"pct"`
	Commentary string  `json:"commentary"`
	FileURL    string  `json:"fileUrl"`
	FileName   string  `json:"fileName"`
	Status     Status  `json:"status"`
}

// DisplayBill is the read-only projection used for listing: identical to
// Bill except date and status hold their presentation strings.
type DisplayBill struct {
	ID         string  `json:"id"`
	Email      string  `json:"email"`
	Type       string  `json:"type"`
	Name       string  `json:"name"`
	Date       string  `json:"date"`
	Amount     Numeric `json:"amount"`
	VAT        Numeric `json:"vat"`
	Pct        Numeric `json:"pct"`
	Commentary string  `json:"commentary"`
	FileURL    string  `json:"fileUrl"`
	FileName   string  `json:"fileName"`
	Status     string  `json:"status"`
}

// PendingAttachment holds the staged receipt reference for one in-progress
// creation flow. All fields stay empty until a valid file has been
// accepted and uploaded.
type PendingAttachment struct {
	FileURL  string
	FileName string
	BillID   string
}

// Staged reports whether a successful upload has populated the attachment.
// FileURL and FileName are set together or not at all.
func (p PendingAttachment) Staged() bool {
	return p.FileURL != "" && p.FileName != ""
}

// User is the identity entry stamped onto created records.
type User struct {
	Type  string `json:"type"`
	Email string `json:"email"`
}
