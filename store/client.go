// Package store provides the HTTP implementation of the bill.Store
// contract, speaking the bills REST API.
package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"billflow/bill"
)

// TokenSource supplies the bearer token attached to every API call.
type TokenSource interface {
	Token() (string, error)
}

// Client implements bill.Store against the bills backend.
type Client struct {
	baseURL string
	http    *http.Client
	tokens  TokenSource
}

func New(baseURL string, tokens TokenSource) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
		tokens:  tokens,
	}
}

func (c *Client) List(ctx context.Context) ([]bill.Bill, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/bills", nil)
	if err != nil {
		return nil, fmt.Errorf("store: build list request: %w", err)
	}
	if err := c.authorize(req); err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("store: list bills: %w", err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return nil, err
	}

	var bills []bill.Bill
	if err := json.NewDecoder(resp.Body).Decode(&bills); err != nil {
		return nil, fmt.Errorf("store: decode bills: %w", err)
	}
	return bills, nil
}

func (c *Client) UploadAttachment(ctx context.Context, file bill.Attachment, ownerEmail string) (bill.AttachmentRef, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	if err := mw.WriteField("email", ownerEmail); err != nil {
		return bill.AttachmentRef{}, fmt.Errorf("store: write email field: %w", err)
	}

	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, file.Name))
	if file.ContentType != "" {
		header.Set("Content-Type", file.ContentType)
	}
	part, err := mw.CreatePart(header)
	if err != nil {
		return bill.AttachmentRef{}, fmt.Errorf("store: create file part: %w", err)
	}
	if _, err := io.Copy(part, file.Content); err != nil {
		return bill.AttachmentRef{}, fmt.Errorf("store: copy file: %w", err)
	}
	if err := mw.Close(); err != nil {
		return bill.AttachmentRef{}, fmt.Errorf("store: finish multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/bills", &body)
	if err != nil {
		return bill.AttachmentRef{}, fmt.Errorf("store: build upload request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if err := c.authorize(req); err != nil {
		return bill.AttachmentRef{}, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return bill.AttachmentRef{}, fmt.Errorf("store: upload attachment: %w", err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return bill.AttachmentRef{}, err
	}

	var ref bill.AttachmentRef
	if err := json.NewDecoder(resp.Body).Decode(&ref); err != nil {
		return bill.AttachmentRef{}, fmt.Errorf("store: decode attachment reference: %w", err)
	}
	return ref, nil
}

func (c *Client) Update(ctx context.Context, params bill.UpdateParams) (bill.Bill, error) {
	url := c.baseURL + "/bills/" + params.Selector
	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, url, bytes.NewReader(params.Data))
	if err != nil {
		return bill.Bill{}, fmt.Errorf("store: build update request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if err := c.authorize(req); err != nil {
		return bill.Bill{}, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return bill.Bill{}, fmt.Errorf("store: update bill: %w", err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return bill.Bill{}, err
	}

	var updated bill.Bill
	if err := json.NewDecoder(resp.Body).Decode(&updated); err != nil {
		return bill.Bill{}, fmt.Errorf("store: decode updated bill: %w", err)
	}
	return updated, nil
}

func (c *Client) authorize(req *http.Request) error {
	if c.tokens == nil {
		return nil
	}
	token, err := c.tokens.Token()
	if err != nil {
		return fmt.Errorf("store: read session token: %w", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return nil
}

func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return &bill.APIError{Status: resp.StatusCode, Message: strings.TrimSpace(string(msg))}
}
