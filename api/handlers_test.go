package api

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"billflow/bill"
)

type stubRepo struct {
	bills   []bill.Bill
	listErr error

	created   *bill.Bill
	createErr error

	updated   bill.Bill
	updateErr error
	updateID  string
}

func (s *stubRepo) ListByEmail(_ context.Context, _ string) ([]bill.Bill, error) {
	return s.bills, s.listErr
}

func (s *stubRepo) Create(_ context.Context, b bill.Bill) (bill.Bill, error) {
	if s.createErr != nil {
		return bill.Bill{}, s.createErr
	}
	s.created = &b
	return b, nil
}

func (s *stubRepo) Update(_ context.Context, id, _ string, _ bill.Bill) (bill.Bill, error) {
	s.updateID = id
	if s.updateErr != nil {
		return bill.Bill{}, s.updateErr
	}
	return s.updated, nil
}

var testSecret = []byte("test-secret")

func signToken(t *testing.T, email string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"email": email,
		"exp":   time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString(testSecret)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func newTestRouter(t *testing.T, repo bill.Repository) (*chi.Mux, string) {
	t.Helper()
	uploadDir := t.TempDir()
	handler := NewBillsHandler(repo, uploadDir, "http://localhost:5678", zerolog.Nop())
	router := NewRouter(RouterConfig{
		Bills:     handler,
		JWTSecret: testSecret,
		UploadDir: uploadDir,
		Log:       zerolog.Nop(),
	})
	return router, uploadDir
}

func TestListBills_Success(t *testing.T) {
	repo := &stubRepo{bills: []bill.Bill{
		{ID: "b1", Email: "a@a", Date: "2024-02-02", Status: bill.StatusPending},
		{ID: "b2", Email: "a@a", Date: "2023-07-30", Status: bill.StatusAccepted},
	}}
	router, _ := newTestRouter(t, repo)

	req := httptest.NewRequest(http.MethodGet, "/bills", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, "a@a"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body)
	}

	var got []bill.Bill
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(got) != 2 || got[0].ID != "b1" {
		t.Fatalf("unexpected payload: %+v", got)
	}
}

func TestListBills_RequiresToken(t *testing.T) {
	router, _ := newTestRouter(t, &stubRepo{})

	req := httptest.NewRequest(http.MethodGet, "/bills", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func multipartReceipt(t *testing.T, filename string) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write([]byte("invoice")); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}
	return &body, mw.FormDataContentType()
}

func TestCreateBill_StoresReceiptAndOpensRecord(t *testing.T) {
	repo := &stubRepo{}
	router, uploadDir := newTestRouter(t, repo)

	body, contentType := multipartReceipt(t, "fichier.png")
	req := httptest.NewRequest(http.MethodPost, "/bills", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+signToken(t, "a@a"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body)
	}

	var ref bill.AttachmentRef
	if err := json.Unmarshal(rec.Body.Bytes(), &ref); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if ref.Key == "" || ref.FileName != "fichier.png" || !strings.Contains(ref.FileURL, "/files/") {
		t.Fatalf("unexpected attachment reference: %+v", ref)
	}

	if repo.created == nil {
		t.Fatalf("expected a record to be created")
	}
	if repo.created.Email != "a@a" {
		t.Errorf("expected record scoped to the token email, got %q", repo.created.Email)
	}
	if repo.created.Status != bill.StatusPending {
		t.Errorf("expected initial status pending, got %q", repo.created.Status)
	}

	files, err := os.ReadDir(uploadDir)
	if err != nil {
		t.Fatalf("read upload dir: %v", err)
	}
	if len(files) != 1 {
		t.Fatalf("expected 1 stored receipt, got %d", len(files))
	}
}

func TestCreateBill_RejectsDisallowedExtension(t *testing.T) {
	repo := &stubRepo{}
	router, uploadDir := newTestRouter(t, repo)

	body, contentType := multipartReceipt(t, "fichier.pdf")
	req := httptest.NewRequest(http.MethodPost, "/bills", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+signToken(t, "a@a"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if repo.created != nil {
		t.Errorf("expected no record for a rejected receipt")
	}
	if files, _ := os.ReadDir(uploadDir); len(files) != 0 {
		t.Errorf("expected no stored file for a rejected receipt")
	}
}

func TestUpdateBill_Success(t *testing.T) {
	repo := &stubRepo{updated: bill.Bill{ID: "b42", Name: "Billet", Status: bill.StatusPending}}
	router, _ := newTestRouter(t, repo)

	payload := `{"name":"Billet","amount":"200","status":"pending"}`
	req := httptest.NewRequest(http.MethodPatch, "/bills/b42", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+signToken(t, "a@a"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body)
	}
	if repo.updateID != "b42" {
		t.Errorf("expected update targeted at b42, got %q", repo.updateID)
	}

	var got bill.Bill
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got.ID != "b42" || got.Name != "Billet" {
		t.Errorf("unexpected payload: %+v", got)
	}
}

func TestUpdateBill_NotFound(t *testing.T) {
	repo := &stubRepo{updateErr: bill.ErrNotFound}
	router, _ := newTestRouter(t, repo)

	req := httptest.NewRequest(http.MethodPatch, "/bills/missing", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+signToken(t, "a@a"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}
