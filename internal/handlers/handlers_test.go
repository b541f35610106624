package handlers

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"sliptrack/internal/live"
	"sliptrack/internal/models"
	"sliptrack/internal/security"
	"sliptrack/internal/service"
)

type memReceipts struct {
	items map[string]models.Receipt
}

func (m *memReceipts) Create(ownerID int64, id, name string, createdAt time.Time) (*models.Receipt, error) {
	r := models.Receipt{ID: id, OwnerID: ownerID, Name: name, CreatedAt: createdAt}
	m.items[id] = r
	return &r, nil
}

func (m *memReceipts) Rename(ownerID int64, id, newName string) error {
	r := m.items[id]
	r.Name = newName
	m.items[id] = r
	return nil
}

func (m *memReceipts) Get(ownerID int64, id string) (*models.Receipt, error) {
	r, ok := m.items[id]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

func (m *memReceipts) ListByOwner(ownerID int64) ([]models.Receipt, error) {
	var out []models.Receipt
	for _, r := range m.items {
		out = append(out, r)
	}
	return out, nil
}

func (m *memReceipts) Delete(ownerID int64, id string) error {
	delete(m.items, id)
	return nil
}

type memStudents struct {
	items map[string]models.Student
}

func (m *memStudents) BulkInsert(entries []models.Student) error {
	for _, s := range entries {
		m.items[s.ID] = s
	}
	return nil
}

func (m *memStudents) ListByReceipt(ownerID int64, receiptID string) ([]models.Student, error) {
	var out []models.Student
	for _, s := range m.items {
		if s.ReceiptID == receiptID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *memStudents) GetReceiptID(ownerID int64, studentID string) (string, error) {
	s, ok := m.items[studentID]
	if !ok {
		return "", nil
	}
	return s.ReceiptID, nil
}

func (m *memStudents) UpdateDone(ownerID int64, studentID string, isDone bool) error {
	s := m.items[studentID]
	s.IsDone = isDone
	m.items[studentID] = s
	return nil
}

func (m *memStudents) UpdateNote(ownerID int64, studentID, note string) error {
	s := m.items[studentID]
	s.Note = note
	m.items[studentID] = s
	return nil
}

func (m *memStudents) BulkUpdateDone(ownerID int64, studentIDs []string, isDone bool) error {
	for _, id := range studentIDs {
		m.UpdateDone(ownerID, id, isDone)
	}
	return nil
}

func (m *memStudents) ListIDsByReceipt(ownerID int64, receiptID string) ([]string, error) {
	var ids []string
	for _, s := range m.items {
		if s.ReceiptID == receiptID {
			ids = append(ids, s.ID)
		}
	}
	return ids, nil
}

func (m *memStudents) DeleteByIDs(ownerID int64, studentIDs []string) error {
	for _, id := range studentIDs {
		delete(m.items, id)
	}
	return nil
}

func newTestRosterService() (*service.RosterService, *memReceipts, *memStudents) {
	receipts := &memReceipts{items: make(map[string]models.Receipt)}
	students := &memStudents{items: make(map[string]models.Student)}
	return service.NewRosterService(receipts, students, live.NewHub()), receipts, students
}

func withUser(r *http.Request, userID int64) *http.Request {
	ctx := context.WithValue(r.Context(), UserContextKey, &models.User{ID: userID})
	return r.WithContext(ctx)
}

func TestRequireAuthWithoutCookie(t *testing.T) {
	m := NewMiddleware(nil, nil, nil)
	handler := m.RequireAuth(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not run without a session")
	})

	recorder := httptest.NewRecorder()
	handler(recorder, httptest.NewRequest("GET", "/api/receipts", nil))

	if recorder.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", recorder.Code)
	}
}

func TestCSRFProtect(t *testing.T) {
	csrf := security.NewCSRFGenerator("test-secret")
	m := NewMiddleware(nil, csrf, nil)

	called := false
	handler := m.CSRFProtect(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusNoContent)
	})

	session := &models.Session{ID: "sess-1"}
	withSession := func(r *http.Request) *http.Request {
		return r.WithContext(context.WithValue(r.Context(), SessionContextKey, session))
	}

	// GET passes without a token
	recorder := httptest.NewRecorder()
	handler(recorder, withSession(httptest.NewRequest("GET", "/api/receipts", nil)))
	if !called {
		t.Fatal("GET should pass without a CSRF token")
	}

	// POST without a token is rejected
	called = false
	recorder = httptest.NewRecorder()
	handler(recorder, withSession(httptest.NewRequest("POST", "/api/receipts/r_1/bulk-done", nil)))
	if called || recorder.Code != http.StatusForbidden {
		t.Fatalf("POST without token: called=%v status=%d", called, recorder.Code)
	}

	// POST with the minted token passes
	token, err := csrf.GenerateToken(session.ID)
	if err != nil {
		t.Fatal(err)
	}
	recorder = httptest.NewRecorder()
	req := withSession(httptest.NewRequest("POST", "/api/receipts/r_1/bulk-done", nil))
	req.Header.Set(CSRFHeaderName, token)
	handler(recorder, req)
	if !called {
		t.Fatal("POST with a valid token should pass")
	}
}

func TestRenameHandler(t *testing.T) {
	svc, receipts, _ := newTestRosterService()
	receipts.Create(7, "r_1", "舊名", time.Now())
	h := NewRosterHandler(svc, 10<<20)

	req := httptest.NewRequest("PUT", "/api/receipts/r_1/name", strings.NewReader(`{"name":"新名"}`))
	req.SetPathValue("id", "r_1")
	recorder := httptest.NewRecorder()
	h.Rename(recorder, withUser(req, 7))

	if recorder.Code != http.StatusNoContent {
		t.Fatalf("status = %d, body %s", recorder.Code, recorder.Body.String())
	}
	if got, _ := receipts.Get(7, "r_1"); got.Name != "新名" {
		t.Errorf("name = %q after rename", got.Name)
	}
}

func TestRenameHandlerMissingReceipt(t *testing.T) {
	svc, _, _ := newTestRosterService()
	h := NewRosterHandler(svc, 10<<20)

	req := httptest.NewRequest("PUT", "/api/receipts/r_x/name", strings.NewReader(`{"name":"新名"}`))
	req.SetPathValue("id", "r_x")
	recorder := httptest.NewRecorder()
	h.Rename(recorder, withUser(req, 7))

	if recorder.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", recorder.Code)
	}
}

func TestDeleteHandlerCascades(t *testing.T) {
	svc, receipts, students := newTestRosterService()
	receipts.Create(7, "r_1", "回條", time.Now())
	students.items["s_1"] = models.Student{ID: "s_1", OwnerID: 7, ReceiptID: "r_1"}

	h := NewRosterHandler(svc, 10<<20)
	req := httptest.NewRequest("DELETE", "/api/receipts/r_1", nil)
	req.SetPathValue("id", "r_1")
	recorder := httptest.NewRecorder()
	h.Delete(recorder, withUser(req, 7))

	if recorder.Code != http.StatusNoContent {
		t.Fatalf("status = %d", recorder.Code)
	}
	if len(students.items) != 0 {
		t.Error("students not removed with their receipt")
	}
}

func TestImportHandlerMalformedMultipart(t *testing.T) {
	svc, _, _ := newTestRosterService()
	h := NewRosterHandler(svc, 10<<20)

	req := httptest.NewRequest("POST", "/api/receipts/import", strings.NewReader("not multipart"))
	req.Header.Set("Content-Type", "multipart/form-data; boundary=frame")
	recorder := httptest.NewRecorder()
	h.Import(recorder, withUser(req, 7))

	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400 for a malformed body", recorder.Code)
	}
}

func TestImportHandlerOversizedUpload(t *testing.T) {
	svc, _, _ := newTestRosterService()
	h := NewRosterHandler(svc, 64)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", "roster.xlsx")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := fw.Write(bytes.Repeat([]byte("x"), 1024)); err != nil {
		t.Fatal(err)
	}
	mw.Close()

	req := httptest.NewRequest("POST", "/api/receipts/import", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	recorder := httptest.NewRecorder()
	h.Import(recorder, withUser(req, 7))

	if recorder.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("status = %d, want 413 past the size cap", recorder.Code)
	}
}

func TestReportPageRenders(t *testing.T) {
	svc, receipts, students := newTestRosterService()
	receipts.Create(7, "r_1", "校外教學", time.Now())
	students.items["a"] = models.Student{ID: "a", OwnerID: 7, ReceiptID: "r_1", Class: "101", No: "01", Name: "王小明"}

	h := NewReportHandler(svc)
	req := httptest.NewRequest("GET", "/report/r_1", nil)
	req.SetPathValue("id", "r_1")
	recorder := httptest.NewRecorder()
	h.Page(recorder, withUser(req, 7))

	if recorder.Code != http.StatusOK {
		t.Fatalf("status = %d", recorder.Code)
	}
	body := recorder.Body.String()
	if !strings.Contains(body, "王小明") || !strings.Contains(body, "未繳名單") {
		t.Errorf("rendered page is missing expected content")
	}
}
