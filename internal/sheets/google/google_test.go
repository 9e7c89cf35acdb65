package google

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"shop/internal/core"
)

func TestNewFromEnv_MissingSpreadsheetID(t *testing.T) {
	_, err := NewFromEnv(context.Background(), "  ", "Journal")
	if err == nil {
		t.Fatal("expected error for missing spreadsheet id")
	}
	if err.Error() != "missing GOOGLE_SPREADSHEET_ID" {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestNewFromEnv_MissingCredentials(t *testing.T) {
	t.Setenv("GOOGLE_SERVICE_ACCOUNT_JSON", "")
	t.Setenv("GOOGLE_SERVICE_ACCOUNT_FILE", "")
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")

	_, err := NewFromEnv(context.Background(), "sheet-id", "Journal")
	if err == nil || !strings.Contains(err.Error(), "missing service account credentials") {
		t.Fatalf("expected credentials error, got: %v", err)
	}
}

func TestNewFromEnv_UnreadableCredentialsFile(t *testing.T) {
	t.Setenv("GOOGLE_SERVICE_ACCOUNT_JSON", "")
	t.Setenv("GOOGLE_SERVICE_ACCOUNT_FILE", "/nonexistent/credentials.json")

	_, err := NewFromEnv(context.Background(), "sheet-id", "Journal")
	if err == nil || !strings.Contains(err.Error(), "read service account file") {
		t.Fatalf("expected read error, got: %v", err)
	}
}

func TestNewDefaultsSheetName(t *testing.T) {
	if c := New(nil, "id", ""); c.journalSheet != "Journal" {
		t.Errorf("journalSheet = %q, want Journal", c.journalSheet)
	}
}

func TestJournalRow(t *testing.T) {
	created := time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC)

	purchase := journalRow(core.JournalEntry{
		ID: 7, Kind: core.JournalPurchase, ProductName: "Яблоки",
		Weight: 2, Price: 5, BalanceAfter: 995, CreatedAt: created,
	})
	want := []any{int64(7), "2024-03-01T10:30:00Z", "purchase", "Яблоки", 2.0, 5.0, 995.0}
	if len(purchase) != len(want) {
		t.Fatalf("row = %v, want %v", purchase, want)
	}
	for i := range want {
		if purchase[i] != want[i] {
			t.Errorf("column %d = %v, want %v", i, purchase[i], want[i])
		}
	}

	reset := journalRow(core.JournalEntry{ID: 8, Kind: core.JournalReset, BalanceAfter: 1000, CreatedAt: created})
	if reset[3] != "" || reset[4] != "" || reset[5] != "" {
		t.Errorf("reset row should leave product columns blank: %v", reset)
	}
	if reset[6] != 1000.0 {
		t.Errorf("balance column = %v, want 1000", reset[6])
	}
}

func TestAppendJournal_NilService(t *testing.T) {
	c := &Client{spreadsheetID: "test", journalSheet: "Journal"}

	if _, err := c.AppendJournal(context.Background(), core.JournalEntry{Kind: "refund"}); err == nil ||
		!strings.Contains(err.Error(), "validation failed") {
		t.Errorf("expected validation error, got: %v", err)
	}
	if _, err := c.AppendJournal(context.Background(), core.JournalEntry{Kind: core.JournalReset}); err == nil ||
		!strings.Contains(err.Error(), "not initialized") {
		t.Errorf("expected not initialized error, got: %v", err)
	}
}

// fakeSheets records the calls made against a stub Sheets API.
type fakeSheets struct {
	mu       sync.Mutex
	appended [][]any
	header   [][]any
	queries  []string
}

func (f *fakeSheets) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, r.URL.RawQuery)
	w.Header().Set("Content-Type", "application/json")

	switch {
	case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, ":append"):
		var vr gsheet.ValueRange
		if err := json.NewDecoder(r.Body).Decode(&vr); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		f.appended = append(f.appended, vr.Values...)
		_, _ = w.Write([]byte(`{"updates":{"updatedRange":"Journal!A2:G2","updatedRows":1}}`))
	case r.Method == http.MethodGet:
		_ = json.NewEncoder(w).Encode(map[string]any{"range": "Journal!A1:G1", "values": f.header})
	case r.Method == http.MethodPut:
		var vr gsheet.ValueRange
		_ = json.NewDecoder(r.Body).Decode(&vr)
		f.header = vr.Values
		_, _ = w.Write([]byte(`{"updatedRows":1}`))
	default:
		http.Error(w, "unexpected call "+r.Method+" "+r.URL.Path, http.StatusNotFound)
	}
}

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	svc, err := gsheet.NewService(context.Background(),
		goption.WithEndpoint(srv.URL+"/"),
		goption.WithoutAuthentication(),
		goption.WithHTTPClient(srv.Client()))
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return New(svc, "sheet-id", "Journal")
}

func TestAppendJournal(t *testing.T) {
	fake := &fakeSheets{}
	c := newTestClient(t, fake)

	ref, err := c.AppendJournal(context.Background(), core.JournalEntry{
		ID: 7, Kind: core.JournalPurchase, ProductName: "Яблоки",
		Weight: 2, Price: 5, BalanceAfter: 995, CreatedAt: time.Now(),
	})
	if err != nil {
		t.Fatalf("AppendJournal: %v", err)
	}
	if ref != "Journal!A2:G2" {
		t.Errorf("ref = %q, want Journal!A2:G2", ref)
	}

	fake.mu.Lock()
	defer fake.mu.Unlock()
	if len(fake.appended) != 1 {
		t.Fatalf("appended %d rows, want 1", len(fake.appended))
	}
	row := fake.appended[0]
	if row[2] != "purchase" || row[3] != "Яблоки" || row[5] != 5.0 {
		t.Errorf("unexpected row: %v", row)
	}
	if !strings.Contains(fake.queries[0], "valueInputOption=USER_ENTERED") {
		t.Errorf("query = %q, want USER_ENTERED", fake.queries[0])
	}
}

func TestAppendJournal_APIError(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"code":403,"message":"forbidden"}}`, http.StatusForbidden)
	}))

	_, err := c.AppendJournal(context.Background(), core.JournalEntry{ID: 1, Kind: core.JournalReset})
	if err == nil || !strings.Contains(err.Error(), "append to sheet Journal") {
		t.Fatalf("expected wrapped API error, got: %v", err)
	}
}

func TestEnsureHeader(t *testing.T) {
	fake := &fakeSheets{}
	c := newTestClient(t, fake)
	ctx := context.Background()

	if err := c.EnsureHeader(ctx); err != nil {
		t.Fatalf("EnsureHeader: %v", err)
	}
	fake.mu.Lock()
	header := fake.header
	fake.mu.Unlock()
	if len(header) != 1 || header[0][0] != "ID" {
		t.Fatalf("header = %v, want journal header", header)
	}

	// Second call sees the header and writes nothing.
	calls := len(fake.queries)
	if err := c.EnsureHeader(ctx); err != nil {
		t.Fatalf("EnsureHeader: %v", err)
	}
	if got := len(fake.queries) - calls; got != 1 {
		t.Errorf("expected a single read on the second call, got %d calls", got)
	}
}
