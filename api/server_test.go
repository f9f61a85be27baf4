package api_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/xraph/taxledger"
	"github.com/xraph/taxledger/api"
	bankmem "github.com/xraph/taxledger/bank/memory"
	storemem "github.com/xraph/taxledger/store/memory"
)

func newTestServer(t *testing.T) (*httptest.Server, *taxledger.Engine) {
	t.Helper()
	b := bankmem.New()
	b.Open("treasury", true)
	b.Open("alice-checking", false)
	if err := b.SetHolder("alice-checking", "alice", 1); err != nil {
		t.Fatal(err)
	}
	if err := b.Deposit("alice-checking", "USD", 50); err != nil {
		t.Fatal(err)
	}

	eng := taxledger.New(storemem.New(), b, b)
	srv := httptest.NewServer(api.NewServer(eng, api.WithMetrics(http.NotFoundHandler())).Handler())
	t.Cleanup(srv.Close)
	return srv, eng
}

func do(t *testing.T, method, url, body string) (int, map[string]any) {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, url, rd)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	out := map[string]any{}
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp.StatusCode, out
}

func TestRecordAndRead(t *testing.T) {
	srv, _ := newTestServer(t)
	base := srv.URL + "/api/v1/ledgers/alice"

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		status int
	}{
		{"record debt", http.MethodPost, "/debts", `{"target":"treasury","currency":"USD","code":"sales","amount":10}`, http.StatusCreated},
		{"negligible debt", http.MethodPost, "/debts", `{"target":"treasury","currency":"USD","code":"sales","amount":0}`, http.StatusAccepted},
		{"debt without target", http.MethodPost, "/debts", `{"currency":"USD","amount":10}`, http.StatusBadRequest},
		{"malformed body", http.MethodPost, "/debts", `{`, http.StatusBadRequest},
		{"record rebate", http.MethodPost, "/rebates", `{"target":"treasury","currency":"USD","code":"relief","amount":2}`, http.StatusCreated},
		{"record payment", http.MethodPost, "/payments", `{"source":"treasury","currency":"USD","code":"grant","amount":1}`, http.StatusCreated},
		{"card", http.MethodGet, "", "", http.StatusOK},
		{"owed needs currency", http.MethodGet, "/owed", "", http.StatusBadRequest},
		{"report bad kind", http.MethodGet, "/report/fines?currency=USD", "", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := do(t, tt.method, base+tt.path, tt.body)
			if status != tt.status {
				t.Errorf("status: got %d, want %d (%v)", status, tt.status, body)
			}
		})
	}

	t.Run("owed", func(t *testing.T) {
		status, body := do(t, http.MethodGet, base+"/owed?currency=USD&account=treasury", "")
		if status != http.StatusOK {
			t.Fatalf("status: got %d", status)
		}
		if body["taxes"] != 8.0 {
			t.Errorf("taxes: got %v, want 8", body["taxes"])
		}
		if body["payments"] != 1.0 {
			t.Errorf("payments: got %v, want 1", body["payments"])
		}
	})

	t.Run("owed without rebates", func(t *testing.T) {
		_, body := do(t, http.MethodGet, base+"/owed?currency=USD&account=treasury&rebates=false", "")
		if body["taxes"] != 10.0 {
			t.Errorf("taxes: got %v, want 10", body["taxes"])
		}
	})

	t.Run("report", func(t *testing.T) {
		status, body := do(t, http.MethodGet, base+"/report/taxes?currency=USD&code=sales", "")
		if status != http.StatusOK {
			t.Fatalf("status: got %d", status)
		}
		if body["amount"] != 10.0 {
			t.Errorf("amount: got %v, want 10", body["amount"])
		}
	})

	t.Run("report today relative", func(t *testing.T) {
		_, body := do(t, http.MethodGet, base+"/report/rebates?currency=USD&from=0&relative=true", "")
		if body["amount"] != 2.0 {
			t.Errorf("amount: got %v, want 2", body["amount"])
		}
	})

	t.Run("rollup report", func(t *testing.T) {
		status, body := do(t, http.MethodGet, srv.URL+"/api/v1/rollups/treasury/report/taxes?currency=USD", "")
		if status != http.StatusOK {
			t.Fatalf("status: got %d", status)
		}
		if body["amount"] != 10.0 {
			t.Errorf("amount: got %v, want 10", body["amount"])
		}
	})
}

func TestNotFound(t *testing.T) {
	srv, _ := newTestServer(t)

	for _, path := range []string{
		"/api/v1/ledgers/ghost",
		"/api/v1/ledgers/ghost/log",
		"/api/v1/rollups/ghost/report/taxes?currency=USD",
	} {
		t.Run(path, func(t *testing.T) {
			status, _ := do(t, http.MethodGet, srv.URL+path, "")
			if status != http.StatusNotFound {
				t.Errorf("status: got %d, want 404", status)
			}
		})
	}
}

func TestTickAndLog(t *testing.T) {
	srv, eng := newTestServer(t)
	if _, err := eng.RecordDebt(context.Background(), "alice", taxledger.Debt{
		Target: "treasury", Currency: "USD", Code: "sales", Amount: 5,
	}); err != nil {
		t.Fatal(err)
	}

	status, body := do(t, http.MethodPost, srv.URL+"/api/v1/tick", "")
	if status != http.StatusOK {
		t.Fatalf("tick status: got %d (%v)", status, body)
	}
	results, _ := body["results"].([]any)
	if len(results) != 1 {
		t.Fatalf("results: got %d, want 1", len(results))
	}

	resp, err := http.Get(srv.URL + "/api/v1/ledgers/alice/log?format=text")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	text, _ := io.ReadAll(resp.Body)
	if !strings.Contains(resp.Header.Get("Content-Type"), "text/plain") {
		t.Errorf("content type: got %q", resp.Header.Get("Content-Type"))
	}
	if !strings.Contains(string(text), "Description") {
		t.Errorf("log text missing header:\n%s", text)
	}

	_, list := do(t, http.MethodGet, srv.URL+"/api/v1/ledgers", "")
	if ledgers, _ := list["ledgers"].([]any); len(ledgers) != 1 {
		t.Errorf("ledgers: got %v", list["ledgers"])
	}
}

func TestHealthAndMetrics(t *testing.T) {
	srv, _ := newTestServer(t)

	status, body := do(t, http.MethodGet, srv.URL+"/healthz", "")
	if status != http.StatusOK || body["status"] != "ok" {
		t.Errorf("healthz: got %d %v", status, body)
	}

	resp, err := http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("metrics: got %d, want the injected handler's 404", resp.StatusCode)
	}
}
