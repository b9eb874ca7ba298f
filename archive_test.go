package main

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/mmdatafocus/stockcount_archiver/config"
	"github.com/mmdatafocus/stockcount_archiver/graphapi"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	m.Run()
}

// fakeBackend stands in for both the Entra ID token endpoint and the Graph
// API so handler tests can assert which outbound calls were (not) made.
type fakeBackend struct {
	mu sync.Mutex

	tokenHits  int
	siteHits   int
	uploadHits int

	tokenStatus int
	siteIds     []string
	uploadBody  []byte
}

func (f *fakeBackend) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()

		switch {
		case strings.HasSuffix(r.URL.Path, "/oauth2/v2.0/token"):
			f.tokenHits++
			if f.tokenStatus != 0 {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(f.tokenStatus)
				w.Write([]byte(`{"error":"invalid_client"}`))
				return
			}
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"access_token":"test-token","token_type":"Bearer","expires_in":3600}`))

		case r.URL.Path == "/v1.0/sites":
			f.siteHits++
			sites := make([]map[string]string, 0, len(f.siteIds))
			for _, id := range f.siteIds {
				sites = append(sites, map[string]string{"id": id, "displayName": "Operations Stock Count"})
			}
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]any{"value": sites})

		case r.Method == http.MethodPut && strings.Contains(r.URL.Path, "/drive/root:"):
			f.uploadHits++
			f.uploadBody, _ = io.ReadAll(r.Body)
			w.WriteHeader(http.StatusCreated)
			w.Write([]byte(`{"id":"item-1"}`))

		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}
}

func testRouter(t *testing.T, fake *fakeBackend) *gin.Engine {
	t.Helper()
	t.Setenv("ARCHIVE_MIRROR_GCS_BUCKET", "")

	ts := httptest.NewServer(fake.handler())
	t.Cleanup(ts.Close)

	cfg := &config.SharePointConfig{
		TenantId:     "test-tenant",
		ClientId:     "test-client",
		ClientSecret: "test-secret",
		SiteName:     "Operations Stock Count",
		LibraryName:  "Documents",
		LoginBaseURL: ts.URL,
		GraphBaseURL: ts.URL,
	}
	return newRouter(graphapi.NewClient(cfg), cfg)
}

type archiveResponse struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

func doRequest(t *testing.T, r *gin.Engine, method, body string) (int, archiveResponse) {
	t.Helper()
	var reqBody io.Reader
	if body != "" {
		reqBody = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, "/api/archive", reqBody)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var parsed archiveResponse
	if err := json.Unmarshal(w.Body.Bytes(), &parsed); err != nil {
		t.Fatalf("response is not JSON: %q", w.Body.String())
	}
	return w.Code, parsed
}

const validBatch = `{"data":[{"itemId":"A1","systemQty":10,"initialPhysicalQty":8,"finalPhysicalQty":10,"difference":0,"status":"MATCH","recountHistory":[8,10]}]}`

func TestArchive_MethodNotAllowed(t *testing.T) {
	fake := &fakeBackend{siteIds: []string{"site-123"}}
	r := testRouter(t, fake)

	for _, method := range []string{http.MethodGet, http.MethodPut, http.MethodDelete} {
		code, resp := doRequest(t, r, method, "")
		if code != http.StatusMethodNotAllowed {
			t.Fatalf("%s: expected 405, got %d", method, code)
		}
		if resp.Message != "Method Not Allowed" {
			t.Fatalf("%s: unexpected message %q", method, resp.Message)
		}
	}
	if fake.tokenHits != 0 || fake.siteHits != 0 || fake.uploadHits != 0 {
		t.Fatal("rejected methods must not trigger network calls")
	}
}

func TestArchive_EmptyBatchRejected(t *testing.T) {
	fake := &fakeBackend{siteIds: []string{"site-123"}}
	r := testRouter(t, fake)

	for _, body := range []string{`{}`, `{"data":[]}`, `not json`} {
		code, resp := doRequest(t, r, http.MethodPost, body)
		if code != http.StatusBadRequest {
			t.Fatalf("body %q: expected 400, got %d", body, code)
		}
		if resp.Message != "No data received to archive." {
			t.Fatalf("body %q: unexpected message %q", body, resp.Message)
		}
	}
	if fake.tokenHits != 0 || fake.siteHits != 0 || fake.uploadHits != 0 {
		t.Fatal("rejected batches must not trigger network calls")
	}
}

func TestArchive_AuthFailureShortCircuits(t *testing.T) {
	fake := &fakeBackend{tokenStatus: http.StatusUnauthorized, siteIds: []string{"site-123"}}
	r := testRouter(t, fake)

	code, resp := doRequest(t, r, http.MethodPost, validBatch)
	if code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", code)
	}
	if resp.Message != "An error occurred." || resp.Error == "" {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if fake.siteHits != 0 || fake.uploadHits != 0 {
		t.Fatalf("auth failure must stop the pipeline, got sites=%d uploads=%d", fake.siteHits, fake.uploadHits)
	}
}

func TestArchive_SiteNotFoundShortCircuits(t *testing.T) {
	fake := &fakeBackend{} // no sites
	r := testRouter(t, fake)

	code, resp := doRequest(t, r, http.MethodPost, validBatch)
	if code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", code)
	}
	if !strings.Contains(resp.Error, "Operations Stock Count") {
		t.Fatalf("error should reference the configured site: %q", resp.Error)
	}
	if fake.uploadHits != 0 {
		t.Fatal("no upload may happen when site resolution fails")
	}
}

func TestArchive_Success(t *testing.T) {
	fake := &fakeBackend{siteIds: []string{"site-123"}}
	r := testRouter(t, fake)

	code, resp := doRequest(t, r, http.MethodPost, validBatch)
	if code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%+v)", code, resp)
	}

	pattern := regexp.MustCompile(`^Successfully archived Inventory-Comparison-\d{4}-\d{2}-\d{2}-[0-9a-z]+\.csv to SharePoint\.$`)
	if !pattern.MatchString(resp.Message) {
		t.Fatalf("unexpected success message: %q", resp.Message)
	}

	if fake.uploadHits != 1 {
		t.Fatalf("expected exactly one upload, got %d", fake.uploadHits)
	}
	wantBody := "ItemID,SystemBalance,InitialPhysical,FinalPhysical,Difference,Status,RecountHistory\n" +
		`"A1",10,8,10,0,"MATCH","8|10"`
	if string(fake.uploadBody) != wantBody {
		t.Fatalf("uploaded CSV mismatch:\ngot:  %q\nwant: %q", fake.uploadBody, wantBody)
	}
}

func TestHealthz(t *testing.T) {
	fake := &fakeBackend{}
	r := testRouter(t, fake)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", w.Code)
	}
}
