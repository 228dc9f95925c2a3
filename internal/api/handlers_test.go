package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/glagol-nlp/morfem/internal/store"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	st, err := store.Open(":memory:")
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	s := NewServer(Config{
		Host:           "127.0.0.1",
		Port:           0,
		AllowedOrigins: []string{"*"},
		ReadTimeout:    5 * time.Second,
		WriteTimeout:   5 * time.Second,
		Version:        "test",
		DriverType:     store.DriverType(),
		IngestWorkers:  2,
	}, st)
	go s.hub.Run()
	return s
}

func doJSON(t *testing.T, handler http.Handler, method, path string, body any) (*httptest.ResponseRecorder, APIResponse) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	var resp APIResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response body %q: %v", rec.Body.String(), err)
	}
	return rec, resp
}

func TestHealthEndpoint(t *testing.T) {
	s := newTestServer(t)
	rec, resp := doJSON(t, s.Handler(), http.MethodGet, "/health", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !resp.Success {
		t.Fatalf("success = false: %+v", resp.Error)
	}
	data := resp.Data.(map[string]any)
	if data["status"] != "ok" || data["version"] != "test" {
		t.Errorf("health = %v", data)
	}
}

func TestParseEndpoint(t *testing.T) {
	s := newTestServer(t)
	body := ParseRequest{Lines: []string{
		"придворный\tпри:PREF/двор:ROOT/н:SUFF/ый:END\tADJ",
		"broken line without tabs maybe",
	}}
	rec, resp := doJSON(t, s.Handler(), http.MethodPost, "/parse", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %+v", rec.Code, resp.Error)
	}
	data := resp.Data.(map[string]any)
	words := data["words"].([]any)
	if len(words) != 1 {
		t.Fatalf("words = %d, want 1", len(words))
	}
	w := words[0].(map[string]any)
	if w["text"] != "придворный" || w["pos"] != "ADJ" {
		t.Errorf("word = %v", w)
	}
	if len(w["morphemes"].([]any)) != 4 {
		t.Errorf("morphemes = %v", w["morphemes"])
	}
	rejected := data["rejected"].([]any)
	if len(rejected) != 1 {
		t.Fatalf("rejected = %d, want 1", len(rejected))
	}
}

func TestParseEndpointUnknownClassFails(t *testing.T) {
	s := newTestServer(t)
	body := ParseRequest{Lines: []string{"дом\tx\tдом:ROOT\tWAT"}}
	rec, resp := doJSON(t, s.Handler(), http.MethodPost, "/parse", body)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rec.Code)
	}
	if resp.Error == nil || resp.Error.Code != "UNKNOWN_CLASS" {
		t.Errorf("error = %+v", resp.Error)
	}
}

func TestEncodeEndpointSchemes(t *testing.T) {
	s := newTestServer(t)
	line := "дом\tдом:ROOT"

	_, full := doJSON(t, s.Handler(), http.MethodPost, "/encode",
		ParseRequest{Lines: []string{line}, Scheme: "full"})
	labels := full.Data.(map[string]any)["words"].([]any)[0].(map[string]any)["labels"].([]any)
	want := []string{"B-ROOT", "M-ROOT", "E-ROOT"}
	for i, l := range labels {
		if l != want[i] {
			t.Errorf("full[%d] = %v, want %s", i, l, want[i])
		}
	}

	_, simple := doJSON(t, s.Handler(), http.MethodPost, "/encode",
		ParseRequest{Lines: []string{line}, Scheme: "simple"})
	labels = simple.Data.(map[string]any)["words"].([]any)[0].(map[string]any)["labels"].([]any)
	want = []string{"B-ROOT", "ROOT", "ROOT"}
	for i, l := range labels {
		if l != want[i] {
			t.Errorf("simple[%d] = %v, want %s", i, l, want[i])
		}
	}

	rec, _ := doJSON(t, s.Handler(), http.MethodPost, "/encode",
		ParseRequest{Lines: []string{line}, Scheme: "bogus"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bogus scheme status = %d, want 400", rec.Code)
	}
}

func TestDecodeEndpoint(t *testing.T) {
	s := newTestServer(t)
	body := DecodeRequest{Labels: [][]string{{"B-ROOT", "ROOT", "ROOT"}}}
	rec, resp := doJSON(t, s.Handler(), http.MethodPost, "/decode", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	out := resp.Data.(map[string]any)["labels"].([]any)[0].([]any)
	want := []string{"B-ROOT", "M-ROOT", "E-ROOT"}
	for i, l := range out {
		if l != want[i] {
			t.Errorf("decoded[%d] = %v, want %s", i, l, want[i])
		}
	}
}

func TestScoreEndpoint(t *testing.T) {
	s := newTestServer(t)
	body := ScoreRequest{
		GoldLines: []string{"дом\tдом:ROOT"},
		Predicted: [][]string{{"B-ROOT", "ROOT", "ROOT"}},
	}
	rec, resp := doJSON(t, s.Handler(), http.MethodPost, "/score", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %+v", rec.Code, resp.Error)
	}
	m := resp.Data.(map[string]any)
	if m["f1"] != 1.0 || m["word_accuracy"] != 1.0 {
		t.Errorf("metrics = %v", m)
	}
}

func TestScoreEndpointLengthMismatch(t *testing.T) {
	s := newTestServer(t)
	body := ScoreRequest{
		GoldLines: []string{"дом\tдом:ROOT"},
		Predicted: [][]string{},
	}
	rec, resp := doJSON(t, s.Handler(), http.MethodPost, "/score", body)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if resp.Error == nil || resp.Error.Code != "LENGTH_MISMATCH" {
		t.Errorf("error = %+v", resp.Error)
	}
}

func TestScoreEndpointRejectsBadGoldLine(t *testing.T) {
	s := newTestServer(t)
	body := ScoreRequest{
		GoldLines: []string{"дом\tдом:ROOT", "garbage"},
		Predicted: [][]string{{"B-ROOT", "ROOT", "ROOT"}, {"B-ROOT"}},
	}
	rec, resp := doJSON(t, s.Handler(), http.MethodPost, "/score", body)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if resp.Error == nil || resp.Error.Code != "BAD_GOLD_LINE" {
		t.Fatalf("error = %+v", resp.Error)
	}
	if !strings.Contains(resp.Error.Message, "gold line 1") {
		t.Errorf("message = %q, want rejected line index", resp.Error.Message)
	}
}

func TestDatasetsEmpty(t *testing.T) {
	s := newTestServer(t)
	rec, resp := doJSON(t, s.Handler(), http.MethodGet, "/datasets", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !resp.Success {
		t.Fatalf("success = false")
	}
	if resp.Meta.Total != 0 {
		t.Errorf("total = %d, want 0", resp.Meta.Total)
	}
}

func TestDatasetByIDNotFound(t *testing.T) {
	s := newTestServer(t)
	rec, _ := doJSON(t, s.Handler(), http.MethodGet, "/datasets/no-such-id", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestVersionEndpoint(t *testing.T) {
	s := newTestServer(t)
	rec, resp := doJSON(t, s.Handler(), http.MethodGet, "/version", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	data := resp.Data.(map[string]any)
	if data["version"] != "test" || data["driver"] == "" {
		t.Errorf("version = %v", data)
	}
}

func TestRootListsEndpoints(t *testing.T) {
	s := newTestServer(t)
	rec, resp := doJSON(t, s.Handler(), http.MethodGet, "/", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if resp.Data.(map[string]any)["name"] != "morfem API" {
		t.Errorf("data = %v", resp.Data)
	}
}

func TestUnknownPathIs404(t *testing.T) {
	s := newTestServer(t)
	rec, resp := doJSON(t, s.Handler(), http.MethodGet, "/nope", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
	if resp.Success {
		t.Error("success = true for 404")
	}
}

func TestMethodNotAllowed(t *testing.T) {
	s := newTestServer(t)
	rec, _ := doJSON(t, s.Handler(), http.MethodGet, "/score", nil)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rec.Code)
	}
}
