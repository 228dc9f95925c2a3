package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/glagol-nlp/morfem/core/codec"
	"github.com/glagol-nlp/morfem/core/corpus"
	apperrors "github.com/glagol-nlp/morfem/core/errors"
	"github.com/glagol-nlp/morfem/core/eval"
	"github.com/glagol-nlp/morfem/core/morpheme"
	"github.com/glagol-nlp/morfem/internal/ingest"
	"github.com/glagol-nlp/morfem/internal/logging"
)

// APIResponse is the standard API response wrapper.
type APIResponse struct {
	Success bool      `json:"success"`
	Data    any       `json:"data,omitempty"`
	Error   *APIError `json:"error,omitempty"`
	Meta    *APIMeta  `json:"meta,omitempty"`
}

// APIError represents an API error.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// APIMeta contains response metadata.
type APIMeta struct {
	Total     int    `json:"total,omitempty"`
	Timestamp string `json:"timestamp"`
}

// MorphemeInfo is one labeled segment of a parsed word.
type MorphemeInfo struct {
	Text  string `json:"text"`
	Kind  string `json:"kind"`
	Start int    `json:"start"`
	Len   int    `json:"len"`
}

// WordInfo is the parsed view of one corpus record.
type WordInfo struct {
	Text      string         `json:"text"`
	POS       string         `json:"pos"`
	Morphemes []MorphemeInfo `json:"morphemes"`
}

// RejectedRecord reports one input line the parser refused.
type RejectedRecord struct {
	Index  int    `json:"index"`
	Line   string `json:"line"`
	Reason string `json:"reason"`
}

// ParseRequest is the request body for /parse and /encode.
type ParseRequest struct {
	Lines []string `json:"lines"`
	// Scheme selects the label alphabet for /encode: "full" (default)
	// or "simple".
	Scheme string `json:"scheme,omitempty"`
}

// EncodedWord pairs a wordform with its per-letter labels.
type EncodedWord struct {
	Word   string   `json:"word"`
	Labels []string `json:"labels"`
}

// DecodeRequest is the request body for /decode.
type DecodeRequest struct {
	Labels [][]string `json:"labels"`
}

// ScoreRequest is the request body for /score. GoldLines are corpus
// records; Predicted holds index-aligned simple-scheme label
// sequences.
type ScoreRequest struct {
	GoldLines []string   `json:"gold_lines"`
	Predicted [][]string `json:"predicted"`
	Verbose   bool       `json:"verbose,omitempty"`
}

// HealthInfo is the health check response.
type HealthInfo struct {
	Status   string `json:"status"`
	Version  string `json:"version"`
	Uptime   string `json:"uptime"`
	Driver   string `json:"driver"`
	Datasets int    `json:"datasets"`
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		respondError(w, http.StatusNotFound, "NOT_FOUND", "Endpoint not found")
		return
	}
	respond(w, http.StatusOK, map[string]any{
		"name":    "morfem API",
		"version": s.cfg.Version,
		"endpoints": []string{
			"GET /health",
			"GET /version",
			"POST /parse",
			"POST /encode",
			"POST /decode",
			"POST /score",
			"GET /datasets",
			"GET /datasets/:id",
			"DELETE /datasets/:id",
			"POST /jobs",
			"GET /jobs",
			"GET /jobs/:id",
			"DELETE /jobs/:id",
			"WS /ws",
		},
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Use GET")
		return
	}
	datasets := 0
	if s.store != nil {
		if list, err := s.store.ListDatasets(r.Context()); err == nil {
			datasets = len(list)
		}
	}
	respond(w, http.StatusOK, HealthInfo{
		Status:   "ok",
		Version:  s.cfg.Version,
		Uptime:   time.Since(s.started).Round(time.Second).String(),
		Driver:   s.cfg.DriverType,
		Datasets: datasets,
	})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Use GET")
		return
	}
	respond(w, http.StatusOK, map[string]string{
		"version": s.cfg.Version,
		"driver":  s.cfg.DriverType,
	})
}

func (s *Server) handleParse(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeParseRequest(w, r)
	if !ok {
		return
	}
	words, rejected, err := parseLines(req.Lines)
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, "UNKNOWN_CLASS", err.Error())
		return
	}
	infos := make([]WordInfo, len(words))
	for i, wd := range words {
		infos[i] = wordInfo(wd)
	}
	respond(w, http.StatusOK, map[string]any{
		"words":    infos,
		"rejected": rejected,
	})
}

func (s *Server) handleEncode(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeParseRequest(w, r)
	if !ok {
		return
	}
	encode := codec.EncodeFull
	switch req.Scheme {
	case "", "full":
	case "simple":
		encode = codec.EncodeSimple
	default:
		respondError(w, http.StatusBadRequest, "BAD_SCHEME",
			fmt.Sprintf("unknown scheme %q, want full or simple", req.Scheme))
		return
	}
	words, rejected, err := parseLines(req.Lines)
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, "UNKNOWN_CLASS", err.Error())
		return
	}
	encoded := make([]EncodedWord, len(words))
	for i, wd := range words {
		encoded[i] = EncodedWord{Word: wd.Text(), Labels: encode(wd)}
	}
	respond(w, http.StatusOK, map[string]any{
		"words":    encoded,
		"rejected": rejected,
	})
}

func (s *Server) handleDecode(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Use POST")
		return
	}
	var req DecodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "BAD_JSON", err.Error())
		return
	}
	out := make([][]string, len(req.Labels))
	for i, seq := range req.Labels {
		out[i] = codec.DecodeSimple(seq)
	}
	respond(w, http.StatusOK, map[string]any{"labels": out})
}

func (s *Server) handleScore(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Use POST")
		return
	}
	var req ScoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "BAD_JSON", err.Error())
		return
	}
	words, rejected, err := parseLines(req.GoldLines)
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, "UNKNOWN_CLASS", err.Error())
		return
	}
	// Scoring needs every gold line: dropping rejects would shift the
	// alignment against the predicted sequences.
	if len(rejected) > 0 {
		respondError(w, http.StatusBadRequest, "BAD_GOLD_LINE",
			fmt.Sprintf("gold line %d rejected: %s", rejected[0].Index, rejected[0].Reason))
		return
	}
	metrics, err := eval.ScoreSimple(req.Predicted, words, eval.Options{Verbose: req.Verbose})
	if err != nil {
		switch {
		case apperrors.Is(err, apperrors.ErrLengthMismatch):
			respondError(w, http.StatusBadRequest, "LENGTH_MISMATCH", err.Error())
		case apperrors.Is(err, apperrors.ErrUndefinedMetric):
			respondError(w, http.StatusUnprocessableEntity, "UNDEFINED_METRIC", err.Error())
		default:
			respondError(w, http.StatusInternalServerError, "SCORE_FAILED", err.Error())
		}
		return
	}
	respond(w, http.StatusOK, metrics)
}

func (s *Server) handleDatasets(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		respondError(w, http.StatusServiceUnavailable, "NO_STORE", "Dataset store not configured")
		return
	}
	if r.Method != http.MethodGet {
		respondError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Use GET")
		return
	}
	list, err := s.store.ListDatasets(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "STORE_FAILED", err.Error())
		return
	}
	respondWithTotal(w, http.StatusOK, list, len(list))
}

func (s *Server) handleDatasetByID(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		respondError(w, http.StatusServiceUnavailable, "NO_STORE", "Dataset store not configured")
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/datasets/")
	if id == "" || strings.Contains(id, "/") {
		respondError(w, http.StatusNotFound, "NOT_FOUND", "Dataset not found")
		return
	}

	switch r.Method {
	case http.MethodGet:
		d, err := s.store.GetDataset(r.Context(), id)
		if err != nil {
			respondError(w, http.StatusNotFound, "NOT_FOUND", err.Error())
			return
		}
		if r.URL.Query().Get("stats") != "" {
			stats, err := s.store.DatasetStats(r.Context(), id)
			if err != nil {
				respondError(w, http.StatusInternalServerError, "STORE_FAILED", err.Error())
				return
			}
			respond(w, http.StatusOK, map[string]any{"dataset": d, "stats": stats})
			return
		}
		respond(w, http.StatusOK, d)
	case http.MethodDelete:
		if err := s.store.DeleteDataset(r.Context(), id); err != nil {
			respondError(w, http.StatusNotFound, "NOT_FOUND", err.Error())
			return
		}
		respond(w, http.StatusOK, map[string]string{"deleted": id})
	default:
		respondError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Use GET or DELETE")
	}
}

func (s *Server) handleJobs(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		jobs := s.jobs.List()
		respondWithTotal(w, http.StatusOK, jobs, len(jobs))
	case http.MethodPost:
		var req IngestRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "BAD_JSON", err.Error())
			return
		}
		if req.Path == "" {
			respondError(w, http.StatusBadRequest, "MISSING_PATH", "path is required")
			return
		}
		if s.store == nil {
			respondError(w, http.StatusServiceUnavailable, "NO_STORE", "Dataset store not configured")
			return
		}
		job := s.jobs.Create(req)
		go s.runIngestJob(job.ID, req)
		respond(w, http.StatusAccepted, job)
	default:
		respondError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Use GET or POST")
	}
}

func (s *Server) handleJobByID(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/jobs/")
	if id == "" || strings.Contains(id, "/") {
		respondError(w, http.StatusNotFound, "NOT_FOUND", "Job not found")
		return
	}

	switch r.Method {
	case http.MethodGet:
		job, ok := s.jobs.Get(id)
		if !ok {
			respondError(w, http.StatusNotFound, "NOT_FOUND", "Job not found")
			return
		}
		respond(w, http.StatusOK, job)
	case http.MethodDelete:
		if err := s.jobs.Cancel(id); err != nil {
			respondError(w, http.StatusConflict, "CANCEL_FAILED", err.Error())
			return
		}
		respond(w, http.StatusOK, map[string]string{"cancelled": id})
	default:
		respondError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Use GET or DELETE")
	}
}

// runIngestJob executes one ingest job to completion, broadcasting
// progress over the WebSocket hub.
func (s *Server) runIngestJob(jobID string, req IngestRequest) {
	const op = "ingest"
	ctx := s.jobs.Context(jobID)

	s.jobs.Update(jobID, JobStatusRunning, 10, nil, "")
	s.hub.BroadcastProgress(op, "loading", req.Path, 10)

	res, err := ingest.File(ctx, req.Path, ingest.Options{
		Workers:      s.cfg.IngestWorkers,
		MaxLineBytes: s.cfg.MaxLineBytes,
		Verify:       req.Verify,
	})
	if err != nil {
		s.failJob(ctx, jobID, op, err)
		return
	}

	s.jobs.Update(jobID, JobStatusRunning, 60, nil, "")
	s.hub.BroadcastProgress(op, "storing", req.Path, 60)

	name := req.Name
	if name == "" {
		name = req.Path
	}
	datasetID, err := s.store.CreateDataset(ctx, name, req.Path, res.SourceHash)
	if err != nil {
		s.failJob(ctx, jobID, op, err)
		return
	}
	if err := s.store.InsertWords(ctx, datasetID, res.Words); err != nil {
		s.failJob(ctx, jobID, op, err)
		return
	}

	result := &IngestResult{
		DatasetID:  datasetID,
		Loaded:     res.Loaded,
		Skipped:    res.Skipped,
		SourceHash: res.SourceHash,
		MaxLen:     res.MaxLen,
	}
	s.jobs.Update(jobID, JobStatusCompleted, 100, result, "")
	s.hub.BroadcastComplete(op, name, map[string]any{
		"dataset_id": datasetID,
		"loaded":     res.Loaded,
		"skipped":    len(res.Skipped),
	})
}

func (s *Server) failJob(ctx context.Context, jobID, op string, err error) {
	status := JobStatusFailed
	if ctx.Err() != nil {
		status = JobStatusCancelled
	}
	s.jobs.Fail(jobID, status, err.Error())
	s.hub.BroadcastError(op, err.Error())
	logging.Error("ingest job failed", "job_id", jobID, "error", err)
}

// parseLines parses corpus records, collecting recoverable rejections.
// A non-recoverable error aborts with the failing line number attached.
func parseLines(lines []string) ([]*morpheme.Word, []RejectedRecord, error) {
	var words []*morpheme.Word
	var rejected []RejectedRecord
	for i, line := range lines {
		wd, err := corpus.ParseLine(line)
		if err != nil {
			if apperrors.Recoverable(err) {
				rejected = append(rejected, RejectedRecord{Index: i, Line: line, Reason: err.Error()})
				continue
			}
			return nil, nil, apperrors.WithLine(err, i+1)
		}
		words = append(words, wd)
	}
	return words, rejected, nil
}

func decodeParseRequest(w http.ResponseWriter, r *http.Request) (ParseRequest, bool) {
	var req ParseRequest
	if r.Method != http.MethodPost {
		respondError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Use POST")
		return req, false
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "BAD_JSON", err.Error())
		return req, false
	}
	if len(req.Lines) == 0 {
		respondError(w, http.StatusBadRequest, "MISSING_LINES", "lines is required")
		return req, false
	}
	return req, true
}

func wordInfo(w *morpheme.Word) WordInfo {
	ms := w.Morphemes()
	infos := make([]MorphemeInfo, len(ms))
	for i, m := range ms {
		infos[i] = MorphemeInfo{
			Text:  m.Text(),
			Kind:  string(m.Kind()),
			Start: m.Start(),
			Len:   m.Len(),
		}
	}
	return WordInfo{Text: w.Text(), POS: w.POS(), Morphemes: infos}
}

func respond(w http.ResponseWriter, status int, data any) {
	writeResponse(w, status, APIResponse{
		Success: true,
		Data:    data,
		Meta:    &APIMeta{Timestamp: time.Now().UTC().Format(time.RFC3339)},
	})
}

func respondWithTotal(w http.ResponseWriter, status int, data any, total int) {
	writeResponse(w, status, APIResponse{
		Success: true,
		Data:    data,
		Meta: &APIMeta{
			Total:     total,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		},
	})
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	writeResponse(w, status, APIResponse{
		Success: false,
		Error:   &APIError{Code: code, Message: message},
		Meta:    &APIMeta{Timestamp: time.Now().UTC().Format(time.RFC3339)},
	})
}

func writeResponse(w http.ResponseWriter, status int, resp APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(resp)
}
