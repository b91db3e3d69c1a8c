package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/spf13/cast"

	"call-auditor-go/internal/dataset"
	"call-auditor-go/internal/pipeline"
	"call-auditor-go/internal/types"
)

const (
	defaultLimit = 50
	maxLimit     = 500
)

func (s *Server) maxUploadBytes() int64 {
	return s.opts.MaxUploadMB << 20
}

func metadataFrom(r *http.Request) (types.CallMetadata, error) {
	meta := types.CallMetadata{
		AgentID:       strings.TrimSpace(r.FormValue("agent_id")),
		AgentName:     strings.TrimSpace(r.FormValue("agent_name")),
		CustomerName:  strings.TrimSpace(r.FormValue("customer_name")),
		CustomerPhone: strings.TrimSpace(r.FormValue("customer_phone")),
		CallType:      types.CallIncoming,
	}
	if raw := strings.TrimSpace(r.FormValue("call_type")); raw != "" {
		ct, ok := types.ParseCallType(raw)
		if !ok {
			return meta, fmt.Errorf("invalid call_type %q", raw)
		}
		meta.CallType = ct
	}
	return meta, nil
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes())
	if err := r.ParseMultipartForm(s.maxUploadBytes()); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form: "+err.Error())
		return
	}
	file, hdr, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing audio file field \"file\"")
		return
	}
	defer file.Close()

	meta, err := metadataFrom(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	rec, err := s.processor.ProcessAudio(r.Context(), meta, hdr.Filename, hdr.Header.Get("Content-Type"), file)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

type analyzeRequest struct {
	CallID        string     `json:"call_id"`
	CallDate      *time.Time `json:"call_date"`
	Transcript    string     `json:"transcript"`
	AgentID       string     `json:"agent_id"`
	AgentName     string     `json:"agent_name"`
	CustomerName  string     `json:"customer_name"`
	CustomerPhone string     `json:"customer_phone"`
	CallType      string     `json:"call_type"`
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, s.maxUploadBytes())).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	in := types.CallInput{
		CallID:   req.CallID,
		CallDate: req.CallDate,
		Text:     req.Transcript,
		Metadata: types.CallMetadata{
			AgentID:       req.AgentID,
			AgentName:     req.AgentName,
			CustomerName:  req.CustomerName,
			CustomerPhone: req.CustomerPhone,
			CallType:      types.CallIncoming,
		},
	}
	if req.CallType != "" {
		ct, ok := types.ParseCallType(req.CallType)
		if !ok {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid call_type %q", req.CallType))
			return
		}
		in.Metadata.CallType = ct
	}

	rec, err := s.processor.ProcessTranscript(r.Context(), in)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// handleImport audits every transcript row of an uploaded xlsx workbook.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes())
	if err := r.ParseMultipartForm(s.maxUploadBytes()); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form: "+err.Error())
		return
	}
	file, _, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing workbook field \"file\"")
		return
	}
	defer file.Close()

	inputs, err := dataset.ReadTranscripts(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	res, err := pipeline.Run(r.Context(), s.processor, inputs, s.opts.Workers, s.log)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func queryInt(r *http.Request, key string, def int) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def, nil
	}
	v, err := cast.ToIntE(raw)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("%s must be a non-negative integer", key)
	}
	return v, nil
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	skip, err := queryInt(r, "skip", 0)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	limit, err := queryInt(r, "limit", defaultLimit)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	calls, err := s.store.List(r.Context(), skip, limit)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, calls)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	rec, err := s.store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	rec, err := s.store.Delete(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if rec.AudioFilePath != "" {
		if err := os.Remove(rec.AudioFilePath); err != nil && !os.IsNotExist(err) {
			s.log.WithCall(id).WithField("error", err.Error()).Warn("failed to remove audio file")
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Call deleted successfully"})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	records, err := s.store.All(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var buf bytes.Buffer
	if err := dataset.ExportRecords(&buf, records); err != nil {
		s.fail(w, r, err)
		return
	}
	name := fmt.Sprintf("call_audits_%s.xlsx", s.now().UTC().Format("20060102"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}
