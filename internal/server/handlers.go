package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"tornado/internal/assets"
	"tornado/internal/canvas"
	"tornado/internal/docstore"
)

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]string{"error": err.Error()})
}

// storeError maps a store failure to a response and counts it.
func (s *Server) storeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	if errors.Is(err, docstore.ErrNotFound) {
		writeError(w, http.StatusNotFound, err)
		return
	}
	s.metrics.StoreErrors.WithLabelValues(op).Inc()
	s.logger.Error("store operation failed",
		zap.String("operation", op),
		zap.String("path", r.URL.Path),
		zap.Error(err),
	)
	writeError(w, http.StatusInternalServerError, err)
}

// projectID returns the unescaped {id} parameter. chi matches on RawPath
// when the request carried escapes the default encoding would not produce.
func projectID(r *http.Request) string {
	id := chi.URLParam(r, "id")
	if r.URL.RawPath != "" {
		if u, err := url.PathUnescape(id); err == nil {
			return u
		}
	}
	return id
}

func decodeProjectRequest(r *http.Request) (docstore.ProjectRequest, error) {
	var req docstore.ProjectRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<16)).Decode(&req); err != nil {
		return req, fmt.Errorf("invalid request body: %w", err)
	}
	req.Name = strings.TrimSpace(req.Name)
	return req, docstore.ValidateRequest(req)
}

func (s *Server) healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) listProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := s.store.List(r.Context())
	if err != nil {
		s.storeError(w, r, "list", err)
		return
	}
	if projects == nil {
		projects = []docstore.Project{}
	}
	writeJSON(w, http.StatusOK, projects)
}

func (s *Server) createProject(w http.ResponseWriter, r *http.Request) {
	req, err := decodeProjectRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	p, err := s.store.Create(r.Context(), req.Name)
	if err != nil {
		s.storeError(w, r, "create", err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (s *Server) renameProject(w http.ResponseWriter, r *http.Request) {
	req, err := decodeProjectRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.store.Rename(r.Context(), projectID(r), req.Name); err != nil {
		s.storeError(w, r, "rename", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) deleteProject(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Delete(r.Context(), projectID(r)); err != nil {
		s.storeError(w, r, "delete", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) loadNodes(w http.ResponseWriter, r *http.Request) {
	nodes, err := s.store.Load(r.Context(), projectID(r))
	if err != nil {
		s.storeError(w, r, "load", err)
		return
	}
	writeJSON(w, http.StatusOK, canvas.Clone(nodes))
}

// saveNodes replaces the board. Invalid records are dropped rather than
// failing the whole write.
func (s *Server) saveNodes(w http.ResponseWriter, r *http.Request) {
	var nodes []canvas.Node
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxNodesBody)).Decode(&nodes); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}
	id := projectID(r)
	nodes, dropped := docstore.Sanitize(nodes)
	if dropped > 0 {
		s.logger.Warn("dropped invalid nodes on save", zap.String("project", id), zap.Int("count", dropped))
	}
	if err := s.store.Save(r.Context(), id, nodes); err != nil {
		s.storeError(w, r, "save", err)
		return
	}
	s.metrics.NodesSaved.Add(float64(len(nodes)))
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) uploadAsset(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	file, hdr, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("missing file: %w", err))
		return
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if _, _, err := assets.Check(data); err != nil {
		writeError(w, http.StatusUnsupportedMediaType, err)
		return
	}
	link, err := s.assets.Upload(r.Context(), hdr.Filename, data)
	if err != nil {
		s.logger.Error("asset write failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.metrics.AssetsUploaded.Inc()
	writeJSON(w, http.StatusCreated, assets.UploadResponse{URL: s.baseURL(r) + link})
}

func (s *Server) serveAsset(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	f, err := s.assets.Open(name)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil || info.IsDir() {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	http.ServeContent(w, r, name, info.ModTime(), f)
}

func (s *Server) baseURL(r *http.Request) string {
	if s.publicURL != "" {
		return s.publicURL
	}
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if p := r.Header.Get("X-Forwarded-Proto"); p != "" {
		scheme = p
	}
	return scheme + "://" + r.Host
}
