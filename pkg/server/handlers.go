package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/matzehuels/treeflow/pkg/buildinfo"
	"github.com/matzehuels/treeflow/pkg/document"
	"github.com/matzehuels/treeflow/pkg/errors"
	"github.com/matzehuels/treeflow/pkg/graph"
	"github.com/matzehuels/treeflow/pkg/pipeline"
	"github.com/matzehuels/treeflow/pkg/store"
)

// =============================================================================
// Meta
// =============================================================================

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) version(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, buildinfo.Get())
}

type componentView struct {
	Type        string   `json:"type"`
	Description string   `json:"description"`
	Inputs      []string `json:"inputs,omitempty"`
	Outputs     []string `json:"outputs,omitempty"`
}

// listComponents describes every registered type. Slot names are taken
// from a default-constructed instance where the type allows one.
func (s *Server) listComponents(w http.ResponseWriter, r *http.Request) {
	reg := s.runner.Registry
	var out []componentView
	for _, info := range reg.Types() {
		v := componentView{Type: info.Type, Description: info.Description}
		if def, err := reg.New(info.Type, nil); err == nil {
			for _, in := range def.Inputs {
				v.Inputs = append(v.Inputs, in.Name)
			}
			for _, o := range def.Outputs {
				v.Outputs = append(v.Outputs, o.Name)
			}
		}
		out = append(out, v)
	}
	writeJSON(w, http.StatusOK, out)
}

// =============================================================================
// Solve and Render
// =============================================================================

type solveResponse struct {
	DocumentHash string             `json:"document_hash"`
	Summary      pipeline.Summary   `json:"summary"`
	Results      []document.Result  `json:"results"`
	Artifacts    map[string][]byte  `json:"artifacts,omitempty"`
	Stats        pipeline.Stats     `json:"stats"`
	Cache        pipeline.CacheInfo `json:"cache"`
}

// decodeOptions reads pipeline options from the body. Reading documents
// from the server's filesystem is not allowed over HTTP.
func (s *Server) decodeOptions(r *http.Request) (pipeline.Options, error) {
	var opts pipeline.Options
	if err := decodeJSON(r, &opts); err != nil {
		return opts, err
	}
	if opts.Path != "" {
		return opts, errors.New(errors.ErrCodeInvalidInput, "path sources are not accepted over HTTP")
	}
	if opts.Timeout <= 0 || opts.Timeout > s.timeout {
		opts.Timeout = s.timeout
	}
	return opts, nil
}

func (s *Server) solve(w http.ResponseWriter, r *http.Request) {
	opts, err := s.decodeOptions(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	res, err := s.runner.Execute(r.Context(), opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, solveResponse{
		DocumentHash: res.DocumentHash,
		Summary:      pipeline.Summarize(res.Report),
		Results:      res.Results,
		Artifacts:    res.Artifacts,
		Stats:        res.Stats,
		Cache:        res.CacheInfo,
	})
}

var contentTypes = map[string]string{
	pipeline.FormatDOT: "text/vnd.graphviz",
	pipeline.FormatSVG: "image/svg+xml",
	pipeline.FormatPNG: "image/png",
}

func (s *Server) render(w http.ResponseWriter, r *http.Request) {
	format := chi.URLParam(r, "format")
	if err := pipeline.ValidateFormat(format); err != nil {
		s.writeError(w, r, err)
		return
	}
	opts, err := s.decodeOptions(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	opts.Formats = []string{format}

	res, err := s.runner.Execute(r.Context(), opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", contentTypes[format])
	w.Header().Set("X-Document-Hash", res.DocumentHash)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(res.Artifacts[format])
}

// =============================================================================
// Documents
// =============================================================================

func (s *Server) listDocuments(w http.ResponseWriter, r *http.Request) {
	keys, err := s.runner.Docs.List(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if keys == nil {
		keys = []string{}
	}
	writeJSON(w, http.StatusOK, map[string][]string{"keys": keys})
}

func (s *Server) getDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := store.LoadDocument(r.Context(), s.runner.Docs, chi.URLParam(r, "key"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// putDocument stores a document after checking that it builds.
func (s *Server) putDocument(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	var doc document.Document
	if err := decodeJSON(r, &doc); err != nil {
		s.writeError(w, r, err)
		return
	}
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	if doc.Version == 0 {
		doc.Version = document.Version
	}
	if _, err := doc.Build(s.runner.Registry); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := store.SaveDocument(r.Context(), s.runner.Docs, key, doc); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"key": key, "id": doc.ID})
}

func (s *Server) deleteDocument(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	if err := errors.ValidateKey(key); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.runner.Docs.Delete(r.Context(), key); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// Sessions
// =============================================================================

type createSessionRequest struct {
	Document *document.Document `json:"document,omitempty"`
	Key      string             `json:"key,omitempty"`
}

type sessionView struct {
	ID       string             `json:"id"`
	Name     string             `json:"name,omitempty"`
	Document *document.Document `json:"document,omitempty"`
	Summary  *pipeline.Summary  `json:"summary,omitempty"`
	Results  []document.Result  `json:"results"`
}

func (s *Server) createSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	opts := pipeline.Options{Document: req.Document, Key: req.Key}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		s.writeError(w, r, err)
		return
	}
	doc, err := s.runner.Load(r.Context(), opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	sess, err := s.sessions.Create(doc)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	view := sessionView{ID: sess.ID, Name: sess.Name}
	err = s.sessions.With(sess.ID, func(g *graph.Graph) error {
		return s.solveInto(r.Context(), g, graph.ModeFull, &view)
	})
	if err != nil {
		_ = s.sessions.Delete(sess.ID)
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, view)
}

func (s *Server) getSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	view := sessionView{ID: id}
	var etag string
	err := s.sessions.With(id, func(g *graph.Graph) error {
		doc := document.FromGraph(g, "")
		view.Document = &doc
		view.Results = document.Results(g)
		etag = outputsETag(g)
		return nil
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("ETag", etag)
	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// outputsETag digests the fingerprints of every output tree in component
// order. It changes exactly when some output value changes.
func outputsETag(g *graph.Graph) string {
	var sb strings.Builder
	for _, c := range g.Components() {
		for i := range c.NumOutputs() {
			tree, _ := g.OutputTree(graph.SlotRef{Component: c.ID(), Slot: i})
			sb.WriteString(tree.Fingerprint())
			sb.WriteByte(';')
		}
	}
	return `"` + store.Hash([]byte(sb.String()))[:32] + `"`
}

func (s *Server) deleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.Delete(chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type setsRequest struct {
	Sets []pipeline.Set `json:"sets"`
}

func (s *Server) sessionSets(w http.ResponseWriter, r *http.Request) {
	var req setsRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.editSession(w, r, func(g *graph.Graph) error {
		for _, set := range req.Sets {
			if err := set.Apply(g); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Server) sessionConnect(w http.ResponseWriter, r *http.Request) {
	var conn graph.Connection
	if err := decodeJSON(r, &conn); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.editSession(w, r, func(g *graph.Graph) error {
		return g.AddConnection(conn.From, conn.To)
	})
}

func (s *Server) sessionDisconnect(w http.ResponseWriter, r *http.Request) {
	var conn graph.Connection
	if err := decodeJSON(r, &conn); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.editSession(w, r, func(g *graph.Graph) error {
		return g.DeleteConnection(conn.From, conn.To)
	})
}

// editSession applies edit and quick-solves. An edit that fails leaves
// the graph as the edit left it; nothing is rolled back.
func (s *Server) editSession(w http.ResponseWriter, r *http.Request, edit func(*graph.Graph) error) {
	id := chi.URLParam(r, "id")
	view := sessionView{ID: id}
	err := s.sessions.With(id, func(g *graph.Graph) error {
		if err := edit(g); err != nil {
			return err
		}
		return s.solveInto(r.Context(), g, graph.ModeQuick, &view)
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) solveInto(ctx context.Context, g *graph.Graph, mode string, view *sessionView) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	report, err := pipeline.Solve(ctx, g, mode)
	if errors.Is(err, errors.ErrCodeTimeout) {
		// the abandoned pass may still be writing to g
		_ = s.sessions.Delete(view.ID)
	}
	if err != nil {
		return err
	}
	summary := pipeline.Summarize(report)
	view.Summary = &summary
	view.Results = document.Results(g)
	return nil
}
