package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/hamed0406/domainclassifier/internal/domain"
	apimw "github.com/hamed0406/domainclassifier/internal/httpapi/middleware"
	"github.com/hamed0406/domainclassifier/internal/metrics"
	"github.com/hamed0406/domainclassifier/internal/probe"
	"github.com/hamed0406/domainclassifier/internal/repo"
)

const (
	defaultHistory = 50
	maxHistory     = 500
)

type Server struct {
	Logger  *zap.Logger
	Targets repo.TargetStore
	Results repo.ResultStore
	Checker probe.Checker
}

func NewServer(l *zap.Logger, ts repo.TargetStore, rs repo.ResultStore, c probe.Checker) *Server {
	return &Server{Logger: l, Targets: ts, Results: rs, Checker: c}
}

// Router wires public read routes and admin write routes. Empty origins
// means any origin is allowed.
func (s *Server) Router(keys apimw.Keys, origins []string, pubRPM, pubBurst, admRPM, admBurst int) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	if len(origins) == 0 {
		r.Use(cors.AllowAll().Handler)
	} else {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: origins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Authorization", "Content-Type", "X-API-Key"},
			MaxAge:         300,
		}))
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", metrics.Handler())

	r.Group(func(r chi.Router) {
		r.Use(apimw.RequireAny(keys))
		r.Use(apimw.RateLimit(pubRPM, pubBurst))
		r.Get("/api/targets", s.handleListTargets)
		r.Get("/api/results/latest", s.handleLatest)
		r.Get("/api/targets/{id}/results", s.handleHistory)
	})

	r.Group(func(r chi.Router) {
		r.Use(apimw.RequireAdmin(keys))
		r.Use(apimw.RateLimit(admRPM, admBurst))
		r.Post("/api/targets", s.handleAddTarget)
		r.Post("/api/classify", s.handleClassify)
	})

	return r
}

type domainPayload struct {
	Domain string `json:"domain"`
}

func decodeDomain(w http.ResponseWriter, r *http.Request) (string, bool) {
	var p domainPayload
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 4<<10)).Decode(&p); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "bad payload"})
		return "", false
	}
	d := normalizeDomain(p.Domain)
	if !isValidDomain(d) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid domain"})
		return "", false
	}
	return d, true
}

func (s *Server) handleAddTarget(w http.ResponseWriter, r *http.Request) {
	d, ok := decodeDomain(w, r)
	if !ok {
		return
	}

	t := &domain.Target{Domain: d, CreatedAt: time.Now().UTC()}
	if err := s.Targets.Add(r.Context(), t); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			writeJSON(w, http.StatusConflict, map[string]string{"error": "domain already tracked"})
			return
		}
		s.Logger.Error("add_target_failed", zap.String("domain", d), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "could not add"})
		return
	}

	// classify once synchronously for immediate feedback
	out := s.Checker.Classify(r.Context(), d)
	metrics.Observe(out)
	c := domain.NewClassification(t.ID, out, time.Now())
	if err := s.Results.Append(r.Context(), c); err != nil {
		s.Logger.Warn("append_result_failed", zap.String("domain", d), zap.Error(err))
	}

	s.Logger.Info("added_target",
		zap.String("domain", d),
		zap.String("status", out.Status.String()),
		zap.String("notes", out.Notes),
		zap.Float64("latency_ms", out.LatencyMS),
	)

	writeJSON(w, http.StatusCreated, map[string]any{"target": t, "result": c})
}

func (s *Server) handleClassify(w http.ResponseWriter, r *http.Request) {
	d, ok := decodeDomain(w, r)
	if !ok {
		return
	}
	out := s.Checker.Classify(r.Context(), d)
	metrics.Observe(out)
	s.Logger.Info("classified",
		zap.String("domain", d),
		zap.String("status", out.Status.String()),
		zap.String("kind", out.Kind.String()),
	)
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleListTargets(w http.ResponseWriter, r *http.Request) {
	ts, err := s.Targets.List(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "list error"})
		return
	}
	writeJSON(w, http.StatusOK, ts)
}

func (s *Server) handleLatest(w http.ResponseWriter, r *http.Request) {
	rows, err := s.Results.Latest(r.Context())
	if err != nil {
		s.Logger.Error("latest_failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "latest error"})
		return
	}
	if rows == nil {
		rows = []repo.LatestRow{}
	}
	writeJSON(w, http.StatusOK, rows)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	id := domain.TargetID(chi.URLParam(r, "id"))
	limit := defaultHistory
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid limit"})
			return
		}
		limit = min(n, maxHistory)
	}
	hist, err := s.Results.History(r.Context(), id, limit)
	if err != nil {
		s.Logger.Error("history_failed", zap.String("target_id", string(id)), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "history error"})
		return
	}
	if hist == nil {
		hist = []*domain.Classification{}
	}
	writeJSON(w, http.StatusOK, hist)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// normalizeDomain lowercases input and strips any scheme, path, port and
// trailing dot so "HTTPS://Example.com:443/x" becomes "example.com".
func normalizeDomain(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	if i := strings.Index(s, "://"); i >= 0 {
		s = s[i+3:]
	}
	if i := strings.IndexAny(s, "/?#"); i >= 0 {
		s = s[:i]
	}
	if i := strings.LastIndexByte(s, ':'); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSuffix(s, ".")
}

func isValidDomain(d string) bool {
	if d == "" || len(d) > 253 {
		return false
	}
	labels := strings.Split(d, ".")
	if len(labels) < 2 {
		return false
	}
	for _, l := range labels {
		if l == "" || len(l) > 63 || l[0] == '-' || l[len(l)-1] == '-' {
			return false
		}
		for i := 0; i < len(l); i++ {
			c := l[i]
			if !(c >= 'a' && c <= 'z' || c >= '0' && c <= '9' || c == '-') {
				return false
			}
		}
	}
	return true
}
