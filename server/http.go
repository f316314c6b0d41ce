// Package server 是推荐服务的 HTTP 请求层：路径/参数校验、领域错误到
// 状态码的映射、结果序列化。算法内容都在下层库中。
package server

import (
	"net/http"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/goccy/go-json"

	"github.com/arcadelab/gamerec/config"
	"github.com/arcadelab/gamerec/core"
	"github.com/arcadelab/gamerec/service"
)

// Server 持有推荐服务句柄与配置。
type Server struct {
	rec    *service.Recommender
	cfg    *config.Config
	logger *log.Logger
}

// New 创建请求层。
func New(rec *service.Recommender, cfg *config.Config, logger *log.Logger) *Server {
	return &Server{rec: rec, cfg: cfg, logger: logger}
}

// Router 组装路由。
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/recommendations/{userID}/{stationID}", s.handleRecommend)
		r.Post("/refresh", s.handleRefresh)
		r.Get("/debug/config", s.handleDebugConfig)
	})
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func (s *Server) handleRecommend(w http.ResponseWriter, req *http.Request) {
	userID := chi.URLParam(req, "userID")
	stationID := chi.URLParam(req, "stationID")

	n := s.cfg.Recommend.DefaultCount
	if raw := req.URL.Query().Get("n"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			s.writeError(w, core.NewDomainError(core.ModuleService, core.ErrorCodeInvalidInput, "n must be an integer"))
			return
		}
		n = parsed
	}

	ids, err := s.rec.Recommend(req.Context(), userID, stationID, n)
	if err != nil {
		s.logger.Warn("recommend failed", "user", userID, "station", stationID, "err", err)
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"recommendations": ids,
		"count":           len(ids),
	})
}

func (s *Server) handleRefresh(w http.ResponseWriter, req *http.Request) {
	if err := s.rec.Refresh(req.Context()); err != nil {
		s.logger.Error("refresh failed", "err", err)
		s.writeError(w, err)
		return
	}
	s.logger.Info("catalog refreshed", "generation", s.rec.Generation())
	s.writeJSON(w, http.StatusOK, map[string]any{"status": "refreshed", "generation": s.rec.Generation()})
}

// handleDebugConfig 返回脱敏后的配置（连接串等敏感项不回显）。
func (s *Server) handleDebugConfig(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"database":            s.cfg.Store.Database,
		"catalog_collection":  s.cfg.Store.CatalogCollection,
		"feedback_collection": s.cfg.Store.FeedbackCollection,
		"quiz_collection":     s.cfg.Store.QuizCollection,
		"cache_enabled":       s.cfg.Cache.Enabled,
		"max_recommendations": s.cfg.Recommend.MaxRecommendations,
		"default_count":       s.cfg.Recommend.DefaultCount,
		"exclude_rules":       len(s.cfg.Recommend.ExcludeRules),
		"mongo_uri_set":       s.cfg.Store.MongoURI != "",
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError 把领域错误映射为 HTTP 状态码。
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	code := "INTERNAL_ERROR"
	message := err.Error()

	if domainErr := core.GetDomainError(err); domainErr != nil {
		code = domainErr.Code
		switch {
		case core.IsInvalidInput(err), core.IsInvalidCount(err):
			status = http.StatusBadRequest
		case core.IsNoRatings(err), core.IsNoSignal(err), core.IsNoSimilarItems(err):
			status = http.StatusNotFound
		case core.IsInvalidRatingData(err):
			status = http.StatusUnprocessableEntity
		case core.IsUnavailable(err), core.IsCatalogEmpty(err):
			status = http.StatusServiceUnavailable
		}
	}
	s.writeJSON(w, status, map[string]any{"error": code, "message": message})
}
