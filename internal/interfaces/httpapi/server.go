package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"tokenagg/internal/application/usecase/tokens"
	"tokenagg/internal/domain/model"
)

const banner = "tokenagg: token market data aggregator\n"

type TokenLister interface {
	List(ctx context.Context, req tokens.Request) (tokens.Result, error)
}

type ServerDeps struct {
	Tokens    TokenLister
	Metrics   http.Handler // optional, served at /metrics
	Websocket http.Handler // optional, served at /ws
}

type Server struct {
	deps ServerDeps
}

func NewServer(deps ServerDeps) *Server {
	return &Server{deps: deps}
}

type tokenListResponse struct {
	Source     string              `json:"source"`
	Data       []model.TokenRecord `json:"data"`
	NextCursor *string             `json:"nextCursor"`
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /api/tokens/{query}", s.handleTokens)
	if s.deps.Metrics != nil {
		mux.Handle("GET /metrics", s.deps.Metrics)
	}
	if s.deps.Websocket != nil {
		mux.Handle("GET /ws", s.deps.Websocket)
	}
	return mux
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(banner))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	sendJSONResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleTokens(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	req := parseTokenRequest(r)

	res, err := s.deps.Tokens.List(r.Context(), req)
	if err != nil {
		if errors.Is(err, tokens.ErrEmptyQuery) {
			sendErrorResponse(w, err.Error(), http.StatusBadRequest)
			return
		}
		log.Error().Err(err).Str("query", req.Query).Msg("token listing failed")
		sendErrorResponse(w, "failed to fetch tokens", http.StatusBadGateway)
		return
	}

	items := res.Page.Items
	if items == nil {
		items = []model.TokenRecord{}
	}
	sendJSONResponse(w, http.StatusOK, tokenListResponse{
		Source:     res.Source,
		Data:       items,
		NextCursor: res.Page.NextCursor,
	})

	log.Debug().
		Str("query", req.Query).
		Str("source", res.Source).
		Int("items", len(items)).
		Dur("took", time.Since(start)).
		Msg("tokens served")
}

// parseTokenRequest leaves unrecognized values zero so the service defaults
// apply. window is accepted as an alias of period.
func parseTokenRequest(r *http.Request) tokens.Request {
	q := r.URL.Query()
	req := tokens.Request{
		Query:  r.PathValue("query"),
		Cursor: q.Get("cursor"),
	}

	period := q.Get("period")
	if period == "" {
		period = q.Get("window")
	}
	if w, err := model.ParseWindow(period); err == nil && period != "" {
		req.Window = w
	}
	if sb := q.Get("sortBy"); sb != "" {
		if v, err := model.ParseSortBy(sb); err == nil {
			req.SortBy = v
		}
	}
	if n, err := strconv.Atoi(strings.TrimSpace(q.Get("limit"))); err == nil {
		req.Limit = n
	}
	return req
}

func sendJSONResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func sendErrorResponse(w http.ResponseWriter, message string, status int) {
	sendJSONResponse(w, status, map[string]string{"error": message})
}
