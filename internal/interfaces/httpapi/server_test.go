package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"tokenagg/internal/application/usecase/tokens"
	"tokenagg/internal/domain/model"
)

type fakeLister struct {
	got tokens.Request
	res tokens.Result
	err error
}

func (f *fakeLister) List(ctx context.Context, req tokens.Request) (tokens.Result, error) {
	f.got = req
	return f.res, f.err
}

func do(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, target, nil))
	return rr
}

func TestTokensEndpoint(t *testing.T) {
	cursor := "Mw=="
	lister := &fakeLister{res: tokens.Result{
		Source: tokens.SourceLive,
		Page: model.Page{
			Items:      []model.TokenRecord{{Address: "a", Ticker: "A", PriceUSD: 1.5, Volume1h: 9}},
			NextCursor: &cursor,
		},
	}}
	h := NewServer(ServerDeps{Tokens: lister}).Handler()

	rr := do(t, h, "/api/tokens/doge?period=1h&sortBy=price&limit=3&cursor=abc")
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	require.Equal(t, tokens.Request{
		Query:  "doge",
		Window: model.Window1h,
		SortBy: model.SortPrice,
		Limit:  3,
		Cursor: "abc",
	}, lister.got)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.Equal(t, "live", body["source"])
	require.Equal(t, "Mw==", body["nextCursor"])
	data := body["data"].([]any)
	require.Len(t, data, 1)
	require.Equal(t, "a", data[0].(map[string]any)["token_address"])
}

func TestTokensEndpointDefaultsAndAliases(t *testing.T) {
	lister := &fakeLister{}
	h := NewServer(ServerDeps{Tokens: lister}).Handler()

	rr := do(t, h, "/api/tokens/pepe?window=7d&sortBy=bogus&limit=x")
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, model.Window7d, lister.got.Window)
	require.Equal(t, model.SortBy(""), lister.got.SortBy)
	require.Zero(t, lister.got.Limit)

	// empty page is a success with an empty array and a null cursor
	require.JSONEq(t, `{"source":"","data":[],"nextCursor":null}`, rr.Body.String())
}

func TestTokensEndpointUpstreamError(t *testing.T) {
	lister := &fakeLister{err: context.DeadlineExceeded}
	h := NewServer(ServerDeps{Tokens: lister}).Handler()

	rr := do(t, h, "/api/tokens/doge")
	require.Equal(t, http.StatusBadGateway, rr.Code)
	require.JSONEq(t, `{"error":"failed to fetch tokens"}`, rr.Body.String())
}

func TestTokensEndpointBadQuery(t *testing.T) {
	lister := &fakeLister{err: tokens.ErrEmptyQuery}
	h := NewServer(ServerDeps{Tokens: lister}).Handler()

	rr := do(t, h, "/api/tokens/%20")
	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestIndexHealthAndMetrics(t *testing.T) {
	metrics := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("# metrics"))
	})
	h := NewServer(ServerDeps{Tokens: &fakeLister{err: errors.New("unused")}, Metrics: metrics}).Handler()

	rr := do(t, h, "/")
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, banner, rr.Body.String())

	rr = do(t, h, "/healthz")
	require.Equal(t, http.StatusOK, rr.Code)
	require.JSONEq(t, `{"status":"ok"}`, rr.Body.String())

	rr = do(t, h, "/metrics")
	require.Equal(t, "# metrics", rr.Body.String())

	rr = do(t, h, "/nope")
	require.Equal(t, http.StatusNotFound, rr.Code)
}
