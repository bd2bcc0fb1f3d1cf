// Package apiserver exposes the latest published ledger snapshot over a read
// only HTTP API
package apiserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/thrasher-corp/blotter/asset"
	"github.com/thrasher-corp/blotter/log"
	"github.com/thrasher-corp/blotter/order"
	"golang.org/x/time/rate"
)

// New returns a server reading from source. The finder resolves symbols for
// the per asset route and may be nil, in which case that route only
// answers for assets present in the snapshot.
func New(source Source, finder *asset.Finder, cfg *Config) (*Server, error) {
	if source == nil {
		return nil, errNilSource
	}
	if cfg == nil {
		cfg = &Config{}
	}
	rps, burst := cfg.RequestsPerSecond, cfg.Burst
	if rps <= 0 {
		rps = DefaultRequestsPerSecond
	}
	if burst <= 0 {
		burst = DefaultBurst
	}
	s := &Server{
		source:  source,
		finder:  finder,
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
		addr:    cfg.ListenAddress,
	}
	s.router = s.newRouter()
	return s, nil
}

// Handler returns the routed handler, mostly for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) newRouter() *mux.Router {
	router := mux.NewRouter().StrictSlash(true)
	routes := []Route{
		{"Status", http.MethodGet, "/status", s.getStatus},
		{"Orders", http.MethodGet, "/orders", s.getOrders},
		{"Order", http.MethodGet, "/orders/{id}", s.getOrder},
		{"OpenOrders", http.MethodGet, "/assets/{symbol}/open", s.getOpenOrders},
		{"Transactions", http.MethodGet, "/transactions", s.getTransactions},
	}
	for _, route := range routes {
		var handler http.Handler = route.HandlerFunc
		handler = s.limit(handler)
		handler = restLogger(handler, route.Name)
		router.
			Methods(route.Method).
			Path(route.Pattern).
			Name(route.Name).
			Handler(handler)
	}
	return router
}

// ListenAndServe serves until ctx is done, then shuts down gracefully
func (s *Server) ListenAndServe(ctx context.Context) error {
	if s.addr == "" {
		return errNoListenAddr
	}
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
	errs := make(chan error, 1)
	go func() {
		log.Infof(log.APIServer, "snapshot API listening on http://%s", s.addr)
		errs <- srv.ListenAndServe()
	}()
	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), DefaultShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errs; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// restLogger logs each request with its duration
func restLogger(inner http.Handler, name string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		inner.ServeHTTP(w, r)
		log.Debugf(log.APIServer, "%s\t%s\t%s\t%s", r.Method, r.RequestURI, name, time.Since(start))
	})
}

func (s *Server) limit(inner http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.Allow() {
			writeError(w, r, http.StatusTooManyRequests, errRateLimited)
			return
		}
		inner.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, response any) {
	w.Header().Set("Content-Type", "application/json; charset=UTF-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		log.Errorf(log.APIServer, "%s %s: failed to send JSON response: %v", r.Method, r.RequestURI, err)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, err error) {
	writeJSON(w, r, status, errorResponse{Error: err.Error()})
}

func (s *Server) getStatus(w http.ResponseWriter, r *http.Request) {
	snap := s.source.Latest()
	if snap == nil {
		writeError(w, r, http.StatusServiceUnavailable, errNoSnapshot)
		return
	}
	writeJSON(w, r, http.StatusOK, Status{
		Time:         snap.Time,
		NextID:       snap.NextID,
		Orders:       len(snap.Orders),
		Transactions: len(snap.Transactions),
	})
}

// getOrders returns every order, optionally filtered by ?status=
func (s *Server) getOrders(w http.ResponseWriter, r *http.Request) {
	snap := s.source.Latest()
	if snap == nil {
		writeError(w, r, http.StatusServiceUnavailable, errNoSnapshot)
		return
	}
	filter := strings.ToUpper(r.URL.Query().Get("status"))
	if filter == "" {
		writeJSON(w, r, http.StatusOK, snap.Orders)
		return
	}
	status := order.Status(filter)
	switch status {
	case order.Open, order.Filled, order.Cancelled, order.Rejected, order.Held:
	default:
		writeError(w, r, http.StatusBadRequest, fmt.Errorf("%w: %s", errInvalidStatus, filter))
		return
	}
	resp := make([]order.Order, 0, len(snap.Orders))
	for i := range snap.Orders {
		if snap.Orders[i].Status == status {
			resp = append(resp, snap.Orders[i])
		}
	}
	writeJSON(w, r, http.StatusOK, resp)
}

func (s *Server) getOrder(w http.ResponseWriter, r *http.Request) {
	raw := mux.Vars(r)["id"]
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, fmt.Errorf("%w: %s", errInvalidOrderID, raw))
		return
	}
	snap := s.source.Latest()
	if snap == nil {
		writeError(w, r, http.StatusServiceUnavailable, errNoSnapshot)
		return
	}
	o, ok := snap.Order(id)
	if !ok {
		writeError(w, r, http.StatusNotFound, fmt.Errorf("%w: %d", errOrderNotFound, id))
		return
	}
	writeJSON(w, r, http.StatusOK, o)
}

func (s *Server) getOpenOrders(w http.ResponseWriter, r *http.Request) {
	symbol := mux.Vars(r)["symbol"]
	snap := s.source.Latest()
	if snap == nil {
		writeError(w, r, http.StatusServiceUnavailable, errNoSnapshot)
		return
	}
	a, err := s.lookup(symbol, snap.Orders)
	if err != nil {
		writeError(w, r, http.StatusNotFound, err)
		return
	}
	writeJSON(w, r, http.StatusOK, snap.Open(a.SID))
}

// lookup resolves a symbol through the finder, falling back to the assets
// seen in the snapshot
func (s *Server) lookup(symbol string, orders []order.Order) (asset.Item, error) {
	if s.finder != nil {
		return s.finder.LookupSymbol(symbol)
	}
	for i := range orders {
		if orders[i].Asset.Symbol == symbol {
			return orders[i].Asset, nil
		}
	}
	return asset.Item{}, fmt.Errorf("%w: %s", asset.ErrUnknownAsset, symbol)
}

// getTransactions returns the transactions of one bar when ?bar= is set and
// every transaction otherwise
func (s *Server) getTransactions(w http.ResponseWriter, r *http.Request) {
	snap := s.source.Latest()
	if snap == nil {
		writeError(w, r, http.StatusServiceUnavailable, errNoSnapshot)
		return
	}
	bar := r.URL.Query().Get("bar")
	if bar == "" {
		writeJSON(w, r, http.StatusOK, snap.Transactions)
		return
	}
	t, err := time.Parse(time.RFC3339Nano, bar)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, fmt.Errorf("%w: %s", errInvalidBar, bar))
		return
	}
	txs := snap.TransactionsAt(t)
	if txs == nil {
		txs = []order.Transaction{}
	}
	writeJSON(w, r, http.StatusOK, txs)
}
