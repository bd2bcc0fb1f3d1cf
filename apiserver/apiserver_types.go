package apiserver

import (
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/thrasher-corp/blotter/asset"
	"github.com/thrasher-corp/blotter/ledger"
	"golang.org/x/time/rate"
)

// Default limits for the snapshot API
const (
	DefaultRequestsPerSecond = 50
	DefaultBurst             = 10
	DefaultShutdownTimeout   = 5 * time.Second
)

var (
	errNilSource      = errors.New("snapshot source is nil")
	errNoSnapshot     = errors.New("no snapshot published yet")
	errOrderNotFound  = errors.New("order not found")
	errInvalidOrderID = errors.New("invalid order id")
	errInvalidBar     = errors.New("bar must be an RFC3339 timestamp")
	errInvalidStatus  = errors.New("unknown order status")
	errRateLimited    = errors.New("too many requests")
	errNoListenAddr   = errors.New("listen address is empty")
)

// Source returns the latest published ledger snapshot, nil before the first
// bar
type Source interface {
	Latest() *ledger.Snapshot
}

// Config holds the server settings
type Config struct {
	ListenAddress     string
	RequestsPerSecond float64
	Burst             int
}

// Server serves read only views of the latest snapshot
type Server struct {
	source  Source
	finder  *asset.Finder
	limiter *rate.Limiter
	router  *mux.Router
	addr    string
}

// Route describes one API endpoint
type Route struct {
	Name        string
	Method      string
	Pattern     string
	HandlerFunc http.HandlerFunc
}

// Status is the reply of the status endpoint
type Status struct {
	Time         time.Time `json:"time"`
	NextID       int64     `json:"next-id"`
	Orders       int       `json:"orders"`
	Transactions int       `json:"transactions"`
}

type errorResponse struct {
	Error string `json:"error"`
}
