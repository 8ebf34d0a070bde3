// Package statuspage is a minimal stand-in for the HTTP surface spec.md §1
// places out of the payout engine's core scope: it wires the documented
// endpoint contracts (§6) to the engine so the core is exercised the same
// way a full status page would, without implementing rendering, templating,
// or static asset serving.
package statuspage

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/fossable/turbine/internal/driver"
	"github.com/fossable/turbine/internal/memo"
	"github.com/fossable/turbine/internal/walletrpc"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// refreshMemoTTL is the 60-second memoization spec.md §5 requires on the
// refresh/index entry points, so external callers can't induce excessive
// work.
const refreshMemoTTL = 60 * time.Second

// Server exposes /refresh, the /xmr/balance and /xmr/address badge
// endpoints, and /metrics; there is no /xmr/payouts handler. The repo lock
// itself lives in the mirror; Server only holds the memoization guarding
// repeated external calls.
type Server struct {
	driver  *driver.Driver
	gateway *walletrpc.Gateway

	refreshMemo *memo.Memo[string, driver.TickResult]
}

// New returns a Server wired to d and gw.
func New(d *driver.Driver, gw *walletrpc.Gateway) *Server {
	return &Server{
		driver:      d,
		gateway:     gw,
		refreshMemo: memo.New[string, driver.TickResult](),
	}
}

// Handler returns the mux routing the endpoints spec.md §6 documents.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/refresh", s.handleRefresh)
	mux.HandleFunc("/xmr/balance", s.handleBalance)
	mux.HandleFunc("/xmr/address", s.handleAddress)
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	result, err := s.refreshMemo.GetOrCompute("refresh", refreshMemoTTL, func() (driver.TickResult, error) {
		return s.driver.Tick(r.Context())
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}

func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request) {
	balance, err := s.gateway.Balance(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"balance": balance.String()})
}

func (s *Server) handleAddress(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"address": s.gateway.CachedAddress()})
}

// Serve runs an hourly ticker invoking the driver directly under its own
// lock, replacing the source's self-HTTP-POST-to-port-80 (Design Notes):
// the timer is just another caller of Tick, not the only path.
func Serve(ctx context.Context, d *driver.Driver) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := d.Tick(ctx); err != nil {
				log.Errorf("scheduled refresh failed: %v", err)
			}
		}
	}
}
