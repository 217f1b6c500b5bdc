// cmd/serve.go
package cmd

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/netfabric/fabricsim/fabric"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	serveAddr       string
	serveConfigPath string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run a demo router behind an HTTP introspection surface (/healthz, /metrics, /congestion)",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8080", "Address to listen on")
	serveCmd.Flags().StringVar(&serveConfigPath, "config", "", "Path to a fabric YAML config (defaults to a built-in 4-port, 2-VC router)")
}

func runServe(cmd *cobra.Command, args []string) error {
	bundle := defaultDemoBundle()
	if serveConfigPath != "" {
		loaded, err := fabric.LoadFabricBundle(serveConfigPath)
		if err != nil {
			return err
		}
		bundle = loaded
	}
	if err := bundle.Validate(); err != nil {
		return err
	}
	cfg := bundle.Routers["r0"]
	cfg.MetricsEnabled = true

	sim := fabric.NewSimulator(fabric.SimulationSeed(bundle.Seed))
	routing := &fabric.StaticRoute{Candidates: []fabric.RouteCandidate{{Port: 3, VC: 0}}}
	router := fabric.NewRouter(sim, "r0", cfg, routing)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(5 * time.Second))

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/congestion", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(router.CongestionSnapshot())
	})

	logrus.WithField("addr", serveAddr).Info("serving fabricsim introspection endpoints")
	return http.ListenAndServe(serveAddr, r)
}
