// Command simnet loads a JSON network topology, runs the discrete-event
// simulation to completion (or until a deadline), and dumps per-flow
// metrics — the thin CLI driver spec.md §6 describes as an external
// collaborator, out of the simulation core's scope.
package main

import (
	"flag"
	"fmt"
	"math"
	"net/http"
	"os"
	"sort"

	"github.com/apex/log"
	"github.com/bassosimone/simnet"
	"github.com/bassosimone/simnet/internal/topology"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	topoFile := flag.String("topology", "", "path to a JSON topology file (see spec.md §6)")
	until := flag.Float64("until", math.Inf(1), "stop the simulation at this virtual time, in seconds")
	verbose := flag.Bool("v", false, "enable debug logging")
	serve := flag.String("serve", "", "if set, serve /metrics and /flows on this address after the run")
	flag.Parse()

	if *verbose {
		log.SetLevel(log.DebugLevel)
	} else {
		log.SetLevel(log.InfoLevel)
	}

	if *topoFile == "" {
		fmt.Fprintln(os.Stderr, "simnet: -topology is required")
		os.Exit(2)
	}

	metrics := simnet.NewPrometheusMetrics()
	topo, err := topology.Load(*topoFile, log.Log, metrics)
	if err != nil {
		log.WithError(err).Error("simnet: failed to load topology")
		os.Exit(1)
	}

	log.Infof("simnet: loaded %d hosts, %d routers, %d links, %d flows",
		len(topo.Hosts), len(topo.Routers), len(topo.Links), len(topo.Flows))

	topo.Kernel.Run(*until)

	log.Infof("simnet: run finished at t=%f with %d active flows remaining",
		topo.Kernel.Now(), topo.Kernel.ActiveFlows())

	printSummary(metrics)

	if *serve != "" {
		serveMetrics(*serve, metrics)
	}
}

// printSummary prints a per-flow table in the spirit of the original
// implementation's datametrics.py end-of-run averages (SPEC_FULL.md §C).
func printSummary(metrics *simnet.PrometheusMetrics) {
	summaries := metrics.Summaries()
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].FlowID < summaries[j].FlowID
	})
	fmt.Printf("%-12s %14s %14s %10s %10s\n", "flow", "bits_sent", "avg_window", "avg_rtt", "samples")
	for _, s := range summaries {
		fmt.Printf("%-12s %14d %14.3f %10.4f %10d\n", s.FlowID, s.BitsSent, s.AverageWindow, s.AverageRTT, s.Samples)
	}
}

// serveMetrics exposes the run's Prometheus registry and a small JSON
// summary endpoint, routed with gorilla/mux (grounded on
// grimm-is-flywall's use of gorilla/mux for its own small JSON API).
func serveMetrics(addr string, metrics *simnet.PrometheusMetrics) {
	r := mux.NewRouter()
	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry(), promhttp.HandlerOpts{}))
	r.HandleFunc("/flows", func(w http.ResponseWriter, req *http.Request) {
		for _, s := range metrics.Summaries() {
			fmt.Fprintf(w, "%s bits_sent=%d avg_window=%.3f avg_rtt=%.4f\n",
				s.FlowID, s.BitsSent, s.AverageWindow, s.AverageRTT)
		}
	})
	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}
	log.Infof("simnet: serving metrics on http://%s/metrics", addr)
	log.WithError(srv.ListenAndServe()).Warn("simnet: metrics server exited")
}
