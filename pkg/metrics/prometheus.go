package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Serve exposes /metrics on its own listener so scrapes stay out of the API
// access log. Runs in a goroutine owned by the caller's lifecycle.
func Serve(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return http.ListenAndServe(addr, mux)
}
