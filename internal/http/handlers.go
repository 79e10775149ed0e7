package http

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"sync/atomic"
	"time"
)

const readyTimeout = 5 * time.Second

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"uptime":    time.Since(s.metrics.started).Round(time.Second).String(),
	})
}

// handleReady checks templates and every registered dependency.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]string, len(s.ready)+1)

	if s.templates == nil {
		checks["templates"] = "failed: templates not loaded"
		status, httpStatus = "not_ready", http.StatusServiceUnavailable
	} else {
		checks["templates"] = "ok"
	}

	for name, check := range s.ready {
		if err := check(ctx); err != nil {
			checks[name] = fmt.Sprintf("failed: %v", err)
			status, httpStatus = "not_ready", http.StatusServiceUnavailable
			continue
		}
		checks[name] = "ok"
	}

	respondJSON(w, httpStatus, map[string]any{
		"status":    status,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"checks":    checks,
	})
}

// handleMetrics writes counters in the Prometheus text format.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
	w.WriteHeader(http.StatusOK)

	traceMetrics := s.tracer.GetMetrics()
	limitMetrics := s.limiter.GetMetrics()
	securityMetrics := s.detector.GetMetrics()
	dash := s.grades.Dashboard()

	type metric struct {
		name, help, kind string
		value            float64
	}
	metrics := []metric{
		{"http_requests_total", "Total number of HTTP requests", "counter", float64(traceMetrics.TotalRequests)},
		{"http_server_errors_total", "Responses with a 5xx status", "counter", float64(traceMetrics.ServerErrors)},
		{"grade_mutations_total", "Accepted score updates and resets", "counter", float64(atomic.LoadInt64(&s.metrics.mutations))},
		{"rate_limit_hits_total", "Requests rejected by the rate limiter", "counter", float64(limitMetrics.TotalHits)},
		{"active_rate_limit_clients", "Currently tracked rate limit clients", "gauge", float64(limitMetrics.ClientCount)},
		{"suspicious_requests_total", "Requests matching a probe pattern", "counter", float64(securityMetrics.SuspiciousRequests)},
		{"grade_gpa", "Current mean final grade", "gauge", dash.GPA},
		{"grade_total_points", "Sum of final grades", "gauge", float64(dash.TotalPoints)},
		{"uptime_seconds", "Process uptime in seconds", "gauge", time.Since(s.metrics.started).Seconds()},
	}
	sort.Slice(metrics, func(i, j int) bool { return metrics[i].name < metrics[j].name })

	for _, m := range metrics {
		fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s %s\n%s %g\n\n", m.name, m.help, m.name, m.kind, m.name, m.value)
	}
}
