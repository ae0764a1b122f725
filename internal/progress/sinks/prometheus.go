package sinks

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/JakeFAU/jobboard-harvester/internal/progress"
)

// PrometheusSink exports harvest progress via Prometheus collectors.
type PrometheusSink struct {
	runsStarted     prometheus.Counter
	runsCompleted   *prometheus.CounterVec
	runDuration     *prometheus.HistogramVec
	indexLinks      prometheus.Counter
	listingsPending prometheus.Gauge

	listings        *prometheus.CounterVec
	listingBytes    *prometheus.CounterVec
	listingDuration *prometheus.HistogramVec
}

// NewPrometheusSink registers the collectors against the provided registry.
func NewPrometheusSink(reg prometheus.Registerer) (*PrometheusSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PrometheusSink{
		runsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "harvester_runs_started_total",
			Help: "Total harvest runs that have started.",
		}),
		runsCompleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "harvester_runs_completed_total",
			Help: "Total harvest runs completed partitioned by result.",
		}, []string{"result"}),
		runDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "harvester_run_duration_seconds",
			Help:    "Wall time per harvest run.",
			Buckets: []float64{5, 15, 30, 60, 120, 300, 600, 1200, 3600},
		}, []string{"result"}),
		indexLinks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "harvester_index_links_total",
			Help: "Listing links discovered on index pages.",
		}),
		listingsPending: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "harvester_listings_pending",
			Help: "Listings dispatched but not yet resolved.",
		}),
		listings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "harvester_listings_total",
			Help: "Resolved listings partitioned by site, status class and outcome.",
		}, []string{"site", "status_class", "outcome"}),
		listingBytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "harvester_listing_bytes_total",
			Help: "Listing bytes downloaded per site.",
		}, []string{"site"}),
		listingDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "harvester_listing_duration_seconds",
			Help:    "Fetch plus extract latency per listing.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		}, []string{"site", "status_class"}),
	}
	for _, collector := range []prometheus.Collector{
		s.runsStarted,
		s.runsCompleted,
		s.runDuration,
		s.indexLinks,
		s.listingsPending,
		s.listings,
		s.listingBytes,
		s.listingDuration,
	} {
		if err := reg.Register(collector); err != nil {
			return nil, fmt.Errorf("register progress collector: %w", err)
		}
	}
	return s, nil
}

// Consume updates the Prometheus collectors using the provided batch.
func (s *PrometheusSink) Consume(_ context.Context, batch []progress.Event) error {
	for _, evt := range batch {
		s.consumeEvent(evt)
	}
	return nil
}

func (s *PrometheusSink) consumeEvent(evt progress.Event) {
	switch evt.Stage {
	case progress.StageRunStart:
		s.runsStarted.Inc()
	case progress.StageRunDone:
		s.finishRun(evt, "success")
	case progress.StageRunError:
		s.finishRun(evt, "error")
	case progress.StageIndexDone:
		s.indexLinks.Add(float64(evt.Count))
	case progress.StageDispatchStart:
		s.listingsPending.Add(float64(evt.Count))
	case progress.StageListingDone:
		s.handleListing(evt)
	}
}

func (s *PrometheusSink) finishRun(evt progress.Event, result string) {
	s.runsCompleted.WithLabelValues(result).Inc()
	if evt.Dur > 0 {
		s.runDuration.WithLabelValues(result).Observe(evt.Dur.Seconds())
	}
	s.listingsPending.Set(0)
}

func (s *PrometheusSink) handleListing(evt progress.Event) {
	site := evt.Site
	if site == "" {
		site = "unknown"
	}
	statusClass := string(evt.StatusClass)
	if statusClass == "" {
		statusClass = string(progress.StatusOther)
	}
	outcome := "ok"
	if evt.Unavailable {
		outcome = "unavailable"
	}
	s.listings.WithLabelValues(site, statusClass, outcome).Inc()
	s.listingsPending.Dec()
	if evt.Bytes > 0 {
		s.listingBytes.WithLabelValues(site).Add(float64(evt.Bytes))
	}
	if evt.Dur > 0 {
		s.listingDuration.WithLabelValues(site, statusClass).Observe(evt.Dur.Seconds())
	}
}

// Close implements the Sink interface; it performs no action.
func (s *PrometheusSink) Close(context.Context) error {
	return nil
}
