package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector bundles the marketplace counters exposed on /metrics.
type Collector struct {
	reg *prometheus.Registry

	SearchesTotal          prometheus.Counter
	VirtualRoutesGenerated prometheus.Counter
	TemplatesSkipped       prometheus.Counter
	RoutesMaterialized     prometheus.Counter

	TicketsReserved  prometheus.Counter
	TicketsCancelled prometheus.Counter
	SoldOutRejects   prometheus.Counter
}

// NewCollector creates and registers the marketplace metrics
func NewCollector() *Collector {
	reg := prometheus.NewRegistry()

	c := &Collector{
		reg: reg,
		SearchesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "marketplace_route_searches_total",
			Help: "Total occurrence searches served.",
		}),
		VirtualRoutesGenerated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "marketplace_virtual_routes_generated_total",
			Help: "Total virtual occurrences synthesized from templates.",
		}),
		TemplatesSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "marketplace_templates_skipped_total",
			Help: "Templates skipped during generation due to malformed data.",
		}),
		RoutesMaterialized: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "marketplace_routes_materialized_total",
			Help: "Virtual occurrences materialized into physical routes.",
		}),
		TicketsReserved: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "marketplace_tickets_reserved_total",
			Help: "Tickets successfully reserved.",
		}),
		TicketsCancelled: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "marketplace_tickets_cancelled_total",
			Help: "Tickets cancelled.",
		}),
		SoldOutRejects: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "marketplace_sold_out_rejections_total",
			Help: "Reservation attempts rejected because the route was full.",
		}),
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		c.SearchesTotal,
		c.VirtualRoutesGenerated,
		c.TemplatesSkipped,
		c.RoutesMaterialized,
		c.TicketsReserved,
		c.TicketsCancelled,
		c.SoldOutRejects,
	)

	return c
}

// Handler returns the HTTP handler serving the registry
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.reg, promhttp.HandlerOpts{})
}
