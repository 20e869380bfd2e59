package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus instruments for the chat engine, registered once on the default
// registry and exposed on /metrics by the HTTP adapter.
var (
	// ChatRequestsTotal counts handled chat turns by outcome
	// ("generated", "menu", "blocked").
	ChatRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "concierge_chat_requests_total",
			Help: "Total number of chat turns handled, by outcome",
		},
		[]string{"outcome"},
	)

	// LLMFallbacksTotal counts generation calls resolved by canned fallback.
	LLMFallbacksTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "concierge_llm_fallbacks_total",
			Help: "Total number of generation calls resolved by a canned fallback",
		},
	)

	// MenuNavigationsTotal counts menu engine results by type.
	MenuNavigationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "concierge_menu_navigations_total",
			Help: "Total number of menu navigation results, by type",
		},
		[]string{"result"},
	)

	// IdentityCacheLookupsTotal counts identity cache lookups by result.
	IdentityCacheLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "concierge_identity_cache_lookups_total",
			Help: "Total number of identity cache lookups, by result",
		},
		[]string{"result"},
	)
)
