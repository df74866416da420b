package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "dbuilder"

var (
	NamesAllocated = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "names_allocated_total",
		Help:      "Names handed out, by source (pool or generated).",
	}, []string{"source"})

	NameCollisions = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "name_collisions_total",
		Help:      "Generated candidates that were already in use.",
	})

	NamesExhausted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "names_exhausted_total",
		Help:      "Pick requests that hit the generation attempt bound.",
	})

	NamesRetired = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "names_retired_total",
		Help:      "Names returned to the usable pool on channel removal.",
	})

	CredentialRefresh = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "credential_refresh_total",
		Help:      "Refresh-and-retry attempts after an upstream rejection, by result.",
	}, []string{"result"})

	CacheRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cache_requests_total",
		Help:      "Read-through cache lookups, by result (hit or miss).",
	}, []string{"result"})
)

const (
	SourcePool      = "pool"
	SourceGenerated = "generated"

	ResultOK     = "ok"
	ResultFailed = "failed"

	CacheHit  = "hit"
	CacheMiss = "miss"
)
