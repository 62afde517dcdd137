package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// SessionsMaterialized counts sessions created by schedule expansion.
var SessionsMaterialized = promauto.NewCounter(prometheus.CounterOpts{
	Name: "classroll_sessions_materialized_total",
	Help: "Sessions created by expanding recurring schedules.",
})

// CheckIns counts check-in attempts by outcome.
var CheckIns = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "classroll_checkins_total",
	Help: "Check-in attempts by outcome.",
}, []string{"outcome"})
