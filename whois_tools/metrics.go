package whois_tools

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	lookupsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "whois_lookups_total",
		Help: "WHOIS lookups by outcome.",
	}, []string{"outcome"})

	referralsFollowed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "whois_referrals_followed_total",
		Help: "Server-issued referrals followed across all lookups.",
	})

	queryDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "whois_query_duration_seconds",
		Help:    "Duration of a single WHOIS server round trip.",
		Buckets: prometheus.DefBuckets,
	})
)
