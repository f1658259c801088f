package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	LoginAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "aswaq", Name: "login_attempts_total", Help: "Number of login attempts by outcome."},
		[]string{"outcome"},
	)
	TokenVerifications = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "aswaq", Name: "token_verifications_total", Help: "Number of token verifications by strategy and result."},
		[]string{"strategy", "result"},
	)
	OAuthCallbacks = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "aswaq", Name: "oauth_callbacks_total", Help: "Number of OAuth callbacks by provider and outcome."},
		[]string{"provider", "outcome"},
	)
	RateLimitAllowed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "aswaq", Name: "rate_limit_allowed_total", Help: "Number of allowed requests by limiter type."},
		[]string{"limiter"},
	)
	RateLimitRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "aswaq", Name: "rate_limit_rejected_total", Help: "Number of rejected requests by limiter type."},
		[]string{"limiter"},
	)
)

func RegisterCollectors(reg prometheus.Registerer) {
	reg.MustRegister(LoginAttempts)
	reg.MustRegister(TokenVerifications)
	reg.MustRegister(OAuthCallbacks)
	reg.MustRegister(RateLimitAllowed)
	reg.MustRegister(RateLimitRejected)
}
