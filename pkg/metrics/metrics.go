package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	RateLimitAllowed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "corpsite", Name: "rate_limit_allowed_total", Help: "Number of allowed requests by limited scope."},
		[]string{"scope"},
	)
	RateLimitRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "corpsite", Name: "rate_limit_rejected_total", Help: "Number of rejected requests by limited scope."},
		[]string{"scope"},
	)
	RankingRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "corpsite", Name: "investor_listings_total", Help: "Ranked investor document listings served by section."},
		[]string{"section"},
	)
	Uploads = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "corpsite", Name: "uploads_total", Help: "File uploads by kind and result."},
		[]string{"kind", "result"},
	)
	ContactMessages = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "corpsite", Name: "contact_messages_total", Help: "Contact form submissions by result."},
		[]string{"result"},
	)
	ProxyDownloads = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "corpsite", Name: "proxy_downloads_total", Help: "Download proxy requests by result."},
		[]string{"result"},
	)
)

func RegisterCollectors(reg prometheus.Registerer) {
	reg.MustRegister(RateLimitAllowed)
	reg.MustRegister(RateLimitRejected)
	reg.MustRegister(RankingRequests)
	reg.MustRegister(Uploads)
	reg.MustRegister(ContactMessages)
	reg.MustRegister(ProxyDownloads)
}
