package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var HistogramBuckets = []float64{
	// Fast responses (0 - 500ms)
	25, 50, 75, 100, 150, 200, 300, 400, 500,
	// Medium responses (500ms - 2s)
	750, 1000, 1250, 1500, 1750, 2000,
	// Slow responses (2s - 15s); artifact rendering and mail dispatch land here
	2500, 3000, 4000, 5000, 7500, 10000, 15000,
	// Extended range
	30000, 60000, 120000,
}

var (
	reqCnt = promauto.NewCounterVec(prometheus.CounterOpts{
		Subsystem: "certify",
		Name:      "req_total",
		Help:      "How many HTTP requests processed, partitioned by status code, method and route.",
	}, []string{"code", "method", "url"})

	reqDur = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Subsystem: "certify",
		Name:      "req_dur_ms",
		Help:      "The HTTP request latencies in milliseconds.",
		Buckets:   HistogramBuckets,
	}, []string{"code", "method", "url"})

	// CertificatesMinted counts physical certificates created, by operation
	// (create, reissue_batch, reissue_one).
	CertificatesMinted = promauto.NewCounterVec(prometheus.CounterOpts{
		Subsystem: "certify",
		Name:      "certificates_minted_total",
		Help:      "Certificates minted, partitioned by issuance operation.",
	}, []string{"operation"})

	// OwnershipTransfers counts successful claim-by-scan transfers.
	OwnershipTransfers = promauto.NewCounter(prometheus.CounterOpts{
		Subsystem: "certify",
		Name:      "ownership_transfers_total",
		Help:      "Successful certificate ownership transfers.",
	})

	// SubscriptionsExpired counts rows flipped by the expiry sweeper.
	SubscriptionsExpired = promauto.NewCounter(prometheus.CounterOpts{
		Subsystem: "certify",
		Name:      "subscriptions_expired_total",
		Help:      "Subscription statuses marked expired by the sweeper.",
	})
)

// RequestCounterURLLabelMappingFn controls the cardinality of the "url"
// label; by default it is the matched route template.
type RequestCounterURLLabelMappingFn func(c *gin.Context) string

// HandlerFunc instruments each request with the standard counter/histogram.
func HandlerFunc(urlFn RequestCounterURLLabelMappingFn) gin.HandlerFunc {
	if urlFn == nil {
		urlFn = func(c *gin.Context) string {
			if fp := c.FullPath(); fp != "" {
				return fp
			}
			return c.Request.URL.Path
		}
	}
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := strconv.Itoa(c.Writer.Status())
		url := urlFn(c)
		elapsed := float64(time.Since(start).Milliseconds())

		reqDur.WithLabelValues(status, c.Request.Method, url).Observe(elapsed)
		reqCnt.WithLabelValues(status, c.Request.Method, url).Inc()
	}
}
