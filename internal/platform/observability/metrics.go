package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func InitMetrics() {}

func Handler() http.Handler {
	return promhttp.Handler()
}
