package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	cyclesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "gridbot_cycles_total",
			Help: "Total number of completed scan cycles",
		},
	)

	dealsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gridbot_deals_total",
			Help: "Total number of closed round-trips",
		},
		[]string{"pair", "side"},
	)

	realizedPnL = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "gridbot_realized_pnl",
			Help: "Cumulative realized PnL",
		},
	)

	activeGrids = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "gridbot_active_grids",
			Help: "Number of currently active grids",
		},
	)

	currentPrice = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "gridbot_current_price",
			Help: "Last sampled price per pair",
		},
		[]string{"pair"},
	)

	errorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gridbot_errors_total",
			Help: "Total number of errors by type",
		},
		[]string{"type"},
	)
)

func init() {
	prometheus.MustRegister(cyclesTotal)
	prometheus.MustRegister(dealsTotal)
	prometheus.MustRegister(realizedPnL)
	prometheus.MustRegister(activeGrids)
	prometheus.MustRegister(currentPrice)
	prometheus.MustRegister(errorsTotal)
}

// RecordCycle marks one completed scan cycle.
func RecordCycle() {
	cyclesTotal.Inc()
}

// RecordDeal records a closed round-trip and the running PnL total.
func RecordDeal(pair, side string, totalPnL float64) {
	dealsTotal.WithLabelValues(pair, side).Inc()
	realizedPnL.Set(totalPnL)
}

// SetActiveGrids updates the active grid gauge.
func SetActiveGrids(n int) {
	activeGrids.Set(float64(n))
}

// UpdatePrice updates the last sampled price for a pair.
func UpdatePrice(pair string, price float64) {
	currentPrice.WithLabelValues(pair).Set(price)
}

// RecordError records an error by type.
func RecordError(errorType string) {
	errorsTotal.WithLabelValues(errorType).Inc()
}
