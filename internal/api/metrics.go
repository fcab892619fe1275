package api

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/cleared-dev/hubtab/internal/session"
)

// metrics live in a per-server registry so several servers (and tests)
// can coexist in one process.
type metrics struct {
	registry    *prometheus.Registry
	balance     *prometheus.GaugeVec
	outstanding prometheus.Gauge
	appendedTx  *prometheus.CounterVec
	storeErrors prometheus.Counter
}

func newMetrics() *metrics {
	m := &metrics{
		registry: prometheus.NewRegistry(),
		balance: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "hubtab_balance",
			Help: "Current balance owed to the lender, per participant.",
		}, []string{"participant"}),
		outstanding: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "hubtab_outstanding_total",
			Help: "Sum of all participant balances.",
		}),
		appendedTx: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hubtab_records_appended_total",
			Help: "Transaction rows appended, by type.",
		}, []string{"type"}),
		storeErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "hubtab_store_errors_total",
			Help: "Requests that failed because the store was unavailable.",
		}),
	}
	m.registry.MustRegister(m.balance, m.outstanding, m.appendedTx, m.storeErrors)
	return m
}

func (m *metrics) observe(snap session.Snapshot) {
	m.balance.Reset()
	for _, row := range snap.Rows {
		m.balance.WithLabelValues(row.Name).Set(float64(row.Balance))
	}
	m.outstanding.Set(float64(snap.Total))
}

// appended counts the rows a result added; they are the newest
// Records rows of the snapshot's log.
func (m *metrics) appended(res session.Result) {
	txs := res.Snapshot.Transactions
	if res.Records == 0 || res.Records > len(txs) {
		return
	}
	for _, tx := range txs[len(txs)-res.Records:] {
		m.appendedTx.WithLabelValues(string(tx.Type)).Inc()
	}
}
