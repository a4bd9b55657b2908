// metrics: prometheus-счётчики сессионного слоя.
//
// Все методы безопасны для nil-получателя: компоненты, собранные без метрик
// (тесты, утилиты), просто не пишут их.
package metrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "draftmail"

// Результаты обновления токенов.
const (
	RefreshOK      = "ok"
	RefreshFailed  = "failed"
	RefreshNoToken = "no_refresh_token"
)

// Исходы повторной отправки запроса после обновления.
const (
	RetrySucceeded = "succeeded"
	RetryFailed    = "failed"
	RetryGaveUp    = "gave_up"
)

type Metrics struct {
	refresh *prometheus.CounterVec
	retries *prometheus.CounterVec
	logouts prometheus.Counter
}

// New создаёт счётчики и регистрирует их в reg.
// reg == nil: используется prometheus.DefaultRegisterer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		refresh: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "refresh_total",
			Help:      "Token refresh attempts by result.",
		}, []string{"result"}),
		retries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "client",
			Name:      "retries_total",
			Help:      "Requests resent after a 401, by outcome.",
		}, []string{"outcome"}),
		logouts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "logout_total",
			Help:      "Session logouts, explicit and forced.",
		}),
	}

	reg.MustRegister(m.refresh, m.retries, m.logouts)

	return m
}

func (m *Metrics) Refresh(result string) {
	if m == nil {
		return
	}

	m.refresh.WithLabelValues(result).Inc()
}

func (m *Metrics) Retry(outcome string) {
	if m == nil {
		return
	}

	m.retries.WithLabelValues(outcome).Inc()
}

func (m *Metrics) Logout() {
	if m == nil {
		return
	}

	m.logouts.Inc()
}
