package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"taxi-bot/internal/models"
)

// Recorder receives dispatch events. The dispatch core only depends on this.
type Recorder interface {
	RecordOperation(op string, err error)
	RecordClassification(zone models.ZoneID)
}

// Nop discards everything.
type Nop struct{}

func (Nop) RecordOperation(string, error)      {}
func (Nop) RecordClassification(models.ZoneID) {}

// PromSink records dispatch events in Prometheus metrics.
type PromSink struct {
	operations      *prometheus.CounterVec
	classifications *prometheus.CounterVec
}

// NewPromSink registers the collectors on reg (default registerer when nil).
// Already registered collectors are reused.
func NewPromSink(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	ops := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "taxi_operations_total",
		Help: "Dispatch operations by command and outcome",
	}, []string{"op", "result"})
	cls := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "taxi_classifications_total",
		Help: "Stored entries by classified zone",
	}, []string{"zone"})

	var err error
	if ops, err = register(reg, ops); err != nil {
		return nil, err
	}
	if cls, err = register(reg, cls); err != nil {
		return nil, err
	}
	return &PromSink{operations: ops, classifications: cls}, nil
}

func register(reg prometheus.Registerer, c *prometheus.CounterVec) (*prometheus.CounterVec, error) {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			return are.ExistingCollector.(*prometheus.CounterVec), nil
		}
		return nil, err
	}
	return c, nil
}

func (s *PromSink) RecordOperation(op string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	s.operations.WithLabelValues(op, result).Inc()
}

func (s *PromSink) RecordClassification(zone models.ZoneID) {
	label := "unknown"
	if zone.Known() {
		label = strconv.Itoa(int(zone))
	}
	s.classifications.WithLabelValues(label).Inc()
}
