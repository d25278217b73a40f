// Package metrics provides Prometheus metrics for the control loop.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sweeney/switch-led/internal/control"
	"github.com/sweeney/switch-led/internal/logic"
)

var (
	pollIterations = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "switchled",
		Subsystem: "loop",
		Name:      "iterations_total",
		Help:      "Completed sample/compute/apply steps",
	})

	outputChanges = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "switchled",
		Subsystem: "loop",
		Name:      "output_changes_total",
		Help:      "Steps whose LED outputs differed from the previous step",
	})

	gpioErrors = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "switchled",
		Subsystem: "gpio",
		Name:      "errors_total",
		Help:      "Steps that failed on a GPIO read or write",
	})

	switchPressed = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "switchled",
		Subsystem: "switch",
		Name:      "pressed",
		Help:      "1 while the switch is pressed",
	}, []string{"switch"})

	led1On = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "switchled",
		Subsystem: "led1",
		Name:      "on",
		Help:      "1 while the red LED is lit",
	})

	mqttQueued = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "switchled",
		Subsystem: "mqtt",
		Name:      "queued_messages",
		Help:      "Messages waiting for the broker connection",
	})

	mqttDropped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "switchled",
		Subsystem: "mqtt",
		Name:      "dropped_messages_total",
		Help:      "Queued LED changes dropped because the outbox was full",
	})

	led2Element = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "switchled",
		Subsystem: "led2",
		Name:      "on",
		Help:      "1 while the tri-color LED element is lit",
	}, []string{"color"})
)

// ObserveSample records one successful step.
func ObserveSample(s control.Sample) {
	pollIterations.Inc()
	if s.Changed {
		outputChanges.Inc()
	}
	switchPressed.WithLabelValues("sw1").Set(boolToFloat(s.Switches.SW1))
	switchPressed.WithLabelValues("sw2").Set(boolToFloat(s.Switches.SW2))
	SetOutputs(s.Outputs)
}

// SetOutputs updates the LED gauges.
func SetOutputs(o logic.Outputs) {
	led1On.Set(boolToFloat(o.LED1))
	led2Element.WithLabelValues("red").Set(boolToFloat(o.LED2.Has(logic.Red)))
	led2Element.WithLabelValues("green").Set(boolToFloat(o.LED2.Has(logic.Green)))
	led2Element.WithLabelValues("blue").Set(boolToFloat(o.LED2.Has(logic.Blue)))
}

// ObserveError records a failed step.
func ObserveError() {
	gpioErrors.Inc()
}

// ObserveMQTTQueued records the outbox depth and any changes it dropped.
func ObserveMQTTQueued(queued, dropped int) {
	mqttQueued.Set(float64(queued))
	mqttDropped.Add(float64(dropped))
}

// SetMQTTQueued sets the outbox depth.
func SetMQTTQueued(queued int) {
	mqttQueued.Set(float64(queued))
}

// Handler returns the Prometheus metrics HTTP handler.
// This collects all promauto-registered metrics automatically.
func Handler() http.Handler {
	return promhttp.Handler()
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
