package promexport

import (
	"net/http"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/common/version"
	log "github.com/sirupsen/logrus"

	"github.com/alepar/waveplus-read/airthings"
)

const (
	programName = "waveplus_read"
	serialLabel = "serial_number"
)

var gaugeOpts = map[airthings.SensorKind]prometheus.GaugeOpts{
	airthings.Humidity:          {Name: "air_humidity", Help: "Humidity (units: % of relative Humidity)"},
	airthings.RadonShortTermAvg: {Name: "air_radon_short", Help: "Radon Short Term estimate (units: Bq/m3)"},
	airthings.RadonLongTermAvg:  {Name: "air_radon_long", Help: "Radon Long Term estimate (units: Bq/m3)"},
	airthings.Temperature:       {Name: "air_temperature", Help: "Air Temperature (units: degrees Celsius)"},
	airthings.RelAtmPressure:    {Name: "air_atm_pressure", Help: "Atmospheric Pressure (units: hPa)"},
	airthings.Co2Level:          {Name: "air_co2_level", Help: "Air Carbon Dioxide level (units: ppm)"},
	airthings.VocLevel:          {Name: "air_voc_level", Help: "Air Volatile Organic Compounds level (units: ppb)"},
}

// Exporter publishes readings as Prometheus gauges labelled by serial number.
type Exporter struct {
	gauges      map[airthings.SensorKind]*prometheus.GaugeVec
	reads       *prometheus.CounterVec
	lastSuccess *prometheus.GaugeVec
}

var _ airthings.Presenter = (*Exporter)(nil)

func New(reg prometheus.Registerer) (*Exporter, error) {
	e := &Exporter{
		gauges: make(map[airthings.SensorKind]*prometheus.GaugeVec, len(gaugeOpts)),
		reads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "air_sensor_reads_total",
			Help: "Sensor read cycles by result (ok, failed, fatal).",
		}, []string{serialLabel, "result"}),
		lastSuccess: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "air_sensor_last_success_timestamp_seconds",
			Help: "Unix time of the last successful sensor read.",
		}, []string{serialLabel}),
	}

	collectors := []prometheus.Collector{e.reads, e.lastSuccess, version.NewCollector(programName)}
	for kind, opts := range gaugeOpts {
		g := prometheus.NewGaugeVec(opts, []string{serialLabel})
		e.gauges[kind] = g
		collectors = append(collectors, g)
	}

	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return nil, errors.Wrap(err, "failed to register metric")
		}
	}

	return e, nil
}

func (e *Exporter) Header(airthings.SerialNumber, []string) {}

func (e *Exporter) Reading(serial airthings.SerialNumber, r airthings.Reading) {
	sn := serial.String()
	for _, kind := range r.Capability.Kinds() {
		v, _ := r.Get(kind)
		if !v.Available {
			// leave a gap instead of reporting a made up value
			e.gauges[kind].DeleteLabelValues(sn)
			continue
		}
		e.gauges[kind].WithLabelValues(sn).Set(v.Value)
	}
	e.reads.WithLabelValues(sn, "ok").Inc()
	e.lastSuccess.WithLabelValues(sn).SetToCurrentTime()
}

func (e *Exporter) Failure(serial airthings.SerialNumber, _ error) {
	sn := serial.String()
	e.reads.WithLabelValues(sn, "failed").Inc()
	for _, g := range e.gauges {
		g.DeleteLabelValues(sn)
	}
}

func (e *Exporter) Fatal(serial airthings.SerialNumber, _ error) {
	e.reads.WithLabelValues(serial.String(), "fatal").Inc()
}

// Serve exposes the gatherer on /metrics. It blocks like http.ListenAndServe.
func Serve(listenAddr string, gatherer prometheus.Gatherer) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(
		gatherer,
		promhttp.HandlerOpts{
			// Opt into OpenMetrics to support exemplars.
			EnableOpenMetrics: true,
		},
	))
	log.Infof("serving metrics on %s/metrics", listenAddr)
	return http.ListenAndServe(listenAddr, mux)
}
