package airthings

import (
	"strconv"
)

type SensorKind int

const (
	// units: % of relative Humidity
	Humidity SensorKind = iota

	// units: Bq/m3
	RadonShortTermAvg

	// units: Bq/m3
	RadonLongTermAvg

	// units: degrees Celsius
	Temperature

	// units: hPa
	RelAtmPressure

	// units: ppm
	Co2Level

	// units: ppb
	VocLevel

	numSensorKinds
)

var sensorUnits = [numSensorKinds]string{"%rH", "Bq/m3", "Bq/m3", "degC", "hPa", "ppm", "ppb"}

var sensorLabels = [numSensorKinds]string{
	"Humidity", "Radon ST avg", "Radon LT avg", "Temperature", "Pressure", "CO2 level", "VOC level",
}

// decimal places used when formatting a value of the given kind
var sensorPrecision = [numSensorKinds]int{1, 0, 0, 2, 2, 0, 0}

func (k SensorKind) Unit() string {
	return sensorUnits[k]
}

func (k SensorKind) Label() string {
	return sensorLabels[k]
}

func (k SensorKind) String() string {
	return k.Label()
}

// Capability is the hardware variant of a device. It selects the
// characteristic to read and how many sensors the reading carries.
type Capability int

const (
	Basic Capability = iota
	WithAirQuality
)

const (
	basicCharacteristicUUID      = "b42e4dcc-ade7-11e4-89d3-123b93f75cba"
	airQualityCharacteristicUUID = "b42e2a68-ade7-11e4-89d3-123b93f75cba"
)

func (c Capability) NumSensors() int {
	if c == WithAirQuality {
		return 7
	}
	return 4
}

func (c Capability) CharacteristicUUID() string {
	if c == WithAirQuality {
		return airQualityCharacteristicUUID
	}
	return basicCharacteristicUUID
}

// Kinds lists the active sensors in reporting order.
func (c Capability) Kinds() []SensorKind {
	kinds := make([]SensorKind, c.NumSensors())
	for i := range kinds {
		kinds[i] = SensorKind(i)
	}
	return kinds
}

func (c Capability) Labels() []string {
	kinds := c.Kinds()
	labels := make([]string, len(kinds))
	for i, k := range kinds {
		labels[i] = k.Label()
	}
	return labels
}

func (c Capability) String() string {
	if c == WithAirQuality {
		return "with-air-quality"
	}
	return "basic"
}

// Value is a single measurement. Available is false when the device reports
// the measurement as invalid or not yet stable.
type Value struct {
	Value     float64
	Available bool
}

func NotAvailable() Value {
	return Value{}
}

func available(v float64) Value {
	return Value{Value: v, Available: true}
}

// Reading holds the decoded values of one characteristic read.
type Reading struct {
	Version    uint8
	Capability Capability
	values     [numSensorKinds]Value
}

func (r Reading) Len() int {
	return r.Capability.NumSensors()
}

// Get returns the value of the given sensor, ok is false for sensors the
// device does not have.
func (r Reading) Get(kind SensorKind) (value Value, ok bool) {
	if kind < 0 || int(kind) >= r.Len() {
		return Value{}, false
	}
	return r.values[kind], true
}

// Format renders a value with its unit, e.g. "22.50 degC" or "N/A Bq/m3".
func (r Reading) Format(kind SensorKind) string {
	v, ok := r.Get(kind)
	if !ok {
		return ""
	}
	return FormatValue(kind, v) + " " + kind.Unit()
}

// Formatted returns the formatted values of all active sensors in order.
func (r Reading) Formatted() []string {
	kinds := r.Capability.Kinds()
	out := make([]string, len(kinds))
	for i, k := range kinds {
		out[i] = r.Format(k)
	}
	return out
}

func FormatValue(kind SensorKind, v Value) string {
	if !v.Available {
		return "N/A"
	}
	return strconv.FormatFloat(v.Value, 'f', sensorPrecision[kind], 64)
}
