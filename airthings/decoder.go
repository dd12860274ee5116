package airthings

import (
	"bytes"
	"encoding/binary"

	"github.com/pkg/errors"
)

// FrameSize is the length of the current values characteristic:
// four single bytes followed by eight little-endian words.
const FrameSize = 20

const (
	supportedVersion = 1

	// larger raw radon values mean the measurement is invalid or the
	// sensor is still stabilizing
	radonMaxValid = 16383
)

// rawFrame mirrors the characteristic layout <BBBBHHHHHHHH>.
type rawFrame struct {
	Version      uint8
	Humidity     uint8
	AmbientLight uint8
	Waves        uint8
	RadonShort   uint16
	RadonLong    uint16
	Temperature  uint16
	AtmPressure  uint16
	Co2          uint16
	Voc          uint16
	Unk10        uint16
	Unk11        uint16
}

// Decode interprets a current values frame. Only sensors covered by
// capability are populated.
func Decode(frame []byte, capability Capability) (Reading, error) {
	if len(frame) != FrameSize {
		return Reading{}, errors.Wrapf(ErrInvalidFrame, "expected %d bytes, got %d", FrameSize, len(frame))
	}

	raw := rawFrame{}
	if err := binary.Read(bytes.NewReader(frame), binary.LittleEndian, &raw); err != nil {
		return Reading{}, errors.Wrap(ErrInvalidFrame, err.Error())
	}
	if raw.Version != supportedVersion {
		return Reading{}, errors.Wrapf(ErrUnsupportedVersion, "version %d", raw.Version)
	}

	all := [numSensorKinds]Value{
		Humidity:          available(float64(raw.Humidity) / 2.0),
		RadonShortTermAvg: RadonValue(raw.RadonShort),
		RadonLongTermAvg:  RadonValue(raw.RadonLong),
		Temperature:       available(float64(raw.Temperature) / 100.0),
		RelAtmPressure:    available(float64(raw.AtmPressure) / 50.0),
		Co2Level:          available(float64(raw.Co2)),
		VocLevel:          available(float64(raw.Voc)),
	}

	reading := Reading{Version: raw.Version, Capability: capability}
	copy(reading.values[:capability.NumSensors()], all[:])
	return reading, nil
}

func RadonValue(raw uint16) Value {
	if raw > radonMaxValid {
		return NotAvailable()
	}
	return available(float64(raw))
}
