package airthings

import (
	"encoding/binary"
	"strconv"

	"github.com/pkg/errors"
)

// ManufacturerID is the Bluetooth SIG company identifier Airthings devices
// put in front of their manufacturer specific advertisement data.
const ManufacturerID = 0x0334

const manufacturerDataMinLen = 6

// SerialNumber is the number printed on the backplate of a device.
// The zero value is UnknownSerialNumber.
type SerialNumber struct {
	value uint32
	known bool
}

var UnknownSerialNumber = SerialNumber{}

func NewSerialNumber(value uint32) SerialNumber {
	return SerialNumber{value: value, known: true}
}

func (sn SerialNumber) Known() bool {
	return sn.known
}

func (sn SerialNumber) Uint32() uint32 {
	return sn.value
}

func (sn SerialNumber) String() string {
	if !sn.known {
		return "Unknown"
	}
	return strconv.FormatUint(uint64(sn.value), 10)
}

// ParseSerialNumber extracts the serial number from manufacturer data
// (advertisement type 0xFF). Anything that is not a complete Airthings
// payload yields UnknownSerialNumber.
func ParseSerialNumber(manufacturerData []byte) SerialNumber {
	if len(manufacturerData) < manufacturerDataMinLen {
		return UnknownSerialNumber
	}
	if binary.LittleEndian.Uint16(manufacturerData[0:2]) != ManufacturerID {
		return UnknownSerialNumber
	}
	return NewSerialNumber(binary.LittleEndian.Uint32(manufacturerData[2:6]))
}

// ParseSerialNumberArg parses a decimal serial number as given on the command line.
func ParseSerialNumberArg(s string) (SerialNumber, error) {
	v, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return UnknownSerialNumber, errors.Wrapf(err, "invalid serial number %q", s)
	}
	return NewSerialNumber(uint32(v)), nil
}
