package airthings

import (
	"encoding/binary"
	"testing"
)

func manufacturerData(id uint16, serial uint32) []byte {
	data := make([]byte, 6)
	binary.LittleEndian.PutUint16(data[0:2], id)
	binary.LittleEndian.PutUint32(data[2:6], serial)
	return data
}

func TestParseSerialNumberRecoversEncodedValue(t *testing.T) {
	for _, serial := range []uint32{0, 1, 2930012345, 0xFFFFFFFF, 0x01020304} {
		got := ParseSerialNumber(manufacturerData(ManufacturerID, serial))
		if !got.Known() {
			t.Fatalf("serial %d: expected known serial number", serial)
		}
		if got.Uint32() != serial {
			t.Fatalf("expected %d, got %d", serial, got.Uint32())
		}
	}
}

func TestParseSerialNumberLittleEndianLayout(t *testing.T) {
	got := ParseSerialNumber([]byte{0x34, 0x03, 0x39, 0x30, 0x00, 0x00, 0xAA})
	if got != NewSerialNumber(12345) {
		t.Fatalf("expected 12345, got %s", got)
	}
}

func TestParseSerialNumberUnknown(t *testing.T) {
	cases := map[string][]byte{
		"nil":          nil,
		"empty":        {},
		"short":        {0x34, 0x03, 0x01, 0x02, 0x03},
		"id only":      {0x34, 0x03},
		"other vendor": manufacturerData(0x004C, 12345),
		"swapped id":   manufacturerData(0x3403, 12345),
	}
	for name, data := range cases {
		if got := ParseSerialNumber(data); got != UnknownSerialNumber {
			t.Fatalf("%s: expected Unknown, got %s", name, got)
		}
	}
}

func TestSerialNumberString(t *testing.T) {
	if s := UnknownSerialNumber.String(); s != "Unknown" {
		t.Fatalf("expected Unknown, got %s", s)
	}
	if s := NewSerialNumber(2930012345).String(); s != "2930012345" {
		t.Fatalf("expected 2930012345, got %s", s)
	}
}

func TestParseSerialNumberArg(t *testing.T) {
	sn, err := ParseSerialNumberArg("2930012345")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if sn != NewSerialNumber(2930012345) {
		t.Fatalf("unexpected serial %s", sn)
	}

	for _, bad := range []string{"", "-1", "abc", "4294967296"} {
		if _, err := ParseSerialNumberArg(bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}
