package waveplus

import (
	"context"
	"time"

	"github.com/go-ble/ble"
	"github.com/go-ble/ble/linux"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/alepar/waveplus-read/airthings"
)

// BleTransport implements airthings.Transport on top of the go-ble default device.
type BleTransport struct{}

var _ airthings.Transport = (*BleTransport)(nil)

// OpenDevice opens the local HCI device and makes it the go-ble default.
// The returned func releases it.
func OpenDevice() (func(), error) {
	d, err := linux.NewDevice()
	if err != nil {
		return nil, errors.Wrap(err, "failed to open ble")
	}
	ble.SetDefaultDevice(d)

	return func() {
		if err := ble.Stop(); err != nil {
			log.Warnf("failed to stop ble: %s", err)
		}
	}, nil
}

func (t *BleTransport) Scan(ctx context.Context, duration time.Duration) ([]airthings.Advertisement, error) {
	scanCtx, cancel := context.WithTimeout(ctx, duration)
	defer cancel()

	ads, err := ble.Find(scanCtx, false, airthingsOnlyFilter)
	if err != nil {
		switch errors.Cause(err) {
		case context.DeadlineExceeded:
			// a burst ending on its own deadline is the normal outcome
			if ctx.Err() != nil {
				return nil, errors.Wrap(ctx.Err(), "scan for devices cancelled")
			}
		case context.Canceled:
			return nil, errors.Wrap(err, "scan for devices cancelled")
		default:
			return nil, errors.Wrap(err, "failed to scan for devices")
		}
	}

	found := make([]airthings.Advertisement, 0, len(ads))
	for _, a := range ads {
		found = append(found, airthings.Advertisement{
			Addr:             a.Addr().String(),
			ManufacturerData: a.ManufacturerData(),
		})
	}
	log.Debugf("scan burst found %d airthings devices", len(found))

	return found, nil
}

func airthingsOnlyFilter(a ble.Advertisement) bool {
	if !a.Connectable() {
		return false
	}
	return airthings.ParseSerialNumber(a.ManufacturerData()).Known()
}
