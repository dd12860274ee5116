package airthings

import (
	"context"
	"time"
)

// Advertisement is what a scan reports for one peripheral.
type Advertisement struct {
	Addr             string
	ManufacturerData []byte
}

type Transport interface {

	// Scan listens for advertisements for the given duration
	Scan(ctx context.Context, duration time.Duration) ([]Advertisement, error)

	Connect(ctx context.Context, addr string) (Connection, error)
}

type Connection interface {
	ResolveCharacteristic(ctx context.Context, uuid string) (Characteristic, error)
	Close() error
}

type Characteristic interface {
	Read(ctx context.Context) ([]byte, error)
}
