package airthings

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

// fakeTransport serves scripted scan bursts and records calls.
type fakeTransport struct {
	// bursts[i] is returned by the i-th scan, later scans return nothing
	bursts       [][]Advertisement
	scanErr      error
	scans        int
	cancelAt     int
	cancel       context.CancelFunc
	connects     []string
	connErr      error
	// when positive only the first failConnects connects return connErr
	failConnects int
	resolveErr   error
	readErr      error
	frame        []byte
	// called before the characteristic read returns
	onRead       func()
	closes       int
	closeErr     error
	resolved     []string
}

func (t *fakeTransport) Scan(ctx context.Context, duration time.Duration) ([]Advertisement, error) {
	t.scans++
	if t.cancel != nil && t.scans == t.cancelAt {
		t.cancel()
		return nil, errors.Wrap(ctx.Err(), "scan for devices cancelled")
	}
	if t.scanErr != nil {
		return nil, t.scanErr
	}
	if t.scans <= len(t.bursts) {
		return t.bursts[t.scans-1], nil
	}
	return nil, nil
}

func (t *fakeTransport) Connect(ctx context.Context, addr string) (Connection, error) {
	t.connects = append(t.connects, addr)
	if t.connErr != nil && (t.failConnects == 0 || len(t.connects) <= t.failConnects) {
		return nil, t.connErr
	}
	return &fakeConnection{t: t}, nil
}

type fakeConnection struct {
	t *fakeTransport
}

func (c *fakeConnection) ResolveCharacteristic(ctx context.Context, uuid string) (Characteristic, error) {
	c.t.resolved = append(c.t.resolved, uuid)
	if c.t.resolveErr != nil {
		return nil, c.t.resolveErr
	}
	return &fakeCharacteristic{t: c.t}, nil
}

func (c *fakeConnection) Close() error {
	c.t.closes++
	return c.t.closeErr
}

type fakeCharacteristic struct {
	t *fakeTransport
}

func (c *fakeCharacteristic) Read(ctx context.Context) ([]byte, error) {
	if c.t.onRead != nil {
		c.t.onRead()
	}
	if c.t.readErr != nil {
		return nil, c.t.readErr
	}
	return c.t.frame, nil
}

func noise() []Advertisement {
	return []Advertisement{
		{Addr: "aa:bb:cc:00:00:01", ManufacturerData: manufacturerData(ManufacturerID, 1111)},
		{Addr: "aa:bb:cc:00:00:02", ManufacturerData: nil},
		{Addr: "aa:bb:cc:00:00:03", ManufacturerData: manufacturerData(0x004C, 2930012345)},
	}
}

// blockingTransport never answers until ctx is done.
type blockingTransport struct {
	blockConnect bool
	blockResolve bool
	blockRead    bool
}

func (t *blockingTransport) Scan(ctx context.Context, duration time.Duration) ([]Advertisement, error) {
	return []Advertisement{{Addr: "d8:3b:7f:11:22:33", ManufacturerData: manufacturerData(ManufacturerID, 2930012345)}}, nil
}

func (t *blockingTransport) Connect(ctx context.Context, addr string) (Connection, error) {
	if t.blockConnect {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return &blockingConnection{t: t}, nil
}

type blockingConnection struct {
	t *blockingTransport
}

func (c *blockingConnection) ResolveCharacteristic(ctx context.Context, uuid string) (Characteristic, error) {
	if c.t.blockResolve {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return c, nil
}

func (c *blockingConnection) Read(ctx context.Context) ([]byte, error) {
	if c.t.blockRead {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return sampleFrame, nil
}

func (c *blockingConnection) Close() error {
	return nil
}
