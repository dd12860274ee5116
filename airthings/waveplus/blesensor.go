package waveplus

import (
	"context"
	"strings"
	"time"

	"github.com/go-ble/ble"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/alepar/waveplus-read/airthings"
)

const disconnectWait = 5 * time.Second

type bleConnection struct {
	cln  ble.Client
	done chan struct{}
}

type bleCharacteristic struct {
	cln  ble.Client
	char *ble.Characteristic
}

func (t *BleTransport) Connect(ctx context.Context, addr string) (airthings.Connection, error) {
	filter := func(a ble.Advertisement) bool {
		return strings.ToUpper(a.Addr().String()) == strings.ToUpper(addr)
	}

	log.Debugf("connecting to device")
	cln, err := ble.Connect(ctx, filter)
	if err != nil {
		return nil, errors.Wrap(err, "couldn't connect to ble")
	}

	// Normally, the connection is disconnected by us after the read.
	// However, it can be asynchronously disconnected by the remote peripheral.
	// So we wait(detect) the disconnection in the go routine.
	conn := &bleConnection{cln: cln, done: make(chan struct{})}
	go func() {
		<-cln.Disconnected()
		log.Debugf("device disconnected")
		close(conn.done)
	}()

	return conn, nil
}

func (c *bleConnection) ResolveCharacteristic(ctx context.Context, uuid string) (airthings.Characteristic, error) {
	charUuid, err := ble.Parse(uuid)
	if err != nil {
		return nil, errors.Wrapf(err, "could not parse characteristic uuid %s", uuid)
	}

	type result struct {
		char *ble.Characteristic
		err  error
	}
	resCh := make(chan result, 1)
	go func() {
		char, err := c.discover(charUuid)
		resCh <- result{char, err}
	}()

	select {
	case <-ctx.Done():
		return nil, errors.Wrap(ctx.Err(), "discovering characteristic")
	case res := <-resCh:
		if res.err != nil {
			return nil, res.err
		}
		return &bleCharacteristic{cln: c.cln, char: res.char}, nil
	}
}

func (c *bleConnection) discover(charUuid ble.UUID) (*ble.Characteristic, error) {
	log.Debugf("discovering services")
	services, err := c.cln.DiscoverServices(nil)
	log.Debugf("finished discovering services")
	if err != nil {
		return nil, errors.Wrap(err, "couldn't discover services")
	}

	log.Debugf("discovering characteristics")
	for _, service := range services {
		characteristics, err := c.cln.DiscoverCharacteristics([]ble.UUID{charUuid}, service)
		if err != nil {
			return nil, errors.Wrapf(err, "couldn't discover characteristics of service %s", service.UUID)
		}
		for _, char := range characteristics {
			if char.UUID.Equal(charUuid) {
				log.Debugf("finished discovering characteristics")
				return char, nil
			}
		}
	}

	return nil, errors.Errorf("did not find expected characteristic %s", charUuid)
}

func (c *bleConnection) Close() error {
	err := c.cln.CancelConnection()

	select {
	case <-c.done:
	case <-time.After(disconnectWait):
		log.Warnf("device did not report disconnection within %s", disconnectWait)
	}

	return errors.Wrap(err, "failed to cancel connection")
}

func (c *bleCharacteristic) Read(ctx context.Context) ([]byte, error) {
	type result struct {
		data []byte
		err  error
	}
	resCh := make(chan result, 1)
	go func() {
		data, err := c.cln.ReadCharacteristic(c.char)
		resCh <- result{data, err}
	}()

	select {
	case <-ctx.Done():
		return nil, errors.Wrap(ctx.Err(), "reading characteristic")
	case res := <-resCh:
		log.Debugf("finished reading characteristic")
		if res.err != nil {
			return nil, errors.Wrap(res.err, "failed to read characteristic value")
		}
		return res.data, nil
	}
}
