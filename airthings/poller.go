package airthings

import (
	"context"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const DefaultPeriod = 3 * time.Second

// Presenter receives everything the poll loop has to report.
type Presenter interface {
	Header(serial SerialNumber, labels []string)
	Reading(serial SerialNumber, r Reading)

	// Failure is a recoverable error, polling goes on
	Failure(serial SerialNumber, err error)

	// Fatal is the error that stopped polling
	Fatal(serial SerialNumber, err error)
}

// Presenters fans out to every member.
type Presenters []Presenter

func (ps Presenters) Header(serial SerialNumber, labels []string) {
	for _, p := range ps {
		p.Header(serial, labels)
	}
}

func (ps Presenters) Reading(serial SerialNumber, r Reading) {
	for _, p := range ps {
		p.Reading(serial, r)
	}
}

func (ps Presenters) Failure(serial SerialNumber, err error) {
	for _, p := range ps {
		p.Failure(serial, err)
	}
}

func (ps Presenters) Fatal(serial SerialNumber, err error) {
	for _, p := range ps {
		p.Fatal(serial, err)
	}
}

type Poller struct {
	Session   *Session
	Presenter Presenter
	Period    time.Duration
}

// Run polls until ctx is cancelled or a non-recoverable error occurs.
// Cancellation is a clean stop and returns nil.
func (p *Poller) Run(ctx context.Context) error {
	if p.Period <= 0 {
		return errors.Errorf("sample period must be positive, got %s", p.Period)
	}

	serial := p.Session.Serial()
	defer p.Session.Disconnect()

	p.Presenter.Header(serial, p.Session.Capability().Labels())

	for {
		err := p.cycle(ctx)
		switch {
		case err == nil:
		case IsFatal(err):
			p.Presenter.Fatal(serial, err)
			return err
		case ctx.Err() != nil:
			log.Debugf("polling stopped: %s", ctx.Err())
			return nil
		case IsRecoverable(err):
			log.Warnf("read from sensor (serialNr %s) failed: %s", serial, err)
			p.Presenter.Failure(serial, err)
		default:
			p.Presenter.Fatal(serial, err)
			return err
		}

		if !sleep(ctx, p.Period) {
			log.Debugf("polling stopped: %s", ctx.Err())
			return nil
		}
	}
}

func (p *Poller) cycle(ctx context.Context) error {
	defer p.Session.Disconnect()

	if err := p.Session.Connect(ctx); err != nil {
		return err
	}

	reading, err := p.Session.Read(ctx)
	if err != nil {
		return err
	}

	p.Presenter.Reading(p.Session.Serial(), reading)
	return nil
}

func sleep(ctx context.Context, d time.Duration) bool {
	if ctx.Err() != nil {
		return false
	}
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
