package airthings

import (
	"context"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

type State int

const (
	Disconnected State = iota
	Discovering
	Connected
)

func (s State) String() string {
	switch s {
	case Discovering:
		return "discovering"
	case Connected:
		return "connected"
	default:
		return "disconnected"
	}
}

const (
	DefaultScanDuration = 100 * time.Millisecond
	DefaultScanAttempts = 50
	DefaultOpTimeout    = 10 * time.Second
)

type SessionConfig struct {
	Serial     SerialNumber
	Capability Capability

	// discovery budget: ScanAttempts bursts of ScanDuration each
	ScanDuration time.Duration
	ScanAttempts int

	// bounds connect, characteristic resolution and read; zero means no bound
	OpTimeout time.Duration
}

func (c *SessionConfig) applyDefaults() {
	if c.ScanDuration <= 0 {
		c.ScanDuration = DefaultScanDuration
	}
	if c.ScanAttempts <= 0 {
		c.ScanAttempts = DefaultScanAttempts
	}
	if c.OpTimeout < 0 {
		c.OpTimeout = 0
	}
}

// Session talks to a single device. The address found by discovery is kept
// for the lifetime of the session, the connection is meant to be dropped
// after every read. A Session is not safe for concurrent use.
type Session struct {
	transport Transport
	cfg       SessionConfig

	state State
	addr  string
	conn  Connection
	char  Characteristic
}

func NewSession(transport Transport, cfg SessionConfig) *Session {
	cfg.applyDefaults()
	return &Session{
		transport: transport,
		cfg:       cfg,
		state:     Disconnected,
	}
}

func (s *Session) State() State {
	return s.state
}

// Address returns the discovered device address, empty until discovery succeeds.
func (s *Session) Address() string {
	return s.addr
}

func (s *Session) Capability() Capability {
	return s.cfg.Capability
}

func (s *Session) Serial() SerialNumber {
	return s.cfg.Serial
}

func (s *Session) Connect(ctx context.Context) error {
	if s.addr == "" {
		if !s.cfg.Serial.Known() {
			return errors.Wrap(ErrDeviceNotFound, "no serial number to look for")
		}
		s.state = Discovering
		addr, err := s.discover(ctx)
		if err != nil {
			s.state = Disconnected
			return err
		}
		log.Infof("found device: serialNr %s addr %s", s.cfg.Serial, addr)
		s.addr = addr
		s.state = Disconnected
	}

	if s.conn == nil {
		log.Debugf("connecting to device %s", s.addr)
		opCtx, cancel := s.opContext(ctx)
		conn, err := s.transport.Connect(opCtx, s.addr)
		cancel()
		if err != nil {
			return connectionFailed("connect to "+s.addr, err)
		}
		s.conn = conn
	}

	if s.char == nil {
		uuid := s.cfg.Capability.CharacteristicUUID()
		log.Debugf("resolving characteristic %s", uuid)
		opCtx, cancel := s.opContext(ctx)
		char, err := s.conn.ResolveCharacteristic(opCtx, uuid)
		cancel()
		if err != nil {
			return connectionFailed("resolve characteristic "+uuid, err)
		}
		s.char = char
	}

	s.state = Connected
	return nil
}

func (s *Session) discover(ctx context.Context) (string, error) {
	for i := 0; i < s.cfg.ScanAttempts; i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		ads, err := s.transport.Scan(ctx, s.cfg.ScanDuration)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return "", ctxErr
			}
			log.Warnf("scan attempt %d/%d failed: %s", i+1, s.cfg.ScanAttempts, err)
			continue
		}

		for _, a := range ads {
			sn := ParseSerialNumber(a.ManufacturerData)
			if sn.Known() && sn == s.cfg.Serial {
				return a.Addr, nil
			}
		}
	}

	return "", errors.Wrapf(ErrDeviceNotFound, "serialNr %s not seen in %d scans of %s",
		s.cfg.Serial, s.cfg.ScanAttempts, s.cfg.ScanDuration)
}

func (s *Session) Read(ctx context.Context) (Reading, error) {
	if s.state != Connected || s.char == nil {
		return Reading{}, ErrNotConnected
	}

	log.Debugf("reading characteristic")
	opCtx, cancel := s.opContext(ctx)
	frame, err := s.char.Read(opCtx)
	cancel()
	if err != nil {
		return Reading{}, connectionFailed("read characteristic", err)
	}

	return Decode(frame, s.cfg.Capability)
}

// Disconnect drops the connection, if any. Close errors are only logged.
func (s *Session) Disconnect() {
	if s.conn != nil {
		log.Debugf("closing connection")
		if err := s.conn.Close(); err != nil {
			log.Warnf("error closing connection: %s", err)
		}
	}
	s.conn = nil
	s.char = nil
	s.state = Disconnected
}

func (s *Session) opContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.cfg.OpTimeout == 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.cfg.OpTimeout)
}
