package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/version"
	log "github.com/sirupsen/logrus"

	"github.com/alepar/waveplus-read/airthings"
	"github.com/alepar/waveplus-read/airthings/console"
	"github.com/alepar/waveplus-read/airthings/promexport"
	"github.com/alepar/waveplus-read/airthings/waveplus"
)

type options struct {
	serial        airthings.SerialNumber
	period        time.Duration
	hasAirQuality bool
	plain         bool
	scanDuration  time.Duration
	scanAttempts  int
	timeout       time.Duration
	listenAddr    string
	debug         bool
}

func (o options) capability() airthings.Capability {
	if o.hasAirQuality {
		return airthings.WithAirQuality
	}
	return airthings.Basic
}

// parseArgs accepts flags both before and after the positional serial number.
func parseArgs(args []string, output io.Writer) (options, error) {
	fs := flag.NewFlagSet("waveplus-read", flag.ContinueOnError)
	fs.SetOutput(output)
	fs.Usage = func() {
		fmt.Fprintf(output, "Read values from Airthings Waveplus Sensor Devices\n\n")
		fmt.Fprintf(output, "usage: waveplus-read [flags] serial\n\n")
		fmt.Fprintf(output, "  serial\n\tThe Serial Number printed on the backplate of the device.\n")
		fs.PrintDefaults()
	}

	opts := options{}
	var periodSec float64
	fs.Float64Var(&periodSec, "period", airthings.DefaultPeriod.Seconds(), "The sample period, in seconds.")
	fs.Float64Var(&periodSec, "t", airthings.DefaultPeriod.Seconds(), "shorthand for --period")
	fs.BoolVar(&opts.hasAirQuality, "hasAirQuality", false, "Does the device has air quality sensors?")
	fs.BoolVar(&opts.hasAirQuality, "q", false, "shorthand for --hasAirQuality")
	fs.BoolVar(&opts.plain, "plain", false, "Does not format the output for pretty printing.")
	fs.DurationVar(&opts.scanDuration, "scan-dur", airthings.DefaultScanDuration, "duration of a single discovery scan")
	fs.IntVar(&opts.scanAttempts, "scan-attempts", airthings.DefaultScanAttempts, "max number of discovery scans")
	fs.DurationVar(&opts.timeout, "timeout", airthings.DefaultOpTimeout, "timeout for BLE connect and read, 0 disables")
	fs.StringVar(&opts.listenAddr, "listen-address", "", "The address to expose Prometheus metrics on, empty disables.")
	fs.BoolVar(&opts.debug, "debug", false, "enable debug logging")

	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return options{}, errors.New("missing serial number")
	}
	serialArg := fs.Arg(0)
	if err := fs.Parse(fs.Args()[1:]); err != nil {
		return options{}, err
	}
	if fs.NArg() > 0 {
		return options{}, errors.Errorf("unexpected arguments: %v", fs.Args())
	}

	serial, err := airthings.ParseSerialNumberArg(serialArg)
	if err != nil {
		return options{}, err
	}
	opts.serial = serial

	if periodSec <= 0 {
		return options{}, errors.Errorf("period must be positive, got %v", periodSec)
	}
	opts.period = time.Duration(periodSec * float64(time.Second))

	if opts.scanDuration <= 0 {
		return options{}, errors.Errorf("scan-dur must be positive, got %s", opts.scanDuration)
	}
	if opts.scanAttempts <= 0 {
		return options{}, errors.Errorf("scan-attempts must be positive, got %d", opts.scanAttempts)
	}
	if opts.timeout < 0 {
		return options{}, errors.Errorf("timeout must not be negative, got %s", opts.timeout)
	}

	return opts, nil
}

func init() {
	//logging
	formatter := &log.TextFormatter{
		FullTimestamp: true,
	}
	log.SetFormatter(formatter)
	log.SetOutput(os.Stderr)
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	opts, err := parseArgs(args, os.Stderr)
	if err == flag.ErrHelp {
		return 0
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}
	if opts.debug {
		log.SetLevel(log.DebugLevel)
	}
	log.Debugf("starting %s", version.Info())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		select {
		case <-sigChan:
			log.Debugf("interrupt received, stopping")
			cancel()
		case <-ctx.Done():
		}
	}()

	presenters := airthings.Presenters{console.New(os.Stdout, opts.plain)}
	if opts.listenAddr != "" {
		exporter, err := startMetrics(opts.listenAddr)
		if err != nil {
			log.Errorf("failed to start metrics: %s", err)
			return 1
		}
		presenters = append(presenters, exporter)
	}

	closeBle, err := waveplus.OpenDevice()
	if err != nil {
		log.Errorf("%s", err)
		return 1
	}
	defer closeBle()

	session := airthings.NewSession(&waveplus.BleTransport{}, airthings.SessionConfig{
		Serial:       opts.serial,
		Capability:   opts.capability(),
		ScanDuration: opts.scanDuration,
		ScanAttempts: opts.scanAttempts,
		OpTimeout:    opts.timeout,
	})
	poller := &airthings.Poller{
		Session:   session,
		Presenter: presenters,
		Period:    opts.period,
	}

	if err := poller.Run(ctx); err != nil {
		log.Debugf("polling failed: %+v", err)
		return 1
	}
	return 0
}

func startMetrics(listenAddr string) (*promexport.Exporter, error) {
	reg := prometheus.NewRegistry()
	// Add Go module build info.
	if err := reg.Register(prometheus.NewBuildInfoCollector()); err != nil {
		return nil, errors.Wrap(err, "failed to register build info")
	}

	exporter, err := promexport.New(reg)
	if err != nil {
		return nil, err
	}

	go func() {
		if err := promexport.Serve(listenAddr, reg); err != nil {
			log.Errorf("metrics endpoint stopped: %s", err)
		}
	}()

	return exporter, nil
}
