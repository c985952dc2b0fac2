// v2
// internal/stream/processor.go

// Package stream contains the consumption core: an ordered event source
// abstraction, the processor loop that feeds the rolling window, and the
// Kafka-backed source implementation.
package stream

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/mokeyzz1/buzzline-03-moses/internal/alert"
	"github.com/mokeyzz1/buzzline-03-moses/internal/detect"
	"github.com/mokeyzz1/buzzline-03-moses/internal/metrics"
)

// ErrEndOfStream reports that the event source has no further events.
// The processor treats it as a normal shutdown, not a failure.
var ErrEndOfStream = errors.New("end of stream")

// RawEvent is one opaque record pulled from the event source, with
// delivery metadata for logging.
type RawEvent struct {
	Value     []byte
	Topic     string
	Partition int
	Offset    int64
}

// EventSource produces an ordered sequence of raw events. Next blocks
// until an event is available, the context is cancelled, or the stream
// ends. Close must be idempotent.
type EventSource interface {
	Next(ctx context.Context) (RawEvent, error)
	Close() error
}

// State tracks the processor lifecycle.
type State int

const (
	StateStarting State = iota
	StateRunning
	StateStoppingNormal
	StateStoppingOnError
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateStarting:
		return "starting"
	case StateRunning:
		return "running"
	case StateStoppingNormal:
		return "stopping"
	case StateStoppingOnError:
		return "stopping-on-error"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Status is a point-in-time snapshot of the processor for the status API.
type Status struct {
	State           string    `json:"state"`
	Processed       uint64    `json:"processed"`
	ParseErrors     uint64    `json:"parseErrors"`
	HighTempAlerts  uint64    `json:"highTempAlerts"`
	StallAlerts     uint64    `json:"stallAlerts"`
	WindowValues    []float64 `json:"windowValues"`
	WindowSpread    float64   `json:"windowSpread"`
	WindowFull      bool      `json:"windowFull"`
	LastTimestamp   string    `json:"lastTimestamp,omitempty"`
	LastTemperature float64   `json:"lastTemperature"`
}

// Processor owns exactly one rolling window and consumes events strictly
// in delivery order. One processor per stream; the window is never shared.
type Processor struct {
	source EventSource
	sink   alert.Sink
	det    detect.Detector
	log    *slog.Logger

	closeOnce sync.Once
	closeErr  error

	mu          sync.Mutex
	state       State
	window      *detect.Window
	processed   uint64
	parseErrors uint64
	highTemps   uint64
	stalls      uint64
	last        detect.Reading
	hasLast     bool
}

// NewProcessor allocates the rolling window and wires the collaborators.
// The returned processor is in the starting state until Run is called.
func NewProcessor(source EventSource, sink alert.Sink, det detect.Detector, log *slog.Logger) (*Processor, error) {
	if source == nil {
		return nil, errors.New("event source must not be nil")
	}
	if sink == nil {
		return nil, errors.New("alert sink must not be nil")
	}
	if log == nil {
		return nil, errors.New("logger must not be nil")
	}
	if det.WindowSize <= 0 {
		return nil, errors.New("window size must be positive")
	}
	if det.StallThreshold < 0 {
		return nil, errors.New("stall threshold must be non-negative")
	}
	return &Processor{
		source: source,
		sink:   sink,
		det:    det,
		log:    log,
		state:  StateStarting,
		window: detect.NewWindow(det.WindowSize),
	}, nil
}

// State returns the current lifecycle state.
func (p *Processor) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Snapshot returns the current processing status for the HTTP API.
func (p *Processor) Snapshot() Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	spread, _ := p.window.Spread()
	st := Status{
		State:          p.state.String(),
		Processed:      p.processed,
		ParseErrors:    p.parseErrors,
		HighTempAlerts: p.highTemps,
		StallAlerts:    p.stalls,
		WindowValues:   p.window.Values(),
		WindowSpread:   spread,
		WindowFull:     p.window.Full(),
	}
	if p.hasLast {
		st.LastTimestamp = p.last.Timestamp
		st.LastTemperature = p.last.Temperature
	}
	return st
}

// Run consumes events until the context is cancelled, the stream ends, or
// an unrecoverable failure occurs. The event source is released exactly
// once on every exit path. Recoverable parse failures never escape; any
// other source error is returned after cleanup.
func (p *Processor) Run(ctx context.Context) error {
	p.setState(StateRunning)
	p.log.Info("processor_start", "windowSize", p.det.WindowSize, "stallThreshold", p.det.StallThreshold, "highTempLimit", p.det.HighTempLimit)

	defer func() {
		p.releaseSource()
		p.setState(StateStopped)
		p.log.Info("processor_stopped")
	}()

	for {
		// interruption is observed at the top of every iteration
		if ctx.Err() != nil {
			p.setState(StateStoppingNormal)
			p.log.Info("processor_interrupted")
			return nil
		}

		ev, err := p.source.Next(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				p.setState(StateStoppingNormal)
				p.log.Info("processor_interrupted")
				return nil
			}
			if errors.Is(err, ErrEndOfStream) {
				p.setState(StateStoppingNormal)
				p.log.Info("processor_end_of_stream")
				return nil
			}
			p.setState(StateStoppingOnError)
			a := alert.New(alert.KindFatalError, "", 0, err.Error())
			p.sink.Emit(ctx, a)
			metrics.IncAlert(string(alert.KindFatalError))
			return fmt.Errorf("event source failure: %w", err)
		}

		p.handleEvent(ctx, ev)
	}
}

func (p *Processor) handleEvent(ctx context.Context, ev RawEvent) {
	metrics.IncConsumed()

	reading, err := decodeReading(ev.Value)
	if err != nil {
		// recoverable: log, alert, skip; the window is not touched
		p.mu.Lock()
		p.parseErrors++
		p.mu.Unlock()
		metrics.IncParseError()
		metrics.IncAlert(string(alert.KindParseError))
		p.log.Error("invalid_message", "topic", ev.Topic, "partition", ev.Partition, "offset", ev.Offset, "err", err)
		p.sink.Emit(ctx, alert.New(alert.KindParseError, "", 0, err.Error()))
		return
	}

	p.mu.Lock()
	p.window.Push(reading.Temperature)
	res := p.det.Evaluate(p.window, reading)
	p.processed++
	p.last = reading
	p.hasLast = true
	if res.HighTemp {
		p.highTemps++
	}
	if res.Stalled {
		p.stalls++
	}
	depth := p.window.Len()
	spread, _ := p.window.Spread()
	p.mu.Unlock()

	metrics.SetWindowDepth(depth)
	metrics.SetWindowSpread(spread)
	metrics.SetLastTemperature(reading.Temperature)
	p.log.Info("reading_processed", "timestamp", reading.Timestamp, "temperature", reading.Temperature, "offset", ev.Offset, "windowDepth", depth)

	if res.HighTemp {
		metrics.IncAlert(string(alert.KindHighTemp))
		p.sink.Emit(ctx, alert.New(alert.KindHighTemp, reading.Timestamp, reading.Temperature, ""))
	}
	if res.Stalled {
		metrics.IncAlert(string(alert.KindStall))
		detail := fmt.Sprintf("temperature stable within %.3g over last %d readings", spread, p.det.WindowSize)
		p.sink.Emit(ctx, alert.New(alert.KindStall, reading.Timestamp, reading.Temperature, detail))
	}
}

// releaseSource closes the event source exactly once.
func (p *Processor) releaseSource() {
	p.closeOnce.Do(func() {
		if err := p.source.Close(); err != nil {
			p.closeErr = err
			p.log.Error("source_close_failed", "err", err)
			return
		}
		p.log.Info("source_closed")
	})
}

func (p *Processor) setState(s State) {
	p.mu.Lock()
	// stopped is terminal
	if p.state != StateStopped {
		p.state = s
	}
	p.mu.Unlock()
}
