package hoststr

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/pyembed/hoststr/pkg/hoststr/cpython"
	"github.com/pyembed/hoststr/pkg/hoststr/ffi"
	"github.com/pyembed/hoststr/pkg/hoststr/logging"
	"github.com/pyembed/hoststr/pkg/hoststr/sandbox"
)

// Target is the runtime representation a host string is converted to.
type Target int

const (
	TargetText Target = iota + 1
	TargetBytes
	TargetWide
)

func (t Target) String() string {
	switch t {
	case TargetText:
		return "text"
	case TargetBytes:
		return "bytes"
	case TargetWide:
		return "wide"
	default:
		return "unknown"
	}
}

// ParseTarget parses "text", "bytes" or "wide".
func ParseTarget(s string) (Target, error) {
	for _, t := range []Target{TargetText, TargetBytes, TargetWide} {
		if t.String() == s {
			return t, nil
		}
	}
	return 0, fmt.Errorf("hoststr: unknown target %q", s)
}

// Value is the result of Bridge.Convert. Exactly one field is set.
type Value struct {
	Object ffi.Object
	Wide   *WideString
}

// Release drops the object reference or frees the wide string.
func (v Value) Release() {
	if v.Object != nil {
		v.Object.Release()
	}
	if v.Wide != nil {
		v.Wide.Free()
	}
}

// Option configures a Bridge.
type Option func(*Bridge)

// WithCodec overrides the Host codec.
func WithCodec(c Codec) Option {
	return func(b *Bridge) { b.codec = c }
}

// WithLogger sets the logger. The default discards.
func WithLogger(l logging.Logger) Option {
	return func(b *Bridge) { b.log = l }
}

// Bridge binds a runtime, a codec and a logger. Conversions do not lock:
// callers hold the runtime's execution lock, for example through Do.
type Bridge struct {
	rt    ffi.Runtime
	codec Codec
	log   logging.Logger

	mu     sync.Mutex
	closed bool
	closer func(context.Context) error
}

// New wraps an existing runtime. Close does not close rt.
func New(rt ffi.Runtime, opts ...Option) *Bridge {
	b := &Bridge{rt: rt, codec: Host, log: logging.Discard()}
	for _, opt := range opts {
		opt(b)
	}
	b.log = b.log.With("runtime", rt.Name(), "codec", b.codec.Model().String())
	return b
}

// logOutput receives the default log of a Bridge created by Open.
var logOutput io.Writer = os.Stderr

// logOptions puts a default logger for cfg.LogLevel ahead of opts and filters
// whichever logger wins at that level. An empty LogLevel keeps the discarding
// default.
func logOptions(cfg Config, opts []Option) []Option {
	if cfg.LogLevel == "" {
		return opts
	}
	level := cfg.Level()
	def := logging.New(slog.New(slog.NewTextHandler(logOutput, &slog.HandlerOptions{Level: level})))
	out := append([]Option{WithLogger(def)}, opts...)
	return append(out, func(b *Bridge) { b.log = logging.WithLevel(b.log, level) })
}

// Open starts the backend named by cfg and returns a Bridge that owns it.
// A non-empty cfg.LogLevel logs to stderr unless WithLogger is given, and
// filters the given logger at that level otherwise.
func Open(ctx context.Context, cfg Config, opts ...Option) (*Bridge, error) {
	if err := cfg.Validate(); err != nil {
		return nil, opError("Open", err)
	}
	opts = logOptions(cfg, opts)

	switch cfg.BackendName() {
	case BackendSandbox:
		rt, err := sandbox.New(ctx, sandbox.Options{
			Locale:        cfg.Locale,
			HeapPages:     cfg.HeapPages,
			AllowUnlocked: cfg.AllowUnlocked,
		})
		if err != nil {
			return nil, remapError("Open", err, nil)
		}
		b := New(rt, opts...)
		b.closer = rt.Close
		return b, nil

	case BackendCPython:
		rt, err := cpython.Open()
		if err != nil {
			return nil, remapError("Open", err, nil)
		}
		b := New(rt, opts...)
		b.closer = func(context.Context) error { return rt.Close() }
		return b, nil
	}
	return nil, opError("Open", fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Backend))
}

// Close releases a runtime started by Open. A second call returns
// ErrBridgeClosed.
func (b *Bridge) Close(ctx context.Context) error {
	if b == nil {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return opError("Close", ErrBridgeClosed)
	}
	b.closed = true
	if b.closer != nil {
		if err := b.closer(ctx); err != nil {
			return opError("Close", err)
		}
	}
	return nil
}

// Runtime returns the bound runtime.
func (b *Bridge) Runtime() ffi.Runtime { return b.rt }

// Codec returns the bound codec.
func (b *Bridge) Codec() Codec { return b.codec }

func (b *Bridge) check(op string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return opError(op, ErrBridgeClosed)
	}
	return nil
}

// Do runs fn while holding the runtime's execution lock, if it has one.
func (b *Bridge) Do(fn func() error) error {
	if err := b.check("Do"); err != nil {
		return err
	}
	if l, ok := b.rt.(ffi.Locker); ok {
		release := l.Acquire()
		defer release()
	}
	return fn()
}

func (b *Bridge) trace(op string, s OSString) {
	b.log.Debug(context.Background(), "convert",
		"op", op,
		"model", s.Model().String(),
		"units", s.Len(),
		logging.Redacted("value"),
	)
}

// Text converts s into a runtime text object.
func (b *Bridge) Text(s OSString) (ffi.Object, error) {
	if err := b.check("Text"); err != nil {
		return nil, err
	}
	b.trace("text", s)
	obj, err := b.codec.Text(b.rt, s)
	if err != nil {
		b.log.Debug(context.Background(), "convert failed", "op", "text", "error", err)
	}
	return obj, err
}

// Bytes converts s into a runtime bytes object.
func (b *Bridge) Bytes(s OSString) (ffi.Object, error) {
	if err := b.check("Bytes"); err != nil {
		return nil, err
	}
	b.trace("bytes", s)
	obj, err := b.codec.Bytes(b.rt, s)
	if err != nil {
		b.log.Debug(context.Background(), "convert failed", "op", "bytes", "error", err)
	}
	return obj, err
}

// Wide decodes s into a runtime-allocated wide string. A Windows host string
// is passed as its Go string form, so unpaired surrogates become U+FFFD.
func (b *Bridge) Wide(s OSString) (*WideString, error) {
	if err := b.check("Wide"); err != nil {
		return nil, err
	}
	b.trace("wide", s)
	var (
		w   *WideString
		err error
	)
	if s.Model() == ModelPOSIX {
		w, err = NewWideStringFromOS(b.rt, s)
	} else {
		w, err = NewWideString(b.rt, s.String())
	}
	if err != nil {
		b.log.Debug(context.Background(), "convert failed", "op", "wide", "error", err)
	}
	return w, err
}

// Convert converts s into the requested target.
func (b *Bridge) Convert(s OSString, target Target) (Value, error) {
	switch target {
	case TargetText:
		obj, err := b.Text(s)
		return Value{Object: obj}, err
	case TargetBytes:
		obj, err := b.Bytes(s)
		return Value{Object: obj}, err
	case TargetWide:
		w, err := b.Wide(s)
		return Value{Wide: w}, err
	}
	return Value{}, opError("Convert", fmt.Errorf("unknown target %d", int(target)))
}

// RoundTrip converts s to text and back and returns the result, which equals
// s whenever the conversion is lossless.
func (b *Bridge) RoundTrip(s OSString) (OSString, error) {
	obj, err := b.Text(s)
	if err != nil {
		return OSString{}, err
	}
	defer obj.Release()
	return b.codec.FromText(b.rt, obj)
}
