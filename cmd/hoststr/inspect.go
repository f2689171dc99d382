package main

import (
	"fmt"
	"slices"
	"strings"

	"github.com/pyembed/hoststr/pkg/hoststr"
	"github.com/pyembed/hoststr/pkg/hoststr/ffi"
)

// report is one inspected host string.
type report struct {
	Source     string
	Model      string
	Units      string
	CodePoints string
	Bytes      int
	Wide       int
	RoundTrip  bool
	Err        error
}

type codePointer interface {
	CodePoints(obj ffi.Object) ([]rune, error)
}

type wideReader interface {
	ReadWide(p ffi.WidePtr) ([]rune, error)
}

// parseTargets parses a comma-separated list of conversion targets.
func parseTargets(list string) ([]hoststr.Target, error) {
	var out []hoststr.Target
	for _, name := range strings.Split(list, ",") {
		t, err := hoststr.ParseTarget(strings.TrimSpace(name))
		if err != nil {
			return nil, err
		}
		if !slices.Contains(out, t) {
			out = append(out, t)
		}
	}
	return out, nil
}

// inspect converts s into each target. Without the text target there is
// nothing to round-trip and the report counts as lossless.
func inspect(b *hoststr.Bridge, source string, s hoststr.OSString, targets []hoststr.Target) report {
	r := report{
		Source:    source,
		Model:     s.Model().String(),
		Units:     formatUnits(s),
		Bytes:     -1,
		Wide:      -1,
		RoundTrip: true,
	}
	r.Err = b.Do(func() error {
		rt := b.Runtime()
		for _, target := range targets {
			v, err := b.Convert(s, target)
			if err != nil {
				return err
			}
			defer v.Release()

			switch target {
			case hoststr.TargetText:
				if cp, ok := rt.(codePointer); ok {
					if cps, err := cp.CodePoints(v.Object); err == nil {
						r.CodePoints = formatRunes(cps)
					}
				}
				back, err := b.Codec().FromText(rt, v.Object)
				if err != nil {
					return err
				}
				r.RoundTrip = back.Equal(s)
			case hoststr.TargetBytes:
				if inv, ok := rt.(ffi.Inverter); ok {
					if data, err := inv.BytesData(v.Object); err == nil {
						r.Bytes = len(data)
					}
				}
			case hoststr.TargetWide:
				if wr, ok := rt.(wideReader); ok {
					if cps, err := wr.ReadWide(v.Wide.Ptr()); err == nil {
						r.Wide = len(cps)
					}
				}
			}
		}
		return nil
	})
	return r
}

func formatUnits(s hoststr.OSString) string {
	var parts []string
	if s.Model() == hoststr.ModelWindows {
		for _, u := range s.UTF16() {
			parts = append(parts, fmt.Sprintf("%04x", u))
		}
	} else {
		for _, c := range s.Bytes() {
			parts = append(parts, fmt.Sprintf("%02x", c))
		}
	}
	return strings.Join(parts, " ")
}

func formatRunes(rs []rune) string {
	parts := make([]string, len(rs))
	for i, r := range rs {
		parts[i] = fmt.Sprintf("U+%04X", r)
	}
	return strings.Join(parts, " ")
}
