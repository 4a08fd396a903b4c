// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

// Package render defines the frame handed to the board surface and the surfaces flapboard
// ships with.
package render

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
	"sync"
	"time"

	"github.com/wneessen/flapboard/internal/flap"
	"github.com/wneessen/flapboard/internal/observability"
)

// Scale is the named size of a row on the board.
type Scale string

const (
	ScaleS  Scale = "S"
	ScaleM  Scale = "M"
	ScaleL  Scale = "L"
	ScaleXL Scale = "XL"
)

var ErrInvalidScale = errors.New("invalid scale")

// ParseScale returns the Scale for name.
func ParseScale(name string) (Scale, error) {
	switch scale := Scale(name); scale {
	case ScaleS, ScaleM, ScaleL, ScaleXL:
		return scale, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidScale, name)
	}
}

// Row is one line of the board. Text always occupies exactly Length display cells.
type Row struct {
	Name    string       `json:"name"`
	Text    string       `json:"text"`
	Length  int          `json:"length"`
	Scale   Scale        `json:"scale"`
	Pad     flap.PadMode `json:"pad"`
	Visible bool         `json:"visible"`
}

// Frame is the full content of the board at one point in time.
type Frame struct {
	Rows      []Row     `json:"rows"`
	Generated time.Time `json:"generated"`
}

// Equal reports whether both frames show the same rows. The generation time is ignored.
func (f Frame) Equal(other Frame) bool {
	return slices.Equal(f.Rows, other.Rows)
}

// Row returns the first row with the given name.
func (f Frame) Row(name string) (Row, bool) {
	for _, row := range f.Rows {
		if row.Name == name {
			return row, true
		}
	}
	return Row{}, false
}

// Surface consumes frames.
type Surface interface {
	Render(ctx context.Context, frame Frame) error
}

// JSONWriter writes every changed frame as one JSON line.
type JSONWriter struct {
	mu      sync.Mutex
	encoder *json.Encoder
	last    *Frame
}

// NewJSONWriter returns a JSONWriter writing to w.
func NewJSONWriter(w io.Writer) *JSONWriter {
	return &JSONWriter{encoder: json.NewEncoder(w)}
}

// Render writes frame unless it equals the previously written one.
func (j *JSONWriter) Render(_ context.Context, frame Frame) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.last != nil && j.last.Equal(frame) {
		return nil
	}
	if err := j.encoder.Encode(frame); err != nil {
		return fmt.Errorf("failed to encode frame: %w", err)
	}
	j.last = &frame
	observability.FramesRenderedTotal.Inc()
	return nil
}

// Latest keeps the most recent frame for readers such as the HTTP server.
type Latest struct {
	mu    sync.RWMutex
	frame Frame
	set   bool
}

// Render stores frame.
func (l *Latest) Render(_ context.Context, frame Frame) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.frame = frame
	l.set = true
	return nil
}

// Frame returns the stored frame and whether one was rendered yet.
func (l *Latest) Frame() (Frame, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.frame, l.set
}

// Multi fans a frame out to several surfaces. All surfaces are called and their errors joined.
type Multi []Surface

func (m Multi) Render(ctx context.Context, frame Frame) error {
	var errs []error
	for _, surface := range m {
		if surface == nil {
			continue
		}
		if err := surface.Render(ctx, frame); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
