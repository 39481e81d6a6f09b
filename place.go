// Copyright 2026 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package lodtensor

import (
	"slices"
	"strconv"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Place is the location where a buffer resides.
//
// The zero value is Host, the default location. Device i is Place(i+1); use
// Device to build one.
type Place int

// Host is the host-visible memory location.
const Host Place = 0

// Device returns the place of the i-th device.
func Device(i int) Place {
	if i < 0 {
		panic("negative device ordinal")
	}
	return Place(i + 1)
}

// IsHost returns true if p is the default host location.
func (p Place) IsHost() bool {
	return p == Host
}

// DeviceID returns the device ordinal, or -1 for the host.
func (p Place) DeviceID() int {
	return int(p) - 1
}

func (p Place) String() string {
	if p.IsHost() {
		return "host"
	}
	return "device:" + strconv.Itoa(int(p)-1)
}

// DeviceContext is the execution context of a Place.
//
// Operations enqueued on a context run in submission order. A host context
// runs them synchronously; a device context runs them asynchronously and
// Wait blocks until everything enqueued so far completed.
type DeviceContext interface {
	Place() Place
	Enqueue(op func() error)
	// Wait blocks until all enqueued operations completed and returns the
	// first error encountered since the previous Wait.
	Wait() error
}

// hostContext executes operations inline.
type hostContext struct {
	mu  sync.Mutex
	err error
}

func (h *hostContext) Place() Place {
	return Host
}

func (h *hostContext) Enqueue(op func() error) {
	err := op()
	if err != nil {
		h.mu.Lock()
		if h.err == nil {
			h.err = err
		}
		h.mu.Unlock()
	}
}

func (h *hostContext) Wait() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	err := h.err
	h.err = nil
	return err
}

// deviceStream is an ordered asynchronous queue.
type deviceStream struct {
	place Place

	mu   sync.Mutex
	g    *errgroup.Group
	last chan struct{}
}

func newDeviceStream(p Place) *deviceStream {
	return &deviceStream{place: p, g: &errgroup.Group{}}
}

func (d *deviceStream) Place() Place {
	return d.place
}

func (d *deviceStream) Enqueue(op func() error) {
	done := make(chan struct{})
	d.mu.Lock()
	prev := d.last
	d.last = done
	// Go doesn't block. It runs under mu so Wait never swaps out a group that
	// is still being added to.
	d.g.Go(func() error {
		defer close(done)
		if prev != nil {
			<-prev
		}
		return op()
	})
	d.mu.Unlock()
}

func (d *deviceStream) Wait() error {
	d.mu.Lock()
	g := d.g
	d.g = &errgroup.Group{}
	d.mu.Unlock()
	if err := g.Wait(); err != nil {
		log().Warn("device stream failed", zap.Stringer("place", d.place), zap.Error(err))
		return errors.WithMessagef(err, "%s", d.place)
	}
	return nil
}

// Pool holds the execution context of each known place.
//
// It is passed explicitly to every operation that moves buffer contents. The
// host context is always present.
type Pool struct {
	ctxs map[Place]DeviceContext
}

// NewPool returns a pool managing the host and the given places.
func NewPool(places ...Place) *Pool {
	p := &Pool{ctxs: map[Place]DeviceContext{Host: &hostContext{}}}
	for _, pl := range places {
		if _, ok := p.ctxs[pl]; !ok {
			p.ctxs[pl] = newDeviceStream(pl)
		}
	}
	return p
}

// Get returns the context for place.
func (p *Pool) Get(place Place) (DeviceContext, error) {
	c, ok := p.ctxs[place]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownPlace, "%s", place)
	}
	return c, nil
}

// Places returns the managed places, host first then devices by ordinal.
func (p *Pool) Places() []Place {
	out := make([]Place, 0, len(p.ctxs))
	for pl := range p.ctxs {
		out = append(out, pl)
	}
	slices.Sort(out)
	return out
}

// WaitAll waits on every context and returns the first error.
func (p *Pool) WaitAll() error {
	var first error
	for _, pl := range p.Places() {
		if err := p.ctxs[pl].Wait(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// contextFor returns the context a transfer between src and dst runs on: the
// device side's stream, or the host when both are host.
func (p *Pool) contextFor(src, dst Place) (DeviceContext, error) {
	if !dst.IsHost() {
		return p.Get(dst)
	}
	return p.Get(src)
}
