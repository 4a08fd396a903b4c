// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package netstatus

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	httpclient "github.com/wneessen/flapboard/internal/http"
	"github.com/wneessen/flapboard/internal/logger"
)

const (
	DefaultProbeInterval = time.Second * 10
	DefaultProbeTimeout  = time.Second * 5
)

// Probe considers the board online while an HTTP endpoint answers without a server error.
type Probe struct {
	*Switch
	http     *httpclient.Client
	log      *logger.Logger
	url      string
	interval time.Duration
	timeout  time.Duration
}

// NewProbe returns a Probe for url. It starts offline until the first check succeeded.
func NewProbe(client *httpclient.Client, log *logger.Logger, url string, interval, timeout time.Duration) (*Probe, error) {
	if client == nil {
		return nil, fmt.Errorf("http client is required")
	}
	if log == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if url == "" {
		return nil, fmt.Errorf("probe URL is required")
	}
	if interval <= 0 {
		interval = DefaultProbeInterval
	}
	if timeout <= 0 {
		timeout = DefaultProbeTimeout
	}
	return &Probe{
		Switch:   NewSwitch(false),
		http:     client,
		log:      log,
		url:      url,
		interval: interval,
		timeout:  timeout,
	}, nil
}

// Run checks the endpoint right away and then once per interval until the context is cancelled.
func (p *Probe) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		p.Check(ctx)
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// Check probes the endpoint once and updates the state.
func (p *Probe) Check(ctx context.Context) bool {
	code, err := p.http.Ping(ctx, p.url, p.timeout)
	online := err == nil && code > 0 && code < http.StatusInternalServerError
	if ctx.Err() != nil {
		return p.Online()
	}
	if p.Set(online) {
		p.log.Info("connectivity changed", slog.Bool("online", online), slog.String("probe", p.url),
			slog.Int("status", code))
	}
	if err != nil {
		p.log.Debug("connectivity probe failed", logger.Err(err))
	}
	return online
}
