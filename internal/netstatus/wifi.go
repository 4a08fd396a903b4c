// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package netstatus

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mdlayher/wifi"

	"github.com/wneessen/flapboard/internal/logger"
)

const DefaultWifiInterval = time.Second * 5

// wlan is the part of the nl80211 client the sensor needs.
type wlan interface {
	Interfaces() ([]*wifi.Interface, error)
	BSS(ifi *wifi.Interface) (*wifi.BSS, error)
	Close() error
}

// Wifi considers the board online while a station interface is associated with an access point.
type Wifi struct {
	*Switch
	wlan     wlan
	log      *logger.Logger
	iface    string
	interval time.Duration
}

// NewWifi opens an nl80211 client. An empty iface watches every station interface.
func NewWifi(log *logger.Logger, iface string, interval time.Duration) (*Wifi, error) {
	client, err := wifi.New()
	if err != nil {
		return nil, fmt.Errorf("failed to create wifi client: %w", err)
	}
	return newWifi(client, log, iface, interval)
}

func newWifi(client wlan, log *logger.Logger, iface string, interval time.Duration) (*Wifi, error) {
	if log == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if interval <= 0 {
		interval = DefaultWifiInterval
	}
	return &Wifi{
		Switch:   NewSwitch(false),
		wlan:     client,
		log:      log,
		iface:    iface,
		interval: interval,
	}, nil
}

// Run polls the association state until the context is cancelled.
func (w *Wifi) Run(ctx context.Context) error {
	defer func() {
		if err := w.wlan.Close(); err != nil {
			w.log.Debug("failed to close wifi client", logger.Err(err))
		}
	}()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		w.Check()
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// Check reads the association state once and updates the sensor.
func (w *Wifi) Check() bool {
	online, name := w.associated()
	if w.Set(online) {
		w.log.Info("connectivity changed", slog.Bool("online", online), slog.String("interface", name))
	}
	return online
}

func (w *Wifi) associated() (bool, string) {
	ifaces, err := w.wlan.Interfaces()
	if err != nil {
		w.log.Debug("failed to list wifi interfaces", logger.Err(err))
		return false, ""
	}
	for _, iface := range ifaces {
		if iface == nil || iface.Type != wifi.InterfaceTypeStation {
			continue
		}
		if w.iface != "" && iface.Name != w.iface {
			continue
		}
		bss, err := w.wlan.BSS(iface)
		if err != nil || bss == nil {
			continue
		}
		if len(bss.BSSID) > 0 {
			return true, iface.Name
		}
	}
	return false, w.iface
}
