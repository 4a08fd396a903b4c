// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package netstatus

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/jonboulle/clockwork"
	"github.com/mdlayher/wifi"

	httpclient "github.com/wneessen/flapboard/internal/http"
	"github.com/wneessen/flapboard/internal/logger"
	"github.com/wneessen/flapboard/internal/testhelper"
)

func TestSwitch(t *testing.T) {
	t.Run("initial state is reported", func(t *testing.T) {
		if !NewSwitch(true).Online() {
			t.Error("expected switch to be online")
		}
		if NewSwitch(false).Online() {
			t.Error("expected switch to be offline")
		}
	})
	t.Run("subscribers are only notified on transitions", func(t *testing.T) {
		sw := NewSwitch(false)
		var got []bool
		sw.Subscribe(func(online bool) { got = append(got, online) })

		if sw.Set(false) {
			t.Error("expected no transition when state is unchanged")
		}
		if !sw.Set(true) {
			t.Error("expected transition to online")
		}
		sw.Set(true)
		sw.Set(false)
		sw.Set(true)

		want := []bool{true, false, true}
		if len(got) != len(want) {
			t.Fatalf("expected %d notifications, got %d", len(want), len(got))
		}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("notification %d: expected %t, got %t", i, want[i], got[i])
			}
		}
	})
	t.Run("subscribers are notified in order", func(t *testing.T) {
		sw := NewSwitch(false)
		var order []int
		sw.Subscribe(func(bool) { order = append(order, 1) })
		sw.Subscribe(func(bool) { order = append(order, 2) })
		sw.Set(true)
		if len(order) != 2 || order[0] != 1 || order[1] != 2 {
			t.Errorf("unexpected notification order: %v", order)
		}
	})
	t.Run("unsubscribe stops notifications", func(t *testing.T) {
		sw := NewSwitch(false)
		var calls int
		unsub := sw.Subscribe(func(bool) { calls++ })
		sw.Set(true)
		unsub()
		unsub()
		sw.Set(false)
		if calls != 1 {
			t.Errorf("expected 1 notification, got %d", calls)
		}
	})
	t.Run("concurrent setters produce consistent transitions", func(t *testing.T) {
		sw := NewSwitch(false)
		var ups, downs atomic.Int64
		sw.Subscribe(func(online bool) {
			if online {
				ups.Add(1)
				return
			}
			downs.Add(1)
		})
		var wg sync.WaitGroup
		for i := 0; i < 100; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				sw.Set(i%2 == 0)
			}(i)
		}
		wg.Wait()
		diff := ups.Load() - downs.Load()
		if sw.Online() && diff != 1 {
			t.Errorf("expected one more up than down transition, got %d ups and %d downs", ups.Load(), downs.Load())
		}
		if !sw.Online() && diff != 0 {
			t.Errorf("expected equal up and down transitions, got %d ups and %d downs", ups.Load(), downs.Load())
		}
	})
}

func TestAlways(t *testing.T) {
	sensor := NewAlways()
	if !sensor.Online() {
		t.Fatal("expected always sensor to be online")
	}
	ctx, cancel := context.WithCancel(t.Context())
	cancel()
	if err := sensor.Run(ctx); err != nil {
		t.Errorf("expected no error, got: %s", err)
	}
}

func TestProbe(t *testing.T) {
	log := logger.New(slog.LevelError)

	t.Run("new probe requires its dependencies", func(t *testing.T) {
		client := httpclient.New(log)
		if _, err := NewProbe(nil, log, "http://example.com", 0, 0); err == nil {
			t.Error("expected error for missing http client")
		}
		if _, err := NewProbe(client, nil, "http://example.com", 0, 0); err == nil {
			t.Error("expected error for missing logger")
		}
		if _, err := NewProbe(client, log, "", 0, 0); err == nil {
			t.Error("expected error for missing URL")
		}
		probe, err := NewProbe(client, log, "http://example.com", 0, 0)
		if err != nil {
			t.Fatalf("failed to create probe: %s", err)
		}
		if probe.interval != DefaultProbeInterval || probe.timeout != DefaultProbeTimeout {
			t.Errorf("expected default interval and timeout, got %s and %s", probe.interval, probe.timeout)
		}
		if probe.Online() {
			t.Error("expected new probe to start offline")
		}
	})

	tests := []struct {
		name   string
		fn     func(*http.Request) (*http.Response, error)
		online bool
	}{
		{
			"reachable endpoint is online",
			func(*http.Request) (*http.Response, error) { return testhelper.JSONResponse(200, "{}"), nil },
			true,
		},
		{
			"client errors still mean the network is up",
			func(*http.Request) (*http.Response, error) { return testhelper.JSONResponse(404, ""), nil },
			true,
		},
		{
			"server errors are offline",
			func(*http.Request) (*http.Response, error) { return testhelper.JSONResponse(503, ""), nil },
			false,
		},
		{
			"transport errors are offline",
			func(*http.Request) (*http.Response, error) { return nil, errors.New("network unreachable") },
			false,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			client := httpclient.New(log)
			client.Transport = testhelper.MockRoundTripper{Fn: tc.fn}
			probe, err := NewProbe(client, log, "http://example.com/ping", time.Second, time.Second)
			if err != nil {
				t.Fatalf("failed to create probe: %s", err)
			}
			if got := probe.Check(t.Context()); got != tc.online {
				t.Errorf("expected check to return %t, got %t", tc.online, got)
			}
			if probe.Online() != tc.online {
				t.Errorf("expected probe state %t, got %t", tc.online, probe.Online())
			}
		})
	}

	t.Run("probe notifies on recovery", func(t *testing.T) {
		var up atomic.Bool
		client := httpclient.New(log)
		client.Transport = testhelper.MockRoundTripper{Fn: func(*http.Request) (*http.Response, error) {
			if !up.Load() {
				return nil, errors.New("network unreachable")
			}
			return testhelper.JSONResponse(200, "{}"), nil
		}}
		probe, err := NewProbe(client, log, "http://example.com/ping", time.Second, time.Second)
		if err != nil {
			t.Fatalf("failed to create probe: %s", err)
		}
		var transitions int
		probe.Subscribe(func(bool) { transitions++ })

		probe.Check(t.Context())
		up.Store(true)
		probe.Check(t.Context())
		probe.Check(t.Context())
		if transitions != 1 {
			t.Errorf("expected exactly one transition, got %d", transitions)
		}
	})
}

func TestNetworkManager(t *testing.T) {
	log := logger.New(slog.LevelError)

	t.Run("new requires a logger", func(t *testing.T) {
		if _, err := NewNetworkManager(nil); err == nil {
			t.Error("expected error for missing logger")
		}
	})
	t.Run("state mapping", func(t *testing.T) {
		tests := []struct {
			state  uint32
			online bool
		}{
			{0, false},  // unknown
			{20, false}, // disconnected
			{40, false}, // connecting
			{50, false}, // connected local
			{60, false}, // connected site
			{70, true},  // connected global
		}
		for _, tc := range tests {
			if got := nmStateOnline(tc.state); got != tc.online {
				t.Errorf("state %d: expected %t, got %t", tc.state, tc.online, got)
			}
		}
	})
	t.Run("state changed signals drive the switch", func(t *testing.T) {
		nm, err := NewNetworkManager(log)
		if err != nil {
			t.Fatalf("failed to create sensor: %s", err)
		}
		signal := func(body ...any) *dbus.Signal {
			return &dbus.Signal{Name: nmInterface + "." + nmStateMember, Path: nmPath, Body: body}
		}

		nm.handleSignal(signal(uint32(70)))
		if !nm.Online() {
			t.Error("expected sensor to be online")
		}
		nm.handleSignal(signal("bogus"))
		nm.handleSignal(signal())
		nm.handleSignal(nil)
		nm.handleSignal(&dbus.Signal{Name: "org.example.Other", Body: []any{uint32(20)}})
		if !nm.Online() {
			t.Error("expected unrelated or malformed signals to be ignored")
		}
		nm.handleSignal(signal(uint32(20)))
		if nm.Online() {
			t.Error("expected sensor to be offline")
		}
	})
}

type mockWlan struct {
	mu       sync.Mutex
	ifaces   []*wifi.Interface
	bss      map[string]*wifi.BSS
	ifaceErr error
	closed   bool
}

func (m *mockWlan) Interfaces() ([]*wifi.Interface, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ifaces, m.ifaceErr
}

func (m *mockWlan) BSS(ifi *wifi.Interface) (*wifi.BSS, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	bss, ok := m.bss[ifi.Name]
	if !ok {
		return nil, errors.New("not associated")
	}
	return bss, nil
}

func (m *mockWlan) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func TestWifi(t *testing.T) {
	log := logger.New(slog.LevelError)
	bssid := net.HardwareAddr{0x00, 0x11, 0x22, 0x33, 0x44, 0x55}
	station := &wifi.Interface{Name: "wlan0", Type: wifi.InterfaceTypeStation}
	ap := &wifi.Interface{Name: "wlan1", Type: wifi.InterfaceTypeAP}

	tests := []struct {
		name   string
		iface  string
		wlan   *mockWlan
		online bool
	}{
		{
			"associated station is online",
			"",
			&mockWlan{ifaces: []*wifi.Interface{station}, bss: map[string]*wifi.BSS{"wlan0": {BSSID: bssid}}},
			true,
		},
		{
			"unassociated station is offline",
			"",
			&mockWlan{ifaces: []*wifi.Interface{station}},
			false,
		},
		{
			"access point interfaces are ignored",
			"",
			&mockWlan{ifaces: []*wifi.Interface{ap}, bss: map[string]*wifi.BSS{"wlan1": {BSSID: bssid}}},
			false,
		},
		{
			"other interfaces are ignored when one is configured",
			"wlan9",
			&mockWlan{ifaces: []*wifi.Interface{station}, bss: map[string]*wifi.BSS{"wlan0": {BSSID: bssid}}},
			false,
		},
		{
			"interface listing errors are offline",
			"",
			&mockWlan{ifaceErr: errors.New("netlink failure")},
			false,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			sensor, err := newWifi(tc.wlan, log, tc.iface, time.Second)
			if err != nil {
				t.Fatalf("failed to create wifi sensor: %s", err)
			}
			if got := sensor.Check(); got != tc.online {
				t.Errorf("expected %t, got %t", tc.online, got)
			}
		})
	}

	t.Run("run closes the client on exit", func(t *testing.T) {
		wlan := &mockWlan{}
		sensor, err := newWifi(wlan, log, "", 0)
		if err != nil {
			t.Fatalf("failed to create wifi sensor: %s", err)
		}
		if sensor.interval != DefaultWifiInterval {
			t.Errorf("expected default interval, got %s", sensor.interval)
		}
		ctx, cancel := context.WithCancel(t.Context())
		cancel()
		if err = sensor.Run(ctx); err != nil {
			t.Errorf("expected no error, got: %s", err)
		}
		if !wlan.closed {
			t.Error("expected wifi client to be closed")
		}
	})
}

func TestResumeWatcher(t *testing.T) {
	log := logger.New(slog.LevelError)

	t.Run("new requires logger and callback", func(t *testing.T) {
		if _, err := NewResumeWatcher(nil, nil, func(context.Context) {}); err == nil {
			t.Error("expected error for missing logger")
		}
		if _, err := NewResumeWatcher(nil, log, nil); err == nil {
			t.Error("expected error for missing callback")
		}
	})
	t.Run("resume signals are detected", func(t *testing.T) {
		if !isResumeSignal(&dbus.Signal{Body: []any{false}}) {
			t.Error("expected PrepareForSleep(false) to be a resume signal")
		}
		if isResumeSignal(&dbus.Signal{Body: []any{true}}) {
			t.Error("expected PrepareForSleep(true) not to be a resume signal")
		}
		if isResumeSignal(&dbus.Signal{Body: []any{"false"}}) {
			t.Error("expected malformed body not to be a resume signal")
		}
		if isResumeSignal(nil) {
			t.Error("expected nil signal not to be a resume signal")
		}
	})
	t.Run("consecutive resume events are debounced", func(t *testing.T) {
		clock := clockwork.NewFakeClock()
		var calls int
		watcher, err := NewResumeWatcher(clock, log, func(context.Context) { calls++ })
		if err != nil {
			t.Fatalf("failed to create resume watcher: %s", err)
		}
		watcher.delay = 0

		if !watcher.handleResume(t.Context()) {
			t.Error("expected first resume to run the callback")
		}
		clock.Advance(time.Second)
		if watcher.handleResume(t.Context()) {
			t.Error("expected second resume within the debounce window to be ignored")
		}
		clock.Advance(debounceWindow)
		if !watcher.handleResume(t.Context()) {
			t.Error("expected resume after the debounce window to run the callback")
		}
		if calls != 2 {
			t.Errorf("expected 2 callback runs, got %d", calls)
		}
	})
	t.Run("wake-up delay is honoured", func(t *testing.T) {
		clock := clockwork.NewFakeClock()
		done := make(chan struct{})
		watcher, err := NewResumeWatcher(clock, log, func(context.Context) { close(done) })
		if err != nil {
			t.Fatalf("failed to create resume watcher: %s", err)
		}
		go watcher.handleResume(t.Context())
		if err = clock.BlockUntilContext(t.Context(), 1); err != nil {
			t.Fatalf("failed waiting for the wake-up timer: %s", err)
		}
		select {
		case <-done:
			t.Fatal("expected callback to wait for the wake-up delay")
		default:
		}
		clock.Advance(networkWakeupDelay)
		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("expected callback to run after the wake-up delay")
		}
	})
	t.Run("cancelled context skips the callback", func(t *testing.T) {
		watcher, err := NewResumeWatcher(clockwork.NewFakeClock(), log, func(context.Context) {
			t.Error("callback must not run")
		})
		if err != nil {
			t.Fatalf("failed to create resume watcher: %s", err)
		}
		ctx, cancel := context.WithCancel(t.Context())
		cancel()
		if watcher.handleResume(ctx) {
			t.Error("expected handleResume to report no callback run")
		}
	})
}
