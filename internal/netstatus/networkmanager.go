// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package netstatus

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/godbus/dbus/v5"

	"github.com/wneessen/flapboard/internal/logger"
)

const (
	nmDestination = "org.freedesktop.NetworkManager"
	nmPath        = dbus.ObjectPath("/org/freedesktop/NetworkManager")
	nmInterface   = "org.freedesktop.NetworkManager"
	nmStateMember = "StateChanged"
	nmStateProp   = nmInterface + ".State"

	// NM_STATE_CONNECTED_GLOBAL
	nmStateConnectedGlobal uint32 = 70

	signalBufferSize    = 8
	busReconnectDelay   = 5 * time.Second
	reconnectDelay      = 2 * time.Second
	subscribeRetryDelay = 10 * time.Second
)

// NetworkManager follows the global connectivity state NetworkManager publishes on the
// system bus.
type NetworkManager struct {
	*Switch
	log *logger.Logger
}

// NewNetworkManager returns a sensor that starts offline until the bus has been queried.
func NewNetworkManager(log *logger.Logger) (*NetworkManager, error) {
	if log == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &NetworkManager{Switch: NewSwitch(false), log: log}, nil
}

// Run connects to the system bus and follows StateChanged signals. Lost connections are
// re-established until the context is cancelled.
func (n *NetworkManager) Run(ctx context.Context) error {
	for {
		conn := connectSystemBus(ctx, n.log)
		if conn == nil {
			return nil
		}

		if !n.subscribe(ctx, conn) {
			if ctx.Err() != nil {
				return nil
			}
			continue
		}

		sigCh := make(chan *dbus.Signal, signalBufferSize)
		conn.Signal(sigCh)
		n.queryState(conn)
		n.handleSignals(ctx, sigCh)

		conn.RemoveSignal(sigCh)
		if err := conn.Close(); err != nil {
			n.log.Debug("failed to close system bus connection", logger.Err(err))
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(reconnectDelay):
		}
	}
}

func (n *NetworkManager) subscribe(ctx context.Context, conn *dbus.Conn) bool {
	if err := conn.AddMatchSignal(dbus.WithMatchInterface(nmInterface),
		dbus.WithMatchMember(nmStateMember),
		dbus.WithMatchObjectPath(nmPath),
	); err != nil {
		n.log.Error("failed to subscribe to dbus signal", slog.String("interface", nmInterface),
			slog.String("member", nmStateMember), logger.Err(err))
		if err = conn.Close(); err != nil {
			n.log.Debug("failed to close system bus connection", logger.Err(err))
		}
		select {
		case <-time.After(subscribeRetryDelay):
		case <-ctx.Done():
		}
		return false
	}
	n.log.Debug("subscribed to dbus signal", slog.String("interface", nmInterface),
		slog.String("member", nmStateMember))
	return true
}

func (n *NetworkManager) queryState(conn *dbus.Conn) {
	variant, err := conn.Object(nmDestination, nmPath).GetProperty(nmStateProp)
	if err != nil {
		n.log.Error("failed to query NetworkManager state", logger.Err(err))
		return
	}
	state, ok := variant.Value().(uint32)
	if !ok {
		return
	}
	n.apply(state)
}

func (n *NetworkManager) handleSignals(ctx context.Context, sigCh chan *dbus.Signal) {
	for {
		select {
		case <-ctx.Done():
			return
		case sgn, ok := <-sigCh:
			if !ok {
				return
			}
			n.handleSignal(sgn)
		}
	}
}

func (n *NetworkManager) handleSignal(sgn *dbus.Signal) {
	if sgn == nil || sgn.Name != nmInterface+"."+nmStateMember || len(sgn.Body) != 1 {
		return
	}
	state, ok := sgn.Body[0].(uint32)
	if !ok {
		return
	}
	n.apply(state)
}

func (n *NetworkManager) apply(state uint32) {
	online := nmStateOnline(state)
	if n.Set(online) {
		n.log.Info("connectivity changed", slog.Bool("online", online), slog.Any("nm_state", state))
	}
}

func nmStateOnline(state uint32) bool {
	return state >= nmStateConnectedGlobal
}

// connectSystemBus retries until a system bus connection is established or the context
// is cancelled. The connection is closed once the context is done.
func connectSystemBus(ctx context.Context, log *logger.Logger) *dbus.Conn {
	for {
		conn, err := dbus.ConnectSystemBus()
		if err != nil {
			log.Debug("failed to connect to system bus", logger.Err(err))
			select {
			case <-time.After(busReconnectDelay):
				continue
			case <-ctx.Done():
				return nil
			}
		}

		go func() {
			<-ctx.Done()
			_ = conn.Close()
		}()
		return conn
	}
}
