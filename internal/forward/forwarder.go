package forward

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/leadflowhq/leadflow/pkg/leadflow/workspace"
)

// Forwarder exposes the workspace port mappings by listening on each
// external port and proxying tcp connections to the local one.
type Forwarder struct {
	mappings []workspace.PortMapping
}

func New(mappings []workspace.PortMapping) *Forwarder {
	return &Forwarder{mappings: mappings}
}

// Start listens on every external port and blocks until the context is
// cancelled. A mapping whose port cannot be bound is logged and skipped,
// the remaining mappings keep serving.
func (f *Forwarder) Start(ctx context.Context) error {
	if len(f.mappings) == 0 {
		return fmt.Errorf("no port mappings configured")
	}

	type binding struct {
		pm workspace.PortMapping
		ln net.Listener
	}
	bindings := make([]binding, 0, len(f.mappings))
	for _, pm := range f.mappings {
		ln, err := net.Listen("tcp", ":"+strconv.Itoa(pm.ExternalPort))
		if err != nil {
			slog.Error("Cannot bind external port", "external", pm.ExternalPort, "error", err)
			continue
		}
		bindings = append(bindings, binding{pm: pm, ln: ln})
		slog.Info("Forwarding port", "external", pm.ExternalPort, "local", pm.LocalPort)
	}
	if len(bindings) == 0 {
		return fmt.Errorf("no port mapping could be bound")
	}

	go func() {
		<-ctx.Done()
		for _, b := range bindings {
			_ = b.ln.Close()
		}
	}()

	var wg sync.WaitGroup
	for _, b := range bindings {
		wg.Add(1)
		go func(pm workspace.PortMapping, ln net.Listener) {
			defer wg.Done()
			serve(ctx, ln, pm)
		}(b.pm, b.ln)
	}
	wg.Wait()
	return nil
}

func serve(ctx context.Context, ln net.Listener, pm workspace.PortMapping) {
	target := net.JoinHostPort("localhost", strconv.Itoa(pm.LocalPort))
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() == nil {
				slog.Error("Accept failed", "external", pm.ExternalPort, "error", err)
			}
			return
		}
		go proxy(ctx, conn, target)
	}
}

func proxy(ctx context.Context, client net.Conn, target string) {
	defer client.Close()

	upstream, err := net.DialTimeout("tcp", target, 5*time.Second)
	if err != nil {
		slog.Warn("Nothing listening on local port", "target", target, "error", err)
		return
	}
	defer upstream.Close()

	done := make(chan struct{}, 2)
	go pipe(upstream, client, done)
	go pipe(client, upstream, done)

	for i := 0; i < 2; i++ {
		select {
		case <-done:
		case <-ctx.Done():
			return
		}
	}
}

// pipe copies one direction and half closes the destination so the
// other direction can still drain.
func pipe(dst, src net.Conn, done chan<- struct{}) {
	_, _ = io.Copy(dst, src)
	if tc, ok := dst.(*net.TCPConn); ok {
		_ = tc.CloseWrite()
	}
	done <- struct{}{}
}
