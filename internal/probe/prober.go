// Package probe checks network reachability of device addresses.
//
// A probe walks an ordered chain: one ICMP echo via the system ping
// binary, then a TCP connect to each configured port. The first success
// wins and names the method; exhausting the chain yields an unreachable
// result. Probes never fail with an error, only with Reachable=false,
// so callers treat outcomes as data rather than faults.
package probe

import (
	"context"
	"fmt"
	"net"
	"os/exec"
	"strconv"
	"time"
)

// Probe methods reported in Result.Method.
const (
	MethodICMP        = "icmp"
	MethodTCPFallback = "tcp_fallback"
	MethodNone        = "none"
)

// Defaults applied when New receives zero values.
const (
	DefaultAttemptTimeout = 1 * time.Second
)

// DefaultTCPPorts are tried in order when no ports are configured.
var DefaultTCPPorts = []int{80, 443}

// Result is the outcome of a reachability probe.
type Result struct {
	Reachable bool   `json:"reachable"`
	Method    string `json:"method"`
}

// icmpFunc attempts a single ICMP echo, reporting success.
type icmpFunc func(ctx context.Context, address string, timeout time.Duration) bool

// dialFunc attempts a single TCP connect, reporting success.
type dialFunc func(ctx context.Context, address string, port int, timeout time.Duration) bool

// Prober runs the reachability chain against device addresses.
// The zero value is not usable; construct with New.
type Prober struct {
	attemptTimeout time.Duration
	tcpPorts       []int

	icmp icmpFunc
	dial dialFunc
}

// New creates a Prober. attemptTimeout bounds each individual step (the
// ICMP echo and every TCP connect); zero selects DefaultAttemptTimeout.
// Empty tcpPorts selects DefaultTCPPorts.
func New(attemptTimeout time.Duration, tcpPorts []int) *Prober {
	if attemptTimeout <= 0 {
		attemptTimeout = DefaultAttemptTimeout
	}
	if len(tcpPorts) == 0 {
		tcpPorts = DefaultTCPPorts
	}
	return &Prober{
		attemptTimeout: attemptTimeout,
		tcpPorts:       tcpPorts,
		icmp:           systemPing,
		dial:           tcpConnect,
	}
}

// Probe checks whether address answers ICMP, then whether any configured
// TCP port accepts a connection. Cancelling ctx stops the chain early and
// reports unreachable.
func (p *Prober) Probe(ctx context.Context, address string) Result {
	if ctx.Err() == nil && p.icmp(ctx, address, p.attemptTimeout) {
		return Result{Reachable: true, Method: MethodICMP}
	}

	for _, port := range p.tcpPorts {
		if ctx.Err() != nil {
			break
		}
		if p.dial(ctx, address, port, p.attemptTimeout) {
			return Result{Reachable: true, Method: MethodTCPFallback}
		}
	}

	return Result{Reachable: false, Method: MethodNone}
}

// systemPing shells out to the ping binary for a single echo request.
// The subprocess is bounded by both the -W flag and the context deadline.
func systemPing(ctx context.Context, address string, timeout time.Duration) bool {
	ctx, cancel := context.WithTimeout(ctx, timeout+500*time.Millisecond)
	defer cancel()

	secs := int(timeout / time.Second)
	if secs < 1 {
		secs = 1
	}
	cmd := exec.CommandContext(ctx, "ping", "-c", "1", "-W", strconv.Itoa(secs), address)
	return cmd.Run() == nil
}

// tcpConnect attempts a plain TCP connection to address:port.
func tcpConnect(ctx context.Context, address string, port int, timeout time.Duration) bool {
	d := net.Dialer{Timeout: timeout}
	conn, err := d.DialContext(ctx, "tcp", net.JoinHostPort(address, fmt.Sprintf("%d", port)))
	if err != nil {
		return false
	}
	conn.Close()
	return true
}
