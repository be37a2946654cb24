package probe

import (
	"context"
	"net"
	"testing"
	"time"
)

func stubICMP(ok bool) icmpFunc {
	return func(context.Context, string, time.Duration) bool { return ok }
}

func stubDial(ok bool) dialFunc {
	return func(context.Context, string, int, time.Duration) bool { return ok }
}

func TestProbeChain(t *testing.T) {
	tests := []struct {
		name          string
		icmp          icmpFunc
		dial          dialFunc
		wantReachable bool
		wantMethod    string
	}{
		{
			name:          "icmp answers first",
			icmp:          stubICMP(true),
			dial:          stubDial(true),
			wantReachable: true,
			wantMethod:    MethodICMP,
		},
		{
			name:          "tcp fallback when icmp filtered",
			icmp:          stubICMP(false),
			dial:          stubDial(true),
			wantReachable: true,
			wantMethod:    MethodTCPFallback,
		},
		{
			name:          "unreachable when chain exhausted",
			icmp:          stubICMP(false),
			dial:          stubDial(false),
			wantReachable: false,
			wantMethod:    MethodNone,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New(0, nil)
			p.icmp = tt.icmp
			p.dial = tt.dial

			got := p.Probe(context.Background(), "192.0.2.10")
			if got.Reachable != tt.wantReachable {
				t.Errorf("Reachable = %v, want %v", got.Reachable, tt.wantReachable)
			}
			if got.Method != tt.wantMethod {
				t.Errorf("Method = %q, want %q", got.Method, tt.wantMethod)
			}
		})
	}
}

func TestProbeTriesEachPortInOrder(t *testing.T) {
	var tried []int
	p := New(0, []int{80, 443, 8080})
	p.icmp = stubICMP(false)
	p.dial = func(_ context.Context, _ string, port int, _ time.Duration) bool {
		tried = append(tried, port)
		return port == 443
	}

	got := p.Probe(context.Background(), "192.0.2.10")
	if !got.Reachable || got.Method != MethodTCPFallback {
		t.Fatalf("Probe = %+v, want reachable via %s", got, MethodTCPFallback)
	}
	if len(tried) != 2 || tried[0] != 80 || tried[1] != 443 {
		t.Errorf("tried ports %v, want [80 443]", tried)
	}
}

func TestProbeCancelledContext(t *testing.T) {
	p := New(0, nil)
	p.icmp = stubICMP(true)
	p.dial = stubDial(true)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	got := p.Probe(ctx, "192.0.2.10")
	if got.Reachable || got.Method != MethodNone {
		t.Errorf("Probe after cancel = %+v, want unreachable/none", got)
	}
}

func TestProbeTCPConnectAgainstLocalListener(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("starting listener: %v", err)
	}
	defer ln.Close()
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			conn.Close()
		}
	}()

	port := ln.Addr().(*net.TCPAddr).Port
	p := New(500*time.Millisecond, []int{port})
	p.icmp = stubICMP(false)

	got := p.Probe(context.Background(), "127.0.0.1")
	if !got.Reachable || got.Method != MethodTCPFallback {
		t.Errorf("Probe = %+v, want reachable via %s", got, MethodTCPFallback)
	}
}

func TestProbeDefaults(t *testing.T) {
	p := New(0, nil)
	if p.attemptTimeout != DefaultAttemptTimeout {
		t.Errorf("attemptTimeout = %v, want %v", p.attemptTimeout, DefaultAttemptTimeout)
	}
	if len(p.tcpPorts) != len(DefaultTCPPorts) {
		t.Errorf("tcpPorts = %v, want %v", p.tcpPorts, DefaultTCPPorts)
	}
}
