// Package netprobe checks whether local TCP ports accept connections and
// detects the address this host uses for outbound traffic.
package netprobe

import (
	"context"
	"net"
	"strconv"
	"time"
)

const (
	// DefaultOutboundTarget is "connected" to, never sent to, when detecting
	// the outbound address.
	DefaultOutboundTarget = "8.8.8.8:80"

	// DefaultDialTimeout bounds each TCP connection attempt.
	DefaultDialTimeout = 2 * time.Second

	// NoAddress is reported when the outbound address cannot be detected.
	NoAddress = "None"
)

// loopbackHosts are tried before the outbound address.
var loopbackHosts = []string{"0.0.0.0", "localhost"}

// Prober runs reachability checks.
type Prober struct {
	dialTimeout    time.Duration
	outboundTarget string
	// outbound is consulted only after every loopback host refuses.
	outbound func() string
}

// NewProber returns a Prober. Zero values select the defaults.
func NewProber(dialTimeout time.Duration, outboundTarget string) *Prober {
	if dialTimeout <= 0 {
		dialTimeout = DefaultDialTimeout
	}
	if outboundTarget == "" {
		outboundTarget = DefaultOutboundTarget
	}
	p := &Prober{dialTimeout: dialTimeout, outboundTarget: outboundTarget}
	p.outbound = p.OutboundIP
	return p
}

// OutboundIP returns the local address the kernel would route outbound
// traffic from, or NoAddress. No packet is sent.
func (p *Prober) OutboundIP() string {
	conn, err := net.Dial("udp", p.outboundTarget)
	if err != nil {
		return NoAddress
	}
	defer func() { _ = conn.Close() }()

	addr, ok := conn.LocalAddr().(*net.UDPAddr)
	if !ok || addr.IP == nil {
		return NoAddress
	}
	return addr.IP.String()
}

// PortIsUp reports whether port accepts a TCP connection on 0.0.0.0,
// localhost or, failing both, the outbound address. It stops at the first
// success and detects the outbound address only when it is needed.
func (p *Prober) PortIsUp(ctx context.Context, port uint16) bool {
	d := net.Dialer{Timeout: p.dialTimeout}
	portStr := strconv.Itoa(int(port))
	for _, host := range loopbackHosts {
		if p.dial(ctx, &d, host, portStr) {
			return true
		}
	}
	if ctx.Err() != nil {
		return false
	}
	ip := p.outbound()
	if ip == NoAddress {
		return false
	}
	return p.dial(ctx, &d, ip, portStr)
}

func (p *Prober) dial(ctx context.Context, d *net.Dialer, host, port string) bool {
	if ctx.Err() != nil {
		return false
	}
	conn, err := d.DialContext(ctx, "tcp", net.JoinHostPort(host, port))
	if err != nil {
		return false
	}
	_ = conn.Close()
	return true
}
