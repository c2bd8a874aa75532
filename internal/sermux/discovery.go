package sermux

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/grandcat/zeroconf"
)

// Service is the mDNS service type advertised by daemons.
const Service = "_sermux._tcp"

// DaemonInfo describes a daemon found on the local network.
type DaemonInfo struct {
	Instance string
	Host     string
	Port     int
}

// Discover browses the local network for daemons until the timeout expires
// or ctx is cancelled, and returns every daemon seen. A zero timeout means
// 5 seconds.
func Discover(ctx context.Context, timeout time.Duration) ([]DaemonInfo, error) {
	if timeout == 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, fmt.Errorf("sermux: mdns resolver: %w", err)
	}

	entries := make(chan *zeroconf.ServiceEntry)
	if err := resolver.Browse(ctx, Service, "local.", entries); err != nil {
		return nil, fmt.Errorf("sermux: mdns browse: %w", err)
	}

	var found []DaemonInfo
	for entry := range entries {
		info := DaemonInfo{Instance: entry.Instance, Host: entry.HostName, Port: entry.Port}
		if len(entry.AddrIPv4) > 0 {
			info.Host = entry.AddrIPv4[0].String()
		}
		slog.Debug("daemon found", "instance", info.Instance, "host", info.Host, "port", info.Port)
		found = append(found, info)
	}
	return found, nil
}
