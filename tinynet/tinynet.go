// Package tinynet gets the node onto the network before it talks to the
// collector.  On TinyGo boards that means joining the Wi-Fi access point; on
// hosts the operating system owns the Wi-Fi, so the node only waits until the
// collector is reachable.
package tinynet

import (
	"fmt"
	"net"
	"net/url"
)

// collectorAddr is the host:port dialled to check the collector is reachable
func collectorAddr(collectorURL string) (string, error) {
	u, err := url.Parse(collectorURL)
	if err != nil {
		return "", fmt.Errorf("collector url: %w", err)
	}
	if u.Hostname() == "" {
		return "", fmt.Errorf("collector url %q has no host", collectorURL)
	}
	port := u.Port()
	if port == "" {
		switch u.Scheme {
		case "https":
			port = "443"
		case "http":
			port = "80"
		default:
			return "", fmt.Errorf("collector url %q: unknown scheme %q", collectorURL, u.Scheme)
		}
	}
	return net.JoinHostPort(u.Hostname(), port), nil
}
