// ABOUTME: SSH+SOCKS5 dialer for reaching the upstream API through a jump host
// ABOUTME: Parses UPSTREAM_ALL_PROXY and lazily builds a shared dialer

package services

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	proxy "github.com/cloudfoundry/socks5-proxy"
)

// newSOCKS5DialContextFunc creates a dial function for SSH+SOCKS5 proxy connections.
// Supports format: ssh+socks5://user@host:port?private-key=/path/to/key
func newSOCKS5DialContextFunc(allProxy string) (func(ctx context.Context, network, address string) (net.Conn, error), error) {
	proxyURL, err := url.Parse(strings.TrimPrefix(allProxy, "ssh+"))
	if err != nil {
		return nil, fmt.Errorf("parsing UPSTREAM_ALL_PROXY: %w", err)
	}
	if proxyURL.Scheme != "socks5" || proxyURL.Host == "" {
		return nil, fmt.Errorf("UPSTREAM_ALL_PROXY must look like ssh+socks5://user@host:port?private-key=/path")
	}

	username := ""
	if proxyURL.User != nil {
		username = proxyURL.User.Username()
	}

	keyPath := proxyURL.Query().Get("private-key")
	if keyPath == "" {
		return nil, fmt.Errorf("UPSTREAM_ALL_PROXY missing required 'private-key' query param")
	}

	sshKey, err := os.ReadFile(keyPath)
	if err != nil {
		return nil, fmt.Errorf("reading SSH private key %s: %w", keyPath, err)
	}

	socks5Proxy := proxy.NewSocks5Proxy(proxy.NewHostKey(), log.Default(), 1*time.Minute)

	var (
		dialer proxy.DialFunc
		mut    sync.RWMutex
	)

	return func(ctx context.Context, network, address string) (net.Conn, error) {
		mut.RLock()
		current := dialer
		mut.RUnlock()

		if current != nil {
			return current(network, address)
		}

		mut.Lock()
		defer mut.Unlock()
		if dialer == nil {
			proxyDialer, err := socks5Proxy.Dialer(username, string(sshKey), proxyURL.Host)
			if err != nil {
				return nil, fmt.Errorf("error creating SOCKS5 dialer: %w", err)
			}
			dialer = proxyDialer
		}
		return dialer(network, address)
	}, nil
}
