// Package discovery advertises and finds blinkd instances over mDNS/DNS-SD.
package discovery

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/grandcat/zeroconf"
)

const (
	// ServiceType is the DNS-SD service type of the blinkd HTTP API.
	ServiceType = "_blinkd._tcp"
	// Domain is the mDNS domain.
	Domain = "local."
)

// Instance is a blinkd found on the network.
type Instance struct {
	Name     string
	Host     string
	Address  string // host:port of the HTTP API
	Metadata map[string]string
}

// Advertiser publishes this instance until Stop is called.
type Advertiser struct {
	server *zeroconf.Server
	logger *slog.Logger
}

// Advertise registers name on port with metadata as TXT records.
func Advertise(name string, port int, metadata map[string]string, logger *slog.Logger) (*Advertiser, error) {
	if logger == nil {
		logger = slog.Default()
	}

	server, err := zeroconf.Register(name, ServiceType, Domain, port, buildTXT(metadata), nil)
	if err != nil {
		return nil, fmt.Errorf("mdns register: %w", err)
	}

	logger.Info("mDNS advertising", "name", name, "service", ServiceType, "port", port)
	return &Advertiser{server: server, logger: logger}, nil
}

// Stop withdraws the advertisement. Safe to call on a nil advertiser.
func (a *Advertiser) Stop() {
	if a == nil || a.server == nil {
		return
	}
	a.server.Shutdown()
	a.server = nil
	a.logger.Debug("mDNS advertisement withdrawn")
}

// Browse collects instances until ctx is done.
func Browse(ctx context.Context) ([]Instance, error) {
	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, fmt.Errorf("mdns resolver: %w", err)
	}

	entries := make(chan *zeroconf.ServiceEntry)
	var (
		instances []Instance
		wg        sync.WaitGroup
	)

	wg.Add(1)
	go func() {
		defer wg.Done()
		for entry := range entries {
			instances = append(instances, entryToInstance(entry))
		}
	}()

	if err := resolver.Browse(ctx, ServiceType, Domain, entries); err != nil {
		return nil, fmt.Errorf("mdns browse: %w", err)
	}

	// The resolver closes entries once ctx is done.
	<-ctx.Done()
	wg.Wait()

	sort.Slice(instances, func(i, j int) bool { return instances[i].Name < instances[j].Name })
	return instances, nil
}

func entryToInstance(entry *zeroconf.ServiceEntry) Instance {
	inst := Instance{
		Name:     entry.Instance,
		Host:     entry.HostName,
		Metadata: parseTXT(entry.Text),
	}

	port := strconv.Itoa(entry.Port)
	switch {
	case len(entry.AddrIPv4) > 0:
		inst.Address = net.JoinHostPort(entry.AddrIPv4[0].String(), port)
	case len(entry.AddrIPv6) > 0:
		inst.Address = net.JoinHostPort(entry.AddrIPv6[0].String(), port)
	}
	return inst
}

// buildTXT renders metadata as sorted key=value records.
func buildTXT(metadata map[string]string) []string {
	txt := make([]string, 0, len(metadata))
	for k, v := range metadata {
		txt = append(txt, k+"="+v)
	}
	sort.Strings(txt)
	return txt
}

func parseTXT(txt []string) map[string]string {
	m := make(map[string]string, len(txt))
	for _, t := range txt {
		if k, v, ok := strings.Cut(t, "="); ok {
			m[k] = v
		}
	}
	return m
}
