// Package locator finds the serial port the display board is reachable on.
package locator

import (
	"context"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/Guliveer/infoboard/agent/internal/serialport"
)

// Unranked marks a port that matched no marker group. Explicit and fallback
// candidates carry it too.
const Unranked = -1

// Candidate is a port worth probing.
type Candidate struct {
	Port        string
	Description string
	Rank        int // index of the first marker group matched, lower is better
}

// Lister enumerates serial ports.
type Lister interface {
	List() ([]serialport.PortInfo, error)
}

// Prober checks that a port can be opened.
type Prober interface {
	Probe(ctx context.Context, name string) error
}

// Options controls what the locator looks for.
type Options struct {
	DeviceName    string   // advertised board name, matched before anything else
	Port          string   // when set, only this port is probed
	FallbackPorts []string // overrides the platform's conventional names
}

// Bluetooth serial links and common USB-serial bridge chips, in that order.
var (
	bluetoothMarkers = []string{"bluetooth", "rfcomm", "standard serial over"}
	usbSerialMarkers = []string{
		"cp210", "ch340", "ch910", "ftdi", "ft232",
		"usb serial", "usb-serial", "ttyusb", "ttyacm", "usbserial", "usbmodem",
	}
)

// Locator ranks enumerated ports and probes them in order.
type Locator struct {
	lister   Lister
	prober   Prober
	port     string
	markers  [][]string
	fallback []string
	logger   *zap.Logger
}

// New creates a Locator.
func New(lister Lister, prober Prober, opts Options, logger *zap.Logger) *Locator {
	if logger == nil {
		logger = zap.NewNop()
	}
	fallback := opts.FallbackPorts
	if len(fallback) == 0 {
		fallback = defaultFallbackPorts()
	}
	return &Locator{
		lister:   lister,
		prober:   prober,
		port:     opts.Port,
		markers:  Markers(opts.DeviceName),
		fallback: fallback,
		logger:   logger,
	}
}

// Markers returns the ordered keyword groups for a device name. All keywords
// are lower case.
func Markers(deviceName string) [][]string {
	device := []string{"esp32"}
	if name := strings.ToLower(strings.TrimSpace(deviceName)); name != "" && name != "esp32" {
		device = append([]string{name}, device...)
	}
	return [][]string{device, bluetoothMarkers, usbSerialMarkers}
}

// Classify returns the index of the first marker group whose keywords appear
// in the port's name or description, or Unranked.
func (l *Locator) Classify(p serialport.PortInfo) int {
	haystack := strings.ToLower(p.Name + " " + p.Description)
	for rank, group := range l.markers {
		for _, marker := range group {
			if strings.Contains(haystack, marker) {
				return rank
			}
		}
	}
	return Unranked
}

// Rank returns the matching ports ordered by rank. Ports of equal rank keep
// their enumeration order; unmatched ports are dropped.
func (l *Locator) Rank(ports []serialport.PortInfo) []Candidate {
	var ranked []Candidate
	for _, p := range ports {
		if rank := l.Classify(p); rank != Unranked {
			ranked = append(ranked, Candidate{Port: p.Name, Description: p.Description, Rank: rank})
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Rank < ranked[j].Rank })
	return ranked
}

// Locate returns the first candidate that opens. It reports false when
// nothing could be opened or ctx was cancelled.
func (l *Locator) Locate(ctx context.Context) (Candidate, bool) {
	if l.port != "" {
		c := Candidate{Port: l.port, Rank: Unranked}
		if l.probe(ctx, c) {
			return c, true
		}
		l.logger.Warn("Configured port did not open", zap.String("port", l.port))
		return Candidate{}, false
	}

	ports, err := l.lister.List()
	if err != nil {
		l.logger.Debug("Port enumeration failed", zap.Error(err))
	}

	tried := make(map[string]bool)
	ranked := l.Rank(ports)
	for _, c := range ranked {
		if ctx.Err() != nil {
			return Candidate{}, false
		}
		tried[c.Port] = true
		if l.probe(ctx, c) {
			return c, true
		}
	}

	for _, name := range l.fallback {
		if ctx.Err() != nil {
			return Candidate{}, false
		}
		if tried[name] {
			continue
		}
		tried[name] = true
		c := Candidate{Port: name, Rank: Unranked}
		if l.probe(ctx, c) {
			return c, true
		}
	}

	l.logger.Warn("No serial endpoint found",
		zap.Int("enumerated", len(ports)),
		zap.Int("ranked", len(ranked)),
		zap.Int("probed", len(tried)))
	return Candidate{}, false
}

func (l *Locator) probe(ctx context.Context, c Candidate) bool {
	if err := l.prober.Probe(ctx, c.Port); err != nil {
		l.logger.Debug("Probe failed", zap.String("port", c.Port), zap.Int("rank", c.Rank), zap.Error(err))
		return false
	}
	l.logger.Debug("Probe succeeded", zap.String("port", c.Port), zap.String("description", c.Description))
	return true
}
