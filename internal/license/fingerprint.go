package license

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net"
	"os"
	"os/exec"
	"os/user"
	"runtime"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/rs/zerolog/log"
)

var errEmptyID = errors.New("empty identifier")

// Fingerprinter yields the hardware fingerprint of the current machine.
type Fingerprinter interface {
	Fingerprint(ctx context.Context) string
}

// Strategy is one way of reading a raw machine identifier.
type Strategy struct {
	Name  string
	Match func(goos string) bool
	Probe func(ctx context.Context) (string, error)
}

// HostFingerprinter tries its strategies in order and hashes the first
// non-empty identifier. Only an identifier read from the hardware is kept;
// the host and user name fallback is recomputed on every call.
type HostFingerprinter struct {
	goos         string
	strategies   []Strategy
	fallback     func() string
	probeTimeout time.Duration

	mu    sync.Mutex
	value string
}

// NewHostFingerprinter creates a fingerprinter for goos. fallback must always
// produce a value; it is used when no strategy succeeds.
func NewHostFingerprinter(goos string, strategies []Strategy, fallback func() string) *HostFingerprinter {
	return &HostFingerprinter{goos: goos, strategies: strategies, fallback: fallback}
}

// DefaultFingerprinter reads the identifiers of the machine it runs on.
func DefaultFingerprinter() *HostFingerprinter {
	h := hostProbes{run: runCommand, readFile: os.ReadFile, interfaces: net.Interfaces}
	return NewHostFingerprinter(runtime.GOOS, h.strategies(), hostUserID)
}

// WithProbeTimeout bounds each strategy. Zero, the default, lets a probe run
// until it returns.
func (f *HostFingerprinter) WithProbeTimeout(d time.Duration) *HostFingerprinter {
	f.probeTimeout = d
	return f
}

// Fingerprint never fails: every failed strategy falls through to the next
// and finally to the hostname and user name.
func (f *HostFingerprinter) Fingerprint(ctx context.Context) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.value != "" {
		return f.value
	}

	// The caller's cancellation must not turn a readable machine into the fallback.
	id, ok := f.hardwareID(context.WithoutCancel(ctx))
	if !ok {
		log.Warn().Msg("no hardware identifier available, using host and user name")
		return HashID(f.fallback())
	}
	f.value = HashID(id)
	return f.value
}

func (f *HostFingerprinter) hardwareID(ctx context.Context) (string, bool) {
	for _, s := range f.strategies {
		if s.Match != nil && !s.Match(f.goos) {
			continue
		}
		id, err := f.probe(ctx, s)
		if err == nil && strings.TrimSpace(id) != "" {
			log.Debug().Str("strategy", s.Name).Msg("hardware fingerprint acquired")
			return id, true
		}
		if err == nil {
			err = errEmptyID
		}
		log.Debug().Err(err).Str("strategy", s.Name).Msg("fingerprint strategy failed, trying next")
	}
	return "", false
}

func (f *HostFingerprinter) probe(ctx context.Context, s Strategy) (string, error) {
	if f.probeTimeout <= 0 {
		return s.Probe(ctx)
	}
	probeCtx, cancel := context.WithTimeout(ctx, f.probeTimeout)
	defer cancel()
	return s.Probe(probeCtx)
}

// HashID reduces a raw identifier to 16 upper-case hex digits of its SHA-256.
func HashID(raw string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(raw)))
	return strings.ToUpper(hex.EncodeToString(sum[:])[:16])
}

type commandRunner func(ctx context.Context, name string, args ...string) (string, error)

type hostProbes struct {
	run        commandRunner
	readFile   func(name string) ([]byte, error)
	interfaces func() ([]net.Interface, error)
}

func (h hostProbes) strategies() []Strategy {
	return []Strategy{
		{Name: "board-serial+cpu-id", Match: onOS("windows"), Probe: h.boardAndCPU},
		{Name: "mac-address", Match: onOS("windows"), Probe: h.macAddress},
		{Name: "hardware-uuid", Match: onOS("darwin"), Probe: h.hardwareUUID},
		{Name: "machine-id", Match: notOS("windows", "darwin"), Probe: h.file("/etc/machine-id")},
		{Name: "dbus-machine-id", Match: notOS("windows", "darwin"), Probe: h.file("/var/lib/dbus/machine-id")},
	}
}

func (h hostProbes) boardAndCPU(ctx context.Context) (string, error) {
	board, err := h.run(ctx, "wmic", "baseboard", "get", "serialnumber")
	if err != nil {
		return "", err
	}
	cpu, err := h.run(ctx, "wmic", "cpu", "get", "processorid")
	if err != nil {
		return "", err
	}
	return stripSpace(board) + stripSpace(cpu), nil
}

func (h hostProbes) macAddress(_ context.Context) (string, error) {
	ifaces, err := h.interfaces()
	if err != nil {
		return "", err
	}
	for _, iface := range ifaces {
		if iface.Flags&net.FlagLoopback != 0 || len(iface.HardwareAddr) == 0 {
			continue
		}
		mac := iface.HardwareAddr.String()
		if mac != "00:00:00:00:00:00" {
			return mac, nil
		}
	}
	return "", errEmptyID
}

func (h hostProbes) hardwareUUID(ctx context.Context) (string, error) {
	out, err := h.run(ctx, "system_profiler", "SPHardwareDataType")
	if err != nil {
		return "", err
	}
	for _, line := range strings.Split(out, "\n") {
		if strings.Contains(line, "Hardware UUID") {
			return strings.TrimSpace(line), nil
		}
	}
	return "", errEmptyID
}

func (h hostProbes) file(path string) func(context.Context) (string, error) {
	return func(context.Context) (string, error) {
		b, err := h.readFile(path)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
}

func runCommand(ctx context.Context, name string, args ...string) (string, error) {
	out, err := exec.CommandContext(ctx, name, args...).Output()
	return string(out), err
}

func hostUserID() string {
	host, _ := os.Hostname()
	name := ""
	if u, err := user.Current(); err == nil {
		name = u.Username
	}
	return host + name
}

func onOS(goos string) func(string) bool {
	return func(current string) bool { return current == goos }
}

func notOS(excluded ...string) func(string) bool {
	return func(current string) bool {
		for _, goos := range excluded {
			if current == goos {
				return false
			}
		}
		return true
	}
}

func stripSpace(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}
