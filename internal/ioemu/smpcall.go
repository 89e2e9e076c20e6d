package ioemu

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/tinyrange/cc/internal/timeslice"
	"golang.org/x/sys/unix"
)

var tsSmpCall = timeslice.RegisterKind("ioemu_smp_call", 0)

// SmpCallInfo is a per-pCPU mailbox: the callback and context a broadcast
// wants that CPU to run.
type SmpCallInfo struct {
	mu   sync.Mutex
	fn   func(any)
	data any
}

func (c *SmpCallInfo) set(fn func(any), data any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fn, c.data = fn, data
}

func (c *SmpCallInfo) takeAndClear() (func(any), any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fn, data := c.fn, c.data
	c.fn, c.data = nil, nil
	return fn, data
}

// invalidCpuBit is the sentinel bit a caller's mask may carry meaning "no
// real CPU"; SMPCallFunction clears it before use.
const invalidCpuBit = uint64(1) << 63

// Notifier delivers the reserved notification vector to a physical CPU,
// kicking its host thread out of guest-mode execution so it can run
// KickNotification. The KVM backend grounds this in
// RequestImmediateExit's unix.Tgkill(pid, tid, signal) mechanism.
type Notifier interface {
	Notify(pcpu int) error
}

// TgkillNotifier delivers the notification vector as a real-time signal to
// a tracked tid per pCPU, the same mechanism the KVM backend already uses
// for RequestImmediateExit.
type TgkillNotifier struct {
	pid int
	tid []int // tid[pcpu], -1 if unknown
	sig unix.Signal
}

// NewTgkillNotifier builds a Notifier for numCpus physical CPUs using sig as
// the reserved notification vector, a real-time signal number distinct from
// the SIGUSR1 used for immediate-exit.
func NewTgkillNotifier(pid, numCpus int, sig unix.Signal) *TgkillNotifier {
	tid := make([]int, numCpus)
	for i := range tid {
		tid[i] = -1
	}
	return &TgkillNotifier{pid: pid, tid: tid, sig: sig}
}

// BindThread records the OS thread id hosting pcpu, the way each vCPU's
// worker goroutine captures unix.Gettid() after runtime.LockOSThread.
func (n *TgkillNotifier) BindThread(pcpu, tid int) {
	if pcpu >= 0 && pcpu < len(n.tid) {
		n.tid[pcpu] = tid
	}
}

func (n *TgkillNotifier) Notify(pcpu int) error {
	if pcpu < 0 || pcpu >= len(n.tid) || n.tid[pcpu] < 0 {
		return fmt.Errorf("ioemu: no known thread for pCPU %d", pcpu)
	}
	return unix.Tgkill(n.pid, n.tid[pcpu], n.sig)
}

// CallMask coordinates a single system-wide broadcast-one-callback-to-a-mask
// call. At rest its value is 0; between claim and release it names the
// pCPUs that still owe the current callback.
type CallMask struct {
	mask  atomic.Uint64
	slots []SmpCallInfo
	active atomic.Uint64 // bitmask of physical CPUs considered present
}

// NewCallMask allocates per-pCPU mailboxes for numCpus physical CPUs, all
// initially marked active.
func NewCallMask(numCpus int) *CallMask {
	c := &CallMask{slots: make([]SmpCallInfo, numCpus)}
	if numCpus >= 64 {
		c.active.Store(^uint64(0))
	} else {
		c.active.Store((uint64(1) << numCpus) - 1)
	}
	return c
}

// SetActive marks pcpu present or absent in pcpu_active_bitmap.
func (c *CallMask) SetActive(pcpu int, active bool) {
	bit := uint64(1) << uint(pcpu)
	for {
		old := c.active.Load()
		var next uint64
		if active {
			next = old | bit
		} else {
			next = old &^ bit
		}
		if c.active.CompareAndSwap(old, next) {
			return
		}
	}
}

// claim spins the CAS-claim idiom also used by internal/debug's structured
// buffer (logStructuredBuffer.WriteAt's CAS loop), serializing all
// broadcasts system-wide.
func (c *CallMask) claim(mask uint64) {
	for {
		if c.mask.CompareAndSwap(0, mask) {
			return
		}
	}
}

func (c *CallMask) releaseWait() {
	for c.mask.Load() != 0 {
	}
}

func (c *CallMask) clearBit(pcpu int) {
	bit := uint64(1) << uint(pcpu)
	for {
		old := c.mask.Load()
		if c.mask.CompareAndSwap(old, old&^bit) {
			return
		}
	}
}

// SMPCallFunction delivers fn(ctx) exactly once, synchronously, on every
// active CPU named in mask.
func (c *CallMask) SMPCallFunction(mask uint64, notifier Notifier, fn func(any), ctx any) {
	rec := timeslice.NewRecorder()
	defer rec.Record(tsSmpCall)

	mask &^= invalidCpuBit

	c.claim(mask)

	remaining := mask
	for pcpu := 0; pcpu < 64; pcpu++ {
		bit := uint64(1) << uint(pcpu)
		if remaining&bit == 0 {
			continue
		}
		if c.active.Load()&bit == 0 {
			slog.Warn("ioemu: smp call target pCPU is not active, cannot acknowledge", "pcpu", pcpu)
			c.clearBit(pcpu)
			continue
		}
		c.slots[pcpu].set(fn, ctx)
	}

	for pcpu := 0; pcpu < 64; pcpu++ {
		bit := uint64(1) << uint(pcpu)
		if c.mask.Load()&bit == 0 {
			continue
		}
		if err := notifier.Notify(pcpu); err != nil {
			slog.Error("ioemu: smp call notify failed", "pcpu", pcpu, "error", err)
		}
	}

	c.releaseWait()
}

// KickNotification is the ISR run on the receiving CPU: it tests its own
// bit, and if set, runs the queued callback and clears the bit. If the bit
// is already clear, the delivery is treated as a pure "kick" — e.g. to
// force the CPU out of non-root guest context — and no callback runs.
func (c *CallMask) KickNotification(pcpu int) {
	bit := uint64(1) << uint(pcpu)
	if c.mask.Load()&bit == 0 {
		return
	}

	fn, data := c.slots[pcpu].takeAndClear()
	if fn != nil {
		fn(data)
	}

	c.clearBit(pcpu)
}

// notificationSetUp guards SetupNotification's "only CPU 0 performs
// registration, duplicate registration fails with Busy" rule.
var notificationSetUp atomic.Bool

// SetupNotification registers the notification ISR exactly once
// system-wide. Subsequent calls return ErrBusy.
func SetupNotification(register func() error) error {
	if !notificationSetUp.CompareAndSwap(false, true) {
		return ErrBusy
	}
	if err := register(); err != nil {
		notificationSetUp.Store(false)
		return fmt.Errorf("ioemu: register notification ISR: %w", err)
	}
	return nil
}

// resetNotificationSetup is a test-only escape hatch; production code never
// calls it (the reservation is meant to hold for the process lifetime).
func resetNotificationSetup() {
	notificationSetUp.Store(false)
}
