package ioemu

import (
	"sync"
	"testing"
)

// recordingNotifier is a Notifier that records delivery order instead of
// signaling a real thread, shared by the SMP call and async bridge tests.
type recordingNotifier struct {
	mu       sync.Mutex
	notified []int
}

func (n *recordingNotifier) Notify(pcpu int) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notified = append(n.notified, pcpu)
	return nil
}

// selfDeliveringNotifier simulates a pCPU host thread that takes the
// notification signal immediately and runs the ISR inline, standing in for
// the real per-thread unix.Tgkill delivery a production Notifier uses.
type selfDeliveringNotifier struct {
	calls    *CallMask
	mu       sync.Mutex
	notified []int
}

func (n *selfDeliveringNotifier) Notify(pcpu int) error {
	n.mu.Lock()
	n.notified = append(n.notified, pcpu)
	n.mu.Unlock()
	n.calls.KickNotification(pcpu)
	return nil
}

func TestSMPCallFunctionRunsOnEveryMaskedCpu(t *testing.T) {
	calls := NewCallMask(4)
	notifier := &selfDeliveringNotifier{calls: calls}

	var mu sync.Mutex
	var runCount int

	mask := uint64(0b1011) // pCPUs 0, 1, 3
	calls.SMPCallFunction(mask, notifier, func(any) {
		mu.Lock()
		runCount++
		mu.Unlock()
	}, "payload")

	if runCount != 3 {
		t.Fatalf("expected the callback to run 3 times (once per masked pCPU), got %d", runCount)
	}
	if len(notifier.notified) != 3 {
		t.Fatalf("expected 3 notifications, got %d: %v", len(notifier.notified), notifier.notified)
	}
	for _, pcpu := range []int{0, 1, 3} {
		found := false
		for _, n := range notifier.notified {
			if n == pcpu {
				found = true
			}
		}
		if !found {
			t.Errorf("expected pCPU %d to be notified", pcpu)
		}
	}
}

func TestSMPCallFunctionSkipsInactiveCpus(t *testing.T) {
	calls := NewCallMask(4)
	calls.SetActive(2, false)
	notifier := &recordingNotifier{}

	mask := uint64(0b0100) // pCPU 2 only, which is inactive
	calls.SMPCallFunction(mask, notifier, func(any) {}, nil)

	if len(notifier.notified) != 0 {
		t.Fatalf("expected no notification for an inactive pCPU, got %v", notifier.notified)
	}
}

func TestKickNotificationIsANoOpWithoutAPendingCallback(t *testing.T) {
	calls := NewCallMask(2)
	// No SMPCallFunction has run, so pCPU 0's bit is clear; KickNotification
	// must not panic and must not run anything.
	calls.KickNotification(0)
}

func TestSetupNotificationRejectsDuplicateRegistration(t *testing.T) {
	defer resetNotificationSetup()

	if err := SetupNotification(func() error { return nil }); err != nil {
		t.Fatalf("first SetupNotification: %v", err)
	}
	err := SetupNotification(func() error { return nil })
	if err != ErrBusy {
		t.Fatalf("second SetupNotification error = %v, want ErrBusy", err)
	}
}

func TestTgkillNotifierRequiresBoundThread(t *testing.T) {
	n := NewTgkillNotifier(1234, 4, 34)
	if err := n.Notify(1); err == nil {
		t.Fatal("expected an error notifying a pCPU with no bound thread")
	}
	n.BindThread(1, 5678)
	// We can't actually deliver a signal to a fabricated tid in a test
	// process; BindThread's bookkeeping is what's under test here.
	if n.tid[1] != 5678 {
		t.Fatalf("tid[1] = %d, want 5678", n.tid[1])
	}
}
