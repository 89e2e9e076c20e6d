package ioemu

import (
	"context"
	"fmt"
)

// AsyncBridge implements Bridge without blocking the calling vCPU: it
// writes the slot, flips it to Pending, and returns immediately. A separate
// device-model completion callback (CompleteAsync) later drives the slot to
// Complete and uses an SMP call to kick the owning pCPU out of guest mode so
// EmulatePost runs there, as distinct from DeviceModelBridge's blocking
// specialization of the same handoff.
type AsyncBridge struct {
	Page *SharedIoPage

	// PcpuOf maps a vCPU id to the physical CPU currently hosting it, so a
	// completion knows which pCPU to notify.
	PcpuOf func(vcpuID int) int

	Calls    *CallMask
	Notifier Notifier
}

// InsertRequestWait implements Bridge by queuing the request and returning
// without waiting for the device model; the result arrives later through
// CompleteAsync and EmulatePost, so this always reports DispositionPending.
func (b *AsyncBridge) InsertRequestWait(ctx context.Context, req *IoRequest) (Disposition, error) {
	slot, err := b.Page.slot(req.VcpuID)
	if err != nil {
		return DispositionOK, err
	}
	slot.fill(req)
	slot.Processed.Store(SlotPending) // release
	slot.Valid = 1
	return DispositionPending, nil
}

// CompleteAsync is called by the device model's completion handler once it
// has produced a result for vcpuID. It writes the value, flips the slot to
// Complete, and broadcasts an SMP call of exactly one pCPU so that CPU runs
// onKicked — typically a wrapper around EmulatePost followed by resuming
// the vCPU — the next time it is safe to do so.
func (b *AsyncBridge) CompleteAsync(vcpuID int, value uint64, onKicked func(vcpuID int)) error {
	slot, err := b.Page.slot(vcpuID)
	if err != nil {
		return err
	}
	if slot.Valid == 0 || slot.Processed.Load() != SlotPending {
		return fmt.Errorf("ioemu: async completion for vCPU %d slot not pending", vcpuID)
	}

	slot.Value = value
	slot.Processed.Store(SlotComplete) // release

	pcpu := b.PcpuOf(vcpuID)
	mask := uint64(1) << uint(pcpu)

	b.Calls.SMPCallFunction(mask, b.Notifier, func(ctx any) {
		onKicked(ctx.(int))
	}, vcpuID)

	return nil
}
