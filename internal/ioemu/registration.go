package ioemu

import (
	"fmt"
	"log/slog"
)

// EptUnmapper removes a guest-physical range from a VM's identity EPT
// mapping, causing subsequent accesses to it to trap. It is the external
// collaborator for the MMIO-registration side effect, satisfied by the
// hypervisor backend (see internal/hv/kvm).
type EptUnmapper interface {
	UnmapEpt(start, end uint64) error
}

// RegisterIoEmulationHandler registers a PIO handler. Both callbacks must
// be non-nil. On the privileged guest the bitmap bits for [base, base+len)
// are set to trap. The node is prepended to the list.
//
// Validation failure is reported via slog and the registration is silently
// skipped rather than returned as an error: there is no allocation step to
// fail in Go, so the only failure mode is a validation error, and the
// caller simply never sees its handler take effect.
func RegisterIoEmulationHandler(space *IoSpace, base, length uint16, read PioReadFunc, write PioWriteFunc) {
	if read == nil || write == nil {
		slog.Error("ioemu: register PIO handler with nil callback", "base", base, "len", length)
		return
	}
	if length == 0 {
		slog.Error("ioemu: register PIO handler with zero length", "base", base)
		return
	}
	if space.pioOverlaps(base, length) {
		slog.Error("ioemu: register PIO handler overlaps an existing range", "base", base, "len", length)
		return
	}

	h := &PioHandler{Addr: base, Len: length, Read: read, Write: write}
	h.next = space.pioHead
	space.pioHead = h

	if space.Privileged {
		DenyGuestIOAccess(space, base, length)
	}
}

// RegisterMmioEmulationHandler registers an MMIO handler. Requires end >
// start and rw non-nil. The owning IoSpace must not yet be launched —
// registering MMIO handlers after any vCPU of the VM has started running
// guest code is a programming error, asserted here as a debug-only
// invariant check rather than a user-visible error; callers that can't
// guarantee pre-launch ordering should track launch state themselves
// before calling.
//
// On success, if the VM is the privileged guest, [start, end) is removed
// from its identity EPT mapping via unmapper (nil is accepted for
// configurations without EPT, e.g. tests).
func RegisterMmioEmulationHandler(space *IoSpace, rw MmioRWFunc, start, end uint64, ctx any, unmapper EptUnmapper) error {
	if debugAssertions && space.launched {
		panic("ioemu: MMIO registration after vCPU launch")
	}
	if end <= start {
		return fmt.Errorf("%w: MMIO range [0x%x,0x%x) is empty or inverted", ErrInvalid, start, end)
	}
	if rw == nil {
		return fmt.Errorf("%w: MMIO handler is nil", ErrInvalid)
	}
	if space.mmioOverlaps(start, end) {
		return fmt.Errorf("%w: MMIO range [0x%x,0x%x) overlaps an existing handler", ErrInvalid, start, end)
	}

	h := &MmioHandler{Start: start, End: end, RW: rw, Ctx: ctx}
	if space.mmioTail == nil {
		space.mmioHead = h
		space.mmioTail = h
	} else {
		h.prev = space.mmioTail
		space.mmioTail.next = h
		space.mmioTail = h
	}

	if space.Privileged && unmapper != nil {
		if err := unmapper.UnmapEpt(start, end); err != nil {
			return fmt.Errorf("ioemu: unmap EPT range [0x%x,0x%x): %w", start, end, err)
		}
	}

	return nil
}

// UnregisterMmioEmulationHandler removes at most the first MMIO handler
// whose bounds match exactly. Duplicate (start,end) entries are impossible
// under correct use because registration rejects overlaps; this function
// does not attempt to detect them.
func UnregisterMmioEmulationHandler(space *IoSpace, start, end uint64) {
	for h := space.mmioHead; h != nil; h = h.next {
		if h.Start != start || h.End != end {
			continue
		}

		if h.prev != nil {
			h.prev.next = h.next
		} else {
			space.mmioHead = h.next
		}
		if h.next != nil {
			h.next.prev = h.prev
		} else {
			space.mmioTail = h.prev
		}
		return
	}
}

// AllowGuestIOAccess clears n consecutive trap bits starting at port,
// making those ports pass through to hardware.
func AllowGuestIOAccess(space *IoSpace, port uint16, n uint16) {
	setRange(space.Bitmap, port, n, false)
}

// DenyGuestIOAccess sets n consecutive trap bits starting at port, making
// those ports trap to the hypervisor.
func DenyGuestIOAccess(space *IoSpace, port uint16, n uint16) {
	setRange(space.Bitmap, port, n, true)
}

func setRange(b *PioBitmap, port uint16, n uint16, trap bool) {
	p := uint32(port)
	end := p + uint32(n)
	for ; p < end && p <= 0xFFFF; p++ {
		b.SetTrap(uint16(p), trap)
	}
}

// SetupIoBitmap allocates and initializes the I/O space for a newly created
// VM: the privileged guest defaults to pass-through (0x00), unprivileged
// guests default to trap-everything (0xFF).
func SetupIoBitmap(privileged bool) *IoSpace {
	return NewIoSpace(privileged)
}

// FreeIoEmulationResource releases a VM's handler lists and bitmap. In Go
// this simply drops the references so the garbage collector reclaims them;
// callers that hold onto *IoSpace after calling this should not.
func FreeIoEmulationResource(space *IoSpace) {
	space.pioHead = nil
	space.mmioHead = nil
	space.mmioTail = nil
	space.Bitmap = nil
}

// debugAssertions gates the pre-launch MMIO registration assertion. It is a
// variable rather than a build tag so tests can exercise the panic path
// directly; production builds should leave it at its default.
var debugAssertions = true
