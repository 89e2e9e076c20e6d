package ioemu

import (
	"github.com/tinyrange/cc/internal/timeslice"
)

var (
	tsDispatch    = timeslice.RegisterKind("ioemu_dispatch", 0)
	tsVhmWait     = timeslice.RegisterKind("ioemu_vhm_wait", 0)
	tsEmulatePost = timeslice.RegisterKind("ioemu_emulate_post", 0)
)

// BuildPioRequest decodes the architectural PIO exit qualification: size =
// bits[2:0]+1, direction = bit[3] (0 = write), port = bits[31:16]. This is
// the pure decode contract available to any backend that receives raw
// qualification bits; the KVM backend's exit data already arrives
// pre-decoded and is constructed directly by internal/chipset instead.
func BuildPioRequest(qualification uint64, vcpuID int) IoRequest {
	size := uint8(qualification&0x7) + 1
	write := qualification&0x8 == 0
	port := uint16(qualification >> 16)

	dir := DirWrite
	if !write {
		dir = DirRead
	}

	return IoRequest{
		Kind:      KindPortIO,
		Direction: dir,
		Address:   uint64(port),
		Size:      size,
		VcpuID:    vcpuID,
	}
}

// PioPostWorkRead implements the RAX post-work rule for a completed PIO
// read: the low 8*size bits of rax are replaced by value masked to size;
// higher bits are preserved unchanged.
func PioPostWorkRead(rax uint64, size uint8, value uint64) uint64 {
	m := mask(size)
	return (rax &^ m) | (value & m)
}

// RunPostWork executes the type-appropriate post-work for a completed
// request and reports the updated accumulator value for PIO/PciConfig reads
// (callers that don't need it, e.g. pure writes or MMIO, can ignore the
// second return).
//
// PciConfig requests share exactly the IoRequest struct used by PortIO
// requests, so they are explicitly routed through the same PIO post-work
// here rather than relying on any incidental byte-layout agreement between
// the two request kinds.
func RunPostWork(req *IoRequest, priorAccumulator uint64) (newAccumulator uint64, isPioLike bool) {
	switch req.Kind {
	case KindPortIO, KindPciConfig:
		if req.Direction == DirRead {
			return PioPostWorkRead(priorAccumulator, req.Size, req.Value), true
		}
		return priorAccumulator, true
	case KindMMIO, KindWriteProtect:
		// MMIO read post-work re-enters the external instruction emulator,
		// which is out of scope for this package; callers feed req.Value
		// into their own decode-and-emulate step.
		return priorAccumulator, false
	default:
		return priorAccumulator, false
	}
}

// EmulatePost implements the completion path invoked when a vCPU becomes
// runnable after a device-model completion.
//
// It returns the completed request and whether the vCPU should be resumed.
// A spurious wake-up (Valid==0 or Processed != SlotComplete) and the Zombie
// short-circuit both report resume=false with a nil request, tolerated as
// no-ops rather than errors.
func EmulatePost(page *SharedIoPage, vcpuID int, zombie bool) (*IoRequest, bool, error) {
	rec := timeslice.NewRecorder()
	defer rec.Record(tsEmulatePost)

	slot, err := page.slot(vcpuID)
	if err != nil {
		return nil, false, err
	}

	if slot.Valid == 0 || slot.Processed.Load() != SlotComplete { // acquire
		return nil, false, nil
	}

	if zombie {
		slot.Processed.Store(SlotFree)
		slot.Valid = 0
		return nil, false, nil
	}

	req := slot.toRequest()
	slot.Processed.Store(SlotFree)
	slot.Valid = 0

	return &req, true, nil
}
