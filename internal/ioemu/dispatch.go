package ioemu

import (
	"context"
	"fmt"

	"github.com/tinyrange/cc/internal/debug"
	"github.com/tinyrange/cc/internal/hv"
	"github.com/tinyrange/cc/internal/timeslice"
)

// EmulateIO dispatches req against space's handler tables.
//
// PortIO and PciConfig requests scan the PIO handler list; MMIO and
// WriteProtect requests scan the MMIO handler list. A request whose range
// falls fully inside a handler's range invokes that handler; one that falls
// fully outside every handler's range is a no-device miss, resolved either
// by the partition-mode synthesis or by the VHM bridge; one that partially
// overlaps a handler's range aborts the whole scan with ErrSpanError.
//
// ctx governs cancellation of a blocking VHM round trip; ectx is passed
// through unchanged to any local handler that claims the access.
func EmulateIO(ctx context.Context, ectx hv.ExitContext, space *IoSpace, req *IoRequest) (Disposition, error) {
	rec := timeslice.NewRecorder()
	defer rec.Record(tsDispatch)

	if err := req.validate(); err != nil {
		return DispositionOK, err
	}

	switch req.Kind {
	case KindPortIO, KindPciConfig:
		return dispatchPio(ctx, ectx, space, req)
	case KindMMIO, KindWriteProtect:
		return dispatchMmio(ctx, ectx, space, req)
	default:
		return DispositionOK, fmt.Errorf("%w: unhandled request kind %s", ErrInvalid, req.Kind)
	}
}

func dispatchPio(ctx context.Context, ectx hv.ExitContext, space *IoSpace, req *IoRequest) (Disposition, error) {
	port := uint16(req.Address)
	accessStart := uint32(req.Address)
	accessEnd := accessStart + uint32(req.Size)

	for h := space.findPio(); h != nil; h = h.next {
		hs, he := uint32(h.Addr), h.end()

		if accessEnd <= hs || accessStart >= he {
			continue // fully outside
		}
		if accessStart >= hs && accessEnd <= he {
			debug.Writef("ioemu.dispatchPio", "handler addr=0x%x len=%d port=0x%04x size=%d dir=%v",
				h.Addr, h.Len, port, req.Size, req.Direction)
			if req.Direction == DirWrite {
				if err := h.Write(ectx, space, port, req.Size, req.Value&req.Mask()); err != nil {
					return DispositionOK, fmt.Errorf("ioemu: pio handler [0x%x,0x%x) write: %w", h.Addr, h.end(), err)
				}
			} else {
				value, err := h.Read(ectx, space, port, req.Size)
				if err != nil {
					return DispositionOK, fmt.Errorf("ioemu: pio handler [0x%x,0x%x) read: %w", h.Addr, h.end(), err)
				}
				req.Value = value
			}
			return DispositionOK, nil
		}
		return DispositionOK, fmt.Errorf("ioemu: port 0x%04x size %d %w against handler [0x%x,0x%x)",
			port, req.Size, ErrSpanError, h.Addr, h.end())
	}

	return noDevice(ctx, space, req)
}

func dispatchMmio(ctx context.Context, ectx hv.ExitContext, space *IoSpace, req *IoRequest) (Disposition, error) {
	accessStart := req.Address
	accessEnd := accessStart + uint64(req.Size)

	for h := space.findMmio(); h != nil; h = h.next {
		if accessEnd <= h.Start || accessStart >= h.End {
			continue // fully outside
		}
		if accessStart >= h.Start && accessEnd <= h.End {
			debug.Writef("ioemu.dispatchMmio", "handler start=0x%x end=0x%x addr=0x%x size=%d dir=%v",
				h.Start, h.End, req.Address, req.Size, req.Direction)
			if err := h.RW(ectx, space, req, h.Ctx); err != nil {
				return DispositionOK, fmt.Errorf("ioemu: mmio handler [0x%x,0x%x): %w", h.Start, h.End, err)
			}
			return DispositionOK, nil
		}
		return DispositionOK, fmt.Errorf("ioemu: address 0x%x size %d %w against handler [0x%x,0x%x)",
			req.Address, req.Size, ErrSpanError, h.Start, h.End)
	}

	return noDevice(ctx, space, req)
}

// noDevice resolves a dispatch miss common to both PIO and MMIO: partition-
// mode synthesis when no bridge is configured, or handoff to the VHM
// bridge. The bridge itself reports whether it resolved req.Value
// synchronously (DispositionOK) or deferred it to a later completion
// (DispositionPending).
func noDevice(ctx context.Context, space *IoSpace, req *IoRequest) (Disposition, error) {
	if space.Bridge == nil {
		synthesizeNoDevice(req)
		return DispositionOK, nil
	}
	disposition, err := space.Bridge.InsertRequestWait(ctx, req)
	if err != nil {
		return DispositionOK, fmt.Errorf("ioemu: insert request: %w", err)
	}
	return disposition, nil
}

// synthesizeNoDevice implements the partition-mode dead-device behavior:
// reads return all-ones masked to the access width (masking keeps a
// narrow access from reading back sentinel bits above 8*size), writes are
// discarded.
func synthesizeNoDevice(req *IoRequest) {
	if req.Direction == DirRead {
		req.Value = req.Mask()
	}
}
