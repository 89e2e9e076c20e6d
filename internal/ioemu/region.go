package ioemu

import "github.com/tinyrange/cc/internal/hv"

// PioReadFunc and PioWriteFunc service one direction of a registered PIO
// range. ectx is the per-exit context threaded through from the vCPU exit
// handler (e.g. for timeslice bookkeeping), matching how
// chipset.PortIOHandler already receives an hv.ExitContext. Unlike the C
// model's bare function pointers, both return an explicit error so a
// handler backed by a real device (which can fail, e.g. on a malformed
// access width) can report it instead of panicking.
type PioReadFunc func(ectx hv.ExitContext, space *IoSpace, addr uint16, size uint8) (uint64, error)
type PioWriteFunc func(ectx hv.ExitContext, space *IoSpace, addr uint16, size uint8, value uint64) error

// PioHandler is one node of the per-VM singly linked PIO handler list.
// Nodes are prepended on registration, so the list is walked newest-first;
// because ranges are required disjoint at registration time, ordering is
// observationally irrelevant except when a span error aborts the scan.
type PioHandler struct {
	Addr  uint16
	Len   uint16
	Read  PioReadFunc
	Write PioWriteFunc
	next  *PioHandler
}

func (h *PioHandler) end() uint32 { return uint32(h.Addr) + uint32(h.Len) }

// MmioRWFunc services both directions of a registered MMIO range. It is
// expected to populate req.Value on reads.
type MmioRWFunc func(ectx hv.ExitContext, space *IoSpace, req *IoRequest, ctx any) error

// MmioHandler is one node of the per-VM doubly linked MMIO handler list.
// Nodes are appended on registration.
type MmioHandler struct {
	Start uint64
	End   uint64
	RW    MmioRWFunc
	Ctx   any

	prev, next *MmioHandler
}

// bitmapPageWords is 4 KiB expressed as 32-bit words: 4096/4.
const bitmapPageWords = 1024

// PioBitmap is the architectural two-page I/O bitmap: page A covers ports
// 0x0000-0x7FFF, page B covers 0x8000-0xFFFF. A set bit traps the access to
// the hypervisor; a clear bit passes it through to hardware (only the
// privileged guest may have clear bits). Each page is word-addressable:
// word index is (port & 0x7FFF) >> 5, bit mask is 1 << (idx & 0x1F).
type PioBitmap struct {
	A [bitmapPageWords]uint32
	B [bitmapPageWords]uint32
}

func (b *PioBitmap) pageFor(port uint16) *[bitmapPageWords]uint32 {
	if port&0x8000 != 0 {
		return &b.B
	}
	return &b.A
}

func wordAndBit(port uint16) (word int, bit uint32) {
	idx := port & 0x7FFF
	return int(idx >> 5), 1 << (idx & 0x1F)
}

// SetTrap sets or clears the trap bit for a single port.
func (b *PioBitmap) SetTrap(port uint16, trap bool) {
	page := b.pageFor(port)
	word, bit := wordAndBit(port)
	if trap {
		page[word] |= bit
	} else {
		page[word] &^= bit
	}
}

// Traps reports whether an access to port currently traps.
func (b *PioBitmap) Traps(port uint16) bool {
	page := b.pageFor(port)
	word, bit := wordAndBit(port)
	return page[word]&bit != 0
}

// IoSpace is the per-VM I/O emulation state: the handler lists, the PIO
// bitmap, an optional bridge to the device model, and a flag marking
// whether this VM is the privileged guest (the one with a device model and
// default pass-through bitmap).
type IoSpace struct {
	Privileged bool

	pioHead  *PioHandler
	mmioHead *MmioHandler
	mmioTail *MmioHandler

	Bitmap *PioBitmap
	Bridge Bridge

	launched bool
}

// NewIoSpace allocates an empty I/O space and its bitmap: the privileged
// guest starts all-pass-through (0x00), unprivileged guests start all-trap
// (0xFF).
func NewIoSpace(privileged bool) *IoSpace {
	s := &IoSpace{
		Privileged: privileged,
		Bitmap:     &PioBitmap{},
	}
	var fill uint32
	if !privileged {
		fill = 0xFFFFFFFF
	}
	for i := range s.Bitmap.A {
		s.Bitmap.A[i] = fill
		s.Bitmap.B[i] = fill
	}
	return s
}

// MarkLaunched records that a vCPU has been launched, after which MMIO
// registration is a programming error.
func (s *IoSpace) MarkLaunched() { s.launched = true }

// pioOverlaps reports whether [addr, addr+len) intersects any existing PIO
// handler's range.
func (s *IoSpace) pioOverlaps(addr, length uint16) bool {
	start := uint32(addr)
	end := start + uint32(length)
	for h := s.pioHead; h != nil; h = h.next {
		hs, he := uint32(h.Addr), h.end()
		if start < he && hs < end {
			return true
		}
	}
	return false
}

// mmioOverlaps reports whether [start, end) intersects any existing MMIO
// handler's range.
func (s *IoSpace) mmioOverlaps(start, end uint64) bool {
	for h := s.mmioHead; h != nil; h = h.next {
		if start < h.End && h.Start < end {
			return true
		}
	}
	return false
}

// findPio returns the first PIO handler list node, for tests and dispatch.
func (s *IoSpace) findPio() *PioHandler { return s.pioHead }

// findMmio returns the first MMIO handler list node, for tests and dispatch.
func (s *IoSpace) findMmio() *MmioHandler { return s.mmioHead }
