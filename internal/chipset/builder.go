package chipset

import (
	"fmt"

	"github.com/tinyrange/cc/internal/hv"
	"github.com/tinyrange/cc/internal/ioemu"
)

// InterruptSink receives interrupt assertions for a given line.
type InterruptSink interface {
	SetIRQ(line uint8, level bool)
}

// ChipsetBuilder registers devices and their intercepts before creating a
// Chipset. Underneath, port and MMIO ranges are registered into an
// ioemu.IoSpace, which is what gives dispatch its span-error detection,
// PIO bitmap side effects, and VHM-bridge fallback instead of the builder's
// own bookkeeping.
type ChipsetBuilder struct {
	devices     map[string]ChipsetDevice
	space       *ioemu.IoSpace
	pioPorts    map[uint16]struct{}
	interrupts  map[uint8]InterruptSink
	polls       []PollHandler
	eptUnmapper ioemu.EptUnmapper
}

// NewBuilder returns an empty ChipsetBuilder for an unprivileged I/O space.
func NewBuilder() *ChipsetBuilder {
	return newBuilder(false)
}

// NewPrivilegedBuilder returns an empty ChipsetBuilder for the privileged
// guest's I/O space: PIO handlers registered into it flip their bitmap bits
// to trap (they default to pass-through otherwise), and MMIO handlers will
// ask to have their range unmapped from identity EPT once an EptUnmapper is
// wired in via WithEptUnmapper.
func NewPrivilegedBuilder() *ChipsetBuilder {
	return newBuilder(true)
}

// WithEptUnmapper sets the collaborator used for the privileged guest's
// MMIO-registration EPT side effect. It must be called before any device or
// MMIO region is registered, since registration is what triggers the unmap
// call. Without it, MMIO registration on a privileged builder simply skips
// the unmap step.
func (b *ChipsetBuilder) WithEptUnmapper(u ioemu.EptUnmapper) *ChipsetBuilder {
	b.eptUnmapper = u
	return b
}

func newBuilder(privileged bool) *ChipsetBuilder {
	return &ChipsetBuilder{
		devices:    make(map[string]ChipsetDevice),
		space:      ioemu.NewIoSpace(privileged),
		pioPorts:   make(map[uint16]struct{}),
		interrupts: make(map[uint8]InterruptSink),
	}
}

// RegisterDevice adds a chipset device and wires up its intercepts.
func (b *ChipsetBuilder) RegisterDevice(name string, dev ChipsetDevice) error {
	if b == nil {
		return fmt.Errorf("chipset builder is nil")
	}
	if name == "" {
		return fmt.Errorf("device name is empty")
	}
	if dev == nil {
		return fmt.Errorf("device %q is nil", name)
	}
	if _, exists := b.devices[name]; exists {
		return fmt.Errorf("device %q already registered", name)
	}

	if intercept := dev.SupportsPortIO(); intercept != nil {
		if intercept.Handler == nil {
			return fmt.Errorf("device %q provided port I/O ports with nil handler", name)
		}
		for _, port := range intercept.Ports {
			if err := b.WithPioPort(port, intercept.Handler); err != nil {
				return fmt.Errorf("device %q: %w", name, err)
			}
		}
	}

	if intercept := dev.SupportsMmio(); intercept != nil {
		if intercept.Handler == nil {
			return fmt.Errorf("device %q provided MMIO regions with nil handler", name)
		}
		for _, region := range intercept.Regions {
			if err := b.WithMmioRegion(region.Address, region.Size, intercept.Handler); err != nil {
				return fmt.Errorf("device %q: %w", name, err)
			}
		}
	}

	if poll := dev.SupportsPollDevice(); poll != nil {
		if poll.Handler == nil {
			return fmt.Errorf("device %q provided poll handler nil", name)
		}
		b.polls = append(b.polls, poll.Handler)
	}

	b.devices[name] = dev
	return nil
}

// WithPioPort registers a single I/O port handler. Internally this becomes
// a one-port-wide ioemu PIO handler: ioemu models handlers as [base,base+len)
// ranges, and the builder's per-port API supplies len=1 ranges one at a
// time.
func (b *ChipsetBuilder) WithPioPort(port uint16, handler PortIOHandler) error {
	if handler == nil {
		return fmt.Errorf("PIO handler for port 0x%x is nil", port)
	}
	if _, exists := b.pioPorts[port]; exists {
		return fmt.Errorf("PIO port 0x%x already registered", port)
	}

	read, write := adaptPortIOHandler(handler)
	ioemu.RegisterIoEmulationHandler(b.space, port, 1, read, write)
	b.pioPorts[port] = struct{}{}
	return nil
}

// WithMmioRegion registers a memory-mapped region handler.
func (b *ChipsetBuilder) WithMmioRegion(base, size uint64, handler MmioHandler) error {
	if handler == nil {
		return fmt.Errorf("MMIO handler for region 0x%x size 0x%x is nil", base, size)
	}
	if size == 0 {
		return fmt.Errorf("MMIO region at 0x%x has zero size", base)
	}
	if base+size < base {
		return fmt.Errorf("MMIO region at 0x%x with size 0x%x overflows", base, size)
	}

	rw := adaptMmioHandler(handler)
	if err := ioemu.RegisterMmioEmulationHandler(b.space, rw, base, base+size, handler, b.eptUnmapper); err != nil {
		return fmt.Errorf("MMIO region 0x%x-0x%x: %w", base, base+size-1, err)
	}
	return nil
}

// WithInterruptLine registers a sink for a specific interrupt line.
func (b *ChipsetBuilder) WithInterruptLine(line uint8, sink InterruptSink) error {
	if sink == nil {
		return fmt.Errorf("interrupt sink for line %d is nil", line)
	}
	if _, exists := b.interrupts[line]; exists {
		return fmt.Errorf("interrupt line %d already registered", line)
	}
	b.interrupts[line] = sink
	return nil
}

// Build finalizes the chipset layout and returns the constructed Chipset.
func (b *ChipsetBuilder) Build() (*Chipset, error) {
	if b == nil {
		return nil, fmt.Errorf("chipset builder is nil")
	}

	devices := make(map[string]ChipsetDevice, len(b.devices))
	for name, dev := range b.devices {
		devices[name] = dev
	}

	interrupts := make(map[uint8]InterruptSink, len(b.interrupts))
	for line, sink := range b.interrupts {
		interrupts[line] = sink
	}

	polls := make([]PollHandler, len(b.polls))
	copy(polls, b.polls)

	return &Chipset{
		devices:    devices,
		space:      b.space,
		interrupts: interrupts,
		polls:      polls,
	}, nil
}

// adaptPortIOHandler wraps a PortIOHandler's byte-slice-oriented interface
// into the ioemu uint64-value-oriented PioReadFunc/PioWriteFunc pair.
func adaptPortIOHandler(handler PortIOHandler) (ioemu.PioReadFunc, ioemu.PioWriteFunc) {
	read := func(ectx hv.ExitContext, space *ioemu.IoSpace, addr uint16, size uint8) (uint64, error) {
		data := make([]byte, size)
		if err := handler.ReadIOPort(ectx, addr, data); err != nil {
			return 0, err
		}
		return decodeLE(data), nil
	}
	write := func(ectx hv.ExitContext, space *ioemu.IoSpace, addr uint16, size uint8, value uint64) error {
		data := make([]byte, size)
		encodeLE(data, value)
		return handler.WriteIOPort(ectx, addr, data)
	}
	return read, write
}

// adaptMmioHandler wraps an MmioHandler's byte-slice-oriented interface into
// the ioemu IoRequest-oriented MmioRWFunc.
func adaptMmioHandler(handler MmioHandler) ioemu.MmioRWFunc {
	return func(ectx hv.ExitContext, space *ioemu.IoSpace, req *ioemu.IoRequest, ctx any) error {
		if req.Direction == ioemu.DirWrite {
			data := make([]byte, req.Size)
			encodeLE(data, req.Value)
			return handler.WriteMMIO(ectx, req.Address, data)
		}
		data := make([]byte, req.Size)
		if err := handler.ReadMMIO(ectx, req.Address, data); err != nil {
			return err
		}
		req.Value = decodeLE(data)
		return nil
	}
}

func decodeLE(data []byte) uint64 {
	var v uint64
	for i, b := range data {
		v |= uint64(b) << (8 * uint(i))
	}
	return v
}

func encodeLE(data []byte, value uint64) {
	for i := range data {
		data[i] = byte(value >> (8 * uint(i)))
	}
}

// Chipset represents the built dispatch tables for chipset devices.
type Chipset struct {
	devices    map[string]ChipsetDevice
	space      *ioemu.IoSpace
	interrupts map[uint8]InterruptSink
	polls      []PollHandler
}

