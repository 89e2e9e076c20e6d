package ioemu

import (
	"context"
	"encoding/binary"
	"fmt"
	"sync/atomic"

	"github.com/tinyrange/cc/internal/ipc"
	"github.com/tinyrange/cc/internal/timeslice"
)

// Slot state machine values for VhmRequest.Processed.
const (
	SlotFree uint32 = iota
	SlotPending
	SlotComplete
)

// VhmRequest is the ABI-stable, fixed-layout record shared with the
// device-model process over the ring. Only the hypervisor writes Free and
// Pending; only the device model writes Complete. Valid==0 means the slot
// carries no in-flight request.
type VhmRequest struct {
	Valid     uint32
	Processed atomic.Uint32
	Kind      uint32
	Direction uint32
	Address   uint64
	Size      uint32
	Value     uint64
	VcpuID    uint32
}

func (s *VhmRequest) fill(req *IoRequest) {
	s.Kind = uint32(req.Kind)
	s.Direction = uint32(req.Direction)
	s.Address = req.Address
	s.Size = uint32(req.Size)
	s.Value = req.Value
	s.VcpuID = uint32(req.VcpuID)
}

func (s *VhmRequest) toRequest() IoRequest {
	return IoRequest{
		Kind:      Kind(s.Kind),
		Direction: Direction(s.Direction),
		Address:   s.Address,
		Size:      uint8(s.Size),
		Value:     s.Value,
		VcpuID:    int(s.VcpuID),
	}
}

// SharedIoPage is the per-VM ring of VhmRequest slots, one per vCPU,
// indexed by vCPU id.
type SharedIoPage struct {
	Slots []VhmRequest
}

// NewSharedIoPage allocates a ring sized for vcpuCount vCPUs.
func NewSharedIoPage(vcpuCount int) *SharedIoPage {
	return &SharedIoPage{Slots: make([]VhmRequest, vcpuCount)}
}

func (p *SharedIoPage) slot(vcpuID int) (*VhmRequest, error) {
	if vcpuID < 0 || vcpuID >= len(p.Slots) {
		return nil, fmt.Errorf("ioemu: vCPU id %d out of range for shared page of size %d", vcpuID, len(p.Slots))
	}
	return &p.Slots[vcpuID], nil
}

// Bridge hands an unhandled request to the device model. It reports
// DispositionOK when it has already resolved req.Value by the time it
// returns (a blocking round trip), or DispositionPending when the result
// will arrive later through a separate completion path (EmulatePost);
// callers must not resume the vCPU on DispositionPending until that
// completion occurs.
type Bridge interface {
	InsertRequestWait(ctx context.Context, req *IoRequest) (Disposition, error)
}

// deviceModelCallMsg is the IPC message type used for the VHM upcall.
const deviceModelCallMsg uint16 = 0x1000

// DeviceModelBridge implements Bridge over an existing internal/ipc
// connection to the device-model process: writing the slot and flipping it
// to Pending is the hypervisor-side half of the handoff, and Call performs
// the upcall that signals the device model, reusing the same synchronous
// request/response transport internal/ipc already provides for the
// cc-helper protocol.
type DeviceModelBridge struct {
	Page   *SharedIoPage
	Client *ipc.Client
}

// NewDeviceModelBridge wires a shared ring to an already-connected IPC
// client.
func NewDeviceModelBridge(page *SharedIoPage, client *ipc.Client) *DeviceModelBridge {
	return &DeviceModelBridge{Page: page, Client: client}
}

// InsertRequestWait implements Bridge. It atomically writes the request into
// the vCPU's slot, stores Pending with release semantics, sets Valid, then
// blocks on the IPC round trip to the device model. On return the device
// model has already produced a result and the slot has been driven back to
// Complete; the caller observes the populated req.Value directly and gets
// DispositionOK back, since there is no later completion left to wait for.
func (b *DeviceModelBridge) InsertRequestWait(ctx context.Context, req *IoRequest) (Disposition, error) {
	rec := timeslice.NewRecorder()
	defer rec.Record(tsVhmWait)

	slot, err := b.Page.slot(req.VcpuID)
	if err != nil {
		return DispositionOK, err
	}

	slot.fill(req)
	slot.Processed.Store(SlotPending) // release: payload fields above are visible before this store
	slot.Valid = 1

	payload := encodeVhmRequest(slot)
	resp, err := b.Client.Call(deviceModelCallMsg, payload)
	if err != nil {
		return DispositionOK, fmt.Errorf("ioemu: device model upcall: %w", err)
	}

	result, err := decodeVhmResult(resp)
	if err != nil {
		return DispositionOK, fmt.Errorf("ioemu: decode device model response: %w", err)
	}

	slot.Value = result
	slot.Processed.Store(SlotComplete) // release: device-model-visible result is final before this store

	completed, _, err := EmulatePost(b.Page, req.VcpuID, false)
	if err != nil {
		return DispositionOK, err
	}
	if completed != nil {
		req.Value = completed.Value
	}
	return DispositionOK, nil
}

func encodeVhmRequest(s *VhmRequest) []byte {
	buf := make([]byte, 32)
	binary.LittleEndian.PutUint32(buf[0:4], s.Kind)
	binary.LittleEndian.PutUint32(buf[4:8], s.Direction)
	binary.LittleEndian.PutUint64(buf[8:16], s.Address)
	binary.LittleEndian.PutUint32(buf[16:20], s.Size)
	binary.LittleEndian.PutUint64(buf[20:28], s.Value)
	binary.LittleEndian.PutUint32(buf[28:32], s.VcpuID)
	return buf
}

func decodeVhmResult(payload []byte) (uint64, error) {
	if len(payload) < 8 {
		return 0, fmt.Errorf("ioemu: short device model response (%d bytes)", len(payload))
	}
	return binary.LittleEndian.Uint64(payload[:8]), nil
}
