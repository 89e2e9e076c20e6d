package ioemu

import (
	"context"
	"encoding/binary"
	"path/filepath"
	"testing"

	"github.com/tinyrange/cc/internal/ipc"
)

func TestSharedIoPageSlotBounds(t *testing.T) {
	page := NewSharedIoPage(4)
	if _, err := page.slot(-1); err == nil {
		t.Error("expected error for negative vCPU id")
	}
	if _, err := page.slot(4); err == nil {
		t.Error("expected error for out-of-range vCPU id")
	}
	slot, err := page.slot(2)
	if err != nil {
		t.Fatalf("slot(2): %v", err)
	}
	if slot != &page.Slots[2] {
		t.Fatalf("slot(2) did not return &Slots[2]")
	}
}

func TestVhmRequestFillAndToRequest(t *testing.T) {
	req := &IoRequest{
		Kind:      KindMMIO,
		Direction: DirWrite,
		Address:   0x1000,
		Size:      4,
		Value:     0xDEADBEEF,
		VcpuID:    3,
	}

	var slot VhmRequest
	slot.fill(req)

	got := slot.toRequest()
	if got != *req {
		t.Fatalf("toRequest() round trip = %+v, want %+v", got, *req)
	}
}

func TestEncodeDecodeVhmWireFormat(t *testing.T) {
	slot := &VhmRequest{
		Kind:      uint32(KindPortIO),
		Direction: uint32(DirRead),
		Address:   0x3F8,
		Size:      1,
		Value:     0xAB,
		VcpuID:    7,
	}
	payload := encodeVhmRequest(slot)
	if len(payload) != 32 {
		t.Fatalf("encodeVhmRequest() length = %d, want 32", len(payload))
	}

	// decodeVhmResult reads only the first 8 bytes as the device model's
	// result value; feed it a response shaped like one.
	response := make([]byte, 8)
	response[0] = 0x2A
	value, err := decodeVhmResult(response)
	if err != nil {
		t.Fatalf("decodeVhmResult: %v", err)
	}
	if value != 0x2A {
		t.Fatalf("decodeVhmResult() = 0x%x, want 0x2A", value)
	}
}

func TestDecodeVhmResultRejectsShortPayload(t *testing.T) {
	_, err := decodeVhmResult([]byte{1, 2, 3})
	if err == nil {
		t.Fatal("expected an error for a short payload")
	}
}

func TestAsyncBridgeInsertThenCompleteKicksNotifier(t *testing.T) {
	page := NewSharedIoPage(2)
	calls := NewCallMask(2)
	notifier := &selfDeliveringNotifier{calls: calls}

	bridge := &AsyncBridge{
		Page:     page,
		PcpuOf:   func(vcpuID int) int { return vcpuID },
		Calls:    calls,
		Notifier: notifier,
	}

	req := &IoRequest{Kind: KindPortIO, Direction: DirRead, Address: 0x3F8, Size: 1, VcpuID: 1}
	disp, err := bridge.InsertRequestWait(context.Background(), req)
	if err != nil {
		t.Fatalf("InsertRequestWait: %v", err)
	}
	if disp != DispositionPending {
		t.Fatalf("AsyncBridge.InsertRequestWait() disposition = %v, want DispositionPending", disp)
	}

	slot := &page.Slots[1]
	if slot.Valid != 1 || slot.Processed.Load() != SlotPending {
		t.Fatalf("expected slot to be Pending after InsertRequestWait")
	}

	kicked := -1
	if err := bridge.CompleteAsync(1, 0x99, func(vcpuID int) { kicked = vcpuID }); err != nil {
		t.Fatalf("CompleteAsync: %v", err)
	}

	if slot.Value != 0x99 {
		t.Fatalf("slot.Value = 0x%x, want 0x99", slot.Value)
	}
	if kicked != 1 {
		t.Fatalf("onKicked called with vcpuID=%d, want 1", kicked)
	}
	if len(notifier.notified) != 1 || notifier.notified[0] != 1 {
		t.Fatalf("expected pCPU 1 to be notified, got %v", notifier.notified)
	}
}

// TestDeviceModelBridgeInsertRequestWaitRoundTrip drives DeviceModelBridge
// against a real internal/ipc.Server over a temp Unix socket, the same way
// the device model process would sit on the other end of the upcall.
func TestDeviceModelBridgeInsertRequestWaitRoundTrip(t *testing.T) {
	socketPath := filepath.Join(t.TempDir(), "vhm.sock")

	srv, err := ipc.NewServer(socketPath, func(msgType uint16, payload []byte) ([]byte, error) {
		if msgType != deviceModelCallMsg {
			t.Fatalf("server saw unexpected message type 0x%04x", msgType)
		}
		// Respond with Address+1 so the test can tell the handler actually
		// inspected the request rather than echoing a constant.
		addr := binary.LittleEndian.Uint64(payload[8:16])
		resp := make([]byte, 8)
		binary.LittleEndian.PutUint64(resp, addr+1)
		return resp, nil
	})
	if err != nil {
		t.Fatalf("ipc.NewServer: %v", err)
	}
	defer srv.Close()

	go srv.ServeOne()

	client, err := ipc.ConnectTo(socketPath)
	if err != nil {
		t.Fatalf("ipc.ConnectTo: %v", err)
	}
	defer client.Close()

	page := NewSharedIoPage(1)
	bridge := NewDeviceModelBridge(page, client)

	req := &IoRequest{Kind: KindPortIO, Direction: DirRead, Address: 0x3F8, Size: 1, VcpuID: 0}
	disp, err := bridge.InsertRequestWait(context.Background(), req)
	if err != nil {
		t.Fatalf("InsertRequestWait: %v", err)
	}
	if disp != DispositionOK {
		t.Fatalf("DeviceModelBridge.InsertRequestWait() disposition = %v, want DispositionOK", disp)
	}
	if req.Value != req.Address+1 {
		t.Fatalf("req.Value = 0x%x, want 0x%x", req.Value, req.Address+1)
	}

	slot := &page.Slots[0]
	if slot.Valid != 0 || slot.Processed.Load() != SlotFree {
		t.Fatalf("expected slot freed by EmulatePost, got Valid=%d Processed=%d", slot.Valid, slot.Processed.Load())
	}
}

func TestAsyncBridgeCompleteRejectsNonPendingSlot(t *testing.T) {
	page := NewSharedIoPage(1)
	bridge := &AsyncBridge{
		Page:     page,
		PcpuOf:   func(int) int { return 0 },
		Calls:    NewCallMask(1),
		Notifier: &recordingNotifier{},
	}
	err := bridge.CompleteAsync(0, 1, func(int) {})
	if err == nil {
		t.Fatal("expected an error completing a slot that was never inserted")
	}
}
