package ioemu

import "testing"

func TestBuildPioRequestDecodesQualification(t *testing.T) {
	// size=2 (bits[2:0]=1), direction=read (bit 3 set), port=0x3F8<<16
	qual := uint64(0x3F8)<<16 | 0x8 | 0x1
	req := BuildPioRequest(qual, 5)

	if req.Kind != KindPortIO {
		t.Errorf("Kind = %v, want KindPortIO", req.Kind)
	}
	if req.Size != 2 {
		t.Errorf("Size = %d, want 2", req.Size)
	}
	if req.Direction != DirRead {
		t.Errorf("Direction = %v, want DirRead", req.Direction)
	}
	if req.Address != 0x3F8 {
		t.Errorf("Address = 0x%x, want 0x3F8", req.Address)
	}
	if req.VcpuID != 5 {
		t.Errorf("VcpuID = %d, want 5", req.VcpuID)
	}

	writeQual := uint64(0x64)<<16 | 0x0
	writeReq := BuildPioRequest(writeQual, 0)
	if writeReq.Direction != DirWrite {
		t.Errorf("Direction = %v, want DirWrite for qualification bit 3 clear", writeReq.Direction)
	}
	if writeReq.Size != 1 {
		t.Errorf("Size = %d, want 1", writeReq.Size)
	}
}

func TestPioPostWorkReadPreservesHighBits(t *testing.T) {
	rax := uint64(0xDEADBEEF_CAFEBABE)
	got := PioPostWorkRead(rax, 2, 0x1234)
	want := uint64(0xDEADBEEF_CAFE1234)
	if got != want {
		t.Errorf("PioPostWorkRead() = 0x%x, want 0x%x", got, want)
	}
}

func TestRunPostWorkRoutesPciConfigThroughPioPath(t *testing.T) {
	req := &IoRequest{Kind: KindPciConfig, Direction: DirRead, Size: 1, Value: 0xAB}
	next, isPio := RunPostWork(req, 0xFFFFFF00)
	if !isPio {
		t.Fatalf("expected PciConfig read to be treated as PIO-like")
	}
	if next != 0xFFFFFFAB {
		t.Errorf("next accumulator = 0x%x, want 0xFFFFFFAB", next)
	}
}

func TestRunPostWorkMmioIsNotPioLike(t *testing.T) {
	req := &IoRequest{Kind: KindMMIO, Direction: DirRead, Size: 4, Value: 0x1234}
	next, isPio := RunPostWork(req, 0xAAAAAAAA)
	if isPio {
		t.Fatalf("expected MMIO to not be PIO-like")
	}
	if next != 0xAAAAAAAA {
		t.Errorf("MMIO post-work should not touch the accumulator, got 0x%x", next)
	}
}

func TestEmulatePostSpuriousWakeup(t *testing.T) {
	page := NewSharedIoPage(1)
	req, resume, err := EmulatePost(page, 0, false)
	if err != nil {
		t.Fatalf("EmulatePost: %v", err)
	}
	if req != nil || resume {
		t.Fatalf("expected spurious wakeup to report (nil, false), got (%+v, %v)", req, resume)
	}
}

func TestEmulatePostZombieShortCircuit(t *testing.T) {
	page := NewSharedIoPage(1)
	slot := &page.Slots[0]
	slot.Valid = 1
	slot.Processed.Store(SlotComplete)
	slot.Value = 0x99

	req, resume, err := EmulatePost(page, 0, true)
	if err != nil {
		t.Fatalf("EmulatePost: %v", err)
	}
	if req != nil || resume {
		t.Fatalf("expected zombie short-circuit to report (nil, false), got (%+v, %v)", req, resume)
	}
	if slot.Valid != 0 || slot.Processed.Load() != SlotFree {
		t.Fatalf("expected zombie path to free the slot")
	}
}

func TestEmulatePostNormalCompletion(t *testing.T) {
	page := NewSharedIoPage(1)
	slot := &page.Slots[0]
	slot.Valid = 1
	slot.Kind = uint32(KindPortIO)
	slot.Direction = uint32(DirRead)
	slot.Address = 0x3F8
	slot.Size = 1
	slot.Value = 0x7A
	slot.Processed.Store(SlotComplete)

	req, resume, err := EmulatePost(page, 0, false)
	if err != nil {
		t.Fatalf("EmulatePost: %v", err)
	}
	if !resume {
		t.Fatalf("expected normal completion to request resume")
	}
	if req == nil || req.Value != 0x7A || req.Address != 0x3F8 {
		t.Fatalf("unexpected completed request: %+v", req)
	}
	if slot.Valid != 0 || slot.Processed.Load() != SlotFree {
		t.Fatalf("expected slot to be freed after completion")
	}
}
