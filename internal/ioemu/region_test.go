package ioemu

import "testing"

func TestPioBitmapWordAndBit(t *testing.T) {
	cases := []struct {
		port     uint16
		wantWord int
		wantBit  uint32
	}{
		{0x0000, 0, 1 << 0},
		{0x001F, 0, 1 << 31},
		{0x0020, 1, 1 << 0},
		{0x7FFF, 1023, 1 << 31},
		{0x8000, 0, 1 << 0}, // page B restarts indexing from its own base
		{0xFFFF, 1023, 1 << 31},
	}
	for _, c := range cases {
		word, bit := wordAndBit(c.port)
		if word != c.wantWord || bit != c.wantBit {
			t.Errorf("wordAndBit(0x%04x) = (%d, 0x%x), want (%d, 0x%x)", c.port, word, bit, c.wantWord, c.wantBit)
		}
	}
}

func TestPioBitmapPageSelection(t *testing.T) {
	b := &PioBitmap{}
	b.SetTrap(0x0040, true)
	if !b.Traps(0x0040) {
		t.Fatalf("expected port 0x0040 to trap")
	}
	if b.Traps(0x8040) {
		t.Fatalf("setting page A must not affect page B")
	}

	b.SetTrap(0x8040, true)
	if !b.Traps(0x8040) {
		t.Fatalf("expected port 0x8040 to trap")
	}

	b.SetTrap(0x0040, false)
	if b.Traps(0x0040) {
		t.Fatalf("expected port 0x0040 trap to be cleared")
	}
}

func TestNewIoSpaceBitmapDefaults(t *testing.T) {
	unpriv := NewIoSpace(false)
	for port := uint32(0); port <= 0xFFFF; port += 4096 {
		if !unpriv.Bitmap.Traps(uint16(port)) {
			t.Fatalf("unprivileged guest: port 0x%04x should default to trap", port)
		}
	}

	priv := NewIoSpace(true)
	for port := uint32(0); port <= 0xFFFF; port += 4096 {
		if priv.Bitmap.Traps(uint16(port)) {
			t.Fatalf("privileged guest: port 0x%04x should default to pass-through", port)
		}
	}
}

func TestPioOverlapsDetectsIntersection(t *testing.T) {
	s := NewIoSpace(false)
	s.pioHead = &PioHandler{Addr: 0x60, Len: 4}

	cases := []struct {
		addr, length uint16
		want         bool
	}{
		{0x60, 4, true},    // exact match
		{0x62, 4, true},    // partial overlap
		{0x5E, 4, true},    // overlaps from below
		{0x64, 4, false},   // adjacent, disjoint
		{0x5C, 4, false},   // adjacent from below, disjoint
		{0x00, 0x10, false}, // far away
	}
	for _, c := range cases {
		if got := s.pioOverlaps(c.addr, c.length); got != c.want {
			t.Errorf("pioOverlaps(0x%x, %d) = %v, want %v", c.addr, c.length, got, c.want)
		}
	}
}

func TestMmioOverlapsDetectsIntersection(t *testing.T) {
	s := NewIoSpace(false)
	s.mmioHead = &MmioHandler{Start: 0x1000, End: 0x2000}

	cases := []struct {
		start, end uint64
		want       bool
	}{
		{0x1000, 0x2000, true},
		{0x1800, 0x2800, true},
		{0x0800, 0x1800, true},
		{0x2000, 0x3000, false},
		{0x0000, 0x1000, false},
	}
	for _, c := range cases {
		if got := s.mmioOverlaps(c.start, c.end); got != c.want {
			t.Errorf("mmioOverlaps(0x%x, 0x%x) = %v, want %v", c.start, c.end, got, c.want)
		}
	}
}
