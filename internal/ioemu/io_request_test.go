package ioemu

import (
	"errors"
	"testing"
)

func TestIoRequestMask(t *testing.T) {
	cases := []struct {
		size uint8
		want uint64
	}{
		{1, 0xFF},
		{2, 0xFFFF},
		{4, 0xFFFFFFFF},
		{8, 0xFFFFFFFFFFFFFFFF},
	}
	for _, c := range cases {
		req := &IoRequest{Size: c.size}
		if got := req.Mask(); got != c.want {
			t.Errorf("Mask() for size %d = 0x%x, want 0x%x", c.size, got, c.want)
		}
	}
}

func TestIoRequestValidate(t *testing.T) {
	cases := []struct {
		name    string
		req     IoRequest
		wantErr error
	}{
		{"invalid kind", IoRequest{Kind: KindInvalid, Size: 1}, ErrInvalid},
		{"pio size 1 ok", IoRequest{Kind: KindPortIO, Size: 1}, nil},
		{"pio size 2 ok", IoRequest{Kind: KindPortIO, Size: 2}, nil},
		{"pio size 4 ok", IoRequest{Kind: KindPortIO, Size: 4}, nil},
		{"pio size 8 rejected", IoRequest{Kind: KindPortIO, Size: 8}, ErrInvalid},
		{"pio size 3 rejected", IoRequest{Kind: KindPortIO, Size: 3}, ErrInvalid},
		{"mmio size 8 ok", IoRequest{Kind: KindMMIO, Size: 8}, nil},
		{"pciconfig shares pio sizes", IoRequest{Kind: KindPciConfig, Size: 4}, nil},
		{"writeprotect shares mmio sizes", IoRequest{Kind: KindWriteProtect, Size: 8}, nil},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			err := c.req.validate()
			if c.wantErr == nil && err != nil {
				t.Fatalf("validate() error = %v, want nil", err)
			}
			if c.wantErr != nil && !errors.Is(err, c.wantErr) {
				t.Fatalf("validate() error = %v, want %v", err, c.wantErr)
			}
		})
	}
}

func TestKindString(t *testing.T) {
	cases := map[Kind]string{
		KindPortIO:       "port-io",
		KindMMIO:         "mmio",
		KindPciConfig:    "pci-config",
		KindWriteProtect: "write-protect",
		KindInvalid:      "invalid",
	}
	for kind, want := range cases {
		if got := kind.String(); got != want {
			t.Errorf("Kind(%d).String() = %q, want %q", kind, got, want)
		}
	}
}

func TestDispositionString(t *testing.T) {
	if DispositionOK.String() != "ok" {
		t.Errorf("DispositionOK.String() = %q, want ok", DispositionOK.String())
	}
	if DispositionPending.String() != "pending" {
		t.Errorf("DispositionPending.String() = %q, want pending", DispositionPending.String())
	}
}
