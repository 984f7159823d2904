package netguard

import (
	"net/netip"
	"testing"
)

func TestIsPrivate(t *testing.T) {
	tests := []struct {
		addr    string
		private bool
	}{
		{"127.0.0.1", true},
		{"10.1.2.3", true},
		{"172.16.0.1", true},
		{"192.168.1.1", true},
		{"169.254.1.1", true},
		{"100.64.0.1", true},
		{"0.0.0.0", true},
		{"198.18.0.1", true},
		{"224.0.0.1", true},
		{"255.255.255.255", true},
		{"::1", true},
		{"fe80::1", true},
		{"fc00::1", true},
		{"::ffff:192.168.1.1", true},
		{"8.8.8.8", false},
		{"1.1.1.1", false},
		{"93.184.216.34", false},
		{"2606:4700::1111", false},
	}
	for _, tt := range tests {
		t.Run(tt.addr, func(t *testing.T) {
			got := IsPrivate(netip.MustParseAddr(tt.addr))
			if got != tt.private {
				t.Fatalf("IsPrivate(%s) = %v, want %v", tt.addr, got, tt.private)
			}
		})
	}
}

func TestDialControl(t *testing.T) {
	if err := DialControl("tcp", "127.0.0.1:80", nil); err == nil {
		t.Fatal("expected loopback dial to be blocked")
	}
	if err := DialControl("tcp", "8.8.8.8:443", nil); err != nil {
		t.Fatalf("expected public dial to pass, got %v", err)
	}
	if err := DialControl("tcp", "not-an-address", nil); err == nil {
		t.Fatal("expected malformed address to be blocked")
	}
}

func TestMaybeDialControl(t *testing.T) {
	if MaybeDialControl(true) != nil {
		t.Fatal("expected nil control when private targets are allowed")
	}
	if MaybeDialControl(false) == nil {
		t.Fatal("expected control when private targets are blocked")
	}
}
