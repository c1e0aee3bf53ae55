package webhooks

import (
	"errors"
	"net"
	"testing"
)

func TestTargetValidator_LiteralIPs(t *testing.T) {
	v := NewTargetValidator(false)

	tests := []struct {
		name string
		url  string
		ok   bool
	}{
		{"Loopback", "http://127.0.0.1/hook", false},
		{"Loopback high", "http://127.8.8.8/hook", false},
		{"Private 10", "http://10.0.0.5/hook", false},
		{"Private 172", "https://172.16.0.1/hook", false},
		{"Private 172 upper bound", "https://172.31.255.255/hook", false},
		{"Private 192.168", "http://192.168.1.1:8080/hook", false},
		{"Link local", "http://169.254.169.254/latest/meta-data", false},
		{"Zero net", "http://0.0.0.0/hook", false},
		{"IPv6 loopback", "http://[::1]/hook", false},
		{"IPv6 unique local", "http://[fc00::1]/hook", false},
		{"IPv6 link local", "http://[fe80::1]/hook", false},
		{"Public IPv4", "https://93.184.216.34/hook", true},
		{"Public-adjacent 172", "http://172.32.0.1/hook", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := v.Validate(tt.url); got != tt.ok {
				t.Errorf("Validate(%s) = %v, want %v", tt.url, got, tt.ok)
			}
		})
	}
}

func TestTargetValidator_ResolvedHost(t *testing.T) {
	lookup := func(host string) ([]net.IP, error) {
		switch host {
		case "internal.example.com":
			return []net.IP{net.ParseIP("93.184.216.34"), net.ParseIP("10.0.0.5")}, nil
		case "public.example.com":
			return []net.IP{net.ParseIP("93.184.216.34")}, nil
		default:
			return nil, errors.New("no such host")
		}
	}
	v := NewTargetValidatorWithLookup(false, lookup)

	// Any resolved address in a blocked range rejects the target.
	if v.Validate("https://internal.example.com/hook") {
		t.Error("Expected rejection when any resolved IP is private")
	}
	if !v.Validate("https://public.example.com/hook") {
		t.Error("Expected public host to pass")
	}
	// DNS failure means no addresses found, which is not evidence of risk.
	if !v.Validate("https://no-such-host.example.com/hook") {
		t.Error("Expected unresolvable host to pass")
	}
}

func TestTargetValidator_AllowPrivateOverride(t *testing.T) {
	v := NewTargetValidator(true)

	if !v.Validate("http://127.0.0.1/hook") {
		t.Error("Expected override to allow loopback targets")
	}
	if !v.Validate("http://10.0.0.5/hook") {
		t.Error("Expected override to allow private targets")
	}
}

func TestTargetValidator_UnparsableHost(t *testing.T) {
	v := NewTargetValidatorWithLookup(false, func(host string) ([]net.IP, error) {
		return nil, errors.New("no such host")
	})

	// No host means no resolvable addresses: pass, and let the HTTP layer
	// fail on its own.
	if !v.Validate("not a url") {
		t.Error("Expected unparsable URL to pass target validation")
	}
}
