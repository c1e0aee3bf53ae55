package webhooks

import (
	"net"
	"net/url"
)

// blockedRanges are address ranges an endpoint URL must not resolve to:
// loopback, RFC1918, link-local, and their IPv6 equivalents.
var blockedRanges = mustParseCIDRs(
	"127.0.0.0/8",
	"10.0.0.0/8",
	"172.16.0.0/12",
	"192.168.0.0/16",
	"169.254.0.0/16",
	"0.0.0.0/8",
	"::1/128",
	"fc00::/7",
	"fe80::/10",
)

func mustParseCIDRs(cidrs ...string) []*net.IPNet {
	nets := make([]*net.IPNet, 0, len(cidrs))
	for _, c := range cidrs {
		_, n, err := net.ParseCIDR(c)
		if err != nil {
			panic(err)
		}
		nets = append(nets, n)
	}
	return nets
}

// TargetValidator rejects endpoint URLs that resolve to private or loopback
// addresses. It runs at registration and update time only; targets are not
// re-resolved at dispatch time.
type TargetValidator struct {
	allowPrivate bool
	lookup       func(host string) ([]net.IP, error)
}

// NewTargetValidator builds a validator. allowPrivate disables all rejection
// and exists for local development; the flag is threaded from config rather
// than read from ambient state so tests can vary it per case.
func NewTargetValidator(allowPrivate bool) *TargetValidator {
	return &TargetValidator{
		allowPrivate: allowPrivate,
		lookup:       net.LookupIP,
	}
}

// NewTargetValidatorWithLookup injects a resolver. Used in tests to avoid
// real DNS.
func NewTargetValidatorWithLookup(allowPrivate bool, lookup func(host string) ([]net.IP, error)) *TargetValidator {
	return &TargetValidator{allowPrivate: allowPrivate, lookup: lookup}
}

// Validate reports whether rawURL is an acceptable delivery target.
// A host that fails to parse or resolve yields no addresses and passes: the
// later HTTP attempt fails on its own there. This also means a DNS failure is
// tolerated rather than blocked, so the check is not a defense against DNS
// rebinding.
func (v *TargetValidator) Validate(rawURL string) bool {
	if v.allowPrivate {
		return true
	}

	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return true
	}
	host := u.Hostname()

	var ips []net.IP
	if ip := net.ParseIP(host); ip != nil {
		ips = []net.IP{ip}
	} else {
		resolved, err := v.lookup(host)
		if err != nil {
			// no addresses found, no evidence of risk
			return true
		}
		ips = resolved
	}

	for _, ip := range ips {
		for _, blocked := range blockedRanges {
			if blocked.Contains(ip) {
				return false
			}
		}
	}
	return true
}
