package server

import (
	"fmt"
	"net"
	"net/netip"

	"github.com/yl2chen/cidranger"
)

// AccessList admits clients whose address falls inside one of its networks.
// A nil AccessList admits everyone.
type AccessList struct {
	ranger cidranger.Ranger
}

// NewAccessList builds an access list from CIDR strings. An empty list
// returns nil so that every client is admitted.
func NewAccessList(cidrs []string) (*AccessList, error) {
	if len(cidrs) == 0 {
		return nil, nil
	}
	a := &AccessList{ranger: cidranger.NewPCTrieRanger()}
	for _, cidr := range cidrs {
		_, ipnet, err := net.ParseCIDR(cidr)
		if err != nil {
			return nil, fmt.Errorf("access list: %w", err)
		}
		if err := a.ranger.Insert(cidranger.NewBasicRangerEntry(*ipnet)); err != nil {
			return nil, fmt.Errorf("access list %s: %w", cidr, err)
		}
	}
	return a, nil
}

// Allowed reports whether ip may be answered.
func (a *AccessList) Allowed(ip netip.Addr) bool {
	if a == nil {
		return true
	}
	ok, err := a.ranger.Contains(net.IP(ip.Unmap().AsSlice()))
	return err == nil && ok
}
