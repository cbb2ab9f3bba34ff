package filterrules

import "net"

// Kind is a filter rule's decision.
type Kind int

const (
	// Allow lets the query proceed to forwarding unfiltered.
	Allow Kind = iota
	// Deny blocks the query, optionally rewriting the answer instead of
	// refusing outright.
	Deny
)

// String returns "allow" or "deny".
func (k Kind) String() string {
	if k == Allow {
		return "allow"
	}
	return "deny"
}

// Rewrite holds the address(es) a Deny rule substitutes for the real
// answer. A rule may carry both families at once (e.g. a hosts file
// contributing a v4 line and a v6 line for the same domain, merged on
// insert).
type Rewrite struct {
	V4 net.IP
	V6 net.IP
}

// Rule is one filter decision attached to a domain suffix in the trie.
type Rule struct {
	Domain  string
	Kind    Kind
	Rewrite *Rewrite
}
