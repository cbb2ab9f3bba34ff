package filterrules

import (
	"strings"
	"sync"

	"github.com/resolvd/resolvd/internal/wire"
)

// Trie is a reversed-label trie mapping domain suffixes to filter Rules.
// Children are keyed by label, walked from TLD inward ("a.b.c" ->
// ["c","b","a"]), so a rule installed at a suffix applies to every
// descendant domain. Safe for concurrent readers; writers exclude each
// other and readers.
type Trie struct {
	mu   sync.RWMutex
	root *trieNode
}

type trieNode struct {
	children map[string]*trieNode
	rule     *Rule
}

func newTrieNode() *trieNode {
	return &trieNode{children: make(map[string]*trieNode, 4)}
}

// NewTrie returns an empty Trie.
func NewTrie() *Trie {
	return &Trie{root: newTrieNode()}
}

// Insert walks the trie along rule.Domain's labels in reverse, creating
// nodes as needed. If the terminal node carries no rule yet, the new rule
// is placed. If it already carries one and both rules have a Rewrite, the
// v4/v6 addresses are merged (a rule can accumulate both families);
// otherwise the existing rule is preserved.
func (t *Trie) Insert(rule Rule) {
	t.mu.Lock()
	defer t.mu.Unlock()

	node := t.root
	for _, label := range reversedLabels(rule.Domain) {
		child, ok := node.children[label]
		if !ok {
			child = newTrieNode()
			node.children[label] = child
		}
		node = child
	}

	if node.rule == nil {
		r := rule
		node.rule = &r
		return
	}

	if node.rule.Rewrite != nil && rule.Rewrite != nil {
		merged := *node.rule.Rewrite
		if rule.Rewrite.V4 != nil {
			merged.V4 = rule.Rewrite.V4
		}
		if rule.Rewrite.V6 != nil {
			merged.V6 = rule.Rewrite.V6
		}
		node.rule.Rewrite = &merged
	}
}

// Lookup walks qname's labels in reverse, returning the last rule seen on
// the path: the rule at the terminal node if the full walk succeeds, or
// the nearest matched ancestor's rule if it doesn't. This gives
// "nearest-ancestor-suffix wins" semantics — a rule installed at
// "com -> google" applies to "ads.google.com" even with no node for "ads".
func (t *Trie) Lookup(qname string) *Rule {
	t.mu.RLock()
	defer t.mu.RUnlock()

	node := t.root
	var last *Rule
	for _, label := range reversedLabels(qname) {
		child, ok := node.children[label]
		if !ok {
			break
		}
		node = child
		if node.rule != nil {
			last = node.rule
		}
	}
	return last
}

// Merge destructively merges other into t. Unlike Insert, at an equal
// terminal node the incoming (other's) rule wins outright.
func (t *Trie) Merge(other *Trie) {
	if other == nil {
		return
	}
	other.mu.RLock()
	defer other.mu.RUnlock()
	t.mu.Lock()
	defer t.mu.Unlock()

	mergeNode(t.root, other.root)
}

func mergeNode(dst, src *trieNode) {
	if src.rule != nil {
		r := *src.rule
		dst.rule = &r
	}
	for label, srcChild := range src.children {
		dstChild, ok := dst.children[label]
		if !ok {
			dstChild = newTrieNode()
			dst.children[label] = dstChild
		}
		mergeNode(dstChild, srcChild)
	}
}

// ReplaceWith atomically swaps t's contents for other's, discarding
// everything t held before. Used for periodic filter-list refresh, where
// the pipeline keeps holding the same *Trie across a reload instead of
// reassigning the field (which a concurrently running query could read
// mid-assignment).
func (t *Trie) ReplaceWith(other *Trie) {
	if other == nil {
		return
	}
	other.mu.RLock()
	root := other.root
	other.mu.RUnlock()

	t.mu.Lock()
	t.root = root
	t.mu.Unlock()
}

func normalizeDomain(domain string) string {
	return strings.TrimSuffix(strings.ToLower(strings.TrimSpace(domain)), ".")
}

func reversedLabels(domain string) []string {
	domain = normalizeDomain(domain)
	if domain == "" {
		return nil
	}
	labels := strings.Split(domain, ".")
	for i, j := 0, len(labels)-1; i < j; i, j = i+1, j-1 {
		labels[i], labels[j] = labels[j], labels[i]
	}
	return labels
}

// defaultRewriteTTL is used for synthesized Deny+Rewrite answers.
const defaultRewriteTTL = 300

// Apply applies rule to resp, the pipeline's current working response
// packet (either a bare echo of the request, when no forwarding occurred,
// or the upstream's answer, when the rewrite case forwarded first):
//
//   - Allow: resp is returned unmodified.
//   - Deny without a rewrite: rescode becomes NXDOMAIN and answers are
//     cleared, discarding anything upstream may have supplied.
//   - Deny with a rewrite: if the question type is A or AAAA and the
//     rule carries a matching address family, resp's answers are replaced
//     with a single synthesized record (TTL 300s) and rescode is
//     NOERROR. Otherwise resp is returned unmodified — the rewrite
//     doesn't apply to this question type, so the upstream's own answer
//     (obtained by forwarding) stands.
func Apply(rule *Rule, resp wire.Packet) wire.Packet {
	if rule == nil || rule.Kind == Allow {
		return resp
	}

	if rule.Rewrite == nil {
		resp.Header.ResultCode = wire.NXDOMAIN
		resp.Answers = nil
		return resp
	}

	if len(resp.Questions) == 0 {
		return resp
	}
	q := resp.Questions[0]

	var answer *wire.Record
	switch q.Type {
	case wire.TypeA:
		if rule.Rewrite.V4 != nil {
			answer = &wire.Record{Domain: q.Name, Type: wire.TypeA, Class: wire.ClassIN, TTL: defaultRewriteTTL, Data: []byte(rule.Rewrite.V4.To4())}
		}
	case wire.TypeAAAA:
		if rule.Rewrite.V6 != nil {
			answer = &wire.Record{Domain: q.Name, Type: wire.TypeAAAA, Class: wire.ClassIN, TTL: defaultRewriteTTL, Data: []byte(rule.Rewrite.V6.To16())}
		}
	}

	if answer == nil {
		return resp
	}
	resp.Header.ResultCode = wire.NOERROR
	resp.Answers = []wire.Record{*answer}
	return resp
}
