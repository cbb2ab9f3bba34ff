// Package filterrules parses hosts/plain-domain/adblock style block lists
// into filter rules, and holds them in a reversed-label trie supporting
// nearest-ancestor-suffix lookup.
//
// Error Handling: errors are wrapped with fmt.Errorf("...: %w", err) so
// callers can match sentinels with errors.Is.
package filterrules

import "errors"

// ErrInvalidFilterList is returned when a filter list contains a line that
// cannot be parsed under any of the three recognized syntaxes. The parser
// is strict: one bad line rejects the whole batch.
var ErrInvalidFilterList = errors.New("filterrules: invalid filter list")
