package filterrules

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/andybalholm/brotli"
)

// domainCharOK reports whether c is in the filter list domain character
// set: [A-Za-z0-9._\-*].
func domainCharOK(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		return true
	case c == '.', c == '_', c == '-', c == '*':
		return true
	default:
		return false
	}
}

func validDomainChars(domain string) bool {
	if domain == "" {
		return false
	}
	for i := 0; i < len(domain); i++ {
		if !domainCharOK(domain[i]) {
			return false
		}
	}
	return true
}

// Parser parses block lists in hosts, plain-domain, or adblock syntax into
// a flat sequence of Rules.
type Parser struct {
	// Timeout bounds ParseURL's HTTP fetch.
	Timeout time.Duration

	// CacheDir, if set, makes ParseURL write each fetched (and already
	// decompressed) body to a file under this directory, named by a
	// stable hash of the descriptor URL, before parsing it.
	CacheDir string
}

// NewParser returns a Parser with a 60-second fetch timeout, matching the
// teacher's default.
func NewParser() *Parser {
	return &Parser{Timeout: 60 * time.Second}
}

// ParseURL fetches a block list over HTTP(S) and parses it. It negotiates
// brotli and gzip compression and transparently decompresses whichever the
// server chooses.
func (p *Parser) ParseURL(url string) ([]Rule, error) {
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	client := &http.Client{Timeout: timeout}

	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("filterrules: building request for %s: %w", url, err)
	}
	req.Header.Set("Accept-Encoding", "br, gzip")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("filterrules: fetching %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("filterrules: fetching %s: http status %s", url, resp.Status)
	}

	body := resp.Body
	var r io.Reader = body
	switch strings.ToLower(resp.Header.Get("Content-Encoding")) {
	case "br":
		r = brotli.NewReader(body)
	case "gzip":
		gz, err := gzip.NewReader(body)
		if err != nil {
			return nil, fmt.Errorf("filterrules: gzip body from %s: %w", url, err)
		}
		defer gz.Close()
		r = gz
	}

	if p.CacheDir == "" {
		return p.Parse(r)
	}

	cached, err := p.cacheBody(url, r)
	if err != nil {
		return nil, err
	}
	return p.Parse(bytes.NewReader(cached))
}

// cacheBody reads r fully, writes it to a file under CacheDir named by a
// stable hash of url, and returns the bytes read.
func (p *Parser) cacheBody(url string, r io.Reader) ([]byte, error) {
	body, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("filterrules: reading body from %s: %w", url, err)
	}

	if err := os.MkdirAll(p.CacheDir, 0o755); err != nil {
		return nil, fmt.Errorf("filterrules: creating cache dir %s: %w", p.CacheDir, err)
	}
	sum := sha256.Sum256([]byte(url))
	name := hex.EncodeToString(sum[:])[:16] + ".list"
	path := filepath.Join(p.CacheDir, name)
	if err := os.WriteFile(path, body, 0o644); err != nil {
		return nil, fmt.Errorf("filterrules: writing cache file %s: %w", path, err)
	}

	return body, nil
}

// Parse reads a block list from r, line by line, producing one Rule per
// recognized line. A single unparseable non-comment, non-blank line
// aborts the whole parse with ErrInvalidFilterList.
func (p *Parser) Parse(r io.Reader) ([]Rule, error) {
	scanner := bufio.NewScanner(r)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1024*1024)

	var rules []Rule
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "!") || strings.HasPrefix(line, "#") {
			continue
		}

		rule, err := parseLine(line)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %s", ErrInvalidFilterList, lineNo, err)
		}
		rules = append(rules, rule)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("filterrules: reading list: %w", err)
	}
	return rules, nil
}

func parseLine(line string) (Rule, error) {
	switch {
	case strings.HasPrefix(line, "||") || strings.HasPrefix(line, "@@"):
		return parseAdblockLine(line)
	default:
		fields := strings.Fields(line)
		if len(fields) >= 2 {
			if ip := net.ParseIP(fields[0]); ip != nil {
				return parseHostsLine(ip, fields[1])
			}
		}
		return parsePlainDomainLine(line)
	}
}

func parseHostsLine(ip net.IP, domain string) (Rule, error) {
	if !validDomainChars(domain) {
		return Rule{}, fmt.Errorf("invalid domain %q", domain)
	}
	rw := &Rewrite{}
	if v4 := ip.To4(); v4 != nil {
		rw.V4 = v4
	} else {
		rw.V6 = ip
	}
	return Rule{Domain: strings.ToLower(domain), Kind: Deny, Rewrite: rw}, nil
}

func parsePlainDomainLine(domain string) (Rule, error) {
	if !validDomainChars(domain) {
		return Rule{}, fmt.Errorf("invalid domain %q", domain)
	}
	return Rule{Domain: strings.ToLower(domain), Kind: Deny}, nil
}

func parseAdblockLine(line string) (Rule, error) {
	kind := Deny
	rest := line
	switch {
	case strings.HasPrefix(rest, "@@||"):
		kind = Allow
		rest = strings.TrimPrefix(rest, "@@||")
	case strings.HasPrefix(rest, "||@@"):
		kind = Allow
		rest = strings.TrimPrefix(rest, "||@@")
	case strings.HasPrefix(rest, "||"):
		rest = strings.TrimPrefix(rest, "||")
	default:
		return Rule{}, fmt.Errorf("unrecognized adblock rule %q", line)
	}

	if idx := strings.IndexAny(rest, "^$"); idx >= 0 {
		rest = rest[:idx]
	}
	if !validDomainChars(rest) {
		return Rule{}, fmt.Errorf("invalid domain %q", rest)
	}
	return Rule{Domain: strings.ToLower(rest), Kind: kind}, nil
}
