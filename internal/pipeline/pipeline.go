// Package pipeline runs one decoded DNS request through cache lookup,
// filter evaluation, optional upstream forwarding, response encoding,
// and statistics recording. Grounded on the teacher's
// internal/server.QueryHandler (parse/resolve/log/respond staging,
// SERVFAIL-on-failure fallback), generalized from the teacher's
// resolver-chain model to this repo's cache+filter+forwarder trio and
// its own cache-insert/filter-apply ordering.
package pipeline

import (
	"errors"
	"log/slog"
	"net"
	"time"

	"github.com/resolvd/resolvd/internal/cache"
	"github.com/resolvd/resolvd/internal/filterrules"
	"github.com/resolvd/resolvd/internal/forwarder"
	"github.com/resolvd/resolvd/internal/stats"
	"github.com/resolvd/resolvd/internal/wire"
)

// Responder writes one response packet back to whoever asked for it.
// UDP and TCP listeners supply distinct implementations: a UDP
// responder writes the raw packet to a shared socket plus a client
// address, a TCP responder prepends the 2-byte length prefix (RFC 1035
// §4.2.2) and writes to its own connection.
type Responder interface {
	WriteResponse(packet []byte) error
}

// Pipeline wires together the stages one request passes through.
type Pipeline struct {
	Cache     *cache.Cache
	Filters   *filterrules.Trie
	Forwarder *forwarder.Forwarder
	Stats     *stats.Sink
	Logger    *slog.Logger
}

// Handle runs req to completion and writes exactly one response via
// resp, except when the upstream forward times out (spec.md §4.6/§7:
// the client's own resolver is expected to retry, so a timed-out
// request is dropped without a response, though its statistics are still
// recorded). useResizable selects whether the response is encoded into
// the fixed 512-byte buffer or the growable one; the listener decides
// this from the request itself (TCP, or UDP carrying an OPT record or
// more than 512 bytes, vs. classic UDP).
func (p *Pipeline) Handle(client net.IP, req wire.Packet, useResizable bool, resp Responder) {
	start := time.Now()

	if len(req.Questions) == 0 {
		working := formerrPacket(req)
		p.writeResponse(req, working, useResizable, resp)
		p.recordStats(client, req, working, "", false, start)
		return
	}
	q := req.Questions[0]

	working := req
	working.Header.Response = true
	working.Header.ResultCode = wire.NOERROR

	cached := false
	if cachedResp, ok := p.Cache.Get(q.Name, q.Type); ok {
		cached = true
		working = cachedResp
	}

	// Cache entries are never stored for a request a rule matched (see
	// Insert below), so a cache hit implies no filter applies here.
	var rule *filterrules.Rule
	ruleName := ""
	if !cached {
		rule = p.Filters.Lookup(q.Name)
		if rule != nil {
			ruleName = rule.Kind.String()
			working = filterrules.Apply(rule, working)
		}
	}

	shouldForward := !cached && (rule == nil || rule.Kind == filterrules.Allow || rule.Rewrite != nil)
	if shouldForward {
		fwdResp, err := p.Forwarder.Forward(req)
		switch {
		case errors.Is(err, forwarder.ErrTimeout):
			p.recordStats(client, req, working, ruleName, cached, start)
			return
		case err != nil:
			p.logf("upstream forward failed, responding SERVFAIL", "qname", q.Name, "err", err)
			working = servfailPacket(req)
		default:
			fwdResp.Header.ID = req.Header.ID
			if rule != nil {
				fwdResp = filterrules.Apply(rule, fwdResp)
			}
			working = fwdResp
			if rule == nil && working.Header.ResultCode != wire.SERVFAIL {
				p.Cache.Insert(working)
			}
		}
	}

	working.Header.ID = req.Header.ID
	p.writeResponse(req, working, useResizable, resp)
	p.recordStats(client, req, working, ruleName, cached, start)
}

// writeResponse encodes working and writes it via resp. If encoding
// fails (e.g. an answer too large for the fixed buffer), it falls back
// to encoding a minimal SERVFAIL carrying req's id and question. If
// even the write itself fails, it retries once with that same SERVFAIL
// fallback before giving up and logging (spec.md §4.7 step 7).
func (p *Pipeline) writeResponse(req, working wire.Packet, useResizable bool, resp Responder) {
	buf, err := encode(working, useResizable)
	if err != nil {
		p.logf("encode failed, falling back to SERVFAIL", "err", err)
		buf, err = encode(servfailPacket(req), useResizable)
		if err != nil {
			p.logf("SERVFAIL fallback encode also failed, dropping", "err", err)
			return
		}
	}

	if err := resp.WriteResponse(buf); err != nil {
		p.logf("write failed, retrying with SERVFAIL", "err", err)
		fallback, encErr := encode(servfailPacket(req), useResizable)
		if encErr != nil {
			return
		}
		if err := resp.WriteResponse(fallback); err != nil {
			p.logf("SERVFAIL retry write also failed, dropping", "err", err)
		}
	}
}

func encode(p wire.Packet, useResizable bool) ([]byte, error) {
	if useResizable {
		return p.EncodeResizable()
	}
	return p.Encode()
}

func (p *Pipeline) recordStats(client net.IP, req, working wire.Packet, ruleName string, cached bool, start time.Time) {
	if p.Stats == nil {
		return
	}
	qname, qtype := "", ""
	if len(req.Questions) > 0 {
		qname = req.Questions[0].Name
		qtype = req.Questions[0].Type.String()
	}
	p.Stats.RecordPipelineResult(stats.Request{
		Client:    client,
		Question:  qname,
		QType:     qtype,
		Answers:   len(working.Answers),
		Rule:      ruleName,
		Status:    working.Header.ResultCode.String(),
		ElapsedNs: time.Since(start).Nanoseconds(),
		Cached:    cached,
		Timestamp: time.Now(),
	})
}

func (p *Pipeline) logf(msg string, args ...any) {
	if p.Logger != nil {
		p.Logger.Warn(msg, args...)
	}
}

func formerrPacket(req wire.Packet) wire.Packet {
	h := req.Header
	h.Response = true
	h.ResultCode = wire.FORMERR
	return wire.Packet{Header: h}
}

func servfailPacket(req wire.Packet) wire.Packet {
	h := req.Header
	h.Response = true
	h.ResultCode = wire.SERVFAIL
	return wire.Packet{Header: h, Questions: req.Questions}
}
