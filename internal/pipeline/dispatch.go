package pipeline

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/brunseba/syslog-forwarder/internal/metrics"
	"github.com/brunseba/syslog-forwarder/internal/record"
	"github.com/brunseba/syslog-forwarder/internal/router"
	"github.com/brunseba/syslog-forwarder/internal/syslogparse"
	"github.com/brunseba/syslog-forwarder/internal/transform"
)

// process turns raw ingress bytes into a routed, transformed, forwarded (or
// dropped) record. It runs synchronously on the ingress goroutine that
// received data, so by the time a listener's read loop returns, every
// record it handed off has already completed this path — satisfying the
// shutdown drain requirement (spec §4.7 step 2) without separate queuing.
func (p *Pipeline) process(ctx context.Context, data []byte, protocol string, draining *atomic.Bool) {
	rec, err := syslogparse.Parse(data)
	if err != nil {
		p.metrics.ParseErrors.WithLabelValues(protocol).Inc()
		p.metrics.MessagesDropped.WithLabelValues(string(metrics.DropReasonParseError)).Inc()
		return
	}
	p.metrics.MessagesReceived.WithLabelValues(
		protocol,
		record.FacilityName(rec.Facility),
		record.SeverityName(rec.Severity),
	).Inc()

	start := time.Now()
	decision := p.router.Route(rec)
	p.metrics.ProcessingLatency.WithLabelValues(filterLabel(decision)).Observe(time.Since(start).Seconds())

	if decision.Dropped {
		p.metrics.MessagesDropped.WithLabelValues(string(decision.DropReason)).Inc()
		return
	}

	if err := transformApply(p, rec, decision); err != nil {
		p.logger.Warn("transform failed, forwarding record unmodified", "err", err)
	}

	for _, destName := range decision.Destinations {
		dest, ok := p.destinations[destName]
		if !ok {
			continue // unreachable: build validates destination references
		}
		p.forward(ctx, dest, rec, draining)
	}
}

func filterLabel(d router.Decision) string {
	if d.Dropped {
		return string(d.DropReason)
	}
	if len(d.Transforms) == 0 {
		return "none"
	}
	return d.Transforms[len(d.Transforms)-1]
}

func transformApply(p *Pipeline, rec *record.Record, decision router.Decision) error {
	if len(decision.Transforms) == 0 {
		return nil
	}
	return transform.ApplyNamed(rec, decision.Transforms, p.transformRegistry)
}

func (p *Pipeline) forward(ctx context.Context, dest *destination, rec *record.Record, draining *atomic.Bool) {
	wire := record.Serialize(rec, dest.format)

	var err error
	switch {
	case dest.udp != nil:
		err = dest.udp.Send(wire)
	case draining != nil && draining.Load():
		err = dest.tcp.SendOnce(wire)
	default:
		err = dest.tcp.Send(ctx, wire)
	}

	if err != nil {
		p.metrics.MessagesDropped.WithLabelValues(string(metrics.DropReasonSendFailed)).Inc()
		return
	}
	p.metrics.MessagesForwarded.WithLabelValues(dest.name).Inc()
}
