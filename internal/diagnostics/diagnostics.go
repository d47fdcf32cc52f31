package diagnostics

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"movne-gateway/internal/config"
	"movne-gateway/internal/types"
)

// Probe is one point-in-time reachability check. Requires names an earlier
// probe that must have passed for this one to be meaningful.
type Probe struct {
	Name     string
	Requires string
	// Failure is the display text for this probe failing. It also prefixes
	// the raw error kept in the probe result.
	Failure string
	Check   func(ctx context.Context) error
}

// Prober issues a GET against a backend path; *backend.Client satisfies it.
type Prober interface {
	Probe(ctx context.Context, path string) error
}

// BackendProbes returns the dependency-first pair: backend liveness, then the
// backend's own model provider.
func BackendProbes(p Prober, provider string, msgs config.Messages) []Probe {
	return []Probe{
		{
			Name:    "backend",
			Failure: msgs.BackendDown,
			Check:   func(ctx context.Context) error { return p.Probe(ctx, "/health") },
		},
		{
			Name:     provider,
			Requires: "backend",
			Failure:  msgs.ProviderDown,
			Check:    func(ctx context.Context) error { return p.Probe(ctx, "/test-"+provider) },
		},
	}
}

// Orchestrator runs probes in order and aggregates them. It holds no state
// between runs.
type Orchestrator struct {
	probes   []Probe
	timeout  time.Duration
	messages config.Messages
}

func NewOrchestrator(probes []Probe, timeout time.Duration, msgs config.Messages) *Orchestrator {
	return &Orchestrator{probes: probes, timeout: timeout, messages: msgs}
}

// CheckSystem runs every probe once and never fails: a probe error, panic or
// unmet requirement becomes an ok:false result.
func (o *Orchestrator) CheckSystem(ctx context.Context) types.SystemStatus {
	status := types.SystemStatus{
		OK:        true,
		CheckedAt: time.Now().UTC(),
		Probes:    make([]types.HealthProbeResult, 0, len(o.probes)),
	}
	passed := make(map[string]bool, len(o.probes))

	for _, p := range o.probes {
		var res types.HealthProbeResult
		if p.Requires != "" && !passed[p.Requires] {
			res = types.HealthProbeResult{
				Name:    p.Name,
				Skipped: true,
				Error:   fmt.Sprintf("skipped: %s is not healthy", p.Requires),
			}
		} else {
			res = o.run(ctx, p)
		}
		passed[p.Name] = res.OK
		status.OK = status.OK && res.OK
		status.Probes = append(status.Probes, res)
	}

	status.Message = o.messages.SystemOK
	if !status.OK {
		status.Message = o.messages.SystemError
		for i, r := range status.Probes {
			if !r.OK {
				status.Message = fmt.Sprintf("%s: %s", o.messages.SystemError, display(o.probes[i], r))
				break
			}
		}
	}
	log.Info().Bool("ok", status.OK).Int("probes", len(status.Probes)).Msg("system check finished")
	return status
}

func (o *Orchestrator) run(ctx context.Context, p Probe) (res types.HealthProbeResult) {
	res.Name = p.Name
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	start := time.Now()
	defer func() {
		res.LatencyMs = time.Since(start).Milliseconds()
		if r := recover(); r != nil {
			log.Error().Str("probe", p.Name).Interface("panic", r).Msg("probe panicked")
			res.OK = false
			res.Error = failure(p, errors.Errorf("panic: %v", r))
		}
	}()

	if p.Check == nil {
		res.Error = failure(p, errors.New("no check configured"))
		return res
	}
	if err := p.Check(ctx); err != nil {
		log.Warn().Str("probe", p.Name).Err(err).Msg("probe failed")
		res.Error = failure(p, err)
		return res
	}
	res.OK = true
	return res
}

func failure(p Probe, err error) string {
	if p.Failure == "" {
		return err.Error()
	}
	return fmt.Sprintf("%s (%v)", p.Failure, err)
}

// display is the user-facing text for a failed probe. Raw errors stay in the
// probe result since they can carry backend bodies.
func display(p Probe, r types.HealthProbeResult) string {
	switch {
	case p.Failure != "":
		return p.Failure
	case r.Skipped:
		return r.Error
	default:
		return p.Name + " is not healthy"
	}
}
