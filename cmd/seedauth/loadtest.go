package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/seedkit/seedauth"
	"github.com/seedkit/seedauth/credential"
	"github.com/spf13/cobra"
)

type subjectState struct {
	subject string
	access  string
	refresh *seedauth.Token
	mu      sync.Mutex
}

type loadTestOptions struct {
	subjects    int
	concurrency int
	ops         int
}

func newLoadTestCommand(rt *runtime) *cobra.Command {
	var opts loadTestOptions
	cmd := &cobra.Command{
		Use:   "loadtest",
		Short: "Measure authenticate and refresh throughput",
		Args:  cobra.NoArgs,
		RunE: rt.run(func(cmd *cobra.Command, _ []string) error {
			if opts.subjects <= 0 || opts.concurrency <= 0 || opts.ops <= 0 {
				return errors.New("subjects, concurrency, and ops must be > 0")
			}
			engine, err := rt.build(cmd.Context())
			if err != nil {
				return err
			}
			return runLoadTest(cmd.Context(), cmd.OutOrStdout(), engine, opts)
		}),
	}
	cmd.Flags().IntVar(&opts.subjects, "subjects", 10000, "number of subjects to seed")
	cmd.Flags().IntVar(&opts.concurrency, "concurrency", 256, "number of concurrent workers")
	cmd.Flags().IntVar(&opts.ops, "ops", 100000, "operations per phase (authenticate + refresh)")
	return cmd
}

func runLoadTest(ctx context.Context, out io.Writer, engine *seedauth.Engine, opts loadTestOptions) error {
	states := make([]subjectState, opts.subjects)
	fmt.Fprintf(out, "seeding %d subjects...\n", opts.subjects)
	startSeed := time.Now()
	for i := range states {
		subject := fmt.Sprintf("loadtest-%d", i)
		set, err := engine.IssuePair(ctx, subject, map[string]any{"seq": i})
		if err != nil {
			return fmt.Errorf("seed %s: %w", subject, err)
		}
		states[i] = subjectState{subject: subject, access: set.Access.Credential, refresh: set.Refresh}
	}
	fmt.Fprintf(out, "seeded in %s\n", time.Since(startSeed).Round(time.Millisecond))

	authStats := runPhase(opts, func(r *rand.Rand) bool {
		state := &states[r.Intn(len(states))]
		state.mu.Lock()
		req := credential.Request{Authorization: credential.BearerScheme + " " + state.access}
		state.mu.Unlock()

		d, err := engine.Authenticate(ctx, req, seedauth.Route{Required: true})
		return err == nil && d.Outcome == seedauth.Authorized
	})

	refreshStats := runPhase(opts, func(r *rand.Rand) bool {
		state := &states[r.Intn(len(states))]
		state.mu.Lock()
		defer state.mu.Unlock()

		set, err := engine.Refresh(ctx, state.refresh)
		if err != nil {
			return false
		}
		state.access = set.Access.Credential
		if set.Refresh != nil {
			state.refresh = set.Refresh
		}
		return true
	})

	fmt.Fprintln(out, "---- results ----")
	printStats(out, "authenticate", authStats)
	printStats(out, "refresh", refreshStats)
	return nil
}

// runPhase runs opts.ops calls of op across opts.concurrency workers.
func runPhase(opts loadTestOptions, op func(r *rand.Rand) bool) phaseStats {
	var (
		wg        sync.WaitGroup
		cursor    int64
		failures  int64
		latencies = make([]time.Duration, 0, opts.ops)
		mu        sync.Mutex
	)

	start := time.Now()
	for w := 0; w < opts.concurrency; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			r := rand.New(rand.NewSource(time.Now().UnixNano() + int64(worker)*7919))
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= opts.ops {
					return
				}
				t0 := time.Now()
				ok := op(r)
				d := time.Since(t0)
				if !ok {
					atomic.AddInt64(&failures, 1)
				}
				mu.Lock()
				latencies = append(latencies, d)
				mu.Unlock()
			}
		}(w)
	}
	wg.Wait()
	return computeStats(time.Since(start), latencies, failures)
}

type phaseStats struct {
	total    time.Duration
	ops      int
	failures int64
	p50      time.Duration
	p95      time.Duration
	p99      time.Duration
	opsPerS  float64
}

func computeStats(total time.Duration, samples []time.Duration, failures int64) phaseStats {
	if len(samples) == 0 {
		return phaseStats{total: total}
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i] < samples[j] })
	return phaseStats{
		total:    total,
		ops:      len(samples),
		failures: failures,
		p50:      percentile(samples, 50),
		p95:      percentile(samples, 95),
		p99:      percentile(samples, 99),
		opsPerS:  float64(len(samples)) / total.Seconds(),
	}
}

func percentile(samples []time.Duration, p int) time.Duration {
	if len(samples) == 0 {
		return 0
	}
	if p <= 0 {
		return samples[0]
	}
	if p >= 100 {
		return samples[len(samples)-1]
	}
	idx := (len(samples) - 1) * p / 100
	return samples[idx]
}

func printStats(out io.Writer, name string, s phaseStats) {
	fmt.Fprintf(out, "%s: ops=%d failures=%d total=%s ops/sec=%.0f p50=%s p95=%s p99=%s\n",
		name,
		s.ops,
		s.failures,
		s.total.Round(time.Millisecond),
		s.opsPerS,
		s.p50.Round(time.Microsecond),
		s.p95.Round(time.Microsecond),
		s.p99.Round(time.Microsecond),
	)
}
