// Package trial orchestrates repeated headless simulation runs and
// aggregates their emergent metrics.
package trial

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/petrilab/petri/config"
	"github.com/petrilab/petri/sim"
)

const (
	// DefaultDuration is the simulated time per trial when unset.
	DefaultDuration = 30 * time.Second

	// yieldEvery is the tick cadence between context checks inside a
	// running trial.
	yieldEvery = 256
)

// Options configure trial runs. The zero value runs one unrecorded
// trial of DefaultDuration with seed 0.
type Options struct {
	Duration    time.Duration // simulated time per trial
	Seed        int64         // base seed; batch trial i runs with Seed+i
	Record      bool          // keep population frames on the result
	RecordEvery int           // ticks between frames (0 = engine default)
	Workers     int           // batch concurrency; <= 1 runs sequentially

	// Progress, when set, is called after each batch trial completes.
	Progress func(done, total int, last Result)
}

func (o Options) duration() time.Duration {
	if o.Duration <= 0 {
		return DefaultDuration
	}
	return o.Duration
}

// RunSingle executes one trial to completion and returns its result.
// The tick budget is the trial duration at the scenario's tick rate;
// cancellation is checked on a fixed tick cadence.
func RunSingle(ctx context.Context, cfg *config.Config, opts Options) (Result, error) {
	eng, err := sim.New(sim.Options{
		Config:      cfg,
		Seed:        opts.Seed,
		Record:      opts.Record,
		RecordEvery: opts.RecordEvery,
	})
	if err != nil {
		return Result{}, fmt.Errorf("building engine: %w", err)
	}

	ticks := int32(opts.duration().Seconds() * cfg.Physics.TickRate)
	started := time.Now()

	eng.Start()
	for t := int32(0); t < ticks; t++ {
		if t%yieldEvery == 0 {
			if err := ctx.Err(); err != nil {
				return Result{}, err
			}
		}
		eng.Tick()
	}
	eng.Pause()

	r := Result{
		ID:              uuid.NewString(),
		Scenario:        cfg.Name,
		Species:         soleSpeciesID(cfg),
		Seed:            opts.Seed,
		StartedAt:       started,
		Elapsed:         time.Since(started),
		Ticks:           eng.CurrentTick(),
		FinalPopulation: eng.AgentCount(),
		StateCounts:     eng.StateCounts(),
		Metrics:         eng.Metrics(),
	}
	if opts.Record {
		r.Frames = eng.Frames()
	}

	slog.Info("trial_complete",
		"trial", r.ID,
		"scenario", r.Scenario,
		"seed", r.Seed,
		"ticks", r.Ticks,
		"population", r.FinalPopulation,
		"metrics", r.Metrics,
	)

	return r, nil
}

// RunBatch executes n independent trials of the same scenario, seeding
// trial i with opts.Seed+i. It returns exactly n results on success.
// With Workers > 1 the trials run on a bounded worker pool; results
// keep their trial order either way.
func RunBatch(ctx context.Context, cfg *config.Config, n int, opts Options) ([]Result, error) {
	if n <= 0 {
		return nil, nil
	}

	results := make([]Result, n)

	if opts.Workers <= 1 {
		for i := 0; i < n; i++ {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			r, err := runAt(ctx, cfg, opts, i)
			if err != nil {
				return nil, err
			}
			results[i] = r
			if opts.Progress != nil {
				opts.Progress(i+1, n, r)
			}
		}
		return results, nil
	}

	workers := opts.Workers
	if workers > n {
		workers = n
	}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		done     int
		firstErr error
	)
	jobs := make(chan int)

	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for i := range jobs {
				r, err := runAt(ctx, cfg, opts, i)

				mu.Lock()
				if err != nil {
					if firstErr == nil {
						firstErr = err
					}
					mu.Unlock()
					continue
				}
				results[i] = r
				done++
				if opts.Progress != nil {
					opts.Progress(done, n, r)
				}
				mu.Unlock()
			}
		}()
	}

	for i := 0; i < n; i++ {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	return results, nil
}

func runAt(ctx context.Context, cfg *config.Config, opts Options, i int) (Result, error) {
	trialOpts := opts
	trialOpts.Seed = opts.Seed + int64(i)
	r, err := RunSingle(ctx, cfg, trialOpts)
	if err != nil {
		return Result{}, fmt.Errorf("trial %d: %w", i, err)
	}
	return r, nil
}

// soleSpeciesID tags single-species scenarios so analyses can filter by
// species. Mixed scenarios stay untagged.
func soleSpeciesID(cfg *config.Config) string {
	if len(cfg.Species) == 1 {
		return cfg.Species[0].ID
	}
	return ""
}
