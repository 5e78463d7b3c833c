// Package batch runs a perturbation job over many MIDI files. Files are the
// only unit of parallelism: each one gets its own Score and its own random
// stream, so a failing or slow file never affects another.
package batch

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bep/debounce"
	"github.com/dustin/go-humanize"
	"github.com/hako/durafmt"
	"github.com/jsphweid/perturbdex/config"
	"github.com/jsphweid/perturbdex/constants"
	"github.com/jsphweid/perturbdex/dist"
	"github.com/jsphweid/perturbdex/midi"
	"github.com/jsphweid/perturbdex/model"
	"github.com/jsphweid/perturbdex/pipeline"
	"github.com/pkg/errors"
	"github.com/remeh/sizedwaitgroup"
	"gopkg.in/yaml.v2"
)

var ErrTimeout = errors.New("file timed out")

// Job perturbs one score in place. It should give up once ctx is done.
type Job func(ctx context.Context, p *pipeline.Perturber, score *model.Score) (model.Report, error)

type Summary struct {
	Processed int
	Skipped   int
	Notes     int
	Elapsed   time.Duration
	Failures  map[string]error
}

func (s Summary) String() string {
	return humanize.Comma(int64(s.Processed)) + " files (" + humanize.Comma(int64(s.Notes)) + " notes) in " +
		durafmt.Parse(s.Elapsed).LimitFirstN(2).String() + ", " + humanize.Comma(int64(s.Skipped)) + " skipped"
}

type Runner struct {
	cfg    config.Config
	outDir string
	log    *slog.Logger

	// Stream keeps passes that share a seed on different random streams.
	Stream dist.Stream

	// ReadScore and WriteScore default to the midi package; tests swap them.
	ReadScore  func(path string) (*model.Score, error)
	WriteScore func(path string, score *model.Score) error
}

func NewRunner(cfg config.Config, outDir string, log *slog.Logger) *Runner {
	return &Runner{
		cfg:        cfg,
		outDir:     outDir,
		log:        log,
		ReadScore:  midi.ReadMidiFile,
		WriteScore: midi.WriteMidiFile,
	}
}

func (r *Runner) workers() int {
	if r.cfg.Workers > 0 {
		return r.cfg.Workers
	}
	return runtime.NumCPU()
}

type result struct {
	score  *model.Score
	report model.Report
	err    error
}

func (r *Runner) processFile(ctx context.Context, idx int, path string, job Job) (int, error) {
	if r.cfg.FileTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.cfg.FileTimeout)
		defer cancel()
	}

	done := make(chan result, 1)
	go func() {
		score, err := r.ReadScore(path)
		if err != nil {
			done <- result{err: err}
			return
		}
		p := pipeline.New(r.cfg, r.cfg.Seed, dist.Derive(r.cfg.Seed, r.Stream, idx),
			pipeline.WithLogger(r.log.With("file", filepath.Base(path))))
		report, err := job(ctx, p, score)
		done <- result{score: score, report: report, err: err}
	}()

	// output is written here, never by the job goroutine
	var res result
	select {
	case <-ctx.Done():
		return 0, errors.Wrapf(ErrTimeout, "%v", path)
	case res = <-done:
	}
	if res.err != nil {
		return 0, res.err
	}
	if err := r.write(path, res.score, res.report); err != nil {
		return 0, err
	}
	return res.score.NumNotes(), nil
}

func (r *Runner) write(path string, score *model.Score, report model.Report) error {
	base := filepath.Base(path)
	if err := r.WriteScore(filepath.Join(r.outDir, base), score); err != nil {
		return err
	}
	data, err := yaml.Marshal(report)
	if err != nil {
		return errors.Wrap(err, "marshal report")
	}
	return errors.Wrap(os.WriteFile(filepath.Join(r.outDir, base+constants.ReportSuffix), data, 0666), "write report")
}

// SaveConfig writes the effective config next to the outputs.
func (r *Runner) SaveConfig() error {
	data, err := r.cfg.Marshal()
	if err != nil {
		return errors.Wrap(err, "marshal config")
	}
	return errors.Wrap(os.WriteFile(filepath.Join(r.outDir, constants.ConfigSnapshot), data, 0666), "write config")
}

// ProcessAll runs job over every path with a bounded number of workers.
func (r *Runner) ProcessAll(ctx context.Context, paths []string, job Job) Summary {
	start := time.Now()
	summary := Summary{Failures: make(map[string]error)}
	var mu sync.Mutex
	var finished int64
	progress := debounce.New(250 * time.Millisecond)

	wg := sizedwaitgroup.New(r.workers())
	for i, path := range paths {
		wg.Add()
		go func(i int, path string) {
			defer wg.Done()
			notes, err := r.processFile(ctx, i, path, job)

			mu.Lock()
			if err != nil {
				summary.Skipped++
				summary.Failures[path] = err
				r.log.Warn("skipping file", "file", path, "err", err)
			} else {
				summary.Processed++
				summary.Notes += notes
			}
			mu.Unlock()

			n := atomic.AddInt64(&finished, 1)
			progress(func() {
				r.log.Info("progress", "done", n, "total", len(paths))
			})
		}(i, path)
	}
	wg.Wait()

	summary.Elapsed = time.Since(start)
	r.log.Info("batch finished", "summary", summary.String())
	return summary
}
