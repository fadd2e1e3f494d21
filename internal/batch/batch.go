// Package batch solves many independent anvil requests concurrently.
package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"time"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"
	"golang.org/x/sync/errgroup"

	"anvil-optimizer/internal/anvil"
	"anvil-optimizer/internal/catalog"
)

// ErrMalformed rejects a job file or payload that cannot be read as jobs.
var ErrMalformed = errors.New("batch: malformed jobs")

// Job is one request: an item id and the enchantments wanted on it.
type Job struct {
	ID                string
	Item              string
	Selections        []catalog.Selection
	AllowIncompatible bool
	OptimizeFor       anvil.Objective
}

// JobResult holds the outcome and timing of a single job.
type JobResult struct {
	ID     string         `json:"id"`
	Item   string         `json:"item"`
	Result *anvil.Summary `json:"result,omitempty"`
	Error  string         `json:"error,omitempty"`
	TimeMs int64          `json:"timeMs"`

	Plan anvil.Result `json:"-"`
	Err  error        `json:"-"`
}

// ── Parsing ─────────────────────────────────────────────────────────

// LoadJobs reads a jobs file.
func LoadJobs(path string, defaultObj anvil.Objective) ([]Job, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	jobs, err := ParseJobs(string(raw), defaultObj)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return jobs, nil
}

// ParseJobs accepts either {"jobs": [...]} or a bare array of jobs.
func ParseJobs(data string, defaultObj anvil.Objective) ([]Job, error) {
	if !gjson.Valid(data) {
		return nil, fmt.Errorf("%w: invalid JSON", ErrMalformed)
	}
	root := gjson.Parse(data)
	list := root
	if !root.IsArray() {
		list = root.Get("jobs")
	}
	if !list.IsArray() {
		return nil, fmt.Errorf("%w: no jobs array", ErrMalformed)
	}

	var jobs []Job
	var parseErr error
	list.ForEach(func(key, v gjson.Result) bool {
		job, err := parseJob(v, defaultObj)
		if err != nil {
			parseErr = fmt.Errorf("job %d: %w", key.Int(), err)
			return false
		}
		jobs = append(jobs, job)
		return true
	})
	if parseErr != nil {
		return nil, parseErr
	}
	return jobs, nil
}

// ParseJob reads a single job object, as posted to the Lambda handler.
func ParseJob(data string, defaultObj anvil.Objective) (Job, error) {
	if !gjson.Valid(data) {
		return Job{}, fmt.Errorf("%w: invalid JSON", ErrMalformed)
	}
	return parseJob(gjson.Parse(data), defaultObj)
}

func parseJob(v gjson.Result, defaultObj anvil.Objective) (Job, error) {
	if !v.IsObject() {
		return Job{}, fmt.Errorf("%w: job is not an object", ErrMalformed)
	}
	job := Job{
		ID:                v.Get("id").String(),
		Item:              v.Get("item").String(),
		AllowIncompatible: v.Get("allowIncompatible").Bool(),
		OptimizeFor:       defaultObj,
	}
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	if job.Item == "" {
		job.Item = catalog.BookItemID
	}
	if obj := v.Get("optimizeFor"); obj.Exists() {
		parsed, err := anvil.ParseObjective(obj.String())
		if err != nil {
			return Job{}, err
		}
		job.OptimizeFor = parsed
	}

	var selErr error
	v.Get("enchantments").ForEach(func(_, e gjson.Result) bool {
		var sel catalog.Selection
		switch {
		case e.Type == gjson.String:
			sel, selErr = catalog.ParseSelection(e.String())
		case e.IsObject():
			level := e.Get("level")
			sel = catalog.Selection{ID: e.Get("id").String(), Level: int(level.Int()), Max: !level.Exists()}
		default:
			selErr = fmt.Errorf("%w: enchantment entry %s", ErrMalformed, e.Raw)
		}
		if selErr != nil {
			return false
		}
		job.Selections = append(job.Selections, sel)
		return true
	})
	if selErr != nil {
		return Job{}, selErr
	}
	return job, nil
}

// ── Running ─────────────────────────────────────────────────────────

// Runner resolves jobs against a catalog and solves them.
type Runner struct {
	catalog *catalog.Catalog
	solver  *anvil.Solver
	workers int
	log     *slog.Logger
}

// NewRunner creates a runner. workers <= 0 means GOMAXPROCS.
func NewRunner(cat *catalog.Catalog, solver *anvil.Solver, workers int, logger *slog.Logger) *Runner {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{catalog: cat, solver: solver, workers: workers, log: logger}
}

// RunOne resolves and solves a single job. Invalid input is reported in
// the result, never returned, so one bad job does not stop a batch.
func (r *Runner) RunOne(job Job) JobResult {
	start := time.Now()
	out := JobResult{ID: job.ID, Item: job.Item}

	req, err := r.catalog.Resolve(job.Item, job.Selections)
	if err == nil {
		req.AllowIncompatible = job.AllowIncompatible
		req.OptimizeFor = job.OptimizeFor
		out.Plan, err = r.solver.Solve(req)
	}
	out.TimeMs = time.Since(start).Milliseconds()

	if err != nil {
		out.Err = err
		out.Error = err.Error()
		r.log.Warn("job rejected", "job", job.ID, "err", err)
		return out
	}
	sum := anvil.Summarize(out.Plan)
	out.Result = &sum
	r.log.Debug("job done", "job", job.ID, "feasible", out.Plan.Feasible, "xp", out.Plan.TotalExperience, "ms", out.TimeMs)
	return out
}

// Run solves every job with at most r.workers in flight. Results keep the
// input order. Only cancellation of ctx makes Run return an error.
func (r *Runner) Run(ctx context.Context, jobs []Job) ([]JobResult, error) {
	results := make([]JobResult, len(jobs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)
	for i := range jobs {
		if err := gctx.Err(); err != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = r.RunOne(jobs[i])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	if err := ctx.Err(); err != nil {
		return results, err
	}
	return results, nil
}
