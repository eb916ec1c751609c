package stage

import (
	"fmt"
	"io"

	"github.com/lucasnoah/portforge/internal/db"
	"github.com/lucasnoah/portforge/internal/errs"
	"github.com/lucasnoah/portforge/internal/pipeline"
)

// WorkFunc performs the actual work for one stage and returns the
// artifact paths it produced. The conversion work itself lives outside
// this engine; callers register a WorkFunc per stage name.
type WorkFunc func(p *pipeline.Pipeline, s *pipeline.Stage, opts RunOpts) ([]string, error)

// RunOpts configures a stage run.
type RunOpts struct {
	Limit    int  // optional cap passed through to the work function
	Rehearse bool // dry run: work executes without applying changes
}

// Engine runs the stage lifecycle against the pipeline store. Each run
// is a bounded, synchronous read-modify-write-persist cycle; a stage is
// never left in running when the work raises.
type Engine struct {
	store    *pipeline.Store
	audit    *db.DB // optional event log
	work     map[string]WorkFunc
	progress io.Writer // live progress output; nil = silent
}

// NewEngine creates a stage engine. audit may be nil.
func NewEngine(store *pipeline.Store, audit *db.DB) *Engine {
	return &Engine{
		store: store,
		audit: audit,
		work:  make(map[string]WorkFunc),
	}
}

// Register installs the work function for a stage name.
func (e *Engine) Register(stageName string, fn WorkFunc) {
	e.work[stageName] = fn
}

// SetProgress sets a writer for live progress output (e.g. os.Stderr).
func (e *Engine) SetProgress(w io.Writer) {
	e.progress = w
}

// logf prints a progress line if a progress writer is configured.
func (e *Engine) logf(format string, args ...interface{}) {
	if e.progress != nil {
		fmt.Fprintf(e.progress, "  → "+format+"\n", args...)
	}
}

// Run executes the full stage lifecycle. It returns true when the stage
// completed; false with a nil error when the stage's own work failed
// (the failure is captured into the stage document, not propagated).
// NotFound, Validation, and Persistence failures are returned as errors.
func (e *Engine) Run(pipelineID, stageName string, opts RunOpts) (bool, error) {
	e.logf("pipeline %s: running stage %q", pipelineID, stageName)

	p, err := e.store.Update(pipelineID, func(p *pipeline.Pipeline) error {
		s := p.FindStage(stageName)
		if s == nil {
			return notFoundStage(pipelineID, stageName)
		}
		if err := Start(s); err != nil {
			return err
		}
		p.ActiveStage = stageName
		p.Status = pipeline.StatusRunning
		return nil
	})
	if err != nil {
		return false, err
	}
	e.logf("stage %q started", stageName)
	e.logEvent(pipelineID, "stage_started", stageName, "")

	artifacts, workErr := e.runWork(p, stageName, opts)

	if workErr != nil {
		e.logf("stage %q failed: %v", stageName, workErr)
		if _, err := e.store.Update(pipelineID, func(p *pipeline.Pipeline) error {
			s := p.FindStage(stageName)
			if s == nil {
				return notFoundStage(pipelineID, stageName)
			}
			return Fail(s, workErr.Error())
		}); err != nil {
			return false, err
		}
		e.logEvent(pipelineID, "stage_failed", stageName, workErr.Error())
		return false, nil
	}

	if _, err := e.store.Update(pipelineID, func(p *pipeline.Pipeline) error {
		s := p.FindStage(stageName)
		if s == nil {
			return notFoundStage(pipelineID, stageName)
		}
		if err := Complete(s); err != nil {
			return err
		}
		s.Details.Artifacts = append(s.Details.Artifacts, artifacts...)
		return nil
	}); err != nil {
		return false, err
	}
	e.logf("stage %q completed (%d artifacts)", stageName, len(artifacts))
	e.logEvent(pipelineID, "stage_completed", stageName, "")
	return true, nil
}

// runWork invokes the registered work function, containing panics so an
// interrupted stage ends up failed rather than stuck in running.
func (e *Engine) runWork(p *pipeline.Pipeline, stageName string, opts RunOpts) (artifacts []string, err error) {
	fn, ok := e.work[stageName]
	if !ok {
		// No work registered: the stage is a bookkeeping-only step.
		return nil, nil
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("stage work panicked: %v", r)
		}
	}()

	s := p.FindStage(stageName)
	return fn(p, s, opts)
}

func (e *Engine) logEvent(pipelineID, event, stageName, detail string) {
	if e.audit == nil {
		return
	}
	_ = e.audit.LogPipelineEvent(pipelineID, event, stageName, detail)
}

func notFoundStage(pipelineID, stageName string) error {
	return errs.NotFound("stage", pipelineID+"/"+stageName)
}
