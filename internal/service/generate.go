// Package service contains the use cases composing the ledger, the worker
// runner and the billing provider: generation, billing reconciliation and
// plan queries.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"server/internal/domain"
	"server/internal/worker"
)

// WorkerRunner is the slice of the worker supervisor the generator needs.
type WorkerRunner interface {
	Execute(ctx context.Context, jobID string, payload []byte) (*worker.Result, error)
	DescriptorPath(jobID string) string
}

// DownloadFilename is the fixed name the artifact is delivered under.
const DownloadFilename = "video.mp4"

// Generator is the job orchestrator: admission gate, credit debit, worker
// execution and artifact resolution for the one public generate operation.
type Generator struct {
	accounts   domain.AccountRepository
	runner     WorkerRunner
	gate       *Gate
	creditCost int
	log        zerolog.Logger
}

// NewGenerator wires the orchestrator. The gate carries the single-flight
// invariant and must be the same instance for every caller.
func NewGenerator(accounts domain.AccountRepository, runner WorkerRunner, gate *Gate, creditCost int, log zerolog.Logger) *Generator {
	return &Generator{
		accounts:   accounts,
		runner:     runner,
		gate:       gate,
		creditCost: creditCost,
		log:        log,
	}
}

// Artifact is an open handle on the produced file. Close releases both the
// file and the admission gate, so the permit is held until delivery finishes.
type Artifact struct {
	File *os.File
	Name string

	release func()
	once    sync.Once
}

// Close closes the artifact file and releases the gate exactly once.
func (a *Artifact) Close() error {
	var err error
	a.once.Do(func() {
		err = a.File.Close()
		if a.release != nil {
			a.release()
		}
	})
	return err
}

// Generate runs one job end to end: admission, debit, worker invocation,
// descriptor resolution. The payload is forwarded to the worker verbatim.
//
// The debit happens before execution and is never refunded on a downstream
// failure; a caller that resubmits after a worker failure is debited again.
func (g *Generator) Generate(ctx context.Context, userID string, payload []byte) (*Artifact, error) {
	if !g.gate.TryAcquire() {
		return nil, domain.ErrBusy
	}
	// Held from here on. Every return below either releases directly or
	// hands the release to the Artifact.
	ok, err := g.accounts.TryDebit(ctx, userID, g.creditCost)
	if err != nil {
		g.gate.Release()
		return nil, fmt.Errorf("debit credits: %w", err)
	}
	if !ok {
		g.gate.Release()
		return nil, domain.ErrInsufficientCredits
	}

	jobID := uuid.NewString()
	log := g.log.With().Str("job_id", jobID).Str("user_id", userID).Logger()
	log.Info().Msg("generation started")

	res, err := g.runner.Execute(ctx, jobID, payload)
	if err != nil {
		g.gate.Release()
		log.Error().Err(err).Msg("worker failed")
		return nil, fmt.Errorf("run worker: %w", err)
	}
	// The exit code is informational only; the descriptor file is the
	// authoritative success signal.
	log.Info().Int("exit_code", res.ExitCode).
		Int("stdout_bytes", len(res.Stdout)).
		Int("stderr_bytes", len(res.Stderr)).
		Msg("worker exited")
	if len(res.Stderr) > 0 {
		log.Debug().Bytes("stderr", res.Stderr).Msg("worker stderr")
	}

	outputPath, err := g.resolveDescriptor(jobID)
	if err != nil {
		g.gate.Release()
		log.Error().Err(err).Msg("descriptor resolution failed")
		return nil, err
	}

	f, err := os.Open(outputPath)
	if err != nil {
		g.gate.Release()
		log.Error().Err(err).Str("artifact", outputPath).Msg("artifact open failed")
		return nil, fmt.Errorf("%w: open artifact: %v", domain.ErrOutputUnavailable, err)
	}

	log.Info().Str("artifact", outputPath).Msg("generation succeeded")
	return &Artifact{File: f, Name: DownloadFilename, release: g.gate.Release}, nil
}

func (g *Generator) resolveDescriptor(jobID string) (string, error) {
	raw, err := os.ReadFile(g.runner.DescriptorPath(jobID))
	if err != nil {
		return "", fmt.Errorf("%w: read descriptor: %v", domain.ErrOutputUnavailable, err)
	}
	var desc domain.OutputDescriptor
	if err := json.Unmarshal(raw, &desc); err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrMalformedDescriptor, err)
	}
	if desc.OutputFile == "" {
		return "", fmt.Errorf("%w: missing output_file", domain.ErrMalformedDescriptor)
	}
	return desc.OutputFile, nil
}
