// Package jobs implements the built-in batch job kinds. Work is simulated
// in timed steps so progress reporting, cancellation, and timeouts behave
// like they would against real session data.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/ZoOtMcNoOt/gaitqueue/internal/engine"
	"github.com/ZoOtMcNoOt/gaitqueue/pkg/models"
)

// Simulator executes the built-in kinds. stepDelay is the pause per work
// unit; it is the knob that makes jobs observable in demos and instant in
// tests.
type Simulator struct {
	stepDelay time.Duration
}

func NewSimulator(stepDelay time.Duration) *Simulator {
	if stepDelay < 0 {
		stepDelay = 0
	}
	return &Simulator{stepDelay: stepDelay}
}

// RegisterAll wires every built-in kind into the engine.
func (s *Simulator) RegisterAll(eng *engine.Engine) error {
	handlers := map[models.JobKind]engine.HandlerFunc{
		models.KindDataExport:         s.ExportData,
		models.KindDataAnalysis:       s.AnalyzeData,
		models.KindDataValidation:     s.ValidateData,
		models.KindDataCleanup:        s.CleanupData,
		models.KindBufferOptimization: s.OptimizeBuffers,
		models.KindBackupOperation:    s.RunBackup,
		models.KindReportGeneration:   s.GenerateReport,
	}
	for kind, fn := range handlers {
		if err := eng.Register(kind, fn); err != nil {
			return err
		}
	}
	return nil
}

// ExportData writes each session out one at a time.
func (s *Simulator) ExportData(ctx context.Context, run *engine.Run) engine.Outcome {
	params := run.Payload().DataExport
	if err := s.processItems(ctx, run, params.SessionIDs); err != nil {
		return engine.Cancelled()
	}
	return engine.Success(fmt.Sprintf("Exported %d sessions to %s", len(params.SessionIDs), params.OutputPath))
}

// AnalyzeData runs the named analysis across the selected sessions.
func (s *Simulator) AnalyzeData(ctx context.Context, run *engine.Run) engine.Outcome {
	params := run.Payload().DataAnalysis
	phases := []string{
		"loading sessions",
		"computing " + params.AnalysisType,
		"aggregating results",
	}
	if err := s.runPhases(ctx, run, phases); err != nil {
		return engine.Cancelled()
	}
	return engine.Success(fmt.Sprintf("Analyzed %d sessions with %s", len(params.SessionIDs), params.AnalysisType))
}

// ValidateData applies the configured rules to each session.
func (s *Simulator) ValidateData(ctx context.Context, run *engine.Run) engine.Outcome {
	params := run.Payload().DataValidation
	if err := s.processItems(ctx, run, params.SessionIDs); err != nil {
		return engine.Cancelled()
	}
	return engine.Success(fmt.Sprintf("Validated %d sessions", len(params.SessionIDs)))
}

// CleanupData scans for sessions past the retention window and removes them.
func (s *Simulator) CleanupData(ctx context.Context, run *engine.Run) engine.Outcome {
	params := run.Payload().DataCleanup
	phases := []string{"scanning sessions", "removing expired data"}
	if params.PreserveImportant {
		phases = []string{"scanning sessions", "marking preserved sessions", "removing expired data"}
	}
	if err := s.runPhases(ctx, run, phases); err != nil {
		return engine.Cancelled()
	}
	return engine.Success(fmt.Sprintf("Cleaned up data older than %d days", params.OlderThanDays))
}

// OptimizeBuffers rebuilds the ring buffers of each device.
func (s *Simulator) OptimizeBuffers(ctx context.Context, run *engine.Run) engine.Outcome {
	params := run.Payload().BufferOptimization
	if err := s.processItems(ctx, run, params.DeviceIDs); err != nil {
		return engine.Cancelled()
	}
	return engine.Success(fmt.Sprintf("Optimized %d device buffers", len(params.DeviceIDs)))
}

// RunBackup archives the requested slices of system state.
func (s *Simulator) RunBackup(ctx context.Context, run *engine.Run) engine.Outcome {
	params := run.Payload().BackupOperation
	phases := []string{"snapshotting state"}
	if params.IncludeSessions {
		phases = append(phases, "archiving sessions")
	}
	if params.IncludeConfig {
		phases = append(phases, "archiving configuration")
	}
	phases = append(phases, "verifying archive")
	if err := s.runPhases(ctx, run, phases); err != nil {
		return engine.Cancelled()
	}
	return engine.Success(fmt.Sprintf("Created %s backup", params.BackupType))
}

// GenerateReport renders the report and delivers it to the recipients.
func (s *Simulator) GenerateReport(ctx context.Context, run *engine.Run) engine.Outcome {
	params := run.Payload().ReportGeneration
	phases := []string{"collecting range data", "rendering " + params.ReportType + " report"}
	if len(params.Recipients) > 0 {
		phases = append(phases, "delivering to recipients")
	}
	if err := s.runPhases(ctx, run, phases); err != nil {
		return engine.Cancelled()
	}
	return engine.Success(fmt.Sprintf("Generated %s report for %d recipients", params.ReportType, len(params.Recipients)))
}

// processItems walks item-granular work, reporting per-item progress and
// honouring cancellation between items.
func (s *Simulator) processItems(ctx context.Context, run *engine.Run, items []string) error {
	total := len(items)
	for i, item := range items {
		run.UpdateProgress(i, total, item)
		if err := s.pause(ctx); err != nil {
			return err
		}
	}
	run.UpdateProgress(total, total, "")
	return nil
}

// runPhases walks coarse named phases, one step each.
func (s *Simulator) runPhases(ctx context.Context, run *engine.Run, phases []string) error {
	total := len(phases)
	for i, phase := range phases {
		run.SetStep(i+1, total)
		run.UpdateProgress(i, total, phase)
		if err := s.pause(ctx); err != nil {
			return err
		}
	}
	run.UpdateProgress(total, total, "")
	return nil
}

func (s *Simulator) pause(ctx context.Context) error {
	if s.stepDelay <= 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			return nil
		}
	}
	t := time.NewTimer(s.stepDelay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
