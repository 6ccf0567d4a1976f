package models

import (
	"errors"
	"fmt"
	"time"
)

// JobKind names the kind of work a job carries.
type JobKind string

const (
	KindDataExport         JobKind = "data_export"
	KindDataAnalysis       JobKind = "data_analysis"
	KindDataValidation     JobKind = "data_validation"
	KindDataCleanup        JobKind = "data_cleanup"
	KindBufferOptimization JobKind = "buffer_optimization"
	KindBackupOperation    JobKind = "backup_operation"
	KindReportGeneration   JobKind = "report_generation"
)

// Kinds lists every known job kind, in a stable order.
func Kinds() []JobKind {
	return []JobKind{
		KindDataExport,
		KindDataAnalysis,
		KindDataValidation,
		KindDataCleanup,
		KindBufferOptimization,
		KindBackupOperation,
		KindReportGeneration,
	}
}

// Valid reports whether k is one of the known kinds.
func (k JobKind) Valid() bool {
	switch k {
	case KindDataExport, KindDataAnalysis, KindDataValidation, KindDataCleanup,
		KindBufferOptimization, KindBackupOperation, KindReportGeneration:
		return true
	}
	return false
}

// DataExportParams describes a session export.
type DataExportParams struct {
	SessionIDs []string `json:"session_ids"`
	Format     string   `json:"export_format"`
	OutputPath string   `json:"output_path"`
}

// DataAnalysisParams describes an analysis pass over recorded sessions.
type DataAnalysisParams struct {
	SessionIDs   []string          `json:"session_ids"`
	AnalysisType string            `json:"analysis_type"`
	Parameters   map[string]string `json:"parameters,omitempty"`
}

// DataValidationParams describes a rule-based integrity check.
type DataValidationParams struct {
	SessionIDs []string `json:"session_ids"`
	Rules      []string `json:"validation_rules"`
}

// DataCleanupParams describes removal of aged session data.
type DataCleanupParams struct {
	OlderThanDays     int  `json:"older_than_days"`
	PreserveImportant bool `json:"preserve_important"`
}

// BufferOptimizationParams describes a device buffer tuning pass.
type BufferOptimizationParams struct {
	DeviceIDs        []string `json:"device_ids"`
	OptimizationType string   `json:"optimization_type"`
}

// BackupOperationParams describes a backup run.
type BackupOperationParams struct {
	BackupType      string `json:"backup_type"`
	IncludeSessions bool   `json:"include_sessions"`
	IncludeConfig   bool   `json:"include_config"`
}

// ReportGenerationParams describes report rendering and delivery.
type ReportGenerationParams struct {
	ReportType string    `json:"report_type"`
	From       time.Time `json:"from"`
	To         time.Time `json:"to"`
	Recipients []string  `json:"recipients,omitempty"`
}

// JobPayload is a tagged union: Kind selects the variant and exactly one of
// the parameter pointers must be set, the one matching Kind.
type JobPayload struct {
	Kind               JobKind                   `json:"kind"`
	DataExport         *DataExportParams         `json:"data_export,omitempty"`
	DataAnalysis       *DataAnalysisParams       `json:"data_analysis,omitempty"`
	DataValidation     *DataValidationParams     `json:"data_validation,omitempty"`
	DataCleanup        *DataCleanupParams        `json:"data_cleanup,omitempty"`
	BufferOptimization *BufferOptimizationParams `json:"buffer_optimization,omitempty"`
	BackupOperation    *BackupOperationParams    `json:"backup_operation,omitempty"`
	ReportGeneration   *ReportGenerationParams   `json:"report_generation,omitempty"`
}

// Validate checks that Kind is known, that the matching parameter block is
// present, that no other block is set, and that required fields are filled.
func (p JobPayload) Validate() error {
	if !p.Kind.Valid() {
		return fmt.Errorf("unknown job kind %q", p.Kind)
	}
	set := 0
	for _, present := range []bool{
		p.DataExport != nil,
		p.DataAnalysis != nil,
		p.DataValidation != nil,
		p.DataCleanup != nil,
		p.BufferOptimization != nil,
		p.BackupOperation != nil,
		p.ReportGeneration != nil,
	} {
		if present {
			set++
		}
	}
	if set != 1 {
		return fmt.Errorf("payload must carry exactly one parameter block, found %d", set)
	}

	switch p.Kind {
	case KindDataExport:
		if p.DataExport == nil {
			return missingParams(p.Kind)
		}
		if p.DataExport.Format == "" {
			return errors.New("data_export: export_format is required")
		}
		if p.DataExport.OutputPath == "" {
			return errors.New("data_export: output_path is required")
		}
	case KindDataAnalysis:
		if p.DataAnalysis == nil {
			return missingParams(p.Kind)
		}
		if p.DataAnalysis.AnalysisType == "" {
			return errors.New("data_analysis: analysis_type is required")
		}
	case KindDataValidation:
		if p.DataValidation == nil {
			return missingParams(p.Kind)
		}
		if len(p.DataValidation.Rules) == 0 {
			return errors.New("data_validation: at least one validation rule is required")
		}
	case KindDataCleanup:
		if p.DataCleanup == nil {
			return missingParams(p.Kind)
		}
		if p.DataCleanup.OlderThanDays <= 0 {
			return errors.New("data_cleanup: older_than_days must be positive")
		}
	case KindBufferOptimization:
		if p.BufferOptimization == nil {
			return missingParams(p.Kind)
		}
		if p.BufferOptimization.OptimizationType == "" {
			return errors.New("buffer_optimization: optimization_type is required")
		}
	case KindBackupOperation:
		if p.BackupOperation == nil {
			return missingParams(p.Kind)
		}
		if p.BackupOperation.BackupType == "" {
			return errors.New("backup_operation: backup_type is required")
		}
	case KindReportGeneration:
		if p.ReportGeneration == nil {
			return missingParams(p.Kind)
		}
		if p.ReportGeneration.ReportType == "" {
			return errors.New("report_generation: report_type is required")
		}
		if !p.ReportGeneration.To.IsZero() && p.ReportGeneration.To.Before(p.ReportGeneration.From) {
			return errors.New("report_generation: time range ends before it starts")
		}
	}
	return nil
}

func missingParams(k JobKind) error {
	return fmt.Errorf("payload kind %q is missing its parameter block", k)
}

func (p JobPayload) clone() JobPayload {
	out := p
	if p.DataExport != nil {
		cp := *p.DataExport
		cp.SessionIDs = append([]string(nil), p.DataExport.SessionIDs...)
		out.DataExport = &cp
	}
	if p.DataAnalysis != nil {
		cp := *p.DataAnalysis
		cp.SessionIDs = append([]string(nil), p.DataAnalysis.SessionIDs...)
		if p.DataAnalysis.Parameters != nil {
			cp.Parameters = make(map[string]string, len(p.DataAnalysis.Parameters))
			for k, v := range p.DataAnalysis.Parameters {
				cp.Parameters[k] = v
			}
		}
		out.DataAnalysis = &cp
	}
	if p.DataValidation != nil {
		cp := *p.DataValidation
		cp.SessionIDs = append([]string(nil), p.DataValidation.SessionIDs...)
		cp.Rules = append([]string(nil), p.DataValidation.Rules...)
		out.DataValidation = &cp
	}
	if p.DataCleanup != nil {
		cp := *p.DataCleanup
		out.DataCleanup = &cp
	}
	if p.BufferOptimization != nil {
		cp := *p.BufferOptimization
		cp.DeviceIDs = append([]string(nil), p.BufferOptimization.DeviceIDs...)
		out.BufferOptimization = &cp
	}
	if p.BackupOperation != nil {
		cp := *p.BackupOperation
		out.BackupOperation = &cp
	}
	if p.ReportGeneration != nil {
		cp := *p.ReportGeneration
		cp.Recipients = append([]string(nil), p.ReportGeneration.Recipients...)
		out.ReportGeneration = &cp
	}
	return out
}
