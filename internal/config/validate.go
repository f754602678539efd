// Package config provides configuration models and helpers for insights
// pipeline runs.
//
// This file adds a lightweight linter/validator for Pipeline values. It
// performs static checks over a decoded Pipeline and returns a list of
// issues (errors and warnings) that callers can surface in a CLI or tests.
package config

import (
	"fmt"
	"strings"
)

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError indicates a configuration error that should block execution.
	SeverityError IssueSeverity = "error"
	// SeverityWarning indicates a configuration warning that should be
	// surfaced to users but may not necessarily block execution.
	SeverityWarning IssueSeverity = "warning"
)

// Issue describes a single validation/lint finding for a Pipeline.
//
// Path is a dotted path into the config (e.g. "sources.orders",
// "export.kind"). Message is human-readable.
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

// Error implements the error interface so an Issue can be treated as a
// single error in contexts that expect error.
func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// ValidatePipeline performs static validation / linting of a Pipeline.
//
// It does not mutate the pipeline. Callers may decide whether to treat
// warnings as fatal.
func ValidatePipeline(p Pipeline) []Issue {
	var issues []Issue

	if strings.TrimSpace(p.Job) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "job",
			Message:  "job must not be empty; it is used for metrics labeling and identifying runs",
		})
	}

	issues = append(issues, validateSources(p.Sources)...)
	issues = append(issues, validateExport(p.Export)...)

	return issues
}

// validateSources checks that every table required by the join has a path.
func validateSources(s Sources) []Issue {
	var issues []Issue
	for _, np := range s.Required() {
		if strings.TrimSpace(np.Path) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "sources." + np.Name,
				Message:  "path must not be empty; this table is required by the join",
			})
		}
	}
	if strings.TrimSpace(s.Geolocation) == "" {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "sources.geolocation",
			Message:  "no geolocation table configured; geographic reporting consumers will have no coordinates",
		})
	}
	return issues
}

// validateExport checks the sink selection and its kind-specific options.
func validateExport(e Export) []Issue {
	var issues []Issue

	kind := strings.TrimSpace(e.Kind)
	switch kind {
	case "":
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "export.kind",
			Message:  "export.kind must not be empty",
		})
	case "csv":
		if strings.TrimSpace(e.Dir) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "export.dir",
				Message:  `export.dir is required for kind "csv"`,
			})
		}
	case "sqlite", "postgres":
		if strings.TrimSpace(e.DB.DSN) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "export.db.dsn",
				Message:  fmt.Sprintf("export.db.dsn is required for kind %q", kind),
			})
		}
	default:
		// Unknown kinds are warnings for forward compatibility; the storage
		// registry gives the hard error at open time.
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "export.kind",
			Message:  fmt.Sprintf("unknown export kind %q", kind),
		})
	}

	return issues
}
