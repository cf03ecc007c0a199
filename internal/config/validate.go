package config

import (
	"fmt"
	"os"
	"strings"
)

// Entities a source may target, with the canonical fields each accepts.
var entityFields = map[string]map[string]bool{
	"company": set("name", "industry", "location", "size", "notes",
		"created_at", "updated_at"),
	"job": set("company", "title", "location", "work_mode", "url",
		"salary_min", "salary_max", "description", "source",
		"created_at", "updated_at"),
	"application": set("company", "title", "status", "applied_at", "responded_at",
		"notes", "created_at", "updated_at"),
	"contact": set("company", "full_name", "email", "phone", "role",
		"linkedin_url", "notes", "created_at", "updated_at"),
	"email":  set("company", "title", "contact_email", "direction", "subject", "body", "sent_at"),
	"metric": set("name", "category", "value", "date"),
	"profile": set("full_name", "email", "phone", "location", "linkedin_url",
		"github_url", "summary", "created_at", "updated_at"),
}

func set(fields ...string) map[string]bool {
	m := make(map[string]bool, len(fields))
	for _, f := range fields {
		m[f] = true
	}
	return m
}

type Validation struct {
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

func (v *Validation) addErr(format string, args ...any) {
	v.Errors = append(v.Errors, fmt.Sprintf(format, args...))
}
func (v *Validation) addWarn(format string, args ...any) {
	v.Warnings = append(v.Warnings, fmt.Sprintf(format, args...))
}
func (v Validation) OK() bool { return len(v.Errors) == 0 }

// Err collapses the validation into a ConfigurationError, or nil.
func (v Validation) Err() error {
	if v.OK() {
		return nil
	}
	return &ConfigurationError{Problems: v.Errors}
}

// ConfigurationError is fatal: a bad registry halts the run before any
// write is attempted.
type ConfigurationError struct {
	Problems []string
}

func (e *ConfigurationError) Error() string {
	return "configuration: " + strings.Join(e.Problems, "; ")
}

// NormalizeAndValidate returns a normalized copy of cfg and everything
// wrong with it. Callers must refuse to run on any error.
func NormalizeAndValidate(cfg Config) (Config, Validation) {
	out := cfg
	var res Validation

	if strings.TrimSpace(out.Target) == "" {
		res.addErr("target is required")
	}
	if out.BatchSize <= 0 {
		out.BatchSize = 500
	}
	if len(out.Sources) == 0 {
		res.addErr("no sources declared: nothing to migrate")
	}

	for i := range out.Sources {
		s := &out.Sources[i]
		s.Entity = strings.ToLower(strings.TrimSpace(s.Entity))
		s.Table = strings.TrimSpace(s.Table)

		label := fmt.Sprintf("sources[%d]", i)
		if s.Path == "" {
			res.addErr("%s: path is required", label)
		} else if _, err := os.Stat(s.Path); err != nil {
			res.addErr("%s: source database %s: %v", label, s.Path, err)
		}
		if s.Table == "" {
			res.addErr("%s: table is required", label)
		}

		fields, known := entityFields[s.Entity]
		if !known {
			res.addErr("%s: unknown entity %q", label, s.Entity)
			continue
		}
		if len(s.Columns) == 0 {
			res.addErr("%s: columns mapping is empty", label)
		}
		for field := range s.Columns {
			if !fields[field] {
				res.addErr("%s: entity %s has no field %q", label, s.Entity, field)
			}
		}
		for field := range s.Defaults {
			if !fields[field] {
				res.addErr("%s: entity %s has no field %q (defaults)", label, s.Entity, field)
			}
		}
		if len(s.KeyFields) > 0 && s.Entity != "contact" {
			res.addWarn("%s: dedup_key_fields only applies to contacts; ignored for %s", label, s.Entity)
		}
	}

	if len(out.Sources) > 0 && out.Target != "" {
		for _, s := range out.Sources {
			if s.Path == out.Target {
				res.addErr("target %s is also declared as a source", out.Target)
			}
		}
	}

	return out, res
}
