// Package syslog appends migration audit events to the target's
// system_log table and mirrors them to the process log.
package syslog

import (
	"database/sql"
	"fmt"
	"log"
	"time"
)

type Logger struct {
	db    *sql.DB
	runID string
}

func New(db *sql.DB, runID string) *Logger {
	return &Logger{db: db, runID: runID}
}

func (l *Logger) Infof(component, format string, args ...any)  { l.append("info", component, format, args...) }
func (l *Logger) Warnf(component, format string, args ...any)  { l.append("warn", component, format, args...) }
func (l *Logger) Errorf(component, format string, args ...any) { l.append("error", component, format, args...) }

func (l *Logger) append(level, component, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	log.Printf("[%s] %s", component, msg)

	if l == nil || l.db == nil {
		return
	}
	// The audit trail is best-effort: a failed append must never abort
	// the migration it is describing.
	_, err := l.db.Exec(`
INSERT INTO system_log (run_id, at, level, component, message)
VALUES (?, ?, ?, ?, ?);`,
		l.runID, time.Now().UTC().Format(time.RFC3339), level, component, msg)
	if err != nil {
		log.Printf("[syslog] append failed: %v", err)
	}
}
