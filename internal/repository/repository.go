// Package repository implements the record operations on top of the storage
// engine. All access goes through Engine.Execute/Query; nothing here holds a
// raw connection.
package repository

import (
	"fmt"
	"time"
)

// timeLayout matches what sqlite's CURRENT_TIMESTAMP writes (UTC, second
// resolution).
const timeLayout = "2006-01-02 15:04:05"

func parseTimestamp(raw string) (time.Time, error) {
	// The driver decodes DATETIME columns into time.Time, which database/sql
	// renders into a string destination as RFC 3339, not the stored layout.
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", raw, err)
	}
	return t, nil
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// sqlite has no bool storage class; the schema stores 1/0.
func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
