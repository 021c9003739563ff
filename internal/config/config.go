package config

import (
	"os"
	"strconv"
	"strings"
)

// TerminalBinding pre-provisions a terminal with its facility and gate.
// Parsed from "id=Facility/Gate"; facility and gate may be omitted.
type TerminalBinding struct {
	ID       string
	Facility string
	Gate     string
}

type Config struct {
	HTTPAddr string

	// DB
	Env    string // "dev" | "prod"
	DBPath string // e.g. "./data/gatehouse.db"

	KnownTerminals []TerminalBinding

	// Sign-off count an approval chain needs to display as complete.
	RequiredApprovals int

	// Heartbeat retention
	HeartbeatRetentionDays int // 0 = keep forever
	PruneIntervalHours     int // how often the pruner runs (default 6)
}

func FromEnv() Config {
	addr := getenvDefault("GATEHOUSE_HTTP_ADDR", ":8080")

	env := strings.ToLower(getenvDefault("GATEHOUSE_ENV", "dev"))
	if env != "dev" && env != "prod" {
		// fail-soft: treat unknown as dev
		env = "dev"
	}

	dbPath := getenvDefault("GATEHOUSE_DB_PATH", "./data/gatehouse.db")

	terminals := parseTerminals(os.Getenv("GATEHOUSE_KNOWN_TERMINALS"))

	required := getenvInt("GATEHOUSE_REQUIRED_APPROVALS", 2)
	retentionDays := getenvInt("GATEHOUSE_HEARTBEAT_RETENTION_DAYS", 30)
	pruneInterval := getenvInt("GATEHOUSE_PRUNE_INTERVAL_HOURS", 6)

	return Config{
		HTTPAddr: addr,
		Env:      env,
		DBPath:   dbPath,

		KnownTerminals: terminals,

		RequiredApprovals: required,

		HeartbeatRetentionDays: retentionDays,
		PruneIntervalHours:     pruneInterval,
	}
}

// parseTerminals reads a CSV of bindings, e.g.
// "term-001=HQ/North,term-002=Lab B/East,term-003".
func parseTerminals(v string) []TerminalBinding {
	var out []TerminalBinding
	for _, part := range splitCSV(v) {
		b := TerminalBinding{ID: part}
		if i := strings.Index(part, "="); i >= 0 {
			b.ID = strings.TrimSpace(part[:i])
			loc := strings.TrimSpace(part[i+1:])
			if j := strings.Index(loc, "/"); j >= 0 {
				b.Facility = strings.TrimSpace(loc[:j])
				b.Gate = strings.TrimSpace(loc[j+1:])
			} else {
				b.Facility = loc
			}
		}
		if b.ID != "" {
			out = append(out, b)
		}
	}
	return out
}

func getenvDefault(key, def string) string {
	v := os.Getenv(key)
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

func getenvInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return def
	}
	return n
}

func splitCSV(v string) []string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
