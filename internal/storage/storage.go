package storage

import (
	"fmt"
	"strings"
	"time"
)

// Package storage keeps a local ledger of ranking fetch outcomes.

const (
	StatusOK     = "ok"
	StatusEmpty  = "empty"
	StatusFailed = "failed"
)

// OutcomeRecord is the stored result of one ranking fetch.
type OutcomeRecord struct {
	Date       string `json:"date"`
	Country    string `json:"country"`
	Category   string `json:"category"`
	Collection string `json:"collection"`
	Status     string `json:"status"`
	Count      int    `json:"count"`
	Error      string `json:"error,omitempty"`
	ExpiresAt  int64  `json:"expires_at"`
}

// Key returns the ledger key of the record.
func (r OutcomeRecord) Key() string {
	return strings.ToLower(r.Date + "/" + r.Country + "/" + r.Category + "/" + r.Collection)
}

// Summary counts outcomes for one collection date.
type Summary struct {
	Date    string   `json:"date"`
	OK      int      `json:"ok"`
	Empty   int      `json:"empty"`
	Failed  int      `json:"failed"`
	Failing []string `json:"failing,omitempty"`
}

// add counts rec under the ledger name it was stored as.
func (s *Summary) add(name string, rec OutcomeRecord) {
	switch rec.Status {
	case StatusOK:
		s.OK++
	case StatusEmpty:
		s.Empty++
	case StatusFailed:
		s.Failed++
		s.Failing = append(s.Failing, name)
	}
}

// Store records fetch outcomes.
type Store interface {
	Close() error
	RecordOutcome(rec OutcomeRecord) error
	Summary(date string) (Summary, error)
}

// Options controls retention characteristics for concrete store implementations.
type Options struct {
	OutcomeTTL      time.Duration
	CleanupInterval time.Duration
	Redis           RedisOptions
}

// RedisOptions addresses the redis backend.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
}

const (
	defaultOutcomeTTL      = 14 * 24 * time.Hour
	defaultCleanupInterval = 12 * time.Hour
)

// NewStore creates the configured storage backend.
func NewStore(typ, path string, opts Options) (Store, error) {
	typ = strings.TrimSpace(strings.ToLower(typ))
	opts = normalizeOptions(opts)

	switch typ {
	case "", "none", "disabled":
		return noopStore{}, nil
	case "bbolt":
		if strings.TrimSpace(path) == "" {
			return nil, fmt.Errorf("bbolt storage requires a path")
		}
		return openBolt(path, opts)
	case "redis":
		if strings.TrimSpace(opts.Redis.Addr) == "" {
			return nil, fmt.Errorf("redis storage requires an address")
		}
		return openRedis(opts)
	default:
		return nil, fmt.Errorf("unsupported storage type %q", typ)
	}
}

func normalizeOptions(opts Options) Options {
	if opts.OutcomeTTL <= 0 {
		opts.OutcomeTTL = defaultOutcomeTTL
	}
	if opts.CleanupInterval <= 0 {
		opts.CleanupInterval = defaultCleanupInterval
	}
	return opts
}

type noopStore struct{}

func (noopStore) Close() error                      { return nil }
func (noopStore) RecordOutcome(OutcomeRecord) error { return nil }
func (noopStore) Summary(date string) (Summary, error) {
	return Summary{Date: date}, nil
}
