package query

import (
	"time"

	"github.com/s0up4200/filmpire/tmdb"
)

// Status is the fetch state of a cache entry
type Status int

const (
	// StatusIdle means the entry exists but was never fetched
	StatusIdle Status = iota
	// StatusLoading means a fetch is in flight
	StatusLoading
	// StatusSuccess means Data holds the last good response
	StatusSuccess
	// StatusError means the last fetch failed
	StatusError
)

// String returns the string representation of a Status
func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusSuccess:
		return "success"
	case StatusError:
		return "error"
	default:
		return "idle"
	}
}

// Result is a point-in-time view of a cache entry
type Result struct {
	Key         tmdb.Key
	Status      Status
	Data        []byte
	Err         error
	UpdatedAt   time.Time
	Subscribers int
}

// Pending reports whether the caller has nothing to show yet
func (r Result) Pending() bool {
	return r.Data == nil && (r.Status == StatusIdle || r.Status == StatusLoading)
}

type entry struct {
	key         tmdb.Key
	status      Status
	data        []byte
	err         error
	updatedAt   time.Time
	subscribers int
	// flight is the id of the fetch whose result the entry accepts, 0 when none
	flight uint64
}

func (e *entry) result() Result {
	return Result{
		Key:         e.key,
		Status:      e.status,
		Data:        e.data,
		Err:         e.err,
		UpdatedAt:   e.updatedAt,
		Subscribers: e.subscribers,
	}
}
