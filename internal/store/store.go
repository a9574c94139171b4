package store

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jbonatakis/reqmatrix/internal/matrix"
)

var (
	ErrUnknownBackend   = errors.New("unknown store backend")
	ErrInvalidServiceID = errors.New("invalid service id")
)

const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// Record is one saved snapshot of a service's matrix. A service that was
// never saved loads as a Record with an empty Revision and empty maps.
type Record struct {
	ServiceID string       `json:"serviceId"`
	Revision  string       `json:"revision,omitempty"`
	SavedAt   time.Time    `json:"savedAt,omitempty"`
	State     matrix.State `json:"state"`
}

// Store persists the committed mappings and availability for services.
type Store interface {
	Load(ctx context.Context, serviceID string) (Record, error)
	Save(ctx context.Context, serviceID string, s matrix.State) (Record, error)
	Close() error
}

type Options struct {
	Backend     string
	Path        string
	RedisAddr   string
	RedisDB     int
	RedisPrefix string
}

// Open constructs the backend named by opts.Backend. An empty backend means
// the file store.
func Open(ctx context.Context, opts Options) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(opts.Backend)) {
	case "", BackendFile:
		return NewFileStore(opts.Path)
	case BackendSQLite:
		return OpenSQLite(ctx, opts.Path)
	case BackendRedis:
		return OpenRedis(ctx, opts.RedisAddr, opts.RedisDB, opts.RedisPrefix)
	case BackendMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("%w %q", ErrUnknownBackend, opts.Backend)
	}
}

// Persister adapts a Store for use by a standalone matrix controller.
func Persister(s Store) matrix.Persister {
	return matrix.PersisterFunc(func(ctx context.Context, serviceID string, state matrix.State) error {
		_, err := s.Save(ctx, serviceID, state)
		return err
	})
}

func checkServiceID(serviceID string) error {
	if strings.TrimSpace(serviceID) == "" ||
		serviceID == "." || serviceID == ".." ||
		strings.ContainsAny(serviceID, `/\`) ||
		filepath.Base(serviceID) != serviceID {
		return fmt.Errorf("%w %q", ErrInvalidServiceID, serviceID)
	}
	return nil
}

func newRecord(serviceID string, s matrix.State, now time.Time) Record {
	return Record{
		ServiceID: serviceID,
		Revision:  uuid.NewString(),
		SavedAt:   now.UTC(),
		State:     s.WithoutRoot(),
	}
}

func emptyRecord(serviceID string) Record {
	return Record{ServiceID: serviceID, State: matrix.NewState()}
}
