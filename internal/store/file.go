package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/jbonatakis/reqmatrix/internal/fsutil"
	"github.com/jbonatakis/reqmatrix/internal/matrix"
)

const DefaultFileDir = ".reqmatrix/mappings"

// FileStore keeps one JSON document per service under Dir.
type FileStore struct {
	Dir string
	now func() time.Time
}

func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		dir = DefaultFileDir
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create mapping directory %s: %w", dir, err)
	}
	return &FileStore{Dir: dir, now: time.Now}, nil
}

type fileRecord struct {
	ServiceID    string          `json:"serviceId"`
	Revision     string          `json:"revision"`
	SavedAt      time.Time       `json:"savedAt"`
	Mappings     map[string]bool `json:"mappings"`
	Availability map[string]bool `json:"availability"`
}

func (f *FileStore) path(serviceID string) string {
	return filepath.Join(f.Dir, serviceID+".json")
}

func (f *FileStore) Load(_ context.Context, serviceID string) (Record, error) {
	if err := checkServiceID(serviceID); err != nil {
		return Record{}, err
	}
	path := f.path(serviceID)
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return emptyRecord(serviceID), nil
		}
		return Record{}, fmt.Errorf("read mapping file %s: %w", path, err)
	}

	dec := json.NewDecoder(bytes.NewReader(b))
	dec.DisallowUnknownFields()
	var fr fileRecord
	if err := dec.Decode(&fr); err != nil {
		return Record{}, fmt.Errorf("parse mapping file %s: %w", path, err)
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		if err == nil {
			return Record{}, fmt.Errorf("parse mapping file %s: trailing JSON values", path)
		}
		return Record{}, fmt.Errorf("parse mapping file %s: trailing data: %w", path, err)
	}
	if fr.ServiceID != "" && fr.ServiceID != serviceID {
		return Record{}, fmt.Errorf("mapping file %s belongs to service %q", path, fr.ServiceID)
	}

	state := matrix.State{Mappings: fr.Mappings, Availability: fr.Availability}.Clone()
	return Record{ServiceID: serviceID, Revision: fr.Revision, SavedAt: fr.SavedAt, State: state}, nil
}

func (f *FileStore) Save(ctx context.Context, serviceID string, s matrix.State) (Record, error) {
	if err := checkServiceID(serviceID); err != nil {
		return Record{}, err
	}
	if err := ctx.Err(); err != nil {
		return Record{}, err
	}
	rec := newRecord(serviceID, s, f.now())
	b, err := json.MarshalIndent(fileRecord{
		ServiceID:    rec.ServiceID,
		Revision:     rec.Revision,
		SavedAt:      rec.SavedAt,
		Mappings:     rec.State.Mappings,
		Availability: rec.State.Availability,
	}, "", "  ")
	if err != nil {
		return Record{}, fmt.Errorf("marshal mappings: %w", err)
	}
	b = append(b, '\n')
	if err := fsutil.AtomicWriteFile(f.path(serviceID), b, 0o644); err != nil {
		return Record{}, fmt.Errorf("save %s: %w", serviceID, err)
	}
	return rec, nil
}

func (f *FileStore) Close() error { return nil }
