// Package fs stores journal records as JSON documents on any afs storage
// (local files, mem://, cloud buckets).
package fs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/viant/afs"
	"github.com/viant/afs/file"
	"github.com/viant/afs/url"

	"github.com/deepammi/Multi-Agent-Custom-Automation-Engine-Solution-Accelerator-sub005/model/workflow"
	"github.com/deepammi/Multi-Agent-Custom-Automation-Engine-Solution-Accelerator-sub005/service/journal"
	"github.com/deepammi/Multi-Agent-Custom-Automation-Engine-Solution-Accelerator-sub005/service/store"
)

const (
	snapshotFile = "snapshot.json"
	entryPrefix  = "log-"
)

// Sink writes records under <base>/<workflow_id>/.
type Sink struct {
	basePath string
	fs       afs.Service
	mu       sync.RWMutex
}

// New creates a sink rooted at basePath, creating it when missing.
func New(ctx context.Context, basePath string) (*Sink, error) {
	if basePath == "" {
		return nil, fmt.Errorf("base path cannot be empty")
	}
	fs := afs.New()
	exists, _ := fs.Exists(ctx, basePath)
	if !exists {
		if err := fs.Create(ctx, basePath, file.DefaultDirOsMode, true); err != nil {
			return nil, fmt.Errorf("failed to create journal directory: %w", err)
		}
	}
	return &Sink{basePath: url.Normalize(basePath, file.Scheme), fs: fs}, nil
}

func (s *Sink) WriteEntry(ctx context.Context, workflowID string, entry *workflow.LogEntry) error {
	if workflowID == "" {
		return store.ErrInvalidID
	}
	name := fmt.Sprintf("%s%04d-%s-%d.json", entryPrefix, entry.StepIndex, entry.Agent, entry.Timestamp.UnixNano())
	return s.upload(ctx, url.Join(s.workflowPath(workflowID), name), entry)
}

func (s *Sink) WriteSnapshot(ctx context.Context, snapshot *workflow.Context) error {
	if snapshot == nil || snapshot.WorkflowID == "" {
		return store.ErrInvalidID
	}
	return s.upload(ctx, url.Join(s.workflowPath(snapshot.WorkflowID), snapshotFile), snapshot)
}

func (s *Sink) upload(ctx context.Context, location string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal journal record: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err = s.fs.Upload(ctx, location, file.DefaultFileOsMode, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to write %s: %w", location, err)
	}
	return nil
}

// LoadSnapshot reads the last snapshot of a workflow.
func (s *Sink) LoadSnapshot(ctx context.Context, workflowID string) (*workflow.Context, error) {
	location := url.Join(s.workflowPath(workflowID), snapshotFile)
	s.mu.RLock()
	defer s.mu.RUnlock()
	exists, err := s.fs.Exists(ctx, location)
	if err != nil {
		return nil, fmt.Errorf("failed to check snapshot: %w", err)
	}
	if !exists {
		return nil, store.ErrNotFound
	}
	data, err := s.fs.DownloadWithURL(ctx, location)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}
	ret := &workflow.Context{}
	if err := json.Unmarshal(data, ret); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}
	return ret, nil
}

// Entries reads the log entries of a workflow ordered by step.
func (s *Sink) Entries(ctx context.Context, workflowID string) ([]*workflow.LogEntry, error) {
	location := s.workflowPath(workflowID)
	s.mu.RLock()
	defer s.mu.RUnlock()
	if exists, _ := s.fs.Exists(ctx, location); !exists {
		return nil, store.ErrNotFound
	}
	objects, err := s.fs.List(ctx, location)
	if err != nil {
		return nil, fmt.Errorf("failed to list journal: %w", err)
	}
	var ret []*workflow.LogEntry
	for _, object := range objects {
		if object.IsDir() || !strings.HasPrefix(object.Name(), entryPrefix) {
			continue
		}
		data, err := s.fs.Download(ctx, object)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", object.URL(), err)
		}
		entry := &workflow.LogEntry{}
		if err := json.Unmarshal(data, entry); err != nil {
			return nil, fmt.Errorf("failed to unmarshal %s: %w", object.URL(), err)
		}
		ret = append(ret, entry)
	}
	sort.SliceStable(ret, func(i, j int) bool {
		if ret[i].StepIndex != ret[j].StepIndex {
			return ret[i].StepIndex < ret[j].StepIndex
		}
		return ret[i].Timestamp.Before(ret[j].Timestamp)
	})
	return ret, nil
}

func (s *Sink) workflowPath(id string) string {
	return url.Join(s.basePath, id)
}

var _ journal.Sink = (*Sink)(nil)
