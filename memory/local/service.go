//
// Tencent is pleased to support the open source community by making compound-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// compound-agent-go is licensed under the Apache License Version 2.0.
//
//

// Package local provides a file-backed memory service. Each app/user pair
// owns one JSON file under the store root; existing files are discovered
// with a glob and parsed concurrently when the service starts.
package local

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/panjf2000/ants/v2"

	"trpc.group/trpc-go/compound-agent-go/internal/jsonfile"
	"trpc.group/trpc-go/compound-agent-go/log"
	"trpc.group/trpc-go/compound-agent-go/memory"
)

const (
	memoryFileName = "memory.json"

	defaultRoot            = "agent_memory"
	defaultRetention       = 50
	defaultScanParallelism = 4

	minRetention = 1
	maxRetention = 100
)

// ErrInteractionTypeRequired is the error for interaction type required.
var ErrInteractionTypeRequired = errors.New("interaction type is required")

// userMemory is the on-disk shape of one user's memory file.
type userMemory struct {
	Entries []memory.Entry `json:"entries"`
}

// serviceOpts contains options for the file-backed memory service.
type serviceOpts struct {
	root            string
	retention       int
	scanParallelism int
}

// ServiceOpt is the option for the file-backed memory service.
type ServiceOpt func(*serviceOpts)

// WithRoot sets the directory holding the per-app/per-user memory files.
func WithRoot(root string) ServiceOpt {
	return func(opts *serviceOpts) {
		opts.root = root
	}
}

// WithRetention sets how many entries each user keeps. Values are clamped
// to [1, 100].
func WithRetention(retention int) ServiceOpt {
	return func(opts *serviceOpts) {
		opts.retention = retention
	}
}

// WithScanParallelism sets the worker count for the startup file scan.
func WithScanParallelism(parallelism int) ServiceOpt {
	return func(opts *serviceOpts) {
		if parallelism > 0 {
			opts.scanParallelism = parallelism
		}
	}
}

// Service is a file-backed implementation of memory.Service.
type Service struct {
	root      string
	retention int

	mu    sync.RWMutex
	users map[memory.UserKey][]memory.Entry
}

var _ memory.Service = (*Service)(nil)

// NewService creates a file-backed memory service and loads any memory
// files already present under the root.
func NewService(options ...ServiceOpt) (*Service, error) {
	opts := serviceOpts{
		root:            defaultRoot,
		retention:       defaultRetention,
		scanParallelism: defaultScanParallelism,
	}
	for _, option := range options {
		option(&opts)
	}

	s := &Service{
		root:      opts.root,
		retention: clampRetention(opts.retention),
		users:     make(map[memory.UserKey][]memory.Entry),
	}
	if err := s.scan(opts.scanParallelism); err != nil {
		return nil, err
	}
	return s, nil
}

// clampRetention keeps the retention bound in the same range the
// preferences survey accepts.
func clampRetention(retention int) int {
	if retention < minRetention {
		return minRetention
	}
	if retention > maxRetention {
		return maxRetention
	}
	return retention
}

// scan discovers persisted memory files under the root and parses them
// concurrently. A missing root is treated as a fresh store.
func (s *Service) scan(parallelism int) error {
	matches, err := doublestar.Glob(os.DirFS(s.root), "**/"+memoryFileName)
	if err != nil {
		return fmt.Errorf("failed to scan memory files under %s: %w", s.root, err)
	}
	if len(matches) == 0 {
		return nil
	}

	pool, err := ants.NewPool(parallelism)
	if err != nil {
		return fmt.Errorf("failed to create memory scan worker pool: %w", err)
	}
	defer pool.Release()

	var wg sync.WaitGroup
	var mu sync.Mutex
	errCh := make(chan error, len(matches))

	for _, match := range matches {
		wg.Add(1)
		path := match
		err := pool.Submit(func() {
			defer wg.Done()
			parts := strings.Split(path, "/")
			if len(parts) != 3 {
				log.Warnf("Skipping memory file with unexpected layout: %s", path)
				return
			}
			key := memory.UserKey{AppName: parts[0], UserID: parts[1]}

			var stored userMemory
			if err := jsonfile.Read(filepath.Join(s.root, filepath.FromSlash(path)), &stored); err != nil {
				errCh <- fmt.Errorf("failed to load memory file %s: %w", path, err)
				return
			}

			mu.Lock()
			s.users[key] = stored.Entries
			mu.Unlock()
		})
		if err != nil {
			wg.Done()
			errCh <- fmt.Errorf("failed to submit memory scan task: %w", err)
		}
	}

	wg.Wait()
	close(errCh)

	if err := <-errCh; err != nil {
		return err
	}

	log.Debugf("Loaded memory files (count=%d, root=%s)", len(matches), s.root)
	return nil
}

// AddEntry implements memory.Service.
func (s *Service) AddEntry(ctx context.Context, userKey memory.UserKey, entry memory.Entry) error {
	if err := userKey.CheckUserKey(); err != nil {
		return err
	}
	if entry.InteractionType == "" {
		return ErrInteractionTypeRequired
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}
	if entry.Importance == 0 {
		entry.Importance = memory.DefaultImportanceFor(entry.InteractionType)
	}
	entry.Importance = memory.ClampImportance(entry.Importance)

	s.mu.Lock()
	defer s.mu.Unlock()

	entries := append(s.users[userKey], entry)
	entries = trim(entries, s.retention)
	s.users[userKey] = entries

	return s.persist(userKey, entries)
}

// ReadEntries implements memory.Service.
func (s *Service) ReadEntries(ctx context.Context, userKey memory.UserKey, limit int) ([]memory.Entry, error) {
	if err := userKey.CheckUserKey(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	stored := s.users[userKey]
	entries := make([]memory.Entry, len(stored))
	copy(entries, stored)
	s.mu.RUnlock()

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Timestamp.After(entries[j].Timestamp)
	})
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

// ClearEntries implements memory.Service.
func (s *Service) ClearEntries(ctx context.Context, userKey memory.UserKey) error {
	if err := userKey.CheckUserKey(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.users, userKey)
	return s.persist(userKey, []memory.Entry{})
}

// trim drops the lowest-importance, oldest entries once the log exceeds
// the retention bound.
func trim(entries []memory.Entry, retention int) []memory.Entry {
	if len(entries) <= retention {
		return entries
	}
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Importance != entries[j].Importance {
			return entries[i].Importance < entries[j].Importance
		}
		return entries[i].Timestamp.Before(entries[j].Timestamp)
	})
	return entries[len(entries)-retention:]
}

// persist writes one user's memory file. Callers hold the write lock.
func (s *Service) persist(userKey memory.UserKey, entries []memory.Entry) error {
	path := filepath.Join(s.root, userKey.AppName, userKey.UserID, memoryFileName)
	stored := userMemory{Entries: entries}
	if err := jsonfile.Write(path, &stored); err != nil {
		return fmt.Errorf("failed to persist memory for %s/%s: %w", userKey.AppName, userKey.UserID, err)
	}
	return nil
}
