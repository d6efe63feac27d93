//
// Tencent is pleased to support the open source community by making compound-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// compound-agent-go is licensed under the Apache License Version 2.0.
//
//

package preferences

import (
	"errors"
	"fmt"
	"sync"

	"trpc.group/trpc-go/compound-agent-go/internal/jsonfile"
)

const defaultPath = "user_preferences.json"

// managerOpts contains options for the preference manager.
type managerOpts struct {
	path string
}

// ManagerOpt is the option for the preference manager.
type ManagerOpt func(*managerOpts)

// WithPath sets the preference file path.
func WithPath(path string) ManagerOpt {
	return func(opts *managerOpts) {
		opts.path = path
	}
}

// Manager loads and persists one user's preference record.
type Manager struct {
	path string

	mu     sync.RWMutex
	prefs  Preferences
	loaded bool
}

// NewManager creates a manager and loads the preference file if it exists.
func NewManager(options ...ManagerOpt) (*Manager, error) {
	opts := managerOpts{path: defaultPath}
	for _, option := range options {
		option(&opts)
	}

	m := &Manager{path: opts.path}

	var stored Preferences
	err := jsonfile.Read(opts.path, &stored)
	switch {
	case err == nil:
		m.prefs = stored
		m.loaded = true
	case errors.Is(err, jsonfile.ErrNotExist):
		// First run, nothing saved yet.
	default:
		return nil, fmt.Errorf("failed to load preferences from %s: %w", opts.path, err)
	}

	return m, nil
}

// HasPreferences reports whether a saved record exists.
func (m *Manager) HasPreferences() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.loaded
}

// Preferences returns the current record. The second return value is false
// when nothing has been saved yet.
func (m *Manager) Preferences() (Preferences, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.prefs, m.loaded
}

// Save validates and persists a full preference record.
func (m *Manager) Save(prefs Preferences) error {
	if err := prefs.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := jsonfile.Write(m.path, &prefs); err != nil {
		return fmt.Errorf("failed to save preferences to %s: %w", m.path, err)
	}
	m.prefs = prefs
	m.loaded = true
	return nil
}

// SetInvestment merges new survey answers into the record and persists it.
// If no profile was collected yet the retention defaults so the record
// stays valid.
func (m *Manager) SetInvestment(investment Investment) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	prefs := m.prefs
	prefs.Investment = &investment
	if prefs.MemoryRetention == 0 {
		prefs.MemoryRetention = DefaultMemoryRetention
	}
	if err := prefs.Validate(); err != nil {
		return err
	}

	if err := jsonfile.Write(m.path, &prefs); err != nil {
		return fmt.Errorf("failed to save preferences to %s: %w", m.path, err)
	}
	m.prefs = prefs
	m.loaded = true
	return nil
}

// FormatForPrompt renders the current record for the decision prompt.
func (m *Manager) FormatForPrompt() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.loaded {
		return "No user preferences available."
	}
	return m.prefs.FormatForPrompt()
}
