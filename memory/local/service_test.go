//
// Tencent is pleased to support the open source community by making compound-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// compound-agent-go is licensed under the Apache License Version 2.0.
//
//

package local

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trpc.group/trpc-go/compound-agent-go/memory"
)

func newTestService(t *testing.T, options ...ServiceOpt) *Service {
	t.Helper()
	root := t.TempDir()
	service, err := NewService(append([]ServiceOpt{WithRoot(root)}, options...)...)
	require.NoError(t, err, "Should create service over a fresh root")
	return service
}

func entryAt(ts time.Time, interactionType string, importance int) memory.Entry {
	return memory.Entry{
		Timestamp:       ts,
		InteractionType: interactionType,
		Content:         map[string]any{"note": interactionType},
		Importance:      importance,
	}
}

func TestService_AddAndRead(t *testing.T) {
	ctx := context.Background()
	service := newTestService(t)
	userKey := memory.UserKey{AppName: "compound-agent", UserID: "u1"}

	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		err := service.AddEntry(ctx, userKey, entryAt(base.Add(time.Duration(i)*time.Minute), memory.InteractionToolCall, 5))
		require.NoError(t, err, "Should add entry")
	}

	entries, err := service.ReadEntries(ctx, userKey, 0)
	require.NoError(t, err)
	require.Len(t, entries, 3, "Should read all entries")
	assert.True(t, entries[0].Timestamp.After(entries[1].Timestamp), "Entries should be newest first")
	assert.True(t, entries[1].Timestamp.After(entries[2].Timestamp), "Entries should be newest first")

	recent, err := service.ReadEntries(ctx, userKey, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2, "Limit should cap the result")
	assert.Equal(t, base.Add(2*time.Minute), recent[0].Timestamp, "Newest entry should come first")
}

func TestService_TrimKeepsImportantEntries(t *testing.T) {
	ctx := context.Background()
	service := newTestService(t, WithRetention(3))
	userKey := memory.UserKey{AppName: "compound-agent", UserID: "u1"}

	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	importances := []int{5, 2, 9, 2, 5}
	for i, importance := range importances {
		err := service.AddEntry(ctx, userKey, entryAt(base.Add(time.Duration(i)*time.Minute), memory.InteractionToolCall, importance))
		require.NoError(t, err)
	}

	entries, err := service.ReadEntries(ctx, userKey, 0)
	require.NoError(t, err)
	require.Len(t, entries, 3, "Log should be trimmed to the retention bound")

	// The two importance-2 entries are evicted first; newest-first read order.
	assert.Equal(t, base.Add(4*time.Minute), entries[0].Timestamp)
	assert.Equal(t, base.Add(2*time.Minute), entries[1].Timestamp)
	assert.Equal(t, base, entries[2].Timestamp)
	assert.Equal(t, 9, entries[1].Importance, "High-importance entry should survive")
}

func TestService_DefaultsFilledOnAdd(t *testing.T) {
	ctx := context.Background()
	service := newTestService(t)
	userKey := memory.UserKey{AppName: "compound-agent", UserID: "u1"}

	err := service.AddEntry(ctx, userKey, memory.Entry{
		InteractionType: memory.InteractionFinalAnswer,
		Content:         map[string]any{"answer": "12557.51"},
	})
	require.NoError(t, err)

	entries, err := service.ReadEntries(ctx, userKey, 1)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.False(t, entries[0].Timestamp.IsZero(), "Zero timestamp should be filled")
	assert.Equal(t, 8, entries[0].Importance, "Zero importance should default per interaction type")
}

func TestService_ImportanceClamped(t *testing.T) {
	ctx := context.Background()
	service := newTestService(t)
	userKey := memory.UserKey{AppName: "compound-agent", UserID: "u1"}

	err := service.AddEntry(ctx, userKey, entryAt(time.Now(), memory.InteractionError, 42))
	require.NoError(t, err)

	entries, err := service.ReadEntries(ctx, userKey, 1)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, memory.MaxImportance, entries[0].Importance, "Importance should be clamped to the upper bound")
}

func TestService_PersistenceAcrossRestart(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	userKey := memory.UserKey{AppName: "compound-agent", UserID: "u1"}

	first, err := NewService(WithRoot(root))
	require.NoError(t, err)
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, first.AddEntry(ctx, userKey, entryAt(base, memory.InteractionUserQuery, 6)))
	require.NoError(t, first.AddEntry(ctx, userKey, entryAt(base.Add(time.Minute), memory.InteractionFinalAnswer, 8)))

	// A second service over the same root discovers the persisted file.
	second, err := NewService(WithRoot(root))
	require.NoError(t, err, "Startup scan should succeed")

	entries, err := second.ReadEntries(ctx, userKey, 0)
	require.NoError(t, err)
	require.Len(t, entries, 2, "Persisted entries should be reloaded")
	assert.Equal(t, memory.InteractionFinalAnswer, entries[0].InteractionType)
	assert.Equal(t, memory.InteractionUserQuery, entries[1].InteractionType)
}

func TestService_ScanIgnoresUnexpectedLayout(t *testing.T) {
	root := t.TempDir()
	// A memory file directly under an app directory does not match the
	// app/user layout and is left alone.
	require.NoError(t, os.MkdirAll(filepath.Join(root, "stray"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "stray", memoryFileName), []byte(`{"entries":[]}`), 0o644))

	service, err := NewService(WithRoot(root))
	require.NoError(t, err)
	assert.Empty(t, service.users, "Stray files should not populate any user")
}

func TestService_Clear(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	userKey := memory.UserKey{AppName: "compound-agent", UserID: "u1"}

	service, err := NewService(WithRoot(root))
	require.NoError(t, err)
	require.NoError(t, service.AddEntry(ctx, userKey, entryAt(time.Now(), memory.InteractionToolCall, 4)))

	require.NoError(t, service.ClearEntries(ctx, userKey))

	entries, err := service.ReadEntries(ctx, userKey, 0)
	require.NoError(t, err)
	assert.Empty(t, entries, "Clear should remove every entry")

	// The cleared state is persisted too.
	reloaded, err := NewService(WithRoot(root))
	require.NoError(t, err)
	entries, err = reloaded.ReadEntries(ctx, userKey, 0)
	require.NoError(t, err)
	assert.Empty(t, entries, "Cleared state should survive a restart")
}

func TestService_KeyValidation(t *testing.T) {
	ctx := context.Background()
	service := newTestService(t)

	err := service.AddEntry(ctx, memory.UserKey{UserID: "u1"}, entryAt(time.Now(), memory.InteractionToolCall, 4))
	assert.ErrorIs(t, err, memory.ErrAppNameRequired)

	err = service.AddEntry(ctx, memory.UserKey{AppName: "compound-agent"}, entryAt(time.Now(), memory.InteractionToolCall, 4))
	assert.ErrorIs(t, err, memory.ErrUserIDRequired)

	err = service.AddEntry(ctx, memory.UserKey{AppName: "compound-agent", UserID: "u1"}, memory.Entry{})
	assert.ErrorIs(t, err, ErrInteractionTypeRequired)

	_, err = service.ReadEntries(ctx, memory.UserKey{}, 0)
	assert.ErrorIs(t, err, memory.ErrAppNameRequired)
}

func TestNewService_MissingRootIsFresh(t *testing.T) {
	root := filepath.Join(t.TempDir(), "not-created-yet")
	service, err := NewService(WithRoot(root))
	require.NoError(t, err, "Missing root should be treated as a fresh store")
	assert.Empty(t, service.users)
}

func TestService_RetentionClamped(t *testing.T) {
	service := newTestService(t, WithRetention(0))
	assert.Equal(t, minRetention, service.retention)

	service = newTestService(t, WithRetention(1000))
	assert.Equal(t, maxRetention, service.retention)
}
