//
// Tencent is pleased to support the open source community by making compound-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// compound-agent-go is licensed under the Apache License Version 2.0.
//
//

package perception

import (
	"errors"
	"fmt"
	"strings"
)

// Gate rejection reasons.
var (
	// ErrTooShort is returned for empty or near-empty queries.
	ErrTooShort = errors.New("perception: query too short")
	// ErrHarmfulKeyword is returned when the query contains a blocked keyword.
	ErrHarmfulKeyword = errors.New("perception: query contains harmful keyword")
	// ErrSystemCommand is returned when the query starts with a command prefix.
	ErrSystemCommand = errors.New("perception: system commands are not allowed")
)

// harmfulKeywords are matched as substrings of the lowercased query.
var harmfulKeywords = []string{"delete", "drop", "remove", "kill", "crash", "hack", "exploit"}

// Gate validates a raw query before any processing happens. It rejects
// queries that are too short to mean anything, queries carrying harmful
// keywords, and queries that look like system commands. A nil return
// means the query may proceed.
func Gate(query string) error {
	if len(strings.TrimSpace(query)) < 3 {
		return fmt.Errorf("%w: please provide more details", ErrTooShort)
	}
	lowered := strings.ToLower(query)
	for _, kw := range harmfulKeywords {
		if strings.Contains(lowered, kw) {
			return fmt.Errorf("%w: %q", ErrHarmfulKeyword, kw)
		}
	}
	if strings.HasPrefix(query, "!") || strings.HasPrefix(query, "/") {
		return ErrSystemCommand
	}
	return nil
}
