//
// Tencent is pleased to support the open source community by making compound-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// compound-agent-go is licensed under the Apache License Version 2.0.
//
//

package event

import (
	"testing"

	"trpc.group/trpc-go/compound-agent-go/model"
)

func TestEvent_Clone_DeepCopy(t *testing.T) {
	e := &Event{
		Response: &model.Response{
			Object: model.ObjectTypeChatCompletion,
			Done:   true,
			Choices: []model.Choice{{
				Message: model.NewAssistantMessage("FINAL_ANSWER: 12507.51"),
			}},
		},
		InvocationID: "inv-1",
		Author:       "tester",
	}

	c := e.Clone()
	if c == nil || c == e {
		t.Fatalf("expected a distinct clone instance")
	}
	if c.Response == e.Response {
		t.Fatalf("expected a deep copy of the response")
	}
	// Mutate clone and ensure original not affected.
	c.Choices[0].Message.Content = "mutated"
	if e.Choices[0].Message.Content != "FINAL_ANSWER: 12507.51" {
		t.Errorf("original response mutated by clone")
	}
}

func TestEvent_Clone_Nil(t *testing.T) {
	var e *Event
	if e.Clone() != nil {
		t.Errorf("cloning a nil event should yield nil")
	}
}
