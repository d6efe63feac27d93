//
// Tencent is pleased to support the open source community by making compound-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// compound-agent-go is licensed under the Apache License Version 2.0.
//
//

// Package report renders a finished agent run as a PDF document.
//
// A Recorder consumes the run's event stream and keeps the pieces a
// report needs: the query, the perceived intent, every executed tool
// call and the final answer. WritePDF lays them out on an A4 page.
package report

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"

	"trpc.group/trpc-go/compound-agent-go/action"
	"trpc.group/trpc-go/compound-agent-go/agent"
	"trpc.group/trpc-go/compound-agent-go/event"
	"trpc.group/trpc-go/compound-agent-go/model"
	"trpc.group/trpc-go/compound-agent-go/perception"
	"trpc.group/trpc-go/compound-agent-go/plan"
)

// Step is one executed tool call row in the report table.
type Step struct {
	// Index is the 1-based position of the call in the run.
	Index int
	// Tool is the invoked tool name.
	Tool string
	// Signature is the canonical tool(arg=value,...) form of the call.
	Signature string
	// Result is the tool result rendered for display.
	Result string
}

// Recorder accumulates the artifacts of one run as its events stream in.
// It is driven from a single event loop and is not safe for concurrent use.
type Recorder struct {
	agentName   string
	query       string
	intent      perception.Intent
	confidence  float64
	steps       []Step
	errors      []string
	finalAnswer string
}

// NewRecorder creates a recorder for one run of the named agent.
func NewRecorder(agentName, query string) *Recorder {
	return &Recorder{agentName: agentName, query: query}
}

// Observe folds one event into the recorder. Events the report has no
// use for are ignored.
func (r *Recorder) Observe(evt *event.Event) {
	if evt == nil {
		return
	}
	switch payload := evt.StructuredOutput.(type) {
	case *perception.Result:
		r.intent = payload.Intent
		r.confidence = payload.Confidence
	case *agent.StepOutcome:
		r.steps = append(r.steps, Step{
			Index:     payload.Index,
			Tool:      payload.Tool,
			Signature: payload.Signature,
			Result:    payload.Text,
		})
	case *action.Outcome:
		r.steps = append(r.steps, Step{
			Index:     len(r.steps) + 1,
			Tool:      payload.Tool,
			Signature: plan.Signature(payload.Tool, payload.Args),
			Result:    payload.Text,
		})
	}
	if evt.Response == nil {
		return
	}
	if evt.Error != nil {
		r.errors = append(r.errors, fmt.Sprintf("%s: %s", evt.Error.Type, evt.Error.Message))
		return
	}
	if evt.Done && evt.Object == model.ObjectTypeChatCompletion {
		if content := eventContent(evt); content != "" {
			r.finalAnswer = content
		}
	}
}

// Empty reports whether the recorder holds nothing worth exporting.
func (r *Recorder) Empty() bool {
	return len(r.steps) == 0 && r.finalAnswer == "" && len(r.errors) == 0
}

// Export renders the report and writes it to the given file path.
func (r *Recorder) Export(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report file: %w", err)
	}
	if err := r.WritePDF(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// WritePDF renders the report as a PDF document to w.
func (r *Recorder) WritePDF(w io.Writer) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Compound Agent Session Report", false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, "Compound Agent Session Report", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.SetTextColor(120, 120, 120)
	meta := fmt.Sprintf("Agent: %s    Generated: %s",
		r.agentName, time.Now().Format("2006-01-02 15:04:05"))
	pdf.CellFormat(0, 6, meta, "", 1, "L", false, 0, "")
	pdf.SetTextColor(0, 0, 0)
	pdf.Ln(2)

	heading(pdf, "Query")
	pdf.SetFont("Helvetica", "", 10)
	pdf.MultiCell(0, 5, r.query, "", "L", false)
	pdf.Ln(2)

	if r.intent != "" {
		heading(pdf, "Perception")
		pdf.SetFont("Helvetica", "", 10)
		line := fmt.Sprintf("Intent: %s (confidence %.1f)", r.intent, r.confidence)
		pdf.CellFormat(0, 5, line, "", 1, "L", false, 0, "")
		pdf.Ln(2)
	}

	if len(r.steps) > 0 {
		heading(pdf, "Execution")
		writeTable(pdf, r.steps)
		pdf.Ln(2)
	}

	if len(r.errors) > 0 {
		heading(pdf, "Errors")
		pdf.SetFont("Helvetica", "", 10)
		for _, msg := range r.errors {
			pdf.MultiCell(0, 5, msg, "", "L", false)
		}
		pdf.Ln(2)
	}

	if r.finalAnswer != "" {
		heading(pdf, "Final Answer")
		pdf.SetFont("Helvetica", "", 10)
		pdf.MultiCell(0, 5, r.finalAnswer, "", "L", false)
	}

	return pdf.Output(w)
}

func heading(pdf *fpdf.Fpdf, title string) {
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 8, title, "", 1, "L", false, 0, "")
}

// Column widths sum to the usable width of an A4 page with default margins.
const (
	colIndex  = 10.0
	colTool   = 58.0
	colArgs   = 72.0
	colResult = 50.0
)

func writeTable(pdf *fpdf.Fpdf, steps []Step) {
	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(240, 240, 240)
	pdf.CellFormat(colIndex, 7, "#", "1", 0, "C", true, 0, "")
	pdf.CellFormat(colTool, 7, "Tool", "1", 0, "L", true, 0, "")
	pdf.CellFormat(colArgs, 7, "Arguments", "1", 0, "L", true, 0, "")
	pdf.CellFormat(colResult, 7, "Result", "1", 1, "L", true, 0, "")
	pdf.SetFont("Courier", "", 8)
	for _, s := range steps {
		args := strings.TrimSuffix(strings.TrimPrefix(s.Signature, s.Tool+"("), ")")
		pdf.CellFormat(colIndex, 6, strconv.Itoa(s.Index), "1", 0, "C", false, 0, "")
		pdf.CellFormat(colTool, 6, fitText(pdf, s.Tool, colTool-2), "1", 0, "L", false, 0, "")
		pdf.CellFormat(colArgs, 6, fitText(pdf, args, colArgs-2), "1", 0, "L", false, 0, "")
		pdf.CellFormat(colResult, 6, fitText(pdf, s.Result, colResult-2), "1", 1, "L", false, 0, "")
	}
}

// fitText trims s with an ellipsis so it fits a cell of width w in the
// current font.
func fitText(pdf *fpdf.Fpdf, s string, w float64) string {
	if pdf.GetStringWidth(s) <= w {
		return s
	}
	for len(s) > 0 && pdf.GetStringWidth(s+"...") > w {
		s = s[:len(s)-1]
	}
	return s + "..."
}

func eventContent(evt *event.Event) string {
	if evt.Response == nil || len(evt.Choices) == 0 {
		return ""
	}
	return evt.Choices[0].Message.Content
}
