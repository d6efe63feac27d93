//
// Tencent is pleased to support the open source community by making compound-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// compound-agent-go is licensed under the Apache License Version 2.0.
//
//

package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"trpc.group/trpc-go/compound-agent-go/action"
	"trpc.group/trpc-go/compound-agent-go/decision"
	"trpc.group/trpc-go/compound-agent-go/event"
	"trpc.group/trpc-go/compound-agent-go/finance"
	"trpc.group/trpc-go/compound-agent-go/log"
	"trpc.group/trpc-go/compound-agent-go/memory"
	"trpc.group/trpc-go/compound-agent-go/model"
	"trpc.group/trpc-go/compound-agent-go/perception"
	"trpc.group/trpc-go/compound-agent-go/plan"
	"trpc.group/trpc-go/compound-agent-go/preferences"
	"trpc.group/trpc-go/compound-agent-go/telemetry"
	"trpc.group/trpc-go/compound-agent-go/tool"
)

var defaultChannelBufferSize = 256

// defaultMemoryContext is how many recent memory entries the decision
// prompt carries.
const defaultMemoryContext = 5

// defaultPersonality is used when no preference record names one.
const defaultPersonality = "professional"

type options struct {
	model             model.Model
	channel           tool.Channel
	extractor         perception.Extractor
	memory            memory.Service
	userKey           memory.UserKey
	prefs             *preferences.Preferences
	description       string
	maxIterations     int
	memoryContext     int
	channelBufferSize int
	reviewQueries     bool
	decisionOpts      []decision.Option
}

// Option configures a CompoundAgent.
type Option func(*options)

// WithModel sets the model behind the decision source. Without a model
// the agent still answers calculation queries through the plan, but
// general queries fail.
func WithModel(m model.Model) Option {
	return func(opts *options) {
		opts.model = m
	}
}

// WithChannel sets the tool invocation channel. Required.
func WithChannel(ch tool.Channel) Option {
	return func(opts *options) {
		opts.channel = ch
	}
}

// WithExtractor replaces the default regex entity extractor.
func WithExtractor(e perception.Extractor) Option {
	return func(opts *options) {
		opts.extractor = e
	}
}

// WithMemory sets the memory service runs are recorded into. Without it
// the agent keeps no memory.
func WithMemory(m memory.Service) Option {
	return func(opts *options) {
		opts.memory = m
	}
}

// WithUserKey sets the app/user key memory entries are recorded under.
func WithUserKey(key memory.UserKey) Option {
	return func(opts *options) {
		opts.userKey = key
	}
}

// WithPreferences sets the preference record rendered into the decision
// prompt; its personality also shapes the agent persona.
func WithPreferences(p *preferences.Preferences) Option {
	return func(opts *options) {
		opts.prefs = p
	}
}

// WithDescription sets the description of the agent.
func WithDescription(description string) Option {
	return func(opts *options) {
		opts.description = description
	}
}

// WithMaxIterations caps the decision loop. Non-positive keeps the
// default.
func WithMaxIterations(n int) Option {
	return func(opts *options) {
		if n > 0 {
			opts.maxIterations = n
		}
	}
}

// WithMemoryContext sets how many recent memory entries the decision
// prompt carries. Non-positive keeps the default.
func WithMemoryContext(n int) Option {
	return func(opts *options) {
		if n > 0 {
			opts.memoryContext = n
		}
	}
}

// WithChannelBufferSize sets the buffer size for event channels.
func WithChannelBufferSize(size int) Option {
	return func(opts *options) {
		if size > 0 {
			opts.channelBufferSize = size
		}
	}
}

// WithQueryReview runs the model query review before perception. Needs a
// model.
func WithQueryReview(enabled bool) Option {
	return func(opts *options) {
		opts.reviewQueries = enabled
	}
}

// WithDecisionOptions passes options through to the decision source.
func WithDecisionOptions(decisionOpts ...decision.Option) Option {
	return func(opts *options) {
		opts.decisionOpts = append(opts.decisionOpts, decisionOpts...)
	}
}

// CompoundAgent answers compound-interest queries by walking the fixed
// execution plan, and everything else through the model decision loop.
// Every run owns its plan state and history; the agent itself is safe to
// share across runs.
type CompoundAgent struct {
	name          string
	description   string
	modelName     string
	channel       tool.Channel
	executor      *action.Executor
	extractor     perception.Extractor
	source        *decision.Source
	memory        memory.Service
	userKey       memory.UserKey
	prefs         *preferences.Preferences
	maxIterations int
	memoryContext int
	bufferSize    int
	reviewQueries bool
}

// New creates a CompoundAgent with the given name.
func New(name string, opts ...Option) (*CompoundAgent, error) {
	options := options{
		extractor:         perception.NewRegexExtractor(),
		userKey:           memory.UserKey{AppName: "compound-agent", UserID: "default"},
		description:       "Agent that solves compound interest problems with verified tool calls.",
		maxIterations:     decision.DefaultMaxIterations,
		memoryContext:     defaultMemoryContext,
		channelBufferSize: defaultChannelBufferSize,
	}
	for _, opt := range opts {
		opt(&options)
	}
	if options.channel == nil {
		return nil, errors.New("agent: tool channel is required")
	}

	a := &CompoundAgent{
		name:          name,
		description:   options.description,
		channel:       options.channel,
		executor:      action.NewExecutor(options.channel),
		extractor:     options.extractor,
		memory:        options.memory,
		userKey:       options.userKey,
		prefs:         options.prefs,
		maxIterations: options.maxIterations,
		memoryContext: options.memoryContext,
		bufferSize:    options.channelBufferSize,
		reviewQueries: options.reviewQueries,
	}
	if options.model != nil {
		a.source = decision.NewSource(options.model, options.decisionOpts...)
		a.modelName = options.model.Info().Name
	}
	return a, nil
}

// Info implements the Agent interface.
func (a *CompoundAgent) Info() Info {
	return Info{Name: a.name, Description: a.description}
}

// Tools implements the Agent interface.
func (a *CompoundAgent) Tools(ctx context.Context) ([]*tool.Declaration, error) {
	return a.channel.Tools(ctx)
}

// Run implements the Agent interface. The events of the run arrive on
// the returned channel; the channel closes when the run ends.
func (a *CompoundAgent) Run(ctx context.Context, invocation *Invocation) (<-chan *event.Event, error) {
	if invocation == nil {
		return nil, errors.New("agent: invocation is required")
	}
	if invocation.InvocationID == "" {
		invocation.InvocationID = uuid.New().String()
	}
	if invocation.AgentName == "" {
		invocation.AgentName = a.name
	}

	out := make(chan *event.Event, a.bufferSize)
	go a.run(ctx, invocation, out)
	return out, nil
}

func (a *CompoundAgent) run(ctx context.Context, inv *Invocation, out chan<- *event.Event) {
	defer close(out)

	ctx, span := telemetry.Tracer.Start(ctx, telemetry.SpanNameRunAgent)
	defer span.End()

	query := inv.Message.Content
	span.SetAttributes(
		attribute.String(telemetry.KeyInvocationID, inv.InvocationID),
		attribute.String(telemetry.KeyQuery, query),
	)

	if a.reviewQueries && a.source != nil {
		review := a.source.ReviewQuery(ctx, query)
		if !review.OK {
			a.remember(ctx, memory.InteractionError, map[string]any{"query": query, "error": review.Reason})
			a.emit(ctx, out, event.NewErrorEvent(inv.InvocationID, inv.AgentName, ErrorTypeInvalidQuery, review.Reason))
			return
		}
		if review.Modified {
			log.Infof("query review rewrote the query: %s", review.Query)
			query = review.Query
		}
	}

	per, err := a.extractor.Perceive(query)
	if err != nil {
		a.remember(ctx, memory.InteractionError, map[string]any{"query": query, "error": err.Error()})
		a.emit(ctx, out, event.NewErrorEvent(inv.InvocationID, inv.AgentName, ErrorTypeInvalidQuery, err.Error()))
		return
	}
	span.SetAttributes(attribute.String(telemetry.KeyIntent, string(per.Intent)))

	a.remember(ctx, memory.InteractionUserQuery, map[string]any{"query": query, "perception": per})
	if !a.emit(ctx, out, newPerceptionEvent(inv, per)) {
		return
	}

	var answer string
	if per.Intent == perception.IntentCalculation {
		answer = a.runPlan(ctx, inv, per, out)
	} else {
		answer = a.runDecisionLoop(ctx, inv, per, out)
	}
	if answer == "" {
		return
	}

	span.SetAttributes(attribute.String(telemetry.KeyFinalAnswer, answer))
	a.remember(ctx, memory.InteractionFinalAnswer, map[string]any{"answer": answer})
	a.emit(ctx, out, newFinalEvent(inv, answer))
}

// runPlan builds the fixed execution plan from the perceived entities and
// walks it step by step. Returns the composed final answer, or empty
// after emitting an error event.
func (a *CompoundAgent) runPlan(ctx context.Context, inv *Invocation, per *perception.Result, out chan<- *event.Event) string {
	steps, err := plan.Build(per.Entities)
	if err != nil {
		a.remember(ctx, memory.InteractionError, map[string]any{"error": err.Error()})
		a.emit(ctx, out, event.NewErrorEvent(inv.InvocationID, inv.AgentName, ErrorTypePlanExecution, err.Error()))
		return ""
	}

	state := plan.NewState(steps, plan.NewHistory())
	for {
		next, err := state.NextStep()
		if errors.Is(err, plan.ErrPlanComplete) {
			break
		}
		if err != nil {
			a.remember(ctx, memory.InteractionError, map[string]any{"error": err.Error()})
			a.emit(ctx, out, event.NewErrorEvent(inv.InvocationID, inv.AgentName, ErrorTypePlanExecution, err.Error()))
			return ""
		}

		_, stepSpan := telemetry.Tracer.Start(ctx, telemetry.NewPlanStepSpanName(next.Step.ID))
		outcome := a.executor.Execute(ctx, next.Step.Tool, next.Args)
		telemetry.TraceToolCall(stepSpan, outcome.Tool, outcome.Args, outcome.Text)
		stepSpan.End()

		if !outcome.Success {
			msg := fmt.Sprintf("step %s: %s", next.Step.ID, outcome.Error)
			a.remember(ctx, memory.InteractionError, map[string]any{"tool": outcome.Tool, "args": outcome.Args, "error": outcome.Error})
			a.emit(ctx, out, event.NewErrorEvent(inv.InvocationID, inv.AgentName, ErrorTypeToolExecution, msg))
			return ""
		}
		if err := state.RecordResult(next, outcome.Result); err != nil {
			a.emit(ctx, out, event.NewErrorEvent(inv.InvocationID, inv.AgentName, ErrorTypePlanExecution, err.Error()))
			return ""
		}

		a.remember(ctx, memory.InteractionToolCall, map[string]any{
			"tool":      outcome.Tool,
			"args":      outcome.Args,
			"result":    outcome.Result,
			"signature": next.Signature,
		})
		stepEvt := newPlanStepEvent(inv, &StepOutcome{
			StepID:    next.Step.ID,
			Tool:      next.Step.Tool,
			Args:      next.Args,
			Rationale: next.Step.Rationale,
			Signature: next.Signature,
			Result:    outcome.Result,
			Text:      outcome.Text,
			Index:     next.Index + 1,
			Total:     state.Len(),
		})
		if !a.emit(ctx, out, stepEvt) {
			return ""
		}
	}

	answer, err := composeAnswer(per.Entities, state)
	if err != nil {
		a.emit(ctx, out, event.NewErrorEvent(inv.InvocationID, inv.AgentName, ErrorTypePlanExecution, err.Error()))
		return ""
	}
	return answer
}

// runDecisionLoop hands the query to the model one round at a time,
// executing requested tool calls until a terminal decision or the
// iteration cap. Returns the final answer text, or empty after emitting
// an error event.
func (a *CompoundAgent) runDecisionLoop(ctx context.Context, inv *Invocation, per *perception.Result, out chan<- *event.Event) string {
	if a.source == nil {
		msg := "no model configured for general queries"
		a.remember(ctx, memory.InteractionError, map[string]any{"error": msg})
		a.emit(ctx, out, event.NewErrorEvent(inv.InvocationID, inv.AgentName, ErrorTypeDecision, msg))
		return ""
	}
	decls, err := a.channel.Tools(ctx)
	if err != nil {
		a.remember(ctx, memory.InteractionError, map[string]any{"error": err.Error()})
		a.emit(ctx, out, event.NewErrorEvent(inv.InvocationID, inv.AgentName, ErrorTypeDecision, err.Error()))
		return ""
	}

	transcript := decision.NewTranscript(per.Input)
	history := plan.NewHistory()

	for i := 1; i <= a.maxIterations; i++ {
		systemPrompt := decision.SystemPrompt(decls, a.promptSections(ctx, per, transcript)...)

		_, chatSpan := telemetry.Tracer.Start(ctx, telemetry.NewChatSpanName(a.modelName))
		d := a.source.Decide(ctx, systemPrompt, transcript.UserPrompt())
		telemetry.TraceDecision(chatSpan, d.NextAction, d.ToolName, d.Reasoning)
		chatSpan.End()

		if d.Terminal() {
			switch d.NextAction {
			case decision.ActionErrorHandling:
				a.remember(ctx, memory.InteractionError, map[string]any{"error": d.Reasoning})
				a.emit(ctx, out, event.NewErrorEvent(inv.InvocationID, inv.AgentName, ErrorTypeDecision, d.Reasoning))
				return ""
			case decision.ActionFinalAnswer:
				return renderFinalAnswer(d.FinalAnswer)
			default:
				return d.Reasoning
			}
		}
		if !d.IsToolCall() {
			log.Warnf("decision without tool call or terminal action: %s", d.NextAction)
			continue
		}

		sig := plan.Signature(d.ToolName, d.ToolArgs)
		if history.Seen(sig) || transcript.Completed(d.Key()) {
			log.Debugf("skipping duplicate call %s", sig)
			transcript.RecordDuplicate(d)
			continue
		}

		_, toolSpan := telemetry.Tracer.Start(ctx, telemetry.NewExecuteToolSpanName(d.ToolName))
		outcome := a.executor.Execute(ctx, d.ToolName, d.ToolArgs)
		telemetry.TraceToolCall(toolSpan, outcome.Tool, outcome.Args, outcome.Text)
		toolSpan.End()

		if !outcome.Success {
			a.remember(ctx, memory.InteractionError, map[string]any{"tool": outcome.Tool, "args": outcome.Args, "error": outcome.Error})
			a.emit(ctx, out, event.NewErrorEvent(inv.InvocationID, inv.AgentName, ErrorTypeToolExecution, outcome.Error))
			return ""
		}

		history.Record(plan.ExecutionRecord{
			Tool:      d.ToolName,
			Args:      outcome.Args,
			Result:    outcome.Result,
			Signature: sig,
		})
		transcript.RecordCall(i, d, outcome.Text)
		a.remember(ctx, memory.InteractionToolCall, map[string]any{
			"tool":      outcome.Tool,
			"args":      outcome.Args,
			"result":    outcome.Result,
			"signature": sig,
		})
		if !a.emit(ctx, out, newToolEvent(inv, outcome, sig)) {
			return ""
		}
	}

	return decision.MaxIterations().Reasoning
}

// promptSections assembles the persona, perception, memory, preference
// and progress blocks of the decision system prompt. Rebuilt every round
// so memory and completed steps stay current.
func (a *CompoundAgent) promptSections(ctx context.Context, per *perception.Result, transcript *decision.Transcript) []string {
	persona := fmt.Sprintf(
		"As %s, with a %s personality, analyze the following situation and decide the next action.",
		a.name, a.personality())

	entities := "{}"
	if per.Intent == perception.IntentCalculation {
		if bts, err := json.Marshal(per.Entities); err == nil {
			entities = string(bts)
		}
	}
	perceptionBlock := fmt.Sprintf(
		"Current Perception:\n- Processed Input: %s\n- Intent: %s\n- Entities: %s\n- Confidence: %.1f",
		per.Input, per.Intent, entities, per.Confidence)

	memoryBlock := decision.FormatMemoryContext(a.recentEntries(ctx))

	prefsBlock := ""
	if a.prefs != nil {
		prefsBlock = a.prefs.FormatForPrompt()
	}

	completed := "None"
	if keys := transcript.CompletedKeys(); len(keys) > 0 {
		completed = strings.Join(keys, ", ")
	}
	completedBlock := "Previous Steps Completed:\n" + completed

	return []string{persona, perceptionBlock, memoryBlock, prefsBlock, completedBlock}
}

func (a *CompoundAgent) personality() string {
	if a.prefs != nil && a.prefs.Personality != "" {
		return a.prefs.Personality
	}
	return defaultPersonality
}

func (a *CompoundAgent) recentEntries(ctx context.Context) []memory.Entry {
	if a.memory == nil {
		return nil
	}
	entries, err := a.memory.ReadEntries(ctx, a.userKey, a.memoryContext)
	if err != nil {
		log.Warnf("failed to read memory entries: %v", err)
		return nil
	}
	return entries
}

func (a *CompoundAgent) remember(ctx context.Context, interactionType string, content map[string]any) {
	if a.memory == nil {
		return
	}
	entry := memory.Entry{InteractionType: interactionType, Content: content}
	if err := a.memory.AddEntry(ctx, a.userKey, entry); err != nil {
		log.Warnf("failed to record %s memory entry: %v", interactionType, err)
	}
}

func (a *CompoundAgent) emit(ctx context.Context, out chan<- *event.Event, evt *event.Event) bool {
	select {
	case out <- evt:
		return true
	case <-ctx.Done():
		return false
	}
}

// composeAnswer renders the calculation summary from the recorded plan
// results.
func composeAnswer(e perception.Entities, state *plan.State) (string, error) {
	final, ok := numberResult(state, finance.ToolCompoundInterest)
	if !ok {
		return "", errors.New("plan finished without a final amount")
	}
	total := final
	var bonus float64
	if e.HasBonus {
		bonus, ok = numberResult(state, finance.ToolBonus)
		if !ok {
			return "", errors.New("plan finished without a bonus amount")
		}
		total += bonus
	}

	var b strings.Builder
	fmt.Fprintf(&b, "The final amount after all calculations is: %s\n", action.FormatUSD(total))
	b.WriteString("This includes:\n")
	fmt.Fprintf(&b, "- Principal amount: %s\n", action.FormatUSD(e.Principal))
	fmt.Fprintf(&b, "- Compound interest over %d years at %s%% annual rate, compounded quarterly",
		e.Years, formatPercent(e.AnnualRate))
	if e.HasBonus {
		fmt.Fprintf(&b, "\n- Initial bonus of %s%% on the principal: %s",
			formatPercent(e.BonusRate), action.FormatUSD(bonus))
	}
	return b.String(), nil
}

func numberResult(state *plan.State, stepID string) (float64, bool) {
	v, ok := state.Result(stepID)
	if !ok {
		return 0, false
	}
	f, ok := v.(float64)
	return f, ok
}

// formatPercent renders a decimal rate as a percentage without trailing
// zeros.
func formatPercent(rate float64) string {
	return strconv.FormatFloat(rate*100, 'g', 6, 64)
}

// renderFinalAnswer strips the protocol brackets from a FINAL_ANSWER
// payload for display.
func renderFinalAnswer(raw string) string {
	answer := strings.TrimSpace(raw)
	if strings.HasPrefix(answer, "[") && strings.HasSuffix(answer, "]") {
		answer = strings.TrimSpace(answer[1 : len(answer)-1])
	}
	if answer == "" {
		return raw
	}
	return answer
}
