//
// Tencent is pleased to support the open source community by making compound-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// compound-agent-go is licensed under the Apache License Version 2.0.
//
//

// Package main runs the interactive compound interest agent: an emoji
// chat loop over the perception, decision, action and memory cycle, with
// slash commands for the survey, memory, preferences and PDF export.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"

	"trpc.group/trpc-go/compound-agent-go/action"
	"trpc.group/trpc-go/compound-agent-go/agent"
	"trpc.group/trpc-go/compound-agent-go/event"
	"trpc.group/trpc-go/compound-agent-go/finance"
	"trpc.group/trpc-go/compound-agent-go/log"
	"trpc.group/trpc-go/compound-agent-go/memory"
	"trpc.group/trpc-go/compound-agent-go/memory/local"
	"trpc.group/trpc-go/compound-agent-go/model"
	"trpc.group/trpc-go/compound-agent-go/model/openai"
	"trpc.group/trpc-go/compound-agent-go/perception"
	"trpc.group/trpc-go/compound-agent-go/plan"
	"trpc.group/trpc-go/compound-agent-go/preferences"
	"trpc.group/trpc-go/compound-agent-go/report"
	"trpc.group/trpc-go/compound-agent-go/server/debug"
	"trpc.group/trpc-go/compound-agent-go/telemetry"
	"trpc.group/trpc-go/compound-agent-go/tool"
	"trpc.group/trpc-go/compound-agent-go/tool/mcp"
)

var (
	modelName    = flag.String("model", "gpt-4o-mini", "Name of the model to use for general queries")
	prefsPath    = flag.String("prefs", "user_preferences.json", "Path of the preferences file")
	memoryRoot   = flag.String("memory-root", "agent_memory", "Directory holding the per-user memory files")
	userID       = flag.String("user", "default", "User id for memory entries")
	forceSetup   = flag.Bool("setup", false, "Re-run the preference setup even when a saved file exists")
	reviewQuery  = flag.Bool("review", false, "Review queries with the model before running them")
	mcpTransport = flag.String("mcp-transport", "", "Run tools over MCP: stdio, sse or streamable (empty = in-process)")
	mcpURL       = flag.String("mcp-url", "http://localhost:3000/mcp", "MCP server URL for the sse/streamable transports")
	mcpCommand   = flag.String("mcp-command", "", `Command starting the stdio MCP server, e.g. "./arithserver -transport stdio"`)
	debugAddr    = flag.String("debug-addr", "", "Expose the debug HTTP server on this address (e.g. :8080)")
	otlpEndpoint = flag.String("otlp-endpoint", "", "Export traces and metrics to this OTLP endpoint")
	reportPath   = flag.String("report", "session_report.pdf", "Path for the /export PDF report")
)

// defaultQuery is the worked demo scenario; an empty input line runs it.
const defaultQuery = "Calculate the final amount after 5 years if you invest $10,000 in a " +
	"savings account with an annual interest rate of 4.5%, compounded quarterly. The bank " +
	"also offers a bonus of 0.5% on the initial deposit. Please show all your work and " +
	"verify your calculations at each step."

const appName = "compound-agent"

func main() {
	flag.Parse()

	fmt.Printf("🚀 Compound Interest Agent\n")
	fmt.Printf("Model: %s\n", *modelName)
	fmt.Printf("Tools: %s\n", toolMode())
	fmt.Println(strings.Repeat("=", 50))

	c := &chat{}
	if err := c.run(); err != nil {
		log.Fatalf("Agent failed: %v", err)
	}
}

func toolMode() string {
	if *mcpTransport == "" {
		return "in-process"
	}
	if *mcpTransport == "stdio" {
		return fmt.Sprintf("mcp (stdio: %s)", *mcpCommand)
	}
	return fmt.Sprintf("mcp (%s: %s)", *mcpTransport, *mcpURL)
}

// chat manages the interactive session.
type chat struct {
	agent    agent.Agent
	mgr      *preferences.Manager
	memSvc   memory.Service
	userKey  memory.UserKey
	channel  tool.Channel
	prefs    preferences.Preferences
	recorder *report.Recorder
	scanner  *bufio.Scanner
}

// run wires the components and starts the conversation loop.
func (c *chat) run() error {
	ctx := context.Background()

	if *otlpEndpoint != "" {
		clean, err := telemetry.Start(ctx, telemetry.WithEndpoint(*otlpEndpoint))
		if err != nil {
			return fmt.Errorf("start telemetry: %w", err)
		}
		defer func() {
			if err := clean(); err != nil {
				log.Errorf("Shutdown telemetry: %v", err)
			}
		}()
	}

	if err := c.setup(ctx); err != nil {
		return fmt.Errorf("setup failed: %w", err)
	}
	defer c.channel.Close()

	if *debugAddr != "" {
		srv := debug.New(map[string]agent.Agent{appName: c.agent},
			debug.WithMemoryService(c.memSvc),
			debug.WithPreferencesManager(c.mgr))
		go func() {
			log.Infof("Debug server listening on %s", *debugAddr)
			if err := http.ListenAndServe(*debugAddr, srv.Handler()); err != nil {
				log.Errorf("Debug server: %v", err)
			}
		}()
	}

	return c.startChat(ctx)
}

// setup collects preferences and builds the memory service, tool channel
// and agent.
func (c *chat) setup(_ context.Context) error {
	c.scanner = bufio.NewScanner(os.Stdin)

	mgr, err := preferences.NewManager(preferences.WithPath(*prefsPath))
	if err != nil {
		return err
	}
	c.mgr = mgr

	if *forceSetup || !mgr.HasPreferences() {
		if err := c.collectPreferences(); err != nil {
			return err
		}
	}
	c.prefs, _ = mgr.Preferences()
	fmt.Printf("Using preferences for %s (%s, %s style).\n",
		c.prefs.AgentName, c.prefs.Personality, c.prefs.ResponseStyle)

	c.memSvc, err = local.NewService(
		local.WithRoot(*memoryRoot),
		local.WithRetention(c.prefs.MemoryRetention),
	)
	if err != nil {
		return err
	}
	c.userKey = memory.UserKey{AppName: appName, UserID: *userID}

	c.channel, err = buildChannel()
	if err != nil {
		return err
	}

	opts := []agent.Option{
		agent.WithChannel(c.channel),
		agent.WithMemory(c.memSvc),
		agent.WithUserKey(c.userKey),
		agent.WithPreferences(&c.prefs),
	}
	if os.Getenv("OPENAI_API_KEY") != "" {
		opts = append(opts, agent.WithModel(openai.New(*modelName)))
		if *reviewQuery {
			opts = append(opts, agent.WithQueryReview(true))
		}
	} else {
		fmt.Println("Note: OPENAI_API_KEY is not set; general queries are disabled,")
		fmt.Println("compound interest calculations still run on the built-in plan.")
	}

	c.agent, err = agent.New(c.prefs.AgentName, opts...)
	if err != nil {
		return err
	}

	fmt.Printf("✅ %s is ready!\n\n", c.prefs.AgentName)
	return nil
}

// collectPreferences runs the profile questions and the investment survey.
// A closed stdin falls back to the stock profile so piped runs still work.
func (c *chat) collectPreferences() error {
	fmt.Println("Welcome! Let's set up your agent preferences.")
	p, err := preferences.RunProfileSetup(os.Stdin, os.Stdout)
	if errors.Is(err, preferences.ErrInputClosed) {
		p = &preferences.Preferences{
			AgentName:       "CompoundInterestAgent",
			Personality:     "precise and methodical",
			ResponseStyle:   "formal",
			MemoryRetention: 10,
		}
	} else if err != nil {
		return err
	}
	if p.AgentName == "" {
		p.AgentName = "CompoundInterestAgent"
	}
	if err := c.mgr.Save(*p); err != nil {
		return err
	}

	investment, err := preferences.RunSurvey(os.Stdin, os.Stdout)
	if errors.Is(err, preferences.ErrInputClosed) {
		return nil
	}
	if err != nil {
		return err
	}
	return c.mgr.SetInvestment(*investment)
}

func buildChannel() (tool.Channel, error) {
	switch *mcpTransport {
	case "":
		return tool.NewLocalChannel(finance.Tools()...), nil
	case "stdio":
		fields := strings.Fields(*mcpCommand)
		if len(fields) == 0 {
			return nil, fmt.Errorf("-mcp-command is required for the stdio transport")
		}
		return mcp.NewChannel(mcp.ConnectionConfig{
			Transport: "stdio",
			Command:   fields[0],
			Args:      fields[1:],
		})
	case "sse", "streamable":
		return mcp.NewChannel(mcp.ConnectionConfig{
			Transport: *mcpTransport,
			ServerURL: *mcpURL,
		})
	default:
		return nil, fmt.Errorf("unknown mcp transport %q", *mcpTransport)
	}
}

// startChat runs the interactive conversation loop.
func (c *chat) startChat(ctx context.Context) error {
	fmt.Println("💡 Press Enter to run the demo query, or type your own.")
	fmt.Println("💡 Commands: /survey /memory /prefs /export /new /exit")
	fmt.Println()

	for {
		fmt.Print("👤 You: ")
		if !c.scanner.Scan() {
			break
		}
		input := strings.TrimSpace(c.scanner.Text())
		if input == "" {
			fmt.Printf("Running the demo query:\n%s\n", defaultQuery)
			input = defaultQuery
		}

		switch strings.ToLower(input) {
		case "exit", "/exit":
			fmt.Println("👋 Goodbye!")
			return nil
		case "/new":
			c.recorder = nil
			fmt.Println("Started a new session. Memory is retained.")
			continue
		case "/survey":
			c.runSurvey()
			continue
		case "/memory":
			c.showMemory(ctx)
			continue
		case "/prefs":
			c.showPreferences()
			continue
		case "/export":
			c.exportReport()
			continue
		}

		c.processMessage(ctx, input)
		fmt.Println()
	}

	if err := c.scanner.Err(); err != nil {
		return fmt.Errorf("input scanner error: %w", err)
	}
	return nil
}

// processMessage runs one query and renders the event stream.
func (c *chat) processMessage(ctx context.Context, query string) {
	ch, err := c.agent.Run(ctx, agent.NewInvocation(query))
	if err != nil {
		fmt.Printf("❌ Error: %v\n", err)
		return
	}

	c.recorder = report.NewRecorder(c.prefs.AgentName, query)
	for evt := range ch {
		c.recorder.Observe(evt)
		c.renderEvent(evt)
	}
}

func (c *chat) renderEvent(evt *event.Event) {
	if evt.Response != nil && evt.Error != nil {
		fmt.Printf("❌ Error: %s\n", evt.Error.Message)
		return
	}

	switch payload := evt.StructuredOutput.(type) {
	case *perception.Result:
		fmt.Printf("Perception: %s (confidence: %.1f)\n", payload.Intent, payload.Confidence)
		return
	case *agent.StepOutcome:
		fmt.Printf("%s [%d/%d] %s = %s\n",
			stepMarker(payload.Result), payload.Index, payload.Total,
			payload.Signature, payload.Text)
		return
	case *action.Outcome:
		fmt.Printf("🔧 %s = %s\n", plan.Signature(payload.Tool, payload.Args), payload.Text)
		return
	}

	if evt.Response == nil || !evt.Done || evt.Object != model.ObjectTypeChatCompletion {
		return
	}
	if len(evt.Choices) == 0 || evt.Choices[0].Message.Content == "" {
		return
	}
	fmt.Printf("\n🤖 %s: %s\n", c.prefs.AgentName, evt.Choices[0].Message.Content)
}

// stepMarker picks the list marker: verification steps show their verdict,
// calculation steps show a tool call.
func stepMarker(result any) string {
	if ok, isBool := result.(bool); isBool {
		if ok {
			return "✅"
		}
		return "❌"
	}
	return "🔧"
}

func (c *chat) runSurvey() {
	investment, err := preferences.RunSurvey(os.Stdin, os.Stdout)
	if err != nil {
		fmt.Printf("❌ Survey aborted: %v\n", err)
		return
	}
	if err := c.mgr.SetInvestment(*investment); err != nil {
		fmt.Printf("❌ Error saving survey answers: %v\n", err)
		return
	}
	c.prefs, _ = c.mgr.Preferences()
}

func (c *chat) showMemory(ctx context.Context) {
	entries, err := c.memSvc.ReadEntries(ctx, c.userKey, 10)
	if err != nil {
		fmt.Printf("❌ Error reading memory: %v\n", err)
		return
	}
	if len(entries) == 0 {
		fmt.Println("Memory is empty.")
		return
	}
	fmt.Println("Recent memory (newest first):")
	for _, e := range entries {
		fmt.Printf("- %s [%s, importance %d] %s\n",
			e.Timestamp.Format("15:04:05"), e.InteractionType, e.Importance,
			compactContent(e.Content, 96))
	}
}

func compactContent(content map[string]any, limit int) string {
	data, err := json.Marshal(content)
	if err != nil {
		return ""
	}
	s := string(data)
	if len(s) > limit {
		s = s[:limit] + "..."
	}
	return s
}

func (c *chat) showPreferences() {
	fmt.Printf("Agent: %s\nPersonality: %s\nResponse style: %s\nMemory retention: %d\n",
		c.prefs.AgentName, c.prefs.Personality, c.prefs.ResponseStyle, c.prefs.MemoryRetention)
	fmt.Println(c.mgr.FormatForPrompt())
}

func (c *chat) exportReport() {
	if c.recorder == nil || c.recorder.Empty() {
		fmt.Println("Nothing to export yet. Run a query first.")
		return
	}
	if err := c.recorder.Export(*reportPath); err != nil {
		fmt.Printf("❌ Error writing report: %v\n", err)
		return
	}
	fmt.Printf("✅ Report written to %s\n", *reportPath)
}
