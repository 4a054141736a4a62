// Package mcp exposes the bench as a set of MCP tools so LLM agents can
// drive measurements interactively: direct SMU operation for exploration
// and protocol runs for repeatable acquisition.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	ivctl "github.com/optolab/ivctl"
	"github.com/optolab/ivctl/internal/hardware"
	"github.com/optolab/ivctl/pkg/domain"
)

// Controller is the slice of the facade the MCP tools need.
type Controller interface {
	RunAsync(ctx context.Context, name string, params map[string]any) (<-chan domain.ExecutionResult, error)
	Abort() error
	Status() domain.RunSnapshot
	Protocols() ([]string, error)
	SMU() *hardware.SMUClient
}

// Server wraps the controller as an MCP server.
type Server struct {
	ctrl      Controller
	mcpServer *server.MCPServer
}

// NewServer builds the tool server.
func NewServer(ctrl Controller) *Server {
	s := &Server{
		ctrl:      ctrl,
		mcpServer: server.NewMCPServer("ivctl-mcp", ivctl.Version),
	}
	s.registerTools()
	return s
}

// ServeStdio starts the server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("smu_connect",
		mcp.WithDescription("Connect the source-measure unit. Backend 'mock' needs no address."),
		mcp.WithString("backend", mcp.Description("mock or real (default mock)")),
		mcp.WithNumber("channel", mcp.Description("Instrument channel (default 1)")),
		mcp.WithString("address", mcp.Description("VISA resource address for the real backend")),
	), s.handleSMUConnect)

	s.mcpServer.AddTool(mcp.NewTool("smu_measure",
		mcp.WithDescription("Take a single voltage/current reading on the connected SMU."),
	), s.handleSMUMeasure)

	s.mcpServer.AddTool(mcp.NewTool("smu_sweep",
		mcp.WithDescription("Run a source sweep and return the measured IV points."),
		mcp.WithNumber("start", mcp.Required(), mcp.Description("First source value")),
		mcp.WithNumber("stop", mcp.Required(), mcp.Description("Last source value")),
		mcp.WithNumber("points", mcp.Required(), mcp.Description("Number of points")),
		mcp.WithString("distribution", mcp.Description("linear or log (default linear)")),
		mcp.WithNumber("integration_time", mcp.Description("Per-point settle/integration time in seconds")),
	), s.handleSMUSweep)

	s.mcpServer.AddTool(mcp.NewTool("run_protocol",
		mcp.WithDescription("Start a named protocol in the background and return the run status."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Protocol name from list_protocols")),
		mcp.WithString("params", mcp.Description("JSON object of initial protocol parameters")),
	), s.handleRunProtocol)

	s.mcpServer.AddTool(mcp.NewTool("abort_run",
		mcp.WithDescription("Request cooperative abort of the active run."),
	), s.handleAbortRun)

	s.mcpServer.AddTool(mcp.NewTool("get_status",
		mcp.WithDescription("Get the run state snapshot."),
	), s.handleGetStatus)

	s.mcpServer.AddTool(mcp.NewTool("list_protocols",
		mcp.WithDescription("List the available protocol names."),
	), s.handleListProtocols)
}

func (s *Server) handleSMUConnect(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	backend := hardware.BackendMock
	if v, ok := args["backend"].(string); ok && v != "" {
		backend = hardware.Backend(v)
	}
	channel := 1
	if v, ok := args["channel"].(float64); ok {
		channel = int(v)
	}
	address, _ := args["address"].(string)

	sess, err := s.ctrl.SMU().Connect(ctx, backend, channel, address)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("connect failed: %v", err)), nil
	}
	return jsonResult(sess)
}

func (s *Server) handleSMUMeasure(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	point, err := s.ctrl.SMU().Measure()
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("measure failed: %v", err)), nil
	}
	return jsonResult(point)
}

func (s *Server) handleSMUSweep(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	spec := domain.SweepSpec{}
	spec.Start, _ = args["start"].(float64)
	spec.Stop, _ = args["stop"].(float64)
	if v, ok := args["points"].(float64); ok {
		spec.Points = int(v)
	}
	if v, ok := args["distribution"].(string); ok && v != "" {
		spec.Distribution = domain.Distribution(v)
	}
	spec.IntegrationTime, _ = args["integration_time"].(float64)

	result, err := s.ctrl.SMU().Sweep(spec)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("sweep failed: %v", err)), nil
	}
	return jsonResult(result)
}

func (s *Server) handleRunProtocol(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	name, _ := args["name"].(string)
	if name == "" {
		return mcp.NewToolResultError("name is required"), nil
	}
	var params map[string]any
	if raw, ok := args["params"].(string); ok && raw != "" {
		if err := json.Unmarshal([]byte(raw), &params); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("params is not a JSON object: %v", err)), nil
		}
	}

	// The run outlives the tool call; completion shows up in get_status.
	if _, err := s.ctrl.RunAsync(context.Background(), name, params); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("run failed to start: %v", err)), nil
	}
	return jsonResult(s.ctrl.Status())
}

func (s *Server) handleAbortRun(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := s.ctrl.Abort(); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("abort rejected: %v", err)), nil
	}
	return jsonResult(s.ctrl.Status())
}

func (s *Server) handleGetStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.ctrl.Status())
}

func (s *Server) handleListProtocols(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	names, err := s.ctrl.Protocols()
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("list failed: %v", err)), nil
	}
	return jsonResult(map[string]any{"protocols": names})
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(raw)), nil
}
