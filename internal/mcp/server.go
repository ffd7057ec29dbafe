package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/a3tai/ahc-engine/internal/certificate"
	"github.com/a3tai/ahc-engine/internal/config"
	"github.com/a3tai/ahc-engine/internal/descriptions"
	"github.com/a3tai/ahc-engine/internal/schema"
)

// Server represents the MCP server instance
type Server struct {
	config    *config.Config
	service   *certificate.Service
	mcpServer *server.MCPServer
	tools     []mcp.Tool
	logger    *slog.Logger
}

// NewServer creates a new MCP server instance
func NewServer(cfg *config.Config, service *certificate.Service, logger *slog.Logger) (*Server, error) {
	if service == nil {
		return nil, fmt.Errorf("certificate service cannot be nil")
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	mcpServer := server.NewMCPServer(
		cfg.ServerName,
		cfg.Version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	)

	s := &Server{
		config:    cfg,
		service:   service,
		mcpServer: mcpServer,
		logger:    logger,
	}
	s.registerTools()
	return s, nil
}

func (s *Server) addTool(tool mcp.Tool, handler server.ToolHandlerFunc) {
	s.tools = append(s.tools, tool)
	s.mcpServer.AddTool(tool, handler)
}

// registerTools registers all available MCP tools
func (s *Server) registerTools() {
	s.addTool(mcp.NewTool(
		descriptions.ToolDetectProfile,
		mcp.WithDescription(descriptions.DetectProfileDescription),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Template path, relative to the template directory"),
		),
		mcp.WithString("hint",
			mcp.Description("Template code, name or country used to tell variants apart"),
		),
	), s.handleDetectProfile)

	s.addTool(mcp.NewTool(
		descriptions.ToolMapFields,
		mcp.WithDescription(descriptions.MapFieldsDescription),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Template path, relative to the template directory"),
		),
		mcp.WithString("hint",
			mcp.Description("Template code, name or country used to tell variants apart"),
		),
		mcp.WithString("overrides_path",
			mcp.Description("YAML or JSON override record in the template directory"),
		),
		mcp.WithObject("field_overrides",
			mcp.Description("Canonical key to field name overrides"),
		),
	), s.handleMapFields)

	s.addTool(mcp.NewTool(
		descriptions.ToolComputeCrossouts,
		mcp.WithDescription(descriptions.ComputeCrossoutsDescription),
		mcp.WithObject("facts",
			mcp.Description("Rule inputs: transport_by, num_pets, species, vaccination_date, entry_date, dob, tapeworm_country"),
		),
		mcp.WithObject("submission",
			mcp.Description("Submission record with certificate details and trip"),
		),
		mcp.WithString("submission_path",
			mcp.Description("YAML or JSON submission in the template directory"),
		),
	), s.handleComputeCrossouts)

	s.addTool(mcp.NewTool(
		descriptions.ToolGenerate,
		mcp.WithDescription(descriptions.GenerateDescription),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Template path, relative to the template directory"),
		),
		mcp.WithString("output",
			mcp.Description("Output file name inside the output directory"),
		),
		mcp.WithObject("template",
			mcp.Description("Template record: template_code, name, first_country_entry, second_language_code, storage_path"),
		),
		mcp.WithObject("submission",
			mcp.Description("Submission record with certificate details and trip"),
		),
		mcp.WithString("submission_path",
			mcp.Description("YAML or JSON submission in the template directory"),
		),
		mcp.WithString("overrides_path",
			mcp.Description("YAML or JSON override record in the template directory"),
		),
		mcp.WithObject("field_overrides",
			mcp.Description("Canonical key to field name overrides"),
		),
		mcp.WithObject("crossout_categories",
			mcp.Description("Check field name to category overrides"),
		),
		mcp.WithBoolean("strict",
			mcp.Description("Set false to disable strict template compliance for this request"),
		),
	), s.handleGenerate)

	s.addTool(mcp.NewTool(
		descriptions.ToolServerInfo,
		mcp.WithDescription(descriptions.ServerInfoDescription),
	), s.handleServerInfo)
}

// bindArguments decodes the tool arguments into target through their JSON
// form.
func bindArguments(request mcp.CallToolRequest, target any) error {
	data, err := json.Marshal(request.GetArguments())
	if err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	if err := json.Unmarshal(data, target); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	return nil
}

// Handler functions
func (s *Server) handleDetectProfile(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if _, err := request.RequireString("path"); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	var req certificate.DetectRequest
	if err := bindArguments(request, &req); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.service.DetectProfile(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(s.formatDetectResult(result)), nil
}

func (s *Server) handleMapFields(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if _, err := request.RequireString("path"); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	var req certificate.MapRequest
	if err := bindArguments(request, &req); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.service.MapFields(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(s.formatMapResult(result)), nil
}

func (s *Server) handleComputeCrossouts(ctx context.Context, request mcp.CallToolRequest) (
	*mcp.CallToolResult, error,
) {
	var req certificate.CrossoutRequest
	if err := bindArguments(request, &req); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.service.ComputeCrossouts(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(s.formatCrossoutResult(result)), nil
}

func (s *Server) handleGenerate(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if _, err := request.RequireString("path"); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	var req certificate.GenerateRequest
	if err := bindArguments(request, &req); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.service.Generate(ctx, req)
	if err != nil {
		text := fmt.Sprintf("Generation failed: %v\n", err)
		if result != nil {
			text += "\nReport:\n" + toJSON(result.Report)
		}
		return mcp.NewToolResultError(text), nil
	}
	return mcp.NewToolResultText(s.formatGenerateResult(result)), nil
}

func (s *Server) handleServerInfo(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := s.service.ServerInfo()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(s.formatServerInfoResult(result)), nil
}

// Formatting methods
func (s *Server) formatDetectResult(result *certificate.DetectResult) string {
	p := result.Profile
	text := fmt.Sprintf("Template: %s\n", result.Path)
	text += fmt.Sprintf("Profile: %s\n", p.Profile)
	text += fmt.Sprintf("Pages: %d\n", result.Pages)
	text += fmt.Sprintf("Fields: %d\n", result.Fields)
	text += fmt.Sprintf("TextN fields: %t\n", p.HasTextN)
	text += fmt.Sprintf("Check slots: %d (complete: %t)\n", p.CheckCount, p.HasFullChecks)
	text += fmt.Sprintf("Strike slots: %d (complete: %t)\n", p.StrikeCount, p.HasFullStrikes)
	text += fmt.Sprintf("Paired rendering: %t\n", p.UsesPairedRendering())
	if result.Hint != "" {
		text += fmt.Sprintf("Hint: %s\n", result.Hint)
	}
	return text
}

func (s *Server) formatMapResult(result *certificate.MapResult) string {
	m := result.Mapping
	text := fmt.Sprintf("Template: %s\n", result.Path)
	text += fmt.Sprintf("Profile: %s\n", result.Profile.Profile)
	text += fmt.Sprintf("Adapter: %s\n", m.Adapter)
	text += fmt.Sprintf("Mapped keys: %d of %d\n", m.Resolved, len(schema.Keys()))

	if len(result.MissingRequiredKeys) > 0 {
		text += fmt.Sprintf("\nMissing required keys (%d):\n", len(result.MissingRequiredKeys))
		for _, k := range result.MissingRequiredKeys {
			text += fmt.Sprintf("  • %s\n", k)
		}
	} else {
		text += "\nAll required keys are mapped\n"
	}

	if len(m.Dropped) > 0 {
		text += "\nDropped overrides:\n"
		for _, d := range m.Dropped {
			text += fmt.Sprintf("  • %s → %q (%s)\n", d.Key, d.Field, d.Reason)
		}
	}

	text += "\nMapping:\n"
	for _, k := range schema.Keys() {
		if field, ok := m.Mapping.Field(k); ok {
			text += fmt.Sprintf("  %s → %s\n", k, field)
		}
	}
	return text
}

func (s *Server) formatCrossoutResult(result *certificate.CrossoutResult) string {
	f := result.Facts
	text := fmt.Sprintf("Transport by: %s\n", f.Transport)
	text += fmt.Sprintf("Pets: %d (%s)\n", f.NumPets, f.Species)
	text += fmt.Sprintf("Tapeworm country: %t\n", f.TapewormCountry)
	text += fmt.Sprintf("\nCategories to cross (%d):\n", len(result.Categories))
	for _, c := range result.Categories {
		if n, ok := schema.SlotForCategory(c); ok {
			text += fmt.Sprintf("  • %s (Check %d)\n", c, n)
		} else {
			text += fmt.Sprintf("  • %s\n", c)
		}
	}
	return text
}

func (s *Server) formatGenerateResult(result *certificate.GenerateResult) string {
	r := result.Report
	text := fmt.Sprintf("Generated certificate: %s\n", result.OutputPath)
	text += fmt.Sprintf("Template: %s\n", result.Path)
	text += fmt.Sprintf("Profile: %s (adapter %s)\n", r.Profile.Profile, r.Adapter)
	text += fmt.Sprintf("Filled: %d, missing: %d, cleared rows: %d\n", r.Filled, r.Missing, r.ClearedRows)
	text += fmt.Sprintf("Crossed: %d (toggled %d, drawn %d)\n", r.Render.Crossed, len(r.Render.Toggled), len(r.Render.Drawn))
	if len(r.Render.Unrendered) > 0 {
		text += fmt.Sprintf("⚠️  Unrendered categories: %s\n", joinCategories(r.Render.Unrendered))
	}
	if sh := r.Render.Shift; sh != nil {
		text += fmt.Sprintf("Shift: page %+d, dx %.2f, dy %.2f (%d anchors)\n", sh.PageDelta, sh.DX, sh.DY, sh.Anchors)
	}
	text += "\nReport:\n" + toJSON(r)
	return text
}

func (s *Server) formatServerInfoResult(result *certificate.ServerInfo) string {
	text := fmt.Sprintf("📋 %s v%s - Server Information\n", result.ServerName, result.Version)
	text += fmt.Sprintf("📁 Template Directory: %s\n", result.TemplateDirectory)
	text += fmt.Sprintf("📤 Output Directory: %s\n", result.OutputDirectory)
	text += fmt.Sprintf("📏 Max File Size: %d MB\n", result.MaxFileSize/(1024*1024))
	text += fmt.Sprintf("🔒 Strict template compliance: %t\n\n", result.Strict)

	if len(result.Templates) > 0 {
		text += fmt.Sprintf("📂 Templates (%d PDF files found):\n", len(result.Templates))
		for i, file := range result.Templates {
			if i >= 10 {
				text += fmt.Sprintf("   ... and %d more files\n", len(result.Templates)-10)
				break
			}
			text += fmt.Sprintf("   %d. %s (%d bytes)\n", i+1, file.Path, file.Size)
		}
		text += "\n"
	} else {
		text += "📂 Templates: No PDF files found in template directory\n\n"
	}

	text += "🛠️  Available Tools:\n"
	for _, tool := range s.tools {
		summary, _, _ := strings.Cut(tool.Description, "\n")
		text += fmt.Sprintf("• %s: %s\n", tool.Name, summary)
	}
	return text
}

func joinCategories(cs []schema.Category) string {
	parts := make([]string, len(cs))
	for i, c := range cs {
		parts[i] = string(c)
	}
	return strings.Join(parts, ", ")
}

func toJSON(v any) string {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf("unavailable: %v", err)
	}
	return string(data)
}

// Run serves MCP over stdin and stdout until the input closes or ctx ends
func (s *Server) Run(ctx context.Context) error {
	return s.Serve(ctx, os.Stdin, os.Stdout)
}

// Serve serves MCP over the given streams
func (s *Server) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	s.logger.Debug("starting MCP server in stdio mode",
		"templates", s.config.TemplateDirectory,
		"output", s.config.OutputDirectory)

	stdio := server.NewStdioServer(s.mcpServer)
	stdio.SetErrorLogger(slog.NewLogLogger(s.logger.Handler(), slog.LevelError))
	if err := stdio.Listen(ctx, in, out); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("failed to serve stdio: %w", err)
	}
	return nil
}
