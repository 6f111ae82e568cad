// Package mcp provides an MCP (Model Context Protocol) server for covgap.
// This allows AI agents to run the coverage pipeline through MCP tools
// instead of CLI commands.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/covgap/covgap/internal/config"
	"github.com/covgap/covgap/internal/correlate"
	"github.com/covgap/covgap/internal/coverage"
	"github.com/covgap/covgap/internal/exclude"
	"github.com/covgap/covgap/internal/lang"
	"github.com/covgap/covgap/internal/output"
	"github.com/covgap/covgap/internal/prioritize"
	"github.com/covgap/covgap/internal/store"
	"github.com/covgap/covgap/internal/threshold"
)

// Server wraps the MCP server with covgap-specific functionality
type Server struct {
	mcpServer    *server.MCPServer
	cfg          *config.Config
	configDir    string
	projectRoot  string
	tools        map[string]bool
	lastActivity time.Time
	timeout      time.Duration
	mu           sync.RWMutex
}

// Config holds server configuration
type Config struct {
	Tools   []string      // Which tools to expose (empty = all)
	Timeout time.Duration // Inactivity timeout (0 = no timeout)
}

// DefaultTools is the default set of tools to expose
var DefaultTools = []string{"covgap_analyze", "covgap_areas", "covgap_check"}

// AllTools lists all available tools
var AllTools = []string{"covgap_analyze", "covgap_areas", "covgap_check"}

// New creates a new MCP server for covgap
func New(cfg Config) (*Server, error) {
	appCfg, err := config.Load(".")
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	// Uninitialized projects still work; analysis anchors to the cwd
	// and no baseline store exists.
	projectRoot := "."
	configDir, err := config.FindConfigDir(".")
	if err != nil {
		configDir = ""
	} else {
		projectRoot = filepath.Dir(configDir)
	}

	mcpServer := server.NewMCPServer(
		"covgap",
		"0.1.0",
		server.WithToolCapabilities(false),
	)

	s := &Server{
		mcpServer:    mcpServer,
		cfg:          appCfg,
		configDir:    configDir,
		projectRoot:  projectRoot,
		tools:        make(map[string]bool),
		lastActivity: time.Now(),
		timeout:      cfg.Timeout,
	}

	toolsToRegister := cfg.Tools
	if len(toolsToRegister) == 0 {
		toolsToRegister = DefaultTools
	}

	for _, toolName := range toolsToRegister {
		if err := s.registerTool(toolName); err != nil {
			return nil, fmt.Errorf("failed to register tool %s: %w", toolName, err)
		}
		s.tools[toolName] = true
	}

	return s, nil
}

// registerTool registers a single tool with the MCP server
func (s *Server) registerTool(name string) error {
	switch name {
	case "covgap_analyze":
		return s.registerAnalyzeTool()
	case "covgap_areas":
		return s.registerAreasTool()
	case "covgap_check":
		return s.registerCheckTool()
	default:
		return fmt.Errorf("unknown tool: %s", name)
	}
}

// ServeStdio starts the server using stdio transport
func (s *Server) ServeStdio() error {
	if s.timeout > 0 {
		go s.timeoutChecker()
	}

	return server.ServeStdio(s.mcpServer)
}

// timeoutChecker monitors for inactivity and exits if timeout exceeded
func (s *Server) timeoutChecker() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		s.mu.RLock()
		elapsed := time.Since(s.lastActivity)
		s.mu.RUnlock()

		if elapsed > s.timeout {
			fmt.Fprintf(os.Stderr, "covgap serve: timeout after %v of inactivity\n", s.timeout)
			os.Exit(0)
		}
	}
}

// updateActivity updates the last activity timestamp
func (s *Server) updateActivity() {
	s.mu.Lock()
	s.lastActivity = time.Now()
	s.mu.Unlock()
}

// Close releases server resources. The store is opened per call, so
// there is nothing to tear down beyond the transport.
func (s *Server) Close() error {
	return nil
}

// ListTools returns the list of registered tools
func (s *Server) ListTools() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tools := make([]string, 0, len(s.tools))
	for t := range s.tools {
		tools = append(tools, t)
	}
	return tools
}

// ToolSchema describes a tool's name, description, and parameters.
type ToolSchema struct {
	Name        string            `json:"name" yaml:"name"`
	Description string            `json:"description" yaml:"description"`
	Parameters  []ParameterSchema `json:"parameters" yaml:"parameters"`
}

// ParameterSchema describes a single tool parameter.
type ParameterSchema struct {
	Name        string `json:"name" yaml:"name"`
	Type        string `json:"type" yaml:"type"`
	Description string `json:"description" yaml:"description"`
	Required    bool   `json:"required" yaml:"required"`
}

// toolSchemaRegistry holds the schema definitions for all tools.
// These mirror the mcp.NewTool() definitions in the register*Tool() functions.
var toolSchemaRegistry = map[string]ToolSchema{
	"covgap_analyze": {
		Name:        "covgap_analyze",
		Description: "Run the full coverage pipeline: normalized report, ranked uncovered areas, and gate verdict.",
		Parameters: []ParameterSchema{
			{Name: "paths", Type: "string", Description: "Comma-separated files or directories to correlate (default: every file in the report)"},
			{Name: "coverage_file", Type: "string", Description: "Path to the coverage report (default: discover)"},
			{Name: "coverage_format", Type: "string", Description: "Report format name (default: sniff the content)"},
			{Name: "threshold", Type: "number", Description: "Minimum acceptable overall coverage percent (default: from config)"},
			{Name: "min_increase", Type: "number", Description: "Required coverage gain over the baseline (default: from config)"},
			{Name: "baseline", Type: "number", Description: "Compare against this percentage instead of the stored baseline"},
			{Name: "limit", Type: "number", Description: "Maximum uncovered areas to return (default: all)"},
			{Name: "save_baseline", Type: "boolean", Description: "Record this run as the new baseline"},
		},
	},
	"covgap_areas": {
		Name:        "covgap_areas",
		Description: "Rank uncovered functions, methods, and classes by priority.",
		Parameters: []ParameterSchema{
			{Name: "paths", Type: "string", Description: "Comma-separated files or directories to correlate (default: every file in the report)"},
			{Name: "coverage_file", Type: "string", Description: "Path to the coverage report (default: discover)"},
			{Name: "coverage_format", Type: "string", Description: "Report format name (default: sniff the content)"},
			{Name: "limit", Type: "number", Description: "Maximum uncovered areas to return (default: all)"},
		},
	},
	"covgap_check": {
		Name:        "covgap_check",
		Description: "Evaluate coverage against the threshold and stored baseline. Returns the gate verdict.",
		Parameters: []ParameterSchema{
			{Name: "coverage_file", Type: "string", Description: "Path to the coverage report (default: discover)"},
			{Name: "coverage_format", Type: "string", Description: "Report format name (default: sniff the content)"},
			{Name: "threshold", Type: "number", Description: "Minimum acceptable overall coverage percent (default: from config)"},
			{Name: "min_increase", Type: "number", Description: "Required coverage gain over the baseline (default: from config)"},
			{Name: "baseline", Type: "number", Description: "Compare against this percentage instead of the stored baseline"},
		},
	},
}

// GetToolSchemas returns schemas for all registered tools.
func (s *Server) GetToolSchemas() []ToolSchema {
	s.mu.RLock()
	defer s.mu.RUnlock()

	schemas := make([]ToolSchema, 0, len(s.tools))
	for name := range s.tools {
		if schema, ok := toolSchemaRegistry[name]; ok {
			schemas = append(schemas, schema)
		}
	}
	return schemas
}

// CallTool dispatches a tool call by name with the given arguments.
// Returns the JSON result string or an error.
func (s *Server) CallTool(name string, args map[string]interface{}) (string, error) {
	s.mu.RLock()
	registered := s.tools[name]
	s.mu.RUnlock()

	if !registered {
		return "", fmt.Errorf("unknown tool: %s (run 'covgap serve --list-tools' to see available tools)", name)
	}

	switch name {
	case "covgap_analyze":
		return s.executeAnalyze(analyzeArgsFrom(args))

	case "covgap_areas":
		paths, _ := args["paths"].(string)
		file, _ := args["coverage_file"].(string)
		format, _ := args["coverage_format"].(string)
		limit := 0
		if l, ok := args["limit"].(float64); ok {
			limit = int(l)
		}
		return s.executeAreas(splitPaths(paths), file, format, limit)

	case "covgap_check":
		file, _ := args["coverage_file"].(string)
		format, _ := args["coverage_format"].(string)
		return s.executeCheck(file, format, floatArg(args, "threshold"), floatArg(args, "min_increase"), floatArg(args, "baseline"))

	default:
		return "", fmt.Errorf("unknown tool: %s", name)
	}
}

// Tool registration

// registerAnalyzeTool registers the covgap_analyze tool
func (s *Server) registerAnalyzeTool() error {
	tool := mcp.NewTool("covgap_analyze",
		mcp.WithDescription("Run the full coverage pipeline: normalized report, ranked uncovered areas, and gate verdict."),
		mcp.WithString("paths",
			mcp.Description("Comma-separated files or directories to correlate (default: every file in the report)"),
		),
		mcp.WithString("coverage_file",
			mcp.Description("Path to the coverage report (default: discover)"),
		),
		mcp.WithString("coverage_format",
			mcp.Description("Report format name (default: sniff the content)"),
		),
		mcp.WithNumber("threshold",
			mcp.Description("Minimum acceptable overall coverage percent (default: from config)"),
		),
		mcp.WithNumber("min_increase",
			mcp.Description("Required coverage gain over the baseline (default: from config)"),
		),
		mcp.WithNumber("baseline",
			mcp.Description("Compare against this percentage instead of the stored baseline"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum uncovered areas to return (default: all)"),
		),
		mcp.WithBoolean("save_baseline",
			mcp.Description("Record this run as the new baseline"),
		),
	)

	s.mcpServer.AddTool(tool, s.handleAnalyze)
	return nil
}

// registerAreasTool registers the covgap_areas tool
func (s *Server) registerAreasTool() error {
	tool := mcp.NewTool("covgap_areas",
		mcp.WithDescription("Rank uncovered functions, methods, and classes by priority."),
		mcp.WithString("paths",
			mcp.Description("Comma-separated files or directories to correlate (default: every file in the report)"),
		),
		mcp.WithString("coverage_file",
			mcp.Description("Path to the coverage report (default: discover)"),
		),
		mcp.WithString("coverage_format",
			mcp.Description("Report format name (default: sniff the content)"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum uncovered areas to return (default: all)"),
		),
	)

	s.mcpServer.AddTool(tool, s.handleAreas)
	return nil
}

// registerCheckTool registers the covgap_check tool
func (s *Server) registerCheckTool() error {
	tool := mcp.NewTool("covgap_check",
		mcp.WithDescription("Evaluate coverage against the threshold and stored baseline. Returns the gate verdict."),
		mcp.WithString("coverage_file",
			mcp.Description("Path to the coverage report (default: discover)"),
		),
		mcp.WithString("coverage_format",
			mcp.Description("Report format name (default: sniff the content)"),
		),
		mcp.WithNumber("threshold",
			mcp.Description("Minimum acceptable overall coverage percent (default: from config)"),
		),
		mcp.WithNumber("min_increase",
			mcp.Description("Required coverage gain over the baseline (default: from config)"),
		),
		mcp.WithNumber("baseline",
			mcp.Description("Compare against this percentage instead of the stored baseline"),
		),
	)

	s.mcpServer.AddTool(tool, s.handleCheck)
	return nil
}

// Tool handlers

func (s *Server) handleAnalyze(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.updateActivity()

	result, err := s.executeAnalyze(analyzeArgsFrom(req.GetArguments()))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(result), nil
}

func (s *Server) handleAreas(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.updateActivity()

	args := req.GetArguments()
	paths, _ := args["paths"].(string)
	file, _ := args["coverage_file"].(string)
	format, _ := args["coverage_format"].(string)

	limit := 0
	if l, ok := args["limit"].(float64); ok {
		limit = int(l)
	}

	result, err := s.executeAreas(splitPaths(paths), file, format, limit)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(result), nil
}

func (s *Server) handleCheck(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.updateActivity()

	args := req.GetArguments()
	file, _ := args["coverage_file"].(string)
	format, _ := args["coverage_format"].(string)

	result, err := s.executeCheck(file, format, floatArg(args, "threshold"), floatArg(args, "min_increase"), floatArg(args, "baseline"))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(result), nil
}

// analyzeArgs collects the covgap_analyze parameters; pointers are nil
// when the caller did not supply the argument.
type analyzeArgs struct {
	paths       []string
	file        string
	format      string
	threshold   *float64
	minIncrease *float64
	baseline    *float64
	limit       int
	save        bool
}

func analyzeArgsFrom(args map[string]interface{}) analyzeArgs {
	var a analyzeArgs
	paths, _ := args["paths"].(string)
	a.paths = splitPaths(paths)
	a.file, _ = args["coverage_file"].(string)
	a.format, _ = args["coverage_format"].(string)
	a.threshold = floatArg(args, "threshold")
	a.minIncrease = floatArg(args, "min_increase")
	a.baseline = floatArg(args, "baseline")
	if l, ok := args["limit"].(float64); ok {
		a.limit = int(l)
	}
	a.save, _ = args["save_baseline"].(bool)
	return a
}

// Execution functions (implementations)

func (s *Server) executeAnalyze(a analyzeArgs) (string, error) {
	res, err := s.loadReport(a.file, a.format)
	if err != nil {
		return "", err
	}

	sources := s.gatherSources(a.paths, res.Report)
	areas, err := correlate.Correlate(res.Report, sources)
	if err != nil {
		return "", err
	}
	ranked := prioritize.Prioritize(areas)
	if a.limit > 0 && len(ranked) > a.limit {
		ranked = ranked[:a.limit]
	}

	thresholdVal := float64(s.cfg.CoverageThreshold)
	if a.threshold != nil {
		thresholdVal = *a.threshold
	}
	minIncrease := float64(s.cfg.MinCoverageIncrease)
	if a.minIncrease != nil {
		minIncrease = *a.minIncrease
	}

	baseline, err := s.resolveBaseline(a.baseline)
	if err != nil {
		return "", err
	}

	out := &output.AnalyzeOutput{
		Report:  output.NewReportSummary(res.Report),
		Areas:   ranked,
		Verdict: s.buildVerdict(res.Report, thresholdVal, minIncrease, baseline),
	}

	if a.save {
		if err := s.saveBaseline(res.Report); err != nil {
			return "", fmt.Errorf("saving baseline: %w", err)
		}
	}

	return toJSON(out)
}

func (s *Server) executeAreas(paths []string, file, format string, limit int) (string, error) {
	res, err := s.loadReport(file, format)
	if err != nil {
		return "", err
	}

	sources := s.gatherSources(paths, res.Report)
	areas, err := correlate.Correlate(res.Report, sources)
	if err != nil {
		return "", err
	}
	ranked := prioritize.Prioritize(areas)
	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}

	return toJSON(output.NewAreaList(ranked))
}

func (s *Server) executeCheck(file, format string, thresholdArg, minIncreaseArg, baselineArg *float64) (string, error) {
	res, err := s.loadReport(file, format)
	if err != nil {
		return "", err
	}

	thresholdVal := float64(s.cfg.CoverageThreshold)
	if thresholdArg != nil {
		thresholdVal = *thresholdArg
	}
	minIncrease := float64(s.cfg.MinCoverageIncrease)
	if minIncreaseArg != nil {
		minIncrease = *minIncreaseArg
	}

	baseline, err := s.resolveBaseline(baselineArg)
	if err != nil {
		return "", err
	}

	return toJSON(s.buildVerdict(res.Report, thresholdVal, minIncrease, baseline))
}

// buildVerdict evaluates both gates and fills the renderable verdict.
func (s *Server) buildVerdict(report *coverage.CoverageReport, thresholdVal, minIncrease float64, baseline *coverage.CoverageReport) *output.VerdictOutput {
	v := threshold.Evaluate(report, thresholdVal, baseline)
	meetsIncrease := threshold.MeetsIncrease(v, minIncrease)
	return &output.VerdictOutput{
		OverallCoverage: report.OverallCoverage,
		Threshold:       thresholdVal,
		MeetsThreshold:  v.MeetsThreshold,
		Delta:           v.Delta,
		MinIncrease:     minIncrease,
		MeetsIncrease:   meetsIncrease,
		Passed:          v.MeetsThreshold && meetsIncrease,
	}
}

// Pipeline plumbing

// loadReport locates, parses, and normalizes the coverage report,
// honoring explicit file and format arguments over config over probing.
func (s *Server) loadReport(file, format string) (*coverage.Result, error) {
	if file == "" {
		file = s.cfg.CoverageFile
	}
	if format == "" {
		format = s.cfg.CoverageFormat
	}

	var det *coverage.Detection
	var data []byte
	var err error

	if file != "" {
		path := file
		if !filepath.IsAbs(path) {
			path = filepath.Join(s.projectRoot, path)
		}
		data, err = coverage.ReadReportFile(path)
		if err != nil {
			return nil, fmt.Errorf("coverage file: %w", err)
		}
		det, err = coverage.Sniff([]coverage.Candidate{{Path: file, Data: data}})
		if err != nil && format == "" {
			return nil, fmt.Errorf("%s: %w", file, err)
		}
		if det == nil {
			det = &coverage.Detection{Path: file}
		}
	} else {
		det, data, err = coverage.FindReport(s.projectRoot)
		if err != nil {
			return nil, err
		}
	}

	if format != "" {
		f, err := coverage.ParseFormatName(format)
		if err != nil {
			return nil, err
		}
		det.Format = f
	}

	res, err := coverage.Parse(data, det.Format)
	if err != nil {
		return nil, err
	}
	return coverage.Normalize(res, s.projectRoot), nil
}

// gatherSources reads the files to correlate: the given paths, or every
// file the report mentions. Excluded paths and disabled languages are
// filtered out the same way the CLI filters them. Unreadable entries are
// skipped; the report may mention files deleted since the test run.
func (s *Server) gatherSources(paths []string, report *coverage.CoverageReport) []correlate.SourceFile {
	matcher := exclude.NewMatcher(s.cfg.ExcludePaths)
	allowed := make(map[lang.Language]bool, len(s.cfg.Languages))
	for _, name := range s.cfg.Languages {
		allowed[lang.Language(name)] = true
	}
	wanted := func(rel string) bool {
		language := lang.FromPath(rel)
		if language == "" || !allowed[language] {
			return false
		}
		return !matcher.Match(rel)
	}

	var rels []string
	if len(paths) == 0 {
		for rel := range report.Files {
			if wanted(rel) {
				rels = append(rels, rel)
			}
		}
	} else {
		for _, p := range paths {
			abs := p
			if !filepath.IsAbs(abs) {
				abs = filepath.Join(s.projectRoot, p)
			}
			info, err := os.Stat(abs)
			if err != nil {
				continue
			}
			if !info.IsDir() {
				if rel := filepath.ToSlash(filepath.Clean(p)); wanted(rel) {
					rels = append(rels, rel)
				}
				continue
			}
			for rel := range report.Files {
				full := filepath.Join(s.projectRoot, filepath.FromSlash(rel))
				if strings.HasPrefix(full, abs+string(filepath.Separator)) && wanted(rel) {
					rels = append(rels, rel)
				}
			}
		}
	}
	sort.Strings(rels)

	sources := make([]correlate.SourceFile, 0, len(rels))
	seen := make(map[string]bool, len(rels))
	for _, rel := range rels {
		rel = filepath.ToSlash(filepath.Clean(rel))
		if seen[rel] {
			continue
		}
		seen[rel] = true
		src, err := os.ReadFile(filepath.Join(s.projectRoot, filepath.FromSlash(rel)))
		if err != nil {
			continue
		}
		sources = append(sources, correlate.SourceFile{Path: rel, Source: src})
	}
	return sources
}

// resolveBaseline turns an explicit percentage into a synthetic
// baseline, or fetches the stored one. No store and no record both mean
// no baseline, which disables the increase gate.
func (s *Server) resolveBaseline(pinned *float64) (*coverage.CoverageReport, error) {
	if pinned != nil {
		return &coverage.CoverageReport{OverallCoverage: *pinned}, nil
	}
	if s.configDir == "" {
		return nil, nil
	}
	db, err := store.Open(s.configDir)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	rec, err := db.Latest(s.projectName())
	if err != nil {
		if err == store.ErrNoBaseline {
			return nil, nil
		}
		return nil, err
	}
	return rec.Report, nil
}

// saveBaseline records a normalized report as the project's newest
// baseline, creating the config directory if needed.
func (s *Server) saveBaseline(report *coverage.CoverageReport) error {
	configDir := s.configDir
	if configDir == "" {
		var err error
		configDir, err = config.EnsureConfigDir(s.projectRoot)
		if err != nil {
			return err
		}
		s.configDir = configDir
	}
	db, err := store.Open(configDir)
	if err != nil {
		return err
	}
	defer db.Close()
	return db.Save(s.projectName(), report)
}

func (s *Server) projectName() string {
	abs, err := filepath.Abs(s.projectRoot)
	if err != nil {
		return filepath.Base(s.projectRoot)
	}
	return filepath.Base(abs)
}

// Helper functions

func toJSON(v interface{}) (string, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// splitPaths parses the comma-separated paths argument.
func splitPaths(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	var out []string
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// floatArg extracts an optional number argument, nil when absent.
func floatArg(args map[string]interface{}, name string) *float64 {
	if v, ok := args[name].(float64); ok {
		return &v
	}
	return nil
}
