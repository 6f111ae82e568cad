package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/covgap/covgap/internal/config"
	"github.com/covgap/covgap/internal/mcp"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start MCP server for AI agent integration",
	Long: `Start an MCP (Model Context Protocol) server over stdio.

This lets AI agents run the coverage pipeline through MCP tools instead
of spawning CLI commands: the same discovery, normalization, ranking,
and gating, returned as JSON tool results.

Available Tools:
  covgap_analyze   Full pipeline: report, ranked areas, verdict
  covgap_areas     Ranked uncovered areas only
  covgap_check     Gate verdict against threshold and baseline

Examples:
  covgap serve --mcp                        # Start with all tools
  covgap serve --mcp --tools analyze,check  # Expose a subset
  covgap serve --mcp --timeout 30m          # Auto-stop when idle
  covgap serve --status                     # Check if server is running
  covgap serve --stop                       # Stop running server
  covgap serve --list-tools                 # Show available tools`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

var (
	serveMCP       bool
	serveTools     string
	serveTimeout   string
	serveStatus    bool
	serveStop      bool
	serveListTools bool
)

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().BoolVar(&serveMCP, "mcp", false, "Start MCP server (stdio transport)")
	serveCmd.Flags().StringVar(&serveTools, "tools", "", "Comma-separated list of tools to expose (default: all)")
	serveCmd.Flags().StringVar(&serveTimeout, "timeout", "30m", "Inactivity timeout (0 for no timeout)")
	serveCmd.Flags().BoolVar(&serveStatus, "status", false, "Check if server is running")
	serveCmd.Flags().BoolVar(&serveStop, "stop", false, "Stop running server")
	serveCmd.Flags().BoolVar(&serveListTools, "list-tools", false, "List available tools")
}

func runServe(cmd *cobra.Command, args []string) error {
	if serveListTools {
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "Available MCP tools:")
		fmt.Fprintln(out)
		fmt.Fprintln(out, "  covgap_analyze   Full pipeline: report, ranked areas, verdict")
		fmt.Fprintln(out, "  covgap_areas     Ranked uncovered areas only")
		fmt.Fprintln(out, "  covgap_check     Gate verdict against threshold and baseline")
		return nil
	}

	if serveStatus {
		return checkServerStatus()
	}

	if serveStop {
		return stopServer()
	}

	if !serveMCP {
		return fmt.Errorf("use --mcp to start the MCP server, or --help for usage")
	}

	timeout, err := parseServeTimeout(serveTimeout)
	if err != nil {
		return fmt.Errorf("invalid timeout: %w", err)
	}

	var tools []string
	if serveTools != "" {
		for _, t := range strings.Split(serveTools, ",") {
			t = strings.TrimSpace(t)
			if t == "" {
				continue
			}
			// Allow shorthand (analyze -> covgap_analyze)
			if !strings.HasPrefix(t, "covgap_") {
				t = "covgap_" + t
			}
			tools = append(tools, t)
		}
	}

	server, err := mcp.New(mcp.Config{
		Tools:   tools,
		Timeout: timeout,
	})
	if err != nil {
		return fmt.Errorf("failed to create MCP server: %w", err)
	}
	defer server.Close()

	if err := writePIDFile(); err != nil {
		fmt.Fprintf(os.Stderr, "warning: could not write PID file: %v\n", err)
	}
	defer removePIDFile()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Fprintf(os.Stderr, "\ncovgap serve: shutting down\n")
		server.Close()
		removePIDFile()
		os.Exit(0)
	}()

	// Log startup info to stderr (stdout is for MCP protocol)
	fmt.Fprintf(os.Stderr, "covgap serve: starting MCP server\n")
	fmt.Fprintf(os.Stderr, "covgap serve: tools: %v\n", server.ListTools())
	if timeout > 0 {
		fmt.Fprintf(os.Stderr, "covgap serve: timeout: %v\n", timeout)
	}

	return server.ServeStdio()
}

func parseServeTimeout(s string) (time.Duration, error) {
	if s == "0" || s == "" {
		return 0, nil
	}
	return time.ParseDuration(s)
}

func getPIDFilePath() (string, error) {
	configDir, err := config.FindConfigDir(".")
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "serve.pid"), nil
}

func writePIDFile() error {
	pidPath, err := getPIDFilePath()
	if err != nil {
		return err
	}
	return os.WriteFile(pidPath, []byte(strconv.Itoa(os.Getpid())), 0644)
}

func removePIDFile() {
	pidPath, err := getPIDFilePath()
	if err != nil {
		return
	}
	os.Remove(pidPath)
}

func checkServerStatus() error {
	pidPath, err := getPIDFilePath()
	if err != nil {
		fmt.Println("Status: not running (covgap not initialized)")
		return nil
	}

	data, err := os.ReadFile(pidPath)
	if err != nil {
		fmt.Println("Status: not running")
		return nil
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		fmt.Println("Status: not running (invalid PID file)")
		return nil
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		fmt.Println("Status: not running")
		removePIDFile()
		return nil
	}

	// On Unix, FindProcess always succeeds; signal 0 probes for life
	err = process.Signal(syscall.Signal(0))
	if err != nil {
		fmt.Println("Status: not running (stale PID file)")
		removePIDFile()
		return nil
	}

	fmt.Printf("Status: running (PID %d)\n", pid)
	return nil
}

func stopServer() error {
	pidPath, err := getPIDFilePath()
	if err != nil {
		return fmt.Errorf("covgap not initialized")
	}

	data, err := os.ReadFile(pidPath)
	if err != nil {
		fmt.Println("No server running")
		return nil
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		removePIDFile()
		return fmt.Errorf("invalid PID file")
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		removePIDFile()
		fmt.Println("No server running")
		return nil
	}

	err = process.Signal(syscall.SIGTERM)
	if err != nil {
		removePIDFile()
		fmt.Println("Server already stopped")
		return nil
	}

	fmt.Printf("Stopped server (PID %d)\n", pid)
	return nil
}
