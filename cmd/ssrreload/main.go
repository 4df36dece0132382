// Package main runs a development server that reloads the browser when
// server-rendered source files change.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/Cyclone1070/ssrreload/internal/config"
	"github.com/Cyclone1070/ssrreload/internal/devserver"
	"github.com/Cyclone1070/ssrreload/internal/logging"
	"github.com/charmbracelet/lipgloss"
)

type flags struct {
	root     string
	upstream string
	listen   string
	vite     string
}

func parseFlags(args []string, stderr io.Writer) (flags, error) {
	var f flags
	fs := flag.NewFlagSet("ssrreload", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&f.root, "root", ".", "project root")
	fs.StringVar(&f.upstream, "upstream", "", "SSR application URL (overrides server.upstream)")
	fs.StringVar(&f.listen, "listen", "", "listen address (overrides server.listen)")
	fs.StringVar(&f.vite, "vite", "", "Vite dev server URL (overrides server.viteURL)")
	if err := fs.Parse(args); err != nil {
		return f, err
	}
	return f, nil
}

// loadConfig reads the project config and applies flag overrides.
func loadConfig(loader *config.Loader, f flags) (*config.Config, string, error) {
	root, err := filepath.Abs(f.root)
	if err != nil {
		return nil, "", err
	}
	cfg, err := loader.Load(root)
	if err != nil {
		return nil, "", fmt.Errorf("load config: %w", err)
	}

	if f.upstream != "" {
		cfg.Server.Upstream = f.upstream
	}
	if f.listen != "" {
		cfg.Server.Listen = f.listen
	}
	if f.vite != "" {
		cfg.Server.ViteURL = f.vite
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", err
	}
	return cfg, root, nil
}

func banner(cfg *config.Config) string {
	title := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212")).Render("ssrreload")
	label := lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	url := lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Underline(true)

	lines := []string{
		title,
		label.Render("local:    ") + url.Render(devserver.URL(cfg.Server.Listen, cfg.Base)),
		label.Render("upstream: ") + cfg.Server.Upstream,
	}
	if cfg.Server.ViteURL != "" {
		lines = append(lines, label.Render("vite:     ")+cfg.Server.ViteURL)
	}
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("62")).
		Padding(0, 1).
		Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	f, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}
	cfg, root, err := loadConfig(config.NewLoader(), f)
	if err != nil {
		return err
	}

	logger, closer, err := logging.New(cfg.Log, stderr)
	if err != nil {
		return err
	}
	defer closer.Close()

	srv, err := devserver.New(devserver.Config{Root: root, Config: *cfg, Logger: logger})
	if err != nil {
		return err
	}

	fmt.Fprintln(stdout, banner(cfg))
	return srv.Run(ctx)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if err == flag.ErrHelp {
			return
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
