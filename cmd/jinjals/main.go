package main

import (
	"context"
	"os"
	"path/filepath"
	"runtime/debug"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"
	"go.lsp.dev/protocol"

	"github.com/walteh/jinjals/pkg/config"
	"github.com/walteh/jinjals/pkg/cursor"
	"github.com/walteh/jinjals/pkg/jinja"
	"github.com/walteh/jinjals/pkg/lsp"
	"github.com/walteh/jinjals/pkg/position"
)

func main() {
	if err := run(); err != nil {
		println(err.Error())
		os.Exit(1)
	}
}

func run() error {
	verbose := false

	rootCmd := &cobra.Command{
		Use:   "jinjals",
		Short: "A language server core for Jinja templates",
	}
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "enable debug logging")

	info, ok := debug.ReadBuildInfo()
	if !ok {
		rootCmd.Version = "unknown"
	} else {
		rootCmd.Version = info.Main.Version
	}

	rootCmd.AddCommand(newIndexCommand(&verbose))
	rootCmd.AddCommand(newSymbolsCommand(&verbose))
	rootCmd.AddCommand(newContextCommand())

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		return errors.Errorf("failed to execute command: %w", err)
	}
	return nil
}

func loggerContext(verbose bool) context.Context {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).
		With().Timestamp().Logger()
	return logger.WithContext(context.Background())
}

func newWorkspaceService(ctx context.Context, root string) (*lsp.Service, error) {
	fs := afero.NewOsFs()
	cfg, err := config.Load(fs, filepath.Join(root, config.DefaultFileName))
	if err != nil {
		return nil, err
	}
	svc := lsp.NewService(fs, cfg, root)
	svc.Start(ctx)
	return svc, nil
}

func newIndexCommand(verbose *bool) *cobra.Command {
	root := "."

	cmd := &cobra.Command{
		Use:   "index",
		Short: "scan the workspace and report what was indexed",
	}
	cmd.Flags().StringVar(&root, "root", ".", "workspace root")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		ctx := loggerContext(*verbose)
		svc, err := newWorkspaceService(ctx, root)
		if err != nil {
			return err
		}
		for _, uri := range svc.Index().URIs() {
			cmd.Println(uri)
		}
		cmd.Printf("%d templates indexed\n", svc.Index().Len())
		return nil
	}
	return cmd
}

func newSymbolsCommand(verbose *bool) *cobra.Command {
	root := "."

	cmd := &cobra.Command{
		Use:   "symbols <query>",
		Short: "fuzzy-search macros, blocks and variables across the workspace",
		Args:  cobra.ExactArgs(1),
	}
	cmd.Flags().StringVar(&root, "root", ".", "workspace root")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		ctx := loggerContext(*verbose)
		svc, err := newWorkspaceService(ctx, root)
		if err != nil {
			return err
		}
		for _, sym := range svc.WorkspaceSymbols(ctx, args[0]) {
			cmd.Printf("%s\t%s\t%s:%d\n",
				sym.Name, symbolKindLabel(sym.Kind), sym.Location.URI, sym.Location.Range.Start.Line+1)
		}
		return nil
	}
	return cmd
}

func symbolKindLabel(kind protocol.SymbolKind) string {
	switch kind {
	case protocol.SymbolKindFunction:
		return "macro"
	case protocol.SymbolKindNamespace:
		return "block"
	default:
		return "variable"
	}
}

func newContextCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "context <file> <line>:<column>",
		Short: "classify the cursor position in a template (1-based coordinates)",
		Args:  cobra.ExactArgs(2),
	}

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return errors.Errorf("reading %s: %w", args[0], err)
		}
		line, column, err := parseLineColumn(args[1])
		if err != nil {
			return err
		}

		text := string(data)
		offset := position.OffsetAt(text, line-1, column-1)
		cctx := cursor.Resolve(jinja.Lex(text), offset)

		cmd.Printf("kind: %s\n", cctx.Kind)
		if cctx.Name != "" {
			cmd.Printf("name: %s\n", cctx.Name)
		}
		if cctx.Prefix != "" {
			cmd.Printf("prefix: %s\n", cctx.Prefix)
		}
		return nil
	}
	return cmd
}

func parseLineColumn(arg string) (int, int, error) {
	lineStr, colStr, ok := strings.Cut(arg, ":")
	if !ok {
		return 0, 0, errors.Errorf("expected <line>:<column>, got %q", arg)
	}
	line, err := strconv.Atoi(lineStr)
	if err != nil {
		return 0, 0, errors.Errorf("parsing line %q: %w", lineStr, err)
	}
	column, err := strconv.Atoi(colStr)
	if err != nil {
		return 0, 0, errors.Errorf("parsing column %q: %w", colStr, err)
	}
	if line < 1 || column < 1 {
		return 0, 0, errors.Errorf("line and column are 1-based, got %d:%d", line, column)
	}
	return line, column, nil
}
