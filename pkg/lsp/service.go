package lsp

import (
	"context"
	"path/filepath"
	"time"

	"github.com/rs/xid"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"go.lsp.dev/protocol"

	"github.com/walteh/jinjals/pkg/config"
	"github.com/walteh/jinjals/pkg/inference"
	"github.com/walteh/jinjals/pkg/resolve"
	"github.com/walteh/jinjals/pkg/workspace"
)

// DefaultDebounce is how long an edit must rest before re-analysis runs.
const DefaultDebounce = 200 * time.Millisecond

// Service is the stateful core behind the protocol handlers. One instance
// serves one workspace.
type Service struct {
	id        string
	engine    *inference.Engine
	index     *workspace.Index
	resolver  *resolve.Resolver
	documents *DocumentManager
	scheduler *Scheduler
}

// NewService wires the engine, workspace index and resolver for a
// workspace rooted at root. fs is the filesystem the index reads from.
func NewService(fs afero.Fs, cfg *config.Config, root string) *Service {
	roots := make([]string, 0, len(cfg.TemplateRoots))
	for _, r := range cfg.TemplateRoots {
		if !filepath.IsAbs(r) {
			r = filepath.Join(root, r)
		}
		roots = append(roots, r)
	}

	engine := inference.NewEngine()
	index := workspace.NewIndex(fs, roots, cfg.Extensions)
	documents := NewDocumentManager()
	return &Service{
		id:        xid.New().String(),
		engine:    engine,
		index:     index,
		resolver:  resolve.New(engine, index, documents),
		documents: documents,
		scheduler: NewScheduler(DefaultDebounce),
	}
}

func (s *Service) ID() string { return s.id }

func (s *Service) Index() *workspace.Index { return s.index }

func (s *Service) Documents() *DocumentManager { return s.documents }

// Start performs the initial workspace scan. Indexing failures are logged,
// not fatal; the server is still useful for open documents.
func (s *Service) Start(ctx context.Context) {
	logger := zerolog.Ctx(ctx)
	if err := s.index.Rebuild(ctx); err != nil {
		logger.Warn().Err(err).Msg("workspace scan finished with errors")
	}
	logger.Info().Str("server_id", s.id).Int("templates", s.index.Len()).Msg("workspace indexed")
}

// Watch keeps the index current until ctx is cancelled.
func (s *Service) Watch(ctx context.Context, roots []string) error {
	watcher, err := workspace.NewWatcher(s.index, roots)
	if err != nil {
		return err
	}
	return watcher.Run(ctx)
}

// DidOpen analyzes the document immediately; the user is looking at it.
func (s *Service) DidOpen(ctx context.Context, uri, languageID string, version int32, text string) {
	s.documents.Store(uri, &Document{URI: uri, LanguageID: languageID, Version: version, Content: text})
	s.engine.Analyze(ctx, uri, text)
}

// DidChange stores the new content at once but defers re-analysis behind
// the debounce window. Queries between edit and analysis see the previous
// symbol table, which is the accepted staleness bound.
func (s *Service) DidChange(ctx context.Context, uri string, version int32, text string) {
	doc, ok := s.documents.Get(uri)
	if !ok {
		doc = &Document{URI: uri}
	}
	s.documents.Store(uri, &Document{URI: uri, LanguageID: doc.LanguageID, Version: version, Content: text})
	s.scheduler.Schedule(ctx, uri, func(ctx context.Context) {
		current, ok := s.documents.Get(uri)
		if !ok {
			return
		}
		s.engine.Analyze(ctx, uri, current.Content)
	})
}

// DidClose forgets the buffer and its analysis. The on-disk copy, if any,
// stays visible through the workspace index.
func (s *Service) DidClose(ctx context.Context, uri string) {
	s.scheduler.Cancel(uri)
	s.documents.Delete(uri)
	s.engine.Clear(uri)
}

func (s *Service) textOf(uri string) (string, bool) {
	if text, ok := s.documents.Text(uri); ok {
		return text, true
	}
	return s.index.Source(uri)
}

func (s *Service) Definition(ctx context.Context, uri string, pos protocol.Position) ([]protocol.Location, error) {
	text, ok := s.textOf(uri)
	if !ok {
		return nil, nil
	}
	return s.resolver.Definition(uri, text, pos)
}

func (s *Service) References(ctx context.Context, uri string, pos protocol.Position, includeDeclaration bool) ([]protocol.Location, error) {
	text, ok := s.textOf(uri)
	if !ok {
		return nil, nil
	}
	return s.resolver.References(uri, text, pos, includeDeclaration)
}

func (s *Service) Rename(ctx context.Context, uri string, pos protocol.Position, newName string) (*protocol.WorkspaceEdit, error) {
	text, ok := s.textOf(uri)
	if !ok {
		return nil, nil
	}
	return s.resolver.Rename(uri, text, pos, newName)
}

func (s *Service) DocumentHighlight(ctx context.Context, uri string, pos protocol.Position) ([]protocol.DocumentHighlight, error) {
	text, ok := s.textOf(uri)
	if !ok {
		return nil, nil
	}
	return s.resolver.Highlights(uri, text, pos)
}

func (s *Service) WorkspaceSymbols(ctx context.Context, query string) []protocol.SymbolInformation {
	return s.resolver.WorkspaceSymbols(query)
}
