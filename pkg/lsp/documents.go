// Package lsp ties the semantic core to the editor lifecycle: it tracks
// open documents, debounces re-analysis on edits and exposes the query
// surface the protocol handlers call.
package lsp

import (
	"sort"
	"sync"
)

// Document is one open text buffer with its metadata.
type Document struct {
	URI        string
	LanguageID string
	Version    int32
	Content    string
}

// DocumentManager holds the live buffers of open documents.
type DocumentManager struct {
	store *sync.Map // map[string]*Document
}

func NewDocumentManager() *DocumentManager {
	return &DocumentManager{
		store: &sync.Map{},
	}
}

func (m *DocumentManager) Get(uri string) (*Document, bool) {
	content, ok := m.store.Load(uri)
	if !ok {
		return nil, false
	}
	doc, ok := content.(*Document)
	return doc, ok
}

func (m *DocumentManager) Store(uri string, doc *Document) {
	m.store.Store(uri, doc)
}

func (m *DocumentManager) Delete(uri string) {
	m.store.Delete(uri)
}

// Text returns the live buffer content. It is the TextSource the resolver
// consults before falling back to files on disk.
func (m *DocumentManager) Text(uri string) (string, bool) {
	doc, ok := m.Get(uri)
	if !ok {
		return "", false
	}
	return doc.Content, true
}

// URIs lists every open document, sorted.
func (m *DocumentManager) URIs() []string {
	var uris []string
	m.store.Range(func(key, _ any) bool {
		uris = append(uris, key.(string))
		return true
	})
	sort.Strings(uris)
	return uris
}
