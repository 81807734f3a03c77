package syntax

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/kotlin"
)

var (
	kotlinLang     *sitter.Language
	kotlinLangOnce sync.Once
)

// Language returns the tree-sitter Kotlin grammar, loaded once.
func Language() *sitter.Language {
	kotlinLangOnce.Do(func() {
		kotlinLang = kotlin.GetLanguage()
	})
	return kotlinLang
}

// IsKotlinFile reports whether path has a Kotlin source extension.
func IsKotlinFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".kt", ".kts":
		return true
	}
	return false
}

// Tree is a parsed Kotlin file. It owns the underlying tree-sitter tree.
type Tree struct {
	tree *sitter.Tree
	src  []byte
}

// Parse parses Kotlin source. A fresh parser is created per call, so Parse is
// safe to use from concurrent workers.
func Parse(ctx context.Context, src []byte) (*Tree, error) {
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(Language())

	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("syntax: parse: %w", err)
	}
	if tree == nil {
		return nil, fmt.Errorf("syntax: parse returned no tree")
	}
	return &Tree{tree: tree, src: src}, nil
}

// ParseString is a convenience wrapper for tests and scripts.
func ParseString(ctx context.Context, src string) (*Tree, error) {
	return Parse(ctx, []byte(src))
}

func (t *Tree) Root() *Node {
	if t == nil || t.tree == nil {
		return nil
	}
	return wrap(t.tree.RootNode(), t.src)
}

func (t *Tree) Source() []byte {
	if t == nil {
		return nil
	}
	return t.src
}

// TextAt returns the source covered by r, clamped to the file.
func (t *Tree) TextAt(r Range) string {
	if t == nil {
		return ""
	}
	start, end := r.StartByte, r.EndByte
	if start < 0 {
		start = 0
	}
	if end > len(t.src) {
		end = len(t.src)
	}
	if start >= end {
		return ""
	}
	return string(t.src[start:end])
}

// Close releases the tree-sitter tree.
func (t *Tree) Close() {
	if t != nil && t.tree != nil {
		t.tree.Close()
		t.tree = nil
	}
}
