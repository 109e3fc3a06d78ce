// Package syntax adapts tree-sitter to the small node surface the
// extractors walk: type tags, 0-based rows, child and field access, source
// text, and sibling navigation.
package syntax

import (
	"context"
	"errors"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
)

// ErrUnsupported is returned by Parse for files without a grammar.
var ErrUnsupported = errors.New("syntax: unsupported file extension")

// Tree is a parsed source file. Close releases the underlying tree.
type Tree struct {
	tree *sitter.Tree
	src  []byte
}

// Parse parses src with the grammar selected by path's extension. A new
// parser is created for every call and released before returning.
func Parse(ctx context.Context, path string, src []byte) (*Tree, error) {
	grammar, ok := GrammarForFile(path)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, path)
	}

	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(grammar)

	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("syntax: parse %s: %w", path, err)
	}
	if tree == nil {
		return nil, fmt.Errorf("syntax: parse %s: no tree produced", path)
	}
	return &Tree{tree: tree, src: src}, nil
}

// Root returns the root node of the tree.
func (t *Tree) Root() Node {
	return Node{n: t.tree.RootNode(), src: t.src}
}

// Source returns the bytes the tree was parsed from.
func (t *Tree) Source() []byte {
	return t.src
}

// Close releases the tree.
func (t *Tree) Close() {
	if t.tree != nil {
		t.tree.Close()
		t.tree = nil
	}
}
