package lang

import (
	"context"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
)

// Parse parses src with the language's grammar. The caller owns the
// returned tree and must Close it. tree-sitter always produces a tree,
// recovering around syntax errors, so malformed regions simply contain
// ERROR nodes and are left untouched downstream.
func Parse(ctx context.Context, l *Language, src []byte) (*sitter.Tree, error) {
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(l.Grammar)

	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("parsing %s source: %w", l.Name, err)
	}
	return tree, nil
}
