package syntax

import (
	"path/filepath"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	ts "github.com/smacker/go-tree-sitter/typescript/typescript"
)

// Canonical language names.
const (
	Python     = "python"
	JavaScript = "javascript"
	TypeScript = "typescript"
	Go         = "go"
)

// extToLanguage maps file extensions to canonical language names.
var extToLanguage = map[string]string{
	".py":  Python,
	".js":  JavaScript,
	".ts":  TypeScript,
	".tsx": TypeScript,
	".go":  Go,
}

// Grammars are keyed by extension rather than language because .tsx needs
// its own grammar. Lazily initialized on first use via sync.Once.
var (
	extToGrammar map[string]*sitter.Language
	grammarsOnce sync.Once
)

func initGrammars() {
	grammarsOnce.Do(func() {
		extToGrammar = map[string]*sitter.Language{
			".py":  python.GetLanguage(),
			".js":  javascript.GetLanguage(),
			".ts":  ts.GetLanguage(),
			".tsx": tsx.GetLanguage(),
			".go":  golang.GetLanguage(),
		}
	})
}

// Languages returns the supported language names.
func Languages() []string {
	return []string{Python, JavaScript, TypeScript, Go}
}

// LanguageForFile returns the canonical language name for a file path based
// on its extension, matched case-sensitively. Returns ("", false) if the
// extension is not recognized.
func LanguageForFile(path string) (string, bool) {
	lang, ok := extToLanguage[filepath.Ext(path)]
	return lang, ok
}

// GrammarForFile returns the tree-sitter grammar used to parse path.
func GrammarForFile(path string) (*sitter.Language, bool) {
	initGrammars()
	g, ok := extToGrammar[filepath.Ext(path)]
	return g, ok
}
