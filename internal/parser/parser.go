// Package parser extracts structural facts (imports, definitions, calls)
// from source files using tree-sitter grammars. The dependency graph builder
// trusts these facts as given; everything here is best-effort syntax walking.
package parser

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"

	"cartograph/internal/types"
)

// Language identifies a supported grammar.
type Language string

const (
	LangPython     Language = "python"
	LangJavaScript Language = "javascript"
	LangTypeScript Language = "typescript"
	LangTSX        Language = "tsx"
)

var extToLang = map[string]Language{
	".py":  LangPython,
	".js":  LangJavaScript,
	".jsx": LangJavaScript,
	".ts":  LangTypeScript,
	".tsx": LangTSX,
}

func grammar(lang Language) *sitter.Language {
	switch lang {
	case LangPython:
		return python.GetLanguage()
	case LangJavaScript:
		return javascript.GetLanguage()
	case LangTypeScript:
		return typescript.GetLanguage()
	case LangTSX:
		return tsx.GetLanguage()
	}
	return nil
}

// LanguageForPath maps a file path to its grammar by extension.
func LanguageForPath(path string) (Language, bool) {
	lang, ok := extToLang[strings.ToLower(filepath.Ext(path))]
	return lang, ok
}

// Extractor parses source files into FileFacts.
type Extractor struct{}

// New returns a ready extractor. Grammars are compiled in; there is no
// runtime loading step.
func New() *Extractor { return &Extractor{} }

// SupportsExtension reports whether ext (with leading dot) has a grammar.
func (e *Extractor) SupportsExtension(ext string) bool {
	_, ok := extToLang[strings.ToLower(ext)]
	return ok
}

// ExtractFile reads and parses one file. rel becomes FileFacts.Path.
func (e *Extractor) ExtractFile(ctx context.Context, abs, rel string) (types.FileFacts, error) {
	src, err := os.ReadFile(abs)
	if err != nil {
		return types.FileFacts{}, err
	}
	return e.ExtractSource(ctx, rel, src)
}

// ExtractSource parses source bytes for the language implied by rel's
// extension. Unsupported extensions are an error; the orchestrator records
// them as per-file extraction failures.
func (e *Extractor) ExtractSource(ctx context.Context, rel string, src []byte) (types.FileFacts, error) {
	lang, ok := LanguageForPath(rel)
	if !ok {
		return types.FileFacts{}, fmt.Errorf("parser: unsupported file extension %q", filepath.Ext(rel))
	}

	p := sitter.NewParser()
	defer p.Close()
	p.SetLanguage(grammar(lang))

	tree, err := p.ParseCtx(ctx, nil, src)
	if err != nil {
		return types.FileFacts{}, fmt.Errorf("parser: %s: %w", rel, err)
	}
	defer tree.Close()

	acc := newAccumulator()
	switch lang {
	case LangPython:
		walkPython(tree.RootNode(), src, acc)
	default:
		walkJS(tree.RootNode(), src, acc)
	}

	return types.FileFacts{
		Path:        rel,
		Imports:     acc.imports,
		Definitions: acc.definitions,
		Calls:       acc.callsExcludingDefs(),
	}, nil
}

// accumulator collects facts with first-seen ordering and deduplication.
type accumulator struct {
	imports     []string
	definitions []string
	calls       []string
	seenImp     map[string]struct{}
	seenDef     map[string]struct{}
	seenCall    map[string]struct{}
}

func newAccumulator() *accumulator {
	return &accumulator{
		seenImp:  map[string]struct{}{},
		seenDef:  map[string]struct{}{},
		seenCall: map[string]struct{}{},
	}
}

func (a *accumulator) addImport(s string) {
	if s == "" {
		return
	}
	if _, dup := a.seenImp[s]; dup {
		return
	}
	a.seenImp[s] = struct{}{}
	a.imports = append(a.imports, s)
}

func (a *accumulator) addDef(s string) {
	if s == "" {
		return
	}
	if _, dup := a.seenDef[s]; dup {
		return
	}
	a.seenDef[s] = struct{}{}
	a.definitions = append(a.definitions, s)
}

func (a *accumulator) addCall(s string) {
	if s == "" {
		return
	}
	if _, dup := a.seenCall[s]; dup {
		return
	}
	a.seenCall[s] = struct{}{}
	a.calls = append(a.calls, s)
}

// callsExcludingDefs drops call names that are defined in the same file, so
// a file invoking its own helpers does not inflate the call statistics.
func (a *accumulator) callsExcludingDefs() []string {
	out := make([]string, 0, len(a.calls))
	for _, c := range a.calls {
		if _, isDef := a.seenDef[c]; isDef {
			continue
		}
		out = append(out, c)
	}
	return out
}
