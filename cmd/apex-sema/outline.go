package main

import (
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/apexlab/sema/internal/engine"
	"github.com/apexlab/sema/internal/parsetree"
	"github.com/apexlab/sema/internal/sym"
)

// outlineProvider is the CLI's built-in parse provider: a line-oriented
// declaration scanner good enough for workspace smoke indexing. Hosts embed
// the engine with their real parser; this one only sees type headers.
type outlineProvider struct{}

func newOutlineProvider() *outlineProvider { return &outlineProvider{} }

var declRe = regexp.MustCompile(`\b(class|interface|enum|trigger)\s+([A-Za-z_][A-Za-z0-9_]*)`)
var extendsRe = regexp.MustCompile(`\bextends\s+([A-Za-z0-9_.<>\s,]+?)(?:\s+implements\b|\s*\{|\s*$)`)
var implementsRe = regexp.MustCompile(`\bimplements\s+([A-Za-z0-9_.\s,]+?)(?:\s*\{|\s*$)`)

var modifierRe = regexp.MustCompile(`\b(public|private|protected|global|static|final|abstract|virtual|override)\b`)

func (p *outlineProvider) Parse(fileURI string, version int, content []byte) (*parsetree.Tree, []sym.Diagnostic) {
	root := &parsetree.Node{Kind: parsetree.NodeCompilationUnit}
	depth := 0
	for i, line := range strings.Split(string(content), "\n") {
		if depth == 0 {
			if m := declRe.FindStringSubmatch(line); m != nil {
				root.Children = append(root.Children, declNode(m[1], m[2], line, i+1))
			}
		}
		depth += strings.Count(line, "{") - strings.Count(line, "}")
	}
	tree := &parsetree.Tree{FileURI: fileURI, Version: version, Root: root}
	return tree, nil
}

func declNode(keyword, name, line string, lineNo int) *parsetree.Node {
	kind := parsetree.NodeClassDecl
	switch keyword {
	case "interface":
		kind = parsetree.NodeInterfaceDecl
	case "enum":
		kind = parsetree.NodeEnumDecl
	case "trigger":
		kind = parsetree.NodeTriggerDecl
	}
	attrs := map[string]string{}
	if mods := modifierRe.FindAllString(line[:strings.Index(line, name)], -1); len(mods) > 0 {
		attrs["modifiers"] = strings.Join(mods, " ")
	}
	if m := extendsRe.FindStringSubmatch(line); m != nil {
		attrs["super"] = strings.TrimSpace(m[1])
	}
	if m := implementsRe.FindStringSubmatch(line); m != nil {
		attrs["interfaces"] = strings.TrimSpace(m[1])
	}
	col := strings.Index(line, name)
	r := sym.Range{
		Start: sym.Position{Line: lineNo, Column: 0},
		End:   sym.Position{Line: lineNo, Column: len(line)},
	}
	return &parsetree.Node{
		Kind:  kind,
		Name:  name,
		Range: r,
		IdentRange: sym.Range{
			Start: sym.Position{Line: lineNo, Column: col},
			End:   sym.Position{Line: lineNo, Column: col + len(name)},
		},
		Attrs: attrs,
	}
}

// collectSources walks a workspace and loads every Apex source file.
func collectSources(dir string) ([]engine.WorkspaceFile, error) {
	var files []engine.WorkspaceFile
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == ".git" || d.Name() == "node_modules" {
				return filepath.SkipDir
			}
			return nil
		}
		ext := filepath.Ext(path)
		if ext != ".cls" && ext != ".trigger" {
			return nil
		}
		content, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		abs, err := filepath.Abs(path)
		if err != nil {
			return err
		}
		files = append(files, engine.WorkspaceFile{URI: "file://" + abs, Content: content})
		return nil
	})
	return files, err
}
