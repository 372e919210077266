package seedauth

import (
	"go/ast"
	"go/parser"
	"go/token"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// undocumented lists exported package-level names in dir that carry no doc
// comment. Inside a parenthesized block a comment on the block covers every
// spec, and an iota continuation inherits the doc state of the spec before it.
func undocumented(t *testing.T, dir string) []string {
	t.Helper()
	files, err := filepath.Glob(filepath.Join(dir, "*.go"))
	require.NoError(t, err)

	var missing []string
	fset := token.NewFileSet()
	for _, path := range files {
		if strings.HasSuffix(path, "_test.go") {
			continue
		}
		f, err := parser.ParseFile(fset, path, nil, parser.ParseComments)
		require.NoError(t, err)

		for _, decl := range f.Decls {
			switch d := decl.(type) {
			case *ast.FuncDecl:
				if d.Recv == nil && d.Name.IsExported() && d.Doc == nil {
					missing = append(missing, fset.Position(d.Pos()).String()+" "+d.Name.Name)
				}
			case *ast.GenDecl:
				if d.Tok == token.IMPORT {
					continue
				}
				grouped := d.Lparen.IsValid()
				covered := d.Doc != nil && grouped
				run := false
				for _, spec := range d.Specs {
					var doc *ast.CommentGroup
					var names []*ast.Ident
					explicit := true
					switch s := spec.(type) {
					case *ast.TypeSpec:
						doc, names = s.Doc, []*ast.Ident{s.Name}
					case *ast.ValueSpec:
						doc, names = s.Doc, s.Names
						explicit = len(s.Values) > 0 || s.Type != nil
					}
					if !grouped {
						doc = d.Doc
					}
					switch {
					case doc != nil:
						run = true
					case explicit:
						run = false
					}
					if covered || run {
						continue
					}
					for _, name := range names {
						if name.IsExported() {
							missing = append(missing, fset.Position(name.Pos()).String()+" "+name.Name)
						}
					}
				}
			}
		}
	}
	return missing
}

func TestExportedDeclarationsAreDocumented(t *testing.T) {
	for _, dir := range []string{".", "internal/flows", "directory/gormdir"} {
		t.Run(dir, func(t *testing.T) {
			if missing := undocumented(t, dir); len(missing) > 0 {
				t.Fatalf("exported declarations without doc comments:\n%s", strings.Join(missing, "\n"))
			}
		})
	}
}
