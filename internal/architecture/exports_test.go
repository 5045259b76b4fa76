package architecture_test

import (
	"go/ast"
	"go/parser"
	"go/token"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"testing"
)

// Every exported top-level function must be referenced somewhere in the
// module, tests included.
func TestExportedFuncsReferenced(t *testing.T) {
	root, _ := moduleRoot(t)
	fset := token.NewFileSet()

	declared := map[string]string{}
	used := map[string]bool{}
	for _, dir := range []string{"internal", "cmd"} {
		err := filepath.WalkDir(filepath.Join(root, dir), func(path string, d fs.DirEntry, err error) error {
			if err != nil || d.IsDir() || !strings.HasSuffix(path, ".go") {
				return err
			}
			f, err := parser.ParseFile(fset, path, nil, 0)
			if err != nil {
				return err
			}
			rel, _ := filepath.Rel(root, path)
			decls := map[*ast.Ident]bool{}
			for _, decl := range f.Decls {
				fn, ok := decl.(*ast.FuncDecl)
				if !ok || fn.Recv != nil {
					continue
				}
				decls[fn.Name] = true
				if fn.Name.IsExported() && !strings.HasSuffix(path, "_test.go") {
					declared[f.Name.Name+"."+fn.Name.Name] = filepath.ToSlash(rel)
				}
			}
			ast.Inspect(f, func(n ast.Node) bool {
				if id, ok := n.(*ast.Ident); ok && !decls[id] {
					used[id.Name] = true
				}
				return true
			})
			return nil
		})
		if err != nil {
			t.Fatalf("walk %s/: %v", dir, err)
		}
	}

	var unused []string
	for qualified, file := range declared {
		name := qualified[strings.LastIndex(qualified, ".")+1:]
		if !used[name] {
			unused = append(unused, "- "+qualified+" ("+file+")")
		}
	}
	sort.Strings(unused)
	if len(unused) > 0 {
		t.Fatal("exported functions without callers:\n" + strings.Join(unused, "\n"))
	}
}
