package internalcheck

import (
	"fmt"
	"go/ast"
	"go/types"
	"os"
	"strings"
	"testing"

	"golang.org/x/tools/go/packages"
)

func TestRawFreeOnlyFromWideStringFree(t *testing.T) {
	cfg := &packages.Config{
		Mode: packages.NeedSyntax | packages.NeedTypes | packages.NeedTypesInfo | packages.NeedFiles | packages.NeedName,
		Env:  append(os.Environ(), "CGO_ENABLED=0"),
	}

	pkgs, err := packages.Load(cfg, modulePath+"/...")
	if err != nil {
		t.Fatalf("load packages: %v", err)
	}

	var findings []string
	allowedCalls := 0

	for _, pkg := range pkgs {
		for _, file := range pkg.Syntax {
			for _, decl := range file.Decls {
				fn, ok := decl.(*ast.FuncDecl)
				if !ok || fn.Body == nil {
					continue
				}
				allowed := pkg.PkgPath == modulePath+"/pkg/hoststr" &&
					fn.Name.Name == "Free" && receiverName(fn) == "WideString"

				ast.Inspect(fn.Body, func(n ast.Node) bool {
					call, ok := n.(*ast.CallExpr)
					if !ok {
						return true
					}
					sel, ok := call.Fun.(*ast.SelectorExpr)
					if !ok || sel.Sel.Name != "RawFree" {
						return true
					}
					obj, ok := pkg.TypesInfo.Uses[sel.Sel].(*types.Func)
					if !ok || obj.Type().(*types.Signature).Recv() == nil {
						return true
					}
					if allowed {
						allowedCalls++
						return true
					}
					pos := pkg.Fset.Position(call.Pos())
					findings = append(findings, fmt.Sprintf("%s: RawFree called from %s; release buffers through (*WideString).Free", pos, fn.Name.Name))
					return true
				})
			}
		}
	}

	if allowedCalls != 1 {
		t.Fatalf("expected exactly one RawFree call in (*WideString).Free, found %d", allowedCalls)
	}
	if len(findings) > 0 {
		t.Fatalf("deallocation policy violation:\n%s", strings.Join(findings, "\n"))
	}
}

func receiverName(fn *ast.FuncDecl) string {
	if fn.Recv == nil || len(fn.Recv.List) == 0 {
		return ""
	}
	expr := fn.Recv.List[0].Type
	if star, ok := expr.(*ast.StarExpr); ok {
		expr = star.X
	}
	if id, ok := expr.(*ast.Ident); ok {
		return id.Name
	}
	return ""
}
