package core

import (
	"fmt"
	"go/ast"
	"go/types"
	"sort"
	"strings"
	"sync"
	"testing"

	"golang.org/x/tools/go/packages"
)

const corePkgPath = "famiglia/internal/core"

var (
	loadOnce   sync.Once
	loadedCore *packages.Package
	loadErr    error
)

func coreSources(t *testing.T) *packages.Package {
	t.Helper()
	loadOnce.Do(func() {
		pkgs, err := packages.Load(&packages.Config{
			Mode: packages.NeedName | packages.NeedTypes | packages.NeedSyntax | packages.NeedFiles,
		}, corePkgPath)
		if err != nil {
			loadErr = fmt.Errorf("load %s: %w", corePkgPath, err)
			return
		}
		for _, p := range pkgs {
			if len(p.Errors) > 0 {
				loadErr = fmt.Errorf("load %s: %v", corePkgPath, p.Errors)
				return
			}
			if p.PkgPath == corePkgPath {
				loadedCore = p
				return
			}
		}
		loadErr = fmt.Errorf("%s missing from load results", corePkgPath)
	})
	if loadErr != nil {
		t.Fatal(loadErr)
	}
	return loadedCore
}

// serviceMethods indexes every *Service method declared in the package by name.
func serviceMethods(pkg *packages.Package) map[string]*ast.FuncDecl {
	out := make(map[string]*ast.FuncDecl)
	for _, file := range pkg.Syntax {
		for _, decl := range file.Decls {
			fn, ok := decl.(*ast.FuncDecl)
			if !ok || fn.Recv == nil || len(fn.Recv.List) != 1 || fn.Body == nil {
				continue
			}
			star, ok := fn.Recv.List[0].Type.(*ast.StarExpr)
			if !ok {
				continue
			}
			if id, ok := star.X.(*ast.Ident); ok && id.Name == "Service" {
				out[fn.Name.Name] = fn
			}
		}
	}
	return out
}

// selfCalls lists the receiver methods and fields called directly in fn.
func selfCalls(fn *ast.FuncDecl) map[string]bool {
	calls := make(map[string]bool)
	if len(fn.Recv.List[0].Names) == 0 {
		return calls
	}
	recv := fn.Recv.List[0].Names[0].Name
	ast.Inspect(fn.Body, func(n ast.Node) bool {
		call, ok := n.(*ast.CallExpr)
		if !ok {
			return true
		}
		sel, ok := call.Fun.(*ast.SelectorExpr)
		if !ok {
			return true
		}
		switch x := sel.X.(type) {
		case *ast.Ident:
			if x.Name == recv {
				calls[sel.Sel.Name] = true
			}
		case *ast.SelectorExpr:
			if id, ok := x.X.(*ast.Ident); ok && id.Name == recv {
				calls[x.Sel.Name+"."+sel.Sel.Name] = true
			}
		}
		return true
	})
	return calls
}

func TestServiceStructContract(t *testing.T) {
	pkg := coreSources(t)
	obj := pkg.Types.Scope().Lookup("Service")
	if obj == nil {
		t.Fatalf("Service not declared")
	}
	st, ok := obj.Type().Underlying().(*types.Struct)
	if !ok {
		t.Fatalf("Service is not a struct")
	}
	got := make(map[string]string, st.NumFields())
	for i := 0; i < st.NumFields(); i++ {
		f := st.Field(i)
		got[f.Name()] = types.TypeString(f.Type(), func(p *types.Package) string { return p.Path() })
	}

	want := map[string]string{
		"store":   "famiglia/pkg/domain.PersistentStore",
		"engine":  "*famiglia/pkg/domain.RulesEngine",
		"clock":   corePkgPath + ".Clock",
		"now":     "func() time.Time",
		"logger":  corePkgPath + ".Logger",
		"metrics": corePkgPath + ".MetricsRecorder",
		"tracer":  corePkgPath + ".Tracer",
		"audit":   corePkgPath + ".AuditRecorder",
		"archive": "famiglia/internal/blob/core.Store",
		"mu":      "sync.RWMutex",
	}
	var problems []string
	for name, typ := range want {
		switch have, ok := got[name]; {
		case !ok:
			problems = append(problems, "missing "+name)
		case have != typ:
			problems = append(problems, fmt.Sprintf("%s is %s, want %s", name, have, typ))
		}
	}
	sort.Strings(problems)
	if len(problems) > 0 {
		t.Fatalf("Service fields drifted: %s", strings.Join(problems, "; "))
	}
}

func TestServiceOperationsUseGuardedPaths(t *testing.T) {
	methods := serviceMethods(coreSources(t))

	cases := map[string]string{
		"Found":             "run",
		"AddMember":         "run",
		"SendToPrison":      "run",
		"ReleaseFromPrison": "run",
		"Member":            "read",
		"Godfather":         "read",
		"Members":           "read",
		"Prisoners":         "read",
		"FindBigBosses":     "read",
		"CompareMembers":    "read",
		"Snapshot":          "read",
		"ExportSnapshot":    "read",
		"LoadArchive":       "guarded",
		"ListArchives":      "guarded",
	}
	for name, path := range cases {
		fn, ok := methods[name]
		if !ok {
			t.Errorf("%s is not a Service method", name)
			continue
		}
		calls := selfCalls(fn)
		if !calls[path] {
			t.Errorf("%s must delegate to %s", name, path)
		}
		if path != "run" && calls["run"] {
			t.Errorf("%s must not open a write transaction", name)
		}
	}
}

func TestServiceMutationsAreNotReachedOutsideRun(t *testing.T) {
	for name, fn := range serviceMethods(coreSources(t)) {
		calls := selfCalls(fn)
		if calls["store.RunInTransaction"] && name != "run" {
			t.Errorf("%s opens a store transaction outside run", name)
		}
		if calls["mu.Lock"] && name != "run" {
			t.Errorf("%s takes the write lock outside run", name)
		}
	}
}
