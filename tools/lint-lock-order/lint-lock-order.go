// lint-lock-order reports inconsistent mutex acquisition orders.
//
// Two functions that nest the same pair of mutexes in opposite orders can
// deadlock against each other at runtime. This tool records every nested
// acquisition pair (holding X, locking Y) across the given files and
// flags each pair that also occurs reversed somewhere else.
//
// Pair acquisitions through an all-or-nothing helper like LockBoth are not
// ordered acquisitions and are ignored. Functions whose doc comment
// contains a "lockorder:ignore" line are skipped entirely, for the rare
// spot where opposite orders are the point.
//
// Usage: lint-lock-order [-verbose] <file_or_dir>...
//
// Exits with the number of conflicting pairs found.
package main

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// acquisition is one observed "holding first, locked second" event.
type acquisition struct {
	first    string
	second   string
	function string
	pos      token.Pos
}

type checker struct {
	fset    *token.FileSet
	pairs   []acquisition
	verbose bool
}

func main() {
	var verbose bool
	var paths []string

	for _, arg := range os.Args[1:] {
		if arg == "-verbose" {
			verbose = true
			continue
		}
		paths = append(paths, arg)
	}

	if len(paths) == 0 {
		fmt.Fprintf(os.Stderr, "Usage: %s [-verbose] <file_or_dir>...\n", os.Args[0])
		os.Exit(1)
	}

	c := &checker{fset: token.NewFileSet(), verbose: verbose}

	for _, path := range paths {
		if err := c.processPath(path); err != nil {
			fmt.Fprintf(os.Stderr, "Error processing %s: %v\n", path, err)
		}
	}

	os.Exit(c.report(os.Stdout))
}

func (c *checker) processPath(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}

	if !info.IsDir() {
		return c.processFile(path)
	}

	return filepath.Walk(path, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() && (info.Name() == "vendor" || strings.HasPrefix(info.Name(), ".")) {
			return filepath.SkipDir
		}
		if strings.HasSuffix(path, ".go") && !strings.HasSuffix(path, "_test.go") {
			return c.processFile(path)
		}
		return nil
	})
}

func (c *checker) processFile(filename string) error {
	src, err := os.ReadFile(filename)
	if err != nil {
		return err
	}
	return c.processSource(filename, src)
}

func (c *checker) processSource(filename string, src []byte) error {
	file, err := parser.ParseFile(c.fset, filename, src, parser.ParseComments)
	if err != nil {
		return err
	}

	ast.Inspect(file, func(n ast.Node) bool {
		fn, ok := n.(*ast.FuncDecl)
		if !ok || fn.Body == nil {
			return true
		}
		if ignored(fn) {
			if c.verbose {
				fmt.Fprintf(os.Stderr, "Skipping %s (lockorder:ignore)\n", fn.Name.Name)
			}
			return true
		}

		c.walkStmts(fn.Body.List, fn.Name.Name, nil)
		return true
	})

	return nil
}

// ignored reports whether the function opted out via its doc comment.
func ignored(fn *ast.FuncDecl) bool {
	if fn.Doc == nil {
		return false
	}
	for _, line := range fn.Doc.List {
		if strings.Contains(line.Text, "lockorder:ignore") {
			return true
		}
	}
	return false
}

// walkStmts tracks the held-lock stack through a statement list. held is
// the acquisition-ordered list of mutexes locked and not yet unlocked.
func (c *checker) walkStmts(stmts []ast.Stmt, function string, held []string) []string {
	for _, stmt := range stmts {
		held = c.walkStmt(stmt, function, held)
	}
	return held
}

func (c *checker) walkStmt(stmt ast.Stmt, function string, held []string) []string {
	switch s := stmt.(type) {
	case *ast.ExprStmt:
		held = c.checkCall(s.X, function, held)
	case *ast.BlockStmt:
		held = c.walkStmts(s.List, function, held)
	case *ast.IfStmt:
		// Branches do not leak state into each other.
		c.walkStmts(s.Body.List, function, append([]string(nil), held...))
		if s.Else != nil {
			c.walkStmt(s.Else, function, append([]string(nil), held...))
		}
	case *ast.ForStmt:
		if s.Body != nil {
			c.walkStmts(s.Body.List, function, append([]string(nil), held...))
		}
	case *ast.RangeStmt:
		if s.Body != nil {
			c.walkStmts(s.Body.List, function, append([]string(nil), held...))
		}
	case *ast.AssignStmt:
		for _, rhs := range s.Rhs {
			held = c.checkCall(rhs, function, held)
		}
	case *ast.GoStmt:
		// A new goroutine starts with nothing held.
		if lit, ok := s.Call.Fun.(*ast.FuncLit); ok {
			c.walkStmts(lit.Body.List, function, nil)
		}
	case *ast.DeferStmt:
		// Runs at function exit, does not change the running state.
	}
	return held
}

// checkCall inspects one expression statement for Lock/Unlock calls and
// updates the held stack. Every Lock taken while something is already held
// records an ordered pair.
func (c *checker) checkCall(expr ast.Expr, function string, held []string) []string {
	call, ok := expr.(*ast.CallExpr)
	if !ok {
		return held
	}
	sel, ok := call.Fun.(*ast.SelectorExpr)
	if !ok {
		return held
	}

	name := exprPath(sel.X)
	if name == "" {
		return held
	}

	switch sel.Sel.Name {
	case "Lock", "RLock":
		for _, h := range held {
			c.pairs = append(c.pairs, acquisition{
				first:    h,
				second:   name,
				function: function,
				pos:      call.Pos(),
			})
		}
		held = append(held, name)
	case "Unlock", "RUnlock":
		for i := len(held) - 1; i >= 0; i-- {
			if held[i] == name {
				held = append(held[:i], held[i+1:]...)
				break
			}
		}
	}
	return held
}

// exprPath renders a selector chain like "r.MuA" to a comparable name.
func exprPath(expr ast.Expr) string {
	switch e := expr.(type) {
	case *ast.Ident:
		return e.Name
	case *ast.SelectorExpr:
		base := exprPath(e.X)
		if base == "" {
			return ""
		}
		return base + "." + e.Sel.Name
	}
	return ""
}

// conflicts returns the acquisition sites whose pair also occurs reversed.
func (c *checker) conflicts() []acquisition {
	reversed := make(map[string]bool, len(c.pairs))
	for _, p := range c.pairs {
		reversed[p.second+"\x00"+p.first] = true
	}

	var out []acquisition
	for _, p := range c.pairs {
		if reversed[p.first+"\x00"+p.second] {
			out = append(out, p)
		}
	}
	return out
}

func (c *checker) report(w *os.File) int {
	found := c.conflicts()

	sort.Slice(found, func(i, j int) bool {
		pi, pj := c.fset.Position(found[i].pos), c.fset.Position(found[j].pos)
		if pi.Filename != pj.Filename {
			return pi.Filename < pj.Filename
		}
		return pi.Line < pj.Line
	})

	count := 0
	seen := make(map[string]bool)
	for _, p := range found {
		pos := c.fset.Position(p.pos)
		key := fmt.Sprintf("%s:%d:%s:%s", pos.Filename, pos.Line, p.first, p.second)
		if seen[key] {
			continue
		}
		seen[key] = true
		count++

		fmt.Fprintf(w, "[ERROR] %s:%d:%d: %s locks '%s' while holding '%s', but the opposite order exists elsewhere\n",
			pos.Filename, pos.Line, pos.Column, p.function, p.second, p.first)
	}

	if count == 0 && c.verbose {
		fmt.Fprintf(os.Stderr, "No lock-order conflicts found.\n")
	}
	return count
}
