// Package resolve implements §4.F: turning one raw import pypath into an
// absolute pypath and classifying it internal or external against the
// package model.
package resolve

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/pyarch/pyarch/internal/pkgmodel"
	"github.com/pyarch/pyarch/internal/pypath"
)

// UnknownInternalImportError is §7's UnknownInternalImport kind: an import
// whose prefix is within the root package but that resolves to nothing the
// package model discovered.
type UnknownInternalImportError struct {
	PyPath string
}

func (e *UnknownInternalImportError) Error() string {
	return fmt.Sprintf("unknown internal import: %q", e.PyPath)
}

// Classification distinguishes an internal target (a known package item)
// from an external one (outside the tree).
type Classification int

const (
	// Internal means the resolved pypath addresses a known package item.
	Internal Classification = iota
	// External means the resolved pypath is outside the tree.
	External
)

// Resolved is the outcome of resolving one raw import.
type Resolved struct {
	Class      Classification
	Target     pypath.PyPath // always set
	TargetItem pkgmodel.Item // valid only when Class == Internal
}

// Resolve resolves raw (as produced by importscan.RawImport.PyPath) relative
// to filePath, within a tree rooted at containerDir (the directory holding
// the root package, i.e. pypath.FromPath's second argument), against model.
func Resolve(raw string, filePath string, containerDir string, model *pkgmodel.Model) (Resolved, error) {
	raw = strings.TrimSuffix(raw, ".*")

	var abs pypath.PyPath
	var err error

	if !strings.HasPrefix(raw, ".") {
		abs, err = pypath.New(raw)
		if err != nil {
			return Resolved{}, err
		}
	} else {
		n := 0
		for n < len(raw) && raw[n] == '.' {
			n++
		}
		remainder := raw[n:]

		dir := filepath.Dir(filePath)
		for i := 0; i < n-1; i++ {
			dir = filepath.Dir(dir)
		}
		base, err2 := pypath.FromPath(dir, containerDir)
		if err2 != nil {
			return Resolved{}, err2
		}
		if remainder == "" {
			abs = base
		} else {
			abs = base.Append(remainder)
		}
	}

	return classify(abs, model)
}

func classify(abs pypath.PyPath, model *pkgmodel.Model) (Resolved, error) {
	if tok, ok := model.TokenByPyPath(abs); ok {
		return Resolved{Class: Internal, Target: abs, TargetItem: model.Item(tok)}, nil
	}
	if parent := abs.Parent(); !parent.IsEmpty() {
		if tok, ok := model.TokenByPyPath(parent); ok {
			return Resolved{Class: Internal, Target: abs, TargetItem: model.Item(tok)}, nil
		}
	}

	root := model.Item(model.Root())
	if root.PyPath.Contains(abs) {
		return Resolved{}, &UnknownInternalImportError{PyPath: abs.String()}
	}

	return Resolved{Class: External, Target: abs}, nil
}
