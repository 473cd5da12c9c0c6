package cmd

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/pyarch/pyarch/internal/discovery"
	"github.com/pyarch/pyarch/internal/graphquery"
	"github.com/pyarch/pyarch/internal/importsindex"
	"github.com/pyarch/pyarch/internal/pkgmodel"
	"github.com/pyarch/pyarch/internal/pyast"
	"github.com/pyarch/pyarch/pkg/types"
)

var graphCmd = &cobra.Command{
	Use:   "graph <directory>",
	Short: "Dump the internal and external import graph of a Python package tree as JSON",
	Args:  cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE:         runGraph,
}

func graphFor(idx *importsindex.Index) *graphquery.Graph {
	return graphquery.New(idx)
}

type graphDump struct {
	Items    []graphItemDump      `json:"items"`
	Internal map[string][]string `json:"internal_imports"`
	External map[string][]string `json:"external_imports"`
}

type graphItemDump struct {
	PyPath string `json:"pypath"`
	Path   string `json:"path"`
	Kind   string `json:"kind"`
}

func runGraph(cmd *cobra.Command, args []string) error {
	dir, err := filepath.Abs(args[0])
	if err != nil {
		return types.NewExitError(types.ExitBuildError, "cannot resolve path: %s", err)
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return types.NewExitError(types.ExitBuildError, "not a directory: %s", dir)
	}

	w, err := discovery.New(discovery.ExcludeHidden, discovery.OnlyExtension(".py")).WithGitignore(dir)
	if err != nil {
		return types.NewExitError(types.ExitBuildError, "load .gitignore: %s", err)
	}

	model, err := pkgmodel.Build(dir, w)
	if err != nil {
		return types.NewExitError(types.ExitBuildError, "build package model: %s", err)
	}

	parser, err := pyast.NewParser()
	if err != nil {
		return types.NewExitError(types.ExitBuildError, "start parser: %s", err)
	}
	defer parser.Close()

	idx, err := importsindex.Build(model, parser, filepath.Dir(dir), importsindex.DefaultOptions())
	if err != nil {
		return types.NewExitError(types.ExitBuildError, "build import index: %s", err)
	}

	dump := graphDump{
		Internal: map[string][]string{},
		External: map[string][]string{},
	}
	for _, tok := range model.AllTokens() {
		item := model.Item(tok)
		kind := "package"
		if item.Kind == pkgmodel.KindModule {
			kind = "module"
		}
		dump.Items = append(dump.Items, graphItemDump{PyPath: string(item.PyPath), Path: item.Path, Kind: kind})

		var internalTargets []string
		for to := range idx.ForwardInternal(tok) {
			internalTargets = append(internalTargets, string(model.Item(to).PyPath))
		}
		if len(internalTargets) > 0 {
			dump.Internal[string(item.PyPath)] = internalTargets
		}

		var externalTargets []string
		for to := range idx.ExternalOf(tok) {
			externalTargets = append(externalTargets, string(to))
		}
		if len(externalTargets) > 0 {
			dump.External[string(item.PyPath)] = externalTargets
		}
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(dump)
}
