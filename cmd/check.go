package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/pyarch/pyarch/internal/config"
	"github.com/pyarch/pyarch/internal/discovery"
	"github.com/pyarch/pyarch/internal/importsindex"
	"github.com/pyarch/pyarch/internal/pkgmodel"
	"github.com/pyarch/pyarch/internal/pyast"
	"github.com/pyarch/pyarch/internal/report"
	"github.com/pyarch/pyarch/pkg/types"
)

var (
	checkConfigPath string
	checkJSON       bool
)

var checkCmd = &cobra.Command{
	Use:   "check <directory>",
	Short: "Verify a Python package tree against its configured architectural contracts",
	Long: `check builds the package/module model and import graph rooted at
<directory>, loads .pyarch.yml from that directory (or --config), and
verifies every configured contract against the graph.

Exit codes: 0 contracts kept, 1 one or more contracts violated,
2 the project could not be built (parse error, bad config).`,
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE:         runCheck,
}

func init() {
	checkCmd.Flags().StringVar(&checkConfigPath, "config", "", "path to .pyarch.yml config file")
	checkCmd.Flags().BoolVar(&checkJSON, "json", false, "output results as JSON")
}

func runCheck(cmd *cobra.Command, args []string) error {
	dir, err := filepath.Abs(args[0])
	if err != nil {
		return types.NewExitError(types.ExitBuildError, "cannot resolve path: %s", err)
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return types.NewExitError(types.ExitBuildError, "not a directory: %s", dir)
	}

	cfg, err := config.LoadProjectConfig(dir, checkConfigPath)
	if err != nil {
		return types.NewExitError(types.ExitBuildError, "load project config: %s", err)
	}
	if cfg == nil {
		cfg = &config.ProjectConfig{}
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

	idx, err := importsindex.Build(model, parser, filepath.Dir(dir), cfg.Options.Resolve())
	if err != nil {
		return types.NewExitError(types.ExitBuildError, "build import index: %s", err)
	}

	contracts, err := cfg.ResolveContracts(model)
	if err != nil {
		return types.NewExitError(types.ExitBuildError, "resolve contracts: %s", err)
	}

	g := graphFor(idx)
	summary := report.Summary{}
	for i, c := range contracts {
		summary.Results = append(summary.Results, report.ContractResult{
			Name:         fmt.Sprintf("contracts[%d]", i),
			Verification: c.Verify(g),
		})
	}

	if checkJSON {
		jr := report.BuildJSONReport(model, summary)
		if err := report.WriteJSON(cmd.OutOrStdout(), jr); err != nil {
			return types.NewExitError(types.ExitBuildError, "write json report: %s", err)
		}
	} else {
		report.WriteTerminal(cmd.OutOrStdout(), model, summary, verbose)
	}

	if summary.Violated() {
		return types.NewExitError(types.ExitViolated, "%d contract(s) violated", violatedContracts(summary))
	}
	return nil
}

func violatedContracts(s report.Summary) int {
	n := 0
	for _, r := range s.Results {
		if !r.Verification.Kept() {
			n++
		}
	}
	return n
}
