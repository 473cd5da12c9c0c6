// Package config loads .pyarch.yml project configuration: the root package,
// build options, and the architectural contracts to check against it.
package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/pyarch/pyarch/internal/contract"
	"github.com/pyarch/pyarch/internal/importsindex"
	"github.com/pyarch/pyarch/internal/pkgmodel"
	"github.com/pyarch/pyarch/internal/pypath"
)

// ProjectConfig represents the .pyarch.yml configuration file.
type ProjectConfig struct {
	Version   int            `yaml:"version"`
	Root      string         `yaml:"root"`
	Options   BuildOptions   `yaml:"options"`
	Contracts []ContractSpec `yaml:"contracts"`
}

// BuildOptions mirrors importsindex.Options in YAML-friendly, pointer-typed
// form so "unset" and "explicitly false" are distinguishable.
type BuildOptions struct {
	IncludeTypeCheckingImports *bool `yaml:"include_type_checking_imports"`
	IncludeExternalImports     *bool `yaml:"include_external_imports"`
}

// Resolve turns BuildOptions into importsindex.Options, applying defaults for
// any unset field.
func (o BuildOptions) Resolve() importsindex.Options {
	opts := importsindex.DefaultOptions()
	if o.IncludeTypeCheckingImports != nil {
		opts.IncludeTypeCheckingImports = *o.IncludeTypeCheckingImports
	}
	if o.IncludeExternalImports != nil {
		opts.IncludeExternalImports = *o.IncludeExternalImports
	}
	return opts
}

// ContractSpec is a tagged union of the contract kinds §4.I defines, read
// from one YAML list entry. Exactly one field should be set.
type ContractSpec struct {
	Layered           *LayeredSpec           `yaml:"layered"`
	Independent       *IndependentSpec       `yaml:"independent"`
	ForbiddenInternal *ForbiddenInternalSpec `yaml:"forbidden_internal"`
	ForbiddenExternal *ForbiddenExternalSpec `yaml:"forbidden_external"`
}

// LayerSpec names one layer by the pypaths of its member packages/modules.
type LayerSpec struct {
	Name                string   `yaml:"name"`
	Packages            []string `yaml:"packages"`
	SiblingsIndependent bool     `yaml:"siblings_independent"`
}

// LayeredSpec configures a LayeredArchitectureContract.
type LayeredSpec struct {
	Layers           []LayerSpec `yaml:"layers"`
	AllowDeepImports bool        `yaml:"allow_deep_imports"`
}

// IndependentSpec configures an IndependentItems contract.
type IndependentSpec struct {
	Items []string `yaml:"items"`
}

// ForbiddenInternalSpec configures a single-edge internal contract.
type ForbiddenInternalSpec struct {
	From      string   `yaml:"from"`
	To        string   `yaml:"to"`
	ExceptVia []string `yaml:"except_via"`
}

// ForbiddenExternalSpec configures a single-edge external contract. To is a
// pypath prefix, e.g. "django.db".
type ForbiddenExternalSpec struct {
	From      string   `yaml:"from"`
	To        string   `yaml:"to"`
	ExceptVia []string `yaml:"except_via"`
}

// UnknownConfigFieldError reports a config file that could not be decoded
// into ProjectConfig: a YAML key that does not match the schema (§1.4: strict
// unknown-field rejection), and equally any other decode failure such as
// malformed YAML or a value of the wrong type.
type UnknownConfigFieldError struct {
	Path  string
	Cause error
}

func (e *UnknownConfigFieldError) Error() string {
	return fmt.Sprintf("parse project config %s: %v", e.Path, e.Cause)
}

func (e *UnknownConfigFieldError) Unwrap() error { return e.Cause }

// LoadProjectConfig loads project configuration from .pyarch.yml or
// .pyarch.yaml. If explicitPath is given, that file is loaded instead.
// Returns (nil, nil) if no config file is found, matching the teacher's
// LoadProjectConfig convention of "no config means defaults".
func LoadProjectConfig(dir string, explicitPath string) (*ProjectConfig, error) {
	var configPath string

	if explicitPath != "" {
		configPath = explicitPath
	} else {
		ymlPath := filepath.Join(dir, ".pyarch.yml")
		yamlPath := filepath.Join(dir, ".pyarch.yaml")

		if _, err := os.Stat(ymlPath); err == nil {
			configPath = ymlPath
		} else if _, err := os.Stat(yamlPath); err == nil {
			configPath = yamlPath
		} else {
			return nil, nil
		}
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("read project config %s: %w", configPath, err)
	}

	cfg := &ProjectConfig{}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, &UnknownConfigFieldError{Path: configPath, Cause: err}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid project config %s: %w", configPath, err)
	}

	return cfg, nil
}

// Validate checks structural invariants LoadProjectConfig cannot express via
// the YAML schema alone.
func (c *ProjectConfig) Validate() error {
	if c.Version != 0 && c.Version != 1 {
		return fmt.Errorf("unsupported config version %d (expected 1)", c.Version)
	}
	for i, cs := range c.Contracts {
		set := 0
		if cs.Layered != nil {
			set++
		}
		if cs.Independent != nil {
			set++
		}
		if cs.ForbiddenInternal != nil {
			set++
		}
		if cs.ForbiddenExternal != nil {
			set++
		}
		if set != 1 {
			return fmt.Errorf("contracts[%d] must set exactly one of layered/independent/forbidden_internal/forbidden_external, got %d", i, set)
		}
	}
	return nil
}

// ResolveContracts resolves every ContractSpec against model into a concrete
// contract.Contract, translating the config's pypath strings into tokens.
func (c *ProjectConfig) ResolveContracts(model *pkgmodel.Model) ([]contract.Contract, error) {
	var out []contract.Contract
	for i, cs := range c.Contracts {
		built, err := cs.resolve(model)
		if err != nil {
			return nil, fmt.Errorf("contracts[%d]: %w", i, err)
		}
		out = append(out, built)
	}
	return out, nil
}

func (cs ContractSpec) resolve(model *pkgmodel.Model) (contract.Contract, error) {
	switch {
	case cs.Layered != nil:
		return cs.Layered.resolve(model)
	case cs.Independent != nil:
		return cs.Independent.resolve(model)
	case cs.ForbiddenInternal != nil:
		return cs.ForbiddenInternal.resolve(model)
	case cs.ForbiddenExternal != nil:
		return cs.ForbiddenExternal.resolve(model)
	default:
		return nil, fmt.Errorf("empty contract spec")
	}
}

func (ls *LayeredSpec) resolve(model *pkgmodel.Model) (contract.Contract, error) {
	layers := make([]contract.Layer, len(ls.Layers))
	for i, l := range ls.Layers {
		toks, err := tokensFor(model, l.Packages)
		if err != nil {
			return nil, err
		}
		layers[i] = contract.Layer{Name: l.Name, Siblings: toks, SiblingsIndependent: l.SiblingsIndependent}
	}
	return contract.LayeredArchitectureContract{Layers: layers, AllowDeepImports: ls.AllowDeepImports}, nil
}

func (is *IndependentSpec) resolve(model *pkgmodel.Model) (contract.Contract, error) {
	toks, err := tokensFor(model, is.Items)
	if err != nil {
		return nil, err
	}
	return contract.IndependentItems{Items: toks}, nil
}

func (fs *ForbiddenInternalSpec) resolve(model *pkgmodel.Model) (contract.Contract, error) {
	from, err := tokenFor(model, fs.From)
	if err != nil {
		return nil, err
	}
	to, err := tokenFor(model, fs.To)
	if err != nil {
		return nil, err
	}
	except, err := tokensFor(model, fs.ExceptVia)
	if err != nil {
		return nil, err
	}
	return contract.ForbiddenInternalImportContract{From: from, To: to, ExceptVia: except}, nil
}

func (fs *ForbiddenExternalSpec) resolve(model *pkgmodel.Model) (contract.Contract, error) {
	from, err := tokenFor(model, fs.From)
	if err != nil {
		return nil, err
	}
	except, err := tokensFor(model, fs.ExceptVia)
	if err != nil {
		return nil, err
	}
	toPP, err := pypathFor(fs.To)
	if err != nil {
		return nil, err
	}
	return contract.ForbiddenExternalImportContract{From: from, To: toPP, ExceptVia: except}, nil
}

// UnknownPackageError reports a config pypath string that does not name any
// item discovered in the package model.
type UnknownPackageError struct {
	PyPath string
}

func (e *UnknownPackageError) Error() string {
	return fmt.Sprintf("config names unknown package/module %q", e.PyPath)
}

func pypathFor(s string) (pypath.PyPath, error) {
	return pypath.New(s)
}

func tokenFor(model *pkgmodel.Model, s string) (pkgmodel.Token, error) {
	pp, err := pypathFor(s)
	if err != nil {
		return 0, err
	}
	tok, ok := model.TokenByPyPath(pp)
	if !ok {
		return 0, &UnknownPackageError{PyPath: s}
	}
	return tok, nil
}

func tokensFor(model *pkgmodel.Model, ss []string) ([]pkgmodel.Token, error) {
	toks := make([]pkgmodel.Token, 0, len(ss))
	for _, s := range ss {
		tok, err := tokenFor(model, s)
		if err != nil {
			return nil, err
		}
		toks = append(toks, tok)
	}
	return toks, nil
}
