package deploy

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"golang.org/x/sync/errgroup"
)

// LinkReference is one library slot inside a bytecode object.
type LinkReference struct {
	Start  int `json:"start"`
	Length int `json:"length"`
}

// LinkReferences maps source file -> library name -> slots.
type LinkReferences map[string]map[string][]LinkReference

// Libraries returns the fully qualified names (source:Library) of every referenced library, sorted.
func (r LinkReferences) Libraries() []string {
	names := make([]string, 0, len(r))
	for source, libs := range r {
		for lib := range libs {
			names = append(names, source+":"+lib)
		}
	}
	sort.Strings(names)
	return names
}

// Bytecode is a hex encoded code object together with its unresolved library slots.
type Bytecode struct {
	Object         string
	LinkReferences LinkReferences
}

// Empty reports whether there is no code, as for interfaces and abstract contracts.
func (b Bytecode) Empty() bool {
	return len(strings.TrimPrefix(b.Object, "0x")) == 0
}

// Size returns the code size in bytes.
func (b Bytecode) Size() int {
	return len(strings.TrimPrefix(b.Object, "0x")) / 2
}

// Artifact is a compiled contract as emitted by hardhat or foundry.
type Artifact struct {
	ContractName     string
	SourceName       string
	ABI              abi.ABI
	RawABI           json.RawMessage
	Bytecode         Bytecode
	DeployedBytecode Bytecode

	path string
}

// FullyQualifiedName returns "source.sol:Contract".
func (a *Artifact) FullyQualifiedName() string {
	if a.SourceName == "" {
		return a.ContractName
	}
	return a.SourceName + ":" + a.ContractName
}

// Path returns the file the artifact was loaded from, if any.
func (a *Artifact) Path() string {
	return a.path
}

// NeedsLinking reports whether the creation code references libraries.
func (a *Artifact) NeedsLinking() bool {
	return len(a.Bytecode.LinkReferences) > 0
}

// Contract returns a Contract wrapper over the artifact ABI.
func (a *Artifact) Contract() *Contract {
	return &Contract{name: a.ContractName, abi: a.ABI}
}

// rawArtifact is the union of the hardhat and foundry layouts.
type rawArtifact struct {
	ContractName           string          `json:"contractName"`
	SourceName             string          `json:"sourceName"`
	ABI                    json.RawMessage `json:"abi"`
	Bytecode               json.RawMessage `json:"bytecode"`
	DeployedBytecode       json.RawMessage `json:"deployedBytecode"`
	LinkReferences         LinkReferences  `json:"linkReferences"`
	DeployedLinkReferences LinkReferences  `json:"deployedLinkReferences"`
}

// foundryBytecode is the object form used by forge.
type foundryBytecode struct {
	Object         string         `json:"object"`
	LinkReferences LinkReferences `json:"linkReferences"`
}

var errNotArtifact = errors.New("deploy: not a contract artifact")

// ParseArtifact decodes a hardhat or foundry artifact. The path is used to
// infer names foundry leaves out (out/Foo.sol/Foo.json) and may be empty.
func ParseArtifact(data []byte, path string) (*Artifact, error) {
	var raw rawArtifact
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("deploy: parse artifact %s: %w", path, err)
	}
	if len(raw.ABI) == 0 {
		return nil, errNotArtifact
	}

	parsed, err := abi.JSON(bytes.NewReader(raw.ABI))
	if err != nil {
		return nil, fmt.Errorf("deploy: parse ABI of %s: %w", path, err)
	}

	creation, err := parseBytecode(raw.Bytecode, raw.LinkReferences)
	if err != nil {
		return nil, fmt.Errorf("deploy: bytecode of %s: %w", path, err)
	}
	deployed, err := parseBytecode(raw.DeployedBytecode, raw.DeployedLinkReferences)
	if err != nil {
		return nil, fmt.Errorf("deploy: deployed bytecode of %s: %w", path, err)
	}

	a := &Artifact{
		ContractName:     raw.ContractName,
		SourceName:       raw.SourceName,
		ABI:              parsed,
		RawABI:           raw.ABI,
		Bytecode:         creation,
		DeployedBytecode: deployed,
		path:             path,
	}
	if a.ContractName == "" && path != "" {
		a.ContractName = strings.TrimSuffix(filepath.Base(path), ".json")
	}
	if a.SourceName == "" && path != "" {
		if dir := filepath.Base(filepath.Dir(path)); strings.HasSuffix(dir, ".sol") {
			a.SourceName = dir
		}
	}
	return a, nil
}

func parseBytecode(raw json.RawMessage, refs LinkReferences) (Bytecode, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return Bytecode{}, nil
	}
	if raw[0] == '"' {
		var object string
		if err := json.Unmarshal(raw, &object); err != nil {
			return Bytecode{}, err
		}
		return Bytecode{Object: ensureHexPrefix(object), LinkReferences: refs}, nil
	}
	var fb foundryBytecode
	if err := json.Unmarshal(raw, &fb); err != nil {
		return Bytecode{}, err
	}
	if fb.LinkReferences == nil {
		fb.LinkReferences = refs
	}
	return Bytecode{Object: ensureHexPrefix(fb.Object), LinkReferences: fb.LinkReferences}, nil
}

func ensureHexPrefix(s string) string {
	if strings.HasPrefix(s, "0x") {
		return s
	}
	return "0x" + s
}

// ArtifactStore indexes artifacts by contract name and fully qualified name.
type ArtifactStore struct {
	byName map[string][]*Artifact
	byFQN  map[string]*Artifact
}

// NewArtifactStore creates a store holding the given artifacts.
func NewArtifactStore(artifacts ...*Artifact) *ArtifactStore {
	s := &ArtifactStore{
		byName: make(map[string][]*Artifact),
		byFQN:  make(map[string]*Artifact),
	}
	for _, a := range artifacts {
		s.Add(a)
	}
	return s
}

// Add indexes an artifact. A later artifact with the same fully qualified name replaces the earlier one.
func (s *ArtifactStore) Add(a *Artifact) {
	fqn := a.FullyQualifiedName()
	if old, ok := s.byFQN[fqn]; ok {
		list := s.byName[old.ContractName]
		for i, cand := range list {
			if cand == old {
				s.byName[old.ContractName] = append(list[:i], list[i+1:]...)
				break
			}
		}
	}
	s.byFQN[fqn] = a
	s.byName[a.ContractName] = append(s.byName[a.ContractName], a)
}

// Get returns the artifact for a contract name or a fully qualified name.
func (s *ArtifactStore) Get(name string) (*Artifact, error) {
	if a, ok := s.byFQN[name]; ok {
		return a, nil
	}
	list := s.byName[name]
	switch len(list) {
	case 0:
		return nil, fmt.Errorf("%w: %s", ErrArtifactNotFound, name)
	case 1:
		return list[0], nil
	default:
		fqns := make([]string, len(list))
		for i, a := range list {
			fqns[i] = a.FullyQualifiedName()
		}
		sort.Strings(fqns)
		return nil, fmt.Errorf("%w: %s matches %s", ErrAmbiguousArtifact, name, strings.Join(fqns, ", "))
	}
}

// MustGet is like Get but panics on error.
func (s *ArtifactStore) MustGet(name string) *Artifact {
	a, err := s.Get(name)
	if err != nil {
		panic(err)
	}
	return a
}

// Len returns the number of artifacts.
func (s *ArtifactStore) Len() int {
	return len(s.byFQN)
}

// All returns every artifact sorted by fully qualified name.
func (s *ArtifactStore) All() []*Artifact {
	out := make([]*Artifact, 0, len(s.byFQN))
	for _, a := range s.byFQN {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].FullyQualifiedName() < out[j].FullyQualifiedName()
	})
	return out
}

// StoreOption configures LoadArtifacts.
type StoreOption func(*storeConfig)

type storeConfig struct {
	workers int
}

// WithLoadWorkers bounds the number of artifact files parsed concurrently.
func WithLoadWorkers(n int) StoreOption {
	return func(c *storeConfig) {
		if n > 0 {
			c.workers = n
		}
	}
}

// LoadArtifacts walks root and loads every contract artifact below it.
// Debug files (*.dbg.json), build-info directories and JSON files without an
// ABI are skipped.
func LoadArtifacts(ctx context.Context, root string, opts ...StoreOption) (*ArtifactStore, error) {
	cfg := &storeConfig{workers: runtime.GOMAXPROCS(0)}
	for _, opt := range opts {
		opt(cfg)
	}

	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == "build-info" {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasSuffix(path, ".json") && !strings.HasSuffix(path, ".dbg.json") {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("deploy: walk artifacts: %w", err)
	}

	results := make([]*Artifact, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.workers)
	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("deploy: read artifact: %w", err)
			}
			a, err := ParseArtifact(data, path)
			if errors.Is(err, errNotArtifact) {
				return nil
			}
			if err != nil {
				return err
			}
			results[i] = a
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	store := NewArtifactStore()
	for _, a := range results {
		if a != nil {
			store.Add(a)
		}
	}
	return store, nil
}

// SolcVersion reports the compiler version recorded in the hardhat build-info
// file referenced by the artifact's .dbg.json sibling.
func SolcVersion(a *Artifact) (string, error) {
	if a.path == "" {
		return "", fmt.Errorf("deploy: artifact %s has no file", a.ContractName)
	}
	dbgPath := strings.TrimSuffix(a.path, ".json") + ".dbg.json"
	data, err := os.ReadFile(dbgPath)
	if err != nil {
		return "", fmt.Errorf("deploy: read debug file: %w", err)
	}
	var dbg struct {
		BuildInfo string `json:"buildInfo"`
	}
	if err := json.Unmarshal(data, &dbg); err != nil {
		return "", fmt.Errorf("deploy: parse debug file: %w", err)
	}
	if dbg.BuildInfo == "" {
		return "", fmt.Errorf("deploy: %s names no build info", dbgPath)
	}

	data, err = os.ReadFile(filepath.Join(filepath.Dir(dbgPath), dbg.BuildInfo))
	if err != nil {
		return "", fmt.Errorf("deploy: read build info: %w", err)
	}
	var info struct {
		SolcVersion string `json:"solcVersion"`
	}
	if err := json.Unmarshal(data, &info); err != nil {
		return "", fmt.Errorf("deploy: parse build info: %w", err)
	}
	return info.SolcVersion, nil
}
