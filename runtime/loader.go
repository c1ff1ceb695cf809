// Package runtime wires the engine: policy loading, event dispatch and the supervised worker pool.
package runtime

import (
	"bufio"
	"bytes"
	"embed"
	"gatekeeper/errors"
	"io/fs"
	"path"
	"sort"
	"strings"
)

//go:embed policy/*
var defaultPolicy embed.FS

const (
	wordsDir   = "words"
	domainsDir = "domains"
)

// Policy is the content policy: blocked words and blacklisted domains,
// plus the names of the files they came from for logging.
type Policy struct {
	Words   []string
	Domains []string
	Sources []string
}

// PolicyLoader reads "words/*.txt" and "domains/*.txt" from a filesystem, one entry per line.
type PolicyLoader struct {
	fs fs.FS
}

func NewPolicyLoader(f fs.FS) *PolicyLoader {
	return &PolicyLoader{fs: f}
}

// DefaultPolicyLoader serves the policy embedded in the binary.
func DefaultPolicyLoader() *PolicyLoader {
	sub, err := fs.Sub(defaultPolicy, "policy")
	if err != nil {
		panic(err)
	}
	return NewPolicyLoader(sub)
}

// Load returns the unique, sorted words and domains. A missing directory is
// treated as empty; a policy with neither words nor domains is an error.
func (l *PolicyLoader) Load() (*Policy, error) {
	policy := &Policy{}
	words, sources, err := l.readDir(wordsDir)
	if err != nil {
		return nil, err
	}
	policy.Words = words
	policy.Sources = append(policy.Sources, sources...)

	domains, sources, err := l.readDir(domainsDir)
	if err != nil {
		return nil, err
	}
	policy.Domains = domains
	policy.Sources = append(policy.Sources, sources...)

	if len(policy.Words) == 0 && len(policy.Domains) == 0 {
		return nil, errors.ErrEmptyPolicy
	}
	return policy, nil
}

func (l *PolicyLoader) readDir(dir string) ([]string, []string, error) {
	entries, err := fs.ReadDir(l.fs, dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, err
	}

	var sources []string
	unique := make(map[string]struct{})
	for _, entry := range entries {
		// We only process .txt files, skipping subdirectories
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".txt") {
			continue
		}
		filename := path.Join(dir, entry.Name())
		data, err := fs.ReadFile(l.fs, filename)
		if err != nil {
			return nil, nil, err
		}
		sources = append(sources, filename)

		// Use a scanner to handle different line endings (\n vs \r\n) correctly
		scanner := bufio.NewScanner(bytes.NewReader(data))
		for scanner.Scan() {
			line := strings.ToLower(strings.TrimSpace(scanner.Text()))
			if line != "" && !strings.HasPrefix(line, "#") {
				unique[line] = struct{}{}
			}
		}
		if err := scanner.Err(); err != nil {
			return nil, nil, err
		}
	}

	values := make([]string, 0, len(unique))
	for v := range unique {
		values = append(values, v)
	}
	sort.Strings(values)
	return values, sources, nil
}
