package migrate

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hashicorp/go-version"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/satishbabariya/sqlkit/schema"
)

// ManifestName is the optional manifest of a migrations directory.
const ManifestName = "migrations.yaml"

const (
	upSuffix   = ".up.sql"
	downSuffix = ".down.sql"
)

// Manifest declares the version order of a migrations directory. Without
// a manifest, or with an empty versions list, versions are discovered from
// file names and ordered as semantic versions when they all parse as such,
// lexically otherwise.
type Manifest struct {
	Name           string   `yaml:"name"`
	Versions       []string `yaml:"versions"`
	RollbackPrefix string   `yaml:"rollback_prefix"`
}

// LoadDir builds a Declaration from a directory of <version>.up.sql and
// <version>.down.sql files. Each file may hold several statements
// separated by semicolons.
func LoadDir(fs afero.Fs, dir string) (Declaration, error) {
	manifest, err := readManifest(fs, dir)
	if err != nil {
		return Declaration{}, err
	}
	if manifest.Name == "" {
		manifest.Name = filepath.Base(dir)
	}

	decl := Declaration{RollbackPrefix: manifest.RollbackPrefix}
	source := NewSource(manifest.Name)

	files, err := afero.ReadDir(fs, dir)
	if err != nil {
		return Declaration{}, fmt.Errorf("failed to read migrations directory: %w", err)
	}

	var discovered []string
	for _, f := range files {
		if f.IsDir() {
			continue
		}
		name := f.Name()

		var ver, opName string
		switch {
		case strings.HasSuffix(name, upSuffix):
			ver = strings.TrimSuffix(name, upSuffix)
			opName = ver
			discovered = append(discovered, ver)
		case strings.HasSuffix(name, downSuffix):
			ver = strings.TrimSuffix(name, downSuffix)
			opName = decl.RollbackName(ver)
		default:
			continue
		}

		content, err := afero.ReadFile(fs, filepath.Join(dir, name))
		if err != nil {
			return Declaration{}, fmt.Errorf("failed to read migration %s: %w", name, err)
		}
		source.Define(opName, execStatements(splitStatements(string(content))))
	}

	if len(manifest.Versions) > 0 {
		decl.Order = manifest.Versions
	} else {
		decl.Order = sortVersions(discovered)
	}
	decl.Sources = []Source{source}
	return decl, nil
}

func readManifest(fs afero.Fs, dir string) (Manifest, error) {
	var m Manifest
	path := filepath.Join(dir, ManifestName)

	exists, err := afero.Exists(fs, path)
	if err != nil || !exists {
		return m, err
	}
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return m, fmt.Errorf("failed to read manifest: %w", err)
	}
	if err := yaml.Unmarshal(data, &m); err != nil {
		return m, fmt.Errorf("failed to parse manifest %s: %w", path, err)
	}
	return m, nil
}

func execStatements(statements []string) Operation {
	return func(ctx context.Context, b *schema.Builder) error {
		for _, sql := range statements {
			if err := b.Exec(ctx, sql); err != nil {
				return err
			}
		}
		return nil
	}
}

// splitStatements splits on semicolons outside single-quoted strings and
// drops "--" comment lines and empty statements.
func splitStatements(content string) []string {
	var lines []string
	for _, line := range strings.Split(content, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "--") {
			continue
		}
		lines = append(lines, line)
	}
	content = strings.Join(lines, "\n")

	var (
		statements []string
		current    strings.Builder
		inString   bool
	)
	flush := func() {
		if s := strings.TrimSpace(current.String()); s != "" {
			statements = append(statements, s)
		}
		current.Reset()
	}
	for _, r := range content {
		switch {
		case r == '\'':
			inString = !inString
			current.WriteRune(r)
		case r == ';' && !inString:
			flush()
		default:
			current.WriteRune(r)
		}
	}
	flush()
	return statements
}

func sortVersions(names []string) []string {
	sorted := append([]string(nil), names...)

	parsed := make(map[string]*version.Version, len(sorted))
	for _, name := range sorted {
		v, err := version.NewVersion(name)
		if err != nil {
			sort.Strings(sorted)
			return sorted
		}
		parsed[name] = v
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return parsed[sorted[i]].LessThan(parsed[sorted[j]])
	})
	return sorted
}
