package app

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"

	"github.com/phensley/less-scanner/internal/core/errors"
	"github.com/phensley/less-scanner/internal/core/scan"
	"github.com/phensley/less-scanner/internal/shared/util"
)

// PathFilter decides which directory entries become scan tasks. Explicit file
// arguments bypass it.
type PathFilter struct {
	Recursive  bool
	Extensions []string

	dirGlobs  []pattern
	fileGlobs []pattern
}

// pattern matches the base name, or the slash path relative to the scan root
// when the source pattern contains a separator.
type pattern struct {
	glob     glob.Glob
	relative bool
}

func (p pattern) match(rel, base string) bool {
	if p.relative {
		return p.glob.Match(rel)
	}
	return p.glob.Match(base)
}

func NewPathFilter(recursive bool, extensions, excludeDirs, excludeFiles []string) (*PathFilter, error) {
	dirGlobs, err := compileGlobs(excludeDirs, "exclude dir")
	if err != nil {
		return nil, err
	}
	fileGlobs, err := compileGlobs(excludeFiles, "exclude file")
	if err != nil {
		return nil, err
	}
	exts := make([]string, 0, len(extensions))
	for _, ext := range extensions {
		exts = append(exts, strings.ToLower(ext))
	}
	return &PathFilter{
		Recursive:  recursive,
		Extensions: exts,
		dirGlobs:   dirGlobs,
		fileGlobs:  fileGlobs,
	}, nil
}

func compileGlobs(patterns []string, label string) ([]pattern, error) {
	out := make([]pattern, 0, len(patterns))
	for _, p := range patterns {
		norm := util.CleanPattern(p)
		relative := util.IsPathPattern(norm)
		var (
			g   glob.Glob
			err error
		)
		if relative {
			g, err = glob.Compile(norm, '/')
		} else {
			g, err = glob.Compile(norm)
		}
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeValidationError, fmt.Sprintf("invalid %s pattern %q", label, p))
		}
		out = append(out, pattern{glob: g, relative: relative})
	}
	return out, nil
}

func (f *PathFilter) keepExtension(path string) bool {
	if len(f.Extensions) == 0 {
		return true
	}
	ext := strings.ToLower(filepath.Ext(path))
	for _, want := range f.Extensions {
		if ext == want {
			return true
		}
	}
	return false
}

func (f *PathFilter) excluded(globs []pattern, rel, base string) bool {
	for _, g := range globs {
		if g.match(rel, base) {
			return true
		}
	}
	return false
}

// CollectPaths expands arguments into scan tasks in argument order. Files are
// kept as given; directories contribute their regular entries, sorted by
// name. Arguments that do not exist become MISSING_PATH diagnostics and are
// skipped. A path named twice is scanned once.
func (f *PathFilter) CollectPaths(args []string) ([]string, []scan.Diagnostic, error) {
	var (
		files   []string
		missing []scan.Diagnostic
	)
	seen := make(map[string]bool)
	add := func(path string) {
		key := filepath.Clean(path)
		if abs, err := filepath.Abs(key); err == nil {
			key = abs
		}
		if seen[key] {
			return
		}
		seen[key] = true
		files = append(files, path)
	}

	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			code := errors.CodeMissingPath
			if os.IsPermission(err) {
				code = errors.CodePermissionDenied
			}
			derr := errors.AddContext(errors.Wrap(err, code, "skipping path"), errors.CtxPath, arg)
			slog.Warn("skipping path", "path", arg, "error", err)
			missing = append(missing, scan.Diagnostic{Path: arg, Err: derr})
			continue
		}
		if !info.IsDir() {
			add(arg)
			continue
		}
		if err := f.walk(arg, add); err != nil {
			return nil, missing, errors.AddContext(errors.Wrap(err, errors.CodeInternal, "enumerate directory"), errors.CtxPath, arg)
		}
	}
	return files, missing, nil
}

func (f *PathFilter) walk(root string, add func(string)) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path != root && os.IsPermission(err) {
				slog.Warn("skipping unreadable entry", "path", path, "error", err)
				return nil
			}
			return err
		}

		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			rel = path
		}
		rel = filepath.ToSlash(rel)
		base := d.Name()

		if d.IsDir() {
			if path == root {
				return nil
			}
			if !f.Recursive || f.excluded(f.dirGlobs, rel, base) {
				return filepath.SkipDir
			}
			return nil
		}

		if !d.Type().IsRegular() {
			return nil
		}
		if !f.keepExtension(path) || f.excluded(f.fileGlobs, rel, base) {
			return nil
		}
		add(path)
		return nil
	})
}
