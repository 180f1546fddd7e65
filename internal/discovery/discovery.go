package discovery

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/five82/logmon/internal/logtail"
	"github.com/five82/logmon/internal/pattern"
)

// Engine scans directory trees for log files and classifies them.
type Engine struct {
	baseDir string
	// canonBase is baseDir with symlinks resolved; web paths are computed
	// against it because walked paths are rooted at canonical scan roots.
	canonBase string
	rules     *pattern.Set
	// initDiagnostics are reported with every Result (e.g. inert rules).
	initDiagnostics []Diagnostic
}

// Result is the outcome of one discovery run.
type Result struct {
	Entries     []Entry
	Diagnostics []Diagnostic
}

// New builds an Engine anchored at baseDir. Rules that fail to compile are
// kept inert and reported as rule_invalid diagnostics on every run.
func New(baseDir string, rules []pattern.Rule) *Engine {
	set, errs := pattern.Compile(rules)
	e := &Engine{
		baseDir:   baseDir,
		canonBase: baseDir,
		rules:     set,
	}
	if canon, err := filepath.EvalSymlinks(baseDir); err == nil {
		e.canonBase = canon
	}
	for _, err := range errs {
		msg := fmt.Sprintf("pattern rule ignored: %v", err)
		var ce *pattern.CompileError
		if errors.As(err, &ce) {
			msg = fmt.Sprintf("logPatterns[%d] ignored: %v", ce.Index, ce.Err)
		}
		e.initDiagnostics = append(e.initDiagnostics, warning(CodeRuleInvalid, "", msg, err))
	}
	return e
}

// BaseDir returns the directory relative scan paths and web paths use.
func (e *Engine) BaseDir() string { return e.baseDir }

// Discover walks scanPaths in order and returns every matching log file,
// each canonical file at most once. Missing paths and unreadable directories
// become diagnostics; only context cancellation returns an error.
func (e *Engine) Discover(ctx context.Context, scanPaths []string) (Result, error) {
	r := &run{
		ctx:       ctx,
		engine:    e,
		seenFiles: make(map[string]struct{}),
		seenDirs:  make(map[string]struct{}),
	}
	r.res.Entries = []Entry{}
	r.res.Diagnostics = append(r.res.Diagnostics, e.initDiagnostics...)

	for _, scanPath := range scanPaths {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		if err := r.scanRoot(scanPath); err != nil {
			return Result{}, err
		}
	}
	return r.res, nil
}

type run struct {
	ctx       context.Context
	engine    *Engine
	seenFiles map[string]struct{}
	seenDirs  map[string]struct{}
	res       Result
}

func (r *run) warn(code, path, msg string, cause error) {
	r.res.Diagnostics = append(r.res.Diagnostics, warning(code, path, msg, cause))
}

func (r *run) scanRoot(scanPath string) error {
	full, err := r.engine.resolve(scanPath)
	if err != nil {
		r.warn(CodeScanPathInvalid, scanPath, fmt.Sprintf("cannot resolve scan path %q: %v", scanPath, err), err)
		return nil
	}
	root, err := filepath.EvalSymlinks(full)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			r.warn(CodeScanPathMissing, full, fmt.Sprintf("path does not exist: %s", full), err)
		} else {
			r.warn(CodeScanPathInvalid, full, fmt.Sprintf("cannot resolve scan path %s: %v", full, err), err)
		}
		return nil
	}

	info, err := os.Stat(root)
	if err != nil {
		r.warn(CodeScanPathInvalid, root, fmt.Sprintf("cannot stat scan path %s: %v", root, err), err)
		return nil
	}
	if info.Mode().IsRegular() {
		r.visitFile(root, filepath.Base(root))
		return nil
	}
	if !info.IsDir() {
		r.warn(CodeScanPathInvalid, root, fmt.Sprintf("scan path %s is neither a file nor a directory", root), nil)
		return nil
	}
	return r.walkDir(root)
}

// walkDir visits dir depth-first in lexical order. Symlinked directories are
// followed, each canonical directory once per run.
func (r *run) walkDir(dir string) error {
	if err := r.ctx.Err(); err != nil {
		return err
	}
	canon, err := filepath.EvalSymlinks(dir)
	if err != nil {
		r.warn(CodeScanDirUnreadable, dir, fmt.Sprintf("cannot resolve directory %s: %v", dir, err), err)
		return nil
	}
	if _, seen := r.seenDirs[canon]; seen {
		return nil
	}
	r.seenDirs[canon] = struct{}{}

	entries, err := os.ReadDir(dir)
	if err != nil {
		// ReadDir may still have returned the entries read before failing.
		r.warn(CodeScanDirUnreadable, dir, fmt.Sprintf("cannot list directory %s: %v", dir, err), err)
	}

	for _, de := range entries {
		path := filepath.Join(dir, de.Name())
		mode := de.Type()

		if mode&fs.ModeSymlink != 0 {
			target, err := os.Stat(path)
			if err != nil {
				continue // dangling link
			}
			mode = target.Mode().Type()
		}

		switch {
		case mode.IsDir():
			if err := r.walkDir(path); err != nil {
				return err
			}
		case mode.IsRegular():
			r.visitFile(path, de.Name())
		}
	}
	return nil
}

func (r *run) visitFile(path, name string) {
	if !logtail.IsLogFile(name) {
		return
	}
	canon, err := filepath.EvalSymlinks(path)
	if err != nil {
		return
	}
	if _, seen := r.seenFiles[canon]; seen {
		return
	}

	match, ok := r.engine.rules.Match(name)
	if !ok {
		return
	}

	info, err := os.Stat(canon)
	if err != nil {
		r.warn(CodeFileStatFailed, path, fmt.Sprintf("cannot stat %s: %v", path, err), err)
		return
	}

	desc := match.Description
	if desc == "" {
		desc = UnknownPattern
	}
	r.seenFiles[canon] = struct{}{}
	r.res.Entries = append(r.res.Entries, Entry{
		Filename:     name,
		Path:         r.engine.webPath(path, name),
		AbsolutePath: canon,
		Tag:          match.Tag,
		Name:         match.Name,
		Size:         info.Size(),
		Modified:     info.ModTime(),
		Pattern:      desc,
	})
}

// resolve anchors a configured scan path at the base directory.
func (e *Engine) resolve(scanPath string) (string, error) {
	p := strings.TrimSpace(scanPath)
	if p == "" {
		return "", errors.New("empty scan path")
	}
	if strings.HasPrefix(p, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		p = filepath.Join(home, strings.TrimPrefix(p, "~"))
	}
	if !filepath.IsAbs(p) {
		p = filepath.Join(e.baseDir, p)
	}
	return filepath.Clean(p), nil
}

// webPath returns path relative to the base directory with forward slashes,
// or the bare filename when path lies outside it.
func (e *Engine) webPath(path, name string) string {
	rel, err := filepath.Rel(e.canonBase, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return name
	}
	return filepath.ToSlash(rel)
}
