package codemap

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/gobwas/glob"
	"github.com/jward/codemap/internal/extract"
	"github.com/jward/codemap/internal/graph"
	"github.com/jward/codemap/internal/runtime"
	"github.com/jward/codemap/internal/syntax"
	"github.com/minio/highwayhash"
	ignore "github.com/sabhiram/go-gitignore"
	"github.com/viant/afs"
)

// hashKey keys the highwayhash content digest recorded per file.
var hashKey = []byte("0123456789ABCDEF0123456789ABCDEF")

// Engine drives indexing: it picks an extractor per file, walks the file's
// syntax tree and writes into a single graph. The Engine is not safe for
// concurrent use; IndexFiles parallelizes internally when enabled.
type Engine struct {
	graph   *graph.Store
	fs      afs.Service
	logger  *slog.Logger
	runtime *runtime.Runtime

	languages map[string]bool // nil means all languages
	naming    map[string]extract.NamingPolicy
	exclude   []glob.Glob
	patterns  []string

	parallel bool
	workers  int

	scriptsDir string
	scriptsFS  fs.FS

	extractors map[string]extract.Extractor
	files      map[string]*IndexedFile
}

// Option configures an Engine.
type Option func(*Engine)

// WithLanguages restricts which languages the Engine will process.
func WithLanguages(languages ...string) Option {
	return func(e *Engine) {
		e.languages = make(map[string]bool, len(languages))
		for _, lang := range languages {
			e.languages[lang] = true
		}
	}
}

// WithParallel controls the parallel read/parse pipeline used by
// IndexFiles. Serial by default.
func WithParallel(parallel bool) Option {
	return func(e *Engine) {
		e.parallel = parallel
	}
}

// WithWorkers caps the parallel worker pool. Zero means one worker per CPU.
func WithWorkers(n int) Option {
	return func(e *Engine) {
		e.workers = n
	}
}

// WithNaming overrides the id naming policy for one language.
func WithNaming(language string, policy NamingPolicy) Option {
	return func(e *Engine) {
		if e.naming == nil {
			e.naming = make(map[string]extract.NamingPolicy)
		}
		e.naming[language] = policy
	}
}

// WithLogger sets the logger used for indexing diagnostics and the script
// log object. Logging is discarded by default.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithFileSystem sets the afs service used to read sources and snapshots.
func WithFileSystem(svc afs.Service) Option {
	return func(e *Engine) {
		if svc != nil {
			e.fs = svc
		}
	}
}

// WithExclude adds glob patterns, matched against slash-separated paths
// relative to the indexed root, that directory discovery skips. Patterns
// are compiled by New.
func WithExclude(patterns ...string) Option {
	return func(e *Engine) {
		e.patterns = append(e.patterns, patterns...)
	}
}

// WithScriptsDir sets the directory relative script paths and imports
// resolve against.
func WithScriptsDir(dir string) Option {
	return func(e *Engine) {
		e.scriptsDir = dir
	}
}

// WithScriptsFS loads scripts from fsys instead of the scripts directory.
func WithScriptsFS(fsys fs.FS) Option {
	return func(e *Engine) {
		e.scriptsFS = fsys
	}
}

// New creates an Engine with an empty graph.
func New(opts ...Option) (*Engine, error) {
	e := &Engine{
		graph:      graph.NewStore(),
		fs:         afs.New(),
		logger:     slog.New(slog.DiscardHandler),
		extractors: make(map[string]extract.Extractor),
		files:      make(map[string]*IndexedFile),
	}
	for _, opt := range opts {
		opt(e)
	}

	for _, lang := range sortedKeys(e.languages) {
		if !isKnownLanguage(lang) {
			return nil, fmt.Errorf("codemap: unknown language %q", lang)
		}
	}
	for _, p := range e.patterns {
		g, err := glob.Compile(p, '/')
		if err != nil {
			return nil, fmt.Errorf("codemap: exclude pattern %q: %w", p, err)
		}
		e.exclude = append(e.exclude, g)
	}

	rtOpts := []runtime.RuntimeOption{runtime.WithLogger(e.logger)}
	if e.scriptsFS != nil {
		rtOpts = append(rtOpts, runtime.WithRuntimeFS(e.scriptsFS))
	}
	e.runtime = runtime.NewRuntime(e.graph, e.scriptsDir, rtOpts...)
	return e, nil
}

// Graph returns the underlying graph store.
func (e *Engine) Graph() *graph.Store {
	return e.graph
}

// Query returns a QueryBuilder over the current graph.
func (e *Engine) Query() *QueryBuilder {
	return &QueryBuilder{g: e.graph}
}

// Files returns the bookkeeping record of every indexed file, ordered by
// path.
func (e *Engine) Files() []*IndexedFile {
	out := make([]*IndexedFile, 0, len(e.files))
	for _, path := range sortedKeys(e.files) {
		out = append(out, e.files[path])
	}
	return out
}

// ResolvePending retries every deferred call against the current graph and
// returns how many became calls edges. Indexing never does this on its own.
func (e *Engine) ResolvePending() int {
	n := e.graph.ResolvePendingCalls()
	e.logger.Debug("resolved deferred calls", "resolved", n, "remaining", len(e.graph.PendingCalls()))
	return n
}

// enabled reports the language of path when it is supported and not
// filtered out.
func (e *Engine) enabled(path string) (string, bool) {
	lang, ok := syntax.LanguageForFile(path)
	if !ok {
		return "", false
	}
	if e.languages != nil && !e.languages[lang] {
		return "", false
	}
	return lang, true
}

func (e *Engine) extractorFor(lang string) (extract.Extractor, error) {
	if x, ok := e.extractors[lang]; ok {
		return x, nil
	}
	var opts []extract.Option
	if p, ok := e.naming[lang]; ok {
		opts = append(opts, extract.WithNaming(p))
	}
	x, err := extract.New(lang, e.graph, opts...)
	if err != nil {
		return nil, err
	}
	e.extractors[lang] = x
	return x, nil
}

// IndexFile parses path and adds its entities and relations to the graph.
// An unsupported or disabled extension fails with ErrUnsupportedExtension
// before any I/O. Nothing is added to the graph unless the parse succeeds.
func (e *Engine) IndexFile(ctx context.Context, path string) error {
	lang, ok := e.enabled(path)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnsupportedExtension, path)
	}
	parsed, err := e.readAndParse(ctx, path, lang)
	if err != nil {
		return err
	}
	return e.extract(parsed)
}

// IndexFiles indexes paths in order, continuing past failures. The returned
// error joins every per-file failure. With WithParallel, reading and parsing
// fan out to a worker pool but extraction still runs in input order, so the
// resulting graph is the same as a serial run.
func (e *Engine) IndexFiles(ctx context.Context, paths []string) error {
	if e.parallel && len(paths) > 1 {
		return e.indexFilesParallel(ctx, paths)
	}
	var errs []error
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		if err := e.IndexFile(ctx, path); err != nil {
			e.logger.Warn("index failed", "path", path, "err", err)
			errs = append(errs, fmt.Errorf("index %s: %w", path, err))
		}
	}
	return summarize(errs)
}

func summarize(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("codemap: indexing had %d error(s): %w", len(errs), errors.Join(errs...))
}

// parsedFile is a file that has been read and parsed but not yet
// extracted.
type parsedFile struct {
	path    string
	lang    string
	content []byte
	tree    *syntax.Tree
}

func (e *Engine) readAndParse(ctx context.Context, path, lang string) (*parsedFile, error) {
	content, err := e.fs.DownloadWithURL(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrReadFailure, path, err)
	}
	tree, err := syntax.Parse(ctx, path, content)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrParseFailure, path, err)
	}
	return &parsedFile{path: path, lang: lang, content: content, tree: tree}, nil
}

// extract adds the file entity and walks the tree. It must run on one
// goroutine at a time.
func (e *Engine) extract(p *parsedFile) error {
	defer p.tree.Close()

	x, err := e.extractorFor(p.lang)
	if err != nil {
		return err
	}
	e.graph.AddNode(&Entity{ID: p.path, Kind: KindFile, Name: p.path})
	extract.Walk(x, p.tree.Root(), p.path, p.path)

	hash, err := contentHash(p.content)
	if err != nil {
		return fmt.Errorf("codemap: hash %s: %w", p.path, err)
	}
	e.files[p.path] = &IndexedFile{
		Path:      p.path,
		Language:  p.lang,
		Hash:      hash,
		Lines:     bytes.Count(p.content, []byte{'\n'}) + 1,
		IndexedAt: time.Now(),
	}
	e.logger.Debug("indexed file", "path", p.path, "language", p.lang, "nodes", e.graph.NodeCount())
	return nil
}

func contentHash(data []byte) (string, error) {
	h, err := highwayhash.New64(hashKey)
	if err != nil {
		return "", err
	}
	if _, err := h.Write(data); err != nil {
		return "", err
	}
	return fmt.Sprintf("%016x", h.Sum64()), nil
}

// skipDirs are never descended into by the filesystem walk.
var skipDirs = map[string]bool{
	"node_modules": true,
	"vendor":       true,
	"__pycache__":  true,
}

// IndexDirectory discovers supported files under root and indexes them.
// Inside a git work tree, git ls-files lists tracked and untracked files
// while honouring .gitignore. Otherwise a filesystem walk skips hidden
// directories, skipDirs and paths matched by root/.gitignore. Exclude
// patterns and the language filter apply either way.
func (e *Engine) IndexDirectory(ctx context.Context, root string) error {
	paths, err := e.gitListFiles(ctx, root)
	if err != nil {
		e.logger.Debug("git ls-files unavailable, walking", "root", root, "err", err)
		paths, err = e.walkListFiles(root)
		if err != nil {
			return err
		}
	}
	e.logger.Info("discovered files", "root", root, "count", len(paths))
	return e.IndexFiles(ctx, paths)
}

// accept applies the language filter and exclude patterns to a path found
// under root.
func (e *Engine) accept(root, path string) bool {
	if _, ok := e.enabled(path); !ok {
		return false
	}
	return !e.excluded(root, path)
}

func (e *Engine) excluded(root, path string) bool {
	if len(e.exclude) == 0 {
		return false
	}
	rel, err := filepath.Rel(root, path)
	if err != nil {
		rel = path
	}
	rel = filepath.ToSlash(rel)
	for _, g := range e.exclude {
		if g.Match(rel) {
			return true
		}
	}
	return false
}

func (e *Engine) gitListFiles(ctx context.Context, root string) ([]string, error) {
	// --cached: tracked, --others: untracked, --exclude-standard: honour
	// .gitignore, .git/info/exclude and global excludes.
	cmd := exec.CommandContext(ctx, "git", "ls-files", "--cached", "--others", "--exclude-standard")
	cmd.Dir = root
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("git ls-files: %w: %s", err, strings.TrimSpace(stderr.String()))
	}

	var paths []string
	for _, line := range strings.Split(stdout.String(), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		path := filepath.Join(root, line)
		if e.accept(root, path) {
			paths = append(paths, path)
		}
	}
	return paths, nil
}

func (e *Engine) walkListFiles(root string) ([]string, error) {
	var gi *ignore.GitIgnore
	if compiled, err := ignore.CompileIgnoreFile(filepath.Join(root, ".gitignore")); err == nil {
		gi = compiled
	} else if !os.IsNotExist(err) {
		e.logger.Warn("ignoring unreadable .gitignore", "root", root, "err", err)
	}

	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return relErr
		}
		rel = filepath.ToSlash(rel)
		if d.IsDir() {
			if path == root {
				return nil
			}
			name := d.Name()
			if strings.HasPrefix(name, ".") || skipDirs[name] {
				return filepath.SkipDir
			}
			if gi != nil && (gi.MatchesPath(rel) || gi.MatchesPath(rel+"/")) {
				return filepath.SkipDir
			}
			return nil
		}
		if gi != nil && gi.MatchesPath(rel) {
			return nil
		}
		if e.accept(root, path) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("codemap: walk directory: %w", err)
	}
	return paths, nil
}

// Save writes the graph snapshot into dir. Deferred calls and file
// bookkeeping are not part of a snapshot; use Export for those.
func (e *Engine) Save(ctx context.Context, dir string) error {
	return graph.WriteSnapshot(ctx, e.fs, dir, e.graph.Snapshot())
}

// Load replaces the graph with the snapshot in dir. A missing or unreadable
// snapshot leaves the graph untouched and returns false.
func (e *Engine) Load(ctx context.Context, dir string) bool {
	snap, err := graph.ReadSnapshot(ctx, e.fs, dir)
	if err != nil {
		if !errors.Is(err, graph.ErrNoSnapshot) {
			e.logger.Warn("snapshot not loaded", "dir", dir, "err", err)
		}
		return false
	}
	e.graph.Restore(snap)
	e.files = make(map[string]*IndexedFile)
	return true
}

// RunScript evaluates a Risor script file against the graph and returns
// the value of its last expression.
func (e *Engine) RunScript(ctx context.Context, path string, globals map[string]any) (any, error) {
	return e.runtime.RunScript(ctx, path, globals)
}

// RunSource evaluates Risor source against the graph.
func (e *Engine) RunSource(ctx context.Context, source string, globals map[string]any) (any, error) {
	return e.runtime.RunSource(ctx, source, globals)
}

func isKnownLanguage(lang string) bool {
	for _, l := range syntax.Languages() {
		if l == lang {
			return true
		}
	}
	return false
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
