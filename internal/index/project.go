package index

import (
	"log/slog"
)

// FileSource supplies the declarations of the project's own source files.
// internal/store implements it on top of SQLite.
type FileSource interface {
	SymbolsByFQName(fq string) ([]Symbol, error)
	SymbolsByName(name string) ([]Symbol, error)
	SymbolsByPackage(pkg string) ([]Symbol, error)
	MembersOf(classFQ string) ([]Symbol, error)
	ExtensionsFor(receiver string) ([]Symbol, error)
	ExtensionsNamed(name string) ([]Symbol, error)
	Classes() ([]Symbol, error)
}

// Project composes the indexes visible to one analysis: project files
// first, then the stdlib, then the classpath. Any part may be nil.
type Project struct {
	stdlib    *Memory
	classpath *Memory
	files     FileSource
	exclude   string
	logger    *slog.Logger
}

var _ Lookup = (*Project)(nil)

// ProjectOption configures a Project.
type ProjectOption func(*Project)

func WithStdlib(m *Memory) ProjectOption    { return func(p *Project) { p.stdlib = m } }
func WithClasspath(m *Memory) ProjectOption { return func(p *Project) { p.classpath = m } }
func WithFiles(fs FileSource) ProjectOption { return func(p *Project) { p.files = fs } }

// WithLogger sets the logger that receives file-source errors, which are
// otherwise treated as empty results.
func WithLogger(l *slog.Logger) ProjectOption { return func(p *Project) { p.logger = l } }

func NewProject(opts ...ProjectOption) *Project {
	p := &Project{logger: slog.Default()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Without returns a view of p that hides project symbols declared in
// filePath, so a file being analyzed does not see its own stale entries.
func (p *Project) Without(filePath string) *Project {
	if p == nil {
		return nil
	}
	c := *p
	c.exclude = filePath
	return &c
}

func (p *Project) Stdlib() *Memory      { return p.stdlib }
func (p *Project) Classpath() *Memory   { return p.classpath }
func (p *Project) Files() FileSource    { return p.files }
func (p *Project) ExcludedFile() string { return p.exclude }

// IsExternal reports whether fq names a class known to the stdlib or
// classpath index.
func (p *Project) IsExternal(fq string) bool {
	if p == nil {
		return false
	}
	for _, m := range []*Memory{p.stdlib, p.classpath} {
		if m == nil {
			continue
		}
		for _, s := range m.FindByFQName(fq) {
			if s.Kind.IsClass() {
				return true
			}
		}
	}
	return false
}

// FindInFiles queries only the project's own files.
func (p *Project) FindInFiles(query func(FileSource) ([]Symbol, error)) []Symbol {
	if p == nil || p.files == nil {
		return nil
	}
	syms, err := query(p.files)
	if err != nil {
		p.logger.Warn("project index query failed", "error", err)
		return nil
	}
	if p.exclude == "" {
		return syms
	}
	out := syms[:0:0]
	for _, s := range syms {
		if s.FilePath != p.exclude {
			out = append(out, s)
		}
	}
	return out
}

// FindInLibraries queries the stdlib and then the classpath index.
func (p *Project) FindInLibraries(query func(Lookup) []Symbol) []Symbol {
	if p == nil {
		return nil
	}
	var out []Symbol
	if p.stdlib != nil {
		out = append(out, query(p.stdlib)...)
	}
	if p.classpath != nil {
		out = append(out, query(p.classpath)...)
	}
	return out
}

func (p *Project) find(files func(FileSource) ([]Symbol, error), libs func(Lookup) []Symbol) []Symbol {
	out := p.FindInFiles(files)
	return append(out, p.FindInLibraries(libs)...)
}

func (p *Project) FindByFQName(fq string) []Symbol {
	return p.find(
		func(f FileSource) ([]Symbol, error) { return f.SymbolsByFQName(fq) },
		func(l Lookup) []Symbol { return l.FindByFQName(fq) },
	)
}

func (p *Project) FindBySimpleName(name string) []Symbol {
	return p.find(
		func(f FileSource) ([]Symbol, error) { return f.SymbolsByName(name) },
		func(l Lookup) []Symbol { return l.FindBySimpleName(name) },
	)
}

func (p *Project) FindByPackage(pkg string) []Symbol {
	return p.find(
		func(f FileSource) ([]Symbol, error) { return f.SymbolsByPackage(pkg) },
		func(l Lookup) []Symbol { return l.FindByPackage(pkg) },
	)
}

func (p *Project) FindMembers(classFQ string) []Symbol {
	return p.find(
		func(f FileSource) ([]Symbol, error) { return f.MembersOf(classFQ) },
		func(l Lookup) []Symbol { return l.FindMembers(classFQ) },
	)
}

func (p *Project) FindExtensions(receiverFQ string) []Symbol {
	return p.find(
		func(f FileSource) ([]Symbol, error) { return f.ExtensionsFor(receiverFQ) },
		func(l Lookup) []Symbol { return l.FindExtensions(receiverFQ) },
	)
}

func (p *Project) FindExtensionsByName(name string) []Symbol {
	return p.find(
		func(f FileSource) ([]Symbol, error) { return f.ExtensionsNamed(name) },
		func(l Lookup) []Symbol { return l.FindExtensionsByName(name) },
	)
}

func (p *Project) AllClasses() []Symbol {
	return p.find(
		func(f FileSource) ([]Symbol, error) { return f.Classes() },
		func(l Lookup) []Symbol { return l.AllClasses() },
	)
}
