package index

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/klauspost/compress/zstd"
	"gopkg.in/yaml.v3"
)

// Format is the encoding of an index document.
type Format int

const (
	FormatJSON Format = iota
	FormatYAML
)

// FormatOf picks the format and compression of an index file from its
// name: .json, .yaml/.yml, each optionally followed by .zst.
func FormatOf(path string) (format Format, compressed bool, err error) {
	name := strings.ToLower(filepath.Base(path))
	if strings.HasSuffix(name, ".zst") {
		compressed = true
		name = strings.TrimSuffix(name, ".zst")
	}
	switch filepath.Ext(name) {
	case ".json":
		return FormatJSON, compressed, nil
	case ".yaml", ".yml":
		return FormatYAML, compressed, nil
	}
	return 0, false, fmt.Errorf("index: unsupported index file %q", path)
}

// Document is the on-disk form of an index.
type Document struct {
	Version     string                `json:"version" yaml:"version"`
	Classes     map[string]ClassEntry `json:"classes,omitempty" yaml:"classes,omitempty"`
	Functions   []Entry               `json:"functions,omitempty" yaml:"functions,omitempty"`
	Properties  []Entry               `json:"properties,omitempty" yaml:"properties,omitempty"`
	TypeAliases []Entry               `json:"typeAliases,omitempty" yaml:"typeAliases,omitempty"`
	// Extensions maps a receiver type to the extensions declared on it.
	Extensions map[string][]Entry `json:"extensions,omitempty" yaml:"extensions,omitempty"`
}

// ClassEntry describes one class keyed by its fully qualified name.
type ClassEntry struct {
	Kind           string   `json:"kind,omitempty" yaml:"kind,omitempty"`
	TypeParameters []string `json:"typeParameters,omitempty" yaml:"typeParameters,omitempty"`
	SuperTypes     []string `json:"superTypes,omitempty" yaml:"superTypes,omitempty"`
	Members        []Entry  `json:"members,omitempty" yaml:"members,omitempty"`
	Visibility     string   `json:"visibility,omitempty" yaml:"visibility,omitempty"`
	Abstract       bool     `json:"abstract,omitempty" yaml:"abstract,omitempty"`
	Sealed         bool     `json:"sealed,omitempty" yaml:"sealed,omitempty"`
	Deprecated     bool     `json:"deprecated,omitempty" yaml:"deprecated,omitempty"`
}

// Entry describes a function, property, constructor or type alias.
type Entry struct {
	Name           string   `json:"name" yaml:"name"`
	FQName         string   `json:"fqName,omitempty" yaml:"fqName,omitempty"`
	Kind           string   `json:"kind,omitempty" yaml:"kind,omitempty"`
	Package        string   `json:"package,omitempty" yaml:"package,omitempty"`
	TypeParameters []string `json:"typeParameters,omitempty" yaml:"typeParameters,omitempty"`
	Parameters     []Param  `json:"parameters,omitempty" yaml:"parameters,omitempty"`
	ReturnType     string   `json:"returnType,omitempty" yaml:"returnType,omitempty"`
	Receiver       string   `json:"receiver,omitempty" yaml:"receiver,omitempty"`
	Visibility     string   `json:"visibility,omitempty" yaml:"visibility,omitempty"`
	Abstract       bool     `json:"abstract,omitempty" yaml:"abstract,omitempty"`
	Var            bool     `json:"var,omitempty" yaml:"var,omitempty"`
	Deprecated     bool     `json:"deprecated,omitempty" yaml:"deprecated,omitempty"`
	DeprecationMsg string   `json:"deprecationMessage,omitempty" yaml:"deprecationMessage,omitempty"`
}

// Decode reads a document in the given format.
func Decode(r io.Reader, format Format) (*Document, error) {
	doc := &Document{}
	var err error
	switch format {
	case FormatYAML:
		err = yaml.NewDecoder(r).Decode(doc)
	default:
		err = json.NewDecoder(r).Decode(doc)
	}
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("index: decode: %w", err)
	}
	return doc, nil
}

// Load decodes a document and builds a Memory index from it.
func Load(r io.Reader, format Format) (*Memory, error) {
	doc, err := Decode(r, format)
	if err != nil {
		return nil, err
	}
	return doc.Index(), nil
}

// LoadFile loads an index document from disk, decompressing .zst files.
func LoadFile(path string) (*Memory, error) {
	format, compressed, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("index: open %s: %w", path, err)
	}
	defer f.Close()

	var r io.Reader = f
	if compressed {
		dec, err := zstd.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("index: zstd %s: %w", path, err)
		}
		defer dec.Close()
		r = dec
	}
	m, err := Load(r, format)
	if err != nil {
		return nil, fmt.Errorf("index: load %s: %w", path, err)
	}
	return m, nil
}

// WriteFile encodes doc to path, choosing format and compression from the
// file name.
func WriteFile(path string, doc *Document) error {
	format, compressed, err := FormatOf(path)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	switch format {
	case FormatYAML:
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("index: encode: %w", err)
		}
		enc.Close()
	default:
		enc := json.NewEncoder(&buf)
		enc.SetIndent("", "  ")
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("index: encode: %w", err)
		}
	}
	data := buf.Bytes()
	if compressed {
		enc, err := zstd.NewWriter(nil)
		if err != nil {
			return fmt.Errorf("index: zstd: %w", err)
		}
		data = enc.EncodeAll(data, nil)
		enc.Close()
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("index: write %s: %w", path, err)
	}
	return nil
}

// Symbols flattens the document into index records.
func (d *Document) Symbols() []Symbol {
	var out []Symbol
	for _, fq := range sortedKeys(d.Classes) {
		c := d.Classes[fq]
		kind := ParseKind(c.Kind)
		if c.Kind == "" {
			kind = KindClass
		}
		cls := Symbol{
			Name:           SimpleName(fq),
			FQName:         fq,
			Kind:           kind,
			Package:        packageOfClass(fq),
			Visibility:     c.Visibility,
			TypeParameters: c.TypeParameters,
			SuperTypes:     c.SuperTypes,
			IsAbstract:     c.Abstract || kind == KindInterface,
			IsSealed:       c.Sealed,
			Deprecated:     c.Deprecated,
		}
		if outer := enclosingName(fq, cls.Name); outer != "" {
			cls.ContainingClass = outer
		}
		out = append(out, cls)
		for _, m := range c.Members {
			s := m.symbol(KindFunction, cls.Package)
			s.ContainingClass = fq
			if m.FQName == "" {
				s.FQName = fq + "." + m.Name
			}
			if s.Kind == KindConstructor {
				s.Name = cls.Name
				s.FQName = fq + ".<init>"
				if s.ReturnType == "" {
					s.ReturnType = cls.Name
				}
			}
			out = append(out, s)
		}
	}
	for _, e := range d.Functions {
		out = append(out, e.symbol(KindFunction, ""))
	}
	for _, e := range d.Properties {
		out = append(out, e.symbol(KindProperty, ""))
	}
	for _, e := range d.TypeAliases {
		out = append(out, e.symbol(KindTypeAlias, ""))
	}
	for _, receiver := range sortedKeys(d.Extensions) {
		for _, e := range d.Extensions[receiver] {
			s := e.symbol(KindFunction, "")
			if s.ReceiverType == "" {
				s.ReceiverType = receiver
			}
			out = append(out, s)
		}
	}
	return out
}

func (e Entry) symbol(def Kind, pkg string) Symbol {
	kind := def
	if e.Kind != "" {
		kind = ParseKind(e.Kind)
	}
	if e.Package != "" {
		pkg = e.Package
	}
	fq := e.FQName
	if fq == "" {
		fq = e.Name
		if pkg != "" {
			fq = pkg + "." + e.Name
		}
	}
	if pkg == "" {
		pkg = PackageOf(fq)
	}
	return Symbol{
		Name:           e.Name,
		FQName:         fq,
		Kind:           kind,
		Package:        pkg,
		Visibility:     e.Visibility,
		TypeParameters: e.TypeParameters,
		Parameters:     e.Parameters,
		ReturnType:     e.ReturnType,
		ReceiverType:   e.Receiver,
		IsAbstract:     e.Abstract,
		IsVar:          e.Var,
		Deprecated:     e.Deprecated,
		DeprecationMsg: e.DeprecationMsg,
	}
}

// packageOfClass strips the class and any enclosing classes from fq.
func packageOfClass(fq string) string {
	parts := strings.Split(fq, ".")
	i := 0
	for i < len(parts)-1 && parts[i] != "" && (parts[i][0] < 'A' || parts[i][0] > 'Z') {
		i++
	}
	return strings.Join(parts[:i], ".")
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Index builds a Memory index holding every symbol of the document.
func (d *Document) Index() *Memory {
	m := NewMemory()
	m.AddAll(d.Symbols())
	return m
}

//go:embed minimal.yaml
var minimalYAML []byte

var (
	minimalOnce sync.Once
	minimalDoc  *Document
)

// Minimal returns a small builtin stdlib index: primitives, core classes,
// collections and the most common top-level functions and extensions. Each
// call returns a fresh index.
func Minimal() *Memory {
	minimalOnce.Do(func() {
		doc, err := Decode(bytes.NewReader(minimalYAML), FormatYAML)
		if err != nil {
			panic(fmt.Sprintf("index: embedded minimal stdlib: %v", err))
		}
		minimalDoc = doc
	})
	return minimalDoc.Index()
}
