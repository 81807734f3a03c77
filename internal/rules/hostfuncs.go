package rules

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/risor-io/risor/object"

	"github.com/jward/ksema/internal/diagnostic"
	"github.com/jward/ksema/internal/syntax"
)

// reporter collects the diagnostics one script reports.
type reporter struct {
	script string
	file   string
	diags  []diagnostic.Diagnostic
}

// makeReportFn creates the "report" host function.
//
// report({"message": ..., "line": ..., "col": ...}) → nil
//
// Optional keys: code, severity (error, warning, info, hint; default
// warning), end_line and end_col (default to the start).
func makeReportFn(rep *reporter) *object.Builtin {
	return object.NewBuiltin("report", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 1 {
			return object.NewArgsError("report", 1, len(args))
		}
		m, err := extractMap(args[0])
		if err != nil {
			return object.Errorf("report: %v", err)
		}
		msg := getString(m, "message")
		if msg == "" {
			return object.Errorf("report: message is required")
		}

		start := syntax.Position{Line: getInt(m, "line"), Column: getInt(m, "col")}
		end := start
		if v, ok := getOptionalInt(m, "end_line"); ok {
			end.Line = v
		}
		if v, ok := getOptionalInt(m, "end_col"); ok {
			end.Column = v
		}
		if start.Line < 0 || start.Column < 0 || end.Before(start) {
			return object.Errorf("report: invalid range %s-%s", start, end)
		}

		d := diagnostic.New(diagnostic.RuleViolation, syntax.Range{Start: start, End: end}, rep.file, msg)
		if sev := getString(m, "severity"); sev != "" {
			d.Severity = diagnostic.ParseSeverity(sev)
		}
		related := "rule " + rep.script
		if code := getString(m, "code"); code != "" {
			related += ": " + code
		}
		d.Related = []diagnostic.RelatedInfo{{FilePath: rep.file, Range: d.Range, Message: related}}
		rep.diags = append(rep.diags, d)
		return object.Nil
	})
}

// makeNodeTextFn creates the "node_text" host function.
//
// node_text(line, col, end_line, end_col) → string
//
// Positions are zero-based; columns count bytes. Out of range positions
// are clamped to the file.
func makeNodeTextFn(src []byte) *object.Builtin {
	lines := lineStarts(src)
	return object.NewBuiltin("node_text", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 4 {
			return object.NewArgsError("node_text", 4, len(args))
		}
		var pos [4]int
		for i, a := range args {
			n, ok := a.(*object.Int)
			if !ok {
				return object.Errorf("node_text: argument %d must be an int, got %s", i+1, a.Type())
			}
			pos[i] = int(n.Value())
		}
		start := offset(lines, len(src), pos[0], pos[1])
		end := offset(lines, len(src), pos[2], pos[3])
		if start >= end {
			return object.NewString("")
		}
		return object.NewString(string(src[start:end]))
	})
}

func lineStarts(src []byte) []int {
	starts := []int{0}
	for i, b := range src {
		if b == '\n' {
			starts = append(starts, i+1)
		}
	}
	return starts
}

func offset(lines []int, size, line, col int) int {
	switch {
	case line < 0:
		return 0
	case line >= len(lines):
		return size
	}
	off := lines[line] + max(col, 0)
	limit := size
	if line+1 < len(lines) {
		limit = lines[line+1]
	}
	return min(off, limit)
}

// makeLogModule exposes log.info/warn/error backed by logger.
func makeLogModule(logger *slog.Logger) *object.Module {
	level := func(name string, lvl slog.Level) *object.Builtin {
		return object.NewBuiltin(name, func(ctx context.Context, args ...object.Object) object.Object {
			if len(args) != 1 {
				return object.NewArgsError("log."+name, 1, len(args))
			}
			msg, ok := args[0].(*object.String)
			if !ok {
				logger.Log(ctx, lvl, args[0].Inspect())
				return object.Nil
			}
			logger.Log(ctx, lvl, msg.Value())
			return object.Nil
		})
	}
	return object.NewBuiltinsModule("log", map[string]object.Object{
		"info":  level("info", slog.LevelInfo),
		"warn":  level("warn", slog.LevelWarn),
		"error": level("error", slog.LevelError),
	})
}

// --- Map extraction helpers ---

func extractMap(obj object.Object) (map[string]object.Object, error) {
	m, ok := obj.(*object.Map)
	if !ok {
		return nil, fmt.Errorf("expected map, got %s", obj.Type())
	}
	return m.Value(), nil
}

func getString(m map[string]object.Object, key string) string {
	if s, ok := m[key].(*object.String); ok {
		return s.Value()
	}
	return ""
}

func getInt(m map[string]object.Object, key string) int {
	v, _ := getOptionalInt(m, key)
	return v
}

func getOptionalInt(m map[string]object.Object, key string) (int, bool) {
	switch v := m[key].(type) {
	case *object.Int:
		return int(v.Value()), true
	case *object.Float:
		return int(v.Value()), true
	}
	return 0, false
}
