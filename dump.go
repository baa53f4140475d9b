package keyarc

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/vmihailenco/msgpack/v5"
)

type DumpFlags uint64

const (
	DumpSymbols = DumpFlags(1 << iota)
	DumpObjects
	DumpRoots

	DumpAll = DumpFlags(0xFFFFFFFFFFFFFFFF)
)

func (f DumpFlags) Contains(v DumpFlags) bool {
	return (f & v) == v
}

// Dump renders the archive state for debugging: the symbol table, the
// object table and the roots, with symbols resolved to their strings.
func (c *coder) Dump(f DumpFlags) string {
	var buf strings.Builder
	if f.Contains(DumpSymbols) {
		fmt.Fprintf(&buf, "symbols (%d):\n", c.syms.count())
		for i, s := range c.syms.strings {
			fmt.Fprintf(&buf, "  %d = %q\n", i, s)
		}
	}
	if f.Contains(DumpObjects) {
		fmt.Fprintf(&buf, "objects (%d):\n", len(c.objects))
		for i, obj := range c.objects {
			fmt.Fprintf(&buf, "  &%d = %s\n", i, c.renderPrimitive(obj))
		}
	}
	if f.Contains(DumpRoots) {
		fmt.Fprintf(&buf, "roots (%d):\n", len(c.roots.entries))
		for _, fe := range c.roots.entries {
			fmt.Fprintf(&buf, "  %s = %s\n", c.renderSymbol(fe.name), c.renderPrimitive(fe.value))
		}
	}
	return buf.String()
}

func (c *coder) renderSymbol(idx symIndex) string {
	if s, ok := c.syms.resolve(idx); ok {
		return fmt.Sprintf("%q", s)
	}
	return fmt.Sprintf("#%d!", idx)
}

func (c *coder) renderPrimitive(p primitive) string {
	switch pp := p.(type) {
	case primBytes:
		return hex.EncodeToString(pp)
	case primSymbol:
		return c.renderSymbol(symIndex(pp))
	case primReference:
		return fmt.Sprintf("&%d", pp)
	case primList:
		var buf strings.Builder
		buf.WriteByte('[')
		for i, el := range pp {
			if i > 0 {
				buf.WriteString(", ")
			}
			buf.WriteString(c.renderPrimitive(el))
		}
		buf.WriteByte(']')
		return buf.String()
	case primTable:
		var buf strings.Builder
		buf.WriteByte('{')
		for i, pair := range pp {
			if i > 0 {
				buf.WriteString(", ")
			}
			buf.WriteString(c.renderPrimitive(pair.key))
			buf.WriteString(": ")
			buf.WriteString(c.renderPrimitive(pair.val))
		}
		buf.WriteByte('}')
		return buf.String()
	case *primValue:
		var buf strings.Builder
		if s, ok := c.syms.resolve(pp.typeSym); ok {
			buf.WriteString(s)
		} else {
			fmt.Fprintf(&buf, "#%d!", pp.typeSym)
		}
		buf.WriteByte('(')
		for i, f := range pp.fields.entries {
			if i > 0 {
				buf.WriteString(", ")
			}
			buf.WriteString(c.renderSymbol(f.name))
			buf.WriteString(": ")
			buf.WriteString(c.renderPrimitive(f.value))
		}
		buf.WriteByte(')')
		return buf.String()
	default:
		return fmt.Sprintf("?%T", p)
	}
}

// ExportMethod selects the serialization used by Export.
type ExportMethod int

const (
	MsgPack ExportMethod = iota
	JSON
)

// Export converts the archive to a generic document for inspection or
// interop with tools that read msgpack or JSON. Typed values become maps
// with a "$type" entry, references become {"$ref": n} against a top-level
// "$objects" array, so the export stays acyclic. This is a one-way debug
// surface; the binary archive format is the round-trip representation.
func (c *coder) Export(method ExportMethod) ([]byte, error) {
	doc := map[string]any{
		"$version": uint64(formatVersion),
		"$objects": c.exportObjects(),
		"$roots":   c.exportFields(c.roots),
	}
	switch method {
	case MsgPack:
		var buf bytes.Buffer
		enc := msgpack.GetEncoder()
		enc.Reset(&buf)
		enc.SetSortMapKeys(true)
		err := enc.Encode(doc)
		msgpack.PutEncoder(enc)
		if err != nil {
			return nil, fmt.Errorf("keyarc: msgpack export: %w", err)
		}
		return buf.Bytes(), nil
	case JSON:
		raw, err := json.Marshal(doc)
		if err != nil {
			return nil, fmt.Errorf("keyarc: JSON export: %w", err)
		}
		return raw, nil
	default:
		panic("unsupported export method")
	}
}

func (c *coder) exportObjects() []any {
	out := make([]any, 0, len(c.objects))
	for _, obj := range c.objects {
		out = append(out, c.exportPrimitive(obj))
	}
	return out
}

func (c *coder) exportFields(fm *fieldMap) map[string]any {
	out := make(map[string]any, len(fm.entries))
	for _, f := range fm.entries {
		name, _ := c.syms.resolve(f.name)
		out[name] = c.exportPrimitive(f.value)
	}
	return out
}

func (c *coder) exportPrimitive(p primitive) any {
	switch pp := p.(type) {
	case primBytes:
		return []byte(pp)
	case primSymbol:
		s, _ := c.syms.resolve(symIndex(pp))
		return s
	case primReference:
		return map[string]any{"$ref": uint64(pp)}
	case primList:
		out := make([]any, 0, len(pp))
		for _, el := range pp {
			out = append(out, c.exportPrimitive(el))
		}
		return out
	case primTable:
		out := make([]any, 0, len(pp))
		for _, pair := range pp {
			out = append(out, []any{c.exportPrimitive(pair.key), c.exportPrimitive(pair.val)})
		}
		return out
	case *primValue:
		name, _ := c.syms.resolve(pp.typeSym)
		out := c.exportFields(pp.fields)
		out["$type"] = name
		return out
	default:
		return nil
	}
}
