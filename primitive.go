package keyarc

// Wire tags. Values below 128 tag primitives, 128 and up tag archive
// sections; see doc.go for the full layout.
const (
	tagBytes     byte = 1
	tagSymbol    byte = 2
	tagValue     byte = 3
	tagReference byte = 4
	tagList      byte = 5
	tagTable     byte = 6

	tagVersion     byte = 128
	tagSymbolTable byte = 129
	tagObjects     byte = 130
	tagRoots       byte = 131

	formatVersion = 1
)

type symIndex uint64
type objIndex uint64

// primitive is the closed set of wire-level value shapes. Every encodable
// value compiles down to a tree of these.
type primitive interface {
	appendTo(buf []byte) []byte
	describe() string
}

type primBytes []byte

type primSymbol symIndex

type primReference objIndex

type primList []primitive

type primPair struct {
	key primitive
	val primitive
}

type primTable []primPair

type primValue struct {
	typeSym symIndex
	fields  *fieldMap
}

func (p primBytes) appendTo(buf []byte) []byte {
	buf = appendByte(buf, tagBytes)
	buf = appendUint64(buf, uint64(len(p)))
	return appendRaw(buf, p)
}

func (p primSymbol) appendTo(buf []byte) []byte {
	buf = appendByte(buf, tagSymbol)
	return appendUint64(buf, uint64(p))
}

func (p primReference) appendTo(buf []byte) []byte {
	buf = appendByte(buf, tagReference)
	return appendUint64(buf, uint64(p))
}

func (p primList) appendTo(buf []byte) []byte {
	buf = appendByte(buf, tagList)
	buf = appendUint64(buf, uint64(len(p)))
	for _, el := range p {
		buf = el.appendTo(buf)
	}
	return buf
}

func (p primTable) appendTo(buf []byte) []byte {
	buf = appendByte(buf, tagTable)
	buf = appendUint64(buf, uint64(len(p)))
	for _, pair := range p {
		buf = pair.key.appendTo(buf)
		buf = pair.val.appendTo(buf)
	}
	return buf
}

func (p *primValue) appendTo(buf []byte) []byte {
	buf = appendByte(buf, tagValue)
	buf = appendUint64(buf, uint64(p.typeSym))
	buf = appendUint64(buf, uint64(len(p.fields.entries)))
	for _, f := range p.fields.entries {
		buf = appendUint64(buf, uint64(f.name))
		buf = f.value.appendTo(buf)
	}
	return buf
}

func (p primBytes) describe() string     { return "bytes" }
func (p primSymbol) describe() string    { return "symbol" }
func (p primReference) describe() string { return "reference" }
func (p primList) describe() string      { return "list" }
func (p primTable) describe() string     { return "table" }
func (p *primValue) describe() string    { return "value" }

func parsePrimitive(r *byteReader) (primitive, error) {
	tag, err := r.readByte()
	if err != nil {
		return nil, err
	}
	switch tag {
	case tagBytes:
		n, err := r.readCount(1)
		if err != nil {
			return nil, err
		}
		raw, err := r.readRaw(n)
		if err != nil {
			return nil, err
		}
		return primBytes(append([]byte(nil), raw...)), nil
	case tagSymbol:
		idx, err := r.readUint64()
		if err != nil {
			return nil, err
		}
		return primSymbol(idx), nil
	case tagReference:
		idx, err := r.readUint64()
		if err != nil {
			return nil, err
		}
		return primReference(idx), nil
	case tagList:
		n, err := r.readCount(primMinSize)
		if err != nil {
			return nil, err
		}
		list := make(primList, 0, n)
		for i := 0; i < n; i++ {
			el, err := parsePrimitive(r)
			if err != nil {
				return nil, err
			}
			list = append(list, el)
		}
		return list, nil
	case tagTable:
		n, err := r.readCount(2 * primMinSize)
		if err != nil {
			return nil, err
		}
		table := make(primTable, 0, n)
		for i := 0; i < n; i++ {
			key, err := parsePrimitive(r)
			if err != nil {
				return nil, err
			}
			val, err := parsePrimitive(r)
			if err != nil {
				return nil, err
			}
			table = append(table, primPair{key, val})
		}
		return table, nil
	case tagValue:
		typeSym, err := r.readUint64()
		if err != nil {
			return nil, err
		}
		n, err := r.readCount(8 + primMinSize)
		if err != nil {
			return nil, err
		}
		fields := newFieldMap()
		for i := 0; i < n; i++ {
			nameIdx, err := r.readUint64()
			if err != nil {
				return nil, err
			}
			fv, err := parsePrimitive(r)
			if err != nil {
				return nil, err
			}
			if !fields.put(symIndex(nameIdx), fv) {
				return nil, invalidInputf(r.off, nil, "duplicate field symbol %d in value", nameIdx)
			}
		}
		return &primValue{typeSym: symIndex(typeSym), fields: fields}, nil
	default:
		return nil, invalidInputf(r.off-1, nil, "unexpected primitive tag %d", tag)
	}
}

// Smallest possible encoded primitive: a tag byte plus one u64.
const primMinSize = 9

// fieldMap is one nesting level's name→primitive mapping, in insertion
// order. Both a Value primitive's fields and a coder's roots are fieldMaps;
// the engines swap them in and out stack-style so that nested values stay
// self-contained.
type fieldMap struct {
	entries []fieldEntry
	byName  map[symIndex]int
}

type fieldEntry struct {
	name  symIndex
	value primitive
}

func newFieldMap() *fieldMap {
	return &fieldMap{byName: make(map[symIndex]int)}
}

// put returns false if the name is already present.
func (fm *fieldMap) put(name symIndex, p primitive) bool {
	if _, ok := fm.byName[name]; ok {
		return false
	}
	fm.byName[name] = len(fm.entries)
	fm.entries = append(fm.entries, fieldEntry{name, p})
	return true
}

func (fm *fieldMap) get(name symIndex) (primitive, bool) {
	i, ok := fm.byName[name]
	if !ok {
		return nil, false
	}
	return fm.entries[i].value, true
}
