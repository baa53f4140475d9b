package keyarc

// coder is the archive state shared by Encoder and Decoder: the symbol
// table, the object table, and the roots mapping currently in effect. It is
// created empty, populated by exactly one encode or decode session, and
// discarded; only Clone carries state between an Encoder and a Decoder.
type coder struct {
	syms    symbolTable
	objects []primitive
	roots   *fieldMap
}

func newCoder() coder {
	return coder{roots: newFieldMap()}
}

// Serialize emits the archive bytes: VERSION, SYMBOLTABLE, OBJECTS and
// ROOTS sections in order, per the layout in doc.go.
func (c *coder) Serialize() []byte {
	buf := make([]byte, 0, 256)

	buf = appendByte(buf, tagVersion)
	buf = appendUint64(buf, formatVersion)

	buf = appendByte(buf, tagSymbolTable)
	buf = appendUint64(buf, uint64(c.syms.count()))
	for _, s := range c.syms.strings {
		buf = appendUint64(buf, uint64(len(s)))
		buf = appendString(buf, s)
	}

	buf = appendByte(buf, tagObjects)
	buf = appendUint64(buf, uint64(len(c.objects)))
	for _, obj := range c.objects {
		buf = obj.appendTo(buf)
	}

	buf = appendByte(buf, tagRoots)
	buf = appendUint64(buf, uint64(len(c.roots.entries)))
	for _, f := range c.roots.entries {
		buf = appendUint64(buf, uint64(f.name))
		buf = f.value.appendTo(buf)
	}

	return buf
}

// deserialize parses archive bytes into the coder. Parsing is all or
// nothing: on any error the coder is left untouched.
func (c *coder) deserialize(data []byte) error {
	r := &byteReader{data: data}
	var parsed coder

	if err := expectTag(r, tagVersion); err != nil {
		return err
	}
	ver, err := r.readUint64()
	if err != nil {
		return err
	}
	if ver != formatVersion {
		return invalidInputf(r.off-8, nil, "unsupported archive version %d, wanted %d", ver, formatVersion)
	}

	if err := expectTag(r, tagSymbolTable); err != nil {
		return err
	}
	symCount, err := r.readCount(8)
	if err != nil {
		return err
	}
	for i := 0; i < symCount; i++ {
		n, err := r.readCount(1)
		if err != nil {
			return err
		}
		raw, err := r.readRaw(n)
		if err != nil {
			return err
		}
		parsed.syms.intern(string(raw))
	}
	if parsed.syms.count() != symCount {
		return invalidInputf(r.off, nil, "symbol table holds duplicate strings")
	}

	if err := expectTag(r, tagObjects); err != nil {
		return err
	}
	objCount, err := r.readCount(primMinSize)
	if err != nil {
		return err
	}
	parsed.objects = make([]primitive, 0, objCount)
	for i := 0; i < objCount; i++ {
		obj, err := parsePrimitive(r)
		if err != nil {
			return err
		}
		parsed.objects = append(parsed.objects, obj)
	}

	if err := expectTag(r, tagRoots); err != nil {
		return err
	}
	rootCount, err := r.readCount(8 + primMinSize)
	if err != nil {
		return err
	}
	parsed.roots = newFieldMap()
	for i := 0; i < rootCount; i++ {
		keySym, err := r.readUint64()
		if err != nil {
			return err
		}
		p, err := parsePrimitive(r)
		if err != nil {
			return err
		}
		if !parsed.roots.put(symIndex(keySym), p) {
			return invalidInputf(r.off, nil, "duplicate root key symbol %d", keySym)
		}
	}

	if r.remaining() != 0 {
		return invalidInputf(r.off, nil, "%d trailing bytes after archive", r.remaining())
	}

	*c = parsed
	return nil
}

func expectTag(r *byteReader, want byte) error {
	tag, err := r.readByte()
	if err != nil {
		return err
	}
	if tag != want {
		return invalidInputf(r.off-1, nil, "unexpected tag %d, wanted %d", tag, want)
	}
	return nil
}
