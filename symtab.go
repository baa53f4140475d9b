package keyarc

// symbolTable interns strings into dense indices assigned in first-seen
// order. Append-only within one archiving session.
type symbolTable struct {
	strings []string
	indices map[string]symIndex
}

func (st *symbolTable) count() int {
	return len(st.strings)
}

func (st *symbolTable) intern(s string) symIndex {
	if idx, ok := st.indices[s]; ok {
		return idx
	}
	if st.indices == nil {
		st.indices = make(map[string]symIndex)
	}
	idx := symIndex(len(st.strings))
	st.strings = append(st.strings, s)
	st.indices[s] = idx
	return idx
}

func (st *symbolTable) lookup(s string) (symIndex, bool) {
	idx, ok := st.indices[s]
	return idx, ok
}

func (st *symbolTable) resolve(idx symIndex) (string, bool) {
	if uint64(idx) >= uint64(len(st.strings)) {
		return "", false
	}
	return st.strings[idx], true
}
