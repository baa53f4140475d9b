/*
Package keyarc implements keyed archiving of object graphs into a compact,
cross-platform binary format, and unarchiving back into live values. Shared
instances are stored once and referenced, so graphs with shared or circular
references round-trip with identity intact.

We implement:

1. A tagged primitive format that every value compiles down to: raw bytes,
interned symbols, references into an object table, lists, tables (ordered
key/value pairs), and typed values (a type name plus a field map).

2. A symbol table interning every string in the archive (field names, type
names and string payloads alike), so repeated strings cost one entry plus
integer references.

3. An object table holding each reference-kind instance exactly once, which is
what makes shared-instance dedup and circular graphs work.

4. A process-wide type registry mapping stable names to decodable types,
populated by explicit registration calls before any archiving happens.

# Binary format

All multi-byte integers are little-endian and occupy 8 bytes regardless of
logical width. An archive is four sections in order:

	VERSION      tag 128, u64 version (currently 1)
	SYMBOLTABLE  tag 129, u64 count, count × (u64 length, UTF-8 bytes)
	OBJECTS      tag 130, u64 count, count × primitive
	ROOTS        tag 131, u64 count, count × (u64 key symbol, primitive)

A primitive is one tag byte followed by its payload:

	1 Bytes       u64 length, raw bytes
	2 Symbol      u64 symbol index
	3 Value       u64 type symbol, u64 field count, count × (u64 field symbol, primitive)
	4 Reference   u64 object index
	5 List        u64 count, count × primitive
	6 Table       u64 count, count × (primitive key, primitive value)

Numeric leaves (integers, floats, booleans) are Bytes holding the exact
little-endian fixed-width representation; platform-width ints are normalized
to 64 bits on write and truncated on read, so archives are portable across
platforms.

# Error model

Programmer errors panic: encoding an unregistered type, registering a
duplicate name or type, writing the same key twice into one value. These are
static mistakes a test run surfaces immediately.

Data errors return error values: [MissingValueError], [TypeMismatchError],
[UnknownTypeError] and [InvalidInputError]. They may arise from foreign or
corrupted archives and are meant to be handled by the caller.
*/
package keyarc
