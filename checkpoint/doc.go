// Package checkpoint implements SPEC_FULL.md §6's checkpoint file layout: a
// directory holding a JSON manifest plus one or more length-prefixed part
// files. It has no teacher precedent — the example corpus ships no
// serialized-collection store — so it is built on stdlib primitives named
// directly in §6's own grounding note: encoding/json for the manifest,
// encoding/binary varint framing for part records, crypto/sha256 for the
// digest, and encoding/gob for the self-describing element payload (gob
// already tags every value with its own type information on the wire,
// which is what "self-describing" asks for without pulling in a generic
// serialization library the corpus never reaches for).
package checkpoint
