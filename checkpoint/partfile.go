package checkpoint

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"fmt"
	"io"
)

// encodePart gob-encodes each element and frames it with a varint length
// prefix, per §6's "self-describing length-prefixed serialization".
func encodePart(elements []any) ([]byte, error) {
	var buf bytes.Buffer
	lenPrefix := make([]byte, binary.MaxVarintLen64)
	for _, el := range elements {
		var payload bytes.Buffer
		if err := gob.NewEncoder(&payload).Encode(el); err != nil {
			return nil, fmt.Errorf("encode element: %w", err)
		}
		n := binary.PutUvarint(lenPrefix, uint64(payload.Len()))
		buf.Write(lenPrefix[:n])
		buf.Write(payload.Bytes())
	}
	return buf.Bytes(), nil
}

// decodePart reads every length-prefixed element out of a part file's raw
// bytes, in file order, handing each element's payload bytes to decodeOne
// and stopping at the first error decodeOne returns.
func decodePart(data []byte, decodeOne func(payload []byte) error) error {
	r := bytes.NewReader(data)
	for r.Len() > 0 {
		n, err := binary.ReadUvarint(r)
		if err != nil {
			return fmt.Errorf("read length prefix: %w", err)
		}
		payload := make([]byte, n)
		if _, err := io.ReadFull(r, payload); err != nil {
			return fmt.Errorf("read element payload: %w", err)
		}
		if err := decodeOne(payload); err != nil {
			return err
		}
	}
	return nil
}
