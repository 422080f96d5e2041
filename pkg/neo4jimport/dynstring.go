package neo4jimport

import "github.com/grafito-db/grafito/internal/gerrors"

const noNextRecord = 0xFFFFFFFF

// readDynamicChain follows a dynamic-record chain starting at startID,
// concatenating each block's payload until a record's "next" pointer is
// the sentinel meaning end-of-chain, and decodes the result as UTF-8 —
// how Neo4j's token name stores hold label/relationship-type/property-
// key strings too long (or not) to inline elsewhere.
func readDynamicChain(data []byte, startID int64) (string, error) {
	if startID < 0 {
		return "", nil
	}
	var out []byte
	id := startID
	seen := map[int64]bool{}
	for {
		if seen[id] {
			return "", &gerrors.ImportError{Source: "neostore dynamic store", Message: "cyclic dynamic record chain"}
		}
		seen[id] = true
		offset := id * dynamicRecordSize
		if offset < 0 || offset+dynamicRecordSize > int64(len(data)) {
			return "", &gerrors.ImportError{Source: "neostore dynamic store", Message: "dynamic record id out of range"}
		}
		rec := data[offset : offset+dynamicRecordSize]
		inUse := rec[0]&0x1 != 0
		if !inUse {
			return "", &gerrors.ImportError{Source: "neostore dynamic store", Message: "dynamic record not in use"}
		}
		length := int(rec[1])<<16 | int(rec[2])<<8 | int(rec[3])
		next := be32(rec[4:8])
		payload := rec[8:]
		if length > len(payload) {
			length = len(payload)
		}
		out = append(out, payload[:length]...)
		if next == noNextRecord || next < 0 {
			break
		}
		id = next
	}
	return string(out), nil
}

// parseTokenStore decodes a token store (label/relationship-type/
// property-key): fixed tokenRecordSize records of {inUse, nameId}
// pointing into the paired dynamic-string ".names" store.
func parseTokenStore(tokenData, namesData []byte) (map[int64]string, error) {
	if len(tokenData)%tokenRecordSize != 0 {
		return nil, &gerrors.ImportError{Source: "neostore token store", Message: "file size is not a multiple of the token record size"}
	}
	count := len(tokenData) / tokenRecordSize
	out := make(map[int64]string, count)
	for i := 0; i < count; i++ {
		rec := tokenData[i*tokenRecordSize : (i+1)*tokenRecordSize]
		if rec[0]&0x1 == 0 {
			continue
		}
		nameID := be32(rec[1:5])
		name, err := readDynamicChain(namesData, nameID)
		if err != nil {
			continue // unresolved token name; caller falls back to a synthetic name
		}
		out[int64(i)] = name
	}
	return out, nil
}
