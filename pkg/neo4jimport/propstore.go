package neo4jimport

import (
	"math"
	"strconv"

	"github.com/grafito-db/grafito/internal/gerrors"
	"github.com/grafito-db/grafito/internal/values"
)

const propertyRecordSize = 41 // inUse(1) + prevProp(4) + nextProp(4) + 4 blocks of 8 bytes

// Property block type tags, from the classic PropertyType enum.
const (
	ptBool        = 1
	ptByte        = 2
	ptShort       = 3
	ptChar        = 4
	ptInt         = 5
	ptLong        = 6
	ptFloat       = 7
	ptDouble      = 8
	ptString      = 9  // dynamic, chained via propertystore.db.strings
	ptArray       = 10 // dynamic, unsupported here
	ptShortString = 11 // inline bit-packed charset, unsupported here
	ptShortArray  = 12 // inline bit-packed, unsupported here
)

// propertyStore holds the decoded blocks plus a reader into the paired
// dynamic string store for resolving ptString values.
type propertyStore struct {
	records  []byte
	strings  []byte
	keyNames map[int64]string
	skipped  int // count of unsupported (array/short-string) blocks dropped
}

func newPropertyStore(records, strings []byte, keyNames map[int64]string) (*propertyStore, error) {
	if len(records)%propertyRecordSize != 0 {
		return nil, &gerrors.ImportError{Source: "neostore.propertystore.db", Message: "file size is not a multiple of the property record size"}
	}
	return &propertyStore{records: records, strings: strings, keyNames: keyNames}, nil
}

// Resolve walks the property chain starting at headID, decoding every
// block it can and silently skipping types it doesn't support (dynamic
// arrays and the bit-packed short-string/short-array encodings) —
// documented in DESIGN.md as a bounded, best-effort subset.
func (ps *propertyStore) Resolve(headID int64) map[string]values.Value {
	out := map[string]values.Value{}
	if headID < 0 {
		return out
	}
	id := headID
	seen := map[int64]bool{}
	count := len(ps.records) / propertyRecordSize
	for id >= 0 && int(id) < count {
		if seen[id] {
			break
		}
		seen[id] = true
		rec := ps.records[id*propertyRecordSize : (id+1)*propertyRecordSize]
		if rec[0]&0x1 == 0 {
			break
		}
		next := be32(rec[5:9])
		blocks := make([][]byte, 4)
		for b := 0; b < 4; b++ {
			blocks[b] = rec[9+b*8 : 9+b*8+8]
		}
		for b := 0; b < 4; {
			if allZero(blocks[b]) {
				b++
				continue
			}
			consumed := ps.decodeBlock(blocks, b, out)
			if consumed < 1 {
				consumed = 1
			}
			b += consumed
		}
		id = next
	}
	return out
}

func allZero(b []byte) bool {
	for _, c := range b {
		if c != 0 {
			return false
		}
	}
	return true
}

// decodeBlock decodes the property block at blocks[idx] into out, and
// returns how many consecutive blocks it consumed. A double's 64 bits
// don't fit in a single block's 36-bit payload, so it spills into the
// following block the way the classic store always pairs them.
func (ps *propertyStore) decodeBlock(blocks [][]byte, idx int, out map[string]values.Value) int {
	block := blocks[idx]
	word := beUint64(block)
	keyID := int64(word & 0xFFFFFF)
	typeID := (word >> 24) & 0xF
	payload := word >> 28

	key, ok := ps.keyNames[keyID]
	if !ok {
		key = unresolvedPropertyKey(keyID)
	}

	switch typeID {
	case ptBool:
		out[key] = values.Bool(payload&0x1 != 0)
	case ptByte:
		out[key] = values.Int(int64(int8(payload & 0xFF)))
	case ptShort:
		out[key] = values.Int(int64(int16(payload & 0xFFFF)))
	case ptChar:
		out[key] = values.Str(string(rune(payload & 0xFFFF)))
	case ptInt:
		out[key] = values.Int(int64(int32(payload & 0xFFFFFFFF)))
	case ptLong:
		out[key] = values.Int(int64(payload))
	case ptFloat:
		out[key] = values.Float(float64(math.Float32frombits(uint32(payload & 0xFFFFFFFF))))
	case ptDouble:
		if idx+1 < len(blocks) {
			out[key] = values.Float(math.Float64frombits(beUint64(blocks[idx+1])))
			return 2
		}
		out[key] = values.Float(math.Float64frombits(payload))
	case ptString:
		if s, err := readDynamicChain(ps.strings, int64(payload&0xFFFFFFFF)); err == nil {
			out[key] = values.Str(s)
		}
	case ptArray, ptShortString, ptShortArray:
		ps.skipped++
	}
	return 1
}

func beUint64(b []byte) uint64 {
	var v uint64
	for i := 0; i < 8; i++ {
		v = v<<8 | uint64(b[i])
	}
	return v
}

func unresolvedPropertyKey(id int64) string {
	return "_propkey_" + strconv.FormatInt(id, 10)
}
