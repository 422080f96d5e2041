package neo4jimport

import "github.com/grafito-db/grafito/internal/gerrors"

// parseNodeStore reads every fixed-width node record out of a
// neostore.nodestore.db byte image, skipping records whose in-use bit
// is clear (deleted/free slots).
func parseNodeStore(data []byte) ([]nodeRecord, error) {
	if len(data)%nodeRecordSize != 0 {
		return nil, &gerrors.ImportError{Source: "neostore.nodestore.db", Message: "file size is not a multiple of the node record size"}
	}
	count := len(data) / nodeRecordSize
	out := make([]nodeRecord, 0, count)
	for i := 0; i < count; i++ {
		rec := data[i*nodeRecordSize : (i+1)*nodeRecordSize]
		inUse := rec[0]&0x1 != 0
		if !inUse {
			continue
		}
		nr := nodeRecord{
			id:         int64(i),
			inUse:      true,
			nextRelID:  be32(rec[1:5]),
			nextPropID: be32(rec[5:9]),
			labelIDs:   decodeInlineLabels(rec[9:14]),
		}
		out = append(out, nr)
	}
	return out, nil
}

// decodeInlineLabels unpacks up to three 12-bit label ids from a node
// record's 5-byte label field; bit 0 selects inline-vs-dynamic-pointer
// encoding (§format.go). Dynamic (more than three labels) label sets
// aren't resolved here — the node still imports, just without those
// extra labels.
func decodeInlineLabels(field []byte) []int64 {
	packed := be40(field)
	if packed&0x1 != 0 {
		return nil // dynamic label record pointer, unsupported
	}
	bits := packed >> 1
	var labels []int64
	for i := 0; i < 3; i++ {
		id := (bits >> uint(12*i)) & 0xFFF
		if id == 0xFFF {
			continue // empty slot sentinel
		}
		labels = append(labels, id)
	}
	return labels
}
