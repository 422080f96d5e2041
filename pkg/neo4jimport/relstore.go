package neo4jimport

import "github.com/grafito-db/grafito/internal/gerrors"

// parseRelStore reads every fixed-width relationship record out of a
// neostore.relationshipstore.db byte image, skipping records whose
// in-use bit is clear.
func parseRelStore(data []byte) ([]relRecord, error) {
	if len(data)%relRecordSize != 0 {
		return nil, &gerrors.ImportError{Source: "neostore.relationshipstore.db", Message: "file size is not a multiple of the relationship record size"}
	}
	count := len(data) / relRecordSize
	out := make([]relRecord, 0, count)
	for i := 0; i < count; i++ {
		rec := data[i*relRecordSize : (i+1)*relRecordSize]
		inUse := rec[0]&0x1 != 0
		if !inUse {
			continue
		}
		rr := relRecord{
			id:         int64(i),
			inUse:      true,
			firstNode:  be32(rec[1:5]),
			secondNode: be32(rec[5:9]),
			typeID:     be32(rec[9:13]),
			nextPropID: be32(rec[29:33]),
		}
		out = append(out, rr)
	}
	return out, nil
}
