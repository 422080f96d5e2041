package neo4jimport

// Record sizes and field layouts below follow the classic (pre "high
// limit") Neo4j fixed-width record-store format: node records hold an
// in-use flag, the head of that node's relationship and property
// chains, and up to three inline label ids; relationship records hold
// an in-use flag, both endpoint node ids, the relationship type id, and
// the head of that relationship's property chain. Multi-byte fields are
// big-endian, matching the store engine's ByteBuffer usage. No sample
// archive was available to verify these offsets byte-for-byte; they
// target mainstream Neo4j 3.x/4.x community-edition stores and are
// documented as best-effort in DESIGN.md.
const (
	nodeRecordSize = 14 // inUse(1) + nextRelId(4) + nextPropId(4) + labels(5)
	relRecordSize  = 33 // inUse(1) + firstNode(4) + secondNode(4) + relType(4) + 4 chain pointers(16) + nextProp(4)

	dynamicRecordSize = 120 // inUse+length(4) + next(4) + data(112), the standard dynamic-string/array block size

	tokenRecordSize = 5 // inUse(1) + nameId(4), shared by label/rel-type/property-key token stores
)

type nodeRecord struct {
	id         int64
	inUse      bool
	nextRelID  int64
	nextPropID int64
	labelIDs   []int64
}

type relRecord struct {
	id         int64
	inUse      bool
	firstNode  int64
	secondNode int64
	typeID     int64
	nextPropID int64
}

func be32(b []byte) int64 {
	return int64(b[0])<<24 | int64(b[1])<<16 | int64(b[2])<<8 | int64(b[3])
}

func be40(b []byte) int64 {
	// 5-byte big-endian field used for node label pointers/high bits.
	return int64(b[0])<<32 | int64(b[1])<<24 | int64(b[2])<<16 | int64(b[3])<<8 | int64(b[4])
}
