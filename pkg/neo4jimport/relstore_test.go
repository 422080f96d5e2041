package neo4jimport

import "testing"

func encodeRelRecord(inUse bool, firstNode, secondNode, relType, nextProp int64) []byte {
	rec := make([]byte, relRecordSize)
	if inUse {
		rec[0] = 0x1
	}
	putBE32(rec[1:5], firstNode)
	putBE32(rec[5:9], secondNode)
	putBE32(rec[9:13], relType)
	putBE32(rec[29:33], nextProp)
	return rec
}

func TestParseRelStoreSkipsFreeRecords(t *testing.T) {
	var data []byte
	data = append(data, encodeRelRecord(true, 0, 1, 5, 100)...)
	data = append(data, encodeRelRecord(false, 0, 0, 0, 0)...)
	data = append(data, encodeRelRecord(true, 1, 2, 5, -1)...)

	recs, err := parseRelStore(data)
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 2 {
		t.Fatalf("expected 2 in-use relationship records, got %d", len(recs))
	}
	if recs[0].firstNode != 0 || recs[0].secondNode != 1 || recs[0].typeID != 5 || recs[0].nextPropID != 100 {
		t.Fatalf("unexpected first record: %+v", recs[0])
	}
	if recs[1].id != 2 || recs[1].firstNode != 1 || recs[1].secondNode != 2 {
		t.Fatalf("unexpected second record: %+v", recs[1])
	}
}

func TestParseRelStoreRejectsBadSize(t *testing.T) {
	if _, err := parseRelStore(make([]byte, relRecordSize+5)); err == nil {
		t.Fatal("expected an error for a misaligned relationship store file")
	}
}
