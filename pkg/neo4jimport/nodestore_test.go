package neo4jimport

import "testing"

func encodeNodeRecord(inUse bool, nextRel, nextProp int64, labelIDs ...int64) []byte {
	rec := make([]byte, nodeRecordSize)
	if inUse {
		rec[0] = 0x1
	}
	putBE32(rec[1:5], nextRel)
	putBE32(rec[5:9], nextProp)

	slots := [3]int64{0xFFF, 0xFFF, 0xFFF}
	copy(slots[:], labelIDs)
	var packed int64
	for i, id := range slots {
		packed |= id << uint(12*i)
	}
	packed = packed << 1 // inline flag bit0 = 0
	putBE40(rec[9:14], packed)
	return rec
}

func putBE32(b []byte, v int64) {
	b[0] = byte(v >> 24)
	b[1] = byte(v >> 16)
	b[2] = byte(v >> 8)
	b[3] = byte(v)
}

func putBE40(b []byte, v int64) {
	b[0] = byte(v >> 32)
	b[1] = byte(v >> 24)
	b[2] = byte(v >> 16)
	b[3] = byte(v >> 8)
	b[4] = byte(v)
}

func TestParseNodeStoreSkipsFreeRecordsAndDecodesLabels(t *testing.T) {
	var data []byte
	data = append(data, encodeNodeRecord(true, 10, 20, 1, 2)...)
	data = append(data, encodeNodeRecord(false, 0, 0)...) // deleted record, id 1
	data = append(data, encodeNodeRecord(true, 30, 40)...)

	records, err := parseNodeStore(data)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 in-use records, got %d", len(records))
	}
	if records[0].id != 0 || records[0].nextRelID != 10 || records[0].nextPropID != 20 {
		t.Fatalf("unexpected first record: %+v", records[0])
	}
	if len(records[0].labelIDs) != 2 || records[0].labelIDs[0] != 1 || records[0].labelIDs[1] != 2 {
		t.Fatalf("unexpected labels: %v", records[0].labelIDs)
	}
	if records[1].id != 2 || records[1].nextRelID != 30 {
		t.Fatalf("unexpected second record (should be the third on-disk slot): %+v", records[1])
	}
}

func TestParseNodeStoreRejectsBadSize(t *testing.T) {
	if _, err := parseNodeStore(make([]byte, nodeRecordSize+1)); err == nil {
		t.Fatal("expected an error for a misaligned node store file")
	}
}
