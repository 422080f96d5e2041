package neo4jimport

import "testing"

func encodeDynamicRecord(inUse bool, payload []byte, next int64) []byte {
	rec := make([]byte, dynamicRecordSize)
	if inUse {
		rec[0] = 0x1
	}
	length := len(payload)
	rec[1] = byte(length >> 16)
	rec[2] = byte(length >> 8)
	rec[3] = byte(length)
	putBE32(rec[4:8], next)
	copy(rec[8:], payload)
	return rec
}

func TestReadDynamicChainSingleBlock(t *testing.T) {
	var data []byte
	data = append(data, encodeDynamicRecord(true, []byte("hello"), noNextRecord)...)

	s, err := readDynamicChain(data, 0)
	if err != nil {
		t.Fatal(err)
	}
	if s != "hello" {
		t.Fatalf("expected %q, got %q", "hello", s)
	}
}

func TestReadDynamicChainMultiBlock(t *testing.T) {
	var data []byte
	data = append(data, encodeDynamicRecord(true, []byte("abc"), 1)...)
	data = append(data, encodeDynamicRecord(true, []byte("def"), noNextRecord)...)

	s, err := readDynamicChain(data, 0)
	if err != nil {
		t.Fatal(err)
	}
	if s != "abcdef" {
		t.Fatalf("expected %q, got %q", "abcdef", s)
	}
}

func TestReadDynamicChainDetectsCycle(t *testing.T) {
	var data []byte
	data = append(data, encodeDynamicRecord(true, []byte("a"), 1)...)
	data = append(data, encodeDynamicRecord(true, []byte("b"), 0)...) // points back to record 0

	if _, err := readDynamicChain(data, 0); err == nil {
		t.Fatal("expected an error for a cyclic dynamic record chain")
	}
}

func TestParseTokenStoreResolvesNames(t *testing.T) {
	var names []byte
	names = append(names, encodeDynamicRecord(true, []byte("Person"), noNextRecord)...)

	tokens := make([]byte, tokenRecordSize*2)
	tokens[0] = 0x1 // record 0 in use, points at dynamic record 0
	putBE32(tokens[1:5], 0)
	// record 1 left free

	out, err := parseTokenStore(tokens, names)
	if err != nil {
		t.Fatal(err)
	}
	if out[0] != "Person" {
		t.Fatalf("expected token 0 to resolve to %q, got %q", "Person", out[0])
	}
	if _, ok := out[1]; ok {
		t.Fatalf("expected free token record to be omitted")
	}
}
