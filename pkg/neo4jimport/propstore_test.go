package neo4jimport

import (
	"math"
	"testing"
)

func encodeBlock(keyID, typeID, payload int64) []byte {
	word := (payload << 28) | (typeID << 24) | keyID
	b := make([]byte, 8)
	for i := 7; i >= 0; i-- {
		b[i] = byte(word)
		word >>= 8
	}
	return b
}

func encodePropertyRecord(inUse bool, next int64, blocks ...[]byte) []byte {
	rec := make([]byte, propertyRecordSize)
	if inUse {
		rec[0] = 0x1
	}
	putBE32(rec[5:9], next)
	for i, blk := range blocks {
		copy(rec[9+i*8:9+i*8+8], blk)
	}
	return rec
}

func TestPropertyStoreResolvesPrimitiveTypes(t *testing.T) {
	keyNames := map[int64]string{0: "age", 1: "active"}
	rec := encodePropertyRecord(true, -1,
		encodeBlock(0, ptInt, 42),
		encodeBlock(1, ptBool, 1),
	)

	ps, err := newPropertyStore(rec, nil, keyNames)
	if err != nil {
		t.Fatal(err)
	}
	props := ps.Resolve(0)

	age, ok := props["age"].Int()
	if !ok || age != 42 {
		t.Fatalf("expected age=42, got %v (ok=%v)", props["age"], ok)
	}
	active, ok := props["active"].Bool()
	if !ok || !active {
		t.Fatalf("expected active=true, got %v (ok=%v)", props["active"], ok)
	}
}

func TestPropertyStoreResolvesDoubleAndDynamicString(t *testing.T) {
	var strings []byte
	strings = append(strings, encodeDynamicRecord(true, []byte("grafito"), noNextRecord)...)

	keyNames := map[int64]string{2: "score", 3: "name"}

	// A double spans two blocks: a header block carrying key+type, and a
	// second block holding the raw 64-bit value.
	header := encodeBlock(2, ptDouble, 0)
	overflow := make([]byte, 8)
	bits := math.Float64bits(3.5)
	for i := 7; i >= 0; i-- {
		overflow[i] = byte(bits)
		bits >>= 8
	}
	rec := encodePropertyRecord(true, -1, header, overflow, encodeBlock(3, ptString, 0))

	ps, err := newPropertyStore(rec, strings, keyNames)
	if err != nil {
		t.Fatal(err)
	}
	props := ps.Resolve(0)

	score, ok := props["score"].Float()
	if !ok || score != 3.5 {
		t.Fatalf("expected score=3.5, got %v (ok=%v)", props["score"], ok)
	}
	name, ok := props["name"].Str()
	if !ok || name != "grafito" {
		t.Fatalf("expected name=grafito, got %v (ok=%v)", props["name"], ok)
	}
}

func TestPropertyStoreCountsSkippedUnsupportedTypes(t *testing.T) {
	keyNames := map[int64]string{4: "tags"}
	rec := encodePropertyRecord(true, -1, encodeBlock(4, ptArray, 0))

	ps, err := newPropertyStore(rec, nil, keyNames)
	if err != nil {
		t.Fatal(err)
	}
	props := ps.Resolve(0)
	if _, ok := props["tags"]; ok {
		t.Fatalf("expected unsupported array property to be skipped, not decoded")
	}
	if ps.skipped != 1 {
		t.Fatalf("expected skipped=1, got %d", ps.skipped)
	}
}

func TestNewPropertyStoreRejectsBadSize(t *testing.T) {
	if _, err := newPropertyStore(make([]byte, propertyRecordSize-1), nil, nil); err == nil {
		t.Fatal("expected an error for a misaligned property store file")
	}
}
