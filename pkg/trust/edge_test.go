package trust_test

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"

	"github.com/psyto/lattice/pkg/merkle"
	"github.com/psyto/lattice/pkg/trust"
)

func testIdentity(fill byte) trust.Identity {
	var id trust.Identity
	for i := range id {
		id[i] = fill
	}
	return id
}

func TestEdge_encodeLayout(t *testing.T) {
	e := trust.Edge{
		Trustee:   testIdentity(0xab),
		Dimension: trust.DimensionDeveloper,
		Weight:    5000,
		CreatedAt: 1700000000,
	}

	enc := e.Encode()
	if len(enc) != trust.EncodedEdgeSize {
		t.Fatalf("encoded length: got %d, want %d", len(enc), trust.EncodedEdgeSize)
	}
	if !bytes.Equal(enc[:32], e.Trustee[:]) {
		t.Error("bytes 0..31 should be the trustee")
	}
	if enc[32] != byte(trust.DimensionDeveloper) {
		t.Errorf("dimension byte: got %d, want %d", enc[32], trust.DimensionDeveloper)
	}
	if got := binary.LittleEndian.Uint16(enc[33:35]); got != 5000 {
		t.Errorf("weight field: got %d, want 5000", got)
	}
	if got := int64(binary.LittleEndian.Uint64(enc[35:43])); got != 1700000000 {
		t.Errorf("created_at field: got %d, want 1700000000", got)
	}
}

func TestEdge_encodeLittleEndian(t *testing.T) {
	e := trust.Edge{Weight: 0x0102, CreatedAt: 0x0304}

	enc := e.Encode()
	if enc[33] != 0x02 || enc[34] != 0x01 {
		t.Errorf("weight must be little-endian: got % x", enc[33:35])
	}
	if enc[35] != 0x04 || enc[36] != 0x03 {
		t.Errorf("created_at must be little-endian: got % x", enc[35:37])
	}
}

func TestEdge_encodeDeterministic(t *testing.T) {
	e := trust.Edge{
		Trustee:   testIdentity(0x11),
		Dimension: trust.DimensionCivic,
		Weight:    100,
		CreatedAt: 42,
	}

	if !bytes.Equal(e.Encode(), e.Encode()) {
		t.Error("encoding the same edge twice must give identical bytes")
	}

	changed := e
	changed.Weight = 101
	if bytes.Equal(e.Encode(), changed.Encode()) {
		t.Error("different field values must give different bytes")
	}
	if e.Leaf() == changed.Leaf() {
		t.Error("different encodings must give different leaf hashes")
	}
}

func TestDecodeEdge_roundTrip(t *testing.T) {
	want := trust.Edge{
		Trustee:   testIdentity(0x7f),
		Dimension: trust.DimensionCreator,
		Weight:    trust.MaxWeight,
		CreatedAt: -1, // pre-epoch timestamps survive the round trip
	}

	got, err := trust.DecodeEdge(want.Encode())
	if err != nil {
		t.Fatal(err)
	}
	if got != want {
		t.Errorf("round trip: got %+v, want %+v", got, want)
	}
}

func TestDecodeEdge_rejectsBadInput(t *testing.T) {
	valid := trust.Edge{Trustee: testIdentity(1), Dimension: trust.DimensionTrading, Weight: 1, CreatedAt: 1}

	t.Run("wrong length", func(t *testing.T) {
		_, err := trust.DecodeEdge(valid.Encode()[:42])
		if !errors.Is(err, trust.ErrBadEdgeLength) {
			t.Errorf("42-byte input: got %v, want ErrBadEdgeLength", err)
		}
		if _, err := trust.DecodeEdge(append(valid.Encode(), 0)); !errors.Is(err, trust.ErrBadEdgeLength) {
			t.Errorf("44-byte input: got %v, want ErrBadEdgeLength", err)
		}
	})

	t.Run("bad dimension tag", func(t *testing.T) {
		enc := valid.Encode()
		enc[32] = 5
		_, err := trust.DecodeEdge(enc)
		if err == nil {
			t.Fatal("dimension tag 5 should be rejected")
		}
	})

	t.Run("weight above cap", func(t *testing.T) {
		enc := valid.Encode()
		binary.LittleEndian.PutUint16(enc[33:35], trust.MaxWeight+1)
		_, err := trust.DecodeEdge(enc)
		if err == nil {
			t.Fatal("weight 10001 should be rejected")
		}
	})
}

func TestEdge_validate(t *testing.T) {
	cases := []struct {
		name    string
		edge    trust.Edge
		wantErr bool
	}{
		{"zero weight ok", trust.Edge{Dimension: trust.DimensionTrading, Weight: 0}, false},
		{"max weight ok", trust.Edge{Dimension: trust.DimensionCreator, Weight: trust.MaxWeight}, false},
		{"weight over cap", trust.Edge{Dimension: trust.DimensionTrading, Weight: trust.MaxWeight + 1}, true},
		{"dimension out of range", trust.Edge{Dimension: 5, Weight: 1}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.edge.Validate()
			if tc.wantErr && err == nil {
				t.Error("expected validation error")
			}
			if !tc.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestParseDimension(t *testing.T) {
	d, err := trust.ParseDimension("Developer")
	if err != nil {
		t.Fatal(err)
	}
	if d != trust.DimensionDeveloper {
		t.Errorf("got %v, want developer", d)
	}
	if _, err := trust.ParseDimension("astrology"); err == nil {
		t.Error("unknown dimension name should fail")
	}
}

func TestBuildTree_proofsVerify(t *testing.T) {
	edges := []trust.Edge{
		{Trustee: testIdentity(1), Dimension: trust.DimensionTrading, Weight: 8000, CreatedAt: 100},
		{Trustee: testIdentity(2), Dimension: trust.DimensionCivic, Weight: 2500, CreatedAt: 200},
		{Trustee: testIdentity(3), Dimension: trust.DimensionInfra, Weight: 10000, CreatedAt: 300},
	}

	tree := trust.BuildTree(edges)
	root := tree.Root()

	for i, e := range edges {
		proof, err := tree.Proof(uint32(i))
		if err != nil {
			t.Fatal(err)
		}
		if !merkle.VerifyProof(proof, root, e.Leaf(), uint32(i)) {
			t.Errorf("proof for edge %d should verify", i)
		}
	}
}

func TestBuildTree_empty(t *testing.T) {
	tree := trust.BuildTree(nil)
	if tree.Root() != merkle.ZeroHash {
		t.Error("tree over no edges must commit to the zero hash")
	}
}

func TestParseIdentity(t *testing.T) {
	id := testIdentity(0xcd)

	parsed, err := trust.ParseIdentity(id.String())
	if err != nil {
		t.Fatal(err)
	}
	if parsed != id {
		t.Errorf("round trip: got %s, want %s", parsed, id)
	}

	if _, err := trust.ParseIdentity("abc"); err == nil {
		t.Error("short hex should fail")
	}
}
