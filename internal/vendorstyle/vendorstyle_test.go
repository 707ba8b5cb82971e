package vendorstyle

import "testing"

func TestEncode(t *testing.T) {
	cases := []struct {
		in   Components
		want string
	}{
		{Components{Base: "100", Variant: "A", FabricCode: "T1", Sublimation: true}, "100-AT1P"},
		{Components{Base: "100"}, "100"},
		{Components{}, ""},
		{Components{Base: "100", Variant: "A"}, "100-A"},
		{Components{Base: "100", FabricCode: "T3"}, "100T3"},
		{Components{Base: "100", Sublimation: true}, "100"},
		{Components{Variant: "A"}, ""},
		{Components{FabricCode: "T1", Sublimation: true}, "T1P"},
		{Components{Base: " 200 ", Variant: " B "}, "200-B"},
	}
	for _, tc := range cases {
		if got := Encode(tc.in); got != tc.want {
			t.Fatalf("Encode(%+v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestDecode_ThreeSegments(t *testing.T) {
	got := Decode("300-C-T4")
	want := Components{Base: "300", Variant: "C", FabricCode: "T4"}
	if got != want {
		t.Fatalf("Decode = %+v, want %+v", got, want)
	}
}

func TestDecode_IsNotInverseOfEncode(t *testing.T) {
	code := Encode(Components{Base: "100", Variant: "A", FabricCode: "T1", Sublimation: true})
	got := Decode(code)
	// The fabric code stays embedded in the variant segment.
	if got.Base != "100" || got.Variant != "AT1P" || got.FabricCode != "" || got.Sublimation {
		t.Fatalf("Decode(%q) = %+v", code, got)
	}
}

func TestField_TouchedBlocksRebuild(t *testing.T) {
	var f Field
	c := Components{Base: "100"}
	if !f.Rebuild(c) || f.Value != "100" {
		t.Fatalf("rebuild = %q", f.Value)
	}

	f.Type("MANUAL-1")
	c.Base = "101"
	if f.Rebuild(c) {
		t.Fatalf("rebuild ran while touched")
	}
	if f.Value != "MANUAL-1" {
		t.Fatalf("value = %q, want manual edit kept", f.Value)
	}

	f.Force(c)
	if f.Touched || f.Value != "101" {
		t.Fatalf("force = %+v", f)
	}
}

func TestField_ClearingHandsBackToRebuild(t *testing.T) {
	f := Field{Value: "100"}
	f.Type("X")
	f.Type("")
	if f.Touched {
		t.Fatalf("cleared field still touched")
	}
	if !f.Rebuild(Components{Base: "7"}) || f.Value != "7" {
		t.Fatalf("rebuild after clear = %q", f.Value)
	}
}

func TestField_CommitOnlyWhenTouched(t *testing.T) {
	c := Components{Base: "100", Variant: "A", FabricCode: "T1"}
	f := Field{Value: "900-Z-T9"}
	if _, ok := f.Commit(c); ok {
		t.Fatalf("commit decoded an untouched field")
	}

	f.Type(" 900--T9 ")
	got, ok := f.Commit(c)
	if !ok {
		t.Fatalf("commit did not decode a touched field")
	}
	want := Components{Base: "900", Variant: "A", FabricCode: "T9"}
	if got != want {
		t.Fatalf("commit = %+v, want %+v", got, want)
	}
	if f.Value != "900--T9" || !f.Touched {
		t.Fatalf("field after commit = %+v", f)
	}
}
