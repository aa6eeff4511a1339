package builtins

import (
	"testing"

	"vanta/internal/value"
	"vanta/internal/verrors"
)

func TestIsBuiltin(t *testing.T) {
	for _, name := range []string{"append", "remove", "type", "string"} {
		if !IsBuiltin(name) {
			t.Errorf("IsBuiltin(%q) = false, want true", name)
		}
	}
	if IsBuiltin("nope") {
		t.Errorf("IsBuiltin(\"nope\") = true, want false")
	}
}

func TestCallAppend(t *testing.T) {
	got, err := Call(FidAppend, []value.Value{value.List([]value.Value{value.Int(1)}), value.Int(2)})
	if err != nil {
		t.Fatalf("Call(append): %v", err)
	}
	if len(got.L) != 2 || got.L[1].I != 2 {
		t.Errorf("append result = %v", got)
	}
}

func TestCallRemoveOutOfBounds(t *testing.T) {
	_, err := Call(FidRemove, []value.Value{value.List([]value.Value{value.Int(1)}), value.Int(5)})
	if err == nil {
		t.Fatal("expected an error for out-of-bounds remove")
	}
	ve, ok := err.(*verrors.VantaError)
	if !ok {
		t.Fatalf("expected *verrors.VantaError, got %T", err)
	}
	if ve.Kind != verrors.IndexOutOfBounds {
		t.Errorf("Kind = %v, want IndexOutOfBounds", ve.Kind)
	}
}

func TestCallTypeReturnsTypeName(t *testing.T) {
	got, err := Call(FidType, []value.Value{value.Bool(true)})
	if err != nil {
		t.Fatalf("Call(type): %v", err)
	}
	if got.S != "bool" {
		t.Errorf("type(true) = %q, want \"bool\"", got.S)
	}
}

func TestCallStringOnListYieldsLiteralList(t *testing.T) {
	got, err := Call(FidString, []value.Value{value.List([]value.Value{value.Int(1), value.Int(2)})})
	if err != nil {
		t.Fatalf("Call(string): %v", err)
	}
	if got.S != "list" {
		t.Errorf("string([1,2]) = %q, want the literal \"list\"", got.S)
	}
}

func TestCallStringOnScalar(t *testing.T) {
	got, err := Call(FidString, []value.Value{value.Int(42)})
	if err != nil {
		t.Fatalf("Call(string): %v", err)
	}
	if got.S != "42" {
		t.Errorf("string(42) = %q, want \"42\"", got.S)
	}
}

func TestCallArityMismatch(t *testing.T) {
	tests := []struct {
		name string
		fid  Fid
		args []value.Value
	}{
		{"append", FidAppend, []value.Value{value.Int(1)}},
		{"remove", FidRemove, []value.Value{value.Int(1)}},
		{"type", FidType, []value.Value{value.Int(1), value.Int(2)}},
		{"string", FidString, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Call(tt.fid, tt.args)
			if err == nil {
				t.Fatalf("expected an arity error for %s", tt.name)
			}
			ve, ok := err.(*verrors.VantaError)
			if !ok || ve.Kind != verrors.ArityMismatch {
				t.Errorf("got %v, want ArityMismatch", err)
			}
		})
	}
}

func TestCallUnknownFid(t *testing.T) {
	_, err := Call(Fid(-99), nil)
	if err == nil {
		t.Fatal("expected an error for an unknown fid")
	}
	ve, ok := err.(*verrors.VantaError)
	if !ok || ve.Kind != verrors.UnknownBuiltin {
		t.Errorf("got %v, want UnknownBuiltin", err)
	}
}

func TestParamNamesCoverAllBuiltins(t *testing.T) {
	for name, fid := range NameToFid {
		params, ok := ParamNames[fid]
		if !ok {
			t.Errorf("no ParamNames entry for %q", name)
		}
		if FidToName[fid] != name {
			t.Errorf("FidToName[%d] = %q, want %q", fid, FidToName[fid], name)
		}
		_ = params
	}
}
