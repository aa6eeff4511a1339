// Package builtins implements vanta's four built-in functions. They
// share the VM's JUMPF dispatch with user functions via a fixed table of
// negative function ids, so from the IR's perspective a builtin call
// looks exactly like any other call.
package builtins

import (
	"vanta/internal/value"
	"vanta/internal/verrors"
)

// Fid is the negative function id a builtin is dispatched by.
type Fid int

const (
	FidAppend Fid = -1
	FidRemove Fid = -2
	FidType   Fid = -3
	FidString Fid = -4
)

// NameToFid maps a builtin's source-level name to its fixed fid.
var NameToFid = map[string]Fid{
	"append": FidAppend,
	"remove": FidRemove,
	"type":   FidType,
	"string": FidString,
}

// FidToName is the inverse of NameToFid, used by disassembly.
var FidToName = map[Fid]string{
	FidAppend: "append",
	FidRemove: "remove",
	FidType:   "type",
	FidString: "string",
}

// ParamNames returns the parameter names a builtin's call frame is
// populated with, matching the source-level function signature each
// pretends to have.
var ParamNames = map[Fid][]string{
	FidAppend: {"arr_val", "ele_val"},
	FidRemove: {"arr_val", "idx_val"},
	FidType:   {"val"},
	FidString: {"val"},
}

// IsBuiltin reports whether name resolves to one of the four builtins.
func IsBuiltin(name string) bool {
	_, ok := NameToFid[name]
	return ok
}

// Call dispatches to the builtin identified by fid with the given
// already-evaluated arguments.
func Call(fid Fid, args []value.Value) (value.Value, error) {
	switch fid {
	case FidAppend:
		if len(args) != 2 {
			return value.None, verrors.Newf(verrors.ArityMismatch, "append expects 2 arguments, got %d", len(args))
		}
		res, err := value.Append(args[0], args[1])
		if err != nil {
			return value.None, verrors.Newf(verrors.TypeMismatch, "%v", err)
		}
		return res, nil
	case FidRemove:
		if len(args) != 2 {
			return value.None, verrors.Newf(verrors.ArityMismatch, "remove expects 2 arguments, got %d", len(args))
		}
		res, err := value.Remove(args[0], args[1])
		if err != nil {
			return value.None, translateIndexErr(err)
		}
		return res, nil
	case FidType:
		if len(args) != 1 {
			return value.None, verrors.Newf(verrors.ArityMismatch, "type expects 1 argument, got %d", len(args))
		}
		return value.String(args[0].TypeName()), nil
	case FidString:
		if len(args) != 1 {
			return value.None, verrors.Newf(verrors.ArityMismatch, "string expects 1 argument, got %d", len(args))
		}
		// Preserved behavior: a list argument stringifies to the
		// literal "list", not its rendered contents.
		if args[0].IsList() {
			return value.String("list"), nil
		}
		return value.String(args[0].String()), nil
	}
	return value.None, verrors.Newf(verrors.UnknownBuiltin, "unknown builtin fid %d", fid)
}

func translateIndexErr(err error) error {
	if _, ok := err.(*value.IndexError); ok {
		return verrors.Newf(verrors.IndexOutOfBounds, "%v", err)
	}
	return verrors.Newf(verrors.TypeMismatch, "%v", err)
}
