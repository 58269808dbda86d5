//go:build js && wasm

package main

import (
	"syscall/js"

	"github.com/voxelsplace/svo/api"
	"github.com/voxelsplace/svo/codec"
	"github.com/voxelsplace/svo/octree"
)

func bytesArg(v js.Value) []byte {
	b := make([]byte, v.Get("length").Int())
	js.CopyBytesToGo(b, v)
	return b
}

func bytesResult(b []byte, err error) any {
	if err != nil {
		return js.ValueOf(err.Error())
	}
	arr := js.Global().Get("Uint8Array").New(len(b))
	js.CopyBytesToJS(arr, b)
	return arr
}

// svoNew(size) returns an empty snapshot.
func svoNew(this js.Value, args []js.Value) any {
	if len(args) < 1 {
		return js.ValueOf("missing size")
	}
	return bytesResult(api.NewSnapshot(uint32(args[0].Int()), codec.CompZstd))
}

// svoApplyEdits(snapshot, edits) returns the edited snapshot.
func svoApplyEdits(this js.Value, args []js.Value) any {
	if len(args) < 2 {
		return js.ValueOf("missing snapshot or edit stream")
	}
	return bytesResult(api.ApplyEdits(bytesArg(args[0]), bytesArg(args[1]), codec.CompZstd))
}

// svoExportEdits(snapshot) returns the snapshot content as an edit stream.
func svoExportEdits(this js.Value, args []js.Value) any {
	if len(args) < 1 {
		return js.ValueOf("missing snapshot")
	}
	return bytesResult(api.ExportEdits(bytesArg(args[0])))
}

// svoShift(snapshot, dx, dy, dz) returns the snapshot with its window moved.
func svoShift(this js.Value, args []js.Value) any {
	if len(args) < 4 {
		return js.ValueOf("missing snapshot or offset")
	}
	d := octree.IVec3{X: int32(args[1].Int()), Y: int32(args[2].Int()), Z: int32(args[3].Int())}
	return bytesResult(api.Shift(bytesArg(args[0]), d, codec.CompZstd))
}

func main() {
	js.Global().Set("svoNew", js.FuncOf(svoNew))
	js.Global().Set("svoApplyEdits", js.FuncOf(svoApplyEdits))
	js.Global().Set("svoExportEdits", js.FuncOf(svoExportEdits))
	js.Global().Set("svoShift", js.FuncOf(svoShift))
	select {}
}
