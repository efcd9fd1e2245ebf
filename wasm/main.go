//go:build wasm

package main

import (
	"syscall/js"
)

func main() {
	// Export functions to JavaScript
	js.Global().Set("DotlessConfigure", js.FuncOf(configure))
	js.Global().Set("DotlessCompile", js.FuncOf(compile))
	js.Global().Set("DotlessImports", js.FuncOf(imports))
	js.Global().Set("DotlessResetImports", js.FuncOf(resetImports))
	js.Global().Set("DotlessPlugins", js.FuncOf(listPlugins))

	// Keep WASM running
	<-make(chan struct{})
}
