// features.go - build-time component registry.
//
// Adapted from the teacher's compiledFeatures slice: the mechanism is
// kept (each optional component appends its own name from an init()),
// but the entries now name this domain's build-tag-gated pieces (the
// oto monitor sink vs. the headless stub, scriptfx, the chip built-in)
// instead of the teacher's CPU/video backend list.

package main

import (
	"fmt"
	"runtime"
	"sort"
)

// Version is stamped into release builds via -ldflags; "dev" otherwise.
var Version = "dev"

var compiledFeatures []string

func registerFeature(name string) {
	compiledFeatures = append(compiledFeatures, name)
}

func init() {
	registerFeature("scriptfx (gopher-lua)")
}

func printFeatures() {
	fmt.Printf("move-host-core %s\n", Version)
	fmt.Printf("  Go version: %s\n", runtime.Version())
	fmt.Printf("  OS/Arch:    %s/%s\n", runtime.GOOS, runtime.GOARCH)
	fmt.Println()
	fmt.Println("Compiled features:")

	sort.Strings(compiledFeatures)
	for _, f := range compiledFeatures {
		fmt.Printf("  %s\n", f)
	}
	if len(compiledFeatures) == 0 {
		fmt.Println("  (none)")
	}
}
