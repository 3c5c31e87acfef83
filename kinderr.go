// kinderr.go - error taxonomy for the augmentation core (spec §7)

package main

import (
	"errors"
	"fmt"
)

// Kind identifies one of the error taxonomy's broad categories. It is not
// a type switch target; callers compare with errors.Is against the
// sentinel values below, which are plain errors and carry no Kind.
type Kind int

const (
	KindModuleLoad Kind = iota
	KindParamRoute
	KindPatchStore
	KindSampler
	KindSetPage
)

func (k Kind) String() string {
	switch k {
	case KindModuleLoad:
		return "module-load"
	case KindParamRoute:
		return "param-routing"
	case KindPatchStore:
		return "patch-store"
	case KindSampler:
		return "sampler"
	case KindSetPage:
		return "set-page"
	default:
		return "unknown"
	}
}

var (
	// Module-load failures (§7).
	ErrModuleMissing     = errors.New("module file missing")
	ErrSymbolMissing     = errors.New("init symbol missing")
	ErrVersionMismatch   = errors.New("abi version mismatch")
	ErrCreateInstanceNil = errors.New("create_instance returned nil")

	// Parameter-routing failures.
	ErrNoSuchSlot     = errors.New("no such slot")
	ErrNoLivePlugin   = errors.New("no live plugin")
	ErrNoSetParam     = errors.New("target has no set_param")
	ErrNoGetParam     = errors.New("target has no get_param")
	ErrUnknownKey     = errors.New("unknown parameter key")
	ErrUnknownRequest = errors.New("unknown request type")

	// Patch-store failures.
	ErrPatchOpen       = errors.New("could not open patch file")
	ErrPatchTooLarge   = errors.New("patch file too large")
	ErrPatchMalformed  = errors.New("patch json malformed")
	ErrNoFreeFilename  = errors.New("no free filename after 99 suffixes")
	ErrDuplicateParamKey = errors.New("duplicate parameter key in module.json")

	// Sampler failures.
	ErrRingAlloc      = errors.New("ring buffer allocation failed")
	ErrFileOpen       = errors.New("could not open output file")
	ErrWriterSpawn    = errors.New("writer thread spawn failed")

	// Set-page failures.
	ErrRenameCollision = errors.New("set-page rename target already exists")
	ErrFirmwareTimeout = errors.New("firmware rpc timeout")
)

// Wrap prefixes err's message with k's name and wraps err with %w, so
// errors.Is/As still match err itself; k is recorded only in the text.
func Wrap(k Kind, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", k, err)
}
