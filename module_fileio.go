// module_fileio.go - sandboxed file access for loaded modules
//
// Adapted from file_io.go/file_io_constants.go: that file exposed a
// register-driven sandboxed-path MMIO device for the emulator's CPU side.
// Modules here need the same sandboxing contract (no absolute paths, no
// traversal) when they load side-car assets (e.g. a sampler-type sound
// generator reading a bundled .wav), but there is no MMIO register file to
// drive it through anymore, so the register dance is dropped and only the
// sanitize + read calls survive, as the package-level ReadModuleAsset;
// there is no write call, and HostCapabilities carries no file hook.

package main

import (
	"os"
	"path/filepath"
	"strings"
)

// ModuleFileError mirrors file_io_constants.go's FILE_ERR_* taxonomy.
type ModuleFileError int

const (
	ModuleFileOK ModuleFileError = iota
	ModuleFileNotFound
	ModuleFilePermission
	ModuleFilePathTraversal
)

// sanitizeModuleAssetPath rejects absolute paths and ".." the same way
// file_io.go's sanitizePath did, confined to one module's own directory
// rather than a single global baseDir.
func sanitizeModuleAssetPath(moduleDirAbs, rel string) (string, bool) {
	if filepath.IsAbs(rel) || strings.Contains(rel, "..") {
		return "", false
	}
	full := filepath.Join(moduleDirAbs, rel)
	relBack, err := filepath.Rel(moduleDirAbs, full)
	if err != nil || strings.HasPrefix(relBack, "..") {
		return "", false
	}
	return full, true
}

// ReadModuleAsset reads a file below moduleDir(name), rejecting traversal
// out of the module's own directory.
func ReadModuleAsset(moduleName, rel string) ([]byte, ModuleFileError) {
	absDir, err := filepath.Abs(moduleDir(moduleName))
	if err != nil {
		return nil, ModuleFilePermission
	}
	full, ok := sanitizeModuleAssetPath(absDir, rel)
	if !ok {
		return nil, ModuleFilePathTraversal
	}
	data, err := os.ReadFile(full)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ModuleFileNotFound
		}
		return nil, ModuleFilePermission
	}
	return data, ModuleFileOK
}
