// Package validator resolves requested module ids against a registry before
// anything runs. Validation is all-or-nothing: one bad id rejects the whole
// request.
package validator

import (
	stderrors "errors"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/AndreyAkinshin/modrun/internal/errors"
	"github.com/AndreyAkinshin/modrun/internal/registry"
	"github.com/AndreyAkinshin/modrun/internal/task"
)

var (
	errIsDirectory = stderrors.New("is a directory")
	errNoExecBit   = stderrors.New("missing execute permission")
	errNoFile      = stderrors.New("file does not exist")
	errNotInPath   = stderrors.New("not found in PATH")
)

// Validate resolves ids against reg and checks that every resolved module
// can be invoked. An empty ids slice selects every enabled module; an
// explicit id selects its module even when disabled.
//
// The returned descriptors follow request order with duplicates removed.
// On failure no descriptors are returned and the error joins one
// UnknownTask or NotExecutable error per offending id.
func Validate(ids []string, reg *registry.Registry) ([]task.Descriptor, error) {
	var candidates []task.Descriptor
	var errs []error

	if len(ids) == 0 {
		candidates = reg.List(false)
	} else {
		seen := make(map[string]bool, len(ids))
		for _, id := range ids {
			if seen[id] {
				continue
			}
			seen[id] = true

			d, ok := reg.Resolve(id)
			if !ok {
				errs = append(errs, errors.UnknownTask(id))
				continue
			}
			candidates = append(candidates, d)
		}
	}

	for _, d := range candidates {
		if err := CheckExecutable(d.Location); err != nil {
			errs = append(errs, errors.NotExecutable(d.ID, d.Location, err))
		}
	}

	if len(errs) > 0 {
		return nil, stderrors.Join(errs...)
	}
	return candidates, nil
}

// CheckExecutable reports why location cannot be invoked, or nil.
// Bare command names are looked up in PATH; anything containing a path
// separator must be an existing regular file with an execute bit.
func CheckExecutable(location string) error {
	if !strings.ContainsAny(location, "/"+string(filepath.Separator)) {
		if _, err := exec.LookPath(location); err != nil {
			return errNotInPath
		}
		return nil
	}

	info, err := os.Stat(location)
	if err != nil {
		if stderrors.Is(err, os.ErrNotExist) {
			return errNoFile
		}
		return err
	}
	if info.IsDir() {
		return errIsDirectory
	}
	// Windows has no execute bit; existence is the best available signal.
	if runtime.GOOS != "windows" && info.Mode().Perm()&0o111 == 0 {
		return errNoExecBit
	}
	return nil
}
