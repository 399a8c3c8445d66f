package runner

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/google/uuid"
	"github.com/samber/oops"
)

// ModulePath is the import path compiled scripts resolve to the local
// checkout through a replace directive.
const ModulePath = "github.com/senpro-it/wassup"

// workspace is the temp directory one invocation owns.
type workspace struct {
	dir    string
	token  string
	source string
	binary string
}

func newWorkspace(tempDir string) (*workspace, error) {
	token := uuid.NewString()
	dir, err := os.MkdirTemp(tempDir, "wassup-"+token+"-")
	if err != nil {
		return nil, oops.In("newWorkspace").With("tempDir", tempDir).Wrap(err)
	}
	binary := filepath.Join(dir, token)
	if runtime.GOOS == "windows" {
		binary += ".exe"
	}
	return &workspace{
		dir:    dir,
		token:  token,
		source: filepath.Join(dir, "main.go"),
		binary: binary,
	}, nil
}

// populate writes the program and a module that points the library at
// moduleRoot.
func (w *workspace) populate(program, moduleRoot string) error {
	oopsBuilder := oops.In("workspace.populate").With("dir", w.dir)

	if err := writeFileAtomic(w.source, []byte(program), 0o644); err != nil {
		return oopsBuilder.Wrap(err)
	}

	goMod := fmt.Sprintf(
		"module wassupscript\n\ngo 1.22\n\nrequire %s v0.0.0-00010101000000-000000000000\n\nreplace %s => %s\n",
		ModulePath, ModulePath, moduleRoot,
	)
	if err := writeFileAtomic(filepath.Join(w.dir, "go.mod"), []byte(goMod), 0o644); err != nil {
		return oopsBuilder.Wrap(err)
	}

	sum, err := os.ReadFile(filepath.Join(moduleRoot, "go.sum"))
	switch {
	case err == nil:
		if err := writeFileAtomic(filepath.Join(w.dir, "go.sum"), sum, 0o644); err != nil {
			return oopsBuilder.Wrap(err)
		}
	case !os.IsNotExist(err):
		return oopsBuilder.With("moduleRoot", moduleRoot).Wrap(err)
	}
	return nil
}

func (w *workspace) remove() error {
	return os.RemoveAll(w.dir)
}

// writeFileAtomic writes to a sibling temp file and renames it into place,
// so path is either absent or complete.
func writeFileAtomic(path string, data []byte, perm os.FileMode) (err error) {
	oopsBuilder := oops.In("writeFileAtomic").With("path", path)

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return oopsBuilder.Wrap(err)
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		return oopsBuilder.Wrap(err)
	}
	if err = tmp.Sync(); err != nil {
		_ = tmp.Close()
		return oopsBuilder.Wrap(err)
	}
	if err = tmp.Close(); err != nil {
		return oopsBuilder.Wrap(err)
	}
	if err = os.Chmod(tmp.Name(), perm); err != nil {
		return oopsBuilder.Wrap(err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return oopsBuilder.Wrap(err)
	}
	return nil
}
