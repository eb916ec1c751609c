package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/lucasnoah/portforge/internal/errs"
)

// WriteAtomic writes data to a file atomically by writing to a temp
// file in the same directory, then renaming. A failed write leaves the
// target untouched.
func WriteAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errs.Persistence("mkdir", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return errs.Persistence("create temp file", dir, err)
	}
	tmpName := tmp.Name()

	// Clean up temp file on any error path.
	defer func() {
		if tmpName != "" {
			os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errs.Persistence("write", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		return errs.Persistence("close", tmpName, err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		return errs.Persistence("rename", path, err)
	}
	tmpName = "" // prevent deferred removal
	return nil
}

// WriteJSON writes v as pretty-printed JSON to path atomically.
func WriteJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	data = append(data, '\n')
	return WriteAtomic(path, data)
}

// ReadJSON reads the JSON file at path into v. Missing-file errors pass
// through unwrapped so callers can map them to NotFound.
func ReadJSON(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return err
		}
		return errs.Persistence("read", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return errs.Persistence("unmarshal", path, err)
	}
	return nil
}
