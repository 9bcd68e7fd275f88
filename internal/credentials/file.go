package credentials

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/BurntSushi/toml"
)

// FileRepository stores values in a TOML document readable only by the owner.
//
// Every write rewrites the whole file through a temporary file and a rename.
type FileRepository struct {
	mu   sync.Mutex
	path string
}

type fileDocument struct {
	Credentials map[string]string `toml:"credentials"`
}

func NewFileRepository(path string) *FileRepository {
	return &FileRepository{path: path}
}

func (r *FileRepository) Get(_ context.Context, key Key) (string, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, err := r.read()
	if err != nil {
		return "", false, err
	}
	v, ok := doc.Credentials[string(key)]
	return v, ok, nil
}

func (r *FileRepository) Set(_ context.Context, key Key, value string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, err := r.read()
	if err != nil {
		return err
	}
	doc.Credentials[string(key)] = value
	return r.write(doc)
}

func (r *FileRepository) Delete(_ context.Context, keys ...Key) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, err := r.read()
	if err != nil {
		return err
	}

	changed := false
	for _, k := range keys {
		if _, ok := doc.Credentials[string(k)]; ok {
			delete(doc.Credentials, string(k))
			changed = true
		}
	}
	if !changed {
		return nil
	}
	return r.write(doc)
}

func (r *FileRepository) read() (*fileDocument, error) {
	doc := &fileDocument{Credentials: make(map[string]string)}

	data, err := os.ReadFile(r.path)
	if errors.Is(err, fs.ErrNotExist) {
		return doc, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read credentials file: %w", err)
	}

	if _, err := toml.Decode(string(data), doc); err != nil {
		return nil, fmt.Errorf("failed to parse credentials file: %w", err)
	}
	if doc.Credentials == nil {
		doc.Credentials = make(map[string]string)
	}
	return doc, nil
}

func (r *FileRepository) write(doc *fileDocument) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(doc); err != nil {
		return fmt.Errorf("failed to encode credentials: %w", err)
	}

	dir := filepath.Dir(r.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create credentials directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".credentials-*.toml")
	if err != nil {
		return fmt.Errorf("failed to create temporary credentials file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := tmp.Chmod(0600); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to restrict credentials file: %w", err)
	}
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write credentials file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write credentials file: %w", err)
	}

	if err := os.Rename(tmp.Name(), r.path); err != nil {
		return fmt.Errorf("failed to replace credentials file: %w", err)
	}
	return nil
}
