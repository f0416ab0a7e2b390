package headless

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// MemoryBlob is an in-memory file.
type MemoryBlob struct {
	FileName string
	Data     []byte
	// Declared overrides len(Data) as the reported size when positive.
	Declared int64
}

func (b MemoryBlob) Name() string { return b.FileName }

func (b MemoryBlob) Size() int64 {
	if b.Declared > 0 {
		return b.Declared
	}
	return int64(len(b.Data))
}

func (b MemoryBlob) Open(context.Context) (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(b.Data)), nil
}

// FileBlob is a file on local disk.
type FileBlob struct {
	path string
	size int64
}

// OpenFile stats path and returns a blob for it.
func OpenFile(path string) (*FileBlob, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}
	return &FileBlob{path: path, size: info.Size()}, nil
}

func (b *FileBlob) Name() string { return filepath.Base(b.path) }

func (b *FileBlob) Size() int64 { return b.size }

func (b *FileBlob) Open(context.Context) (io.ReadCloser, error) {
	return os.Open(b.path)
}
