package sink

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"ibge-panorama/internal/extract"
)

// DefaultPath is where the text output goes unless told otherwise.
const DefaultPath = "resultado.txt"

// TextFile appends one "key;value;" line per record to a UTF-8 file. Keys
// and values are written as they are, without escaping.
type TextFile struct {
	path string
}

func NewTextFile(path string) TextFile {
	if path == "" {
		path = DefaultPath
	}
	return TextFile{path: path}
}

func (f TextFile) Path() string {
	return f.path
}

func (f TextFile) Reset(ctx context.Context) error {
	err := os.Remove(f.path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// Write creates the file on first use, even for an empty batch.
func (f TextFile) Write(ctx context.Context, records []extract.Record) error {
	file, err := os.OpenFile(f.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}

	w := bufio.NewWriter(file)
	for _, r := range records {
		_, err = fmt.Fprintf(w, "%s;%s;\n", r.Key, r.Value)
		if err != nil {
			file.Close()
			return err
		}
	}
	err = w.Flush()
	if err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

func (f TextFile) Close() error {
	return nil
}
