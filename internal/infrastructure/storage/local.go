package storage

import (
	"archive/zip"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/iho/dochub/internal/domain"
	"github.com/iho/dochub/internal/usecase"
)

const octetStream = "application/octet-stream"

// Local stores document files under a root directory as <root>/<location>/<storage name>.
type Local struct {
	root string
}

// NewLocal creates the root directory if needed.
func NewLocal(root string) (*Local, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve storage root: %w", err)
	}
	if err := os.MkdirAll(abs, 0o750); err != nil {
		return nil, fmt.Errorf("create storage root: %w", err)
	}
	return &Local{root: abs}, nil
}

// Path returns the file path of doc. It never escapes the root.
func (l *Local) Path(doc *domain.Document) (string, error) {
	name := doc.StorageName
	if name == "" {
		name = doc.ID
	}
	p := filepath.Join(l.root, filepath.Clean(string(filepath.Separator)+doc.Location), filepath.Base(name))
	if p != l.root && !strings.HasPrefix(p, l.root+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: path escapes storage root", domain.ErrValidation)
	}
	return p, nil
}

// Prepare implements usecase.Streamer. A single document is streamed as is
// unless archiveAlways is set; otherwise the documents are zipped.
func (l *Local) Prepare(docs []*domain.Document, archiveName string, archiveAlways bool) (*usecase.Stream, error) {
	if len(docs) == 0 {
		return nil, domain.ErrDocumentNotFound
	}

	paths := make([]string, len(docs))
	for i, doc := range docs {
		p, err := l.Path(doc)
		if err != nil {
			return nil, err
		}
		if _, err := os.Stat(p); err != nil {
			if os.IsNotExist(err) {
				return nil, fmt.Errorf("%w: file of document %s is missing", domain.ErrDocumentNotFound, doc.ID)
			}
			return nil, err
		}
		paths[i] = p
	}

	if len(docs) == 1 && !archiveAlways {
		doc, p := docs[0], paths[0]
		return &usecase.Stream{
			ContentType: contentType(doc.OriginalName),
			Filename:    displayName(doc),
			WriteTo: func(w io.Writer) error {
				return copyFile(w, p)
			},
		}, nil
	}

	return &usecase.Stream{
		ContentType: "application/zip",
		Filename:    archiveName,
		WriteTo: func(w io.Writer) error {
			return writeArchive(w, docs, paths)
		},
	}, nil
}

func writeArchive(w io.Writer, docs []*domain.Document, paths []string) error {
	zw := zip.NewWriter(w)
	used := make(map[string]int, len(docs))

	for i, doc := range docs {
		name := displayName(doc)
		if n := used[name]; n > 0 {
			name = fmt.Sprintf("%s_%s", doc.ID, name)
		}
		used[displayName(doc)]++

		entry, err := zw.CreateHeader(&zip.FileHeader{
			Name:     name,
			Method:   zip.Deflate,
			Modified: doc.UpdatedAt,
		})
		if err != nil {
			return fmt.Errorf("add %s to archive: %w", name, err)
		}
		if err := copyFile(entry, paths[i]); err != nil {
			return err
		}
	}

	return zw.Close()
}

func copyFile(w io.Writer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = io.Copy(w, f)
	return err
}

func displayName(doc *domain.Document) string {
	if name := filepath.Base(doc.OriginalName); name != "." && name != string(filepath.Separator) && name != "" {
		return name
	}
	return doc.ID
}

func contentType(name string) string {
	if ct := mime.TypeByExtension(filepath.Ext(name)); ct != "" {
		return ct
	}
	return octetStream
}
