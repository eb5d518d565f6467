package cli

import (
	"context"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/FotoFacturas/revamp-sub000/internal/apiclient"
)

// openFile resolves file:// URIs and plain paths on the local filesystem.
func openFile(_ context.Context, uri string) (io.ReadCloser, error) {
	return os.Open(strings.TrimPrefix(uri, "file://"))
}

// fileRef describes a local file for upload, guessing its type from the
// extension.
func fileRef(path string) (apiclient.FileRef, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return apiclient.FileRef{}, err
	}
	if _, err := os.Stat(abs); err != nil {
		return apiclient.FileRef{}, err
	}
	mimeType := mime.TypeByExtension(strings.ToLower(filepath.Ext(abs)))
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	return apiclient.FileRef{URI: "file://" + abs, MIMEType: mimeType, Name: filepath.Base(abs)}, nil
}
