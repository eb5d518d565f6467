package apiclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"strings"
)

// FileRef points at a local file chosen by the user. The engine never reads
// the filesystem itself; it asks the configured Opener for the content.
type FileRef struct {
	URI      string
	MIMEType string
	Name     string
}

// Opener resolves a FileRef URI into its content.
type Opener func(ctx context.Context, uri string) (io.ReadCloser, error)

// Field is one scalar multipart field.
type Field struct {
	Name  string
	Value string
}

// Multipart is a form body with one file part plus scalar fields.
type Multipart struct {
	Fields    []Field
	FileField string
	File      FileRef
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// encodeMultipart streams the form through a pipe so the file is never held
// in memory. The returned content type carries the boundary chosen by the
// encoder. The writer goroutine stops as soon as the request side closes the
// reader, including on cancellation.
func (c *Client) encodeMultipart(ctx context.Context, form *Multipart) (io.Reader, string, error) {
	if form.FileField == "" {
		return nil, "", errors.New("apiclient: multipart file field name is required")
	}
	if c.opener == nil {
		return nil, "", errors.New("apiclient: no file opener configured")
	}
	src, err := c.opener(ctx, form.File.URI)
	if err != nil {
		return nil, "", fmt.Errorf("open %s: %w", form.File.URI, err)
	}

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		defer src.Close()
		pw.CloseWithError(writeForm(mw, form, src))
	}()

	return pr, mw.FormDataContentType(), nil
}

func writeForm(mw *multipart.Writer, form *Multipart, src io.Reader) error {
	for _, f := range form.Fields {
		if err := mw.WriteField(f.Name, f.Value); err != nil {
			return err
		}
	}

	mimeType := form.File.MIMEType
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
		quoteEscaper.Replace(form.FileField), quoteEscaper.Replace(form.File.Name)))
	h.Set("Content-Type", mimeType)

	part, err := mw.CreatePart(h)
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, src); err != nil {
		return err
	}
	return mw.Close()
}
