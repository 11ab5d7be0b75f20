package api

import (
	"bytes"
	"fmt"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
)

// Attachment is a binary file sent in a multipart request.
type Attachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

// AttachmentFromFile reads path into an Attachment, guessing its content type
// from the extension and then the content.
func AttachmentFromFile(path string) (Attachment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Attachment{}, fmt.Errorf("read attachment: %w", err)
	}
	name := filepath.Base(path)
	ct := mime.TypeByExtension(strings.ToLower(filepath.Ext(name)))
	if ct == "" {
		ct = http.DetectContentType(data)
	}
	return Attachment{Filename: name, ContentType: ct, Data: data}, nil
}

// multipartBody is an encoded multipart/form-data payload. The content type
// carries the writer's boundary and must be sent unchanged.
type multipartBody struct {
	data        []byte
	contentType string
}

type formField struct {
	name  string
	value string
}

type fileField struct {
	name       string
	attachment Attachment
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func newMultipartBody(fields []formField, files []fileField) (*multipartBody, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for _, f := range fields {
		if err := w.WriteField(f.name, f.value); err != nil {
			return nil, fmt.Errorf("write field %s: %w", f.name, err)
		}
	}
	for _, f := range files {
		ct := f.attachment.ContentType
		if ct == "" {
			ct = "application/octet-stream"
		}
		filename := f.attachment.Filename
		if filename == "" {
			filename = "upload"
		}
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
			quoteEscaper.Replace(f.name), quoteEscaper.Replace(filename)))
		header.Set("Content-Type", ct)
		part, err := w.CreatePart(header)
		if err != nil {
			return nil, fmt.Errorf("create part %s: %w", f.name, err)
		}
		if _, err := part.Write(f.attachment.Data); err != nil {
			return nil, fmt.Errorf("write part %s: %w", f.name, err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("close multipart: %w", err)
	}
	return &multipartBody{data: buf.Bytes(), contentType: w.FormDataContentType()}, nil
}
