package apiclient

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"net/url"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

const (
	fallbackDefault        = "Unknown error"
	fallbackTranscribe     = "Transcription failed"
	fallbackTranscribeSend = "Failed to process audio"
	fallbackDocumentUpload = "Upload failed"
	audioField             = "audio"
	audioFilename          = "recording.webm"
	documentField          = "file"
	jsonContentType        = "application/json"
	defaultFileContentType = "application/octet-stream"
)

// request describes one endpoint call. body is nil, a jsonBody or a formBody;
// the two encodings are never mixed.
type request struct {
	method   string
	path     string
	query    url.Values
	body     requestBody
	fallback string
}

type requestBody interface {
	// encode returns the payload and the Content-Type header to send.
	encode() (io.Reader, string, error)
}

type jsonBody struct {
	value interface{}
}

func (b jsonBody) encode() (io.Reader, string, error) {
	data, err := json.Marshal(b.value)
	if err != nil {
		return nil, "", fmt.Errorf("marshal request body: %w", err)
	}
	return bytes.NewReader(data), jsonContentType, nil
}

type formField struct {
	name  string
	value string
}

type formFile struct {
	field    string
	filename string
	content  io.Reader
}

// formBody is a multipart payload. The Content-Type is the writer's
// multipart/form-data value with its boundary, never JSON.
type formBody struct {
	files  []formFile
	fields []formField
}

func (b *formBody) addField(name, value string) *formBody {
	b.fields = append(b.fields, formField{name: name, value: value})
	return b
}

// addOptional appends the field only when value is non-empty.
func (b *formBody) addOptional(name, value string) *formBody {
	if value == "" {
		return b
	}
	return b.addField(name, value)
}

func (b *formBody) encode() (io.Reader, string, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	for _, f := range b.files {
		data, err := io.ReadAll(f.content)
		if err != nil {
			return nil, "", fmt.Errorf("read %s content: %w", f.field, err)
		}

		part, err := writer.CreatePart(fileHeader(f.field, f.filename, detectContentType(data)))
		if err != nil {
			return nil, "", fmt.Errorf("failed to create form file: %w", err)
		}
		if _, err := part.Write(data); err != nil {
			return nil, "", fmt.Errorf("failed to copy file data: %w", err)
		}
	}

	for _, f := range b.fields {
		if err := writer.WriteField(f.name, f.value); err != nil {
			return nil, "", fmt.Errorf("failed to write form field %s: %w", f.name, err)
		}
	}

	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to close multipart writer: %w", err)
	}
	return body, writer.FormDataContentType(), nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func fileHeader(field, filename, contentType string) textproto.MIMEHeader {
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
		quoteEscaper.Replace(field), quoteEscaper.Replace(filename)))
	h.Set("Content-Type", contentType)
	return h
}

func detectContentType(data []byte) string {
	if len(data) == 0 {
		return defaultFileContentType
	}
	return mimetype.Detect(data).String()
}

func (r *request) url(base string) string {
	u := base + r.path
	if len(r.query) > 0 {
		u += "?" + r.query.Encode()
	}
	return u
}

func (r *request) fallbackMessage() string {
	if r.fallback == "" {
		return fallbackDefault
	}
	return r.fallback
}

// queryOf builds query parameters, dropping empty values.
func queryOf(pairs ...string) url.Values {
	q := url.Values{}
	for i := 0; i+1 < len(pairs); i += 2 {
		if pairs[i+1] != "" {
			q.Set(pairs[i], pairs[i+1])
		}
	}
	return q
}
