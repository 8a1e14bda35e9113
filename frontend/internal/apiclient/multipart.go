package apiclient

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"

	"github.com/itchan-dev/blogfront/shared/api"
)

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}

type formField struct {
	name, value string
}

// doMultipart streams a multipart/form-data body: scalar fields first, then
// the optional file under fileField.
func (c *APIClient) doMultipart(ctx context.Context, endpoint, method, path string, fields []formField, fileField string, file *api.File, opts ...requestOption) (*http.Response, error) {
	pipeReader, pipeWriter := io.Pipe()
	writer := multipart.NewWriter(pipeWriter)

	go func() {
		err := writeMultipart(writer, fields, fileField, file)
		if err == nil {
			err = writer.Close()
		}
		pipeWriter.CloseWithError(err)
	}()

	opts = append(opts, withContentType(writer.FormDataContentType()))
	resp, err := c.do(ctx, endpoint, method, path, pipeReader, opts...)
	// Unblocks the writer goroutine if the request ended before reading the body.
	pipeReader.Close()
	return resp, err
}

func writeMultipart(writer *multipart.Writer, fields []formField, fileField string, file *api.File) error {
	for _, f := range fields {
		if err := writer.WriteField(f.name, f.value); err != nil {
			return err
		}
	}
	if file == nil || file.Content == nil {
		return nil
	}

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
			escapeQuotes(fileField), escapeQuotes(file.Filename)))
	contentType := file.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	h.Set("Content-Type", contentType)

	part, err := writer.CreatePart(h)
	if err != nil {
		return err
	}
	_, err = io.Copy(part, file.Content)
	return err
}
