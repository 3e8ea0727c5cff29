package market

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"net/textproto"
	"strings"

	"github.com/pkg/errors"

	"github.com/jrsteele09/go-market-client/apiclient"
)

// formBuilder assembles a multipart body that can be replayed after a refresh
type formBuilder struct {
	buf bytes.Buffer
	mw  *multipart.Writer
	err error
}

func newFormBuilder() *formBuilder {
	fb := &formBuilder{}
	fb.mw = multipart.NewWriter(&fb.buf)
	return fb
}

func (fb *formBuilder) field(name, value string) *formBuilder {
	if fb.err == nil {
		fb.err = fb.mw.WriteField(name, value)
	}
	return fb
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func (fb *formBuilder) file(field string, img ImageFile, fallbackName string) *formBuilder {
	if fb.err != nil {
		return fb
	}
	name := img.Name
	if name == "" {
		name = fallbackName
	}

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
		quoteEscaper.Replace(field), quoteEscaper.Replace(name)))
	h.Set("Content-Type", img.contentType())

	w, err := fb.mw.CreatePart(h)
	if err != nil {
		fb.err = err
		return fb
	}
	_, fb.err = w.Write(img.Data)
	return fb
}

func (fb *formBuilder) request(method, path string) (*apiclient.Request, error) {
	if fb.err != nil {
		return nil, errors.Wrap(fb.err, "[formBuilder] write part")
	}
	if err := fb.mw.Close(); err != nil {
		return nil, errors.Wrap(err, "[formBuilder] close")
	}
	req := apiclient.NewRequest(method, path)
	req.Header.Set("Content-Type", fb.mw.FormDataContentType())
	req.Body = fb.buf.Bytes()
	return req, nil
}
