package http

import (
	"bytes"
	"context"
	"io"
	"net/http"

	"github.com/goccy/go-json"
)

type HTTP struct {
	http   *http.Client
	url    string
	header http.Header
}

func New(url string) *HTTP {
	return &HTTP{
		http: http.DefaultClient,
		url:  url,
	}
}

func (h *HTTP) SetHeader(header http.Header) {
	h.header = header
}

// Request performs one JSON round trip. req is marshalled as the body
// when non-nil; the response body is unmarshalled into res.
func (h *HTTP) Request(ctx context.Context, method string, path string, req interface{}, res interface{}) (int, error) {
	var data io.Reader = nil
	if req != nil {
		b, err := json.Marshal(req)
		if err != nil {
			return 0, err
		}
		data = bytes.NewReader(b)
	}

	fullurl := h.url + path

	request, err := http.NewRequestWithContext(ctx, method, fullurl, data)
	if err != nil {
		return 0, err
	}

	if h.header != nil {
		request.Header = h.header
	}

	response, err := h.http.Do(request)
	if err != nil {
		return 0, err
	}
	defer response.Body.Close()

	b, err := io.ReadAll(response.Body)
	if err != nil {
		return response.StatusCode, err
	}

	err = json.Unmarshal(b, res)
	if err != nil {
		return response.StatusCode, err
	}

	return response.StatusCode, nil
}
