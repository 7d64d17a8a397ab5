package retrieval

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/SkyAerope/Brainpile/pkg/core"
)

// HTTPDownloader fetches image bytes behind a query's image_url for recall
// channel C4 (spec.md §4.6), the default ImageDownloader implementation.
type HTTPDownloader struct {
	http *http.Client
}

// NewHTTPDownloader builds an HTTPDownloader with a bounded timeout.
func NewHTTPDownloader() *HTTPDownloader {
	return &HTTPDownloader{http: &http.Client{Timeout: 30 * time.Second}}
}

// Download fetches url's body.
func (d *HTTPDownloader) Download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &core.TransportError{Op: "download(" + url + ")", Err: err}
	}

	resp, err := d.http.Do(req)
	if err != nil {
		return nil, &core.TransportError{Op: "download(" + url + ")", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &core.TransportError{Op: "download(" + url + ")", Err: fmt.Errorf("unexpected status %d", resp.StatusCode)}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &core.TransportError{Op: "download(" + url + ")", Err: err}
	}
	return data, nil
}
