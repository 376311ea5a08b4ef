package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"avatar-video-platform/internal/domain/ports/adapter"
	derror "avatar-video-platform/internal/error"
)

var _ adapter.FileHost = (*AnonHost)(nil)

// AnonHost uploads processed media to an anonymous public file host over one
// streaming multipart request. Single attempt, generous timeout for large
// files; no delete capability is assumed on the host.
type AnonHost struct {
	uploadURL string
	client    *http.Client
}

func NewAnonHost(uploadURL string, timeout time.Duration) *AnonHost {
	return &AnonHost{
		uploadURL: uploadURL,
		client:    &http.Client{Timeout: timeout},
	}
}

func (h *AnonHost) Upload(ctx context.Context, localPath string) (string, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return "", &derror.PublishError{Err: err}
	}
	defer f.Close()

	// Pipe the multipart body so the file is never buffered whole in memory.
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		part, err := mw.CreateFormFile("file", filepath.Base(localPath))
		if err != nil {
			pw.CloseWithError(err)
			return
		}
		if _, err := io.Copy(part, f); err != nil {
			pw.CloseWithError(err)
			return
		}
		pw.CloseWithError(mw.Close())
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.uploadURL, pr)
	if err != nil {
		return "", &derror.PublishError{Err: err}
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := h.client.Do(req)
	if err != nil {
		return "", &derror.PublishError{Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return "", &derror.PublishError{Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &derror.PublishError{StatusCode: resp.StatusCode}
	}

	url, err := parseUploadResponse(raw)
	if err != nil {
		return "", &derror.PublishError{Err: err}
	}
	return url, nil
}

// parseUploadResponse accepts the two shapes anonymous hosts answer with:
// a JSON object carrying a url field, or the bare URL as plain text.
func parseUploadResponse(raw []byte) (string, error) {
	var out struct {
		URL string `json:"url"`
	}
	if err := json.Unmarshal(raw, &out); err == nil && out.URL != "" {
		return out.URL, nil
	}
	s := strings.TrimSpace(string(raw))
	if strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://") {
		return s, nil
	}
	return "", fmt.Errorf("unrecognized upload response: %q", s)
}
