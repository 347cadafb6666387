package assets

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Uploader stores image bytes and returns the URL an image node points at.
type Uploader interface {
	Upload(ctx context.Context, name string, data []byte) (string, error)
}

// LocalUploader keeps assets as files in Dir. With BaseURL empty it returns
// file:// URLs, otherwise BaseURL + "/" + file name.
type LocalUploader struct {
	Dir     string
	BaseURL string
}

var _ Uploader = (*LocalUploader)(nil)

func NewLocalUploader(dir, baseURL string) *LocalUploader {
	return &LocalUploader{Dir: dir, BaseURL: strings.TrimRight(baseURL, "/")}
}

// Upload writes data under a fresh uuid name. The original name only
// contributes its extension.
func (u *LocalUploader) Upload(ctx context.Context, name string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := os.MkdirAll(u.Dir, 0o755); err != nil {
		return "", fmt.Errorf("assets: create dir: %w", err)
	}
	file := uuid.NewString() + extFor(name)
	path := filepath.Join(u.Dir, file)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("assets: write %s: %w", file, err)
	}
	if u.BaseURL != "" {
		return u.BaseURL + "/" + url.PathEscape(file), nil
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("assets: resolve %s: %w", file, err)
	}
	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}).String(), nil
}

// Open returns the stored file called name. Names containing a path
// separator are rejected.
func (u *LocalUploader) Open(name string) (*os.File, error) {
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return nil, os.ErrNotExist
	}
	return os.Open(filepath.Join(u.Dir, name))
}

func extFor(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".png":
		return ".png"
	case ".gif":
		return ".gif"
	case ".webp":
		return ".webp"
	}
	return ".jpg"
}

// LocalPath turns a file:// URL into a filesystem path.
func LocalPath(rawURL string) (string, bool) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme != "file" || u.Path == "" {
		return "", false
	}
	return filepath.FromSlash(u.Path), true
}

// RemoteUploader posts assets to a tornado server as multipart form data.
type RemoteUploader struct {
	base   string
	client *http.Client
}

var _ Uploader = (*RemoteUploader)(nil)

func NewRemoteUploader(baseURL string, client *http.Client) *RemoteUploader {
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	return &RemoteUploader{base: strings.TrimRight(baseURL, "/"), client: client}
}

// UploadResponse is the body returned by POST /assets.
type UploadResponse struct {
	URL string `json:"url"`
}

func (u *RemoteUploader) Upload(ctx context.Context, name string, data []byte) (string, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filepath.Base(name))
	if err != nil {
		return "", fmt.Errorf("assets: build form: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return "", fmt.Errorf("assets: build form: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("assets: build form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.base+"/assets", &body)
	if err != nil {
		return "", fmt.Errorf("assets: upload: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	resp, err := u.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("assets: upload: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("assets: upload: %d %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	var out UploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("assets: decode upload response: %w", err)
	}
	if out.URL == "" {
		return "", fmt.Errorf("assets: upload response has no url")
	}
	return out.URL, nil
}

// Imported is an uploaded image with its on-board size.
type Imported struct {
	URL    string
	Width  float64
	Height float64
}

// Import reads an image file, prepares it and hands it to up.
func Import(ctx context.Context, up Uploader, path string, opts Options, maxWidth float64) (Imported, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Imported{}, fmt.Errorf("assets: read %s: %w", path, err)
	}
	p, err := Prepare(data, opts)
	if err != nil {
		return Imported{}, err
	}
	link, err := up.Upload(ctx, strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))+".jpg", p.Data)
	if err != nil {
		return Imported{}, err
	}
	size := NodeSize(p.Width, p.Height, maxWidth)
	return Imported{URL: link, Width: size.W, Height: size.H}, nil
}
