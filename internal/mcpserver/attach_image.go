package mcpserver

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
)

const (
	maxImageBytes = 10 << 20
	maxRedirects  = 5
	fetchTimeout  = 30 * time.Second
)

// imageExt maps the image media types a note can hold to a file extension.
var imageExt = map[string]string{
	"image/png":     ".png",
	"image/jpeg":    ".jpg",
	"image/gif":     ".gif",
	"image/webp":    ".webp",
	"image/svg+xml": ".svg",
}

var unsafeNameRe = regexp.MustCompile(`[^a-zA-Z0-9._-]`)

type attachResult struct {
	Path          string `json:"path"`
	MarkdownImage string `json:"markdownImage"`
}

// fetchedImage is an image payload with the extension its source declared.
type fetchedImage struct {
	data []byte
	ext  string
}

func (s *Server) attachImage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	src, err := req.RequireString("url")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var img *fetchedImage
	if strings.HasPrefix(src, "data:") {
		img, err = fromDataURI(src)
	} else {
		img, err = download(ctx, src)
	}
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	name := req.GetString("filename", "")
	if name == "" {
		name = nameFromSource(src, img.ext)
	}
	name = cleanImageName(name)
	if err := checkImageContent(img.data, name); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	meta, err := s.svc.AttachImageData(ctx, id, base64.StdEncoding.EncodeToString(img.data), name)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("attach image to %s: %v", id, err)), nil
	}

	ref := meta.Images[len(meta.Images)-1]
	out, _ := json.Marshal(attachResult{
		Path:          ref.Path,
		MarkdownImage: fmt.Sprintf("![%s](%s)", ref.Name, ref.Path),
	})
	return mcp.NewToolResultText(string(out)), nil
}

// fromDataURI decodes a base64 data:<media type>;base64,<payload> URI.
func fromDataURI(uri string) (*fetchedImage, error) {
	header, payload, ok := strings.Cut(strings.TrimPrefix(uri, "data:"), ",")
	if !ok {
		return nil, errors.New("data URI has no payload")
	}
	mediaType, ok := strings.CutSuffix(header, ";base64")
	if !ok {
		return nil, errors.New("data URI must be base64 encoded")
	}
	mediaType, _, _ = strings.Cut(mediaType, ";")
	ext, ok := imageExt[mediaType]
	if !ok {
		return nil, fmt.Errorf("data URI type %q is not an image notekeep stores", mediaType)
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		if data, err = base64.RawStdEncoding.DecodeString(payload); err != nil {
			return nil, fmt.Errorf("data URI payload: %w", err)
		}
	}
	if len(data) > maxImageBytes {
		return nil, fmt.Errorf("image is %d bytes, limit is %d", len(data), maxImageBytes)
	}
	return &fetchedImage{data: data, ext: ext}, nil
}

// download fetches an http(s) image, refusing local and metadata hosts on
// every hop.
func download(ctx context.Context, raw string) (*fetchedImage, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("image url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("image url scheme %q: only http and https are fetched", u.Scheme)
	}
	if err := blockedHost(u.Hostname()); err != nil {
		return nil, err
	}

	client := &http.Client{
		Timeout: fetchTimeout,
		CheckRedirect: func(next *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return fmt.Errorf("more than %d redirects", maxRedirects)
			}
			return blockedHost(next.URL.Hostname())
		},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, raw, nil)
	if err != nil {
		return nil, fmt.Errorf("image url: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download image: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download image: HTTP %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes+1))
	if err != nil {
		return nil, fmt.Errorf("download image: %w", err)
	}
	if len(data) > maxImageBytes {
		return nil, fmt.Errorf("image exceeds %d bytes", maxImageBytes)
	}
	mediaType, _, _ := strings.Cut(resp.Header.Get("Content-Type"), ";")
	return &fetchedImage{data: data, ext: imageExt[strings.TrimSpace(mediaType)]}, nil
}

// blockedHost refuses loopback, private, link-local and cloud metadata hosts.
// Names that do not resolve are left for the HTTP client to fail on.
func blockedHost(host string) error {
	if host == "metadata.google.internal" {
		return fmt.Errorf("host %s is blocked", host)
	}
	ip := net.ParseIP(host)
	if ip == nil {
		ips, err := net.LookupIP(host)
		if err != nil || len(ips) == 0 {
			return nil //nolint:nilerr
		}
		ip = ips[0]
	}
	if ip.IsLoopback() || ip.IsPrivate() || ip.IsLinkLocalUnicast() || ip.IsUnspecified() {
		return fmt.Errorf("host %s is a local address", host)
	}
	return nil
}

// nameFromSource picks a file name from the last path segment of a URL, or a
// random one with ext when the URL carries none.
func nameFromSource(src, ext string) string {
	if !strings.HasPrefix(src, "data:") {
		if u, err := url.Parse(src); err == nil {
			if base := path.Base(u.Path); strings.Contains(base, ".") && base != "." {
				return base
			}
		}
	}
	if ext == "" {
		ext = ".png"
	}
	return uuid.NewString() + ext
}

func cleanImageName(name string) string {
	name = unsafeNameRe.ReplaceAllString(filepath.Base(name), "_")
	if name == "" || name == "." || name == ".." {
		return uuid.NewString()
	}
	return name
}

// checkImageContent requires an allowed image extension on name and content
// whose sniffed type matches it.
func checkImageContent(data []byte, name string) error {
	ext := strings.ToLower(filepath.Ext(name))
	if ext == ".jpeg" {
		ext = ".jpg"
	}
	allowed := false
	for _, e := range imageExt {
		if e == ext {
			allowed = true
			break
		}
	}
	if !allowed {
		return fmt.Errorf("%q is not a png, jpg, gif, webp or svg file", name)
	}

	if ext == ".svg" {
		if !bytes.Contains(data[:min(len(data), 1024)], []byte("<svg")) {
			return fmt.Errorf("%s has no <svg element", name)
		}
		return nil
	}
	sniffed, _, _ := strings.Cut(http.DetectContentType(data), ";")
	if imageExt[sniffed] != ext {
		return fmt.Errorf("%s content is %s", name, sniffed)
	}
	return nil
}
