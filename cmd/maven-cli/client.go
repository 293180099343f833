package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/foundry/mavenrepo/internal/core/models"
)

type client struct {
	server   string
	user     string
	password string
	http     *http.Client
}

func newClient(server, user, password string) *client {
	return &client{
		server:   strings.TrimRight(server, "/"),
		user:     user,
		password: password,
		http:     http.DefaultClient,
	}
}

func (c *client) newRequest(ctx context.Context, method, path string, q url.Values, body io.Reader) (*http.Request, error) {
	u := c.server + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if c.user != "" {
		req.SetBasicAuth(c.user, c.password)
	}
	return req, nil
}

// getData fetches a read API endpoint and decodes its data field into out.
func (c *client) getData(ctx context.Context, path string, q url.Values, out any) error {
	req, err := c.newRequest(ctx, http.MethodGet, path, q, nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return formatHTTPError(resp)
	}
	return decodeData(resp.Body, out)
}

// put uploads a file to a literal repository path.
func (c *client) put(ctx context.Context, path, filePath string, progress io.Writer) (int64, error) {
	if c.user == "" {
		return 0, fmt.Errorf("--user is required")
	}
	file, err := os.Open(filePath)
	if err != nil {
		return 0, fmt.Errorf("opening file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return 0, fmt.Errorf("reading file info: %w", err)
	}

	pr := &progressReader{reader: file, total: info.Size(), label: "Uploading", out: progress}
	req, err := c.newRequest(ctx, http.MethodPut, path, nil, pr)
	if err != nil {
		return 0, err
	}
	req.ContentLength = info.Size()

	resp, err := c.http.Do(req)
	fmt.Fprintln(progress) // newline after progress
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return 0, formatHTTPError(resp)
	}
	return info.Size(), nil
}

// download writes a repository file to output via a temporary file.
func (c *client) download(ctx context.Context, path, output string, progress io.Writer) (n int64, err error) {
	req, err := c.newRequest(ctx, http.MethodGet, path, nil, nil)
	if err != nil {
		return 0, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, formatHTTPError(resp)
	}

	if err := os.MkdirAll(filepath.Dir(output), 0o755); err != nil {
		return 0, fmt.Errorf("creating output directory: %w", err)
	}
	tmpOutput := output + ".part"
	file, err := os.Create(tmpOutput)
	if err != nil {
		return 0, fmt.Errorf("creating output file: %w", err)
	}
	defer func() {
		file.Close()
		if err != nil {
			_ = os.Remove(tmpOutput)
		}
	}()

	pw := &progressWriter{writer: file, total: resp.ContentLength, label: "Downloading", out: progress}
	n, err = io.Copy(pw, resp.Body)
	fmt.Fprintln(progress) // newline after progress
	if err != nil {
		return 0, fmt.Errorf("downloading: %w", err)
	}
	if err = file.Close(); err != nil {
		return 0, fmt.Errorf("closing downloaded file: %w", err)
	}
	if err = os.Rename(tmpOutput, output); err != nil {
		return 0, fmt.Errorf("finalizing output file: %w", err)
	}
	return n, nil
}

// publish posts a file to a direct publish endpoint.
func (c *client) publish(ctx context.Context, path string, q url.Values, filePath string, out *models.PublishResult) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("reading file: %w", err)
	}
	req, err := c.newRequest(ctx, http.MethodPost, path, q, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return formatHTTPError(resp)
	}
	return decodeData(resp.Body, out)
}

// purge deletes a prefix. A partially failed purge returns both the result
// and an error.
func (c *client) purge(ctx context.Context, prefix string) (*models.PurgeResult, error) {
	req, err := c.newRequest(ctx, http.MethodDelete, "/api/purge", url.Values{"prefix": {prefix}}, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	var res models.PurgeResult
	if err := json.Unmarshal(body, &res); err != nil || (resp.StatusCode != http.StatusOK && res.Deleted == nil) {
		return nil, httpError(resp.StatusCode, body)
	}
	if !res.Success {
		return &res, fmt.Errorf("purge of %s incomplete: %d errors", prefix, len(res.Errors))
	}
	return &res, nil
}

func decodeData(r io.Reader, out any) error {
	var env struct {
		Data  json.RawMessage `json:"data"`
		Error *string         `json:"error"`
	}
	if err := json.NewDecoder(r).Decode(&env); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	if env.Error != nil {
		return fmt.Errorf("server error: %s", *env.Error)
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("decoding response data: %w", err)
	}
	return nil
}

func formatHTTPError(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)
	return httpError(resp.StatusCode, body)
}

func httpError(status int, body []byte) error {
	if len(body) == 0 {
		return fmt.Errorf("error (%d): %s", status, http.StatusText(status))
	}
	var env struct {
		Error *string `json:"error"`
	}
	if err := json.Unmarshal(body, &env); err == nil && env.Error != nil && *env.Error != "" {
		return fmt.Errorf("error (%d): %s", status, *env.Error)
	}
	return fmt.Errorf("error (%d): %s", status, strings.TrimSpace(string(body)))
}

// progressReader wraps a reader and prints progress.
type progressReader struct {
	reader  io.Reader
	total   int64
	current int64
	label   string
	out     io.Writer
}

func (pr *progressReader) Read(p []byte) (int, error) {
	n, err := pr.reader.Read(p)
	pr.current += int64(n)
	printProgress(pr.out, pr.label, pr.current, pr.total)
	return n, err
}

// progressWriter wraps a writer and prints progress.
type progressWriter struct {
	writer  io.Writer
	total   int64
	current int64
	label   string
	out     io.Writer
}

func (pw *progressWriter) Write(p []byte) (int, error) {
	n, err := pw.writer.Write(p)
	pw.current += int64(n)
	printProgress(pw.out, pw.label, pw.current, pw.total)
	return n, err
}

func printProgress(out io.Writer, label string, current, total int64) {
	if total <= 0 {
		fmt.Fprintf(out, "\r%s: %s", label, formatBytes(current))
		return
	}
	pct := float64(current) / float64(total) * 100
	barLen := 30
	filled := int(pct / 100 * float64(barLen))
	bar := strings.Repeat("=", filled) + strings.Repeat(" ", barLen-filled)
	fmt.Fprintf(out, "\r%s: [%s] %.1f%% %s/%s", label, bar, pct, formatBytes(current), formatBytes(total))
}

func formatBytes(b int64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(b)/float64(div), "KMGTPE"[exp])
}
