package toolkit

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"

	"golang.org/x/net/html"
)

// maxFetchBytes bounds how much of a page fetch_web_content downloads.
const maxFetchBytes = 10 << 20

func fetchWebContent(ctx context.Context, client *http.Client, dir string, params map[string]any) Result {
	raw, _ := stringParam(params, "url")
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return Errorf("invalid url %q: only http and https are supported", raw)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return Errorf("building request: %v", err)
	}
	req.Header.Set("User-Agent", "goose")

	resp, err := client.Do(req)
	if err != nil {
		return Errorf("fetching %s: %v", raw, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFetchBytes))
	if err != nil {
		return Errorf("reading %s: %v", raw, err)
	}
	if resp.StatusCode >= 400 {
		return Errorf("fetching %s: HTTP %d", raw, resp.StatusCode)
	}

	htmlPath, err := writeTemp(dir, "goose-web-*.html", body)
	if err != nil {
		return Errorf("saving html: %v", err)
	}
	textPath, err := writeTemp(dir, "goose-web-*.txt", []byte(extractText(string(body))))
	if err != nil {
		return Errorf("saving text: %v", err)
	}

	return Success(fmt.Sprintf("html_file_path: %s\ntext_file_path: %s", htmlPath, textPath))
}

func writeTemp(dir, pattern string, data []byte) (string, error) {
	f, err := os.CreateTemp(dir, pattern)
	if err != nil {
		return "", err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return "", err
	}
	return f.Name(), f.Close()
}

// extractText returns the visible text of an HTML document, one block per
// line, without script and style contents.
func extractText(doc string) string {
	z := html.NewTokenizer(strings.NewReader(doc))
	var (
		lines []string
		skip  int
	)
	for {
		switch z.Next() {
		case html.ErrorToken:
			return strings.Join(lines, "\n")
		case html.StartTagToken:
			name, _ := z.TagName()
			switch string(name) {
			case "script", "style", "noscript", "head":
				skip++
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			switch string(name) {
			case "script", "style", "noscript", "head":
				if skip > 0 {
					skip--
				}
			}
		case html.TextToken:
			if skip > 0 {
				continue
			}
			text := strings.Join(strings.Fields(string(z.Text())), " ")
			if text != "" {
				lines = append(lines, text)
			}
		}
	}
}
