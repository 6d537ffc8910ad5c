package upstream

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/nao1215/wdglance/internal/model"
)

// maxEventSize bounds a single server-sent event line.
const maxEventSize = 4 << 20

// Event is one server-sent event.
type Event struct {
	Name string
	Data []byte
}

// Stream performs a GET request answered with text/event-stream and calls fn
// for each event in arrival order. Reading stops when fn reports done, fn
// fails, the stream ends or ctx is canceled. Streams are never cached.
func (c *Client) Stream(ctx context.Context, req Request, fn func(Event) (bool, error)) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, req.FullURL(), nil)
	if err != nil {
		return &model.RequestError{URL: req.URL, Message: err.Error()}
	}
	httpReq.Header.Set("Accept", "text/event-stream")
	if c.userAgent != "" {
		httpReq.Header.Set("User-Agent", c.userAgent)
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return &model.RequestError{URL: req.URL, Message: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorMessageLen*4)) //nolint:errcheck // best effort message
		return &model.RequestError{Status: resp.StatusCode, URL: req.URL, Message: errorMessage(body)}
	}

	err = readEvents(resp.Body, fn)
	if err != nil && ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

// readEvents parses the event stream format. Only the "event" and "data"
// fields are recognized; multiple data lines are joined by a newline.
func readEvents(r io.Reader, fn func(Event) (bool, error)) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxEventSize)

	var (
		name string
		data bytes.Buffer
		has  bool
	)
	dispatch := func() (bool, error) {
		if !has {
			return false, nil
		}
		ev := Event{Name: name, Data: bytes.Clone(data.Bytes())}
		name, has = "", false
		data.Reset()
		return fn(ev)
	}

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			done, err := dispatch()
			if err != nil || done {
				return err
			}
			continue
		}
		if line[0] == ':' {
			continue
		}
		field, value, _ := bytes.Cut(line, []byte(":"))
		value = bytes.TrimPrefix(value, []byte(" "))
		switch string(field) {
		case "event":
			name = string(value)
		case "data":
			if has {
				data.WriteByte('\n')
			}
			data.Write(value)
			has = true
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read event stream: %w", err)
	}
	_, err := dispatch()
	return err
}
