package openai

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/petal-labs/scribe/core"
)

const chatCompletionsPath = "/chat/completions"

// dataPrefix marks significant frames in the response stream. The trailing
// space is part of the prefix; anything else on the wire is noise.
const dataPrefix = "data: "

// doneMarker is the payload some services send before closing the
// connection. It is noise too: end of input is the only stream terminator.
const doneMarker = "[DONE]"

// StreamChat sends a chat-completion request and returns the event stream.
//
// Stream is forced to true regardless of what the caller set. The returned
// stream is live as soon as the response status is known: StreamChat does
// not wait for the first frame.
//
// Non-200 responses are drained fully and returned as a [core.ServiceError]
// carrying the status and body; they are never decoded as streams. Exactly
// one connection is made per call; there are no retries.
func (c *Client) StreamChat(ctx context.Context, req *core.ChatRequest) (*core.EventStream, error) {
	if req.Model == "" {
		return nil, core.ErrModelRequired
	}
	if len(req.Messages) == 0 {
		return nil, core.ErrNoMessages
	}

	// Work on a copy so forcing the stream flag never mutates caller state.
	wire := *req
	wire.Stream = true

	body, err := json.Marshal(&wire)
	if err != nil {
		return nil, newEncodeError(err)
	}

	url := c.config.BaseURL + chatCompletionsPath
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, newNetworkError(err)
	}
	for key, values := range c.buildHeaders() {
		for _, v := range values {
			httpReq.Header.Add(key, v)
		}
	}

	log := c.config.logger()
	start := time.Now()
	c.config.Telemetry.OnRequestStart(core.RequestStartEvent{
		Service: serviceID,
		Model:   req.Model,
		Start:   start,
	})
	log.Debug("starting streaming chat request", "model", req.Model, "url", url)

	resp, err := c.config.HTTPClient.Do(httpReq)
	if err != nil {
		err = newNetworkError(err)
		c.endRequest(req.Model, start, core.Usage{}, err)
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		respBody, _ := io.ReadAll(resp.Body)
		err := newServiceError(resp.StatusCode, respBody)
		c.endRequest(req.Model, start, core.Usage{}, err)
		return nil, err
	}

	sender, stream := core.NewEventPipe()
	go c.decodeEvents(resp.Body, sender, req.Model, start)

	return stream, nil
}

// decodeEvents reads the response body line by line and pushes one
// EventResult per significant frame, in wire order. The pipe is unbounded,
// so a slow consumer never stalls the reads.
//
// A frame that fails to decode becomes an error item and decoding keeps
// going; one bad frame never ends a healthy stream. A read failure becomes
// the final item. Either way the sender closes when the body is exhausted,
// and closure is the consumer's only end-of-stream signal.
func (c *Client) decodeEvents(body io.ReadCloser, sender *core.EventSender, model core.ModelID, start time.Time) {
	defer sender.Close()
	defer body.Close()

	var (
		usage    core.Usage
		finalErr error
		events   int
	)

	reader := bufio.NewReader(body)
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			// A partial line without a terminator is dropped, even at EOF.
			if err != io.EOF {
				finalErr = newNetworkError(err)
				sender.Send(core.EventResult{Err: finalErr})
			}
			break
		}

		line = strings.TrimSpace(line)

		// Blank lines and ":" comments are keep-alive noise.
		if !strings.HasPrefix(line, dataPrefix) {
			continue
		}
		payload := line[len(dataPrefix):]

		// Terminal markers carry nothing worth decoding, and they do not
		// end the stream either: keep reading until the input runs out.
		if payload == doneMarker {
			continue
		}

		var event core.ChatStreamEvent
		if err := json.Unmarshal([]byte(payload), &event); err != nil {
			sender.Send(core.EventResult{Err: newDecodeError(err)})
			continue
		}

		if event.Usage != nil {
			usage = *event.Usage
		}
		events++
		sender.Send(core.EventResult{Event: &event})
	}

	c.config.logger().Debug("stream finished",
		"model", model,
		"events", events,
		"duration", time.Since(start),
	)
	c.endRequest(model, start, usage, finalErr)
}

// endRequest fires the end-of-request telemetry event.
func (c *Client) endRequest(model core.ModelID, start time.Time, usage core.Usage, err error) {
	c.config.Telemetry.OnRequestEnd(core.RequestEndEvent{
		Service: serviceID,
		Model:   model,
		Start:   start,
		End:     time.Now(),
		Usage:   usage,
		Err:     err,
	})
}
