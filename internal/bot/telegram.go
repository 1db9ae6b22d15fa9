package bot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Client is a minimal Telegram Bot API client covering the three methods the
// digest bot needs: getUpdates long polling, sendMessage, and sendVoice.
type Client struct {
	apiURL      string
	token       string
	pollTimeout time.Duration
	httpClient  *http.Client
}

type Config struct {
	APIURL      string
	Token       string
	PollTimeout time.Duration
}

func NewClient(cfg Config) *Client {
	return &Client{
		apiURL:      strings.TrimSuffix(cfg.APIURL, "/"),
		token:       cfg.Token,
		pollTimeout: cfg.PollTimeout,
		// The HTTP timeout must outlast the server-side long poll.
		httpClient: &http.Client{
			Timeout: cfg.PollTimeout + 10*time.Second,
		},
	}
}

type Update struct {
	UpdateID int64    `json:"update_id"`
	Message  *Message `json:"message"`
}

type Message struct {
	Text string `json:"text"`
	Chat Chat   `json:"chat"`
}

type Chat struct {
	ID int64 `json:"id"`
}

type apiResponse struct {
	OK          bool            `json:"ok"`
	Description string          `json:"description"`
	Result      json.RawMessage `json:"result"`
}

// GetUpdates long-polls for updates with IDs >= offset.
func (c *Client) GetUpdates(ctx context.Context, offset int64) ([]Update, error) {
	form := url.Values{}
	form.Set("offset", strconv.FormatInt(offset, 10))
	form.Set("timeout", strconv.Itoa(int(c.pollTimeout.Seconds())))

	result, err := c.call(ctx, "getUpdates", "application/x-www-form-urlencoded", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}

	var updates []Update
	if err := json.Unmarshal(result, &updates); err != nil {
		return nil, fmt.Errorf("decode updates: %w", err)
	}

	return updates, nil
}

func (c *Client) SendMessage(ctx context.Context, chatID int64, text string) error {
	form := url.Values{}
	form.Set("chat_id", strconv.FormatInt(chatID, 10))
	form.Set("text", text)

	_, err := c.call(ctx, "sendMessage", "application/x-www-form-urlencoded", strings.NewReader(form.Encode()))
	return err
}

// SendVoice uploads the audio as a multipart voice message.
func (c *Client) SendVoice(ctx context.Context, chatID int64, voice []byte, caption string) error {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	if err := writer.WriteField("chat_id", strconv.FormatInt(chatID, 10)); err != nil {
		return fmt.Errorf("write chat_id field: %w", err)
	}
	if caption != "" {
		if err := writer.WriteField("caption", caption); err != nil {
			return fmt.Errorf("write caption field: %w", err)
		}
	}

	part, err := writer.CreateFormFile("voice", "voice.mp3")
	if err != nil {
		return fmt.Errorf("create voice part: %w", err)
	}
	if _, err := part.Write(voice); err != nil {
		return fmt.Errorf("write voice part: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("close multipart writer: %w", err)
	}

	_, err = c.call(ctx, "sendVoice", writer.FormDataContentType(), &buf)
	return err
}

func (c *Client) call(ctx context.Context, method, contentType string, body io.Reader) (json.RawMessage, error) {
	endpoint := fmt.Sprintf("%s/bot%s/%s", c.apiURL, c.token, method)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", method, err)
	}
	defer resp.Body.Close()

	var parsed apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode %s response: %w", method, err)
	}
	if !parsed.OK {
		return nil, fmt.Errorf("telegram error on %s: %s", method, parsed.Description)
	}

	return parsed.Result, nil
}
