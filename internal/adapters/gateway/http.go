// Package gateway provides the HTTP adapter for the knowledge-base backend.
// Clean Architecture: Adapter implementing ports.Gateway.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/0xcro3dile/netbot-go/internal/domain/entities"
	"github.com/0xcro3dile/netbot-go/internal/domain/ports"
)

// DefaultBaseURL is where the backend listens unless configured otherwise.
const DefaultBaseURL = "http://localhost:8000"

// RequestIDHeader carries a per-call correlation ID.
const RequestIDHeader = "X-Request-ID"

// HTTPGateway implements ports.Gateway over the backend's JSON API.
type HTTPGateway struct {
	baseURL string
	client  *http.Client
}

// NewHTTPGateway creates a gateway for the given base URL.
// No client timeout is set; callers bound calls through the context.
func NewHTTPGateway(baseURL string) *HTTPGateway {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &HTTPGateway{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{},
	}
}

// documentInfo is the backend's document schema.
type documentInfo struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	SourceType string `json:"source_type"`
	SourcePath string `json:"source_path"`
	CreatedAt  string `json:"created_at"`
}

func (d documentInfo) toEntity() entities.Document {
	return entities.Document{
		ID:         d.ID,
		Title:      d.Title,
		SourceType: entities.SourceType(d.SourceType),
		SourcePath: d.SourcePath,
		CreatedAt:  d.CreatedAt,
	}
}

type urlSubmission struct {
	URL   string  `json:"url"`
	Title *string `json:"title"`
}

type historyEntry struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Message string         `json:"message"`
	History []historyEntry `json:"history"`
}

type sourceInfo struct {
	Text       string `json:"text"`
	Title      string `json:"title"`
	SourceType string `json:"source_type"`
	SourcePath string `json:"source_path"`
}

type chatResponse struct {
	Response string       `json:"response"`
	Sources  []sourceInfo `json:"sources"`
}

// errorBody is the backend's failure payload.
type errorBody struct {
	Detail json.RawMessage `json:"detail"`
}

// FetchDocuments lists every document in the knowledge base.
func (g *HTTPGateway) FetchDocuments(ctx context.Context) ([]entities.Document, error) {
	const op = "fetch documents"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/documents", nil)
	if err != nil {
		return nil, &ports.GatewayError{Operation: op, Err: fmt.Errorf("creating request: %w", err)}
	}

	var infos []documentInfo
	if err := g.do(req, op, &infos); err != nil {
		return nil, err
	}

	docs := make([]entities.Document, len(infos))
	for i, info := range infos {
		docs[i] = info.toEntity()
	}
	return docs, nil
}

// UploadFile sends the file as multipart form data.
func (g *HTTPGateway) UploadFile(ctx context.Context, file entities.File, title string) (*entities.Document, error) {
	const op = "upload file"

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", file.Name)
	if err != nil {
		return nil, &ports.GatewayError{Operation: op, Err: fmt.Errorf("creating form file: %w", err)}
	}
	if _, err := part.Write(file.Data); err != nil {
		return nil, &ports.GatewayError{Operation: op, Err: fmt.Errorf("writing form file: %w", err)}
	}
	if t := strings.TrimSpace(title); t != "" {
		if err := mw.WriteField("title", t); err != nil {
			return nil, &ports.GatewayError{Operation: op, Err: fmt.Errorf("writing title: %w", err)}
		}
	}
	if err := mw.Close(); err != nil {
		return nil, &ports.GatewayError{Operation: op, Err: fmt.Errorf("closing form: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/documents/upload/file", &body)
	if err != nil {
		return nil, &ports.GatewayError{Operation: op, Err: fmt.Errorf("creating request: %w", err)}
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var info documentInfo
	if err := g.do(req, op, &info); err != nil {
		return nil, err
	}
	doc := info.toEntity()
	return &doc, nil
}

// AddURL asks the backend to ingest a web page.
func (g *HTTPGateway) AddURL(ctx context.Context, rawURL, title string) (*entities.Document, error) {
	const op = "add url"

	payload := urlSubmission{URL: strings.TrimSpace(rawURL)}
	if t := strings.TrimSpace(title); t != "" {
		payload.Title = &t
	}

	req, err := g.jsonRequest(ctx, http.MethodPost, "/documents/upload/url", payload)
	if err != nil {
		return nil, &ports.GatewayError{Operation: op, Err: err}
	}

	var info documentInfo
	if err := g.do(req, op, &info); err != nil {
		return nil, err
	}
	doc := info.toEntity()
	return &doc, nil
}

// DeleteDocument removes a document by ID.
func (g *HTTPGateway) DeleteDocument(ctx context.Context, id string) error {
	const op = "delete document"

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, g.baseURL+"/documents/"+url.PathEscape(id), nil)
	if err != nil {
		return &ports.GatewayError{Operation: op, Err: fmt.Errorf("creating request: %w", err)}
	}
	return g.do(req, op, nil)
}

// SendChat posts a message with the prior conversation.
func (g *HTTPGateway) SendChat(ctx context.Context, message string, history []entities.HistoryEntry) (*entities.ChatReply, error) {
	const op = "send chat"

	payload := chatRequest{Message: message, History: make([]historyEntry, len(history))}
	for i, h := range history {
		payload.History[i] = historyEntry{Role: string(h.Role), Content: h.Content}
	}

	req, err := g.jsonRequest(ctx, http.MethodPost, "/chat", payload)
	if err != nil {
		return nil, &ports.GatewayError{Operation: op, Err: err}
	}

	var resp chatResponse
	if err := g.do(req, op, &resp); err != nil {
		return nil, err
	}

	reply := &entities.ChatReply{Response: resp.Response}
	for _, s := range resp.Sources {
		reply.Sources = append(reply.Sources, entities.Source{
			Text:       s.Text,
			Title:      s.Title,
			SourceType: entities.SourceType(s.SourceType),
			SourcePath: s.SourcePath,
		})
	}
	return reply, nil
}

func (g *HTTPGateway) jsonRequest(ctx context.Context, method, path string, payload interface{}) (*http.Request, error) {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

// do executes req and decodes a 2xx body into out (when non-nil).
// Every failure comes back as *ports.GatewayError.
func (g *HTTPGateway) do(req *http.Request, op string, out interface{}) error {
	requestID := uuid.NewString()
	req.Header.Set(RequestIDHeader, requestID)
	req.Header.Set("Accept", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		log.Debug().Str("request_id", requestID).Str("op", op).Err(err).Msg("backend unreachable")
		return &ports.GatewayError{Operation: op, Err: fmt.Errorf("calling backend: %w", err)}
	}
	defer resp.Body.Close()

	log.Debug().
		Str("request_id", requestID).
		Str("op", op).
		Str("method", req.Method).
		Str("path", req.URL.Path).
		Int("status", resp.StatusCode).
		Msg("backend call")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &ports.GatewayError{
			Operation:  op,
			StatusCode: resp.StatusCode,
			Detail:     readDetail(resp.Body),
		}
	}

	if out == nil {
		if _, err := io.Copy(io.Discard, resp.Body); err != nil {
			log.Debug().Str("request_id", requestID).Str("op", op).Err(err).Msg("draining response body")
		}
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &ports.GatewayError{Operation: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("decoding response: %w", err)}
	}
	return nil
}

// readDetail extracts the "detail" field of an error body.
// Validation errors carry a list instead of a string; those are flattened.
func readDetail(body io.Reader) string {
	var eb errorBody
	if err := json.NewDecoder(io.LimitReader(body, 64<<10)).Decode(&eb); err != nil || len(eb.Detail) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(eb.Detail, &s); err == nil {
		return s
	}

	var items []struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(eb.Detail, &items); err == nil {
		msgs := make([]string, 0, len(items))
		for _, it := range items {
			if it.Msg != "" {
				msgs = append(msgs, it.Msg)
			}
		}
		return strings.Join(msgs, "; ")
	}
	return string(eb.Detail)
}
