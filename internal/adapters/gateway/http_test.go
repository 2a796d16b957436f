package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/require"

	"github.com/0xcro3dile/netbot-go/internal/domain/entities"
	"github.com/0xcro3dile/netbot-go/internal/domain/ports"
)

func TestHTTPGateway_FetchDocuments(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/documents" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get(RequestIDHeader) == "" {
			t.Error("missing request id header")
		}
		w.Write([]byte(`[
			{"id":"1","title":"a.pdf","source_type":"file","source_path":"a.pdf","created_at":"2024-01-01T00:00:00"},
			{"id":"2","title":"Docs","source_type":"url","source_path":"https://example.com","created_at":""}
		]`))
	}))
	defer server.Close()

	docs, err := NewHTTPGateway(server.URL).FetchDocuments(context.Background())
	require.NoError(t, err)

	want := []entities.Document{
		{ID: "1", Title: "a.pdf", SourceType: entities.SourceFile, SourcePath: "a.pdf", CreatedAt: "2024-01-01T00:00:00"},
		{ID: "2", Title: "Docs", SourceType: entities.SourceURL, SourcePath: "https://example.com"},
	}
	if diff := cmp.Diff(want, docs); diff != "" {
		t.Errorf("documents mismatch (-want +got):\n%s", diff)
	}
}

func TestHTTPGateway_UploadFileWithTitle(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/documents/upload/file", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))

		f, hdr, err := r.FormFile("file")
		require.NoError(t, err)
		data, _ := io.ReadAll(f)
		require.Equal(t, "notes.txt", hdr.Filename)
		require.Equal(t, "hello", string(data))
		require.Equal(t, "My Notes", r.FormValue("title"))

		json.NewEncoder(w).Encode(map[string]string{
			"id": "9", "title": "My Notes", "source_type": "file", "source_path": "notes.txt", "created_at": "now",
		})
	}))
	defer server.Close()

	doc, err := NewHTTPGateway(server.URL).UploadFile(context.Background(),
		entities.File{Name: "notes.txt", Data: []byte("hello")}, "  My Notes ")
	require.NoError(t, err)
	require.Equal(t, "9", doc.ID)
	require.Equal(t, "My Notes", doc.Title)
}

func TestHTTPGateway_UploadFileOmitsBlankTitle(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		if _, ok := r.MultipartForm.Value["title"]; ok {
			t.Error("blank title should not be sent")
		}
		w.Write([]byte(`{"id":"1","title":"a.txt","source_type":"file","source_path":"a.txt","created_at":""}`))
	}))
	defer server.Close()

	_, err := NewHTTPGateway(server.URL).UploadFile(context.Background(),
		entities.File{Name: "a.txt", Data: []byte("x")}, "   ")
	require.NoError(t, err)
}

func TestHTTPGateway_AddURLSendsNullTitle(t *testing.T) {
	var got map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/documents/upload/url", r.URL.Path)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"id":"u1","title":"Example","source_type":"url","source_path":"https://example.com","created_at":""}`))
	}))
	defer server.Close()

	doc, err := NewHTTPGateway(server.URL).AddURL(context.Background(), " https://example.com ", "")
	require.NoError(t, err)
	require.Equal(t, entities.SourceURL, doc.SourceType)

	title, present := got["title"]
	require.True(t, present, "title key should be present")
	require.Nil(t, title)
	require.Equal(t, "https://example.com", got["url"])
}

func TestHTTPGateway_DeleteDocumentEscapesID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodDelete, r.Method)
		require.Equal(t, "/documents/a%2Fb", r.URL.EscapedPath())
		w.Write([]byte(`{"status":"success","message":"Document deleted successfully"}`))
	}))
	defer server.Close()

	require.NoError(t, NewHTTPGateway(server.URL).DeleteDocument(context.Background(), "a/b"))
}

func TestHTTPGateway_DeleteDocumentLogsTruncatedBody(t *testing.T) {
	var logs strings.Builder
	prev := log.Logger
	log.Logger = zerolog.New(&logs).Level(zerolog.DebugLevel)
	t.Cleanup(func() { log.Logger = prev })

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "100")
		w.Write([]byte(`{"status":`))
	}))
	defer server.Close()

	require.NoError(t, NewHTTPGateway(server.URL).DeleteDocument(context.Background(), "d1"))
	require.Contains(t, logs.String(), "draining response body")
}

func TestHTTPGateway_SendChat(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "What is X?", req.Message)
		require.Equal(t, []historyEntry{{Role: "user", Content: "hi"}, {Role: "assistant", Content: "hello"}}, req.History)

		w.Write([]byte(`{"response":"X is Y.","sources":[{"text":"snippet","title":"a.pdf","source_type":"file","source_path":"a.pdf"}]}`))
	}))
	defer server.Close()

	history := []entities.HistoryEntry{
		{Role: entities.RoleUser, Content: "hi"},
		{Role: entities.RoleAssistant, Content: "hello"},
	}
	reply, err := NewHTTPGateway(server.URL).SendChat(context.Background(), "What is X?", history)
	require.NoError(t, err)

	want := &entities.ChatReply{
		Response: "X is Y.",
		Sources:  []entities.Source{{Text: "snippet", Title: "a.pdf", SourceType: entities.SourceFile, SourcePath: "a.pdf"}},
	}
	if diff := cmp.Diff(want, reply); diff != "" {
		t.Errorf("reply mismatch (-want +got):\n%s", diff)
	}
}

func TestHTTPGateway_SendChatEmptyHistoryIsArray(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		require.JSONEq(t, `{"message":"hi","history":[]}`, string(body))
		w.Write([]byte(`{"response":"hello","sources":[]}`))
	}))
	defer server.Close()

	_, err := NewHTTPGateway(server.URL).SendChat(context.Background(), "hi", nil)
	require.NoError(t, err)
}

func TestHTTPGateway_ErrorDetail(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"detail":"Unsupported file type"}`))
	}))
	defer server.Close()

	_, err := NewHTTPGateway(server.URL).UploadFile(context.Background(),
		entities.File{Name: "a.exe", Data: []byte("x")}, "")
	require.Error(t, err)

	var gwErr *ports.GatewayError
	require.True(t, errors.As(err, &gwErr))
	require.Equal(t, http.StatusBadRequest, gwErr.StatusCode)
	require.Equal(t, "Unsupported file type", err.Error())
}

func TestHTTPGateway_ValidationErrorDetail(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"detail":[{"msg":"field required"},{"msg":"invalid url"}]}`))
	}))
	defer server.Close()

	_, err := NewHTTPGateway(server.URL).AddURL(context.Background(), "nope", "")
	require.EqualError(t, err, "field required; invalid url")
}

func TestHTTPGateway_ErrorWithoutBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	err := NewHTTPGateway(server.URL).DeleteDocument(context.Background(), "1")
	require.EqualError(t, err, "delete document failed with status 500")
}

func TestHTTPGateway_NetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	_, err := NewHTTPGateway(url).FetchDocuments(context.Background())
	require.Error(t, err)

	var gwErr *ports.GatewayError
	require.True(t, errors.As(err, &gwErr))
	require.Zero(t, gwErr.StatusCode)
	require.NotNil(t, gwErr.Err)
}

func TestHTTPGateway_MalformedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json`))
	}))
	defer server.Close()

	_, err := NewHTTPGateway(server.URL).SendChat(context.Background(), "hi", nil)
	require.Error(t, err)
}

func TestNewHTTPGateway_Defaults(t *testing.T) {
	g := NewHTTPGateway("")
	require.Equal(t, DefaultBaseURL, g.baseURL)

	g = NewHTTPGateway("http://example.com/")
	require.Equal(t, "http://example.com", g.baseURL)
}
