package usecases

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/0xcro3dile/netbot-go/internal/domain/entities"
	"github.com/0xcro3dile/netbot-go/internal/domain/ports"
)

// mockWatcher replays a fixed list of events.
type mockWatcher struct {
	events   []ports.FileEvent
	watchErr error
	stopped  bool
}

func (w *mockWatcher) Watch(ctx context.Context, dir string) (<-chan ports.FileEvent, error) {
	if w.watchErr != nil {
		return nil, w.watchErr
	}
	ch := make(chan ports.FileEvent, len(w.events))
	for _, ev := range w.events {
		ch <- ev
	}
	close(ch)
	return ch, nil
}

func (w *mockWatcher) Stop() error {
	w.stopped = true
	return nil
}

// mockLoader serves file contents from a map; each Load pops the next content for a path.
type mockLoader struct {
	contents map[string][]string
}

func (l *mockLoader) Load(ctx context.Context, path string) (*entities.File, error) {
	queue, ok := l.contents[path]
	if !ok || len(queue) == 0 {
		return nil, errors.New("no such file")
	}
	data := queue[0]
	if len(queue) > 1 {
		l.contents[path] = queue[1:]
	}
	if data == "" {
		return nil, ports.ErrEmptyFile
	}
	return &entities.File{Name: path, Data: []byte(data)}, nil
}

func (l *mockLoader) SupportedExtensions() []string {
	return []string{".txt"}
}

func TestFolderIngestor_UploadsCreatedFiles(t *testing.T) {
	gw := &mockGateway{}
	ctrl, kb, conv := newTestController(gw, &mockPrompter{})
	watcher := &mockWatcher{events: []ports.FileEvent{
		{Path: "a.txt", Operation: ports.FileCreated},
		{Path: "a.txt", Operation: ports.FileModified},
		{Path: "b.txt", Operation: ports.FileCreated},
	}}
	loader := &mockLoader{contents: map[string][]string{"a.txt": {"alpha"}, "b.txt": {"beta"}}}

	ingestor := NewFolderIngestor(watcher, loader, ctrl)
	require.NoError(t, ingestor.Run(context.Background(), "inbox"))

	require.Equal(t, 2, gw.uploadCalls, "modified event after upload must not re-upload")
	require.Len(t, kb.Documents(), 2)
	require.Equal(t, 2, conv.Len())
	require.Equal(t, Closed{}, ctrl.State())
}

func TestFolderIngestor_WaitsForContent(t *testing.T) {
	gw := &mockGateway{}
	ctrl, _, _ := newTestController(gw, &mockPrompter{})
	watcher := &mockWatcher{events: []ports.FileEvent{
		{Path: "a.txt", Operation: ports.FileCreated},
		{Path: "a.txt", Operation: ports.FileModified},
	}}
	loader := &mockLoader{contents: map[string][]string{"a.txt": {"", "alpha"}}}

	require.NoError(t, NewFolderIngestor(watcher, loader, ctrl).Run(context.Background(), "inbox"))
	require.Equal(t, 1, gw.uploadCalls)
}

func TestFolderIngestor_RecreatedFileUploadsAgain(t *testing.T) {
	gw := &mockGateway{}
	ctrl, _, _ := newTestController(gw, &mockPrompter{})
	watcher := &mockWatcher{events: []ports.FileEvent{
		{Path: "a.txt", Operation: ports.FileCreated},
		{Path: "a.txt", Operation: ports.FileDeleted},
		{Path: "a.txt", Operation: ports.FileCreated},
	}}
	loader := &mockLoader{contents: map[string][]string{"a.txt": {"alpha"}}}

	require.NoError(t, NewFolderIngestor(watcher, loader, ctrl).Run(context.Background(), "inbox"))
	require.Equal(t, 2, gw.uploadCalls)
}

func TestFolderIngestor_FailedUploadResetsModal(t *testing.T) {
	gw := &mockGateway{
		uploadFn: func(file entities.File, title string) (*entities.Document, error) {
			return nil, &ports.GatewayError{Operation: "upload file", StatusCode: 400, Detail: "Unsupported file type"}
		},
	}
	prompter := &mockPrompter{}
	ctrl, _, _ := newTestController(gw, prompter)
	loader := &mockLoader{contents: map[string][]string{"a.txt": {"alpha"}}}

	err := NewFolderIngestor(&mockWatcher{}, loader, ctrl).Ingest(context.Background(), "a.txt")
	require.Error(t, err)
	require.Equal(t, Closed{}, ctrl.State())
	require.Equal(t, []string{"Upload failed: Unsupported file type"}, prompter.alerts)
}

func TestFolderIngestor_WatchError(t *testing.T) {
	ctrl, _, _ := newTestController(&mockGateway{}, &mockPrompter{})
	watcher := &mockWatcher{watchErr: errors.New("no such directory")}

	err := NewFolderIngestor(watcher, &mockLoader{}, ctrl).Run(context.Background(), "missing")
	require.EqualError(t, err, "no such directory")
}
