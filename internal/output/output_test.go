package output

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/insightflow/insightflow/internal/config"
	"github.com/insightflow/insightflow/internal/report/exporter"
)

func testArtifact() *exporter.Artifact {
	return &exporter.Artifact{
		ID:       "exp_test",
		Kind:     "analysis",
		Subject:  "Acme Corp",
		Filename: "Acme_Corp_analysis_2026-10-15.md",
		MimeType: "text/markdown",
		Format:   exporter.ExportFormatMarkdown,
		Data:     []byte("# Report\n"),
	}
}

type mockChannel struct {
	mock.Mock
}

func (m *mockChannel) Name() string {
	return m.Called().String(0)
}

func (m *mockChannel) Publish(ctx context.Context, a *exporter.Artifact, opts *PublishOptions) error {
	return m.Called(ctx, a, opts).Error(0)
}

func TestWriteFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested")
	a := testArtifact()

	path, err := WriteFile(dir, a, false)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, a.Filename), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, a.Data, data)

	_, err = WriteFile(dir, a, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	a.Data = []byte("updated")
	_, err = WriteFile(dir, a, true)
	require.NoError(t, err)
	data, _ = os.ReadFile(path)
	assert.Equal(t, "updated", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files must not be left behind")
}

func TestWriteFile_StripsDirectoryFromFilename(t *testing.T) {
	dir := t.TempDir()
	a := testArtifact()
	a.Filename = "../escape.txt"

	path, err := WriteFile(dir, a, false)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "escape.txt"), path)
}

func TestWriteFile_NoFilename(t *testing.T) {
	_, err := WriteFile(t.TempDir(), &exporter.Artifact{}, false)
	assert.Error(t, err)
}

func TestFileChannel_OptionsOverrideDir(t *testing.T) {
	base := t.TempDir()
	other := t.TempDir()
	ch := NewFileChannel(base, false)
	assert.Equal(t, "file", ch.Name())

	require.NoError(t, ch.Publish(context.Background(), testArtifact(), &PublishOptions{OutputDir: other}))
	_, err := os.Stat(filepath.Join(other, testArtifact().Filename))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(base, testArtifact().Filename))
	assert.True(t, os.IsNotExist(err))
}

func TestWebhookChannel_Publish(t *testing.T) {
	var got WebhookPayload
	var gotKey, gotType string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get(WebhookHeaderKey)
		gotType = r.Header.Get("Content-Type")
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &got)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	ch := NewWebhookChannel(server.URL, "s3cret", 5*time.Second, 3)
	ch.now = func() time.Time { return time.Date(2026, 10, 15, 9, 30, 0, 0, time.UTC) }

	err := ch.Publish(context.Background(), testArtifact(), &PublishOptions{ResultID: "42"})
	require.NoError(t, err)

	assert.Equal(t, "s3cret", gotKey)
	assert.Equal(t, WebhookContentType, gotType)
	assert.Equal(t, "exp_test", got.ExportID)
	assert.Equal(t, "analysis", got.Kind)
	assert.Equal(t, "Acme Corp", got.Subject)
	assert.Equal(t, "42", got.ResultID)
	assert.Equal(t, "md", got.Format)
	assert.Equal(t, "2026-10-15T09:30:00Z", got.Timestamp)
	data, err := base64.StdEncoding.DecodeString(got.Data)
	require.NoError(t, err)
	assert.Equal(t, "# Report\n", string(data))
}

func TestWebhookChannel_RetriesThenSucceeds(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	ch := NewWebhookChannel(server.URL, "", 5*time.Second, 4)
	ch.backoff = time.Millisecond

	require.NoError(t, ch.Publish(context.Background(), testArtifact(), nil))
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestWebhookChannel_ExhaustsRetries(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("boom"))
	}))
	defer server.Close()

	ch := NewWebhookChannel(server.URL, "", 5*time.Second, 2)
	ch.backoff = time.Millisecond

	err := ch.Publish(context.Background(), testArtifact(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "after 2 attempts")
	assert.Contains(t, err.Error(), "boom")
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestWebhookChannel_CancelledDuringBackoff(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	ch := NewWebhookChannel(server.URL, "", 5*time.Second, 5)
	ch.backoff = time.Hour

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := ch.Publish(ctx, testArtifact(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cancelled")
}

func TestWebhookChannel_NoURL(t *testing.T) {
	ch := NewWebhookChannel("", "", time.Second, 1)
	assert.NoError(t, ch.Publish(context.Background(), testArtifact(), nil))
}

func TestPublisher_CombinesErrors(t *testing.T) {
	ok := &mockChannel{}
	ok.On("Name").Return("ok").Maybe()
	ok.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()

	bad := &mockChannel{}
	bad.On("Name").Return("bad")
	bad.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(assert.AnError).Once()

	p := NewPublisher(bad)
	p.Add(ok)
	assert.Equal(t, 2, p.Len())

	err := p.Publish(context.Background(), testArtifact(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad: ")
	ok.AssertExpectations(t)
	bad.AssertExpectations(t)
}

func TestCreateFromConfig(t *testing.T) {
	ch, err := CreateFromConfig(config.DeliveryConfig{Type: config.DeliveryFile}, "/tmp/exports")
	require.NoError(t, err)
	fc, ok := ch.(*FileChannel)
	require.True(t, ok)
	assert.Equal(t, "/tmp/exports", fc.dir)

	ch, err = CreateFromConfig(config.DeliveryConfig{Type: config.DeliveryWebhook, URL: "http://hook"}, "")
	require.NoError(t, err)
	wc, ok := ch.(*WebhookChannel)
	require.True(t, ok)
	assert.Equal(t, "http://hook", wc.url)
	assert.Positive(t, wc.maxRetries)

	ch, err = CreateFromConfig(config.DeliveryConfig{
		Type: config.DeliveryEmail, SMTPHost: "smtp.example.com", From: "a@example.com", To: []string{"b@example.com"},
	}, "")
	require.NoError(t, err)
	ec, ok := ch.(*EmailChannel)
	require.True(t, ok)
	assert.Equal(t, 587, ec.port)

	ch, err = CreateFromConfig(config.DeliveryConfig{Type: config.DeliverySlack, URL: "http://slack", Channel: "#reports"}, "")
	require.NoError(t, err)
	sc, ok := ch.(*SlackChannel)
	require.True(t, ok)
	assert.Equal(t, "#reports", sc.channel)

	_, err = CreateFromConfig(config.DeliveryConfig{Type: "carrier-pigeon"}, "")
	assert.Error(t, err)
}

func TestNewPublisherFromConfig_Empty(t *testing.T) {
	p, err := NewPublisherFromConfig(&config.ExportConfig{})
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestServe(t *testing.T) {
	gin.SetMode(gin.TestMode)

	a := testArtifact()
	a.Fallback = true
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	Serve(c, a)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/markdown; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename=Acme_Corp_analysis_2026-10-15.md`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, "exp_test", w.Header().Get(HeaderExportID))
	assert.Equal(t, "true", w.Header().Get(HeaderExportFallback))
	assert.Equal(t, "# Report\n", w.Body.String())
}

func TestContentType(t *testing.T) {
	assert.Equal(t, "application/pdf", contentType("application/pdf"))
	assert.Equal(t, "text/plain; charset=utf-8", contentType("text/plain"))
	assert.Equal(t, "application/octet-stream", contentType(""))
}
