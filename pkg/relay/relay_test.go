package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"newsrelay/pkg/config"
	apperrors "newsrelay/pkg/errors"
	"newsrelay/pkg/logger"
	"newsrelay/pkg/models"
	"newsrelay/pkg/ratelimit"
	"newsrelay/pkg/telegram"
	"newsrelay/pkg/ui"
)

type fakeSource struct {
	items []models.Item
	err   error
	calls int
}

func (f *fakeSource) FetchItems(ctx context.Context) ([]models.Item, error) {
	f.calls++
	return f.items, f.err
}

type fakeDownloader struct {
	fail  map[string]bool
	calls []string
}

func (f *fakeDownloader) Download(ctx context.Context, imageURL string) (*models.DownloadedImage, error) {
	f.calls = append(f.calls, imageURL)
	if f.fail[imageURL] {
		return nil, apperrors.NewDownloadError(imageURL, 404, apperrors.StatusError(404, ""))
	}
	name := imageURL[strings.LastIndex(imageURL, "/")+1:]
	return &models.DownloadedImage{URL: imageURL, Filename: name, Data: []byte(imageURL)}, nil
}

type sentPhoto struct {
	filename string
	caption  string
}

type fakeSender struct {
	fail   map[string]bool
	ok     bool
	result string
	sent   []sentPhoto
}

func (f *fakeSender) SendPhoto(ctx context.Context, image *models.DownloadedImage, caption string) (*telegram.Response, error) {
	f.sent = append(f.sent, sentPhoto{filename: image.Filename, caption: caption})
	if f.fail[image.Filename] {
		return nil, apperrors.NewSendError("sendPhoto", 400, apperrors.StatusError(400, "Bad Request"))
	}
	resp := &telegram.Response{OK: f.ok}
	if f.result != "" {
		resp.Result = json.RawMessage(f.result)
	}
	return resp, nil
}

func threeItems() []models.Item {
	return []models.Item{
		{ImageURL: "https://thetv.jp/i/nw/1310405/1.jpg", Caption: "Member A"},
		{ImageURL: "https://thetv.jp/i/nw/1310405/2.jpg", Caption: "Member B"},
		{ImageURL: "https://thetv.jp/i/nw/1310405/3.jpg", Caption: ""},
	}
}

type harness struct {
	source     *fakeSource
	downloader *fakeDownloader
	sender     *fakeSender
	delayer    *ratelimit.Recorder
	out        *bytes.Buffer
	log        *logger.TestLogger
	relay      *Relay
}

func newHarness(items []models.Item) *harness {
	h := &harness{
		source:     &fakeSource{items: items},
		downloader: &fakeDownloader{fail: map[string]bool{}},
		sender:     &fakeSender{fail: map[string]bool{}, ok: true},
		delayer:    ratelimit.NewRecorder(),
		out:        &bytes.Buffer{},
		log:        logger.NewTestLogger(),
	}
	cfg := config.DefaultConfig()
	cfg.Relay.DelaySeconds = 2
	h.relay = New(cfg, Dependencies{
		Source:     h.source,
		Downloader: h.downloader,
		Sender:     h.sender,
		Delayer:    h.delayer,
		Reporter:   ui.NewReporter(h.out),
		Logger:     h.log,
	})
	return h
}

func TestRunSendsEveryItem(t *testing.T) {
	h := newHarness(threeItems())

	summary, err := h.relay.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, &Summary{Total: 3, Sent: 3}, summary)
	assert.Equal(t, []sentPhoto{
		{filename: "1.jpg", caption: "Member A"},
		{filename: "2.jpg", caption: "Member B"},
		{filename: "3.jpg", caption: ""},
	}, h.sender.sent)

	want := strings.Join([]string{
		"[1/3] Processing: https://thetv.jp/i/nw/1310405/1.jpg",
		"  Sent as photo '1.jpg', ok=true",
		"[2/3] Processing: https://thetv.jp/i/nw/1310405/2.jpg",
		"  Sent as photo '2.jpg', ok=true",
		"[3/3] Processing: https://thetv.jp/i/nw/1310405/3.jpg",
		"  Sent as photo '3.jpg', ok=true",
		"Done. Sent 3/3 images.",
	}, "\n") + "\n"
	assert.Equal(t, want, h.out.String())
}

func TestRunPauses(t *testing.T) {
	h := newHarness(threeItems())

	_, err := h.relay.Run(context.Background())
	require.NoError(t, err)

	// post-send pause after each send, inter-item delay between items only
	assert.Equal(t, []time.Duration{
		3 * time.Second, 2 * time.Second,
		3 * time.Second, 2 * time.Second,
		3 * time.Second,
	}, h.delayer.Pauses())
}

func TestRunDownloadFailureSkipsItem(t *testing.T) {
	h := newHarness(threeItems())
	h.downloader.fail["https://thetv.jp/i/nw/1310405/2.jpg"] = true

	summary, err := h.relay.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, &Summary{Total: 3, Sent: 2, DownloadFailed: 1}, summary)
	assert.Len(t, h.downloader.calls, 3)
	assert.Len(t, h.sender.sent, 2)
	assert.Contains(t, h.out.String(), "  Error downloading image: download error (code 404)")
	assert.True(t, strings.HasSuffix(h.out.String(), "Done. Sent 2/3 images.\n"))

	// no send attempt, so no post-send pause for item 2
	assert.Equal(t, []time.Duration{
		3 * time.Second, 2 * time.Second,
		2 * time.Second,
		3 * time.Second,
	}, h.delayer.Pauses())

	assert.True(t, h.log.HasMessage("Item skipped"))
}

func TestRunSendFailureContinues(t *testing.T) {
	h := newHarness(threeItems())
	h.sender.fail["1.jpg"] = true

	summary, err := h.relay.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, &Summary{Total: 3, Sent: 2, SendFailed: 1}, summary)
	assert.Contains(t, h.out.String(), "  Error sending to Telegram: send error (code 400)")
	assert.Contains(t, h.out.String(), "Done. Sent 2/3 images.")
	assert.Len(t, h.delayer.Pauses(), 5, "failed sends still get the post-send pause")
}

func TestRunNotOKIsReported(t *testing.T) {
	h := newHarness(threeItems()[:1])
	h.sender.ok = false

	summary, err := h.relay.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Sent)
	assert.Contains(t, h.out.String(), "  Sent as photo '1.jpg', ok=false")
}

func TestRunNoItems(t *testing.T) {
	h := newHarness([]models.Item{})

	summary, err := h.relay.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, &Summary{}, summary)
	assert.Equal(t, "No items found on the page.\n", h.out.String())
	assert.Empty(t, h.downloader.calls)
	assert.Empty(t, h.delayer.Pauses())
}

func TestRunFetchFailure(t *testing.T) {
	h := newHarness(nil)
	h.source.err = apperrors.NewFetchError("https://thetv.jp/", 503, apperrors.StatusError(503, ""))

	summary, err := h.relay.Run(context.Background())
	require.Error(t, err)

	assert.Nil(t, summary)
	assert.True(t, errors.Is(err, apperrors.ErrFetch))
	assert.Equal(t, "Error fetching/parsing page: fetch error (code 503): unexpected status code 503\n", h.out.String())
	assert.Empty(t, h.downloader.calls)
}

func TestRunCancelledContext(t *testing.T) {
	h := newHarness(threeItems())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	summary, err := h.relay.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, summary)
	assert.Len(t, h.downloader.calls, 1)
	assert.NotContains(t, h.out.String(), "Done.")
}

// failingDelayer fails the n-th pause (1-based)
type failingDelayer struct {
	n     int
	calls int
	err   error
}

func (f *failingDelayer) Wait(ctx context.Context, d time.Duration) error {
	f.calls++
	if f.calls == f.n {
		return f.err
	}
	return nil
}

func TestRunStopsWhenPostSendPauseFails(t *testing.T) {
	h := newHarness(threeItems())
	interrupted := errors.New("interrupted")
	delayer := &failingDelayer{n: 1, err: interrupted}
	h.relay.delayer = delayer

	summary, err := h.relay.Run(context.Background())
	assert.ErrorIs(t, err, interrupted)
	require.NotNil(t, summary)
	assert.Equal(t, 1, summary.Sent)
	assert.Len(t, h.downloader.calls, 1)
	assert.Equal(t, 1, delayer.calls)
	assert.True(t, h.log.HasMessage("Item relayed"), "the item itself still counts as relayed")
}

func TestRunLogsFailureStage(t *testing.T) {
	h := newHarness(threeItems())
	h.downloader.fail["https://thetv.jp/i/nw/1310405/1.jpg"] = true
	h.sender.fail["2.jpg"] = true

	_, err := h.relay.Run(context.Background())
	require.NoError(t, err)

	var stages []interface{}
	for _, msg := range h.log.GetMessagesByLevel("WARN") {
		if msg.Message == "Item skipped" {
			stages = append(stages, msg.Fields["stage"])
		}
	}
	assert.Equal(t, []interface{}{"download", "send"}, stages)
}

func TestRunLogsSentMessageID(t *testing.T) {
	h := newHarness(threeItems()[:1])
	h.sender.result = `{"message_id":7,"chat":{"id":-100123}}`

	_, err := h.relay.Run(context.Background())
	require.NoError(t, err)

	var found bool
	for _, msg := range h.log.GetMessagesByLevel("DEBUG") {
		if msg.Message == "Photo sent" {
			found = true
			assert.Equal(t, int64(7), msg.Fields["message_id"])
			assert.Equal(t, int64(-100123), msg.Fields["chat"])
			assert.Equal(t, "1.jpg", msg.Fields["filename"])
		}
	}
	assert.True(t, found)
}

// TestNewFromConfig runs the real stages against local stand-ins for thetv.jp and the Bot API
func TestNewFromConfig(t *testing.T) {
	var mu sync.Mutex
	var uploads []string

	site := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/news/detail/1310405/":
			fmt.Fprint(w, `<html><body><div class="newsimage"><ul>
<li><a href="/news/detail/1310405/1/"><img alt="Member A"></a></li>
<li><a href="/news/detail/1310405/2/"><img alt="Member B"></a></li>
</ul></div></body></html>`)
		case strings.HasPrefix(r.URL.Path, "/i/nw/1310405/"):
			w.Write([]byte("jpeg-bytes"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer site.Close()

	botAPI := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		file, header, err := r.FormFile("photo")
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		io.Copy(io.Discard, file)
		file.Close()

		mu.Lock()
		uploads = append(uploads, r.FormValue("caption")+"|"+header.Filename)
		mu.Unlock()
		fmt.Fprint(w, `{"ok":true,"result":{"message_id":1,"chat":{"id":5}}}`)
	}))
	defer botAPI.Close()

	cfg := config.DefaultConfig()
	cfg.Source.PageURL = site.URL + "/news/detail/1310405/"
	cfg.Telegram.APIURL = botAPI.URL
	cfg.Telegram.BotToken = "1:token"
	cfg.Telegram.ChatID = "5"
	cfg.Relay.DelaySeconds = 0
	cfg.Relay.PostSendPause = 0

	var out bytes.Buffer
	relay := NewFromConfig(cfg, ui.NewReporter(&out), logger.NewNopLogger())

	summary, err := relay.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, &Summary{Total: 2, Sent: 2}, summary)
	assert.Equal(t, []string{"Member A|1.jpg", "Member B|2.jpg"}, uploads)
	assert.Contains(t, out.String(), "[1/2] Processing: "+site.URL+"/i/nw/1310405/1.jpg")
	assert.Contains(t, out.String(), "Done. Sent 2/2 images.")
}
