package ui

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// Reporter prints the human-readable progress report of a run.
// Structured logs go elsewhere; these lines are the only thing on stdout.
type Reporter struct {
	mu  sync.Mutex
	out io.Writer
}

// NewReporter creates a Reporter writing to out, or stdout when out is nil
func NewReporter(out io.Writer) *Reporter {
	if out == nil {
		out = os.Stdout
	}
	return &Reporter{out: out}
}

func (r *Reporter) printf(format string, args ...interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintf(r.out, format+"\n", args...)
}

// Processing announces item index (1-based) of total
func (r *Reporter) Processing(index, total int, imageURL string) {
	r.printf("[%d/%d] Processing: %s", index, total, imageURL)
}

// DownloadFailed reports an image that could not be fetched
func (r *Reporter) DownloadFailed(err error) {
	r.printf("  Error downloading image: %v", err)
}

// Sent reports a completed sendPhoto call and the API's ok flag
func (r *Reporter) Sent(filename string, ok bool) {
	r.printf("  Sent as photo '%s', ok=%t", filename, ok)
}

// SendFailed reports a sendPhoto call that failed
func (r *Reporter) SendFailed(err error) {
	r.printf("  Error sending to Telegram: %v", err)
}

// NoItems reports an empty gallery
func (r *Reporter) NoItems() {
	r.printf("No items found on the page.")
}

// Done prints the final tally
func (r *Reporter) Done(sent, total int) {
	r.printf("Done. Sent %d/%d images.", sent, total)
}

// FetchFailed reports that the page could not be fetched or parsed
func (r *Reporter) FetchFailed(err error) {
	r.printf("Error fetching/parsing page: %v", err)
}

// MissingCredentials tells the user which variables to set
func (r *Reporter) MissingCredentials() {
	r.printf("Please set TELEGRAM_BOT_TOKEN and TELEGRAM_CHAT_ID environment variables.")
}

// Item lists one extracted item; used by the extract command
func (r *Reporter) Item(index int, imageURL, caption string) {
	if caption == "" {
		r.printf("%d. %s", index, imageURL)
		return
	}
	r.printf("%d. %s  %s", index, imageURL, caption)
}
