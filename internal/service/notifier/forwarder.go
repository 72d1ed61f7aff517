package notifier

import (
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/mamadbah2/stocklive/internal/domain/models"
)

// Forwarder POSTs every broadcast event to a set of collaborator webhook
// URLs. Delivery is fire-and-forget: errors are logged and swallowed, never
// surfaced to the mutation path.
type Forwarder struct {
	client *resty.Client
	urls   []string
	logger *zap.Logger
}

// New builds a forwarder for the given collaborator URLs.
func New(urls []string, timeout time.Duration, logger *zap.Logger) *Forwarder {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	restyClient := resty.New()
	restyClient.
		SetHeader("Content-Type", "application/json").
		SetTimeout(timeout)

	return &Forwarder{
		client: restyClient,
		urls:   urls,
		logger: logger,
	}
}

// Dispatch forwards the event to every configured collaborator.
func (f *Forwarder) Dispatch(event models.Event) {
	for _, url := range f.urls {
		go f.deliver(url, event)
	}
}

func (f *Forwarder) deliver(url string, event models.Event) {
	resp, err := f.client.R().
		SetBody(event).
		SetHeader("X-Stocklive-Event", string(event.Kind)).
		Post(url)
	if err != nil {
		f.logger.Warn("collaborator webhook delivery failed",
			zap.String("url", url), zap.Error(err))
		return
	}
	if resp.StatusCode() >= http.StatusBadRequest {
		f.logger.Warn("collaborator webhook rejected event",
			zap.String("url", url), zap.Int("status", resp.StatusCode()))
	}
}
