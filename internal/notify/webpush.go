package notify

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	webpush "github.com/SherClockHolmes/webpush-go"

	"github.com/me/mesas/pkg/model"
)

// VAPIDConfig identifies this server to push services.
type VAPIDConfig struct {
	PublicKey  string
	PrivateKey string
	Subscriber string // mailto: or https: contact
	TTL        int    // seconds the push service may hold the message
}

// WebPushTransport delivers payloads with the Web Push protocol.
type WebPushTransport struct {
	vapid  VAPIDConfig
	client *http.Client
}

// NewWebPushTransport creates a transport with its own pooled HTTP client.
func NewWebPushTransport(vapid VAPIDConfig) *WebPushTransport {
	if vapid.TTL <= 0 {
		vapid.TTL = 3600
	}
	return &WebPushTransport{
		vapid: vapid,
		client: &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

// GenerateVAPIDKeys returns a fresh (public, private) key pair.
func GenerateVAPIDKeys() (public, private string, err error) {
	private, public, err = webpush.GenerateVAPIDKeys()
	return public, private, err
}

// Deliver sends payload to ep. 404 and 410 responses mean the subscription
// no longer exists.
func (t *WebPushTransport) Deliver(ctx context.Context, ep model.Endpoint, payload []byte) Outcome {
	resp, err := webpush.SendNotificationWithContext(ctx, payload, &webpush.Subscription{
		Endpoint: ep.URL,
		Keys: webpush.Keys{
			P256dh: ep.Keys.P256dh,
			Auth:   ep.Keys.Auth,
		},
	}, &webpush.Options{
		HTTPClient:      t.client,
		Subscriber:      t.vapid.Subscriber,
		VAPIDPublicKey:  t.vapid.PublicKey,
		VAPIDPrivateKey: t.vapid.PrivateKey,
		TTL:             t.vapid.TTL,
	})
	if err != nil {
		return Outcome{Status: Transient, Err: err}
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	return classifyStatus(resp.StatusCode)
}

func classifyStatus(code int) Outcome {
	switch {
	case code >= 200 && code < 300:
		return Outcome{Status: Delivered}
	case code == http.StatusNotFound || code == http.StatusGone:
		return Outcome{Status: Gone, Err: fmt.Errorf("push service returned %d", code)}
	default:
		return Outcome{Status: Transient, Err: fmt.Errorf("push service returned %d", code)}
	}
}
