package audio

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"

	"github.com/callsight/callsight/internal/storage"
)

// maxAudioBytes caps a single recording download.
const maxAudioBytes = 50 << 20

// Resolver pulls remote recordings into the object store and serves their
// bytes back to the transcriber.
type Resolver struct {
	store  storage.ObjectStore
	client *http.Client
	log    *logrus.Logger
}

func NewResolver(store storage.ObjectStore, log *logrus.Logger) *Resolver {
	return &Resolver{
		store:  store,
		client: &http.Client{Timeout: 30 * time.Second},
		log:    log,
	}
}

// Fetch downloads url (bounded retries on transient failures) and stores the
// bytes under objectName. Returns the stored reference.
func (r *Resolver) Fetch(ctx context.Context, url, objectName string) (string, error) {
	var body []byte

	op := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		resp, err := r.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 500 {
			return fmt.Errorf("audio fetch: status %d", resp.StatusCode)
		}
		if resp.StatusCode != http.StatusOK {
			return backoff.Permanent(fmt.Errorf("audio fetch: status %d", resp.StatusCode))
		}

		body, err = io.ReadAll(io.LimitReader(resp.Body, maxAudioBytes))
		if err != nil {
			return err
		}
		if len(body) == 0 {
			return backoff.Permanent(fmt.Errorf("audio fetch: empty body"))
		}
		return nil
	}

	b := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 3), ctx)
	if err := backoff.Retry(op, b); err != nil {
		return "", err
	}

	stored, err := r.store.Upload(ctx, objectName, "application/octet-stream", bytes.NewReader(body))
	if err != nil {
		return "", err
	}

	r.log.WithFields(logrus.Fields{
		"object": stored,
		"bytes":  len(body),
	}).Debug("audio stored")
	return stored, nil
}

// Load reads a previously stored recording.
func (r *Resolver) Load(ctx context.Context, objectName string) ([]byte, error) {
	return r.store.Download(ctx, objectName)
}
