package transcript

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/scopetalk/scopetalk/internal/apperr"
	"github.com/scopetalk/scopetalk/internal/domain"
)

// SupabaseStore persists transcripts as JSON blobs in a Supabase Storage
// bucket. The backend has no native append, so Append is download-merge-
// upload; a per-session lock makes that read-modify-write effectively
// atomic within this process.
type SupabaseStore struct {
	baseURL    string
	serviceKey string
	bucket     string
	httpClient *http.Client

	// sessionLocks serializes read-modify-write appends per session so
	// concurrent turns for the same session cannot drop each other.
	sessionLocks sync.Map // sessionID -> *sync.Mutex
}

// SupabaseOption configures a SupabaseStore.
type SupabaseOption func(*SupabaseStore)

// WithSupabaseHTTPClient overrides the HTTP client.
func WithSupabaseHTTPClient(httpClient *http.Client) SupabaseOption {
	return func(s *SupabaseStore) {
		s.httpClient = httpClient
	}
}

// NewSupabaseStore creates a Supabase Storage backed transcript store.
func NewSupabaseStore(baseURL, serviceKey, bucket string, opts ...SupabaseOption) (*SupabaseStore, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("transcript: supabase url must not be empty")
	}
	if strings.TrimSpace(serviceKey) == "" {
		return nil, errors.New("transcript: supabase key must not be empty")
	}
	if strings.TrimSpace(bucket) == "" {
		return nil, errors.New("transcript: bucket must not be empty")
	}
	s := &SupabaseStore{
		baseURL:    baseURL,
		serviceKey: serviceKey,
		bucket:     bucket,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func transcriptPath(sessionID string) string {
	return fmt.Sprintf("transcripts/%s.json", sessionID)
}

func summaryPath(sessionID string) string {
	return fmt.Sprintf("summaries/%s.txt", sessionID)
}

func (s *SupabaseStore) objectURL(path string) string {
	return fmt.Sprintf("%s/storage/v1/object/%s/%s", s.baseURL, s.bucket, path)
}

// PublicURL returns the public URL for a session's transcript blob.
func (s *SupabaseStore) PublicURL(sessionID string) string {
	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s", s.baseURL, s.bucket, transcriptPath(sessionID))
}

func (s *SupabaseStore) lockSession(sessionID string) *sync.Mutex {
	lock, _ := s.sessionLocks.LoadOrStore(sessionID, &sync.Mutex{})
	return lock.(*sync.Mutex)
}

// Append merges turns onto the existing transcript blob. A missing blob is
// treated as an empty transcript, not an error.
func (s *SupabaseStore) Append(ctx context.Context, sessionID string, turns []domain.Turn) error {
	mu := s.lockSession(sessionID)
	mu.Lock()
	defer mu.Unlock()

	existing, err := s.download(ctx, transcriptPath(sessionID))
	if err != nil && !apperr.IsCode(err, apperr.CodeNotFound) {
		return err
	}

	var combined []domain.Turn
	if len(existing) > 0 {
		if err := json.Unmarshal(existing, &combined); err != nil {
			return apperr.Wrap(apperr.CodeStorage, "transcript_corrupt", err)
		}
	}
	combined = append(combined, turns...)

	return s.uploadJSON(ctx, transcriptPath(sessionID), combined)
}

// ReadAll downloads and decodes the session's transcript blob.
func (s *SupabaseStore) ReadAll(ctx context.Context, sessionID string) ([]domain.Turn, error) {
	raw, err := s.download(ctx, transcriptPath(sessionID))
	if err != nil {
		return nil, err
	}
	var turns []domain.Turn
	if err := json.Unmarshal(raw, &turns); err != nil {
		return nil, apperr.Wrap(apperr.CodeStorage, "transcript_corrupt", err)
	}
	return turns, nil
}

// Overwrite replaces the session's transcript blob wholesale.
func (s *SupabaseStore) Overwrite(ctx context.Context, sessionID string, turns []domain.Turn) error {
	mu := s.lockSession(sessionID)
	mu.Lock()
	defer mu.Unlock()

	return s.uploadJSON(ctx, transcriptPath(sessionID), turns)
}

// UploadSummary stores a generated summary alongside the transcript.
func (s *SupabaseStore) UploadSummary(ctx context.Context, sessionID, summary string) error {
	return s.upload(ctx, summaryPath(sessionID), []byte(summary), "text/plain")
}

// DownloadSummary fetches a previously stored summary.
func (s *SupabaseStore) DownloadSummary(ctx context.Context, sessionID string) (string, error) {
	raw, err := s.download(ctx, summaryPath(sessionID))
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func (s *SupabaseStore) uploadJSON(ctx context.Context, path string, v interface{}) error {
	body, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return apperr.Wrap(apperr.CodeStorage, "transcript_encode", err)
	}
	return s.upload(ctx, path, body, "application/json")
}

func (s *SupabaseStore) upload(ctx context.Context, path string, body []byte, contentType string) error {
	url := s.objectURL(path)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return apperr.Wrap(apperr.CodeStorage, "create_upload_request", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.serviceKey)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("x-upsert", "true")

	res, err := s.httpClient.Do(req)
	if err != nil {
		return apperr.Wrap(apperr.CodeStorage, "upload_request", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		buf, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		return apperr.Wrap(apperr.CodeStorage, "upload_failed",
			fmt.Errorf("status %d from %s: %s", res.StatusCode, url, string(buf)))
	}
	return nil
}

func (s *SupabaseStore) download(ctx context.Context, path string) ([]byte, error) {
	url := s.objectURL(path)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeStorage, "create_download_request", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.serviceKey)

	res, err := s.httpClient.Do(req)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeStorage, "download_request", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode == http.StatusNotFound {
		return nil, apperr.New(apperr.CodeNotFound, "object_not_found")
	}
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		buf, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		return nil, apperr.Wrap(apperr.CodeStorage, "download_failed",
			fmt.Errorf("status %d from %s: %s", res.StatusCode, url, string(buf)))
	}

	raw, err := io.ReadAll(io.LimitReader(res.Body, 8<<20))
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeStorage, "read_download_body", err)
	}
	return raw, nil
}
