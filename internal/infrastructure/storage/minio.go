package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	apperrors "github.com/johnquangdev/meeting-scribe/errors"
	"github.com/johnquangdev/meeting-scribe/pkg/config"
)

// TranscriptStore archives raw transcripts to object storage before
// processing, so a failed meeting can always be reprocessed from scratch.
type TranscriptStore struct {
	client *minio.Client
	bucket string
}

// NewTranscriptStore creates the store and ensures the bucket exists.
func NewTranscriptStore(cfg *config.StorageConfig) (*TranscriptStore, error) {
	minioClient, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	store := &TranscriptStore{
		client: minioClient,
		bucket: cfg.BucketName,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := store.ensureBucket(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize bucket: %w", err)
	}

	return store, nil
}

func (s *TranscriptStore) ensureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}
	if !exists {
		if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("failed to create bucket: %w", err)
		}
	}
	return nil
}

// ObjectKey builds the storage key for one meeting's transcript.
func ObjectKey(meetingID string) string {
	return fmt.Sprintf("transcripts/%s.txt", meetingID)
}

// Archive uploads a transcript and returns its object key.
func (s *TranscriptStore) Archive(ctx context.Context, meetingID string, transcript string) (string, error) {
	key := ObjectKey(meetingID)
	reader := bytes.NewReader([]byte(transcript))
	_, err := s.client.PutObject(ctx, s.bucket, key, reader, int64(len(transcript)), minio.PutObjectOptions{
		ContentType: "text/plain",
	})
	if err != nil {
		return "", apperrors.ErrStorageFailed("archive transcript", err)
	}
	return key, nil
}

// Fetch downloads an archived transcript by its object key.
func (s *TranscriptStore) Fetch(ctx context.Context, key string) (string, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return "", apperrors.ErrStorageFailed("fetch transcript", err)
	}
	defer obj.Close()

	raw, err := io.ReadAll(obj)
	if err != nil {
		return "", apperrors.ErrStorageFailed("read transcript", err)
	}
	return string(raw), nil
}
