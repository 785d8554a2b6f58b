package services

import (
	"context"
	"fmt"
	"io"
	"log"
	"path"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
)

// PhotoStorage dépose les photos produit dans un bucket MinIO.
type PhotoStorage struct {
	client *minio.Client
	bucket string
}

func NewPhotoStorage(client *minio.Client, bucket string) *PhotoStorage {
	return &PhotoStorage{client: client, bucket: bucket}
}

// Upload envoie la photo et renvoie son URL publique.
func (s *PhotoStorage) Upload(ctx context.Context, productID, filename, contentType string, r io.Reader, size int64) (string, error) {
	name := strings.ReplaceAll(path.Base(filename), " ", "_")
	objectName := fmt.Sprintf("products/%s/%d-%s", productID, time.Now().UnixNano(), name)

	_, err := s.client.PutObject(ctx, s.bucket, objectName, r, size,
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return "", fmt.Errorf("upload MinIO: %w", err)
	}

	url := fmt.Sprintf("%s/%s/%s", strings.TrimRight(s.client.EndpointURL().String(), "/"), s.bucket, objectName)
	log.Printf("🖼️ Photo envoyée : %s", url)
	return url, nil
}
