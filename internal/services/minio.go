package services

import (
	"context"
	"fmt"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"

	"orane_back_end/internal/database"
)

var allowedProofTypes = map[string]bool{
	".pdf":  true,
	".png":  true,
	".jpg":  true,
	".jpeg": true,
}

// UploadPaymentProof stocke une preuve de virement dans MinIO sous
// proofs/<orderID>/ et retourne son URL. Extension limitée aux PDF et images.
func UploadPaymentProof(ctx context.Context, orderID string, file *multipart.FileHeader) (string, error) {
	if database.MinIO == nil {
		return "", fmt.Errorf("MinIO non initialisé")
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !allowedProofTypes[ext] {
		return "", fmt.Errorf("type de fichier non autorisé: %s", ext)
	}

	f, err := file.Open()
	if err != nil {
		return "", err
	}
	defer f.Close()

	bucket := os.Getenv("MINIO_BUCKET")
	objectName := fmt.Sprintf("proofs/%s/%d%s", orderID, time.Now().Unix(), ext)

	_, err = database.MinIO.PutObject(ctx, bucket, objectName, f, file.Size,
		minio.PutObjectOptions{ContentType: file.Header.Get("Content-Type")})
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("http://%s/%s/%s", os.Getenv("MINIO_ENDPOINT"), bucket, objectName), nil
}

// PresignedProofURL génère un lien de lecture temporaire vers une preuve
// (consultation admin sans exposer le bucket)
func PresignedProofURL(ctx context.Context, objectName string) (string, error) {
	if database.MinIO == nil {
		return "", fmt.Errorf("MinIO non initialisé")
	}

	u, err := database.MinIO.PresignedGetObject(ctx, os.Getenv("MINIO_BUCKET"), objectName, 15*time.Minute, nil)
	if err != nil {
		return "", err
	}
	return u.String(), nil
}
