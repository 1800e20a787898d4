// Package storage はMinIOへのプロフィール画像の保存を提供する。
package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/hitoshi/foodapi/internal/model"
	"github.com/hitoshi/foodapi/internal/user"
)

// MaxImageSize はプロフィール画像の最大サイズ（5 MiB）。
const MaxImageSize = 5 << 20

// sniffLen は画像形式の判定に読む先頭バイト数。
const sniffLen = 512

// imageExtensions は受け付ける画像形式と保存時の拡張子。
var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// objectPutter はオブジェクトの保存インターフェース。*minio.Clientが満たす。
type objectPutter interface {
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

// Options はMinIO接続設定。
type Options struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	// PublicURL は画像URLの基点。空の場合はエンドポイントから組み立てる。
	PublicURL string
}

// ProfileImageStore はMinIOバケットにプロフィール画像を保存する。
type ProfileImageStore struct {
	client  objectPutter
	bucket  string
	baseURL string
}

// NewProfileImageStore はMinIOクライアントを生成し、バケットが無ければ作成する。
func NewProfileImageStore(ctx context.Context, opts Options) (*ProfileImageStore, error) {
	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, opts.Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, opts.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create bucket: %w", err)
		}
		slog.Info("bucket created", slog.String("bucket", opts.Bucket))
	}

	return newProfileImageStore(client, opts), nil
}

func newProfileImageStore(client objectPutter, opts Options) *ProfileImageStore {
	base := opts.PublicURL
	if base == "" {
		scheme := "http"
		if opts.UseSSL {
			scheme = "https"
		}
		base = scheme + "://" + opts.Endpoint
	}
	return &ProfileImageStore{
		client:  client,
		bucket:  opts.Bucket,
		baseURL: strings.TrimRight(base, "/") + "/" + opts.Bucket,
	}
}

// PutProfileImage は画像形式とサイズを確認して users/<id>/<uuid><ext> に保存し、公開URLを返す。
// 形式はファイル名やContent-Typeヘッダーではなく先頭バイトで判定する。
func (s *ProfileImageStore) PutProfileImage(ctx context.Context, userID int64, img user.Image) (string, error) {
	if img.Body == nil || img.Size <= 0 {
		return "", model.NewMissingFieldsError("image")
	}
	if img.Size > MaxImageSize {
		return "", model.NewInvalidFieldError("image", "Image must not exceed 5 MiB")
	}

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(img.Body, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return "", fmt.Errorf("failed to read image: %w", err)
	}
	head = head[:n]

	contentType := http.DetectContentType(head)
	ext, ok := imageExtensions[contentType]
	if !ok {
		return "", model.NewInvalidFieldError("image", "Image must be a JPEG, PNG, GIF or WEBP file")
	}

	key := fmt.Sprintf("users/%d/%s%s", userID, uuid.New().String(), ext)
	body := io.MultiReader(bytes.NewReader(head), img.Body)
	if _, err := s.client.PutObject(ctx, s.bucket, key, body, img.Size, minio.PutObjectOptions{
		ContentType: contentType,
	}); err != nil {
		return "", fmt.Errorf("failed to upload profile image: %w", err)
	}

	slog.InfoContext(ctx, "profile image uploaded",
		slog.Int64("user_id", userID),
		slog.String("key", key),
	)
	return s.baseURL + "/" + key, nil
}

// compile-time interface check
var _ user.ImageStore = (*ProfileImageStore)(nil)
