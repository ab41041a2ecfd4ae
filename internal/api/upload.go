package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/dutchcoders/go-clamd"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
)

// BlobStorage 抽象对象存储，便于测试注入假实现。
type BlobStorage interface {
	UploadFile(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) (*minio.UploadInfo, error)
	GeneratePresignedURL(ctx context.Context, objectKey string, duration time.Duration) (string, error)
	DeleteObject(ctx context.Context, objectKey string) error
}

var errMaliciousFile = errors.New("malicious file detected")

// uploadFormImage 接收 multipart 表单里的图片：先经 clamd 扫描，
// 再写入对象存储，返回对象 Key。表单中没有该字段时返回空 Key。
func uploadFormImage(c *gin.Context, storage BlobStorage, clamdAddr, formField, keyPrefix string, ownerID uint) (string, error) {
	file, err := c.FormFile(formField)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return "", nil
		}
		return "", fmt.Errorf("read upload: %w", err)
	}

	if clamdAddr != "" {
		if err := scanUpload(file, clamdAddr); err != nil {
			return "", err
		}
	}

	reader, err := file.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer reader.Close()

	ext := strings.ToLower(filepath.Ext(file.Filename))
	if ext == "" {
		ext = ".bin"
	}
	objectKey := fmt.Sprintf("%s/%d/%s%s", keyPrefix, ownerID, uuid.NewString(), ext)

	contentType := file.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	if _, err := storage.UploadFile(c.Request.Context(), objectKey, reader, file.Size, contentType); err != nil {
		return "", fmt.Errorf("upload %q: %w", objectKey, err)
	}

	return objectKey, nil
}

func scanUpload(file *multipart.FileHeader, clamdAddr string) error {
	reader, err := file.Open()
	if err != nil {
		return fmt.Errorf("open upload: %w", err)
	}

	clamdClient := clamd.NewClamd(clamdAddr)
	abortChan := make(chan bool)
	scanChan, err := clamdClient.ScanStream(reader, abortChan)
	reader.Close()
	if err != nil {
		return fmt.Errorf("scan upload: %w", err)
	}
	defer close(abortChan)

	for result := range scanChan {
		if result.Status != clamd.RES_OK {
			return errMaliciousFile
		}
	}
	return nil
}

// presignedImageURL 为对象 Key 生成限时访问链接，Key 为空时返回空串。
func presignedImageURL(ctx context.Context, storage BlobStorage, objectKey string) string {
	if storage == nil || objectKey == "" {
		return ""
	}
	url, err := storage.GeneratePresignedURL(ctx, objectKey, 15*time.Minute)
	if err != nil {
		return ""
	}
	return url
}
