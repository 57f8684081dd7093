package service

import (
	"context"
	"io"
)

// FileUploadService stores user supplied documents and returns their URL.
type FileUploadService interface {
	UploadFile(ctx context.Context, file io.Reader, contentType, folder string, isPublic bool) (string, error)
	DeleteFile(ctx context.Context, fileURL string) error
	Close() error
}
