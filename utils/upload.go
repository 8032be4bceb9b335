package utils

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// Post images may not exceed 10MB.
const maxImageSize = 10 * 1024 * 1024

// SaveImage stores an uploaded image under the media root and returns the
// opaque reference the post carries. The blob store is addressed only by
// this path; nothing else inspects the file.
func SaveImage(file multipart.File, header *multipart.FileHeader, mediaRoot string) (string, error) {
	if header.Size > maxImageSize {
		return "", fmt.Errorf("image exceeds %d bytes", maxImageSize)
	}

	now := time.Now()
	dir := filepath.Join(mediaRoot, "posts", now.Format("2006"), now.Format("01"))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}

	name := uuid.NewString() + filepath.Ext(filepath.Base(header.Filename))
	dst := filepath.Join(dir, name)
	out, err := os.Create(dst)
	if err != nil {
		return "", err
	}
	defer out.Close()

	lr := &io.LimitedReader{R: file, N: maxImageSize + 1}
	written, err := io.Copy(out, lr)
	if err != nil {
		_ = os.Remove(dst)
		return "", err
	}
	if written > maxImageSize {
		_ = os.Remove(dst)
		return "", fmt.Errorf("image exceeds %d bytes", maxImageSize)
	}

	return filepath.ToSlash(filepath.Join("posts", now.Format("2006"), now.Format("01"), name)), nil
}
