package inventory

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"go.uber.org/zap"

	"partflow/internal/util"
)

// buildMultipart writes the form fields and one file part into buf and
// returns the Content-Type to send.
func buildMultipart(buf io.Writer, fields map[string]string, fileField, fileName string, file io.Reader) (string, error) {
	writer := multipart.NewWriter(buf)
	for key, value := range fields {
		if err := writer.WriteField(key, value); err != nil {
			return "", fmt.Errorf("failed to write form field %q: %w", key, err)
		}
	}
	part, err := writer.CreateFormFile(fileField, fileName)
	if err != nil {
		return "", fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return "", fmt.Errorf("failed to copy file into form: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("failed to finalize form: %w", err)
	}
	return writer.FormDataContentType(), nil
}

// UploadAttachment attaches a local file (typically a datasheet) to a part.
func (c *Client) UploadAttachment(ctx context.Context, partPK int, path, comment string) error {
	ctx, span := util.StartSpan(ctx, "Inventory.UploadAttachment")
	defer span.End()

	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open attachment %s: %w", path, err)
	}
	defer file.Close()

	fields := map[string]string{
		"part":    strconv.Itoa(partPK),
		"comment": comment,
	}
	if err := c.upload(ctx, http.MethodPost, "/api/part/attachment/", fields, "attachment", filepath.Base(path), file, nil); err != nil {
		return fmt.Errorf("failed to upload attachment to part %d: %w", partPK, err)
	}
	c.logger.Info("Uploaded attachment",
		zap.Int("part", partPK),
		zap.String("file", filepath.Base(path)))
	return nil
}

// UploadImage sets a local image file as the part thumbnail.
func (c *Client) UploadImage(ctx context.Context, partPK int, path string) error {
	ctx, span := util.StartSpan(ctx, "Inventory.UploadImage")
	defer span.End()

	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open image %s: %w", path, err)
	}
	defer file.Close()

	endpoint := fmt.Sprintf("/api/part/%d/", partPK)
	if err := c.upload(ctx, http.MethodPatch, endpoint, nil, "image", filepath.Base(path), file, nil); err != nil {
		return fmt.Errorf("failed to upload image to part %d: %w", partPK, err)
	}
	c.logger.Info("Uploaded part image",
		zap.Int("part", partPK),
		zap.String("file", filepath.Base(path)))
	return nil
}
