// Package drive stores journal photos in a shared Google Drive folder.
package drive

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"go.uber.org/zap"
	gdrive "google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"

	"gardenjournal/internal/metrics"
)

// Client uploads photos into a shared Drive folder and makes them publicly readable.
type Client struct {
	svc      *gdrive.Service
	folderID string
	now      func() time.Time
}

// New creates a Drive client writing into folderID.
func New(svc *gdrive.Service, folderID string) *Client {
	return &Client{svc: svc, folderID: folderID, now: time.Now}
}

// UploadResult describes a stored photo.
type UploadResult struct {
	FileID   string
	Name     string
	MimeType string
	Link     string
}

// FileName is the stored name for an upload made at t.
func FileName(t time.Time, original string) string {
	return t.Format("20060102_150405") + "_" + original
}

// ViewLink is the shareable link of a file, used when Drive returns none.
func ViewLink(fileID string) string {
	return fmt.Sprintf("https://drive.google.com/file/d/%s/view", fileID)
}

// Upload stores data under a timestamp-prefixed name, grants anyone read
// access and returns the shareable link.
func (c *Client) Upload(ctx context.Context, data []byte, filename string) (*UploadResult, error) {
	start := time.Now()
	defer func() { metrics.PhotoUploadSeconds.Observe(time.Since(start).Seconds()) }()

	name := FileName(c.now(), filename)
	mt := mimetype.Detect(data).String()

	created, err := c.svc.Files.Create(&gdrive.File{
		Name:    name,
		Parents: []string{c.folderID},
	}).
		Media(bytes.NewReader(data), googleapi.ContentType(mt)).
		Fields("id", "webViewLink").
		SupportsAllDrives(true).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("drive: upload %s failed: %w", name, err)
	}

	_, err = c.svc.Permissions.Create(created.Id, &gdrive.Permission{
		Type: "anyone",
		Role: "reader",
	}).SupportsAllDrives(true).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("drive: share %s failed: %w", created.Id, err)
	}

	link := created.WebViewLink
	if link == "" {
		link = ViewLink(created.Id)
	}
	zap.L().Debug("photo uploaded", zap.String("file_id", created.Id), zap.String("name", name), zap.String("mime", mt))

	return &UploadResult{
		FileID:   created.Id,
		Name:     name,
		MimeType: mt,
		Link:     link,
	}, nil
}
