package app

import (
	"context"
	"errors"
	"strings"
	"time"

	"resumeguru/internal/model"
	"resumeguru/internal/renderer"
	"resumeguru/internal/sanitize"
)

var (
	ErrNoResume      = errors.New("no resume to export")
	ErrDownloadLimit = errors.New("monthly download limit reached")
)

// watermarkMarkup is injected immediately before the closing body tag for
// free-tier exports, so it renders inside the printed page.
const watermarkMarkup = `<div style="position:fixed;bottom:12px;right:16px;font-size:11px;color:#9ca3af;">Created with ResumeGuru Free</div>`

// ExportService gates exports behind the subscription quota and only
// records a download after the render service has confirmed a usable
// document. Quota is consumed by recorded downloads, so a failed render
// never costs an attempt.
type ExportService struct {
	downloadRepo  DownloadStore
	subscriptions *SubscriptionService
	renderer      ResumeRenderer
	freeLimit     int
}

func NewExportService(downloadRepo DownloadStore, subscriptions *SubscriptionService, r ResumeRenderer, freeLimit int) *ExportService {
	if freeLimit <= 0 {
		freeLimit = 3
	}
	return &ExportService{
		downloadRepo:  downloadRepo,
		subscriptions: subscriptions,
		renderer:      r,
		freeLimit:     freeLimit,
	}
}

type ExportInput struct {
	UserID     uint
	ResumeHTML string
}

type ExportResult struct {
	Document    []byte
	ContentType string
	Remaining   int
}

// RequestExport runs the export pipeline: quota check, free-tier watermark,
// render, then the download record.
func (s *ExportService) RequestExport(ctx context.Context, input ExportInput) (*ExportResult, error) {
	if input.UserID == 0 {
		return nil, ErrInvalidInput
	}
	// The markup arrives straight from the request body and is fed to a
	// headless browser; nothing unsanitized may reach the renderer or the
	// download record. Markup that sanitizes away entirely is no resume.
	clean := sanitize.HTML(input.ResumeHTML)
	if strings.TrimSpace(clean) == "" {
		return nil, ErrNoResume
	}

	tier, err := s.subscriptions.TierFor(input.UserID)
	if err != nil {
		return nil, err
	}

	if tier == model.TierFree {
		remaining, err := s.remainingForFree(input.UserID)
		if err != nil {
			return nil, err
		}
		if remaining <= 0 {
			return nil, ErrDownloadLimit
		}
	}

	html := clean
	if tier == model.TierFree {
		html = injectWatermark(html)
	}

	if err := s.renderer.Health(ctx); err != nil {
		return nil, err
	}
	document, contentType, err := s.renderer.Preview(ctx, html)
	if err != nil {
		return nil, err
	}

	format := "html"
	if contentType == renderer.ContentTypePDF {
		format = "pdf"
	}
	record := &model.Download{
		UserID:     input.UserID,
		ResumeName: "Resume " + time.Now().Format("2006-01-02"),
		Format:     format,
		ResumeHTML: clean,
		CreatedAt:  time.Now(),
	}
	if err := s.downloadRepo.Create(record); err != nil {
		return nil, err
	}

	remaining, err := s.RemainingDownloads(input.UserID)
	if err != nil {
		remaining = 0
	}
	return &ExportResult{
		Document:    document,
		ContentType: contentType,
		Remaining:   remaining,
	}, nil
}

// RemainingDownloads reports this month's remaining quota, -1 meaning
// unlimited.
func (s *ExportService) RemainingDownloads(userID uint) (int, error) {
	tier, err := s.subscriptions.TierFor(userID)
	if err != nil {
		return 0, err
	}
	if tier != model.TierFree {
		return -1, nil
	}
	return s.remainingForFree(userID)
}

func (s *ExportService) remainingForFree(userID uint) (int, error) {
	now := time.Now()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	used, err := s.downloadRepo.CountSince(userID, monthStart)
	if err != nil {
		return 0, err
	}
	remaining := s.freeLimit - int(used)
	if remaining < 0 {
		remaining = 0
	}
	return remaining, nil
}

func injectWatermark(html string) string {
	if strings.Contains(html, "</body>") {
		return strings.Replace(html, "</body>", watermarkMarkup+"</body>", 1)
	}
	return html + watermarkMarkup
}
