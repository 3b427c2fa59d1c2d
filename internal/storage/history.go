package storage

import (
	"context"
	"strings"
	"time"

	"github.com/nikbrunner/spotlight/internal/model"
)

// AddVisit records a visit to url, bumping its visit count.
func (p *Profile) AddVisit(ctx context.Context, url, title string) error {
	return p.addVisitAt(ctx, url, title, time.Now())
}

func (p *Profile) addVisitAt(ctx context.Context, url, title string, at time.Time) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO history (url, title, visit_count, last_visit) VALUES (?, ?, 1, ?)
		ON CONFLICT(url) DO UPDATE SET
			visit_count = visit_count + 1,
			last_visit = excluded.last_visit,
			title = CASE WHEN excluded.title = '' THEN history.title ELSE excluded.title END`,
		url, title, formatTime(at))
	return err
}

func (p *Profile) queryHistory(ctx context.Context, query string, args ...any) ([]model.HistoryRecord, error) {
	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := []model.HistoryRecord{}
	for rows.Next() {
		var r model.HistoryRecord
		var lastVisit string
		if err := rows.Scan(&r.URL, &r.Title, &r.VisitCount, &lastVisit); err != nil {
			return nil, err
		}
		r.LastVisitTime = parseTime(lastVisit)
		records = append(records, r)
	}
	return records, rows.Err()
}

// SearchHistory returns history entries whose title or URL contains query,
// most recent first. limit <= 0 means no limit.
func (p *Profile) SearchHistory(ctx context.Context, query string, limit int) ([]model.HistoryRecord, error) {
	if limit <= 0 {
		limit = -1
	}
	pattern := "%" + escapeLike(strings.ToLower(query)) + "%"
	return p.queryHistory(ctx, `
		SELECT url, title, visit_count, last_visit FROM history
		WHERE lower(title) LIKE ? ESCAPE '\' OR lower(url) LIKE ? ESCAPE '\'
		ORDER BY last_visit DESC
		LIMIT ?`, pattern, pattern, limit)
}

// TopSites returns the most visited history entries.
func (p *Profile) TopSites(ctx context.Context, limit int) ([]model.SiteRecord, error) {
	records, err := p.queryHistory(ctx, `
		SELECT url, title, visit_count, last_visit FROM history
		ORDER BY visit_count DESC, last_visit DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}

	sites := make([]model.SiteRecord, len(records))
	for i, r := range records {
		sites[i] = model.SiteRecord{URL: r.URL, Title: r.Title}
	}
	return sites, nil
}
