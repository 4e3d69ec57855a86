package services

import (
	"encoding/csv"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/a-s-adam/streamlink/pkg/apperrors"
	"github.com/a-s-adam/streamlink/pkg/models"
)

// NetflixRecord is one parsed row of a Netflix viewing activity export.
type NetflixRecord struct {
	Title     string
	Year      *int
	WatchedAt time.Time
	Duration  *int // minutes
	Type      string
	Profile   string
	Raw       map[string]string
}

// NetflixCSVParser parses Netflix viewing history CSV exports.
// Malformed rows are skipped and counted, never fatal to the batch.
type NetflixCSVParser struct {
	logger *zap.Logger
}

// NewNetflixCSVParser creates a Netflix CSV parser.
func NewNetflixCSVParser(logger *zap.Logger) *NetflixCSVParser {
	return &NetflixCSVParser{logger: logger.Named("netflix_csv")}
}

// Parse reads the export and returns the well-formed records plus the
// count of rows that were skipped.
func (p *NetflixCSVParser) Parse(r io.Reader) ([]NetflixRecord, int, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read csv header: %w", err)
	}
	// Header names vary across export vintages; match case-insensitively.
	for i := range header {
		header[i] = strings.ToLower(strings.TrimSpace(header[i]))
	}

	var records []NetflixRecord
	skipped := 0

	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			skipped++
			p.logger.Warn("skipping malformed csv row", zap.Error(err))
			continue
		}

		raw := make(map[string]string, len(header))
		for i, field := range row {
			if i < len(header) {
				raw[header[i]] = field
			}
		}

		rec, err := p.parseRow(raw)
		if err != nil {
			skipped++
			p.logger.Debug("skipping csv row", zap.Error(err))
			continue
		}
		records = append(records, rec)
	}

	p.logger.Info("parsed netflix csv",
		zap.Int("records", len(records)),
		zap.Int("skipped", skipped))

	return records, skipped, nil
}

func (p *NetflixCSVParser) parseRow(raw map[string]string) (NetflixRecord, error) {
	title := strings.TrimSpace(raw["title"])
	if title == "" {
		return NetflixRecord{}, fmt.Errorf("row has no title: %w", apperrors.ErrMalformedRecord)
	}

	watchedAt := parseNetflixDate(raw["date"])

	var duration *int
	if d, ok := parseDuration(raw["duration"]); ok {
		duration = &d
	}

	// Over two hours is almost certainly a movie, under one hour an
	// episode; in between we can't tell.
	itemType := models.TypeUnknown
	if duration != nil {
		switch {
		case *duration > 120:
			itemType = models.TypeMovie
		case *duration < 60:
			itemType = models.TypeTVShow
		}
	}

	title, year := extractTrailingYear(title)

	return NetflixRecord{
		Title:     title,
		Year:      year,
		WatchedAt: watchedAt,
		Duration:  duration,
		Type:      itemType,
		Profile:   strings.TrimSpace(raw["profile name"]),
		Raw:       raw,
	}, nil
}

// parseNetflixDate accepts the two date formats Netflix exports use and
// falls back to now when neither matches.
func parseNetflixDate(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Now().UTC()
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t
	}
	if t, err := time.Parse("1/2/2006", s); err == nil {
		return t
	}
	return time.Now().UTC()
}

var digitsRe = regexp.MustCompile(`\d+`)

// parseDuration converts a Netflix duration string to minutes. Accepts
// "45 min", "1:30:00", "45:00", or a bare number.
func parseDuration(s string) (int, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return 0, false
	}

	if strings.Contains(s, "min") {
		n, err := strconv.Atoi(strings.TrimSpace(strings.ReplaceAll(s, "min", "")))
		if err != nil {
			return 0, false
		}
		return n, true
	}

	if strings.Contains(s, ":") {
		parts := strings.Split(s, ":")
		nums := make([]int, len(parts))
		for i, part := range parts {
			n, err := strconv.Atoi(strings.TrimSpace(part))
			if err != nil {
				return 0, false
			}
			nums[i] = n
		}
		switch len(nums) {
		case 3: // hours:minutes:seconds
			return nums[0]*60 + nums[1] + nums[2]/60, true
		case 2: // minutes:seconds
			return nums[0] + nums[1]/60, true
		}
		return 0, false
	}

	if m := digitsRe.FindString(s); m != "" {
		n, err := strconv.Atoi(m)
		if err != nil {
			return 0, false
		}
		return n, true
	}

	return 0, false
}

// extractTrailingYear pulls a "(year)" suffix out of the title. Years
// outside 1900-2030 are treated as part of the title, not a year.
func extractTrailingYear(title string) (string, *int) {
	start := strings.LastIndex(title, "(")
	end := strings.LastIndex(title, ")")
	if start < 0 || end < start {
		return title, nil
	}

	year, err := strconv.Atoi(strings.TrimSpace(title[start+1 : end]))
	if err != nil || year < 1900 || year > 2030 {
		return title, nil
	}

	cleaned := strings.TrimSpace(title[:start] + title[end+1:])
	if cleaned == "" {
		return title, nil
	}
	return cleaned, &year
}
