// Package manifest reads the spreadsheet that lists videos to ingest.
package manifest

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/go-playground/validator/v10"
	"golang.org/x/text/unicode/norm"
)

// Row is one manifest entry. Missing optional cells are empty strings.
type Row struct {
	// Line is the 1-based sheet row, for diagnostics.
	Line int

	ID            string
	VideoFileName string `validate:"required_without=ImageFileName"`
	ImageFileName string
	Title         string `validate:"required"`
	Description   string

	// CreatedDate is nil when the date cell is empty.
	CreatedDate *time.Time
	// DateErr is set when the date cell is present but cannot be decoded.
	DateErr error
}

var validate = validator.New()

// Validate reports the first set of problems that make the row unusable:
// missing title, missing both file names, or an undecodable date.
func (r Row) Validate() error {
	var problems []string

	if err := validate.Struct(r); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return err
		}
		for _, fe := range verrs {
			switch fe.Field() {
			case "Title":
				problems = append(problems, "title is required")
			case "VideoFileName":
				problems = append(problems, "videoFileName or imageFileName is required")
			default:
				problems = append(problems, fe.Error())
			}
		}
	}
	if r.DateErr != nil {
		problems = append(problems, "invalid createdDate: "+r.DateErr.Error())
	}

	if len(problems) == 0 {
		return nil
	}
	return errors.New(strings.Join(problems, "; "))
}

type column int

const (
	colID column = iota
	colVideoFileName
	colImageFileName
	colTitle
	colDescription
	colCreatedDate
	numColumns
)

// headerAliases maps normalized header text to a column.
var headerAliases = map[string]column{
	"id":            colID,
	"인덱스":           colID,
	"videofilename": colVideoFileName,
	"원본영상파일이름":      colVideoFileName,
	"imagefilename": colImageFileName,
	"원본이미지파일이름":     colImageFileName,
	"title":         colTitle,
	"영상제목":          colTitle,
	"description":   colDescription,
	"영상설명":          colDescription,
	"createddate":   colCreatedDate,
	"date":          colCreatedDate,
	"날짜":            colCreatedDate,
}

// normalizeHeader folds case and drops spaces, underscores and dashes so
// "Video File Name", "video_file_name" and "videoFileName" all match.
func normalizeHeader(h string) string {
	h = norm.NFC.String(h)
	var b strings.Builder
	for _, r := range h {
		if unicode.IsSpace(r) || r == '_' || r == '-' {
			continue
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}

// FromRecords maps raw sheet records into rows. The first record is the
// header; unknown columns are ignored and blank rows are dropped.
func FromRecords(records [][]string) ([]Row, error) {
	if len(records) == 0 {
		return nil, errors.New("manifest: no header row")
	}

	index := make([]int, numColumns)
	for i := range index {
		index[i] = -1
	}
	for i, h := range records[0] {
		col, ok := headerAliases[normalizeHeader(h)]
		if !ok || index[col] != -1 {
			continue
		}
		index[col] = i
	}
	if index[colID] == -1 {
		return nil, fmt.Errorf("manifest: header has no id column (got %q)", records[0])
	}

	rows := make([]Row, 0, len(records)-1)
	for i, rec := range records[1:] {
		if isBlank(rec) {
			continue
		}
		cell := func(c column) string {
			idx := index[c]
			if idx < 0 || idx >= len(rec) {
				return ""
			}
			return strings.TrimSpace(norm.NFC.String(rec[idx]))
		}

		row := Row{
			Line:          i + 2,
			ID:            cell(colID),
			VideoFileName: cell(colVideoFileName),
			ImageFileName: cell(colImageFileName),
			Title:         cell(colTitle),
			Description:   cell(colDescription),
		}
		if raw := cell(colCreatedDate); raw != "" {
			t, err := DecodeDate(raw)
			if err != nil {
				row.DateErr = err
			} else {
				row.CreatedDate = &t
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func isBlank(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
