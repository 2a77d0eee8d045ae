// Package importer reads user import files.
package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/eatwhat/eatwhat-api/internal/core/ports"
)

// ErrEmptyFile is returned when the input has no header row.
var ErrEmptyFile = errors.New("import file is empty")

// ReadUsers parses a username,email,role CSV. The first row is a header and
// is skipped. The role column may be missing or blank; the importer decides
// the fallback. Records carry their 1-based line number.
func ReadUsers(r io.Reader) ([]ports.UserRecord, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = true

	if _, err := cr.Read(); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrEmptyFile
		}
		return nil, fmt.Errorf("read header: %w", err)
	}

	records := make([]ports.UserRecord, 0)
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		line, _ := cr.FieldPos(0)

		rec := ports.UserRecord{Line: line, Username: field(row, 0), Email: field(row, 1), Role: field(row, 2)}
		records = append(records, rec)
	}
	return records, nil
}

// ReadUsersFile opens path and parses it with ReadUsers.
func ReadUsersFile(path string) ([]ports.UserRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	return ReadUsers(f)
}

func field(row []string, i int) string {
	if i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}
