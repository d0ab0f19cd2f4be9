package records

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/afero"
)

// SeedRecord is one row of the startup dataset: a record candidate without
// an identifier. The seed file's own id column is advisory and dropped at
// parse time; the store always assigns ids itself.
type SeedRecord struct {
	Name          string
	Age           int
	Condition     string
	AdmissionDate string
}

var seedHeader = []string{"id", "name", "age", "condition", "admission_date"}

// LoadSeedFile reads and validates a seed CSV. Rows must satisfy the same
// rules as the create endpoint; a malformed file is rejected whole so no
// partial or out-of-range dataset can reach the store.
func LoadSeedFile(fsys afero.Fs, path string) ([]SeedRecord, error) {
	f, err := fsys.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	rows, err := parseSeed(f)
	if err != nil {
		return nil, fmt.Errorf("seed file %s: %w", path, err)
	}
	return rows, nil
}

func parseSeed(r io.Reader) ([]SeedRecord, error) {
	cr := csv.NewReader(r)

	header, err := cr.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if len(header) != len(seedHeader) {
		return nil, fmt.Errorf("header has %d columns, want %d", len(header), len(seedHeader))
	}
	for i, want := range seedHeader {
		if strings.TrimSpace(header[i]) != want {
			return nil, fmt.Errorf("header column %d is %q, want %q", i+1, header[i], want)
		}
	}

	var rows []SeedRecord
	line := 1
	for {
		fields, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", line, err)
		}
		age, err := strconv.Atoi(strings.TrimSpace(fields[2]))
		if err != nil {
			return nil, fmt.Errorf("row %d: age %q is not an integer", line, fields[2])
		}
		row := SeedRecord{
			Name:          strings.TrimSpace(fields[1]),
			Age:           age,
			Condition:     strings.TrimSpace(fields[3]),
			AdmissionDate: strings.TrimSpace(fields[4]),
		}
		if verr := validateRecord(row.Name, row.Age, row.AdmissionDate); verr != nil {
			return nil, fmt.Errorf("row %d: %w", line, verr)
		}
		rows = append(rows, row)
	}
	return rows, nil
}
