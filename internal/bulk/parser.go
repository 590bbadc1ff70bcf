package bulk

import (
	"encoding/csv"
	"errors"
	"io"
	"strings"

	"github.com/spec-kit/roster-service/internal/domain"
	apperrors "github.com/spec-kit/roster-service/pkg/util/errorutil"
)

// Logical column names resolved from CSV headers.
const (
	ColumnFirstName        = "first_name"
	ColumnLastName         = "last_name"
	ColumnEmail            = "email"
	ColumnRelationshipType = "relationship_type"
	ColumnRoles            = "roles"
)

// Stable error codes surfaced by parsing and enqueueing.
const (
	CodeMissingColumns = "MISSING_COLUMNS"
	CodeEmptyFile      = "EMPTY_FILE"
	CodeDuplicateJob   = "DUPLICATE_JOB"
)

// ColumnDef maps a logical column to its accepted header aliases.
type ColumnDef struct {
	Name     string
	Aliases  []string
	Required bool
}

// DefaultColumns returns the column definitions for roster uploads.
func DefaultColumns() []ColumnDef {
	return []ColumnDef{
		{Name: ColumnFirstName, Aliases: []string{"first name", "firstname", "first", "given name"}, Required: true},
		{Name: ColumnLastName, Aliases: []string{"last name", "lastname", "last", "surname", "family name"}, Required: true},
		{Name: ColumnEmail, Aliases: []string{"email", "email address", "e-mail"}, Required: true},
		{Name: ColumnRelationshipType, Aliases: []string{"relationship", "relationship type", "type"}},
		{Name: ColumnRoles, Aliases: []string{"roles", "role"}},
	}
}

// Parser validates and streams a roster CSV into upload rows.
type Parser struct {
	columns []ColumnDef
}

// NewParser builds a parser over the given column definitions.
func NewParser(columns []ColumnDef) *Parser {
	if len(columns) == 0 {
		columns = DefaultColumns()
	}
	return &Parser{columns: columns}
}

// Parse reads the header, resolves aliases to logical columns, and collects
// the data rows verbatim. Fully blank rows are skipped. Row fields are not
// validated here; the engine rejects bad rows per batch.
func (p *Parser) Parse(r io.Reader) ([]domain.UploadRow, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, apperrors.NewValidationWithCode(CodeEmptyFile, "file has no header row", nil)
		}
		return nil, apperrors.NewValidationError("unreadable CSV header", map[string]any{"cause": err.Error()})
	}

	indexes, err := p.resolveHeader(header)
	if err != nil {
		return nil, err
	}

	var rows []domain.UploadRow
	line := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, apperrors.NewValidationError("unreadable CSV row", map[string]any{"line": line, "cause": err.Error()})
		}
		if blankRecord(record) {
			continue
		}
		rows = append(rows, domain.UploadRow{
			Line:             line,
			FirstName:        cell(record, indexes[ColumnFirstName]),
			LastName:         cell(record, indexes[ColumnLastName]),
			Email:            cell(record, indexes[ColumnEmail]),
			RelationshipType: cell(record, indexes[ColumnRelationshipType]),
			Roles:            splitRoles(cell(record, indexes[ColumnRoles])),
		})
	}

	if len(rows) == 0 {
		return nil, apperrors.NewValidationWithCode(CodeEmptyFile, "file contains no data rows", nil)
	}
	return rows, nil
}

// resolveHeader matches each logical column against the header using
// case/whitespace/punctuation-insensitive alias comparison.
func (p *Parser) resolveHeader(header []string) (map[string]int, error) {
	normalized := make([]string, len(header))
	for i, cell := range header {
		normalized[i] = normalizeHeader(cell)
	}

	indexes := make(map[string]int, len(p.columns))
	var missing []string
	for _, col := range p.columns {
		indexes[col.Name] = -1
		for i, got := range normalized {
			if got == normalizeHeader(col.Name) || aliasMatch(col.Aliases, got) {
				indexes[col.Name] = i
				break
			}
		}
		if col.Required && indexes[col.Name] < 0 {
			missing = append(missing, col.Name)
		}
	}
	if len(missing) > 0 {
		return nil, apperrors.NewValidationWithCode(CodeMissingColumns,
			"required columns missing", map[string]any{"columns": missing})
	}
	return indexes, nil
}

func aliasMatch(aliases []string, normalizedHeader string) bool {
	for _, alias := range aliases {
		if normalizeHeader(alias) == normalizedHeader {
			return true
		}
	}
	return false
}

// normalizeHeader lowercases and strips everything but letters and digits.
func normalizeHeader(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func blankRecord(record []string) bool {
	for _, field := range record {
		if strings.TrimSpace(field) != "" {
			return false
		}
	}
	return true
}

func cell(record []string, index int) string {
	if index < 0 || index >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[index])
}

// splitRoles splits a roles cell on semicolons or pipes.
func splitRoles(raw string) []string {
	if raw == "" {
		return nil
	}
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ';' || r == '|'
	})
	out := make([]string, 0, len(fields))
	for _, field := range fields {
		if trimmed := strings.TrimSpace(field); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
