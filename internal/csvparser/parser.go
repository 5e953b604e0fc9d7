// =============================================================================
// IFRS Report - Record Parser Module
// =============================================================================
//
// This module is responsible for parsing the IFRS statement extract. The
// extract is a semicolon-delimited text file with no header row and exactly
// nine positional fields per line:
//
//   periodo;codigo_entidad;nombre_entidad;tipo;moneda;cuenta;monto;taxonomia;origen
//
// DECODING:
//   The file is decoded with a single fixed encoding (input.encoding). Invalid
//   byte sequences become U+FFFD and a leading byte order mark is dropped.
//   Decoding problems are never reported to the caller.
//
// MALFORMED LINES:
//   A line with a field count other than nine is handled according to
//   input.malformed_rows:
//   - "reject": Parse fails with a *MalformedRowError (default)
//   - "skip"  : the line is dropped and listed in Data.Skipped
//
// All fields are kept verbatim as text. Numeric coercion happens later in the
// converter.
//
// =============================================================================

package csvparser

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	"github.com/ginjaninja78/ifrs-report/internal/config"
	"github.com/ginjaninja78/ifrs-report/internal/types"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Delimiter separates the fields of one line.
const Delimiter = ';'

// =============================================================================
// ERRORS
// =============================================================================

// MalformedRowError reports a line whose field count is not types.FieldCount.
type MalformedRowError struct {
	Line   int
	Fields int
}

func (e *MalformedRowError) Error() string {
	return fmt.Sprintf("line %d: expected %d fields, found %d", e.Line, types.FieldCount, e.Fields)
}

// =============================================================================
// PARSED DATA
// =============================================================================

// SkippedRow is a malformed line dropped under the "skip" policy.
type SkippedRow struct {
	Line   int
	Fields int
}

// Data is the parsed content of one extract.
type Data struct {
	// Records are the well-formed lines in file order.
	Records []types.RawRecord

	// Skipped lists the malformed lines dropped under the "skip" policy.
	Skipped []SkippedRow

	// LineCount is the number of non-blank lines read.
	LineCount int
}

// =============================================================================
// PARSER FUNCTIONS
// =============================================================================

// Parse decodes and splits the raw content of an extract.
//
// PARAMETERS:
//   - content: The raw bytes of the uploaded file.
//   - settings: The input settings (encoding and malformed-row policy).
//
// RETURNS:
//   - A pointer to the Data struct containing the parsed records.
//   - An error if the encoding is unknown, the policy is unknown, or a
//     malformed line is found under the "reject" policy.
func Parse(content []byte, settings config.InputSettings) (*Data, error) {
	reader, err := NewReader(bytes.NewReader(content), settings)
	if err != nil {
		return nil, err
	}

	data := &Data{Records: []types.RawRecord{}}
	for reader.Next() {
		data.Records = append(data.Records, reader.Record())
	}
	if err := reader.Err(); err != nil {
		return nil, err
	}

	data.Skipped = reader.Skipped()
	data.LineCount = reader.LineCount()
	return data, nil
}

// Decoder returns the lossy decoder for the named encoding. An empty name
// selects config.DefaultEncoding.
func Decoder(name string) (*encoding.Decoder, error) {
	if name == "" {
		name = config.DefaultEncoding
	}

	enc, err := htmlindex.Get(name)
	if err != nil {
		return nil, fmt.Errorf("unsupported encoding %q: %w", name, err)
	}

	// BOMOverride switches to UTF-8/UTF-16 when the content starts with a
	// byte order mark and strips the mark itself.
	return &encoding.Decoder{Transformer: unicode.BOMOverride(enc.NewDecoder())}, nil
}

// =============================================================================
// RECORD READER
// =============================================================================

// Reader reads raw records one line at a time.
//
// USAGE:
//   reader, err := NewReader(file, settings)
//   if err != nil {
//       return err
//   }
//
//   for reader.Next() {
//       record := reader.Record()
//       // Process the record...
//   }
//
//   if err := reader.Err(); err != nil {
//       return err
//   }
type Reader struct {
	reader    *csv.Reader
	skip      bool
	current   types.RawRecord
	skipped   []SkippedRow
	lineCount int
	err       error
}

// NewReader creates a Reader over r.
func NewReader(r io.Reader, settings config.InputSettings) (*Reader, error) {
	skip, err := skipMalformed(settings.MalformedRows)
	if err != nil {
		return nil, err
	}

	decoder, err := Decoder(settings.Encoding)
	if err != nil {
		return nil, err
	}

	csvReader := csv.NewReader(transform.NewReader(r, decoder))
	configureReader(csvReader)

	return &Reader{reader: csvReader, skip: skip}, nil
}

// configureReader configures the CSV reader for the extract format.
func configureReader(reader *csv.Reader) {
	reader.Comma = Delimiter

	// The field count is checked by Next so that the policy can decide.
	reader.FieldsPerRecord = -1

	// Entity names occasionally carry stray quotes.
	reader.LazyQuotes = true

	// Fields are kept verbatim.
	reader.TrimLeadingSpace = false
}

// Next advances to the next well-formed record. It returns false at the end
// of the input or on error.
func (p *Reader) Next() bool {
	if p.err != nil {
		return false
	}

	for {
		fields, err := p.reader.Read()
		if err == io.EOF {
			return false
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				p.err = fmt.Errorf("line %d: %w", parseErr.StartLine, parseErr.Err)
			} else {
				p.err = fmt.Errorf("failed to read input: %w", err)
			}
			return false
		}

		p.lineCount++
		line, _ := p.reader.FieldPos(0)

		if len(fields) != types.FieldCount {
			if !p.skip {
				p.err = &MalformedRowError{Line: line, Fields: len(fields)}
				return false
			}
			p.skipped = append(p.skipped, SkippedRow{Line: line, Fields: len(fields)})
			continue
		}

		p.current = types.NewRawRecord(fields, line)
		return true
	}
}

// Record returns the current record.
func (p *Reader) Record() types.RawRecord {
	return p.current
}

// Skipped returns the malformed lines dropped so far.
func (p *Reader) Skipped() []SkippedRow {
	return p.skipped
}

// LineCount returns the number of non-blank lines read so far.
func (p *Reader) LineCount() int {
	return p.lineCount
}

// Err returns the error that stopped the reader, if any.
func (p *Reader) Err() error {
	return p.err
}

func skipMalformed(policy string) (bool, error) {
	switch policy {
	case "", config.MalformedReject:
		return false, nil
	case config.MalformedSkip:
		return true, nil
	default:
		return false, fmt.Errorf("unknown malformed_rows policy %q", policy)
	}
}
