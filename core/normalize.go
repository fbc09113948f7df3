// Copyright (c) 2026 Warden Team
// Warden - application control policy toolkit
// This source code is licensed under the MIT license found in the LICENSE file.

package core

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"strconv"
	"strings"

	"github.com/wardenhq/warden/core/model"
)

// ArtifactFormat tags the wire format of a raw scan artifact.
type ArtifactFormat string

const (
	// FormatCSV is a delimited file with a header row.
	FormatCSV ArtifactFormat = "csv"

	// FormatJSON is a flat JSON array of inventory objects.
	FormatJSON ArtifactFormat = "json"

	// FormatScan is the comprehensive-scan JSON object with named arrays
	// (executables, writableExecutables, eventLog, software).
	FormatScan ArtifactFormat = "scan"
)

// NormalizeResult is the successful output of artifact normalization.
// Skipped records are part of the success path and never raise an error.
type NormalizeResult struct {
	Records []model.InventoryRecord
	Skipped []model.SkippedRecord
}

// recordField enumerates the semantic columns the normalizer recognizes.
// CSV headers map onto this fixed set through an explicit lookup table;
// unmatched headers stay inert strings and are never used to set fields
// dynamically.
type recordField int

const (
	fieldName recordField = iota
	fieldPublisher
	fieldPath
	fieldVersion
	fieldType
	fieldHash
	fieldNone // inert column
)

// headerLookup maps recognized CSV header names (lowercased) to semantic
// fields.
var headerLookup = map[string]recordField{
	"name":      fieldName,
	"publisher": fieldPublisher,
	"path":      fieldPath,
	"version":   fieldVersion,
	"type":      fieldType,
	"hash":      fieldHash,
}

// reservedHeaders are header names that naive dynamic-property mappers
// would resolve to inherited object members. They are accepted as inert
// string keys but never mapped to a semantic field.
var reservedHeaders = map[string]bool{
	"__proto__":   true,
	"prototype":   true,
	"constructor": true,
}

// positionalFields is the fallback column meaning for unrecognized headers
// at indexes 0-4.
var positionalFields = []recordField{fieldName, fieldPublisher, fieldPath, fieldVersion, fieldType}

// extensionCollections infers the collection type from a file extension.
var extensionCollections = map[string]model.CollectionType{
	".exe":  model.CollectionExe,
	".com":  model.CollectionExe,
	".msi":  model.CollectionMsi,
	".msp":  model.CollectionMsi,
	".ps1":  model.CollectionScript,
	".bat":  model.CollectionScript,
	".cmd":  model.CollectionScript,
	".vbs":  model.CollectionScript,
	".js":   model.CollectionScript,
	".dll":  model.CollectionDll,
	".ocx":  model.CollectionDll,
	".appx": model.CollectionAppx,
	".msix": model.CollectionAppx,
}

// collectionNames maps explicit type column values (lowercased) to
// collection types.
var collectionNames = map[string]model.CollectionType{
	"exe":    model.CollectionExe,
	"msi":    model.CollectionMsi,
	"script": model.CollectionScript,
	"dll":    model.CollectionDll,
	"appx":   model.CollectionAppx,
}

// NormalizeArtifact parses a raw scan artifact into canonical inventory
// records. A malformed top-level document fails the whole call with a
// *model.ParseError; individual bad rows or elements are skipped and
// reported in the result instead.
func NormalizeArtifact(data []byte, format ArtifactFormat, source string) (*NormalizeResult, error) {
	switch format {
	case FormatCSV:
		return normalizeCSV(data, source)
	case FormatJSON:
		return normalizeJSONArray(data, source)
	case FormatScan:
		return normalizeScanReport(data, source)
	default:
		return nil, &model.ParseError{Format: string(format), Msg: "unsupported artifact format"}
	}
}

// normalizeCSV parses a delimited artifact. The first row is the header;
// recognized column names are matched case-insensitively, unrecognized
// columns fall back to their positional meaning for indexes 0-4, and a
// ragged data row is skipped with a warning rather than failing the file.
func normalizeCSV(data []byte, source string) (*NormalizeResult, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1 // ragged rows are handled per-row below
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		var perr *csv.ParseError
		line := 0
		if errors.As(err, &perr) {
			line = perr.Line
		}
		return nil, &model.ParseError{Format: string(FormatCSV), Line: line, Msg: "malformed CSV document", Err: err}
	}
	if len(rows) == 0 {
		return nil, &model.ParseError{Format: string(FormatCSV), Msg: "empty document: missing header row"}
	}

	header := rows[0]
	columns := make([]recordField, len(header))
	claimed := make(map[recordField]bool)
	for i, name := range header {
		columns[i] = fieldNone
		key := strings.ToLower(strings.TrimSpace(name))
		if reservedHeaders[key] {
			continue
		}
		field, ok := headerLookup[key]
		if !ok && i < len(positionalFields) {
			field, ok = positionalFields[i], true
		}
		if ok && !claimed[field] {
			columns[i] = field
			claimed[field] = true
		}
	}

	result := &NormalizeResult{}
	for rowIdx, row := range rows[1:] {
		recordIdx := rowIdx + 1
		if len(row) != len(header) {
			result.Skipped = append(result.Skipped, model.SkippedRecord{
				Index:  recordIdx,
				Source: source,
				Reason: model.SkipRaggedRow,
				Detail: fmt.Sprintf("%d fields, header has %d", len(row), len(header)),
			})
			continue
		}
		raw := rawRecord{}
		for i, value := range row {
			raw.set(columns[i], strings.TrimSpace(value))
		}
		appendRecord(result, raw, recordIdx, source)
	}
	return result, nil
}

// jsonRecord is the shape of one inventory element in JSON artifacts.
type jsonRecord struct {
	Name      string `json:"name"`
	Publisher string `json:"publisher"`
	Path      string `json:"path"`
	Version   string `json:"version"`
	Type      string `json:"type"`
	Hash      string `json:"hash"`
	Size      int64  `json:"size"`
}

// normalizeJSONArray parses a flat JSON array artifact. Elements missing
// both path and hash are dropped and counted as skipped, never an error.
func normalizeJSONArray(data []byte, source string) (*NormalizeResult, error) {
	var elements []jsonRecord
	if err := json.Unmarshal(data, &elements); err != nil {
		return nil, jsonParseError(FormatJSON, err)
	}

	result := &NormalizeResult{}
	for i, el := range elements {
		if el.Path == "" && el.Hash == "" {
			result.Skipped = append(result.Skipped, model.SkippedRecord{
				Index:  i,
				Source: source,
				Reason: model.SkipMissingPathAndHash,
				Detail: "element carries neither path nor hash",
			})
			continue
		}
		appendRecord(result, rawRecordFromJSON(el), i, source)
	}
	return result, nil
}

// scanReport is the comprehensive-scan JSON document: several named arrays
// collected by different probes on the same host.
type scanReport struct {
	Executables         []jsonRecord `json:"executables"`
	WritableExecutables []jsonRecord `json:"writableExecutables"`
	EventLog            []jsonRecord `json:"eventLog"`
	Software            []jsonRecord `json:"software"`
}

// normalizeScanReport parses a comprehensive-scan document. All recognized
// arrays are concatenated; exact-match case-insensitive path dedup happens
// here and only here - finer duplicate detection is the duplicate
// detector's job, downstream of rule synthesis.
func normalizeScanReport(data []byte, source string) (*NormalizeResult, error) {
	var report scanReport
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, jsonParseError(FormatScan, err)
	}

	var combined []jsonRecord
	combined = append(combined, report.Executables...)
	combined = append(combined, report.WritableExecutables...)
	combined = append(combined, report.EventLog...)
	combined = append(combined, report.Software...)

	result := &NormalizeResult{}
	seenPaths := make(map[string]bool, len(combined))
	for i, el := range combined {
		if el.Path == "" && el.Hash == "" {
			result.Skipped = append(result.Skipped, model.SkippedRecord{
				Index:  i,
				Source: source,
				Reason: model.SkipMissingPathAndHash,
				Detail: "element carries neither path nor hash",
			})
			continue
		}
		if el.Path != "" {
			key := model.NormalizePath(el.Path)
			if seenPaths[key] {
				result.Skipped = append(result.Skipped, model.SkippedRecord{
					Index:  i,
					Source: source,
					Reason: model.SkipDuplicatePath,
					Detail: el.Path,
				})
				continue
			}
			seenPaths[key] = true
		}
		appendRecord(result, rawRecordFromJSON(el), i, source)
	}
	return result, nil
}

// rawRecord is the format-independent intermediate between a parsed row or
// element and a canonical InventoryRecord.
type rawRecord struct {
	name      string
	publisher string
	path      string
	version   string
	typeName  string
	hash      string
	size      int64
}

func (r *rawRecord) set(field recordField, value string) {
	switch field {
	case fieldName:
		r.name = value
	case fieldPublisher:
		r.publisher = value
	case fieldPath:
		r.path = value
	case fieldVersion:
		r.version = value
	case fieldType:
		r.typeName = value
	case fieldHash:
		r.hash = value
	}
}

func rawRecordFromJSON(el jsonRecord) rawRecord {
	return rawRecord{
		name:      strings.TrimSpace(el.Name),
		publisher: strings.TrimSpace(el.Publisher),
		path:      strings.TrimSpace(el.Path),
		version:   strings.TrimSpace(el.Version),
		typeName:  strings.TrimSpace(el.Type),
		hash:      strings.TrimSpace(el.Hash),
		size:      el.Size,
	}
}

// appendRecord converts a raw record into an InventoryRecord and appends
// it to the result, or records a skip when the collection type cannot be
// determined.
func appendRecord(result *NormalizeResult, raw rawRecord, index int, source string) {
	collection, ok := inferCollection(raw.typeName, raw.path)
	if !ok {
		result.Skipped = append(result.Skipped, model.SkippedRecord{
			Index:  index,
			Source: source,
			Reason: model.SkipUnknownExtension,
			Detail: fmt.Sprintf("type %q, path %q", raw.typeName, raw.path),
		})
		return
	}

	name := raw.name
	if name == "" {
		name = baseName(raw.path)
	}
	var publisher *model.PublisherIdentity
	if raw.publisher != "" {
		publisher = &model.PublisherIdentity{
			Subject:    raw.publisher,
			BinaryName: baseName(raw.path),
		}
	}
	result.Records = append(result.Records, model.InventoryRecord{
		ID:             source + "#" + strconv.Itoa(index),
		DisplayName:    name,
		Publisher:      publisher,
		FilePath:       raw.path,
		FileHash:       raw.hash,
		FileSize:       raw.size,
		Collection:     collection,
		SourceArtifact: source,
	})
}

// inferCollection resolves the collection type from an explicit type value
// when present, falling back to the file extension.
func inferCollection(typeName, filePath string) (model.CollectionType, bool) {
	if typeName != "" {
		if ct, ok := collectionNames[strings.ToLower(typeName)]; ok {
			return ct, true
		}
	}
	ext := strings.ToLower(path.Ext(strings.ReplaceAll(filePath, `\`, "/")))
	ct, ok := extensionCollections[ext]
	return ct, ok
}

// baseName returns the final path element regardless of separator style.
func baseName(p string) string {
	if p == "" {
		return ""
	}
	return path.Base(strings.ReplaceAll(p, `\`, "/"))
}

// jsonParseError converts a JSON decoding failure into a *model.ParseError
// carrying the byte offset when the standard library exposes one.
func jsonParseError(format ArtifactFormat, err error) error {
	var offset int64
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.As(err, &syntaxErr):
		offset = syntaxErr.Offset
	case errors.As(err, &typeErr):
		offset = typeErr.Offset
	}
	return &model.ParseError{Format: string(format), Offset: offset, Msg: "malformed JSON document", Err: err}
}
