// Copyright (c) 2026 Warden Team
// Warden - application control policy toolkit
// This source code is licensed under the MIT license found in the LICENSE file.
package core

import (
	"errors"
	"testing"

	"github.com/wardenhq/warden/core/model"
)

func TestNormalizeArtifactCSV(t *testing.T) {
	data := []byte("Name,Publisher,Path,Version,Type,Hash\n" +
		"Widget,O=Contoso Ltd,C:\\Program Files\\Widget\\widget.exe,1.2.3,exe,\n" +
		"Installer,,C:\\Temp\\setup.msi,,,AABB\n")

	result, err := NormalizeArtifact(data, FormatCSV, "inv.csv")
	if err != nil {
		t.Fatalf("NormalizeArtifact: %v", err)
	}
	if len(result.Records) != 2 || len(result.Skipped) != 0 {
		t.Fatalf("got %d records, %d skipped, want 2 and 0", len(result.Records), len(result.Skipped))
	}

	first := result.Records[0]
	if first.ID != "inv.csv#1" {
		t.Errorf("ID = %q, want inv.csv#1", first.ID)
	}
	if first.Collection != model.CollectionExe {
		t.Errorf("Collection = %q, want Exe", first.Collection)
	}
	if first.Publisher == nil || first.Publisher.Subject != "O=Contoso Ltd" {
		t.Errorf("Publisher = %#v, want subject preserved verbatim", first.Publisher)
	}
	if first.Publisher.BinaryName != "widget.exe" {
		t.Errorf("BinaryName = %q, want widget.exe", first.Publisher.BinaryName)
	}

	second := result.Records[1]
	if second.Collection != model.CollectionMsi {
		t.Errorf("Collection = %q, want Msi (inferred from .msi)", second.Collection)
	}
	if second.Publisher != nil {
		t.Errorf("Publisher = %#v, want nil for empty column", second.Publisher)
	}
	if second.FileHash != "AABB" {
		t.Errorf("FileHash = %q, want AABB", second.FileHash)
	}
}

func TestNormalizeCSVHeaderHandling(t *testing.T) {
	t.Run("headers match case-insensitively", func(t *testing.T) {
		data := []byte("PATH,NAME\nC:\\bin\\tool.exe,Tool\n")
		result, err := NormalizeArtifact(data, FormatCSV, "a.csv")
		if err != nil {
			t.Fatalf("NormalizeArtifact: %v", err)
		}
		if len(result.Records) != 1 {
			t.Fatalf("got %d records, want 1", len(result.Records))
		}
		if result.Records[0].FilePath != "C:\\bin\\tool.exe" || result.Records[0].DisplayName != "Tool" {
			t.Fatalf("columns not mapped by header name: %#v", result.Records[0])
		}
	})

	t.Run("unrecognized headers fall back to position", func(t *testing.T) {
		data := []byte("ColA,ColB,ColC\nTool,O=Contoso Ltd,C:\\bin\\tool.exe\n")
		result, err := NormalizeArtifact(data, FormatCSV, "a.csv")
		if err != nil {
			t.Fatalf("NormalizeArtifact: %v", err)
		}
		if len(result.Records) != 1 {
			t.Fatalf("got %d records, want 1", len(result.Records))
		}
		rec := result.Records[0]
		if rec.DisplayName != "Tool" || rec.FilePath != "C:\\bin\\tool.exe" {
			t.Fatalf("positional fallback not applied: %#v", rec)
		}
	})

	t.Run("reserved header names are inert", func(t *testing.T) {
		data := []byte("__proto__,path\npoison,C:\\bin\\tool.exe\n")
		result, err := NormalizeArtifact(data, FormatCSV, "a.csv")
		if err != nil {
			t.Fatalf("NormalizeArtifact: %v", err)
		}
		if len(result.Records) != 1 {
			t.Fatalf("got %d records, want 1", len(result.Records))
		}
		// The reserved column must not be treated positionally as the name.
		if result.Records[0].DisplayName == "poison" {
			t.Fatal("reserved header was mapped to a field")
		}
	})
}

func TestNormalizeCSVRaggedRow(t *testing.T) {
	data := []byte("name,publisher,path\n" +
		"Widget,O=Contoso Ltd,C:\\bin\\widget.exe\n" +
		"short,row\n" +
		"Tool,O=Fabrikam Inc,C:\\bin\\tool.exe\n")

	result, err := NormalizeArtifact(data, FormatCSV, "inv.csv")
	if err != nil {
		t.Fatalf("NormalizeArtifact: %v", err)
	}
	if len(result.Records) != 2 {
		t.Fatalf("got %d records, want 2 (ragged row skipped)", len(result.Records))
	}
	if len(result.Skipped) != 1 {
		t.Fatalf("got %d skipped, want 1", len(result.Skipped))
	}
	skip := result.Skipped[0]
	if skip.Reason != model.SkipRaggedRow {
		t.Errorf("Reason = %q, want %q", skip.Reason, model.SkipRaggedRow)
	}
	if skip.Index != 2 {
		t.Errorf("Index = %d, want 2", skip.Index)
	}
}

func TestNormalizeCSVEmptyDocument(t *testing.T) {
	_, err := NormalizeArtifact(nil, FormatCSV, "empty.csv")
	var perr *model.ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("error = %T (%v), want *model.ParseError", err, err)
	}
}

func TestNormalizeArtifactJSON(t *testing.T) {
	data := []byte(`[
		{"name":"Widget","publisher":"O=Contoso Ltd","path":"C:\\bin\\widget.exe","hash":"","size":100},
		{"name":"Orphan","publisher":"O=Nobody"},
		{"name":"HashOnly","hash":"ABCD","type":"dll","size":42}
	]`)

	result, err := NormalizeArtifact(data, FormatJSON, "inv.json")
	if err != nil {
		t.Fatalf("NormalizeArtifact: %v", err)
	}
	if len(result.Records) != 2 {
		t.Fatalf("got %d records, want 2", len(result.Records))
	}
	if len(result.Skipped) != 1 || result.Skipped[0].Reason != model.SkipMissingPathAndHash {
		t.Fatalf("skipped = %#v, want one missing-path-and-hash skip", result.Skipped)
	}
	hashOnly := result.Records[1]
	if hashOnly.Collection != model.CollectionDll {
		t.Errorf("Collection = %q, want Dll (explicit type wins without a path)", hashOnly.Collection)
	}
	if hashOnly.FileSize != 42 {
		t.Errorf("FileSize = %d, want 42", hashOnly.FileSize)
	}
}

func TestNormalizeArtifactJSONMalformed(t *testing.T) {
	_, err := NormalizeArtifact([]byte(`[{"name":`), FormatJSON, "bad.json")
	var perr *model.ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("error = %T (%v), want *model.ParseError", err, err)
	}
	if perr.Offset == 0 {
		t.Errorf("ParseError.Offset = 0, want byte offset from the decoder")
	}
}

func TestNormalizeArtifactScanReport(t *testing.T) {
	data := []byte(`{
		"executables": [
			{"name":"Widget","publisher":"O=Contoso Ltd","path":"C:\\bin\\widget.exe"}
		],
		"writableExecutables": [
			{"name":"Widget again","path":"c:/BIN/widget.exe"}
		],
		"eventLog": [
			{"name":"Script","path":"C:\\scripts\\run.ps1"}
		],
		"software": [
			{"name":"NoIdentity"}
		]
	}`)

	result, err := NormalizeArtifact(data, FormatScan, "host1.json")
	if err != nil {
		t.Fatalf("NormalizeArtifact: %v", err)
	}
	if len(result.Records) != 2 {
		t.Fatalf("got %d records, want 2 (case-insensitive path dedup)", len(result.Records))
	}
	reasons := map[model.SkipReason]int{}
	for _, s := range result.Skipped {
		reasons[s.Reason]++
	}
	if reasons[model.SkipDuplicatePath] != 1 {
		t.Errorf("duplicate-path skips = %d, want 1", reasons[model.SkipDuplicatePath])
	}
	if reasons[model.SkipMissingPathAndHash] != 1 {
		t.Errorf("missing-identity skips = %d, want 1", reasons[model.SkipMissingPathAndHash])
	}
	if result.Records[1].Collection != model.CollectionScript {
		t.Errorf("Collection = %q, want Script for .ps1", result.Records[1].Collection)
	}
}

func TestNormalizeArtifactUnknownFormat(t *testing.T) {
	_, err := NormalizeArtifact([]byte(`[]`), ArtifactFormat("xml"), "inv.xml")
	if err == nil {
		t.Fatal("NormalizeArtifact accepted an unknown format")
	}
}

func TestInferCollection(t *testing.T) {
	cases := []struct {
		name     string
		typeName string
		path     string
		want     model.CollectionType
		ok       bool
	}{
		{name: "explicit type wins over extension", typeName: "dll", path: "a.exe", want: model.CollectionDll, ok: true},
		{name: "exe extension", path: `c:\bin\a.EXE`, want: model.CollectionExe, ok: true},
		{name: "com extension", path: `c:\bin\a.com`, want: model.CollectionExe, ok: true},
		{name: "msp extension", path: `c:\patch\a.msp`, want: model.CollectionMsi, ok: true},
		{name: "vbs extension", path: `c:\s\a.vbs`, want: model.CollectionScript, ok: true},
		{name: "appx extension", path: `c:\apps\a.appx`, want: model.CollectionAppx, ok: true},
		{name: "msix extension", path: `c:\apps\a.msix`, want: model.CollectionAppx, ok: true},
		{name: "ocx extension", path: `c:\bin\a.ocx`, want: model.CollectionDll, ok: true},
		{name: "unknown extension", path: `c:\doc\a.txt`, ok: false},
		{name: "unknown type name", typeName: "driver", path: `c:\bin\a.sys`, ok: false},
		{name: "no path no type", ok: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := inferCollection(tc.typeName, tc.path)
			if ok != tc.ok {
				t.Fatalf("inferCollection(%q, %q) ok = %v, want %v", tc.typeName, tc.path, ok, tc.ok)
			}
			if ok && got != tc.want {
				t.Fatalf("inferCollection(%q, %q) = %q, want %q", tc.typeName, tc.path, got, tc.want)
			}
		})
	}
}
