package cdx

import (
	"errors"
	"testing"
)

func TestParseJSONResponse_HeaderAndRecords(t *testing.T) {
	body := `[["urlkey","timestamp","original","mimetype","statuscode","digest","length"],
["com,example)/","20200101000000","https://example.com/","text/html","200","ABC","100"],
["com,example)/","20210101000000","https://example.com/","text/html","200","DEF","200"]]`

	resp, err := parseJSONResponse(body)
	if err != nil {
		t.Fatalf("parseJSONResponse failed: %v", err)
	}

	if resp.Len() != 2 {
		t.Fatalf("Len = %d, want 2", resp.Len())
	}
	if resp.Records[0].Timestamp != "20200101000000" {
		t.Errorf("Records[0].Timestamp = %q", resp.Records[0].Timestamp)
	}
	if len(resp.FieldNames) != 7 {
		t.Errorf("FieldNames = %v", resp.FieldNames)
	}
	if resp.ResumeKey != "" {
		t.Errorf("ResumeKey = %q, want empty", resp.ResumeKey)
	}
}

func TestParseJSONResponse_ResumeKeyRow(t *testing.T) {
	body := `[["timestamp","original"],
["20200101000000","https://example.com/"],
[],
["com%2Cexample%29%2F+20200101"]]`

	resp, err := parseJSONResponse(body)
	if err != nil {
		t.Fatalf("parseJSONResponse failed: %v", err)
	}

	if resp.ResumeKey != "com%2Cexample%29%2F+20200101" {
		t.Errorf("ResumeKey = %q", resp.ResumeKey)
	}
	// Blank separator row and resume-key row are never counted as records.
	if resp.Len() != 1 {
		t.Errorf("Len = %d, want 1", resp.Len())
	}
}

func TestParseJSONResponse_SingleRowNotResumeKey(t *testing.T) {
	// A single-element row is a resume key only when the array has more than
	// two rows; header + one single-element row stays a (short) data row.
	body := `[["timestamp"],["20200101000000"]]`

	resp, err := parseJSONResponse(body)
	if err != nil {
		t.Fatalf("parseJSONResponse failed: %v", err)
	}
	if resp.ResumeKey != "" {
		t.Errorf("ResumeKey = %q, want empty", resp.ResumeKey)
	}
	if resp.Len() != 1 {
		t.Errorf("Len = %d, want 1", resp.Len())
	}
}

func TestParseJSONResponse_Malformed(t *testing.T) {
	_, err := parseJSONResponse(`{"not":"an array"}`)
	if err == nil {
		t.Fatal("malformed JSON should fail")
	}

	var qe *QueryError
	if !errors.As(err, &qe) {
		t.Fatalf("error kind = %T, want *QueryError", err)
	}
}

func TestParseTextResponse_RecordsAndBlankLines(t *testing.T) {
	body := "com,example)/ 20200101000000 https://example.com/ text/html 200 ABC 100\n\ncom,example)/ 20210101000000 https://example.com/ text/html 200 DEF 200\n"

	resp := parseTextResponse(body, []string{"urlkey", "timestamp", "original", "mimetype", "statuscode", "digest", "length"})

	if resp.Len() != 2 {
		t.Fatalf("Len = %d, want 2 (blank lines skipped)", resp.Len())
	}
	if resp.Records[1].Digest != "DEF" {
		t.Errorf("Records[1].Digest = %q", resp.Records[1].Digest)
	}
}

func TestParseTextResponse_ResumeKeyHeuristic(t *testing.T) {
	// A percent-escaped line with no whitespace is the resume key.
	body := "com,example)/ 20200101000000 https://example.com/ text/html 200 ABC 100\ncom%2Cexample%29%2F+20200101"

	resp := parseTextResponse(body, []string{"urlkey", "timestamp", "original", "mimetype", "statuscode", "digest", "length"})

	if resp.ResumeKey != "com%2Cexample%29%2F+20200101" {
		t.Errorf("ResumeKey = %q", resp.ResumeKey)
	}
	if resp.Len() != 1 {
		t.Errorf("Len = %d, want 1", resp.Len())
	}
}
