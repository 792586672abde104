package cdx

import (
	"encoding/json"
	"strings"

	"github.com/justapithecus/stratum/types"
)

// parseJSONResponse parses the JSON array-of-arrays format.
//
// Row 0 is the field-name header. Each subsequent row is either a data row
// (length = number of fields) or a resume-key row: a single-element row, only
// recognized as a resume key when the array holds more than one data row.
// Blank separator rows are skipped and never counted as records.
func parseJSONResponse(body string) (*types.IndexResponse, error) {
	var rows [][]string
	if err := json.Unmarshal([]byte(body), &rows); err != nil {
		return nil, newQueryError("search", StatusUnknown, "malformed JSON response", err)
	}

	if len(rows) == 0 {
		return &types.IndexResponse{FieldNames: types.DefaultFieldNames, Raw: body}, nil
	}

	fieldNames := rows[0]
	resp := &types.IndexResponse{
		FieldNames: fieldNames,
		Raw:        body,
	}

	for _, row := range rows[1:] {
		if len(row) == 0 {
			continue
		}
		if len(row) == 1 && len(rows) > 2 {
			resp.ResumeKey = row[0]
			continue
		}
		resp.Records = append(resp.Records, types.NewIndexRecord(row, fieldNames))
	}

	return resp, nil
}

// parseTextResponse parses the newline-delimited text format.
//
// Field names come from the query's explicit field selection or the default
// 7-field set, since the text format carries no header row. A non-empty line
// containing a %-escape and no whitespace is treated as a resume key rather
// than a record. Known heuristic limitation: a legitimate single-field record
// whose value is percent-encoded would be misclassified; this mirrors the
// service's observed behavior and is deliberately not "fixed".
func parseTextResponse(body string, fieldNames []string) *types.IndexResponse {
	resp := &types.IndexResponse{
		FieldNames: fieldNames,
		Raw:        body,
	}

	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if strings.Contains(line, "%") && !strings.ContainsAny(line, " \t") {
			resp.ResumeKey = line
			continue
		}
		resp.Records = append(resp.Records, types.NewIndexRecord(strings.Fields(line), fieldNames))
	}

	return resp
}
