package compaction

import (
	"reflect"
	"testing"

	"github.com/alexk-dev/compactpg/types"
)

func fsCall(operation, path string, extra map[string]any) *types.Message {
	args := map[string]any{"operation": operation, "path": path}
	for k, v := range extra {
		args[k] = v
	}
	return assistantToolCall("tc-"+path, filesystemToolName, args)
}

func TestExtractDetailsFilesystemStats(t *testing.T) {
	messages := []*types.Message{
		toolResult("tc-1", "search", "results"),
		fsCall(fsOpReadFile, "A.java", nil),
		fsCall(fsOpWriteFile, "B.java", map[string]any{"content": "line1\nline2"}),
		fsCall(fsOpDelete, "C.java", nil),
		fsCall(fsOpCreateDirectory, "new", nil),
		assistantToolCall("tc-sh", "shell", map[string]any{"command": "echo"}),
	}

	details := ExtractDetails(ExtractInput{
		Reason:              ReasonManualCommand,
		Messages:            messages,
		SummarizedCount:     6,
		KeptCount:           2,
		UsedLLMSummary:      true,
		SummaryLength:       120,
		DurationMS:          42,
		MaxItemsPerCategory: 50,
	})

	if details.ToolCount != 3 {
		t.Errorf("expected 3 distinct tools, got %d (%v)", details.ToolCount, details.ToolNames)
	}
	wantTools := []string{"search", "filesystem", "shell"}
	if !reflect.DeepEqual(details.ToolNames, wantTools) {
		t.Errorf("expected tool names %v, got %v", wantTools, details.ToolNames)
	}

	if details.ReadFilesCount != 1 || !reflect.DeepEqual(details.ReadFiles, []string{"A.java"}) {
		t.Errorf("expected readFiles [A.java], got %v", details.ReadFiles)
	}

	wantModified := []string{"B.java", "C.java", "new"}
	if details.ModifiedFilesCount != 3 || !reflect.DeepEqual(details.ModifiedFiles, wantModified) {
		t.Errorf("expected modifiedFiles %v, got %v", wantModified, details.ModifiedFiles)
	}

	wantChanges := []FileChangeStat{
		{Path: "B.java", AddedLines: 2},
		{Path: "C.java", RemovedLines: 1, Deleted: true},
		{Path: "new"},
	}
	if !reflect.DeepEqual(details.FileChanges, wantChanges) {
		t.Errorf("expected file changes %+v, got %+v", wantChanges, details.FileChanges)
	}

	if details.SchemaVersion != SchemaVersion {
		t.Errorf("expected schema version %d, got %d", SchemaVersion, details.SchemaVersion)
	}
	if details.SummarizedCount != 6 || details.KeptCount != 2 {
		t.Errorf("counters not passed through: %d/%d", details.SummarizedCount, details.KeptCount)
	}
	if !details.UsedLLMSummary || details.SummaryLength != 120 || details.DurationMS != 42 {
		t.Error("summary bookkeeping not passed through")
	}
}

func TestExtractDetailsCaps(t *testing.T) {
	var messages []*types.Message
	for i := 0; i < 10; i++ {
		path := string(rune('a'+i)) + ".go"
		messages = append(messages, fsCall(fsOpReadFile, path, nil))
	}

	details := ExtractDetails(ExtractInput{
		Reason:              ReasonAutoThreshold,
		Messages:            messages,
		MaxItemsPerCategory: 3,
	})

	if len(details.ReadFiles) != 3 {
		t.Errorf("expected readFiles capped at 3, got %d", len(details.ReadFiles))
	}
	if !reflect.DeepEqual(details.ReadFiles, []string{"a.go", "b.go", "c.go"}) {
		t.Errorf("expected first three paths in order, got %v", details.ReadFiles)
	}
	if details.ReadFilesCount != 3 {
		t.Errorf("count must match the capped collection, got %d", details.ReadFilesCount)
	}
}

func TestExtractDetailsDuplicatesFirstWins(t *testing.T) {
	messages := []*types.Message{
		fsCall(fsOpWriteFile, "same.go", map[string]any{"content": "one\ntwo\nthree"}),
		fsCall(fsOpWriteFile, "same.go", map[string]any{"content": "one"}),
	}

	details := ExtractDetails(ExtractInput{
		Reason:              ReasonManualCommand,
		Messages:            messages,
		MaxItemsPerCategory: 50,
	})

	if len(details.FileChanges) != 1 {
		t.Fatalf("expected one change entry, got %d", len(details.FileChanges))
	}
	if details.FileChanges[0].AddedLines != 3 {
		t.Errorf("first write should win, got addedLines=%d", details.FileChanges[0].AddedLines)
	}
	if !reflect.DeepEqual(details.ModifiedFiles, []string{"same.go"}) {
		t.Errorf("expected single modified file, got %v", details.ModifiedFiles)
	}
}

func TestExtractDetailsMalformedInput(t *testing.T) {
	messages := []*types.Message{
		nil,
		{Role: types.RoleTool},
		assistantToolCall("tc-1", filesystemToolName, map[string]any{"operation": 42, "path": "x"}),
		assistantToolCall("tc-2", filesystemToolName, map[string]any{"operation": "read_file", "path": 7}),
		assistantToolCall("tc-3", filesystemToolName, nil),
		assistantToolCall("tc-4", "", nil),
		assistantToolCall("tc-5", filesystemToolName, map[string]any{"operation": "write_file", "path": "ok.go", "content": 9}),
	}

	details := ExtractDetails(ExtractInput{
		Reason:              ReasonContextOverflowRecovery,
		Messages:            messages,
		MaxItemsPerCategory: 50,
	})

	if len(details.ReadFiles) != 0 {
		t.Errorf("malformed reads must be ignored, got %v", details.ReadFiles)
	}
	if !reflect.DeepEqual(details.ModifiedFiles, []string{"ok.go"}) {
		t.Errorf("expected only the valid write, got %v", details.ModifiedFiles)
	}
	if details.FileChanges[0].AddedLines != 0 {
		t.Errorf("non-string content counts zero lines, got %d", details.FileChanges[0].AddedLines)
	}
	if !reflect.DeepEqual(details.ToolNames, []string{filesystemToolName}) {
		t.Errorf("expected only filesystem recorded, got %v", details.ToolNames)
	}
}

func TestExtractDetailsEmptyCollectionsNotNil(t *testing.T) {
	details := ExtractDetails(ExtractInput{Reason: ReasonManualCommand})

	if details.ToolNames == nil || details.ReadFiles == nil ||
		details.ModifiedFiles == nil || details.FileChanges == nil {
		t.Error("collections must be empty, never nil")
	}
}

func TestCountLines(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    int
	}{
		{"empty", "", 0},
		{"blank", "   \n  ", 0},
		{"single line", "hello", 1},
		{"two lines", "one\ntwo", 2},
		{"trailing newline", "one\ntwo\n", 3},
		{"windows endings", "one\r\ntwo", 2},
		{"old mac endings", "one\rtwo\rthree", 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := countLines(tt.content); got != tt.want {
				t.Errorf("countLines(%q) = %d, want %d", tt.content, got, tt.want)
			}
		})
	}
}

func TestDetailsAsMapProjection(t *testing.T) {
	details := ExtractDetails(ExtractInput{
		Reason:              ReasonManualCommand,
		Messages:            []*types.Message{fsCall(fsOpDelete, "gone.go", nil)},
		SummarizedCount:     3,
		KeptCount:           1,
		UsedLLMSummary:      true,
		SummaryLength:       50,
		DurationMS:          7,
		MaxItemsPerCategory: 10,
	})

	m := details.AsMap()

	if m["reason"] != "MANUAL_COMMAND" {
		t.Errorf("reason must project as its textual name, got %v", m["reason"])
	}
	if m["schemaVersion"] != SchemaVersion {
		t.Errorf("expected schemaVersion %d, got %v", SchemaVersion, m["schemaVersion"])
	}
	changes, ok := m["fileChanges"].([]map[string]any)
	if !ok || len(changes) != 1 {
		t.Fatalf("expected one projected file change, got %v", m["fileChanges"])
	}
	if changes[0]["deleted"] != true || changes[0]["removedLines"] != 1 {
		t.Errorf("delete marker not projected: %v", changes[0])
	}
}
