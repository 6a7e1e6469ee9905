package compaction

import (
	"strings"

	"github.com/alexk-dev/compactpg/types"
)

// SchemaVersion is the version of the details projection schema. Readers are
// expected to ignore unknown fields for forward compatibility.
const SchemaVersion = 1

// Metadata keys under which details projections are persisted.
const (
	// MetadataKeyLastDetails is the session metadata key holding the
	// projection of the most recent compaction's details.
	MetadataKeyLastDetails = "compactionLastDetails"

	// MetadataKeyCompactionDetails is the summary message metadata key
	// holding the details projection for the compaction that produced it.
	MetadataKeyCompactionDetails = "compactionDetails"
)

// Tool and argument names recognized by the statistics extractor.
const (
	filesystemToolName = "filesystem"

	fsOpReadFile        = "read_file"
	fsOpWriteFile       = "write_file"
	fsOpDelete          = "delete"
	fsOpCreateDirectory = "create_directory"
)

// FileChangeStat records the observed change to a single path.
type FileChangeStat struct {
	Path         string `json:"path"`
	AddedLines   int    `json:"addedLines"`
	RemovedLines int    `json:"removedLines"`
	Deleted      bool   `json:"deleted"`
}

// Details is a bounded, deterministic record of the tool activity inside a
// compacted transcript prefix, plus bookkeeping about the compaction itself.
type Details struct {
	SchemaVersion      int              `json:"schemaVersion"`
	Reason             Reason           `json:"reason"`
	SummarizedCount    int              `json:"summarizedCount"`
	KeptCount          int              `json:"keptCount"`
	UsedLLMSummary     bool             `json:"usedLlmSummary"`
	SummaryLength      int              `json:"summaryLength"`
	ToolCount          int              `json:"toolCount"`
	ReadFilesCount     int              `json:"readFilesCount"`
	ModifiedFilesCount int              `json:"modifiedFilesCount"`
	DurationMS         int64            `json:"durationMs"`
	ToolNames          []string         `json:"toolNames"`
	ReadFiles          []string         `json:"readFiles"`
	ModifiedFiles      []string         `json:"modifiedFiles"`
	FileChanges        []FileChangeStat `json:"fileChanges"`
	SplitTurnDetected  bool             `json:"splitTurnDetected"`
	FallbackUsed       bool             `json:"fallbackUsed"`
}

// AsMap returns the mapping-shaped projection of the details, as persisted
// under session metadata and summary message metadata. The reason is keyed by
// its textual name.
func (d *Details) AsMap() map[string]any {
	fileChanges := make([]map[string]any, 0, len(d.FileChanges))
	for _, fc := range d.FileChanges {
		fileChanges = append(fileChanges, map[string]any{
			"path":         fc.Path,
			"addedLines":   fc.AddedLines,
			"removedLines": fc.RemovedLines,
			"deleted":      fc.Deleted,
		})
	}

	return map[string]any{
		"schemaVersion":      d.SchemaVersion,
		"reason":             string(d.Reason),
		"summarizedCount":    d.SummarizedCount,
		"keptCount":          d.KeptCount,
		"usedLlmSummary":     d.UsedLLMSummary,
		"summaryLength":      d.SummaryLength,
		"toolCount":          d.ToolCount,
		"readFilesCount":     d.ReadFilesCount,
		"modifiedFilesCount": d.ModifiedFilesCount,
		"durationMs":         d.DurationMS,
		"toolNames":          d.ToolNames,
		"readFiles":          d.ReadFiles,
		"modifiedFiles":      d.ModifiedFiles,
		"splitTurnDetected":  d.SplitTurnDetected,
		"fallbackUsed":       d.FallbackUsed,
		"fileChanges":        fileChanges,
	}
}

// ExtractInput carries the inputs for ExtractDetails. Counters and flags pass
// through to the resulting Details unchanged.
type ExtractInput struct {
	Reason            Reason
	Messages          []*types.Message
	SummarizedCount   int
	KeptCount         int
	UsedLLMSummary    bool
	SummaryLength     int
	SplitTurnDetected bool
	FallbackUsed      bool
	DurationMS        int64

	// MaxItemsPerCategory caps each collection; values below 1 fall back to
	// DefaultDetailsMaxItemsPerCategory.
	MaxItemsPerCategory int
}

// ExtractDetails scans the messages destined for removal and produces a
// Details record. Each collection is capped independently, order-preserving
// and duplicate-free; on duplicate paths the first occurrence wins.
//
// ExtractDetails never fails: nil messages, missing arguments and wrong-typed
// values degrade to "ignore this entry" at the finest possible granularity.
func ExtractDetails(in ExtractInput) *Details {
	maxItems := in.MaxItemsPerCategory
	if maxItems < 1 {
		maxItems = DefaultDetailsMaxItemsPerCategory
	}

	toolNames := newCappedSet(maxItems)
	readFiles := newCappedSet(maxItems)
	modifiedFiles := newCappedSet(maxItems)
	fileChanges := newCappedChangeList(maxItems)

	for _, msg := range in.Messages {
		if msg == nil {
			continue
		}
		if msg.IsToolMessage() && msg.ToolName != "" {
			toolNames.add(msg.ToolName)
		}
		if msg.IsAssistantMessage() {
			for _, toolCall := range msg.ToolCalls {
				collectFromToolCall(toolCall, toolNames, readFiles, modifiedFiles, fileChanges)
			}
		}
	}

	return &Details{
		SchemaVersion:      SchemaVersion,
		Reason:             in.Reason,
		SummarizedCount:    in.SummarizedCount,
		KeptCount:          in.KeptCount,
		UsedLLMSummary:     in.UsedLLMSummary,
		SummaryLength:      in.SummaryLength,
		ToolCount:          toolNames.len(),
		ReadFilesCount:     readFiles.len(),
		ModifiedFilesCount: modifiedFiles.len(),
		DurationMS:         in.DurationMS,
		ToolNames:          toolNames.values(),
		ReadFiles:          readFiles.values(),
		ModifiedFiles:      modifiedFiles.values(),
		FileChanges:        fileChanges.values(),
		SplitTurnDetected:  in.SplitTurnDetected,
		FallbackUsed:       in.FallbackUsed,
	}
}

func collectFromToolCall(toolCall types.ToolCall, toolNames, readFiles, modifiedFiles *cappedSet, fileChanges *cappedChangeList) {
	if toolCall.Name != "" {
		toolNames.add(toolCall.Name)
	}

	if toolCall.Name != filesystemToolName || len(toolCall.Arguments) == 0 {
		return
	}

	operation, ok := toolCall.Arguments["operation"].(string)
	if !ok {
		return
	}
	path, ok := toolCall.Arguments["path"].(string)
	if !ok {
		return
	}

	switch operation {
	case fsOpReadFile:
		readFiles.add(path)

	case fsOpWriteFile:
		modifiedFiles.add(path)
		added := 0
		if content, ok := toolCall.Arguments["content"].(string); ok {
			added = countLines(content)
		}
		fileChanges.add(FileChangeStat{Path: path, AddedLines: added})

	case fsOpDelete:
		modifiedFiles.add(path)
		// RemovedLines is a fixed marker: the extractor never reads file
		// contents, so no real diff is available for deletions.
		fileChanges.add(FileChangeStat{Path: path, RemovedLines: 1, Deleted: true})

	case fsOpCreateDirectory:
		modifiedFiles.add(path)
		fileChanges.add(FileChangeStat{Path: path})
	}
}

// countLines returns the number of newline-delimited lines in content,
// treating \n, \r\n and \r as line breaks. Blank content counts as zero.
func countLines(content string) int {
	if strings.TrimSpace(content) == "" {
		return 0
	}
	normalized := strings.ReplaceAll(content, "\r\n", "\n")
	normalized = strings.ReplaceAll(normalized, "\r", "\n")
	return strings.Count(normalized, "\n") + 1
}

// cappedSet is a bounded, duplicate-free, insertion-ordered string collection.
// Once the cap is reached, further additions are dropped silently.
type cappedSet struct {
	max   int
	seen  map[string]bool
	items []string
}

func newCappedSet(max int) *cappedSet {
	return &cappedSet{max: max, seen: make(map[string]bool)}
}

func (s *cappedSet) add(value string) {
	if s.seen[value] || len(s.items) >= s.max {
		return
	}
	s.seen[value] = true
	s.items = append(s.items, value)
}

func (s *cappedSet) len() int { return len(s.items) }

func (s *cappedSet) values() []string {
	if s.items == nil {
		return []string{}
	}
	return s.items
}

// cappedChangeList is the FileChangeStat counterpart of cappedSet: bounded,
// insertion-ordered, first-write-wins per path.
type cappedChangeList struct {
	max   int
	seen  map[string]bool
	items []FileChangeStat
}

func newCappedChangeList(max int) *cappedChangeList {
	return &cappedChangeList{max: max, seen: make(map[string]bool)}
}

func (l *cappedChangeList) add(stat FileChangeStat) {
	if l.seen[stat.Path] || len(l.items) >= l.max {
		return
	}
	l.seen[stat.Path] = true
	l.items = append(l.items, stat)
}

func (l *cappedChangeList) values() []FileChangeStat {
	if l.items == nil {
		return []FileChangeStat{}
	}
	return l.items
}
