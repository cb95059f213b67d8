// Package ingest imports assistant-tool transcript exports (JSONL, one
// entry per line) into a session's event log, so sessions captured outside
// a live recording can still be replayed and evaluated.
package ingest

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/blackwell-systems/assay/internal/event"
	"github.com/blackwell-systems/assay/internal/session"
)

// maxOutputLen caps imported tool output. Transcript exports routinely
// carry whole file dumps in tool results.
const maxOutputLen = 4096

// Entry is the top-level structure of one JSONL transcript line. Unknown
// fields and unparseable lines are skipped, not fatal: exports from
// different tool versions drift.
type Entry struct {
	Type      string          `json:"type"`
	Timestamp string          `json:"timestamp"`
	Message   json.RawMessage `json:"message"`
}

// Message is the role-tagged body of a chat entry.
type Message struct {
	Role    string         `json:"role"`
	Content []ContentBlock `json:"content"`
}

// ContentBlock is a single block inside a message: plain text, a tool
// invocation, or a tool result.
type ContentBlock struct {
	Type      string          `json:"type"`
	Name      string          `json:"name"`
	Input     json.RawMessage `json:"input"`
	ToolUseID string          `json:"tool_use_id"`
	Content   json.RawMessage `json:"content"`
	Text      string          `json:"text"`
}

// Stats summarizes what an import produced. Start and End are the
// transcript's own timestamps; the appended events carry store-assigned
// times, so this is the only place the original wall clock survives.
type Stats struct {
	Chat      int       `json:"chat"`
	Commands  int       `json:"commands"`
	Outputs   int       `json:"outputs"`
	Snapshots int       `json:"snapshots"`
	Skipped   int       `json:"skipped"`
	Start     time.Time `json:"start,omitempty"`
	End       time.Time `json:"end,omitempty"`
}

// Total returns the number of events appended.
func (s *Stats) Total() int {
	return s.Chat + s.Commands + s.Outputs + s.Snapshots
}

// Importer replays a transcript into a session through the recording
// service, so imported events pass the same validation as live ones.
type Importer struct {
	svc *session.Service
}

func New(svc *session.Service) *Importer {
	return &Importer{svc: svc}
}

// ImportFile imports the JSONL transcript at path into the session.
func (im *Importer) ImportFile(ctx context.Context, sessionID, path string) (*Stats, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening transcript: %w", err)
	}
	defer f.Close()
	return im.Import(ctx, sessionID, f)
}

// Import reads JSONL entries from r and appends the events they describe,
// in transcript order. Malformed lines are counted and skipped.
func (im *Importer) Import(ctx context.Context, sessionID string, r io.Reader) (*Stats, error) {
	stats := &Stats{}

	scanner := bufio.NewScanner(r)
	// Tool results can carry whole files on one line.
	scanner.Buffer(make([]byte, 0, 64*1024), 10*1024*1024)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var entry Entry
		if err := json.Unmarshal(line, &entry); err != nil {
			stats.Skipped++
			continue
		}

		if ts := ParseTimestamp(entry.Timestamp); !ts.IsZero() {
			if stats.Start.IsZero() || ts.Before(stats.Start) {
				stats.Start = ts
			}
			if ts.After(stats.End) {
				stats.End = ts
			}
		}

		switch entry.Type {
		case "user", "assistant":
			if err := im.importMessage(ctx, sessionID, &entry, stats); err != nil {
				return stats, err
			}
		default:
			stats.Skipped++
		}
	}
	if err := scanner.Err(); err != nil {
		return stats, fmt.Errorf("reading transcript: %w", err)
	}
	return stats, nil
}

func (im *Importer) importMessage(ctx context.Context, sessionID string, entry *Entry, stats *Stats) error {
	if entry.Message == nil {
		stats.Skipped++
		return nil
	}

	var msg Message
	if err := json.Unmarshal(entry.Message, &msg); err != nil {
		stats.Skipped++
		return nil
	}

	for _, block := range msg.Content {
		switch block.Type {
		case "text":
			if block.Text == "" {
				continue
			}
			if _, err := im.svc.RecordChat(ctx, sessionID, &event.ChatMessage{
				Role:    msg.Role,
				Content: block.Text,
			}); err != nil {
				return err
			}
			stats.Chat++

		case "tool_use":
			if err := im.importToolUse(ctx, sessionID, &block, stats); err != nil {
				return err
			}

		case "tool_result":
			out := resultText(block.Content, block.Text)
			if out == "" {
				continue
			}
			if len(out) > maxOutputLen {
				out = out[:maxOutputLen]
			}
			if _, err := im.svc.RecordOutput(ctx, sessionID, out, "stdout"); err != nil {
				return err
			}
			stats.Outputs++
		}
	}
	return nil
}

// commandInput covers shell-style tool invocations.
type commandInput struct {
	Command string `json:"command"`
}

// fileInput covers file-writing tool invocations.
type fileInput struct {
	FilePath string `json:"file_path"`
	Content  string `json:"content"`
}

func (im *Importer) importToolUse(ctx context.Context, sessionID string, block *ContentBlock, stats *Stats) error {
	switch block.Name {
	case "Bash", "Shell":
		var in commandInput
		if err := json.Unmarshal(block.Input, &in); err != nil || in.Command == "" {
			stats.Skipped++
			return nil
		}
		if _, err := im.svc.RecordCommand(ctx, sessionID, in.Command, ""); err != nil {
			return err
		}
		stats.Commands++

	case "Write", "Edit":
		var in fileInput
		if err := json.Unmarshal(block.Input, &in); err != nil || in.FilePath == "" {
			stats.Skipped++
			return nil
		}
		if _, err := im.svc.RecordSnapshot(ctx, sessionID, in.FilePath, "", []byte(in.Content)); err != nil {
			return err
		}
		stats.Snapshots++

	default:
		// Other tools (search, reads) carry no durable candidate work.
		stats.Skipped++
	}
	return nil
}

// resultText extracts the text of a tool_result. Content can be a bare
// string or an array of content blocks.
func resultText(raw json.RawMessage, text string) string {
	if text != "" {
		return text
	}
	if raw == nil {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}

	var blocks []ContentBlock
	if err := json.Unmarshal(raw, &blocks); err == nil {
		var out string
		for _, b := range blocks {
			out += b.Text
		}
		return out
	}
	return ""
}

// ParseTimestamp parses the transcript's ISO 8601 timestamps, tolerating
// the timezone-less variant some exports emit. Returns the zero time when
// unparseable.
func ParseTimestamp(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		t, err = time.Parse(time.RFC3339, s)
		if err != nil {
			t, err = time.Parse("2006-01-02T15:04:05", s)
			if err != nil {
				return time.Time{}
			}
		}
	}
	return t
}
