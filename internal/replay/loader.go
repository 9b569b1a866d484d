package replay

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/golang/snappy"
	"github.com/klauspost/compress/zstd"

	"driftpursuit/arena/internal/wire"
)

// EntryFrame marks timeline entries that carry a decoded frame.
const EntryFrame = "frame"

// TimelineEntry represents a single replay datum ready for deterministic iteration.
type TimelineEntry struct {
	Tick       uint64
	FrameTime  float64
	CapturedAt time.Time
	Type       string
	Frame      *wire.Frame
	Payload    json.RawMessage
}

// Loader rehydrates a replay bundle for validation workflows and tools.
type Loader struct {
	header  Header
	entries []TimelineEntry
}

// Load reads the bundle stored in dir.
func Load(dir string) (*Loader, error) {
	if dir == "" {
		return nil, fmt.Errorf("replay path must be provided")
	}
	header, err := ReadHeader(filepath.Join(dir, headerName))
	if err != nil {
		return nil, fmt.Errorf("read replay header: %w", err)
	}
	manifestData, err := os.ReadFile(filepath.Join(dir, header.FilePointer))
	if err != nil {
		return nil, fmt.Errorf("read replay manifest: %w", err)
	}
	var manifest Manifest
	if err := json.Unmarshal(manifestData, &manifest); err != nil {
		return nil, fmt.Errorf("decode replay manifest: %w", err)
	}

	frames, err := readFrames(filepath.Join(dir, manifest.FramesPath))
	if err != nil {
		return nil, err
	}
	events, err := readEvents(filepath.Join(dir, manifest.EventsPath))
	if err != nil {
		return nil, err
	}

	//1.- Each tick's frame precedes the events derived from it.
	entries := append(frames, events...)
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Tick != entries[j].Tick {
			return entries[i].Tick < entries[j].Tick
		}
		return entries[i].Type == EntryFrame && entries[j].Type != EntryFrame
	})
	return &Loader{header: header, entries: entries}, nil
}

func readFrames(path string) ([]TimelineEntry, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	decoder, err := zstd.NewReader(file)
	if err != nil {
		return nil, fmt.Errorf("open frame stream: %w", err)
	}
	defer decoder.Close()

	var entries []TimelineEntry
	header := make([]byte, frameHeaderSize)
	for {
		//1.- A clean end of stream may only fall between frames.
		if _, err := io.ReadFull(decoder, header); err != nil {
			if errors.Is(err, io.EOF) {
				return entries, nil
			}
			return nil, fmt.Errorf("read frame header: %w", err)
		}
		size := binary.LittleEndian.Uint32(header[24:28])
		payload := make([]byte, size)
		if _, err := io.ReadFull(decoder, payload); err != nil {
			return nil, fmt.Errorf("read frame payload: %w", err)
		}
		frame, err := wire.Unmarshal(payload)
		if err != nil {
			return nil, fmt.Errorf("decode frame: %w", err)
		}
		entries = append(entries, TimelineEntry{
			Tick:       binary.LittleEndian.Uint64(header[0:8]),
			FrameTime:  math.Float64frombits(binary.LittleEndian.Uint64(header[8:16])),
			CapturedAt: time.Unix(0, int64(binary.LittleEndian.Uint64(header[16:24]))).UTC(),
			Type:       EntryFrame,
			Frame:      frame,
		})
	}
}

func readEvents(path string) ([]TimelineEntry, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var entries []TimelineEntry
	scanner := bufio.NewScanner(snappy.NewReader(file))
	for scanner.Scan() {
		var record EventRecord
		if err := json.Unmarshal(scanner.Bytes(), &record); err != nil {
			return nil, fmt.Errorf("decode event line %d: %w", len(entries)+1, err)
		}
		captured, err := time.Parse(time.RFC3339Nano, record.CapturedAt)
		if err != nil {
			return nil, fmt.Errorf("parse event captured_at: %w", err)
		}
		entries = append(entries, TimelineEntry{
			Tick:       record.Tick,
			FrameTime:  record.FrameTime,
			CapturedAt: captured,
			Type:       record.Type,
			Payload:    append(json.RawMessage(nil), record.Payload...),
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read event log: %w", err)
	}
	return entries, nil
}

// Header returns the bundle metadata.
func (l *Loader) Header() Header {
	if l == nil {
		return Header{}
	}
	return l.header
}

// Replay iterates over the loaded entries in deterministic order.
func (l *Loader) Replay(apply func(TimelineEntry) error) error {
	if l == nil {
		return fmt.Errorf("loader not initialised")
	}
	if apply == nil {
		return fmt.Errorf("replay callback must be provided")
	}
	for _, entry := range l.entries {
		if err := apply(entry); err != nil {
			return err
		}
	}
	return nil
}

// Frames returns the recorded frames in tick order.
func (l *Loader) Frames() []*wire.Frame {
	if l == nil {
		return nil
	}
	var frames []*wire.Frame
	for _, entry := range l.entries {
		if entry.Frame != nil {
			frames = append(frames, entry.Frame)
		}
	}
	return frames
}

// Entries returns a copy of the timeline.
func (l *Loader) Entries() []TimelineEntry {
	if l == nil {
		return nil
	}
	out := make([]TimelineEntry, len(l.entries))
	copy(out, l.entries)
	return out
}
