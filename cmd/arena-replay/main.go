package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"driftpursuit/arena/internal/replay"
	"driftpursuit/arena/internal/wire"
)

type dumpEntry struct {
	Tick      uint64          `json:"tick"`
	FrameTime float64         `json:"frame_time"`
	Type      string          `json:"type"`
	Frame     *wire.Frame     `json:"frame,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

func main() {
	dir := flag.String("dir", "", "replay root to list finished bundles from")
	bundle := flag.String("bundle", "", "bundle directory to dump as JSON")
	flag.Parse()

	switch {
	case *bundle != "":
		os.Exit(dump(*bundle))
	case *dir != "":
		os.Exit(list(*dir))
	default:
		fmt.Fprintln(os.Stderr, "either -dir or -bundle is required")
		os.Exit(1)
	}
}

func list(root string) int {
	entries, err := replay.List(root)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return 2
	}
	payload, err := replay.MarshalCatalog(entries)
	if err != nil {
		fmt.Fprintln(os.Stderr, "encode error:", err)
		return 3
	}
	fmt.Println(string(payload))
	return 0
}

func dump(dir string) int {
	loader, err := replay.Load(dir)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return 2
	}
	timeline := make([]dumpEntry, 0, len(loader.Entries()))
	//1.- Flatten the merged timeline so frames and events can be piped elsewhere.
	err = loader.Replay(func(entry replay.TimelineEntry) error {
		timeline = append(timeline, dumpEntry{
			Tick:      entry.Tick,
			FrameTime: entry.FrameTime,
			Type:      entry.Type,
			Frame:     entry.Frame,
			Payload:   entry.Payload,
		})
		return nil
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return 2
	}
	payload := struct {
		Header   replay.Header `json:"header"`
		Timeline []dumpEntry   `json:"timeline"`
	}{Header: loader.Header(), Timeline: timeline}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(payload); err != nil {
		fmt.Fprintln(os.Stderr, "encode error:", err)
		return 3
	}
	return 0
}
