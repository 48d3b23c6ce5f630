// Replay runs a recorded landmark trace through the pose stabilizer.
//
// The input is a JSON array of frames, each holding the 33 landmarks of one
// video frame. The output is one JSON skeleton per line, in the same form
// the pose server sends over its data channel.
//
// Usage:
//
//	go run ./cmd/replay -in walk.json -out walk.jsonl
//	go run ./cmd/replay -in walk.json -min-visibility 0.5 | jq .joints[0]
package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/thesyncim/posekf/pkg/posekf"
	"github.com/thesyncim/posekf/pkg/posekf/session"
)

// inputFrame is one element of the input array.
type inputFrame struct {
	Landmarks []*posekf.Landmark `json:"landmarks"`
}

func main() {
	in := flag.String("in", "", "Input trace (JSON array of {\"landmarks\": [...]} frames)")
	out := flag.String("out", "", "Output file for JSON lines (default stdout)")
	minVisibility := flag.Float64("min-visibility", 0, "Treat landmarks less visible than this as missing")
	flag.Parse()

	if *in == "" {
		flag.Usage()
		os.Exit(2)
	}

	r, err := os.Open(*in)
	if err != nil {
		log.Fatalf("Failed to open input: %v", err)
	}
	defer r.Close()

	var w io.Writer = os.Stdout
	if *out != "" {
		f, err := os.Create(*out)
		if err != nil {
			log.Fatalf("Failed to create output: %v", err)
		}
		defer f.Close()
		w = f
	}

	config := posekf.DefaultStabilizerConfig()
	config.MinVisibility = *minVisibility
	stats, err := replay(r, w, config)
	if err != nil {
		log.Fatalf("Replay failed: %v", err)
	}

	fmt.Fprintf(os.Stderr, "frames: %d, skipped: %d, missing landmarks: %d, degenerate bones: %d\n",
		stats.Frames, stats.Skipped, stats.MissingLandmarks, stats.DegenerateBones)
}

// replay streams frames from r through a fresh Stabilizer and writes one
// skeleton per line to w. Frames are numbered from 1 in the seq field.
func replay(r io.Reader, w io.Writer, config posekf.StabilizerConfig) (posekf.Stats, error) {
	stabilizer := posekf.NewStabilizer(config, nil)

	dec := json.NewDecoder(bufio.NewReader(r))
	tok, err := dec.Token()
	if err != nil {
		return posekf.Stats{}, fmt.Errorf("read trace: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '[' {
		return posekf.Stats{}, errors.New("read trace: expected a JSON array of frames")
	}

	bw := bufio.NewWriter(w)
	enc := json.NewEncoder(bw)

	var seq uint64
	for dec.More() {
		var frame inputFrame
		if err := dec.Decode(&frame); err != nil {
			return stabilizer.Stats(), fmt.Errorf("frame %d: %w", seq+1, err)
		}
		seq++
		out := stabilizer.Process(frame.Landmarks)
		if err := enc.Encode(session.NewSkeletonMessage(seq, out)); err != nil {
			return stabilizer.Stats(), fmt.Errorf("frame %d: write: %w", seq, err)
		}
	}
	if _, err := dec.Token(); err != nil {
		return stabilizer.Stats(), fmt.Errorf("read trace: %w", err)
	}

	if err := bw.Flush(); err != nil {
		return stabilizer.Stats(), fmt.Errorf("flush output: %w", err)
	}
	return stabilizer.Stats(), nil
}
