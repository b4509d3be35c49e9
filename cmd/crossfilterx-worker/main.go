// Copyright 2026 The CrossfilterX Authors.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package main

/*
crossfilterx-worker is the engine's process entry point: it wires the
protocol dispatcher to a newline-delimited-JSON transport over stdin/stdout.
The transport itself is a local stand-in, not part of the specification —
only the flags, lifecycle, and dispatch wiring below are.
*/

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/grailbio/base/grail"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/vcontext"

	"github.com/crossfilterx/crossfilterx/crossfilter"
	"github.com/crossfilterx/crossfilterx/histogram"
	"github.com/crossfilterx/crossfilterx/protocol"
)

var (
	modeFlag    = flag.String("mode", "auto", "Histogram update mode: direct|buffered|auto|simd")
	profileFlag = flag.Bool("profile", false, "Set Engine.Profile; FRAME replies carry no clear-strategy profile")
	debugFlag   = flag.Bool("debug", false, "Log one line per accepted/rejected message")
	legacyGuard = flag.Bool("legacy-guard", true, "Enable the Clear Planner's pre-calibration heuristic bands")
)

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: %s [OPTIONS]\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "Reads newline-delimited JSON envelopes from stdin, writes replies to stdout.\n")
	flag.PrintDefaults()
}

func main() {
	flag.Usage = usage
	flag.Parse()
	shutdown := grail.Init()
	defer shutdown()

	mode, err := histogram.ParseMode(*modeFlag)
	if err != nil {
		log.Fatalf("crossfilterx-worker: %v", err)
	}

	disp := protocol.NewDispatcher(func(ctx context.Context, req protocol.Ingest) (protocol.Engine, error) {
		return crossfilter.Ingest(ctx, req, mode, *legacyGuard, *profileFlag)
	})
	disp.Debug = *debugFlag

	ctx := vcontext.Background()
	if err := serve(ctx, disp, os.Stdin, os.Stdout); err != nil && err != io.EOF {
		log.Fatalf("crossfilterx-worker: %v", err)
	}
}

// envelope is the newline-delimited-JSON wire shape: a type tag plus the
// raw message body, decoded by decode's type switch below.
type envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func serve(ctx context.Context, disp *protocol.Dispatcher, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 64*1024*1024)
	enc := json.NewEncoder(out)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var env envelope
		if err := json.Unmarshal(line, &env); err != nil {
			enc.Encode(protocol.Error{Message: fmt.Sprintf("malformed envelope: %v", err)})
			continue
		}
		msg, err := decode(env)
		if err != nil {
			enc.Encode(protocol.Error{Message: err.Error()})
			continue
		}
		reply, err := disp.Handle(ctx, msg)
		if err != nil {
			enc.Encode(protocol.Error{Message: err.Error()})
			continue
		}
		if reply == nil {
			continue
		}
		if err := enc.Encode(reply); err != nil {
			return err
		}
	}
	return scanner.Err()
}

func decode(env envelope) (interface{}, error) {
	var target interface{}
	switch env.Type {
	case "INGEST":
		target = &protocol.Ingest{}
	case "BUILD_INDEX":
		target = &protocol.BuildIndex{}
	case "FILTER_SET":
		target = &protocol.FilterSet{}
	case "FILTER_CLEAR":
		target = &protocol.FilterClear{}
	case "ADD_DIMENSION":
		target = &protocol.AddDimension{}
	case "GROUP_SET_REDUCTION":
		target = &protocol.GroupSetReduction{}
	case "GROUP_TOP_K":
		target = &protocol.GroupTopK{}
	case "REQUEST_PLANNER":
		target = &protocol.RequestPlanner{}
	case "ESTIMATE":
		target = &protocol.Estimate{}
	case "SWAP":
		target = &protocol.Swap{}
	default:
		return nil, fmt.Errorf("unknown message type %q", env.Type)
	}
	if len(env.Payload) > 0 {
		if err := json.Unmarshal(env.Payload, target); err != nil {
			return nil, fmt.Errorf("decoding %s: %w", env.Type, err)
		}
	}
	switch v := target.(type) {
	case *protocol.Ingest:
		return *v, nil
	case *protocol.BuildIndex:
		return *v, nil
	case *protocol.FilterSet:
		return *v, nil
	case *protocol.FilterClear:
		return *v, nil
	case *protocol.AddDimension:
		return *v, nil
	case *protocol.GroupSetReduction:
		return *v, nil
	case *protocol.GroupTopK:
		return *v, nil
	case *protocol.RequestPlanner:
		return *v, nil
	case *protocol.Estimate:
		return *v, nil
	case *protocol.Swap:
		return *v, nil
	}
	return nil, fmt.Errorf("unreachable: unhandled target type for %q", env.Type)
}
