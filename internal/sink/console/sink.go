// Package console writes decoded GeoNetworking indications to a stream.
package console

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"google.golang.org/protobuf/encoding/protodelim"
	"gopkg.in/yaml.v3"

	"firestige.xyz/geonet/internal/geonet"
)

const Name = "console"

// Output formats.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
	// FormatPB writes length-delimited google.protobuf.Struct messages.
	FormatPB = "pb"
)

// Formats lists the accepted output formats.
var Formats = []string{FormatJSON, FormatYAML, FormatPB}

// Sink serialises one record per indication. Send may be called from several
// goroutines; writes never interleave.
type Sink struct {
	mu     sync.Mutex
	w      io.Writer
	format string
	json   *json.Encoder
	yaml   *yaml.Encoder
}

func NewSink(w io.Writer, format string) (*Sink, error) {
	s := &Sink{w: w, format: format}
	switch format {
	case FormatJSON:
		s.json = json.NewEncoder(w)
	case FormatYAML:
		s.yaml = yaml.NewEncoder(w)
		s.yaml.SetIndent(2)
	case FormatPB:
	default:
		return nil, fmt.Errorf("unknown output format %q", format)
	}
	return s, nil
}

// Send writes ind as a single record.
func (s *Sink) Send(ind *geonet.Indication) error {
	rec := NewRecord(ind)

	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.format {
	case FormatJSON:
		return s.json.Encode(rec)
	case FormatYAML:
		return s.yaml.Encode(rec)
	default:
		st, err := rec.Struct()
		if err != nil {
			return err
		}
		_, err = protodelim.MarshalTo(s.w, st)
		return err
	}
}

// Close flushes buffered output. It does not close the underlying writer.
func (s *Sink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.yaml != nil {
		return s.yaml.Close()
	}
	return nil
}
