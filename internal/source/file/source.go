// Package file replays captured frames from pcap and pcapng files.
package file

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
)

const Name = "file"

var pcapngMagic = []byte{0x0a, 0x0d, 0x0d, 0x0a}

var ErrNotStarted = errors.New("file source not started")

type FileCfg struct {
	FilePath string `mapstructure:"file_path"`
}

type packetReader interface {
	ReadPacketData() ([]byte, gopacket.CaptureInfo, error)
	LinkType() layers.LinkType
}

// FileSource reads frames sequentially from a capture file. It is not safe for
// concurrent use.
type FileSource struct {
	path   string
	file   *os.File
	reader packetReader
}

func NewSource(cfg *FileCfg) (*FileSource, error) {
	if cfg.FilePath == "" {
		return nil, fmt.Errorf("file_path is required")
	}
	return &FileSource{
		path: cfg.FilePath,
	}, nil
}

// Start opens the capture file and detects its format.
func (fs *FileSource) Start(ctx context.Context) error {
	f, err := os.Open(fs.path)
	if err != nil {
		return fmt.Errorf("failed to open capture file %s: %w", fs.path, err)
	}
	r, err := newReader(f)
	if err != nil {
		f.Close()
		return fmt.Errorf("failed to read capture file %s: %w", fs.path, err)
	}
	fs.file = f
	fs.reader = r
	return nil
}

func newReader(r io.Reader) (packetReader, error) {
	br := bufio.NewReader(r)
	magic, err := br.Peek(len(pcapngMagic))
	if err != nil {
		return nil, err
	}
	if bytes.Equal(magic, pcapngMagic) {
		return pcapgo.NewNgReader(br, pcapgo.DefaultNgReaderOptions)
	}
	return pcapgo.NewReader(br)
}

// ReadPacket returns the next frame, or io.EOF at the end of the file.
func (fs *FileSource) ReadPacket() ([]byte, gopacket.CaptureInfo, error) {
	if fs.reader == nil {
		return nil, gopacket.CaptureInfo{}, ErrNotStarted
	}

	data, ci, err := fs.reader.ReadPacketData()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, gopacket.CaptureInfo{}, io.EOF
		}
		return nil, gopacket.CaptureInfo{}, fmt.Errorf("failed to read packet: %w", err)
	}

	return data, ci, nil
}

func (fs *FileSource) LinkType() layers.LinkType {
	if fs.reader == nil {
		return layers.LinkTypeEthernet // default
	}
	return fs.reader.LinkType()
}

func (fs *FileSource) Stop() error {
	if fs.file != nil {
		err := fs.file.Close()
		fs.file = nil
		fs.reader = nil
		return err
	}
	return nil
}
