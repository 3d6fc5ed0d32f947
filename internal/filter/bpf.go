package filter

import (
	"fmt"
	"sync/atomic"

	"github.com/google/gopacket/layers"
	"golang.org/x/net/bpf"
)

// BPFFilter runs a classic BPF program over Ethernet frames and drops those the
// program rejects. Frames of other link types pass untouched, since the program's
// offsets assume an Ethernet header.
type BPFFilter struct {
	vm       *bpf.VM
	rejected atomic.Int64
}

// EtherTypeProgram accepts Ethernet frames whose EtherType equals etherType.
func EtherTypeProgram(etherType uint16) []bpf.Instruction {
	return []bpf.Instruction{
		bpf.LoadAbsolute{Off: 12, Size: 2},
		bpf.JumpIf{Cond: bpf.JumpEqual, Val: uint32(etherType), SkipFalse: 1},
		bpf.RetConstant{Val: 0xffff},
		bpf.RetConstant{Val: 0},
	}
}

// NewBPFFilter validates prog and loads it into a VM.
func NewBPFFilter(prog []bpf.Instruction) (*BPFFilter, error) {
	vm, err := bpf.NewVM(prog)
	if err != nil {
		return nil, fmt.Errorf("load bpf program: %w", err)
	}
	return &BPFFilter{vm: vm}, nil
}

func (f *BPFFilter) Filter(frame *Frame, chain Chain) {
	if frame.LinkType != layers.LinkTypeEthernet {
		chain.Filter(frame)
		return
	}
	// Out-of-bounds loads, i.e. frames too short to match, return 0.
	n, err := f.vm.Run(frame.Data)
	if err != nil || n == 0 {
		f.rejected.Add(1)
		return
	}
	chain.Filter(frame)
}

// Rejected returns the number of frames dropped so far.
func (f *BPFFilter) Rejected() int64 { return f.rejected.Load() }

func (f *BPFFilter) Name() string { return "bpf" }
