package model

import (
	"fmt"

	"github.com/sergeii/paytv/internal/encoder"
)

type Session struct {
	ID       string `json:"id"`
	ModeA    string `json:"mode_a,omitempty"`
	ModeB    string `json:"mode_b,omitempty"`
	State    string `json:"state"`
	Frame    uint64 `json:"frame"`
	Codeword string `json:"codeword"` // 60 bit, hex
	BlockA   *int   `json:"block_a,omitempty"`
	BlockB   *int   `json:"block_b,omitempty"`
}

func NewSessionFromDomain(info encoder.Info) Session {
	s := Session{
		ID:       info.ID.String(),
		ModeA:    info.ModeA,
		ModeB:    info.ModeB,
		State:    info.State.String(),
		Frame:    info.Frame,
		Codeword: fmt.Sprintf("%015X", info.Codeword),
	}
	if info.BlockA >= 0 {
		idx := info.BlockA
		s.BlockA = &idx
	}
	if info.BlockB >= 0 {
		idx := info.BlockB
		s.BlockB = &idx
	}
	return s
}
