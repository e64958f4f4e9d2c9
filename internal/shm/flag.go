package shm

import (
	"encoding/binary"
	"fmt"
)

// Flag is the channel state carried in byte 0 of the frame region and byte 1
// of the result region.
type Flag uint8

const (
	// FlagIdle means the slot is free: consumers may read, the producer may
	// write next.
	FlagIdle Flag = 0
	// FlagWriting means the producer owns the payload.
	FlagWriting Flag = 1
	// FlagExit is the producer's terminal shutdown signal.
	FlagExit Flag = 2
	// FlagReading means a consumer owns the payload. Producers that see it
	// drop the frame instead of waiting.
	FlagReading Flag = 3
)

func (f Flag) String() string {
	switch f {
	case FlagIdle:
		return "IDLE"
	case FlagWriting:
		return "WRITING"
	case FlagExit:
		return "EXIT"
	case FlagReading:
		return "READING"
	}
	return fmt.Sprintf("Flag(%d)", uint8(f))
}

// The header word is always accessed atomically as a whole. Its bytes are
// laid out in memory order regardless of host endianness.
func packWord(b [4]byte) uint32 {
	return binary.NativeEndian.Uint32(b[:])
}

func unpackWord(v uint32) [4]byte {
	var b [4]byte
	binary.NativeEndian.PutUint32(b[:], v)
	return b
}
