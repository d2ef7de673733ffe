package feed

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/ulikunitz/xz/lzma"

	"TickPull/internal/domain/models"
)

// recordSize is the fixed width of one tick frame in a decompressed file:
// int32 ms offset, int32 scaled ask, int32 scaled bid, float32 ask volume,
// float32 bid volume, all big-endian. No header, no terminator.
const recordSize = 20

// DecodeError marks a payload that could not be turned into ticks. It is
// scoped to one hourly file and must never abort sibling files.
type DecodeError struct {
	Ref models.HourRef
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: %v", e.Ref.Key(), e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Decode decompresses one hourly payload and decodes its fixed-width frames.
// priceScale must come from instrument metadata; callers resolve it before
// any fetch, so a non-positive scale here is a programming error.
func Decode(compressed []byte, ref models.HourRef, priceScale float64) ([]models.Tick, error) {
	if priceScale <= 0 {
		return nil, &DecodeError{Ref: ref, Err: fmt.Errorf("invalid price scale %v", priceScale)}
	}

	r, err := lzma.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, &DecodeError{Ref: ref, Err: fmt.Errorf("lzma reader: %w", err)}
	}
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, &DecodeError{Ref: ref, Err: fmt.Errorf("lzma decompress: %w", err)}
	}

	if len(raw)%recordSize != 0 {
		return nil, &DecodeError{Ref: ref, Err: fmt.Errorf("payload length %d is not a multiple of %d", len(raw), recordSize)}
	}

	anchor := ref.Anchor()
	ticks := make([]models.Tick, 0, len(raw)/recordSize)
	for pos := 0; pos < len(raw); pos += recordSize {
		chunk := raw[pos : pos+recordSize]
		ms := int32(binary.BigEndian.Uint32(chunk[0:4]))
		askRaw := int32(binary.BigEndian.Uint32(chunk[4:8]))
		bidRaw := int32(binary.BigEndian.Uint32(chunk[8:12]))
		askVol := math.Float32frombits(binary.BigEndian.Uint32(chunk[12:16]))
		bidVol := math.Float32frombits(binary.BigEndian.Uint32(chunk[16:20]))

		ticks = append(ticks, models.Tick{
			Timestamp: anchor.Add(time.Duration(ms) * time.Millisecond),
			Ask:       float64(askRaw) / priceScale,
			Bid:       float64(bidRaw) / priceScale,
			AskVol:    float64(askVol),
			BidVol:    float64(bidVol),
		})
	}
	return ticks, nil
}
