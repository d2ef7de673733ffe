package feed

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/ulikunitz/xz/lzma"

	"TickPull/internal/domain/models"
)

type rawTick struct {
	ms     int32
	ask    int32
	bid    int32
	askVol float32
	bidVol float32
}

func encodeRaw(t *testing.T, ticks []rawTick) []byte {
	t.Helper()
	var buf bytes.Buffer
	for _, tk := range ticks {
		_ = binary.Write(&buf, binary.BigEndian, tk.ms)
		_ = binary.Write(&buf, binary.BigEndian, tk.ask)
		_ = binary.Write(&buf, binary.BigEndian, tk.bid)
		_ = binary.Write(&buf, binary.BigEndian, math.Float32bits(tk.askVol))
		_ = binary.Write(&buf, binary.BigEndian, math.Float32bits(tk.bidVol))
	}
	return buf.Bytes()
}

func compress(t *testing.T, raw []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	w, err := lzma.NewWriter(&buf)
	if err != nil {
		t.Fatalf("lzma writer: %v", err)
	}
	if _, err := w.Write(raw); err != nil {
		t.Fatalf("compress: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return buf.Bytes()
}

var testRef = models.HourRef{Symbol: "EURUSD", Year: 2003, Month: 1, Day: 5, Hour: 7}

func TestDecode(t *testing.T) {
	in := []rawTick{
		{ms: 0, ask: 10371, bid: 10369, askVol: 1.5, bidVol: 0.75},
		{ms: 1250, ask: 10372, bid: 10370, askVol: 2, bidVol: 1},
		{ms: 3_599_999, ask: 10380, bid: 10377, askVol: 0.25, bidVol: 4},
	}
	payload := compress(t, encodeRaw(t, in))

	const scale = 10000.0
	ticks, err := Decode(payload, testRef, scale)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(ticks) != len(in) {
		t.Fatalf("expected %d ticks, got %d", len(in), len(ticks))
	}

	anchor := time.Date(2003, 1, 5, 7, 0, 0, 0, time.UTC)
	for i, want := range in {
		got := ticks[i]
		wantTS := anchor.Add(time.Duration(want.ms) * time.Millisecond)
		if !got.Timestamp.Equal(wantTS) {
			t.Fatalf("tick %d: timestamp %v, want %v", i, got.Timestamp, wantTS)
		}
		if got.Ask != float64(want.ask)/scale {
			t.Fatalf("tick %d: ask %v, want %v", i, got.Ask, float64(want.ask)/scale)
		}
		if got.Bid != float64(want.bid)/scale {
			t.Fatalf("tick %d: bid %v, want %v", i, got.Bid, float64(want.bid)/scale)
		}
		if got.AskVol != float64(want.askVol) || got.BidVol != float64(want.bidVol) {
			t.Fatalf("tick %d: volumes %v/%v, want %v/%v", i, got.AskVol, got.BidVol, want.askVol, want.bidVol)
		}
	}
}

func TestDecodeAllZeroRecord(t *testing.T) {
	payload := compress(t, make([]byte, 20))

	ref := models.HourRef{Symbol: "EURUSD", Year: 2003, Month: 1, Day: 5, Hour: 0}
	ticks, err := Decode(payload, ref, 10000)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(ticks) != 1 {
		t.Fatalf("expected 1 tick, got %d", len(ticks))
	}
	tk := ticks[0]
	if !tk.Timestamp.Equal(ref.Anchor()) {
		t.Fatalf("expected tick at hour start, got %v", tk.Timestamp)
	}
	if tk.Ask != 0 || tk.Bid != 0 || tk.AskVol != 0 || tk.BidVol != 0 {
		t.Fatalf("expected all-zero tick, got %+v", tk)
	}
}

func TestDecodeEmptyPayload(t *testing.T) {
	ticks, err := Decode(compress(t, nil), testRef, 10000)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(ticks) != 0 {
		t.Fatalf("expected no ticks, got %d", len(ticks))
	}
}

func TestDecodeRaggedLength(t *testing.T) {
	payload := compress(t, make([]byte, 21))
	_, err := Decode(payload, testRef, 10000)
	var de *DecodeError
	if !errors.As(err, &de) {
		t.Fatalf("expected DecodeError, got %v", err)
	}
	if de.Ref != testRef {
		t.Fatalf("error carries wrong ref %+v", de.Ref)
	}
}

func TestDecodeCorruptCompression(t *testing.T) {
	_, err := Decode([]byte{0xde, 0xad, 0xbe, 0xef}, testRef, 10000)
	var de *DecodeError
	if !errors.As(err, &de) {
		t.Fatalf("expected DecodeError, got %v", err)
	}
}

func TestDecodeRejectsBadScale(t *testing.T) {
	payload := compress(t, make([]byte, 20))
	if _, err := Decode(payload, testRef, 0); err == nil {
		t.Fatalf("expected error for zero price scale")
	}
}
