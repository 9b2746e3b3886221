// Package ico assembles PNG frames into a Windows ICO container and reads
// the container directory back.
//
// The layout is a 6 byte header, one 16 byte directory entry per frame and
// the PNG payloads in directory order. All integers are little endian. A
// width or height of 256 is stored as 0.
package ico

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"sort"
)

const (
	headerSize = 6
	entrySize  = 16
	maxDim     = 256
	typeIcon   = 1
)

var pngSignature = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

var (
	// ErrNoFrames is returned when there is nothing to encode.
	ErrNoFrames = errors.New("ico: no frames")
	// ErrInvalidFrame is returned for a frame that is not a usable PNG.
	ErrInvalidFrame = errors.New("ico: invalid png frame")
	// ErrInvalidContainer is returned by Parse for truncated or inconsistent data.
	ErrInvalidContainer = errors.New("ico: invalid container")
)

// header is the ICONDIR structure.
type header struct {
	Reserved uint16
	Type     uint16
	Count    uint16
}

// direntry is the ICONDIRENTRY structure.
type direntry struct {
	Width    uint8
	Height   uint8
	Colors   uint8
	Reserved uint8
	Planes   uint16
	BitCount uint16
	Size     uint32
	Offset   uint32
}

// Entry is one decoded directory entry.
type Entry struct {
	Width, Height int
	Planes        int
	BitCount      int
	Size          int
	Offset        int
}

type frame struct {
	data          []byte
	width, height int
	index         int
}

// PNGSize reads the dimensions from the IHDR chunk of a PNG stream.
func PNGSize(data []byte) (width, height int, err error) {
	if len(data) < 24 || !bytes.Equal(data[:8], pngSignature) || string(data[12:16]) != "IHDR" {
		return 0, 0, ErrInvalidFrame
	}
	w := binary.BigEndian.Uint32(data[16:20])
	h := binary.BigEndian.Uint32(data[20:24])
	return int(w), int(h), nil
}

// Encode builds an ICO file from PNG encoded frames. The dimensions stored
// in the directory are read from each frame itself, and frames are ordered
// smallest first. Frames larger than 256 pixels on either side are rejected.
func Encode(frames [][]byte) ([]byte, error) {
	if len(frames) == 0 {
		return nil, ErrNoFrames
	}
	if len(frames) > 0xffff {
		return nil, fmt.Errorf("ico: too many frames: %d", len(frames))
	}

	list := make([]frame, len(frames))
	total := headerSize + entrySize*len(frames)
	for i, data := range frames {
		w, h, err := PNGSize(data)
		if err != nil {
			return nil, fmt.Errorf("frame %d: %w", i, err)
		}
		if w <= 0 || h <= 0 || w > maxDim || h > maxDim {
			return nil, fmt.Errorf("frame %d: %w: %dx%d exceeds %dx%d", i, ErrInvalidFrame, w, h, maxDim, maxDim)
		}
		list[i] = frame{data: data, width: w, height: h, index: i}
		total += len(data)
	}
	sort.SliceStable(list, func(i, j int) bool {
		a, b := list[i], list[j]
		if a.width*a.height != b.width*b.height {
			return a.width*a.height < b.width*b.height
		}
		return a.width < b.width
	})

	buf := bytes.NewBuffer(make([]byte, 0, total))
	// Writes into a bytes.Buffer cannot fail.
	_ = binary.Write(buf, binary.LittleEndian, header{Type: typeIcon, Count: uint16(len(list))})

	offset := headerSize + entrySize*len(list)
	for _, f := range list {
		_ = binary.Write(buf, binary.LittleEndian, direntry{
			Width:    dimByte(f.width),
			Height:   dimByte(f.height),
			Planes:   1,
			BitCount: 32,
			Size:     uint32(len(f.data)),
			Offset:   uint32(offset),
		})
		offset += len(f.data)
	}
	for _, f := range list {
		buf.Write(f.data)
	}
	return buf.Bytes(), nil
}

func dimByte(v int) uint8 {
	if v >= maxDim {
		return 0
	}
	return uint8(v)
}

// Parse decodes the directory of an ICO file and checks that every entry
// points inside the data.
func Parse(data []byte) ([]Entry, error) {
	var h header
	if err := binary.Read(bytes.NewReader(data), binary.LittleEndian, &h); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidContainer, err)
	}
	if h.Reserved != 0 || h.Type != typeIcon {
		return nil, fmt.Errorf("%w: not an icon resource", ErrInvalidContainer)
	}
	dirEnd := headerSize + entrySize*int(h.Count)
	if len(data) < dirEnd {
		return nil, fmt.Errorf("%w: truncated directory", ErrInvalidContainer)
	}

	r := bytes.NewReader(data[headerSize:dirEnd])
	entries := make([]Entry, h.Count)
	for i := range entries {
		var d direntry
		if err := binary.Read(r, binary.LittleEndian, &d); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidContainer, err)
		}
		e := Entry{
			Width:    int(d.Width),
			Height:   int(d.Height),
			Planes:   int(d.Planes),
			BitCount: int(d.BitCount),
			Size:     int(d.Size),
			Offset:   int(d.Offset),
		}
		if e.Width == 0 {
			e.Width = maxDim
		}
		if e.Height == 0 {
			e.Height = maxDim
		}
		if e.Offset < dirEnd || e.Size > len(data)-e.Offset {
			return nil, fmt.Errorf("%w: entry %d points outside the file", ErrInvalidContainer, i)
		}
		entries[i] = e
	}
	return entries, nil
}

// Frame returns the payload of entry e.
func Frame(data []byte, e Entry) []byte {
	return data[e.Offset : e.Offset+e.Size]
}
