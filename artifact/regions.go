package artifact

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/hupe1980/cascade"
	"github.com/hupe1980/cascade/internal/conv"
	"github.com/hupe1980/cascade/model"
)

// ErrCorrupt is returned when a blob cannot be decoded.
var ErrCorrupt = errors.New("artifact: corrupt blob")

const (
	regionsMagic      = "CHRG"
	regionsVersion    = 1
	regionsHeaderSize = 16

	pointSize = 8

	// maxBlobSize bounds decoded sizes derived from header fields.
	maxBlobSize = math.MaxUint32
)

// RegionsExt is the blob name suffix of a regions blob.
const RegionsExt = ".regions"

// RegionsName returns the blob name holding the regions of id.
func RegionsName(id model.ImageID) string {
	return fmt.Sprintf("%d%s", id, RegionsExt)
}

// EncodeRegions serializes an image's descriptor set.
//
// Layout: magic "CHRG" | version u8 | kind u8 | compression u8 | reserved u8 |
// count u32 | dim u32 | block(points, descriptors).
func EncodeRegions(r *cascade.Regions, c Compression) ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownCompression, c)
	}

	count, err := conv.IntToUint32(r.Len())
	if err != nil {
		return nil, err
	}
	dim, err := conv.IntToUint32(r.Dim())
	if err != nil {
		return nil, err
	}

	payload := make([]byte, 0, r.Len()*pointSize+len(r.Bytes()))
	for _, p := range r.Points() {
		payload = binary.LittleEndian.AppendUint32(payload, math.Float32bits(p.X))
		payload = binary.LittleEndian.AppendUint32(payload, math.Float32bits(p.Y))
	}
	payload = append(payload, r.Bytes()...)

	out := make([]byte, regionsHeaderSize, regionsHeaderSize+blockHeaderSize+len(payload))
	copy(out, regionsMagic)
	out[4] = regionsVersion
	out[5] = byte(r.Kind())
	out[6] = byte(c)
	binary.LittleEndian.PutUint32(out[8:], count)
	binary.LittleEndian.PutUint32(out[12:], dim)

	return appendBlock(out, payload, c)
}

// DecodeRegions parses a regions blob. The returned Regions does not alias
// data when the block is compressed.
func DecodeRegions(data []byte) (*cascade.Regions, error) {
	if len(data) < regionsHeaderSize || string(data[:4]) != regionsMagic {
		return nil, fmt.Errorf("%w: not a regions blob", ErrCorrupt)
	}
	if data[4] != regionsVersion {
		return nil, fmt.Errorf("%w: unsupported regions version %d", ErrCorrupt, data[4])
	}

	kind := cascade.Kind(data[5])
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: %s", cascade.ErrUnsupportedKind, kind)
	}
	c := Compression(data[6])
	if !c.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownCompression, c)
	}

	count, err := conv.Uint32ToInt(binary.LittleEndian.Uint32(data[8:]))
	if err != nil {
		return nil, err
	}
	dim, err := conv.Uint32ToInt(binary.LittleEndian.Uint32(data[12:]))
	if err != nil {
		return nil, err
	}

	pointsBytes, err := conv.MulSize(maxBlobSize, count, pointSize)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	descBytes, err := conv.MulSize(maxBlobSize, count, dim, kind.Size())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}

	payload, _, err := readBlock(data[regionsHeaderSize:], c, pointsBytes+descBytes)
	if err != nil {
		return nil, err
	}

	var points []model.Point
	if count > 0 {
		points = make([]model.Point, count)
	}
	for i := range points {
		off := i * pointSize
		points[i] = model.Point{
			X: math.Float32frombits(binary.LittleEndian.Uint32(payload[off:])),
			Y: math.Float32frombits(binary.LittleEndian.Uint32(payload[off+4:])),
		}
	}

	return cascade.RegionsFromBytes(kind, payload[pointsBytes:], count, dim, points)
}
