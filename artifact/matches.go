package artifact

import (
	"fmt"

	"github.com/hupe1980/cascade/codec"
	"github.com/hupe1980/cascade/model"
)

const (
	matchesMagic   = "CHMT"
	matchesVersion = 1
)

// pairDoc is the document form of one matched pair.
type pairDoc struct {
	I       model.ImageID `json:"i"`
	J       model.ImageID `json:"j"`
	Matches [][2]uint32   `json:"matches"`
}

// EncodeMatches serializes a match table with the given codec (nil selects
// codec.Default). Pairs are written in (I, J) order.
//
// Layout: magic "CHMT" | version u8 | compression u8 | codec name length u8 |
// codec name | block(document).
func EncodeMatches(m model.PairwiseMatches, cd codec.Codec, c Compression) ([]byte, error) {
	if cd == nil {
		cd = codec.Default
	}
	if !c.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownCompression, c)
	}
	name := cd.Name()
	if len(name) == 0 || len(name) > 255 {
		return nil, fmt.Errorf("artifact: invalid codec name %q", name)
	}

	doc := make([]pairDoc, 0, len(m))
	for _, p := range m.Pairs() {
		matches := make([][2]uint32, len(m[p]))
		for i, corr := range m[p] {
			matches[i] = [2]uint32{corr.A, corr.B}
		}
		doc = append(doc, pairDoc{I: p.I, J: p.J, Matches: matches})
	}

	payload, err := cd.Marshal(doc)
	if err != nil {
		return nil, err
	}

	out := make([]byte, 0, 7+len(name)+blockHeaderSize+len(payload))
	out = append(out, matchesMagic...)
	out = append(out, matchesVersion, byte(c), byte(len(name)))
	out = append(out, name...)

	return appendBlock(out, payload, c)
}

// DecodeMatches parses a match table blob using the codec named in its
// header.
func DecodeMatches(data []byte) (model.PairwiseMatches, error) {
	if len(data) < 7 || string(data[:4]) != matchesMagic {
		return nil, fmt.Errorf("%w: not a match table blob", ErrCorrupt)
	}
	if data[4] != matchesVersion {
		return nil, fmt.Errorf("%w: unsupported match table version %d", ErrCorrupt, data[4])
	}
	c := Compression(data[5])
	if !c.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownCompression, c)
	}

	nameLen := int(data[6])
	if len(data) < 7+nameLen {
		return nil, fmt.Errorf("%w: truncated codec name", ErrCorrupt)
	}
	name := string(data[7 : 7+nameLen])
	cd, ok := codec.ByName(name)
	if !ok {
		return nil, fmt.Errorf("%w: unknown codec %q", ErrCorrupt, name)
	}

	payload, _, err := readBlock(data[7+nameLen:], c, unknownSize)
	if err != nil {
		return nil, err
	}

	var doc []pairDoc
	if err := cd.Unmarshal(payload, &doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}

	out := make(model.PairwiseMatches, len(doc))
	for _, d := range doc {
		p := model.NewPair(d.I, d.J)
		if !p.Valid() || p != (model.Pair{I: d.I, J: d.J}) {
			return nil, fmt.Errorf("%w: invalid pair (%d,%d)", ErrCorrupt, d.I, d.J)
		}
		if len(d.Matches) == 0 {
			continue
		}
		corr := make([]model.Correspondence, len(d.Matches))
		for i, ab := range d.Matches {
			corr[i] = model.Correspondence{A: ab[0], B: ab[1]}
		}
		out[p] = corr
	}
	return out, nil
}
