/*
Package codec implements the opaque codec plugins C8 drives: a lossy
float codec parameterized by a target bit width, and an optional lossless
byte-stream codec. Both are resolved at run time by name through a
Registry that maps each codec name to a constructor; there is no fixed
set of codec variants, and an unregistered name is only reported when a
codec of that name is requested.

The lossy codec (BitQuant) generalizes guppy's compress.Quantize/
Dequantize pair from a fixed delta to a "bits" string parameter, the way
spec.md section 4.5 calls for (lossy_codec.compress(v, {"bits":
bits[b]})). The lossless codec (Zstd) reuses compress.go's
WriteCompressedIntsZStd/ReadCompressedIntsZStd column-splitting idiom,
collapsed from eight one-byte columns to the single byte stream spec.md
section 4.5 describes as "a deliberate fiction to exercise the byte
codec."
*/
package codec

import (
	"encoding/binary"
	"math"
	"strconv"

	"github.com/DataDog/zstd"

	"github.com/lanl/vizaly-density/lib/errs"
)

// Lossy is a float codec parameterized by a bit-precision budget.
// Compress receives params["bits"] = str(bits[b]) and returns an opaque
// byte blob; Decompress reverses it given the expected element count.
type Lossy interface {
	Compress(values []float32, params map[string]string) ([]byte, error)
	Decompress(data []byte, n int) ([]float32, error)
}

// Lossless is a byte-stream codec applied on top of a lossy codec's
// output to shrink its representation further. Decompression is not
// required for reconstructing floats (see GLOSSARY).
type Lossless interface {
	Compress(data []byte) ([]byte, error)
	Decompress(data []byte, n int) ([]byte, error)
}

// Registry resolves codec names to constructed instances, mirroring
// run.cpp's CompressorFactory::create(name) dispatch.
type Registry struct {
	lossy    map[string]func() Lossy
	lossless map[string]func() Lossless
}

// NewRegistry builds a Registry pre-populated with this package's
// built-in codecs ("bitquant" lossy, "zstd" lossless).
func NewRegistry() *Registry {
	r := &Registry{
		lossy:    map[string]func() Lossy{},
		lossless: map[string]func() Lossless{},
	}
	r.RegisterLossy("bitquant", func() Lossy { return NewBitQuant() })
	r.RegisterLossless("zstd", func() Lossless { return NewZstd() })
	return r
}

// RegisterLossy adds (or replaces) a named lossy codec constructor.
func (r *Registry) RegisterLossy(name string, ctor func() Lossy) {
	r.lossy[name] = ctor
}

// RegisterLossless adds (or replaces) a named lossless codec constructor.
func (r *Registry) RegisterLossless(name string, ctor func() Lossless) {
	r.lossless[name] = ctor
}

// Lossy constructs a fresh instance of the named lossy codec: one codec
// instance per bucket, per spec.md section 4.5's contract.
func (r *Registry) Lossy(name string) (Lossy, error) {
	ctor, ok := r.lossy[name]
	if !ok {
		return nil, errs.New(errs.ConfigInvalid, map[string]interface{}{"name": name},
			"no lossy codec registered under name %q", name)
	}
	return ctor(), nil
}

// Lossless constructs a fresh instance of the named lossless codec.
func (r *Registry) Lossless(name string) (Lossless, error) {
	ctor, ok := r.lossless[name]
	if !ok {
		return nil, errs.New(errs.ConfigInvalid, map[string]interface{}{"name": name},
			"no lossless codec registered under name %q", name)
	}
	return ctor(), nil
}

// bitQuantHeader is the fixed-size preamble BitQuant.Compress writes
// before the quantized payload: the value range the quantization was
// derived from, the element count (which Decompress checks against the n
// its caller passes), and the dither seed.
type bitQuantHeader struct {
	Min, Delta float64
	N          int64
	Seed       uint64
}

// BitQuant is the lossy codec: fixed-bit-width quantization with
// uniform-dither reconstruction, generalized from compress.go's
// Quantize/Dequantize pair (see package doc comment).
type BitQuant struct {
	seed uint64
}

// NewBitQuant constructs a BitQuant codec. The dither seed is fixed per
// instance so Compress+Decompress within the same bucket is
// deterministic; it is not meant to be cryptographically random.
func NewBitQuant() *BitQuant {
	return &BitQuant{seed: 0}
}

// Compress quantizes values to the bit width named in params["bits"].
func (c *BitQuant) Compress(values []float32, params map[string]string) ([]byte, error) {
	bitsStr, ok := params["bits"]
	if !ok {
		return nil, errs.New(errs.ConfigInvalid, nil, "codec: bitquant requires a \"bits\" parameter")
	}
	bits, err := strconv.Atoi(bitsStr)
	if err != nil || bits <= 0 || bits > 62 {
		return nil, errs.New(errs.ConfigInvalid, map[string]interface{}{"bits": bitsStr},
			"codec: invalid \"bits\" parameter %q", bitsStr)
	}

	if len(values) == 0 {
		return nil, errs.New(errs.CodecFailed, nil, "codec: bitquant given zero values to compress")
	}

	min, max := float64(values[0]), float64(values[0])
	for _, v := range values[1:] {
		fv := float64(v)
		if fv < min {
			min = fv
		}
		if fv > max {
			max = fv
		}
	}

	levels := math.Pow(2, float64(bits)) - 1
	delta := (max - min) / levels
	if delta == 0 {
		delta = 1
	}

	q := make([]int64, len(values))
	for i, v := range values {
		q[i] = int64(math.Floor((float64(v) - min) / delta))
	}

	buf := make([]byte, 0, 64+8*len(q))
	hd := bitQuantHeader{Min: min, Delta: delta, N: int64(len(q)), Seed: c.seed}
	hdBytes := make([]byte, binary.Size(hd))
	writeHeader(hdBytes, hd)
	buf = append(buf, hdBytes...)

	payload := make([]byte, 8*len(q))
	for i, v := range q {
		binary.LittleEndian.PutUint64(payload[i*8:], uint64(v))
	}
	buf = append(buf, payload...)

	return buf, nil
}

// Decompress reverses Compress, dithering each quantized level back into
// a float the same way compress.Dequantize does: delta*(q + uniform(0,1)).
func (c *BitQuant) Decompress(data []byte, n int) ([]float32, error) {
	hdSize := binary.Size(bitQuantHeader{})
	if len(data) < hdSize {
		return nil, errs.New(errs.CodecFailed, map[string]interface{}{"len": len(data)},
			"codec: bitquant payload shorter than its header")
	}
	hd := readHeader(data[:hdSize])
	payload := data[hdSize:]

	if int(hd.N) != n || len(payload) != 8*n {
		return nil, errs.New(errs.CodecFailed,
			map[string]interface{}{"declared_n": hd.N, "expected_n": n, "payload_len": len(payload)},
			"codec: bitquant decompress size mismatch")
	}

	gen := newRNG(hd.Seed)
	out := make([]float32, n)
	for i := 0; i < n; i++ {
		q := int64(binary.LittleEndian.Uint64(payload[i*8:]))
		out[i] = float32(hd.Min + hd.Delta*(float64(q)+gen.uniform()))
	}
	return out, nil
}

func writeHeader(buf []byte, hd bitQuantHeader) {
	binary.LittleEndian.PutUint64(buf[0:], math.Float64bits(hd.Min))
	binary.LittleEndian.PutUint64(buf[8:], math.Float64bits(hd.Delta))
	binary.LittleEndian.PutUint64(buf[16:], uint64(hd.N))
	binary.LittleEndian.PutUint64(buf[24:], hd.Seed)
}

func readHeader(buf []byte) bitQuantHeader {
	return bitQuantHeader{
		Min:   math.Float64frombits(binary.LittleEndian.Uint64(buf[0:])),
		Delta: math.Float64frombits(binary.LittleEndian.Uint64(buf[8:])),
		N:     int64(binary.LittleEndian.Uint64(buf[16:])),
		Seed:  binary.LittleEndian.Uint64(buf[24:]),
	}
}

// Zstd is the lossless codec: a direct wrapper around
// github.com/DataDog/zstd, the same library and compression level guppy's
// WriteCompressedIntsZStd uses.
type Zstd struct{}

// NewZstd constructs a Zstd lossless codec.
func NewZstd() *Zstd { return &Zstd{} }

// Compress shrinks data with zstd at the same low compression level
// (1) guppy's WriteCompressedIntsZStd uses, favoring throughput over
// ratio since the lossy stage has already done the heavy lifting.
func (z *Zstd) Compress(data []byte) ([]byte, error) {
	out, err := zstd.CompressLevel(nil, data, 1)
	if err != nil {
		return nil, errs.Wrap(errs.CodecFailed, err, nil)
	}
	if len(out) == 0 && len(data) > 0 {
		return nil, errs.New(errs.CodecFailed, nil, "codec: zstd compress returned zero bytes for non-empty input")
	}
	return out, nil
}

// Decompress reverses Compress, checking the result is exactly n bytes.
func (z *Zstd) Decompress(data []byte, n int) ([]byte, error) {
	out, err := zstd.Decompress(nil, data)
	if err != nil {
		return nil, errs.Wrap(errs.CodecFailed, err, nil)
	}
	if len(out) != n {
		return nil, errs.New(errs.CodecFailed,
			map[string]interface{}{"got": len(out), "want": n},
			"codec: zstd decompress produced %d bytes, expected %d", len(out), n)
	}
	return out, nil
}
