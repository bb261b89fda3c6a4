package backup

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fxamacker/cbor/v2"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"gopkg.in/yaml.v3"

	"github.com/aretw0/nook/pkg/transfer"
)

// Codec turns a transfer document into archive bytes and back.
type Codec interface {
	Marshal(doc transfer.Node) ([]byte, error)
	Unmarshal(data []byte) (transfer.Node, error)
}

// DefaultCodecs returns the document codecs keyed by file extension.
func DefaultCodecs() map[string]Codec {
	return map[string]Codec{
		".json": JSONCodec{},
		".yaml": YAMLCodec{},
		".yml":  YAMLCodec{},
		".cbor": CBORCodec{},
	}
}

// Compressors returns the compression wrappers keyed by file extension.
func Compressors() map[string]Compressor {
	return map[string]Compressor{
		".zst": zstdCompressor{},
		".lz4": lz4Compressor{},
	}
}

// CodecFor picks the codec for an archive name such as "vault.json" or
// "vault.yaml.zst". A trailing compression extension wraps the document
// codec named by the extension before it.
func CodecFor(name string) (Codec, error) {
	codecs := DefaultCodecs()
	base := strings.ToLower(name)

	var compressor Compressor
	for ext, c := range Compressors() {
		if strings.HasSuffix(base, ext) {
			compressor = c
			base = strings.TrimSuffix(base, ext)
			break
		}
	}

	for ext, codec := range codecs {
		if !strings.HasSuffix(base, ext) {
			continue
		}
		if compressor != nil {
			return Compressed{Codec: codec, Compressor: compressor}, nil
		}
		return codec, nil
	}
	return nil, fmt.Errorf("no codec for archive %q", name)
}

// --- JSON ---

// JSONCodec writes the document as indented JSON, the native transfer format.
type JSONCodec struct{}

func (JSONCodec) Marshal(doc transfer.Node) ([]byte, error) {
	return json.MarshalIndent(doc, "", "  ")
}

func (JSONCodec) Unmarshal(data []byte) (transfer.Node, error) {
	var doc transfer.Node
	if err := json.Unmarshal(data, &doc); err != nil {
		return transfer.Node{}, fmt.Errorf("invalid json: %w", err)
	}
	return doc, nil
}

// --- YAML ---

// YAMLCodec writes the document as YAML with the same field names as JSON.
type YAMLCodec struct{}

func (YAMLCodec) Marshal(doc transfer.Node) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (YAMLCodec) Unmarshal(data []byte) (transfer.Node, error) {
	var doc transfer.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return transfer.Node{}, fmt.Errorf("invalid yaml: %w", err)
	}
	return doc, nil
}

// --- CBOR ---

var (
	cborEnc cbor.EncMode
	cborDec cbor.DecMode
)

func init() {
	encOptions := cbor.CoreDetEncOptions()
	// EntryType travels as its text name, as in JSON.
	encOptions.TextMarshaler = cbor.TextMarshalerTextString
	var err error
	cborEnc, err = encOptions.EncMode()
	if err != nil {
		panic("backup: CBOR encoder initialization failed: " + err.Error())
	}

	cborDec, err = cbor.DecOptions{
		TextUnmarshaler: cbor.TextUnmarshalerTextString,
	}.DecMode()
	if err != nil {
		panic("backup: CBOR decoder initialization failed: " + err.Error())
	}
}

// CBORCodec writes the document as deterministic CBOR.
type CBORCodec struct{}

func (CBORCodec) Marshal(doc transfer.Node) ([]byte, error) {
	return cborEnc.Marshal(doc)
}

func (CBORCodec) Unmarshal(data []byte) (transfer.Node, error) {
	var doc transfer.Node
	if err := cborDec.Unmarshal(data, &doc); err != nil {
		return transfer.Node{}, fmt.Errorf("invalid cbor: %w", err)
	}
	return doc, nil
}

// --- Compression ---

// Compressor is a whole-buffer compression scheme.
type Compressor interface {
	Compress(data []byte) ([]byte, error)
	Decompress(data []byte) ([]byte, error)
}

// Compressed applies a Compressor on top of a document codec.
type Compressed struct {
	Codec      Codec
	Compressor Compressor
}

func (c Compressed) Marshal(doc transfer.Node) ([]byte, error) {
	data, err := c.Codec.Marshal(doc)
	if err != nil {
		return nil, err
	}
	return c.Compressor.Compress(data)
}

func (c Compressed) Unmarshal(data []byte) (transfer.Node, error) {
	raw, err := c.Compressor.Decompress(data)
	if err != nil {
		return transfer.Node{}, err
	}
	return c.Codec.Unmarshal(raw)
}

// zstd encoders and decoders are safe for concurrent use.
var (
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func init() {
	var err error
	zstdEncoder, err = zstd.NewWriter(nil,
		zstd.WithEncoderLevel(zstd.SpeedDefault),
	)
	if err != nil {
		panic("backup: zstd encoder initialization failed: " + err.Error())
	}

	zstdDecoder, err = zstd.NewReader(nil)
	if err != nil {
		panic("backup: zstd decoder initialization failed: " + err.Error())
	}
}

type zstdCompressor struct{}

func (zstdCompressor) Compress(data []byte) ([]byte, error) {
	return zstdEncoder.EncodeAll(data, nil), nil
}

func (zstdCompressor) Decompress(data []byte) ([]byte, error) {
	out, err := zstdDecoder.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("zstd decompress: %w", err)
	}
	return out, nil
}

// lz4Compressor uses the framed format, which records the content size.
type lz4Compressor struct{}

func (lz4Compressor) Compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := lz4.NewWriter(&buf)
	if _, err := w.Write(data); err != nil {
		return nil, fmt.Errorf("lz4 compress: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("lz4 compress: %w", err)
	}
	return buf.Bytes(), nil
}

func (lz4Compressor) Decompress(data []byte) ([]byte, error) {
	out, err := io.ReadAll(lz4.NewReader(bytes.NewReader(data)))
	if err != nil {
		return nil, fmt.Errorf("lz4 decompress: %w", err)
	}
	return out, nil
}
