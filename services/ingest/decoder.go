package ingest

import (
	"bytes"
	"compress/gzip"
	"encoding/json"
	"errors"
	"io"

	"github.com/upb/ami-parentage/models"
	"github.com/upb/ami-parentage/services"
)

// gzipMagic is the two-byte header of every gzip member
var gzipMagic = []byte{0x1f, 0x8b}

// Decode gunzips raw and returns the envelope's records in payload order
func Decode(raw []byte) ([]models.Record, error) {
	zr, err := gzip.NewReader(bytes.NewReader(raw))
	if err != nil {
		return nil, services.WrapMalformedPayload("gzip decompression failed", err)
	}
	defer zr.Close()

	records, err := DecodeJSON(zr)
	if err != nil {
		return nil, err
	}
	// A truncated stream only surfaces its checksum error once fully drained.
	if _, err := io.Copy(io.Discard, zr); err != nil {
		return nil, services.WrapMalformedPayload("gzip decompression failed", err)
	}
	return records, nil
}

// DecodeJSON parses an uncompressed envelope
func DecodeJSON(r io.Reader) ([]models.Record, error) {
	var env models.Envelope
	if err := json.NewDecoder(r).Decode(&env); err != nil {
		return nil, services.WrapMalformedPayload("envelope parse failed", err)
	}
	if env.Records == nil {
		return nil, services.WrapMalformedPayload("envelope has no Records field", errors.New("missing Records"))
	}
	return *env.Records, nil
}

// DecodeAuto decodes raw as gzip when it carries the gzip magic and as plain
// JSON otherwise. Sample files kept on disk are often uncompressed.
func DecodeAuto(raw []byte) ([]models.Record, error) {
	if bytes.HasPrefix(raw, gzipMagic) {
		return Decode(raw)
	}
	return DecodeJSON(bytes.NewReader(raw))
}
