package factcache

import (
	"fmt"
	"reflect"

	"github.com/fxamacker/cbor/v2"

	"github.com/roach88/mlprov/internal/domain"
)

// encMode uses Core Deterministic Encoding so a snapshot of the same facts
// is byte-identical. Times keep their nanoseconds as RFC 3339 strings.
var encMode cbor.EncMode

var decMode cbor.DecMode

func init() {
	var err error

	encOptions := cbor.CoreDetEncOptions()
	encOptions.Time = cbor.TimeRFC3339Nano
	encMode, err = encOptions.EncMode()
	if err != nil {
		panic("factcache: CBOR encoder initialization failed: " + err.Error())
	}

	decMode, err = cbor.DecOptions{
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
	}.DecMode()
	if err != nil {
		panic("factcache: CBOR decoder initialization failed: " + err.Error())
	}
}

// decoders maps a stored kind to the concrete fact type it decodes into.
var decoders = map[string]func([]byte) (domain.Fact, error){
	kindOf(domain.Commit{}):                 decode[domain.Commit],
	kindOf(domain.File{}):                   decode[domain.File],
	kindOf(domain.FileRevision{}):           decode[domain.FileRevision],
	kindOf(domain.Experiment{}):             decode[domain.Experiment],
	kindOf(domain.Run{}):                    decode[domain.Run],
	kindOf(domain.RegisteredModel{}):        decode[domain.RegisteredModel],
	kindOf(domain.RegisteredModelVersion{}): decode[domain.RegisteredModelVersion],
}

func kindOf(f domain.Fact) string {
	return reflect.TypeOf(f).Name()
}

func decode[T domain.Fact](data []byte) (domain.Fact, error) {
	var v T
	if err := decMode.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return v, nil
}

func encodeFact(f domain.Fact) (string, []byte, error) {
	kind := kindOf(f)
	if _, ok := decoders[kind]; !ok {
		return "", nil, fmt.Errorf("%w: %T", ErrUnsupportedFact, f)
	}
	data, err := encMode.Marshal(f)
	if err != nil {
		return "", nil, fmt.Errorf("encode %s: %w", kind, err)
	}
	return kind, data, nil
}

func decodeFact(kind string, data []byte) (domain.Fact, error) {
	dec, ok := decoders[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFact, kind)
	}
	f, err := dec(data)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", kind, err)
	}
	return f, nil
}
