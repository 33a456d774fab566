package carddata

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"

	"github.com/sergeii/paytv/internal/blocks"
	"github.com/sergeii/paytv/internal/validation/validators"
	"github.com/sergeii/paytv/pkg/kernel"
	"github.com/sergeii/paytv/pkg/prbs"
	"github.com/sergeii/paytv/pkg/signature"
)

var (
	ErrUndecodedKeys  = errors.New("card data contains unknown keys")
	ErrInvalid        = errors.New("card data is invalid")
	ErrKeyNotFound    = errors.New("key not found in card data")
	ErrNoKernelTables = errors.New("card data has no kernel tables")
)

// templates with a free access answer when the card data does not provide one
var freeTemplates = map[string]bool{
	"fa":  true,
	"fa2": true,
}

type keyFile struct {
	Data string `toml:"data" validate:"required,hexmin=32"`
}

type kernelFile struct {
	LUT    string `toml:"lut"    validate:"required,hexlen=256"`
	Secret string `toml:"secret" validate:"required,hexlen=32"`
}

type signatureFile struct {
	Hash      uint32 `toml:"hash"      validate:"lte=16777215"`
	Signature uint32 `toml:"signature"`
}

type blockFile struct {
	Mode     uint8    `toml:"mode"`
	Answer   *uint64  `toml:"answer"   validate:"omitempty,lte=1152921504606846975"`
	Messages []string `toml:"messages" validate:"max=8,dive,hexlen=32"`
}

type templateFile struct {
	Blocks []blockFile `toml:"blocks" validate:"min=1,max=2,dive"`
}

type file struct {
	Keys       map[string]keyFile      `toml:"keys"       validate:"dive"`
	Kernel     *kernelFile             `toml:"kernel"     validate:"omitempty"`
	Signatures []signatureFile         `toml:"signatures" validate:"dive"`
	Templates  map[string]templateFile `toml:"templates"  validate:"dive"`
}

// BlockTemplate is the initial content of a message block
type BlockTemplate struct {
	Mode byte
	Data blocks.Data
}

// Data is the externally supplied material the cards are emulated with
type Data struct {
	keys       map[string][]byte
	tables     *kernel.Tables
	signatures []signature.Entry
	templates  map[string][]BlockTemplate
}

// Default is the card data used when no file is provided
func Default() *Data {
	return &Data{
		keys:      make(map[string][]byte),
		templates: make(map[string][]BlockTemplate),
	}
}

func LoadFile(path string, validate *validator.Validate) (*Data, error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Load(contents, validate)
}

func Load(contents []byte, validate *validator.Validate) (*Data, error) {
	var f file
	md, err := toml.Decode(string(contents), &f)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		return nil, fmt.Errorf("%w: %s", ErrUndecodedKeys, strings.Join(keys, ", "))
	}
	if err = validate.Struct(f); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return f.build()
}

func (f file) build() (*Data, error) {
	d := Default()

	for name, k := range f.Keys {
		key, err := decodeHex(k.Data)
		if err != nil {
			return nil, fmt.Errorf("%w: key %s: %w", ErrInvalid, name, err)
		}
		d.keys[name] = key
	}

	if f.Kernel != nil {
		lut, err := decodeHex(f.Kernel.LUT)
		if err != nil {
			return nil, fmt.Errorf("%w: kernel lut: %w", ErrInvalid, err)
		}
		secret, err := decodeHex(f.Kernel.Secret)
		if err != nil {
			return nil, fmt.Errorf("%w: kernel secret: %w", ErrInvalid, err)
		}
		d.tables = &kernel.Tables{}
		copy(d.tables.LUT[:], lut)
		copy(d.tables.Secret[:], secret)
	}

	d.signatures = make([]signature.Entry, 0, len(f.Signatures))
	for _, s := range f.Signatures {
		d.signatures = append(d.signatures, signature.Entry{Hash: s.Hash, Signature: s.Signature})
	}

	for name, t := range f.Templates {
		tpls := make([]BlockTemplate, 0, len(t.Blocks))
		for i, b := range t.Blocks {
			tpl := BlockTemplate{Mode: b.Mode}
			if b.Answer != nil {
				tpl.Data.Answer = *b.Answer
				tpl.Data.HasAnswer = true
			} else if freeTemplates[name] {
				tpl.Data.Answer = prbs.FreeAccessCodeword
				tpl.Data.HasAnswer = true
			}
			for j, m := range b.Messages {
				msg, err := decodeHex(m)
				if err != nil {
					return nil, fmt.Errorf("%w: template %s block %d message %d: %w", ErrInvalid, name, i, j, err)
				}
				copy(tpl.Data.Messages[j][:], msg)
			}
			tpls = append(tpls, tpl)
		}
		d.templates[name] = tpls
	}

	return d, nil
}

// Key returns a copy of the named key
func (d *Data) Key(name string) ([]byte, error) {
	key, ok := d.keys[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrKeyNotFound, name)
	}
	return append([]byte(nil), key...), nil
}

func (d *Data) KernelTables() (*kernel.Tables, error) {
	if d.tables == nil {
		return nil, ErrNoKernelTables
	}
	tables := *d.tables
	return &tables, nil
}

func (d *Data) Signatures() []signature.Entry {
	return d.signatures
}

// Template returns the initial content of the block of the named template.
// Blocks missing from the card data start out empty.
func (d *Data) Template(name string, block int) BlockTemplate {
	tpls := d.templates[name]
	if block < len(tpls) {
		return tpls[block]
	}
	var tpl BlockTemplate
	if freeTemplates[name] {
		tpl.Data.Answer = prbs.FreeAccessCodeword
		tpl.Data.HasAnswer = true
	}
	return tpl
}

func decodeHex(value string) ([]byte, error) {
	return hex.DecodeString(validators.StripHex(value))
}
