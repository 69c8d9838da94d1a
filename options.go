package tikakit

import (
	"encoding/json"
	"fmt"
	"maps"
	"strconv"
)

// Option represents a per-call configuration option
type Option func(*Options)

// Options contains all possible options for an extraction or detection call.
// The zero value means "no options".
type Options struct {
	// MaxLength caps the extracted text at this many characters. Zero means no limit.
	MaxLength int

	// Password is the decryption key for protected documents
	Password string

	// ContentType is a MIME type hint that skips detection for meta and charset calls
	ContentType string

	// Extra holds fields the facade does not interpret. Engines receive them untouched.
	Extra map[string]string
}

// WithMaxLength caps the extracted text length
func WithMaxLength(n int) Option {
	return func(o *Options) {
		o.MaxLength = n
	}
}

// WithPassword sets the password used to decrypt protected documents
func WithPassword(password string) Option {
	return func(o *Options) {
		o.Password = password
	}
}

// WithContentType sets the content type hint
func WithContentType(contentType string) Option {
	return func(o *Options) {
		o.ContentType = contentType
	}
}

// WithExtra passes an engine-specific field through untouched
func WithExtra(key, value string) Option {
	return func(o *Options) {
		if o.Extra == nil {
			o.Extra = make(map[string]string)
		}
		o.Extra[key] = value
	}
}

// WithOptions copies every set field of opts. It lets callers holding an
// Options value (decoded from JSON, say) pass it where an Option is expected.
func WithOptions(opts Options) Option {
	return func(o *Options) {
		if opts.MaxLength != 0 {
			o.MaxLength = opts.MaxLength
		}
		if opts.Password != "" {
			o.Password = opts.Password
		}
		if opts.ContentType != "" {
			o.ContentType = opts.ContentType
		}
		for k, v := range opts.Extra {
			WithExtra(k, v)(o)
		}
	}
}

// processOptions applies options in order; later options override earlier ones.
func processOptions(options ...Option) *Options {
	opts := &Options{}
	for _, option := range options {
		option(opts)
	}
	return opts
}

// IsZero reports whether no option is set
func (o *Options) IsZero() bool {
	return o == nil || (o.MaxLength == 0 && o.Password == "" && o.ContentType == "" && len(o.Extra) == 0)
}

// Clone returns a deep copy of o
func (o *Options) Clone() *Options {
	if o == nil {
		return &Options{}
	}
	c := *o
	if o.Extra != nil {
		c.Extra = maps.Clone(o.Extra)
	}
	return &c
}

// MarshalJSON encodes the recognized fields under their wire names and inlines
// Extra fields next to them.
func (o Options) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, len(o.Extra)+3)
	for k, v := range o.Extra {
		m[k] = v
	}
	if o.MaxLength != 0 {
		m["maxLength"] = o.MaxLength
	}
	if o.Password != "" {
		m["password"] = o.Password
	}
	if o.ContentType != "" {
		m["contentType"] = o.ContentType
	}
	return json.Marshal(m)
}

// UnmarshalJSON decodes the recognized fields and keeps every other scalar
// field in Extra.
func (o *Options) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*o = Options{}
	for k, v := range raw {
		switch k {
		case "maxLength":
			if err := json.Unmarshal(v, &o.MaxLength); err != nil {
				return fmt.Errorf("maxLength: %w", err)
			}
		case "password":
			if err := json.Unmarshal(v, &o.Password); err != nil {
				return fmt.Errorf("password: %w", err)
			}
		case "contentType":
			if err := json.Unmarshal(v, &o.ContentType); err != nil {
				return fmt.Errorf("contentType: %w", err)
			}
		default:
			s, err := scalarString(v)
			if err != nil {
				return fmt.Errorf("%s: %w", k, err)
			}
			WithExtra(k, s)(o)
		}
	}
	return nil
}

func scalarString(v json.RawMessage) (string, error) {
	var x any
	if err := json.Unmarshal(v, &x); err != nil {
		return "", err
	}
	switch t := x.(type) {
	case string:
		return t, nil
	case bool:
		return strconv.FormatBool(t), nil
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), nil
	case nil:
		return "", nil
	default:
		return "", fmt.Errorf("unsupported value %s", string(v))
	}
}
