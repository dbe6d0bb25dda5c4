package pdf

import "github.com/go-playground/validator/v10"

var optionsValidate = validator.New()

// ReaderOptions configures how a Reader tolerates malformed input and how
// it obtains passwords for encrypted documents.
type ReaderOptions struct {
	// Password is consulted when a document is encrypted. It is called
	// with the file's first ID entry and the attempt number (starting at
	// 0) and should return a candidate password, or "" to give up.
	Password func(id []byte, attempt int) string `validate:"-"`

	// Seed supplies the pre-decrypted 32-byte file-key seed for
	// certificate (/Adobe.PubSec) encrypted documents, when the host
	// application has already performed the RSA decryption step itself.
	Seed []byte `validate:"omitempty,len=32"`

	// MaxIterations bounds the content interpreter's main loop, counted
	// across a content stream and the Form XObjects it draws. Zero
	// selects the default of max(2*len(input), 200000), input being the
	// top-level content stream. The parser and xref loader use their own
	// fixed limits.
	MaxIterations int `validate:"omitempty,min=1"`

	// MaxRecursion bounds Form XObject nesting in the content
	// interpreter. Zero selects the default of 20. Reference chasing uses
	// its own fixed limit.
	MaxRecursion int `validate:"omitempty,min=1"`

	// Sink receives diagnostic events. Nil selects NopSink.
	Sink EventSink `validate:"-"`
}

func (o *ReaderOptions) validate() error {
	if o == nil {
		return nil
	}
	return optionsValidate.Struct(o)
}

func (o *ReaderOptions) maxIterations(inputLen int) int {
	if o != nil && o.MaxIterations > 0 {
		return o.MaxIterations
	}
	n := 2 * inputLen
	if n < 200000 {
		n = 200000
	}
	return n
}

func (o *ReaderOptions) maxRecursion() int {
	if o != nil && o.MaxRecursion > 0 {
		return o.MaxRecursion
	}
	return 20
}

func (o *ReaderOptions) sink() EventSink {
	if o != nil && o.Sink != nil {
		return o.Sink
	}
	return NopSink{}
}

func (o *ReaderOptions) password() func([]byte, int) string {
	if o != nil && o.Password != nil {
		return o.Password
	}
	return func([]byte, int) string { return "" }
}

func (o *ReaderOptions) seed() []byte {
	if o == nil {
		return nil
	}
	return o.Seed
}
