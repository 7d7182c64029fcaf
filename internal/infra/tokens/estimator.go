package tokens

import (
	"sync"
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"
)

const defaultEncoding = "cl100k_base"

// Estimator counts prompt tokens with a BPE encoding, falling back to a
// chars/4 heuristic when the encoding cannot be loaded (offline hosts).
type Estimator struct {
	once  sync.Once
	enc   *tiktoken.Tiktoken
	err   error
	name  string
	model string
}

func NewEstimator(encoding string) *Estimator {
	if encoding == "" {
		encoding = defaultEncoding
	}
	return &Estimator{name: encoding}
}

// ForModel uses the encoding of model, or cl100k_base when tiktoken does
// not know the model.
func ForModel(model string) *Estimator {
	return &Estimator{name: defaultEncoding, model: model}
}

func (e *Estimator) load() {
	e.once.Do(func() {
		if e.model != "" {
			if e.enc, e.err = tiktoken.EncodingForModel(e.model); e.err == nil {
				return
			}
		}
		e.enc, e.err = tiktoken.GetEncoding(e.name)
	})
}

func (e *Estimator) Count(text string) int {
	if text == "" {
		return 0
	}
	e.load()
	if e.err != nil || e.enc == nil {
		return Heuristic(text)
	}
	return len(e.enc.Encode(text, nil, nil))
}

// Heuristic is roughly one token per four characters.
func Heuristic(text string) int {
	n := utf8.RuneCountInString(text)
	return (n + 3) / 4
}
