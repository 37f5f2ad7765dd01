// Package compiler translates one Jack class into VM code in a single pass.
package compiler

import (
	"io"
	"log"
)

type config struct {
	logger *log.Logger
}

type Option func(*config)

// WithLogger routes the compiler's trace output to logger.
func WithLogger(logger *log.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// Compile reads one class from r and writes its VM code to w. On error the
// output written so far is incomplete and should be discarded.
func Compile(r io.Reader, w io.Writer, opts ...Option) error {
	var cfg config
	for _, opt := range opts {
		opt(&cfg)
	}

	tokenizer := NewTokenizer(r)
	writer := NewVMWriter(w)

	compiler := NewJackCompiler(tokenizer, writer, cfg.logger)
	return compiler.Compile()
}
