// Package collation provides locale-aware string ordering for index keys.
package collation

import (
	"fmt"
	"strings"
	"sync"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Collator compares strings using the rules of one locale. Equal collation
// keys are broken by byte order so the result is a total order.
//
// collate.Collator keeps scratch buffers and is not safe for concurrent use,
// so calls are serialized.
type Collator struct {
	tag language.Tag

	mu sync.Mutex
	c  *collate.Collator
}

// New returns a Collator for a BCP 47 tag such as "cs".
func New(locale string) (*Collator, error) {
	tag, err := language.Parse(strings.TrimSpace(locale))
	if err != nil {
		return nil, fmt.Errorf("parse collation locale %q: %w", locale, err)
	}
	return &Collator{tag: tag, c: collate.New(tag)}, nil
}

// Tag returns the locale the collator was built for.
func (c *Collator) Tag() language.Tag { return c.tag }

// Compare implements domain.Collator.
func (c *Collator) Compare(a, b string) int {
	c.mu.Lock()
	r := c.c.CompareString(a, b)
	c.mu.Unlock()
	if r != 0 {
		return r
	}
	return strings.Compare(a, b)
}
