package resource

import (
	"context"
	"strconv"
)

// Doer is the transport used by lists and mutators; *apiclient.Client
// satisfies it.
type Doer interface {
	Do(ctx context.Context, method, path string, query, body, out any) error
}

// Addressing says how single records of a family are named in URLs.
type Addressing int

const (
	BySlug Addressing = iota
	ByID
)

func (a Addressing) String() string {
	if a == ByID {
		return "id"
	}
	return "slug"
}

// Definition describes one resource family. Entities differ only in their
// definition; list and mutation logic is shared.
type Definition[T any] struct {
	Name       string
	Path       string
	Addressing Addressing
	Key        func(T) string
}

// KeyOf returns the URL key of record.
func (d Definition[T]) KeyOf(record T) string {
	return d.Key(record)
}

func IDKey(id int) string {
	return strconv.Itoa(id)
}
