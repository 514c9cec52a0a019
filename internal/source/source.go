// Package source provides paged, permission-gated access to device contacts.
package source

import (
	"context"
	"fmt"

	"github.com/rolodex-dev/rolodex/internal/contacts"
)

// Permission is the access state of a contact source.
type Permission int

const (
	Undetermined Permission = iota
	Granted
	Denied
)

func (p Permission) String() string {
	switch p {
	case Undetermined:
		return "undetermined"
	case Granted:
		return "granted"
	case Denied:
		return "denied"
	default:
		return "unknown"
	}
}

// DefaultPageSize is used by ReadAll when no page size is given.
const DefaultPageSize = 200

// Source is a device contact provider.
type Source interface {
	// Permission reports the current access state without prompting.
	Permission(ctx context.Context) (Permission, error)

	// RequestPermission asks for access. It may return Denied.
	RequestPermission(ctx context.Context) (Permission, error)

	// Read returns up to limit contacts starting at offset. A page shorter
	// than limit is the last one.
	Read(ctx context.Context, offset, limit int) ([]contacts.Contact, error)
}

// Prompter asks the user a yes/no question.
type Prompter interface {
	Confirm(ctx context.Context, question string) (bool, error)
}

// PrompterFunc adapts a function to Prompter.
type PrompterFunc func(ctx context.Context, question string) (bool, error)

// Confirm calls f.
func (f PrompterFunc) Confirm(ctx context.Context, question string) (bool, error) {
	return f(ctx, question)
}

// ReadAll drains src page by page in order.
func ReadAll(ctx context.Context, src Source, pageSize int) ([]contacts.Contact, error) {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	var all []contacts.Contact
	for offset := 0; ; offset += pageSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page, err := src.Read(ctx, offset, pageSize)
		if err != nil {
			return nil, fmt.Errorf("failed to read contacts at offset %d: %w", offset, err)
		}
		all = append(all, page...)
		if len(page) < pageSize {
			return all, nil
		}
	}
}
