package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rolodex-dev/rolodex/internal/contacts"
)

// ContactRow is a stored contact with its internal identifier.
type ContactRow struct {
	ID int64 `json:"id"`
	contacts.Contact
}

// Tag is a stored tag.
type Tag struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	// Contacts is the number of contacts linked to the tag. Only filled by ListTags.
	Contacts int `json:"contacts,omitempty"`
}

const contactColumns = `id, true_id, name, company, jobTitle, imageAvailable`

// GetContactByTrueID retrieves a contact by its external identifier.
// Returns ErrNotFound if no row matches.
func (db *DB) GetContactByTrueID(ctx context.Context, trueID string) (*ContactRow, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+contactColumns+` FROM contacts WHERE true_id = ?`, trueID)

	c, err := scanContact(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get contact %s: %w", trueID, err)
	}
	return c, nil
}

// LookupContact implements detect.Lookup. A missing row is reported as (nil, nil).
func (db *DB) LookupContact(ctx context.Context, trueID string) (*ContactRow, error) {
	c, err := db.GetContactByTrueID(ctx, trueID)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	return c, err
}

// ListContacts returns every stored contact ordered by name, then id.
func (db *DB) ListContacts(ctx context.Context) ([]*ContactRow, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+contactColumns+` FROM contacts ORDER BY name ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list contacts: %w", err)
	}
	defer rows.Close()

	var out []*ContactRow
	for rows.Next() {
		c, err := scanContact(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan contact: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating contacts: %w", err)
	}
	return out, nil
}

func scanContact(scan func(dest ...any) error) (*ContactRow, error) {
	var c ContactRow
	var image int
	if err := scan(&c.ID, &c.TrueID, &c.Name, &c.Company, &c.JobTitle, &image); err != nil {
		return nil, err
	}
	c.ImageAvailable = image != 0
	return &c, nil
}

// Vocabulary returns every tag name in first-seen (creation) order.
func (db *DB) Vocabulary(ctx context.Context) ([]string, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT name FROM tags ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query vocabulary: %w", err)
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan tag: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tags: %w", err)
	}
	return names, nil
}

// ListTags returns all tags with their contact counts, most used first.
func (db *DB) ListTags(ctx context.Context) ([]*Tag, error) {
	rows, err := db.conn.QueryContext(ctx, `
	SELECT t.id, t.name, COUNT(ct.contact_id)
	FROM tags t
	LEFT JOIN contact_tags ct ON ct.tag_id = t.id
	GROUP BY t.id, t.name
	ORDER BY COUNT(ct.contact_id) DESC, t.name ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list tags: %w", err)
	}
	defer rows.Close()

	var tags []*Tag
	for rows.Next() {
		var tag Tag
		if err := rows.Scan(&tag.ID, &tag.Name, &tag.Contacts); err != nil {
			return nil, fmt.Errorf("failed to scan tag: %w", err)
		}
		tags = append(tags, &tag)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tags: %w", err)
	}
	return tags, nil
}

// TagsForContact returns the tag names linked to a contact, ordered by name.
func (db *DB) TagsForContact(ctx context.Context, trueID string) ([]string, error) {
	rows, err := db.conn.QueryContext(ctx, `
	SELECT t.name
	FROM contacts c
	JOIN contact_tags ct ON ct.contact_id = c.id
	JOIN tags t ON t.id = ct.tag_id
	WHERE c.true_id = ?
	ORDER BY t.name ASC
	`, trueID)
	if err != nil {
		return nil, fmt.Errorf("failed to query tags for %s: %w", trueID, err)
	}
	defer rows.Close()

	tags := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan tag: %w", err)
		}
		tags = append(tags, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tags: %w", err)
	}
	return tags, nil
}

// Counts holds row counts per table.
type Counts struct {
	Contacts int `json:"contacts"`
	Tags     int `json:"tags"`
	Links    int `json:"links"`
}

// Counts returns the number of rows in each workflow table.
func (db *DB) Counts(ctx context.Context) (Counts, error) {
	var c Counts
	err := db.conn.QueryRowContext(ctx, `
	SELECT
		(SELECT COUNT(*) FROM contacts),
		(SELECT COUNT(*) FROM tags),
		(SELECT COUNT(*) FROM contact_tags)
	`).Scan(&c.Contacts, &c.Tags, &c.Links)
	if err != nil {
		return Counts{}, fmt.Errorf("failed to count rows: %w", err)
	}
	return c, nil
}

// Reset deletes every contact, tag and link. Run history is kept.
//
// This is only ever triggered by an explicit user command; startup never
// clears data.
func (db *DB) Reset(ctx context.Context) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"contact_tags", "tags", "contacts"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit reset: %w", err)
	}
	return nil
}
