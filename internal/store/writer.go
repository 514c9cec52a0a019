package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rolodex-dev/rolodex/internal/contacts"
)

// WriteStats summarises one ApplyChanges unit of work.
type WriteStats struct {
	ContactsInserted int `json:"contacts_inserted"`
	ContactsUpdated  int `json:"contacts_updated"`
	TagsCreated      int `json:"tags_created"`
	LinksCreated     int `json:"links_created"`
	// Unresolved counts assignments whose external identifier had no stored row.
	Unresolved int `json:"unresolved"`
}

// ApplyChanges persists one workflow run atomically.
//
// Inside a single transaction it:
//  1. upserts every changed contact keyed by true_id (the internal id of an
//     existing row is preserved, all tracked fields are overwritten);
//  2. for every assignment, resolves the contact (skipping it silently when
//     the identifier is not stored), then resolves-or-creates each tag and
//     links it to the contact unless the link already exists.
//
// Either everything commits or nothing does.
func (db *DB) ApplyChanges(ctx context.Context, changed []contacts.Contact, assignments []contacts.TagAssignment) (WriteStats, error) {
	var stats WriteStats

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return stats, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, c := range changed {
		inserted, err := upsertContact(ctx, tx, c.Normalized())
		if err != nil {
			return WriteStats{}, err
		}
		if inserted {
			stats.ContactsInserted++
		} else {
			stats.ContactsUpdated++
		}
	}

	for _, a := range assignments {
		contactID, err := contactIDByTrueID(ctx, tx, a.TrueID)
		if errors.Is(err, ErrNotFound) {
			stats.Unresolved++
			continue
		}
		if err != nil {
			return WriteStats{}, err
		}

		for _, name := range contacts.CleanTags(a.Tags) {
			tagID, created, err := resolveTag(ctx, tx, name)
			if err != nil {
				return WriteStats{}, err
			}
			if created {
				stats.TagsCreated++
			}

			linked, err := linkTag(ctx, tx, contactID, tagID)
			if err != nil {
				return WriteStats{}, err
			}
			if linked {
				stats.LinksCreated++
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return WriteStats{}, fmt.Errorf("failed to commit changes: %w", err)
	}
	return stats, nil
}

// upsertContact inserts or overwrites a contact and reports whether a new row
// was created.
func upsertContact(ctx context.Context, tx *sql.Tx, c contacts.Contact) (bool, error) {
	if err := c.Validate(); err != nil {
		return false, fmt.Errorf("invalid contact: %w", err)
	}

	var existing int64
	err := tx.QueryRowContext(ctx, `SELECT id FROM contacts WHERE true_id = ?`, c.TrueID).Scan(&existing)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return false, fmt.Errorf("failed to look up contact %s: %w", c.TrueID, err)
	}
	inserted := errors.Is(err, sql.ErrNoRows)

	_, err = tx.ExecContext(ctx, `
	INSERT INTO contacts (true_id, name, company, jobTitle, imageAvailable)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT(true_id) DO UPDATE SET
		name = excluded.name,
		company = excluded.company,
		jobTitle = excluded.jobTitle,
		imageAvailable = excluded.imageAvailable
	`, c.TrueID, c.Name, c.Company, c.JobTitle, boolToInt(c.ImageAvailable))
	if err != nil {
		return false, fmt.Errorf("failed to upsert contact %s: %w", c.TrueID, err)
	}
	return inserted, nil
}

func contactIDByTrueID(ctx context.Context, tx *sql.Tx, trueID string) (int64, error) {
	var id int64
	err := tx.QueryRowContext(ctx, `SELECT id FROM contacts WHERE true_id = ?`, trueID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("failed to resolve contact %s: %w", trueID, err)
	}
	return id, nil
}

// resolveTag returns the id of the tag with the given name, creating it if absent.
func resolveTag(ctx context.Context, tx *sql.Tx, name string) (int64, bool, error) {
	res, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO tags (name) VALUES (?)`, name)
	if err != nil {
		return 0, false, fmt.Errorf("failed to insert tag %q: %w", name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, false, fmt.Errorf("failed to insert tag %q: %w", name, err)
	}

	var id int64
	if err := tx.QueryRowContext(ctx, `SELECT id FROM tags WHERE name = ?`, name).Scan(&id); err != nil {
		return 0, false, fmt.Errorf("failed to resolve tag %q: %w", name, err)
	}
	return id, n > 0, nil
}

// linkTag links a tag to a contact and reports whether a new link was created.
func linkTag(ctx context.Context, tx *sql.Tx, contactID, tagID int64) (bool, error) {
	res, err := tx.ExecContext(ctx,
		`INSERT OR IGNORE INTO contact_tags (contact_id, tag_id) VALUES (?, ?)`,
		contactID, tagID)
	if err != nil {
		return false, fmt.Errorf("failed to link contact %d to tag %d: %w", contactID, tagID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to link contact %d to tag %d: %w", contactID, tagID, err)
	}
	return n > 0, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
