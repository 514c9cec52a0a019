package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// DisplayRow is one line of the joined contact+tag view.
type DisplayRow struct {
	ContactID int64    `json:"contact_id" yaml:"-"`
	TrueID    string   `json:"true_id" yaml:"true_id"`
	Name      string   `json:"name" yaml:"name"`
	Company   string   `json:"company,omitempty" yaml:"company,omitempty"`
	JobTitle  string   `json:"jobTitle,omitempty" yaml:"jobTitle,omitempty"`
	Tags      []string `json:"tags" yaml:"tags"`
}

// String renders the row as "Name | TagA, TagB".
func (r DisplayRow) String() string {
	return r.Name + " | " + strings.Join(r.Tags, ", ")
}

// DisplayFilter narrows the display query. The zero value returns everything.
type DisplayFilter struct {
	// Tag keeps contacts linked to this exact tag name.
	Tag string
	// Query keeps contacts whose name, company, job title or any tag contains
	// the text (case-insensitive).
	Query string
	// Limit restricts the number of contacts (0 = no limit).
	Limit int
}

// Display returns, per contact, its name and tag names. Contacts are ordered
// by name ascending (ties by internal id); tags within a row by name.
func (db *DB) Display(ctx context.Context, filter DisplayFilter) ([]DisplayRow, error) {
	var conditions []string
	var args []interface{}

	if filter.Tag != "" {
		conditions = append(conditions, `c.id IN (
			SELECT ct.contact_id FROM contact_tags ct
			JOIN tags t ON t.id = ct.tag_id
			WHERE t.name = ?)`)
		args = append(args, filter.Tag)
	}

	if q := strings.TrimSpace(filter.Query); q != "" {
		pattern := "%" + strings.ToLower(q) + "%"
		conditions = append(conditions, `(
			lower(c.name) LIKE ? OR lower(c.company) LIKE ? OR lower(c.jobTitle) LIKE ?
			OR c.id IN (
				SELECT ct.contact_id FROM contact_tags ct
				JOIN tags t ON t.id = ct.tag_id
				WHERE lower(t.name) LIKE ?))`)
		args = append(args, pattern, pattern, pattern, pattern)
	}

	contactQuery := `SELECT c.id, c.true_id, c.name, c.company, c.jobTitle FROM contacts c`
	if len(conditions) > 0 {
		contactQuery += " WHERE " + strings.Join(conditions, " AND ")
	}
	contactQuery += " ORDER BY c.name ASC, c.id ASC"
	if filter.Limit > 0 {
		contactQuery += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	query := `
	WITH selected AS (` + contactQuery + `)
	SELECT s.id, s.true_id, s.name, s.company, s.jobTitle, t.name
	FROM selected s
	LEFT JOIN contact_tags ct ON ct.contact_id = s.id
	LEFT JOIN tags t ON t.id = ct.tag_id
	ORDER BY s.name ASC, s.id ASC, t.name ASC
	`

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query display view: %w", err)
	}
	defer rows.Close()

	out := []DisplayRow{}
	for rows.Next() {
		var r DisplayRow
		var tag sql.NullString
		if err := rows.Scan(&r.ContactID, &r.TrueID, &r.Name, &r.Company, &r.JobTitle, &tag); err != nil {
			return nil, fmt.Errorf("failed to scan display row: %w", err)
		}

		if n := len(out); n == 0 || out[n-1].ContactID != r.ContactID {
			r.Tags = []string{}
			out = append(out, r)
		}
		if tag.Valid {
			last := &out[len(out)-1]
			last.Tags = append(last.Tags, tag.String)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating display rows: %w", err)
	}
	return out, nil
}
