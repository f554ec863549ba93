package repository

import (
	"context"
	"strings"

	"github.com/einsicht/review-scheduler/internal/model"
)

// buildKeywordFilter turns keywords into an OR'd LIKE predicate over
// name, location and description plus its bind arguments.  Empty and
// whitespace-only keywords are skipped; with no usable keyword the
// predicate is empty.
func buildKeywordFilter(keywords []string) (string, []any) {
	terms := make([]string, 0, len(keywords))
	args := make([]any, 0, len(keywords)*3)
	for _, kw := range keywords {
		kw = strings.TrimSpace(kw)
		if kw == "" {
			continue
		}
		pat := "%" + strings.ToLower(kw) + "%"
		terms = append(terms, "(LOWER(name) LIKE ? OR LOWER(location) LIKE ? OR LOWER(description) LIKE ?)")
		args = append(args, pat, pat, pat)
	}
	return strings.Join(terms, " OR "), args
}

// SearchByKeywords returns reviews whose name, location or description
// contains any of the given keywords, case-insensitively.  The match is
// a union across keywords, assembled as one query with OR'd LIKE terms
// so each review appears at most once no matter how many keywords it
// matches.  Results are ordered by id for stable output.  With no
// usable keyword the full listing is returned.
func (r *ReviewRepo) SearchByKeywords(ctx context.Context, keywords []string) ([]model.Review, error) {
	filter, args := buildKeywordFilter(keywords)
	if filter == "" {
		return r.ListAll(ctx)
	}

	q := `SELECT ` + reviewCols + ` FROM reviews WHERE ` + filter + ` ORDER BY id`
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectReviews(rows)
}
