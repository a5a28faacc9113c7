package repository

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/kinship-app/kinshipbackend/models"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Question)

// TreeStats summarizes the state of the shared graph.
type TreeStats struct {
	TotalPeople int64 `json:"total_people"`
	Roots       int64 `json:"roots"`
	Claimed     int64 `json:"claimed"`
}

// ListRoots retrieves all seed people (added_by = "root"), oldest first.
func (s *PersonStore) ListRoots(ctx context.Context) ([]models.Person, error) {
	queryBuilder := psql.Select("*").
		From("people").
		Where(sq.Eq{"added_by": models.AddedByRoot}).
		OrderBy("created_at ASC")

	sqlStr, args, err := queryBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build SQL query for ListRoots: %w", err)
	}

	var people []models.Person
	if err := s.DB.WithContext(ctx).Raw(sqlStr, args...).Find(&people).Error; err != nil {
		return nil, fmt.Errorf("failed to list roots: %w", err)
	}
	return people, nil
}

// SearchByName finds people whose first or last name contains the query.
func (s *PersonStore) SearchByName(ctx context.Context, query string) ([]models.Person, error) {
	likeQuery := "%" + query + "%"
	queryBuilder := psql.Select("*").
		From("people").
		Where(sq.Or{
			sq.Like{"profile_first_name": likeQuery},
			sq.Like{"profile_last_name": likeQuery},
		}).
		OrderBy("profile_last_name ASC", "profile_first_name ASC").
		Limit(100)

	sqlStr, args, err := queryBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build SQL query for SearchByName: %w", err)
	}

	var people []models.Person
	if err := s.DB.WithContext(ctx).Raw(sqlStr, args...).Find(&people).Error; err != nil {
		return nil, fmt.Errorf("failed to search people for '%s': %w", query, err)
	}
	return people, nil
}

// Stats returns aggregate counts over the whole graph.
func (s *PersonStore) Stats(ctx context.Context) (TreeStats, error) {
	var stats TreeStats

	counts := []struct {
		builder sq.SelectBuilder
		dest    *int64
	}{
		{psql.Select("COUNT(*)").From("people"), &stats.TotalPeople},
		{psql.Select("COUNT(*)").From("people").Where(sq.Eq{"added_by": models.AddedByRoot}), &stats.Roots},
		{psql.Select("COUNT(*)").From("people").Where("owned_by IS NOT NULL"), &stats.Claimed},
	}

	for _, c := range counts {
		sqlStr, args, err := c.builder.ToSql()
		if err != nil {
			return TreeStats{}, fmt.Errorf("failed to build SQL query for Stats: %w", err)
		}
		if err := s.DB.WithContext(ctx).Raw(sqlStr, args...).Scan(c.dest).Error; err != nil {
			return TreeStats{}, fmt.Errorf("failed to compute tree stats: %w", err)
		}
	}
	return stats, nil
}
