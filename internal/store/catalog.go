package store

import (
	"context"
	"fmt"

	"github.com/HitTheRhythm/movieshop/internal/model"
)

// create inserts row and returns the generated id
func (s *Store) create(ctx context.Context, table string, row Row) (int, error) {
	id, err := s.Insert(ctx, table, row)
	if err != nil {
		return 0, fmt.Errorf("failed to create %s: %w", table, err)
	}
	return int(id), nil
}

func (s *Store) CreateGenre(ctx context.Context, g *model.Genre) (int, error) {
	id, err := s.create(ctx, "Genres", Row{"Name": g.Name})
	g.ID = id
	return id, err
}

func (s *Store) CreateTrailer(ctx context.Context, tr *model.Trailer) (int, error) {
	id, err := s.create(ctx, "Trailer", Row{
		"MovieId":    tr.MovieID,
		"TrailerUrl": tr.TrailerURL,
		"Name":       tr.Name,
	})
	tr.ID = id
	return id, err
}

func (s *Store) CreateCast(ctx context.Context, c *model.Cast) (int, error) {
	id, err := s.create(ctx, "Cast", personRow(c))
	c.ID = id
	return id, err
}

func (s *Store) CreateCrew(ctx context.Context, c *model.Crew) (int, error) {
	id, err := s.create(ctx, "Crew", personRow((*model.Cast)(c)))
	c.ID = id
	return id, err
}

func personRow(c *model.Cast) Row {
	return Row{
		"Name":        c.Name,
		"Gender":      c.Gender,
		"TmdbUrl":     c.TmdbURL,
		"ProfilePath": c.ProfilePath,
	}
}

// CreateUser inserts u. Lockout and login bookkeeping fields are optional.
func (s *Store) CreateUser(ctx context.Context, u *model.User) (int, error) {
	id, err := s.create(ctx, "User", Row{
		"FirstName":         u.FirstName,
		"LastName":          u.LastName,
		"DateOfBirth":       u.DateOfBirth,
		"Email":             u.Email,
		"HashedPassword":    u.HashedPassword,
		"Salt":              u.Salt,
		"PhoneNumber":       u.PhoneNumber,
		"TwoFactorEnabled":  u.TwoFactorEnabled,
		"LockoutEndDate":    u.LockoutEndDate,
		"LastLoginDateTime": u.LastLoginDateTime,
		"IsLocked":          u.IsLocked,
		"AccessFailedCount": u.AccessFailedCount,
	})
	u.ID = id
	return id, err
}

func (s *Store) CreateFavorite(ctx context.Context, f *model.Favorite) (int, error) {
	id, err := s.create(ctx, "Favorite", Row{"MovieId": f.MovieID, "UserId": f.UserID})
	f.ID = id
	return id, err
}

// CreateRole adds a role name. Roles are not linked to users or crew.
func (s *Store) CreateRole(ctx context.Context, r *model.Role) (int, error) {
	id, err := s.create(ctx, "Role", Row{"Name": r.Name})
	r.ID = id
	return id, err
}
