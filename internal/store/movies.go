package store

import (
	"context"
	"fmt"
	"time"

	"github.com/HitTheRhythm/movieshop/internal/model"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ratingScale is the scale of a computed movie rating
const ratingScale = 2

// CreateMovie inserts m and returns its id. Nil Price, Budget, Revenue and
// CreatedDate are left to their storage defaults. Rating is never written.
func (s *Store) CreateMovie(ctx context.Context, m *model.Movie) (int, error) {
	id, err := s.Insert(ctx, "Movie", Row{
		"Title":            m.Title,
		"Overview":         m.Overview,
		"Tagline":          m.Tagline,
		"ImdbUrl":          m.ImdbURL,
		"TmdbUrl":          m.TmdbURL,
		"PosterUrl":        m.PosterURL,
		"BackdropUrl":      m.BackdropURL,
		"OriginalLanguage": m.OriginalLanguage,
		"ReleaseDate":      m.ReleaseDate,
		"RunTime":          m.RunTime,
		"Price":            m.Price,
		"Budget":           m.Budget,
		"Revenue":          m.Revenue,
		"CreatedDate":      m.CreatedDate,
		"UpdatedDate":      m.UpdatedDate,
		"CreatedBy":        m.CreatedBy,
		"UpdatedBy":        m.UpdatedBy,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to create movie: %w", err)
	}
	return int(id), nil
}

// GetMovie reads a movie and computes its rating from the reviews
func (s *Store) GetMovie(ctx context.Context, id int) (*model.Movie, error) {
	row, err := s.Get(ctx, "Movie", Row{"Id": id})
	if err != nil {
		return nil, fmt.Errorf("failed to get movie %d: %w", id, err)
	}

	m := &model.Movie{
		ID:               int(row["Id"].(int64)),
		Title:            stringValue(row["Title"]),
		Overview:         stringPtr(row["Overview"]),
		Tagline:          stringPtr(row["Tagline"]),
		ImdbURL:          stringPtr(row["ImdbUrl"]),
		TmdbURL:          stringPtr(row["TmdbUrl"]),
		PosterURL:        stringPtr(row["PosterUrl"]),
		BackdropURL:      stringPtr(row["BackdropUrl"]),
		OriginalLanguage: stringPtr(row["OriginalLanguage"]),
		ReleaseDate:      timePtr(row["ReleaseDate"]),
		RunTime:          intPtr(row["RunTime"]),
		Price:            decimalPtr(row["Price"]),
		Budget:           decimalPtr(row["Budget"]),
		Revenue:          decimalPtr(row["Revenue"]),
		CreatedDate:      timePtr(row["CreatedDate"]),
		UpdatedDate:      timePtr(row["UpdatedDate"]),
		CreatedBy:        stringPtr(row["CreatedBy"]),
		UpdatedBy:        stringPtr(row["UpdatedBy"]),
	}

	m.Rating, err = s.MovieRating(ctx, id)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// MovieRating averages the review ratings of a movie, rounded to two
// places. It returns nil when the movie has no reviews.
func (s *Store) MovieRating(ctx context.Context, movieID int) (*decimal.Decimal, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s = %s",
		s.dialect.Quote("Rating"), s.dialect.Quote("Review"), s.dialect.Quote("MovieId"), s.dialect.Placeholder(1))

	rows, err := s.db.QueryContext(ctx, query, movieID)
	if err != nil {
		return nil, fmt.Errorf("failed to read reviews: %w", err)
	}
	defer rows.Close()

	sum := decimal.Zero
	count := int64(0)
	for rows.Next() {
		var r decimal.Decimal
		if err := rows.Scan(&r); err != nil {
			return nil, err
		}
		sum = sum.Add(r)
		count++
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if count == 0 {
		return nil, nil
	}
	avg := sum.DivRound(decimal.NewFromInt(count), ratingScale)
	return &avg, nil
}

// CreateReview inserts a review. A second review by the same user for the
// same movie is a constraint violation.
func (s *Store) CreateReview(ctx context.Context, r model.Review) error {
	_, err := s.Insert(ctx, "Review", Row{
		"MovieId":    r.MovieID,
		"UserId":     r.UserID,
		"Rating":     r.Rating,
		"ReviewText": r.ReviewText,
	})
	if err != nil {
		return fmt.Errorf("failed to create review: %w", err)
	}
	return nil
}

// CreateMovieCast credits a cast member with a character in a movie
func (s *Store) CreateMovieCast(ctx context.Context, mc model.MovieCast) error {
	_, err := s.Insert(ctx, "MovieCast", Row{
		"MovieId":   mc.MovieID,
		"CastId":    mc.CastID,
		"Character": mc.Character,
	})
	if err != nil {
		return fmt.Errorf("failed to create movie cast: %w", err)
	}
	return nil
}

// CreatePurchase records a purchase and returns its id. A zero purchase
// number is replaced by a new random one before the insert.
func (s *Store) CreatePurchase(ctx context.Context, p *model.Purchase) (int, error) {
	if p.PurchaseNumber == uuid.Nil {
		p.PurchaseNumber = uuid.New()
	}
	if p.PurchaseDateTime.IsZero() {
		p.PurchaseDateTime = time.Now().UTC()
	}

	id, err := s.Insert(ctx, "Purchase", Row{
		"UserId":           p.UserID,
		"MovieId":          p.MovieID,
		"PurchaseNumber":   p.PurchaseNumber,
		"TotalPrice":       p.TotalPrice,
		"PurchaseDateTime": p.PurchaseDateTime,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to create purchase: %w", err)
	}
	p.ID = int(id)
	return p.ID, nil
}

func stringValue(v any) string {
	s, _ := v.(string)
	return s
}

func stringPtr(v any) *string {
	if s, ok := v.(string); ok {
		return &s
	}
	return nil
}

func intPtr(v any) *int {
	if n, ok := v.(int64); ok {
		i := int(n)
		return &i
	}
	return nil
}

func timePtr(v any) *time.Time {
	if t, ok := v.(time.Time); ok {
		return &t
	}
	return nil
}

func decimalPtr(v any) *decimal.Decimal {
	if d, ok := v.(decimal.Decimal); ok {
		return &d
	}
	return nil
}
