package store

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/HitTheRhythm/movieshop/internal/db"
	"github.com/HitTheRhythm/movieshop/internal/dialect"
	"github.com/HitTheRhythm/movieshop/internal/migrate"
	"github.com/HitTheRhythm/movieshop/internal/model"
	"github.com/HitTheRhythm/movieshop/internal/schema"
	"github.com/shopspring/decimal"
)

// newTestStore migrates a fresh SQLite file and returns a store over it
func newTestStore(t *testing.T) *Store {
	t.Helper()
	ctx := context.Background()

	conn, err := db.OpenSQL(ctx, "sqlite", filepath.Join(t.TempDir(), "shop.db"))
	if err != nil {
		t.Fatalf("Failed to open SQLite: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })

	s := schema.MovieShop()
	if err := migrate.NewMigrator(conn, dialect.SQLite{}, nil).Apply(ctx, s); err != nil {
		t.Fatalf("Failed to apply schema: %v", err)
	}

	return New(conn, dialect.SQLite{}, s)
}

func mustInsert(t *testing.T, s *Store, table string, row Row) int64 {
	t.Helper()

	id, err := s.Insert(context.Background(), table, row)
	if err != nil {
		t.Fatalf("Insert into %s failed: %v", table, err)
	}
	return id
}

func ptr[T any](v T) *T { return &v }

func TestCompositeKeyRejectsDuplicates(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	movieID, err := s.CreateMovie(ctx, &model.Movie{Title: "Inception"})
	if err != nil {
		t.Fatalf("CreateMovie failed: %v", err)
	}
	userID, err := s.CreateUser(ctx, &model.User{Email: ptr("a@example.com")})
	if err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	castID, err := s.CreateCast(ctx, &model.Cast{Name: ptr("Leonardo DiCaprio")})
	if err != nil {
		t.Fatalf("CreateCast failed: %v", err)
	}

	t.Run("Review", func(t *testing.T) {
		review := model.Review{MovieID: movieID, UserID: userID, Rating: decimal.RequireFromString("8.5")}
		if err := s.CreateReview(ctx, review); err != nil {
			t.Fatalf("First review failed: %v", err)
		}

		review.Rating = decimal.RequireFromString("3")
		err := s.CreateReview(ctx, review)
		if !errors.Is(err, ErrConstraintViolation) {
			t.Errorf("Expected ErrConstraintViolation for second review, got %v", err)
		}
	})

	t.Run("MovieCast", func(t *testing.T) {
		credit := model.MovieCast{MovieID: movieID, CastID: castID, Character: "Cobb"}
		if err := s.CreateMovieCast(ctx, credit); err != nil {
			t.Fatalf("First credit failed: %v", err)
		}

		err := s.CreateMovieCast(ctx, credit)
		if !errors.Is(err, ErrConstraintViolation) {
			t.Errorf("Expected ErrConstraintViolation for duplicate credit, got %v", err)
		}

		credit.Character = "Dom Cobb (dream)"
		if err := s.CreateMovieCast(ctx, credit); err != nil {
			t.Errorf("Same actor under another character should succeed, got %v", err)
		}
	})
}

func TestTextLengthEnforced(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	movieID := mustInsert(t, s, "Movie", Row{"Title": "Parent"})
	castID := mustInsert(t, s, "Cast", Row{"Name": "Parent"})

	// base rows satisfy the other constraints of each table
	base := map[string]func() Row{
		"Movie":     func() Row { return Row{"Title": "t"} },
		"Trailer":   func() Row { return Row{"MovieId": movieID} },
		"Cast":      func() Row { return Row{} },
		"Crew":      func() Row { return Row{} },
		"MovieCast": func() Row { return Row{"MovieId": movieID, "CastId": castID, "Character": "c"} },
	}

	checked := 0
	for _, table := range schema.MovieShop().Tables {
		for _, col := range table.Columns {
			if col.Kind != schema.KindString || col.MaxLength == 0 {
				continue
			}
			newRow, ok := base[table.Name]
			if !ok {
				t.Fatalf("No base row for table %s", table.Name)
			}
			checked++

			t.Run(table.Name+"."+col.Name, func(t *testing.T) {
				row := newRow()
				row[col.Name] = strings.Repeat("é", col.MaxLength)
				if _, err := s.Insert(ctx, table.Name, row); err != nil {
					t.Fatalf("Value at max length rejected: %v", err)
				}

				row = newRow()
				row[col.Name] = strings.Repeat("x", col.MaxLength+1)
				_, err := s.Insert(ctx, table.Name, row)
				if !errors.Is(err, ErrConstraintViolation) {
					t.Errorf("Expected ErrConstraintViolation for %d chars, got %v", col.MaxLength+1, err)
				}
			})
		}
	}

	if checked == 0 {
		t.Fatal("No bounded text columns found")
	}
}

func TestMovieDefaults(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	before := time.Now().UTC().Add(-time.Second)
	id, err := s.CreateMovie(ctx, &model.Movie{Title: "Heat"})
	if err != nil {
		t.Fatalf("CreateMovie failed: %v", err)
	}
	after := time.Now().UTC().Add(time.Second)

	m, err := s.GetMovie(ctx, id)
	if err != nil {
		t.Fatalf("GetMovie failed: %v", err)
	}

	want := decimal.RequireFromString("9.9")
	for name, got := range map[string]*decimal.Decimal{"Price": m.Price, "Budget": m.Budget, "Revenue": m.Revenue} {
		if got == nil {
			t.Errorf("Expected %s default, got NULL", name)
			continue
		}
		if !got.Equal(want) {
			t.Errorf("Expected %s 9.9, got %s", name, got)
		}
	}

	if m.CreatedDate == nil {
		t.Fatal("Expected CreatedDate to be set by the database")
	}
	if m.CreatedDate.Before(before) || m.CreatedDate.After(after) {
		t.Errorf("CreatedDate %v is not the insert time (%v .. %v)", m.CreatedDate, before, after)
	}

	time.Sleep(20 * time.Millisecond)
	again, err := s.GetMovie(ctx, id)
	if err != nil {
		t.Fatalf("GetMovie failed: %v", err)
	}
	if !again.CreatedDate.Equal(*m.CreatedDate) {
		t.Errorf("CreatedDate changed between reads: %v then %v", m.CreatedDate, again.CreatedDate)
	}
}

func TestMovieExplicitValuesOverrideDefaults(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	created := time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC)
	id, err := s.CreateMovie(ctx, &model.Movie{
		Title:       "Alien",
		Price:       ptr(decimal.RequireFromString("14.99")),
		Budget:      ptr(decimal.RequireFromString("11000000.1234")),
		CreatedDate: &created,
	})
	if err != nil {
		t.Fatalf("CreateMovie failed: %v", err)
	}

	m, err := s.GetMovie(ctx, id)
	if err != nil {
		t.Fatalf("GetMovie failed: %v", err)
	}
	if !m.Price.Equal(decimal.RequireFromString("14.99")) {
		t.Errorf("Expected Price 14.99, got %s", m.Price)
	}
	if !m.Budget.Equal(decimal.RequireFromString("11000000.1234")) {
		t.Errorf("Expected Budget 11000000.1234, got %s", m.Budget)
	}
	if !m.CreatedDate.Equal(created) {
		t.Errorf("Expected CreatedDate %v, got %v", created, m.CreatedDate)
	}
}

func TestDecimalPrecisionEnforced(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	tests := []struct {
		name  string
		price string
	}{
		{"too many integer digits", "1000"},
		{"too many fractional digits", "9.999"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.CreateMovie(ctx, &model.Movie{Title: "x", Price: ptr(decimal.RequireFromString(tt.price))})
			if !errors.Is(err, ErrConstraintViolation) {
				t.Errorf("Expected ErrConstraintViolation, got %v", err)
			}
			if !errors.Is(err, schema.ErrOutOfRange) {
				t.Errorf("Expected ErrOutOfRange in chain, got %v", err)
			}
		})
	}
}

func TestRatingIsNotPersisted(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	_, err := s.Insert(ctx, "Movie", Row{"Title": "x", "Rating": decimal.RequireFromString("5")})
	if !errors.Is(err, ErrNotPersisted) {
		t.Fatalf("Expected ErrNotPersisted, got %v", err)
	}

	id, err := s.CreateMovie(ctx, &model.Movie{Title: "Up", Rating: ptr(decimal.RequireFromString("1"))})
	if err != nil {
		t.Fatalf("CreateMovie failed: %v", err)
	}

	row, err := s.Get(ctx, "Movie", Row{"Id": id})
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if _, ok := row["Rating"]; ok {
		t.Error("Movie row must not contain Rating")
	}

	m, err := s.GetMovie(ctx, id)
	if err != nil {
		t.Fatalf("GetMovie failed: %v", err)
	}
	if m.Rating != nil {
		t.Errorf("Expected no rating without reviews, got %s", m.Rating)
	}

	for i, r := range []string{"4.5", "3", "2.25"} {
		userID, err := s.CreateUser(ctx, &model.User{FirstName: ptr("u")})
		if err != nil {
			t.Fatalf("CreateUser %d failed: %v", i, err)
		}
		if err := s.CreateReview(ctx, model.Review{MovieID: id, UserID: userID, Rating: decimal.RequireFromString(r)}); err != nil {
			t.Fatalf("CreateReview %d failed: %v", i, err)
		}
	}

	m, err = s.GetMovie(ctx, id)
	if err != nil {
		t.Fatalf("GetMovie failed: %v", err)
	}
	if m.Rating == nil || !m.Rating.Equal(decimal.RequireFromString("3.25")) {
		t.Errorf("Expected rating 3.25, got %v", m.Rating)
	}
}

func TestMaxLengthRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	movie := schema.MovieShop().Table("Movie")

	fill := func(column string) *string {
		n := movie.Column(column).MaxLength
		// mixed widths so byte and character counts differ
		v := strings.Repeat("aé€", n/3+1)
		v = string([]rune(v)[:n])
		return &v
	}

	in := &model.Movie{
		Title:            *fill("Title"),
		Overview:         fill("Overview"),
		Tagline:          fill("Tagline"),
		ImdbURL:          fill("ImdbUrl"),
		TmdbURL:          fill("TmdbUrl"),
		PosterURL:        fill("PosterUrl"),
		BackdropURL:      fill("BackdropUrl"),
		OriginalLanguage: fill("OriginalLanguage"),
		Price:            ptr(decimal.RequireFromString("999.99")),
		Budget:           ptr(decimal.RequireFromString("99999999999999.9999")),
		Revenue:          ptr(decimal.RequireFromString("-99999999999999.9999")),
		RunTime:          ptr(148),
	}

	id, err := s.CreateMovie(ctx, in)
	if err != nil {
		t.Fatalf("CreateMovie failed: %v", err)
	}
	out, err := s.GetMovie(ctx, id)
	if err != nil {
		t.Fatalf("GetMovie failed: %v", err)
	}

	texts := []struct {
		name    string
		in, out *string
	}{
		{"Title", &in.Title, &out.Title},
		{"Overview", in.Overview, out.Overview},
		{"Tagline", in.Tagline, out.Tagline},
		{"ImdbUrl", in.ImdbURL, out.ImdbURL},
		{"TmdbUrl", in.TmdbURL, out.TmdbURL},
		{"PosterUrl", in.PosterURL, out.PosterURL},
		{"BackdropUrl", in.BackdropURL, out.BackdropURL},
		{"OriginalLanguage", in.OriginalLanguage, out.OriginalLanguage},
	}
	for _, f := range texts {
		if f.out == nil || *f.out != *f.in {
			t.Errorf("%s did not round-trip", f.name)
		}
	}

	decimals := []struct {
		name    string
		in, out *decimal.Decimal
	}{
		{"Price", in.Price, out.Price},
		{"Budget", in.Budget, out.Budget},
		{"Revenue", in.Revenue, out.Revenue},
	}
	for _, f := range decimals {
		if f.out == nil || !f.out.Equal(*f.in) {
			t.Errorf("%s did not round-trip: %v", f.name, f.out)
		}
	}

	if out.RunTime == nil || *out.RunTime != 148 {
		t.Errorf("RunTime did not round-trip: %v", out.RunTime)
	}
}

func TestRequiredAndForeignKeys(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	tests := []struct {
		name  string
		table string
		row   Row
	}{
		{"movie without title", "Movie", Row{"Overview": "no title"}},
		{"review of missing movie", "Review", Row{"MovieId": 42, "UserId": 42, "Rating": decimal.NewFromInt(1)}},
		{"trailer of missing movie", "Trailer", Row{"MovieId": 42}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Insert(ctx, tt.table, tt.row)
			if !errors.Is(err, ErrConstraintViolation) {
				t.Errorf("Expected ErrConstraintViolation, got %v", err)
			}
		})
	}
}

func TestGetRequiresFullKey(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	movieID := mustInsert(t, s, "Movie", Row{"Title": "x"})
	userID := mustInsert(t, s, "User", Row{})
	mustInsert(t, s, "Review", Row{"MovieId": movieID, "UserId": userID, "Rating": decimal.RequireFromString("7.25")})

	incomplete := []struct {
		name string
		key  Row
	}{
		{"missing column", Row{"MovieId": movieID}},
		{"nil value", Row{"MovieId": movieID, "UserId": nil}},
		{"typed nil pointer", Row{"MovieId": movieID, "UserId": (*int)(nil)}},
		{"typed nil decimal", Row{"MovieId": (*decimal.Decimal)(nil), "UserId": userID}},
	}
	for _, tt := range incomplete {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := s.Get(ctx, "Review", tt.key); !errors.Is(err, ErrIncompleteKey) {
				t.Errorf("Expected ErrIncompleteKey, got %v", err)
			}
		})
	}
	if _, err := s.Get(ctx, "Movie", Row{"Id": (*int)(nil)}); !errors.Is(err, ErrIncompleteKey) {
		t.Errorf("Expected ErrIncompleteKey for typed nil id, got %v", err)
	}
	if _, err := s.Get(ctx, "Review", Row{"MovieId": movieID, "UserId": userID, "Rating": 1}); !errors.Is(err, ErrUnknownColumn) {
		t.Errorf("Expected ErrUnknownColumn for non-key column, got %v", err)
	}

	row, err := s.Get(ctx, "Review", Row{"MovieId": movieID, "UserId": userID})
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got := row["Rating"].(decimal.Decimal); !got.Equal(decimal.RequireFromString("7.25")) {
		t.Errorf("Expected rating 7.25, got %s", got)
	}

	if _, err := s.Get(ctx, "Review", Row{"MovieId": movieID, "UserId": userID + 1}); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestCreatePurchase(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	movieID := int(mustInsert(t, s, "Movie", Row{"Title": "x"}))
	userID := int(mustInsert(t, s, "User", Row{}))

	p := &model.Purchase{UserID: userID, MovieID: movieID, TotalPrice: decimal.RequireFromString("19.99")}
	id, err := s.CreatePurchase(ctx, p)
	if err != nil {
		t.Fatalf("CreatePurchase failed: %v", err)
	}

	row, err := s.Get(ctx, "Purchase", Row{"Id": id})
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got := row["PurchaseNumber"]; got != p.PurchaseNumber {
		t.Errorf("Expected purchase number %s, got %v", p.PurchaseNumber, got)
	}
	if got := row["TotalPrice"].(decimal.Decimal); !got.Equal(p.TotalPrice) {
		t.Errorf("Expected total 19.99, got %s", got)
	}
}

func TestUnknownNames(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	if _, err := s.Insert(ctx, "Ticket", Row{}); !errors.Is(err, ErrUnknownTable) {
		t.Errorf("Expected ErrUnknownTable, got %v", err)
	}
	if _, err := s.Insert(ctx, "Movie", Row{"Title": "x", "Director": "y"}); !errors.Is(err, ErrUnknownColumn) {
		t.Errorf("Expected ErrUnknownColumn, got %v", err)
	}
}
