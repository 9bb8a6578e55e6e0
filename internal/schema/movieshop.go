package schema

// Lengths shared by several tables.
const (
	URLLength = 2084
	// KeyStringLength is used for string key columns that declare no length.
	KeyStringLength = 450
)

// PriceDefault is the literal default for Movie.Price, Budget and Revenue.
const PriceDefault = "9.9"

// MovieShop returns the declaration of the movie shop tables. Every call
// builds a new value, so callers may modify the result freely.
func MovieShop() *Schema {
	return &Schema{Tables: []Table{
		movieTable(),
		genreTable(),
		trailerTable(),
		personTable("Cast"),
		personTable("Crew"),
		movieCastTable(),
		userTable(),
		favoriteTable(),
		purchaseTable(),
		reviewTable(),
		roleTable(),
	}}
}

func movieTable() Table {
	return Table{
		Name:       "Movie",
		PrimaryKey: []string{"Id"},
		Columns: []Column{
			identity("Id"),
			required(text("Title", 256)),
			text("Overview", 4096),
			text("Tagline", 512),
			text("ImdbUrl", URLLength),
			text("TmdbUrl", URLLength),
			text("PosterUrl", URLLength),
			text("BackdropUrl", URLLength),
			text("OriginalLanguage", 64),
			nullable(timestamp("ReleaseDate")),
			nullable(integer("RunTime")),
			withDefault(nullable(money("Price", 5, 2)), Default{Value: PriceDefault}),
			withDefault(nullable(money("Budget", 18, 4)), Default{Value: PriceDefault}),
			withDefault(nullable(money("Revenue", 18, 4)), Default{Value: PriceDefault}),
			withDefault(nullable(timestamp("CreatedDate")), Default{Expr: CurrentTimestamp}),
			nullable(timestamp("UpdatedDate")),
			text("CreatedBy", 0),
			text("UpdatedBy", 0),
		},
		// Rating is the average of the movie's reviews.
		Ignored: []string{"Rating"},
	}
}

func genreTable() Table {
	// Genre has no explicit mapping, so it keeps the conventional plural name.
	return Table{
		Name:       "Genres",
		PrimaryKey: []string{"Id"},
		Columns: []Column{
			identity("Id"),
			text("Name", 0),
		},
	}
}

func trailerTable() Table {
	return Table{
		Name:       "Trailer",
		PrimaryKey: []string{"Id"},
		Columns: []Column{
			identity("Id"),
			integer("MovieId"),
			text("TrailerUrl", URLLength),
			text("Name", URLLength),
		},
		Relations: []Relation{belongsTo("MovieId", "Movie")},
		Indexes:   []Index{conventionIndex("Trailer", "MovieId")},
	}
}

func personTable(name string) Table {
	return Table{
		Name:       name,
		PrimaryKey: []string{"Id"},
		Columns: []Column{
			identity("Id"),
			text("Name", 128),
			text("Gender", 0),
			text("TmdbUrl", 0),
			text("ProfilePath", URLLength),
		},
	}
}

func movieCastTable() Table {
	return Table{
		Name:       "MovieCast",
		PrimaryKey: []string{"MovieId", "CastId", "Character"},
		Columns: []Column{
			integer("MovieId"),
			integer("CastId"),
			required(text("Character", KeyStringLength)),
		},
		Relations: []Relation{
			belongsTo("MovieId", "Movie"),
			belongsTo("CastId", "Cast"),
		},
		Indexes: []Index{conventionIndex("MovieCast", "CastId")},
	}
}

func favoriteTable() Table {
	return Table{
		Name:       "Favorite",
		PrimaryKey: []string{"Id"},
		Columns: []Column{
			identity("Id"),
			integer("MovieId"),
			integer("UserId"),
		},
		Relations: []Relation{
			belongsTo("MovieId", "Movie"),
			belongsTo("UserId", "User"),
		},
		Indexes: []Index{
			conventionIndex("Favorite", "MovieId"),
			conventionIndex("Favorite", "UserId"),
		},
	}
}

func purchaseTable() Table {
	return Table{
		Name:       "Purchase",
		PrimaryKey: []string{"Id"},
		Columns: []Column{
			identity("Id"),
			integer("UserId"),
			uuidColumn("PurchaseNumber"),
			money("TotalPrice", 18, 2),
			timestamp("PurchaseDateTime"),
			integer("MovieId"),
		},
		Relations: []Relation{
			belongsTo("UserId", "User"),
			belongsTo("MovieId", "Movie"),
		},
		Indexes: []Index{
			conventionIndex("Purchase", "MovieId"),
			conventionIndex("Purchase", "UserId"),
		},
	}
}

func reviewTable() Table {
	return Table{
		Name:       "Review",
		PrimaryKey: []string{"MovieId", "UserId"},
		Columns: []Column{
			integer("MovieId"),
			integer("UserId"),
			money("Rating", 18, 2),
			text("ReviewText", 0),
		},
		Relations: []Relation{
			belongsTo("MovieId", "Movie"),
			belongsTo("UserId", "User"),
		},
		Indexes: []Index{conventionIndex("Review", "UserId")},
	}
}

// roleTable is a standalone lookup. It is not linked to User or Crew.
func roleTable() Table {
	return Table{
		Name:       "Role",
		PrimaryKey: []string{"Id"},
		Columns: []Column{
			identity("Id"),
			text("Name", 0),
		},
	}
}

func userTable() Table {
	return Table{
		Name:       "User",
		PrimaryKey: []string{"Id"},
		Columns: []Column{
			identity("Id"),
			text("FirstName", 0),
			text("LastName", 0),
			nullable(timestamp("DateOfBirth")),
			text("Email", 0),
			text("HashedPassword", 0),
			text("Salt", 0),
			text("PhoneNumber", 0),
			nullable(boolean("TwoFactorEnabled")),
			nullable(timestamp("LockoutEndDate")),
			nullable(timestamp("LastLoginDateTime")),
			nullable(boolean("IsLocked")),
			nullable(integer("AccessFailedCount")),
		},
	}
}

// Column helpers. Text is nullable by default, value kinds are not.

func identity(name string) Column {
	return Column{Name: name, Kind: KindInt, Identity: true}
}

func integer(name string) Column {
	return Column{Name: name, Kind: KindInt}
}

func boolean(name string) Column {
	return Column{Name: name, Kind: KindBool}
}

func text(name string, maxLength int) Column {
	return Column{Name: name, Kind: KindString, MaxLength: maxLength, Nullable: true}
}

func money(name string, precision, scale int) Column {
	return Column{Name: name, Kind: KindDecimal, Precision: precision, Scale: scale}
}

func timestamp(name string) Column {
	return Column{Name: name, Kind: KindTimestamp}
}

func uuidColumn(name string) Column {
	return Column{Name: name, Kind: KindUUID}
}

func required(c Column) Column {
	c.Nullable = false
	return c
}

func nullable(c Column) Column {
	c.Nullable = true
	return c
}

func withDefault(c Column, d Default) Column {
	c.Default = &d
	return c
}

func belongsTo(column, target string) Relation {
	return Relation{
		SourceColumn: column,
		TargetTable:  target,
		TargetColumn: "Id",
		Cardinality:  "N:1",
		OnDelete:     "CASCADE",
	}
}

func conventionIndex(table, column string) Index {
	return Index{Name: "IX_" + table + "_" + column, Columns: []string{column}}
}
