package tmdb

import "fmt"

// Movie categories accepted by ByCategory
const (
	CategoryPopular  = "popular"
	CategoryTopRated = "top_rated"
	CategoryUpcoming = "upcoming"
)

// Categories lists the categories TMDB serves under movie/{category}
var Categories = []string{CategoryPopular, CategoryTopRated, CategoryUpcoming}

// DescriptorKind tags the variant held by a Descriptor
type DescriptorKind int

const (
	// DescriptorDefault selects the popular listing
	DescriptorDefault DescriptorKind = iota
	// DescriptorCategory selects movie/{category}
	DescriptorCategory
	// DescriptorGenre selects discover/movie filtered by genre
	DescriptorGenre
	// DescriptorQuery selects free-text search
	DescriptorQuery
)

// String returns the string representation of a DescriptorKind
func (k DescriptorKind) String() string {
	switch k {
	case DescriptorCategory:
		return "category"
	case DescriptorGenre:
		return "genre"
	case DescriptorQuery:
		return "query"
	default:
		return "default"
	}
}

// Descriptor identifies which catalog listing to fetch. The zero value is
// the Default variant. Construct with ByCategory, ByGenre or ByQuery.
type Descriptor struct {
	kind     DescriptorKind
	category string
	genreID  int
	query    string
}

// Default returns the descriptor for the popular listing
func Default() Descriptor {
	return Descriptor{}
}

// ByCategory returns a descriptor for movie/{name}
func ByCategory(name string) Descriptor {
	return Descriptor{kind: DescriptorCategory, category: name}
}

// ByGenre returns a descriptor for discover/movie?with_genres={id}
func ByGenre(id int) Descriptor {
	return Descriptor{kind: DescriptorGenre, genreID: id}
}

// ByQuery returns a descriptor for search/movie?query={text}
func ByQuery(text string) Descriptor {
	return Descriptor{kind: DescriptorQuery, query: text}
}

// Kind returns the variant tag
func (d Descriptor) Kind() DescriptorKind { return d.kind }

// Category returns the category name for DescriptorCategory
func (d Descriptor) Category() string { return d.category }

// GenreID returns the genre id for DescriptorGenre
func (d Descriptor) GenreID() int { return d.genreID }

// Query returns the search text for DescriptorQuery
func (d Descriptor) Query() string { return d.query }

// Validate checks the variant's payload
func (d Descriptor) Validate() error {
	switch d.kind {
	case DescriptorCategory:
		if err := validate.Var(d.category, "oneof=popular top_rated upcoming"); err != nil {
			return validationError("unknown category %q", d.category)
		}
	case DescriptorGenre:
		if err := validate.Var(d.genreID, "gt=0"); err != nil {
			return validationError("genre id must be positive, got %d", d.genreID)
		}
	case DescriptorQuery:
		if err := validate.Var(d.query, "required"); err != nil {
			return validationError("search query is empty")
		}
	}
	return nil
}

// Key returns the query key for the given page of this listing
func (d Descriptor) Key(page int) Key {
	return Key{Kind: KindMovies, Descriptor: d, Page: normalizePage(page)}
}

func (d Descriptor) String() string {
	switch d.kind {
	case DescriptorCategory:
		return fmt.Sprintf("category:%s", d.category)
	case DescriptorGenre:
		return fmt.Sprintf("genre:%d", d.genreID)
	case DescriptorQuery:
		return fmt.Sprintf("query:%s", d.query)
	default:
		return "default"
	}
}
