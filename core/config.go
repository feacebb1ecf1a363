package core

// DefaultAllowedGenres 是默认的题材词表。
var DefaultAllowedGenres = []string{
	"Fiction",
	"Mystery",
	"Thriller",
	"Romance",
	"Science Fiction",
	"Fantasy",
	"Historical Fiction",
	"Biography",
	"Self-Help",
	"Business",
	"Drama",
	"Crime",
	"Adventure",
	"Horror",
	"Poetry",
}

// 挖掘阈值默认值
const (
	DefaultMinSupport    = 0.2
	DefaultMinConfidence = 0.6
	DefaultMinLift       = 1.2
	DefaultTopK          = 10
)

// AllowedGenresOrDefault 返回 genres 的副本；为空时返回默认词表的副本。
func AllowedGenresOrDefault(genres []string) []string {
	src := genres
	if len(src) == 0 {
		src = DefaultAllowedGenres
	}
	out := make([]string, len(src))
	copy(out, src)
	return out
}
