package interceptor

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParsePoetryPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path  string
		want  Route
		match bool
	}{
		{"/poetry/frith-hilton", Route{Book: "frith-hilton"}, true},
		{"/poetry/Frith-Hilton/Karmas-Sequel", Route{Book: "frith-hilton", Poem: "Karmas-Sequel"}, true},
		{"/poetry/book/poem/extra/segments", Route{Book: "book", Poem: "poem"}, true},
		{"/poetry/book/", Route{Book: "book"}, true},
		{"/poetry//book//poem", Route{Book: "book", Poem: "poem"}, true},
		{"/poetry/", Route{}, false},
		{"/poetry", Route{}, false},
		{"/poetryx/book", Route{}, false},
		{"/blog/poetry/book", Route{}, false},
		{"/", Route{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			t.Parallel()
			got, ok := ParsePoetryPath(tt.path)
			require.Equal(t, tt.match, ok)
			require.Equal(t, tt.want, got)
		})
	}
}
