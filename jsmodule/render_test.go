package jsmodule

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"tubeseed/normalizer"
)

func rankingRecord(id, title string, subs int64) normalizer.Record {
	return normalizer.NewRecord(
		normalizer.Value{Name: "id", Value: id},
		normalizer.Value{Name: "title", Value: title},
		normalizer.Value{Name: "country", Value: "KR"},
		normalizer.Value{Name: "category", Value: "0"},
		normalizer.Value{Name: "thumbnail", Value: ""},
		normalizer.Value{Name: "subs", Value: subs},
		normalizer.Value{Name: "views", Value: int64(0)},
	)
}

func TestRender_SingleBinding(t *testing.T) {
	module := Module{Bindings: []Binding{{
		Name:    "DEFAULT_CHANNELS",
		Records: []normalizer.Record{rankingRecord("UC1", "먹방 <Live> & more", 1000)},
	}}}

	out, err := module.Render()

	require.NoError(t, err)
	expected := `export const DEFAULT_CHANNELS = [
    {
        "id": "UC1",
        "title": "먹방 <Live> & more",
        "country": "KR",
        "category": "0",
        "thumbnail": "",
        "subs": 1000,
        "views": 0
    }
];`
	assert.Equal(t, expected, string(out))
}

func TestRender_DualBindingsWithTrailingNewline(t *testing.T) {
	live := normalizer.NewRecord(
		normalizer.Value{Name: "id", Value: "UC9"},
		normalizer.Value{Name: "title", Value: "Nine"},
		normalizer.Value{Name: "last_live_date", Value: nil},
	)
	module := Module{
		Bindings: []Binding{
			{Name: "RANKING_DATA"},
			{Name: "LIVE_DATA", Records: []normalizer.Record{live}},
		},
		TrailingNewline: true,
	}

	out, err := module.Render()

	require.NoError(t, err)
	expected := `export const RANKING_DATA = [];

export const LIVE_DATA = [
    {
        "id": "UC9",
        "title": "Nine",
        "last_live_date": null
    }
];
`
	assert.Equal(t, expected, string(out))
}

func TestRender_BodyIsValidJSON(t *testing.T) {
	module := Module{Bindings: []Binding{{
		Name:    "RANKING_DATA",
		Records: []normalizer.Record{rankingRecord("UC1", "A", 1), rankingRecord("UC2", "B \"quoted\"", 2)},
	}}}

	out, err := module.Render()
	require.NoError(t, err)

	body := strings.TrimSuffix(strings.TrimPrefix(string(out), "export const RANKING_DATA = "), ";")
	require.True(t, gjson.Valid(body))
	assert.Equal(t, int64(2), gjson.Get(body, "#").Int())
	assert.Equal(t, `B "quoted"`, gjson.Get(body, "1.title").String())
	assert.Equal(t, int64(2), gjson.Get(body, "1.subs").Int())
}

func TestRender_IsDeterministic(t *testing.T) {
	module := Module{Bindings: []Binding{{Name: "RANKING_DATA", Records: []normalizer.Record{rankingRecord("UC1", "A", 1)}}}}

	first, err := module.Render()
	require.NoError(t, err)
	second, err := module.Render()
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestRender_RejectsInvalidBindingName(t *testing.T) {
	for _, name := range []string{"", "1ABC", "RANKING-DATA", "A B"} {
		_, err := Module{Bindings: []Binding{{Name: name}}}.Render()
		assert.Error(t, err, name)
	}
}

func TestRender_LineSeparatorsStayLiteral(t *testing.T) {
	module := Module{Bindings: []Binding{{
		Name: "DEFAULT_CHANNELS",
		Records: []normalizer.Record{
			rankingRecord("UC1", "A\u2028B\u2029C", 1),
			rankingRecord("UC2", `not \u2028 a separator`, 2),
		},
	}}}

	out, err := module.Render()

	require.NoError(t, err)
	assert.Contains(t, string(out), "\"title\": \"A\u2028B\u2029C\"")
	assert.NotContains(t, string(out), `A\u2028B`)
	assert.Contains(t, string(out), `"title": "not \\u2028 a separator"`)
}
