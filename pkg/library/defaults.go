package library

import "maps"

// Built-in key tables for the two reference libraries. Every snapshot is
// seeded from these before registered libraries are overlaid.
var (
	defaultComponentKeys = map[string]map[string]string{
		"Shark": {
			"Rectangle":    "3e1bf9f255bc97d64c91dea5f8308d3a174974ea",
			"Shape=Square": "a3727e05ca34d16f76cb2e27fc31a9914ec17b6d",
			"Shape=Round":  "89b3646550532710b0261b1a04c81138396895b9",
			"Tall":         "78741a231050a9ae3572551f34d6c25a776c6453",
		},
		"Monkey": {
			"Rectangle":    "d25b598e077fe348e9a16efbea58c13cbaeaaa25",
			"Shape=Square": "2e78071ac513ccf3f9d7f95e8fc66787907660dd",
			"Shape=Round":  "8d4fdf8e0bdccf82ac065ee1a13c0f8edf6587e0",
			"Tall":         "05ebefcbebdeaec58afdd83641d229928597f999",
		},
	}
	defaultStyleKeys = map[string]map[string]string{
		"Shark": {
			"Background": "d229a7e81e7a05731f1eaa36470abf5a4fae9bf2",
			"Primary":    "82e40649545abfa72bf66cdd4b2f3796dd69a466",
			"Heading":    "19e42894199db9e7eac439f6b25f2775e0ccf651",
		},
		"Monkey": {
			"Primary":    "ff2ac86fbfdde699eea044a240b1eeacf96d8a4e",
			"Background": "5c7e364fb93f9409be83e7b52d90bb2fe4663777",
			"Heading":    "a190e78b22bda4b2067574705f09b42921a38ffb",
		},
	}
	defaultVariableKeys = map[string]map[string]string{}

	// defaultOrder fixes the iteration order of the built-in tables.
	defaultOrder = []string{"Shark", "Monkey"}
)

// DefaultComponentKeys returns a copy of the built-in component table for lib.
func DefaultComponentKeys(lib string) map[string]string {
	return maps.Clone(defaultComponentKeys[lib])
}

// DefaultStyleKeys returns a copy of the built-in style table for lib.
func DefaultStyleKeys(lib string) map[string]string {
	return maps.Clone(defaultStyleKeys[lib])
}
