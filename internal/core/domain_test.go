package core

import "testing"

func TestFilterMatches(t *testing.T) {
	apples := Product{Name: "Яблоки", PricePerKg: 2.5, Category: AllCategories}
	winch := Product{Name: "Лебедка", PricePerKg: 150, Category: "грузоподъемное оборудование"}

	cases := []struct {
		name   string
		filter Filter
		p      Product
		want   bool
	}{
		{"sentinel keeps everything", Filter{Category: AllCategories}, winch, true},
		{"exact category", Filter{Category: "грузоподъемное оборудование"}, winch, true},
		{"other category", Filter{Category: "колесные опоры"}, winch, false},
		{"sentinel-tagged product excluded by real category", Filter{Category: "колесные опоры"}, apples, false},
		{"search is case-insensitive", Filter{Category: AllCategories, Search: "ЯБЛ"}, apples, true},
		{"search substring", Filter{Category: AllCategories, Search: "блок"}, apples, true},
		{"search miss", Filter{Category: AllCategories, Search: "груша"}, apples, false},
		{"both filters combine", Filter{Category: "колесные опоры", Search: "леб"}, winch, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.filter.Matches(tc.p); got != tc.want {
				t.Fatalf("Matches = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestNormalizeFilter(t *testing.T) {
	f := NormalizeFilter(Filter{Search: "  мясо "})
	if f.Category != AllCategories {
		t.Fatalf("category = %q, want sentinel", f.Category)
	}
	if f.Search != "  мясо " {
		t.Fatalf("search = %q, want it untouched", f.Search)
	}

	f = NormalizeFilter(Filter{Category: " ", Search: " "})
	if f.Category != " " || f.Search != " " {
		t.Fatalf("whitespace filter rewritten to %+v", f)
	}
}

func TestProductValidate(t *testing.T) {
	if err := (Product{Name: "Рыба", PricePerKg: 5.5}).Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := (Product{Name: " ", PricePerKg: 1}).Validate(); err != ErrEmptyName {
		t.Fatalf("expected ErrEmptyName, got %v", err)
	}
	if err := (Product{Name: "x", PricePerKg: -1}).Validate(); err != ErrInvalidPrice {
		t.Fatalf("expected ErrInvalidPrice, got %v", err)
	}
}

func TestSeedProductsUniqueAndValid(t *testing.T) {
	seen := map[string]bool{}
	cats := map[string]bool{}
	for _, c := range Categories() {
		cats[c] = true
	}
	for _, p := range SeedProducts() {
		if err := p.Validate(); err != nil {
			t.Fatalf("seed %q invalid: %v", p.Name, err)
		}
		if seen[p.Name] {
			t.Fatalf("duplicate seed %q", p.Name)
		}
		seen[p.Name] = true
		if !cats[p.Category] {
			t.Fatalf("seed %q has unknown category %q", p.Name, p.Category)
		}
	}
	if len(seen) != 16 {
		t.Fatalf("expected 16 seed products, got %d", len(seen))
	}
}

func TestPriceFor(t *testing.T) {
	p := Product{Name: "Яблоки", PricePerKg: 2.5}
	if got := p.PriceFor(2); got != 5 {
		t.Fatalf("PriceFor(2) = %v, want 5", got)
	}
}
