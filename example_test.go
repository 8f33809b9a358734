package vecmem_test

import (
	"context"
	"fmt"
	"log"

	"github.com/hupe1980/vecmem"
	"github.com/hupe1980/vecmem/metadata"
)

type Article struct {
	ID       int       `vecmem:"key"`
	Vector   []float32 `vecmem:"vector"`
	Title    string    `json:"title"`
	Category string    `vecmem:"name=category"`
}

// Example demonstrates storing records and searching by similarity.
func Example() {
	ctx := context.Background()
	store := vecmem.NewStore()

	articles, err := vecmem.GetOrCreateCollection[int, Article](store, "articles")
	if err != nil {
		log.Fatal(err)
	}

	_, err = articles.UpsertMany(ctx, []Article{
		{ID: 1, Vector: []float32{1, 0}, Title: "a"},
		{ID: 2, Vector: []float32{0, 1}, Title: "b"},
		{ID: 3, Vector: []float32{0.5, 0.5}, Title: "c"},
	})
	if err != nil {
		log.Fatal(err)
	}

	results, err := articles.Search([]float32{1, 0}).Top(2).Execute(ctx)
	if err != nil {
		log.Fatal(err)
	}

	for _, r := range results {
		fmt.Printf("%d %s %.3f\n", r.Key, r.Record.Title, r.Score)
	}
	// Output:
	// 1 a 1.000
	// 3 c 0.707
}

// Example_where demonstrates payload filters answered from a bitmap index.
func Example_where() {
	ctx := context.Background()
	store := vecmem.NewStore()

	articles, err := vecmem.GetOrCreateCollection[int, Article](store, "articles",
		vecmem.WithIndexedFields("category"))
	if err != nil {
		log.Fatal(err)
	}

	_, err = articles.UpsertMany(ctx, []Article{
		{ID: 1, Vector: []float32{1, 0}, Title: "go", Category: "tech"},
		{ID: 2, Vector: []float32{0.9, 0.1}, Title: "election", Category: "news"},
		{ID: 3, Vector: []float32{0.2, 0.8}, Title: "rust", Category: "tech"},
	})
	if err != nil {
		log.Fatal(err)
	}

	for r, err := range articles.Search([]float32{1, 0}).Where(metadata.Eq("category", "tech")).Stream(ctx) {
		if err != nil {
			log.Fatal(err)
		}
		fmt.Println(r.Record.Title)
	}
	// Output:
	// go
	// rust
}

// ExampleFindClosest demonstrates ranking an ad-hoc corpus.
func ExampleFindClosest() {
	matches, err := vecmem.FindClosest(context.Background(),
		[]float32{1, 0},
		[]string{"a", "b", "c"},
		[][]float32{{1, 0}, {0, 1}, {0.5, 0.5}},
		10,
		vecmem.WithMinScore(0.6),
	)
	if err != nil {
		log.Fatal(err)
	}

	for _, m := range matches {
		fmt.Printf("%s #%d %.3f\n", m.Item, m.Index, m.Score)
	}
	// Output:
	// a #0 1.000
	// c #2 0.707
}

// ExampleBasicMetricsCollector demonstrates in-memory metrics collection.
func ExampleBasicMetricsCollector() {
	ctx := context.Background()
	metrics := &vecmem.BasicMetricsCollector{}
	store := vecmem.NewStore(vecmem.WithMetricsCollector(metrics))

	articles, _ := vecmem.GetOrCreateCollection[int, Article](store, "articles")
	_, _ = articles.Upsert(ctx, Article{ID: 1, Vector: []float32{1, 0}})
	_, _ = articles.Search([]float32{1, 0}).Execute(ctx)

	stats := metrics.GetStats()
	fmt.Println(stats.UpsertCount, stats.SearchCount)
	// Output: 1 1
}
