package moderation

import (
	"fmt"
	"strings"
	"testing"
)

func BenchmarkFilter_Check(b *testing.B) {
	words := make([]string, 0, 10_000)
	for i := 0; i < 10_000; i++ {
		words = append(words, fmt.Sprintf("forbidden%05d", i))
	}
	filter, err := NewFilter(words, []string{"badsite.com", "spam.example"})
	if err != nil {
		b.Fatal(err)
	}
	text := strings.Repeat("a perfectly normal sentence with www.example.org inside ", 10)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = filter.Check(text)
	}
}
