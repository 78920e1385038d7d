package helper

import (
	"context"
	"strconv"

	"github.com/gosimple/slug"
)

const maxSlugLength = 80

type SlugChecker interface {
	ProductSlugExists(ctx context.Context, slug string) (bool, error)
}

// GenerateUniqueProductSlug slugifies name and appends -1, -2, ... until the slug is free.
func GenerateUniqueProductSlug(ctx context.Context, store SlugChecker, name string) (string, error) {
	base := slug.Make(name)
	if len(base) > maxSlugLength {
		base = base[:maxSlugLength]
	}
	if base == "" {
		base = "product"
	}

	candidate := base
	for n := 1; ; n++ {
		taken, err := store.ProductSlugExists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
		candidate = base + "-" + strconv.Itoa(n)
	}
}
