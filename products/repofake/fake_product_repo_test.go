package fakeproductrepo_test

import (
	"testing"

	marketerrors "github.com/jrsteele09/go-market-client/internal/errors"
	"github.com/jrsteele09/go-market-client/products"
	fakeproductrepo "github.com/jrsteele09/go-market-client/products/repofake"
	"github.com/stretchr/testify/require"
)

func seedRepo(t *testing.T) products.Repo {
	t.Helper()

	repo := fakeproductrepo.NewFakeProductRepo()
	seed := []products.Product{
		{Title: "Desk lamp", Description: "warm light", Price: 25, User: products.Owner{ID: "u1"}},
		{Title: "Office chair", Description: "ergonomic", Price: 120, User: products.Owner{ID: "u2"}},
		{Title: "Bookshelf", Description: "oak, fits a desk corner", Price: 80, User: products.Owner{ID: "u1"}},
		{Title: "Monitor", Description: "27 inch", Price: 200, User: products.Owner{ID: "u2"}},
	}
	for i := range seed {
		require.NoError(t, repo.Upsert(&seed[i]))
		require.NotEmpty(t, seed[i].ID)
	}
	return repo
}

func titles(list []*products.Product) []string {
	out := make([]string, 0, len(list))
	for _, p := range list {
		out = append(out, p.Title)
	}
	return out
}

func TestListFilters(t *testing.T) {
	repo := seedRepo(t)

	tests := []struct {
		name   string
		filter products.Filter
		want   []string
	}{
		{"insertion order", products.Filter{}, []string{"Desk lamp", "Office chair", "Bookshelf", "Monitor"}},
		{"search title and description", products.Filter{Search: "DESK"}, []string{"Desk lamp", "Bookshelf"}},
		{"price ascending", products.Filter{Sort: products.SortAsc}, []string{"Desk lamp", "Bookshelf", "Office chair", "Monitor"}},
		{"price descending", products.Filter{Sort: products.SortDesc}, []string{"Monitor", "Office chair", "Bookshelf", "Desk lamp"}},
		{"owner", products.Filter{OwnerID: "u2"}, []string{"Office chair", "Monitor"}},
		{"second page", products.Filter{Page: 2, Limit: 3}, []string{"Monitor"}},
		{"past the end", products.Filter{Page: 3, Limit: 3}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			list, err := repo.List(tt.filter)
			require.NoError(t, err)
			require.Equal(t, tt.want, titles(list))
		})
	}
}

func TestDeleteAndGet(t *testing.T) {
	repo := seedRepo(t)

	list, err := repo.List(products.Filter{Search: "monitor"})
	require.NoError(t, err)
	require.Len(t, list, 1)

	id := list[0].ID
	require.NoError(t, repo.Delete(id))

	_, err = repo.Get(id)
	require.ErrorIs(t, err, marketerrors.ErrProductNotFound)
	require.ErrorIs(t, repo.Delete(id), marketerrors.ErrProductNotFound)
}
