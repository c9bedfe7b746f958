package postgres_test

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/go-cmp/cmp"

	pg "newspush/internal/infra/adapter/persistence/postgres"
)

func TestSourceRepo_FilterIDs(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	mock.ExpectQuery(regexp.QuoteMeta("FROM sources")).
		WithArgs("US", "en", int64(42), int64(7), int64(13)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).
			AddRow(int64(7)).
			AddRow(int64(42)))

	repo := pg.NewSourceRepo(db)
	got, err := repo.FilterIDs(context.Background(), []int64{42, 7, 13}, "US", "en")
	if err != nil {
		t.Fatalf("FilterIDs err=%v", err)
	}
	// Input order preserved; id 13 dropped (wrong locale or inactive).
	if diff := cmp.Diff([]int64{42, 7}, got); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}
}

func TestSourceRepo_FilterIDs_Empty(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	repo := pg.NewSourceRepo(db)
	got, err := repo.FilterIDs(context.Background(), nil, "US", "en")
	if err != nil || got != nil {
		t.Fatalf("want nil, nil; got %v, %v", got, err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestCategoryRepo_NamesBySlugs(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	mock.ExpectQuery(regexp.QuoteMeta("FROM categories")).
		WithArgs("tech-news", "sports").
		WillReturnRows(sqlmock.NewRows([]string{"name"}).
			AddRow("Technology").
			AddRow("Sports"))

	repo := pg.NewCategoryRepo(db)
	got, err := repo.NamesBySlugs(context.Background(), []string{"tech-news", "sports"})
	if err != nil {
		t.Fatalf("NamesBySlugs err=%v", err)
	}
	if diff := cmp.Diff([]string{"Technology", "Sports"}, got); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}
}

func TestCategoryRepo_NamesBySlugs_Empty(t *testing.T) {
	db, _, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	repo := pg.NewCategoryRepo(db)
	got, err := repo.NamesBySlugs(context.Background(), nil)
	if err != nil || got != nil {
		t.Fatalf("want nil, nil; got %v, %v", got, err)
	}
}
