package postgres_test

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"newspush/internal/domain/entity"
	pg "newspush/internal/infra/adapter/persistence/postgres"
)

func TestDeliveryRepo_Exists(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS")).
		WithArgs(int64(10), "android").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	repo := pg.NewDeliveryRepo(db)
	exists, err := repo.Exists(context.Background(), 10, entity.PlatformAndroid)
	if err != nil {
		t.Fatalf("Exists err=%v", err)
	}
	if !exists {
		t.Fatal("want exists=true")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestDeliveryRepo_Exists_NoRows(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS")).
		WithArgs(int64(11), "ios").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	repo := pg.NewDeliveryRepo(db)
	exists, err := repo.Exists(context.Background(), 11, entity.PlatformIOS)
	if err != nil || exists {
		t.Fatalf("want exists=false err=nil, got exists=%v err=%v", exists, err)
	}
}

func TestDeliveryRepo_BulkInsert(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	now := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	records := []*entity.DeliveryRecord{
		{
			ID: "uuid-1", ArticleID: 10, AppID: 1,
			Platform: entity.PlatformAndroid, Country: "US", Locale: "en",
			Status: entity.DeliverySent, CreatedAt: now,
		},
		{
			ID: "uuid-2", ArticleID: 10, AppID: 2,
			Platform: entity.PlatformAndroid, Country: "US", Locale: "en",
			Status: entity.DeliveryFailed, CreatedAt: now,
		},
	}

	mock.ExpectExec(regexp.QuoteMeta("ON CONFLICT (article_id, app_id, platform) DO NOTHING")).
		WithArgs(
			"uuid-1", int64(10), int64(1), "android", "US", "en", "sent", now,
			"uuid-2", int64(10), int64(2), "android", "US", "en", "failed", now,
		).
		WillReturnResult(sqlmock.NewResult(0, 2))

	repo := pg.NewDeliveryRepo(db)
	if err := repo.BulkInsert(context.Background(), records); err != nil {
		t.Fatalf("BulkInsert err=%v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestDeliveryRepo_BulkInsert_Empty(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	// No statement may be issued for an empty page.
	repo := pg.NewDeliveryRepo(db)
	if err := repo.BulkInsert(context.Background(), nil); err != nil {
		t.Fatalf("BulkInsert err=%v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestDeliveryRepo_CountByArticle(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	mock.ExpectQuery(regexp.QuoteMeta("GROUP BY platform")).
		WithArgs(int64(10)).
		WillReturnRows(sqlmock.NewRows([]string{"platform", "count"}).
			AddRow("android", int64(980)).
			AddRow("ios", int64(2400)))

	repo := pg.NewDeliveryRepo(db)
	counts, err := repo.CountByArticle(context.Background(), 10)
	if err != nil {
		t.Fatalf("CountByArticle err=%v", err)
	}
	if counts[entity.PlatformAndroid] != 980 || counts[entity.PlatformIOS] != 2400 {
		t.Fatalf("unexpected counts: %v", counts)
	}
}
