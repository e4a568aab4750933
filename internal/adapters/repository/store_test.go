package repository_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/okian/juryrank/internal/adapters/repository"
	"github.com/okian/juryrank/internal/domain/fixtures"
	"github.com/okian/juryrank/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

// behavesLikeStore runs the contract every backend must honor.
func behavesLikeStore(ctx context.Context, st repository.Store) {
	Convey("When nothing has been saved", func() {
		_, err := st.Load(ctx)

		Convey("Then Load reports ErrEmpty", func() {
			So(errors.Is(err, repository.ErrEmpty), ShouldBeTrue)
		})
	})

	Convey("When the demo state is saved", func() {
		demo := fixtures.Demo()
		So(st.Save(ctx, demo), ShouldBeNil)

		Convey("Then Load returns an equal state", func() {
			got, err := st.Load(ctx)
			So(err, ShouldBeNil)
			So(got, ShouldResemble, demo)
		})

		Convey("Then later saves replace the document", func() {
			smaller := demo.Clone()
			smaller.Scores = smaller.Scores[:2]
			So(st.Save(ctx, smaller), ShouldBeNil)

			got, err := st.Load(ctx)
			So(err, ShouldBeNil)
			So(len(got.Scores), ShouldEqual, 2)
		})
	})

	Convey("When an empty state is saved", func() {
		So(st.Save(ctx, model.State{}), ShouldBeNil)

		Convey("Then Load returns empty collections, not ErrEmpty", func() {
			got, err := st.Load(ctx)
			So(err, ShouldBeNil)
			So(got.Projects, ShouldNotBeNil)
			So(len(got.Projects), ShouldEqual, 0)
		})
	})

	Convey("Ping succeeds", func() {
		So(st.Ping(ctx), ShouldBeNil)
	})
}

func TestMemoryStore(t *testing.T) {
	Convey("Given a memory store", t, func() {
		ctx := context.Background()
		st := repository.NewMemoryStore()
		behavesLikeStore(ctx, st)

		Convey("When the caller mutates a saved state", func() {
			demo := fixtures.Demo()
			So(st.Save(ctx, demo), ShouldBeNil)
			demo.Projects[0].Name = "changed"

			Convey("Then the stored copy is unaffected", func() {
				got, _ := st.Load(ctx)
				So(got.Projects[0].Name, ShouldNotEqual, "changed")
			})
		})
	})
}

func TestFileStore(t *testing.T) {
	Convey("Given a file store in a temp dir", t, func() {
		ctx := context.Background()
		path := filepath.Join(t.TempDir(), "state.json")
		st := repository.NewFileStore(path)
		behavesLikeStore(ctx, st)

		Convey("When the file holds a document without scores", func() {
			So(os.WriteFile(path, []byte(`{"projects":[],"judges":[],"criteria":[]}`), 0o600), ShouldBeNil)
			_, err := st.Load(ctx)

			Convey("Then Load reports ErrCorruptState", func() {
				So(errors.Is(err, repository.ErrCorruptState), ShouldBeTrue)
			})
		})

		Convey("When the file is not JSON", func() {
			So(os.WriteFile(path, []byte("not json"), 0o600), ShouldBeNil)
			_, err := st.Load(ctx)

			Convey("Then Load reports ErrCorruptState", func() {
				So(errors.Is(err, repository.ErrCorruptState), ShouldBeTrue)
			})
		})

		Convey("When a save completes", func() {
			So(st.Save(ctx, fixtures.Demo()), ShouldBeNil)

			Convey("Then no temp files are left behind", func() {
				entries, err := os.ReadDir(filepath.Dir(path))
				So(err, ShouldBeNil)
				So(len(entries), ShouldEqual, 1)
			})
		})
	})
}

func TestSQLiteStore(t *testing.T) {
	Convey("Given a sqlite store in a temp dir", t, func() {
		ctx := context.Background()
		st, err := repository.NewSQLiteStore(ctx, filepath.Join(t.TempDir(), "state.db"), "test")
		So(err, ShouldBeNil)
		Reset(func() { _ = st.Close() })

		behavesLikeStore(ctx, st)
	})
}

func TestOpen(t *testing.T) {
	Convey("Given the store factory", t, func() {
		ctx := context.Background()

		Convey("When no driver is named", func() {
			st, err := repository.Open(ctx)

			Convey("Then an instrumented memory store is returned", func() {
				So(err, ShouldBeNil)
				behavesLikeStore(ctx, st)
			})
		})

		Convey("When the file driver is named", func() {
			path := filepath.Join(t.TempDir(), "state.json")
			st, err := repository.Open(ctx, repository.WithDriver(repository.DriverFile), repository.WithPath(path))
			So(err, ShouldBeNil)
			So(st.Save(ctx, fixtures.Demo()), ShouldBeNil)

			Convey("Then the document lands on disk", func() {
				_, statErr := os.Stat(path)
				So(statErr, ShouldBeNil)
			})
		})

		Convey("When the sqlite driver is named", func() {
			st, err := repository.Open(ctx,
				repository.WithDriver(repository.DriverSQLite),
				repository.WithPath(filepath.Join(t.TempDir(), "state.db")),
				repository.WithKey("k"),
			)
			So(err, ShouldBeNil)
			Reset(func() { _ = st.Close() })

			behavesLikeStore(ctx, st)
		})

		Convey("When an unknown driver is named", func() {
			_, err := repository.Open(ctx, repository.WithDriver("mongo"))

			Convey("Then ErrUnknownDriver is returned", func() {
				So(errors.Is(err, repository.ErrUnknownDriver), ShouldBeTrue)
			})
		})
	})
}

func TestRedisStore(t *testing.T) {
	addr := os.Getenv("JURYRANK_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("JURYRANK_TEST_REDIS_ADDR not set")
	}
	Convey("Given a redis store", t, func() {
		ctx := context.Background()
		st, err := repository.Open(ctx,
			repository.WithDriver(repository.DriverRedis),
			repository.WithRedis(addr, "", 0),
			repository.WithKey("juryrank:test:"+t.Name()),
		)
		So(err, ShouldBeNil)
		Reset(func() { _ = st.Close() })

		So(st.Save(ctx, fixtures.Demo()), ShouldBeNil)
		got, err := st.Load(ctx)
		So(err, ShouldBeNil)
		So(got, ShouldResemble, fixtures.Demo())
	})
}

func TestPostgresStore(t *testing.T) {
	dsn := os.Getenv("JURYRANK_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("JURYRANK_TEST_POSTGRES_DSN not set")
	}
	Convey("Given a postgres store", t, func() {
		ctx := context.Background()
		st, err := repository.NewPostgresStore(ctx, dsn, "juryrank:test:"+t.Name())
		So(err, ShouldBeNil)
		Reset(func() { _ = st.Close() })

		So(st.Save(ctx, fixtures.Demo()), ShouldBeNil)
		got, err := st.Load(ctx)
		So(err, ShouldBeNil)
		So(got, ShouldResemble, fixtures.Demo())
	})
}
