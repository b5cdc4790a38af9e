package archlist_test

import (
	"context"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/mquery-dev/api/pkg/archlist"
	"github.com/mquery-dev/api/pkg/store"
)

var _ = Describe("Cache Reader", func() {
	var (
		ctx    context.Context
		mem    *store.MemoryStore
		now    time.Time
		reader *archlist.Reader
	)

	seed := func(key string, cachetime int64) string {
		body := []byte(`{"_id":"` + key + `","cachetime":` + itoa(cachetime) +
			`,"manifestList":"No","Platform":"amd64/linux","tag":"1.0"}`)
		rev, err := mem.Insert(ctx, &store.Document{ID: key, Body: body})
		Expect(err).NotTo(HaveOccurred())
		return rev
	}

	BeforeEach(func() {
		ctx = context.Background()
		mem = store.NewMemoryStore()
		now = time.UnixMilli(1_700_000_000_000)
		reader = archlist.NewReader(mem, archlist.WithReaderClock(func() time.Time { return now }))
	})

	It("should report missing for an unknown key", func() {
		result := reader.Lookup(ctx, "nope:latest")
		Expect(result.State).To(Equal(archlist.StateMissing))
		Expect(result.Entry).To(BeNil())
		Expect(result.Err).NotTo(HaveOccurred())
	})

	It("should report fresh within the TTL", func() {
		rev := seed("myapp:1.0", now.UnixMilli()-1000)

		result := reader.Lookup(ctx, "myapp:1.0")
		Expect(result.State).To(Equal(archlist.StateFresh))
		Expect(result.Entry.Rev).To(Equal(rev))
		Expect(result.Entry.Platform).To(Equal("amd64/linux"))
	})

	It("should treat an entry exactly one TTL old as fresh", func() {
		seed("myapp:1.0", now.UnixMilli()-time.Hour.Milliseconds())
		Expect(reader.Lookup(ctx, "myapp:1.0").State).To(Equal(archlist.StateFresh))
	})

	It("should report stale one millisecond past the TTL", func() {
		rev := seed("myapp:1.0", now.UnixMilli()-time.Hour.Milliseconds()-1)

		result := reader.Lookup(ctx, "myapp:1.0")
		Expect(result.State).To(Equal(archlist.StateStale))
		Expect(result.Entry.Rev).To(Equal(rev))
	})

	It("should honour a custom TTL", func() {
		seed("myapp:1.0", now.UnixMilli()-2000)
		short := archlist.NewReader(mem,
			archlist.WithTTL(time.Second),
			archlist.WithReaderClock(func() time.Time { return now }))
		Expect(short.Lookup(ctx, "myapp:1.0").State).To(Equal(archlist.StateStale))
	})

	It("should treat read failures as missing and keep the error", func() {
		st := &mockStore{}
		boom := errors.New("store unavailable")
		st.On("Get", ctx, "myapp:1.0").Return(nil, boom)

		result := archlist.NewReader(st).Lookup(ctx, "myapp:1.0")
		Expect(result.State).To(Equal(archlist.StateMissing))
		Expect(result.Entry).To(BeNil())
		Expect(result.Err).To(MatchError(boom))
	})

	It("should keep the revision of an unreadable document", func() {
		rev, err := mem.Insert(ctx, &store.Document{ID: "bad:1", Body: []byte(`{"manifestList":"Maybe"}`)})
		Expect(err).NotTo(HaveOccurred())

		result := reader.Lookup(ctx, "bad:1")
		Expect(result.State).To(Equal(archlist.StateMissing))
		Expect(result.Err).To(HaveOccurred())
		Expect(result.Entry).NotTo(BeNil())
		Expect(result.Entry.Rev).To(Equal(rev))
	})

	DescribeTable("state names",
		func(state archlist.CacheState, expected string) {
			Expect(state.String()).To(Equal(expected))
		},
		Entry("fresh", archlist.StateFresh, "fresh"),
		Entry("stale", archlist.StateStale, "stale"),
		Entry("missing", archlist.StateMissing, "missing"),
	)
})
